package exifai

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/barasher/go-exiftool"
	"k8s.io/klog/v2"
)

// Store reads and writes image metadata.
type Store interface {
	Read(path string) (map[FieldKey]Value, error)
	Write(path string, m FieldMap) error
	Close() error
}

// ExifStore is a Store backed by a long-running exiftool process.
type ExifStore struct {
	mu sync.Mutex
	et *exiftool.Exiftool
}

// NewExifStore starts exiftool.
func NewExifStore() (*ExifStore, error) {
	et, err := exiftool.NewExiftool(exiftool.Charset("filename=utf8"))
	if err != nil {
		return nil, fmt.Errorf("exiftool: %w", err)
	}
	return &ExifStore{et: et}, nil
}

// Read returns every field exiftool reports for path.
func (s *ExifStore) Read(path string) (map[FieldKey]Value, error) {
	s.mu.Lock()
	fis := s.et.ExtractMetadata(path)
	s.mu.Unlock()

	if len(fis) == 0 {
		return nil, fmt.Errorf("extract %q: no metadata returned", path)
	}
	fi := fis[0]
	if fi.Err != nil {
		return nil, fmt.Errorf("extract fail for %q: %w", path, fi.Err)
	}

	vals := map[FieldKey]Value{}
	for k, v := range fi.Fields {
		klog.V(2).Infof("%q=%v", k, v)
		vals[FieldKey(k)] = valueOf(v)
	}
	return vals, nil
}

func valueOf(v interface{}) Value {
	switch t := v.(type) {
	case nil:
		return Value{}
	case string:
		return StringValue(t)
	case []interface{}:
		ss := make([]string, 0, len(t))
		for _, e := range t {
			ss = append(ss, fmt.Sprint(e))
		}
		return ListValue(ss...)
	case []string:
		return ListValue(t...)
	default:
		return StringValue(fmt.Sprint(t))
	}
}

// Write stores every field of m in a single exiftool call.
func (s *ExifStore) Write(path string, m FieldMap) error {
	if m.Empty() {
		return nil
	}

	fm := exiftool.EmptyFileMetadata()
	fm.File = path
	for k, v := range m.Descriptions {
		fm.SetString(string(k), v)
	}
	for k, v := range m.Tags {
		fm.SetStrings(string(k), v)
	}

	fms := []exiftool.FileMetadata{fm}
	s.mu.Lock()
	s.et.WriteMetadata(fms)
	s.mu.Unlock()

	if err := fms[0].Err; err != nil {
		return fmt.Errorf("write %q (%s): %w", path, keyList(m), err)
	}
	return nil
}

// Close stops exiftool.
func (s *ExifStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.et.Close(); err != nil {
		return fmt.Errorf("close exiftool: %w", err)
	}
	return nil
}

func keyList(m FieldMap) string {
	ks := []string{}
	for _, k := range m.Keys() {
		ks = append(ks, string(k))
	}
	return strings.Join(ks, ",")
}

// targetsFilled reports whether every field in keys already has a value.
func targetsFilled(existing map[FieldKey]Value, keys []FieldKey) bool {
	if len(keys) == 0 {
		return false
	}
	for _, k := range keys {
		if existing[k].Blank() {
			return false
		}
	}
	return true
}

var errNoStore = errors.New("no metadata store configured")
