package exifai

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func touch(t *testing.T, root string, rel string) string {
	t.Helper()
	p := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(p, []byte("x"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestFind(t *testing.T) {
	root := t.TempDir()
	for _, rel := range []string{
		"a.jpg",
		"b.JPEG",
		"notes.txt",
		"sub/c.png",
		"sub/deeper/d.webp",
		".hidden/e.jpg",
		"sub/.f.jpg",
		"noext",
	} {
		touch(t, root, rel)
	}

	is, err := Find(root, DefaultExtensions)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	var got []string
	for _, i := range is {
		got = append(got, filepath.ToSlash(i.RelPath))
		if i.ModTime.IsZero() || i.Size != 1 {
			t.Errorf("%s: ModTime=%v Size=%d", i.RelPath, i.ModTime, i.Size)
		}
	}
	slices.Sort(got)
	want := []string{"a.jpg", "b.JPEG", "sub/c.png", "sub/deeper/d.webp"}
	if !slices.Equal(got, want) {
		t.Errorf("Find() = %q, want %q", got, want)
	}

	is, err = Find(root, []string{".png"})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(is) != 1 || is[0].Ext() != "png" {
		t.Errorf("Find(png) = %+v", is)
	}
}

func TestFindSingleFile(t *testing.T) {
	root := t.TempDir()
	jpg := touch(t, root, "a.jpg")
	txt := touch(t, root, "a.txt")

	is, err := Find(jpg, DefaultExtensions)
	if err != nil || len(is) != 1 || is[0].InPath != jpg {
		t.Errorf("Find(%s) = %+v, %v", jpg, is, err)
	}
	is, err = Find(txt, DefaultExtensions)
	if err != nil || len(is) != 0 {
		t.Errorf("Find(%s) = %+v, %v", txt, is, err)
	}
	if _, err := Find(filepath.Join(root, "missing"), DefaultExtensions); err == nil {
		t.Error("Find of a missing path succeeded")
	}
}

func TestAllowed(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"x.jpg", true},
		{"X.TIFF", true},
		{"x.heic", true},
		{"x.gif", false},
		{"jpg", false},
		{"dir.jpg/x", false},
	}
	for _, tc := range tests {
		if got := allowed(tc.path, DefaultExtensions); got != tc.want {
			t.Errorf("allowed(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}
