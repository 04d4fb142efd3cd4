package exifai

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/karrick/godirwalk"
	"k8s.io/klog/v2"
)

// allowed reports whether path has one of exts.
func allowed(path string, exts []string) bool {
	e := extOf(path)
	return e != "" && slices.ContainsFunc(exts, func(x string) bool {
		return strings.EqualFold(strings.TrimPrefix(x, "."), e)
	})
}

func hidden(path string) bool {
	b := filepath.Base(path)
	return len(b) > 1 && b[0] == '.' && b != ".."
}

// Find returns images under root with one of exts. Dot files and directories are skipped.
// If root is a file, it is returned when its extension matches.
func Find(root string, exts []string) ([]*Image, error) {
	st, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	}
	if !st.IsDir() {
		if !allowed(root, exts) {
			return nil, nil
		}
		return []*Image{{InPath: root, RelPath: filepath.Base(root), ModTime: st.ModTime(), Size: st.Size()}}, nil
	}

	found := []*Image{}
	err = godirwalk.Walk(root, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if path != root && hidden(path) {
				return godirwalk.SkipThis
			}
			if de.IsDir() || !allowed(path, exts) {
				return nil
			}

			fi, err := os.Stat(path)
			if err != nil {
				klog.Errorf("stat failure: %v", err)
				return err
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			klog.V(1).Infof("found %s", path)
			found = append(found, &Image{InPath: path, RelPath: rel, ModTime: fi.ModTime(), Size: fi.Size()})
			return nil
		},
	})
	return found, err
}
