package provider

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // decoder
	_ "image/jpeg" // decoder
	_ "image/png"  // decoder
	"net/http"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/anthonynsimon/bild/transform"
	_ "golang.org/x/image/webp" // decoder
	"k8s.io/klog/v2"
)

// Limits bound the image a provider accepts.
type Limits struct {
	MaxBytes     int
	MaxDimension int
}

var (
	defaultLimits = Limits{MaxBytes: 10_000_000, MaxDimension: 2000}
	googleLimits  = Limits{MaxBytes: 18_000_000, MaxDimension: 6000}

	minQuality  = 10
	qualityDrop = 2
)

// LimitsFor returns the limits for the named provider.
func LimitsFor(name string) Limits {
	if name == "google" {
		return googleLimits
	}
	return defaultLimits
}

// Prepare scales bs down to fit l and re-encodes it as JPEG. Formats that
// cannot be decoded are passed through unchanged.
func Prepare(bs []byte, l Limits) ([]byte, string, error) {
	img, format, err := image.Decode(bytes.NewReader(bs))
	if err != nil {
		mt := http.DetectContentType(bs)
		klog.V(1).Infof("passing through undecodable image (%s): %v", mt, err)
		return bs, mt, nil
	}
	klog.V(2).Infof("decoded %s image: %+v", format, img.Bounds())

	if img.Bounds().Dx() == 0 || img.Bounds().Dy() == 0 {
		return nil, "", fmt.Errorf("empty image: %+v", img.Bounds())
	}

	x, y := fit(img.Bounds().Dx(), img.Bounds().Dy(), l.MaxDimension)
	if x != img.Bounds().Dx() || y != img.Bounds().Dy() {
		img = transform.Resize(img, x, y, transform.Lanczos)
	}

	q := 100
	for {
		var buf bytes.Buffer
		if err := imgio.JPEGEncoder(q)(&buf, img); err != nil {
			return nil, "", fmt.Errorf("encode: %w", err)
		}
		if buf.Len() <= l.MaxBytes || q <= minQuality {
			klog.V(1).Infof("prepared %dx%d jpeg at quality %d: %d bytes", x, y, q, buf.Len())
			return buf.Bytes(), "image/jpeg", nil
		}
		q -= qualityDrop
	}
}

// fit scales the longer side down to limit, never enlarging.
func fit(x, y, limit int) (int, int) {
	if limit <= 0 || (x <= limit && y <= limit) {
		return x, y
	}
	if x > y {
		return limit, max(1, y*limit/x)
	}
	return max(1, x*limit/y), limit
}
