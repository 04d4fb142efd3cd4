package exifai

import (
	"context"
	"strings"
	"time"

	"k8s.io/klog/v2"

	"github.com/tstromberg/exifai/pkg/provider"
)

// DescriptionOptions controls DescribeImage.
type DescriptionOptions struct {
	Fields []FieldKey
	// Existing holds current metadata; nil means overwrite every field.
	Existing map[FieldKey]Value
	Repeat   int
	Delay    time.Duration
	// Observe, if set, is called once with the final state of the attempt loop.
	Observe func(State, int)
}

// DescribeImage asks p for a description of the image in req and returns the
// fields to write. A provider that never produces an acceptable answer yields
// an empty FieldMap.
func DescribeImage(ctx context.Context, p provider.Provider, req provider.Request, o DescriptionOptions) FieldMap {
	out := Attempt(ctx, func(ctx context.Context) (string, error) {
		return p.Describe(ctx, req)
	}, AcceptDescription, o.Repeat, WithName(p.Name()+" description"), WithDelay(o.Delay))

	if o.Observe != nil {
		o.Observe(out.State, out.Attempts)
	}
	if !out.OK() {
		klog.Infof("%s: no usable description after %d attempt(s)", req.Path, out.Attempts)
		return FieldMap{}
	}

	desc := cleanDescription(out.Value)
	klog.V(1).Infof("%s: description: %s", req.Path, desc)
	return FieldMap{Descriptions: MergeDescription(desc, o.Fields, o.Existing)}
}

func cleanDescription(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "\r", "")
	return strings.ReplaceAll(s, "\n", "")
}
