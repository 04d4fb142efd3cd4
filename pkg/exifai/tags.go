package exifai

import (
	"context"
	"strings"
	"time"

	"github.com/samber/lo"
	"k8s.io/klog/v2"

	"github.com/tstromberg/exifai/pkg/provider"
)

// TagOptions controls TagImage.
type TagOptions struct {
	Fields []FieldKey
	// Existing holds current metadata; nil means overwrite every field.
	Existing map[FieldKey]Value
	Repeat   int
	Delay    time.Duration
	// Additional tags are appended to any tags the provider produced.
	Additional []string
	// BestEffort keeps the last rejected candidate when no attempt is accepted.
	BestEffort bool
	Observe    func(State, int)
}

// TagImage asks p for tags describing the image in req and returns the fields
// to write.
func TagImage(ctx context.Context, p provider.Provider, req provider.Request, o TagOptions) FieldMap {
	out := Attempt(ctx, func(ctx context.Context) ([]string, error) {
		raw, err := p.Tag(ctx, req)
		if err != nil {
			return nil, err
		}
		tags := NormalizeTags(raw)
		klog.V(1).Infof("%s: tags %q", req.Path, tags)
		return tags, nil
	}, AcceptTags, o.Repeat, WithName(p.Name()+" tags"), WithDelay(o.Delay))

	if o.Observe != nil {
		o.Observe(out.State, out.Attempts)
	}

	tags := out.Value
	if !out.OK() {
		if !o.BestEffort || len(out.Last) == 0 {
			klog.Infof("%s: no usable tags after %d attempt(s)", req.Path, out.Attempts)
			return FieldMap{}
		}
		klog.Infof("%s: using best-effort tags %q", req.Path, out.Last)
		tags = out.Last
	}

	extra := lo.Compact(lo.Map(o.Additional, func(s string, _ int) string { return strings.TrimSpace(s) }))
	tags = lo.Uniq(append(tags, extra...))
	return FieldMap{Tags: MergeTags(tags, o.Fields, o.Existing)}
}
