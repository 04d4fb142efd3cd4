package exifai

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/otiai10/copy"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"

	"github.com/tstromberg/exifai/pkg/provider"
)

// Processor annotates one image at a time.
type Processor struct {
	cfg     *Config
	plan    *plan
	p       provider.Provider
	store   Store
	metrics *Metrics
}

// Result describes what Process did to an image.
type Result struct {
	Path    string
	Fields  FieldMap
	Written bool
	Skipped bool
}

// NewProcessor returns a Processor. m may be nil.
func NewProcessor(cfg *Config, p provider.Provider, s Store, m *Metrics) (*Processor, error) {
	if p == nil {
		return nil, errors.New("no provider configured")
	}
	if s == nil {
		return nil, errNoStore
	}
	pl, err := cfg.plan()
	if err != nil {
		return nil, err
	}
	return &Processor{cfg: cfg, plan: pl, p: p, store: s, metrics: m}, nil
}

func (pr *Processor) wants(t Task) bool {
	return slices.Contains(pr.plan.tasks, t)
}

// targets returns every field the requested tasks may write.
func (pr *Processor) targets() []FieldKey {
	var ks []FieldKey
	if pr.wants(TaskDescription) {
		ks = append(ks, pr.plan.descriptionFields...)
	}
	if pr.wants(TaskTags) {
		ks = append(ks, pr.plan.tagFields...)
	}
	return ks
}

// Process generates metadata for the image at path and writes it in a single call.
func (pr *Processor) Process(ctx context.Context, path string) (*Result, error) {
	start := time.Now()
	defer func() {
		if pr.metrics != nil {
			pr.metrics.Duration.Observe(time.Since(start).Seconds())
		}
	}()

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("abs: %w", err)
	}
	res := &Result{Path: abs}

	// SkipExisting implies AvoidOverwrite for images that are only partly filled.
	var existing map[FieldKey]Value
	if pr.cfg.AvoidOverwrite || pr.cfg.SkipExisting {
		existing, err = pr.store.Read(abs)
		if err != nil {
			pr.metrics.image("error")
			return nil, fmt.Errorf("read metadata: %w", err)
		}
	}
	if pr.cfg.SkipExisting && targetsFilled(existing, pr.targets()) {
		klog.Infof("skipping %s: all fields already set", abs)
		res.Skipped = true
		pr.metrics.image("skipped")
		return res, nil
	}
	req, err := pr.request(ctx, abs)
	if err != nil {
		pr.metrics.image("error")
		return nil, err
	}

	var desc, tags FieldMap
	g, gctx := errgroup.WithContext(ctx)
	if pr.wants(TaskDescription) {
		g.Go(func() error {
			r := req
			r.Prompt = pr.cfg.DescriptionPrompt
			desc = DescribeImage(gctx, pr.p, r, DescriptionOptions{
				Fields:   pr.plan.descriptionFields,
				Existing: existing,
				Repeat:   pr.cfg.Repeat,
				Delay:    pr.cfg.RetryDelay,
				Observe:  pr.metrics.observer(TaskDescription),
			})
			return nil
		})
	}
	if pr.wants(TaskTags) {
		g.Go(func() error {
			r := req
			r.Prompt = pr.cfg.TagPrompt
			tags = TagImage(gctx, pr.p, r, TagOptions{
				Fields:     pr.plan.tagFields,
				Existing:   existing,
				Repeat:     pr.cfg.Repeat,
				Delay:      pr.cfg.RetryDelay,
				Additional: pr.cfg.AdditionalTags,
				BestEffort: pr.cfg.BestEffortTags,
				Observe:    pr.metrics.observer(TaskTags),
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res.Fields = desc.Merge(tags)

	if res.Fields.Empty() {
		klog.Infof("%s: nothing to write", abs)
		pr.metrics.image("empty")
		return res, nil
	}
	for _, k := range res.Fields.Keys() {
		klog.V(2).Infof("%s: %s=%q%q", abs, k, res.Fields.Descriptions[k], res.Fields.Tags[k])
	}
	if pr.cfg.DryRun {
		klog.Infof("%s: dry run, not writing %d field(s)", abs, len(res.Fields.Keys()))
		pr.metrics.image("dry_run")
		return res, nil
	}

	if err := pr.backup(abs); err != nil {
		pr.metrics.image("error")
		return nil, err
	}
	if err := pr.store.Write(abs, res.Fields); err != nil {
		pr.metrics.image("error")
		return nil, fmt.Errorf("write metadata: %w", err)
	}
	res.Written = true
	klog.Infof("%s: wrote %d field(s)", abs, len(res.Fields.Keys()))
	pr.metrics.image("written")
	return res, nil
}

// request reads the image and shapes it for the provider.
func (pr *Processor) request(ctx context.Context, path string) (provider.Request, error) {
	req := provider.Request{
		Model: pr.cfg.Model,
		Args:  pr.cfg.ProviderArgs,
		Path:  path,
	}

	if up, ok := pr.p.(provider.Uploader); ok && pr.cfg.Upload {
		req.MIMEType = mimeType(path)
		id, err := up.Upload(ctx, path, req.MIMEType)
		if err != nil {
			return req, fmt.Errorf("upload: %w", err)
		}
		req.FileID = id
		return req, nil
	}

	bs, err := os.ReadFile(path)
	if err != nil {
		return req, fmt.Errorf("read image: %w", err)
	}
	req.Image, req.MIMEType, err = provider.Prepare(bs, provider.LimitsFor(pr.p.Name()))
	if err != nil {
		return req, fmt.Errorf("prepare %s: %w", path, err)
	}
	return req, nil
}

// backup copies the original file into BackupDir, mirroring its absolute path.
// An existing backup is never replaced.
func (pr *Processor) backup(path string) error {
	if pr.cfg.BackupDir == "" {
		return nil
	}
	dst := filepath.Join(pr.cfg.BackupDir, strings.TrimPrefix(path, filepath.VolumeName(path)))
	if _, err := os.Stat(dst); err == nil {
		klog.V(1).Infof("backup exists: %s", dst)
		return nil
	}
	if err := copy.Copy(path, dst); err != nil {
		return fmt.Errorf("backup: %w", err)
	}
	klog.V(1).Infof("backed up %s to %s", path, dst)
	return nil
}
