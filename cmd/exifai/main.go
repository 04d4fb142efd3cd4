// exifai writes AI-generated descriptions and tags into image metadata.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"

	"github.com/tstromberg/exifai/pkg/exifai"
	"github.com/tstromberg/exifai/pkg/manage"
	"github.com/tstromberg/exifai/pkg/provider"
)

var (
	configPath = flag.String("config", "", "path to a YAML config file; flags given on the command line override it")
	envFile    = flag.String("env-file", ".env", "dotenv file to load API keys from, if present")
	verbose    = flag.Bool("verbose", false, "log prompts, responses and intermediate values")

	providerName = flag.String("provider", "", "AI provider: "+strings.Join(provider.NewRegistry().Names(), ", "))
	model        = flag.String("model", "", "model name (provider default if empty)")
	providerArgs = flag.String("provider-args", "", "comma-separated key=value options, e.g. temperature=0.2,max_tokens=300")
	timeout      = flag.Duration("timeout", 0, "HTTP timeout for provider calls")
	proxy        = flag.String("proxy", "", "HTTP proxy URL for provider calls")
	upload       = flag.Bool("upload", false, "upload images to providers that support file references instead of sending them inline")

	tasks             = flag.String("tasks", "description,tag", "comma-separated tasks: description, tag")
	descriptionPrompt = flag.String("description-prompt", exifai.DefaultDescriptionPrompt, "prompt for the description task")
	tagPrompt         = flag.String("tag-prompt", exifai.DefaultTagPrompt, "prompt for the tag task")
	descriptionFields = flag.String("description-fields", "", "comma-separated description fields (default XPComment,Description,ImageDescription,Caption-Abstract)")
	tagFields         = flag.String("tag-fields", "", "comma-separated tag fields (default Subject,TagsList,Keywords)")
	additionalTags    = flag.String("tags", "", "comma-separated tags to add to every tagged image")

	avoidOverwrite = flag.Bool("avoid-overwrite", false, "keep existing descriptions and merge with existing tags")
	skipExisting   = flag.Bool("skip-existing", false, "skip images whose target fields are all filled, and never overwrite filled fields")
	dryRun         = flag.Bool("n", false, "dry-run mode, don't write metadata")
	repeat         = flag.Int("retry", 0, "extra attempts when a response is unusable")
	retryDelay     = flag.Duration("retry-delay", 0, "pause between attempts")
	bestEffort     = flag.Bool("best-effort-tags", false, "write the last tag response even if it was rejected")
	backupDir      = flag.String("backup-dir", "", "copy originals here before the first write")

	concurrency = flag.Int("concurrency", 1, "images processed at once")
	extensions  = flag.String("ext", "", "comma-separated image extensions to process")
	watchFlag   = flag.Bool("watch", false, "watch input directories and process new or changed images")
	debounce    = flag.Duration("debounce", 0, "watch mode: how long a file must be quiet before processing")
	listen      = flag.String("listen", "", "watch mode: host:port for /healthz, /status and /metrics")
)

func split(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// apply copies the value of the named flag into c.
func apply(c *exifai.Config, name string) {
	switch name {
	case "provider":
		c.Provider = *providerName
	case "model":
		c.Model = *model
	case "provider-args":
		c.ProviderArgs = split(*providerArgs)
	case "timeout":
		c.Timeout = *timeout
	case "proxy":
		c.Proxy = *proxy
	case "upload":
		c.Upload = *upload
	case "tasks":
		c.Tasks = split(*tasks)
	case "description-prompt":
		c.DescriptionPrompt = *descriptionPrompt
	case "tag-prompt":
		c.TagPrompt = *tagPrompt
	case "description-fields":
		c.DescriptionFields = split(*descriptionFields)
	case "tag-fields":
		c.TagFields = split(*tagFields)
	case "tags":
		c.AdditionalTags = split(*additionalTags)
	case "avoid-overwrite":
		c.AvoidOverwrite = *avoidOverwrite
	case "skip-existing":
		c.SkipExisting = *skipExisting
	case "n":
		c.DryRun = *dryRun
	case "retry":
		c.Repeat = *repeat
	case "retry-delay":
		c.RetryDelay = *retryDelay
	case "best-effort-tags":
		c.BestEffortTags = *bestEffort
	case "backup-dir":
		c.BackupDir = *backupDir
	case "concurrency":
		c.Concurrency = *concurrency
	case "ext":
		c.Extensions = split(*extensions)
	case "debounce":
		c.Debounce = *debounce
	}
}

func loadConfig() (*exifai.Config, error) {
	if *configPath == "" {
		c := &exifai.Config{}
		flag.VisitAll(func(f *flag.Flag) { apply(c, f.Name) })
		return c, nil
	}
	c, err := exifai.LoadConfig(*configPath)
	if err != nil {
		return nil, err
	}
	flag.Visit(func(f *flag.Flag) { apply(c, f.Name) })
	return c, nil
}

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	if err := run(); err != nil {
		klog.Exitf("exifai: %v", err)
	}
}

func run() error {
	if *verbose {
		if err := flag.Set("v", "1"); err != nil {
			klog.Errorf("set verbosity: %v", err)
		}
	}

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", *envFile, err)
	}

	if len(flag.Args()) == 0 {
		return fmt.Errorf("no input paths provided. Usage: %s -provider <name> <path> [path ...]", os.Args[0])
	}

	c, err := loadConfig()
	if err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	p, err := provider.NewRegistry().Lookup(c.Provider, provider.HTTPConfig{Timeout: c.Timeout, Proxy: c.Proxy})
	if err != nil {
		return fmt.Errorf("provider: %w", err)
	}

	store, err := exifai.NewExifStore()
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			klog.Errorf("Failed to close exiftool: %v", err)
		}
	}()

	reg := prometheus.NewRegistry()
	pr, err := exifai.NewProcessor(c, p, store, exifai.NewMetrics(reg))
	if err != nil {
		return fmt.Errorf("processor: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *watchFlag {
		return watch(ctx, c, pr, reg, flag.Args())
	}

	var paths []string
	for _, root := range flag.Args() {
		is, err := exifai.Find(root, c.Extensions)
		if err != nil {
			return fmt.Errorf("find %s: %w", root, err)
		}
		for _, i := range is {
			paths = append(paths, i.InPath)
		}
	}
	klog.Infof("exifai starting with %d images, provider %s", len(paths), p.Name())

	b := &exifai.Batch{Process: pr.Process, Concurrency: c.Concurrency}
	sum, err := b.Run(ctx, paths)
	klog.Infof("exifai completed: %d written, %d skipped, %d empty, %d dry-run, %d failed",
		sum.Written, sum.Skipped, sum.Empty, sum.DryRun, sum.Failed)
	if err != nil {
		klog.V(1).Infof("batch errors: %v", err)
		return fmt.Errorf("%d image(s) failed", sum.Failed)
	}
	return nil
}

// watch processes images as they appear until interrupted.
func watch(ctx context.Context, c *exifai.Config, pr *exifai.Processor, reg *prometheus.Registry, roots []string) error {
	w, err := exifai.NewWatcher(roots, c.Extensions, c.Debounce)
	if err != nil {
		return err
	}

	s := manage.New(reg)
	g, ctx := errgroup.WithContext(ctx)
	if *listen != "" {
		g.Go(func() error { return s.Serve(ctx, *listen) })
	}
	g.Go(func() error {
		klog.Infof("watching %v ...", roots)
		return w.Run(ctx, func(ctx context.Context, path string) {
			_, err := pr.Process(ctx, path)
			if err != nil {
				klog.Errorf("%s: %v", path, err)
			}
			s.Record(path, err)
		})
	})
	return g.Wait()
}
