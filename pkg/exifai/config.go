package exifai

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	DefaultDescriptionPrompt = "Please describe this image."
	DefaultTagPrompt         = "Please tag this image with relevant keywords. Output format: <tag1>, <tag2>, <tag3>, ..."
	DefaultExtensions        = []string{"jpg", "jpeg", "png", "webp", "heic", "tif", "tiff"}
)

// Config holds configuration for exifai.
type Config struct {
	Provider     string        `yaml:"provider"`
	Model        string        `yaml:"model"`
	ProviderArgs []string      `yaml:"provider_args"`
	Timeout      time.Duration `yaml:"timeout"`
	Proxy        string        `yaml:"proxy"`
	Upload       bool          `yaml:"upload"`

	Tasks             []string `yaml:"tasks"`
	DescriptionPrompt string   `yaml:"description_prompt"`
	TagPrompt         string   `yaml:"tag_prompt"`
	DescriptionFields []string `yaml:"description_fields"`
	TagFields         []string `yaml:"tag_fields"`
	AdditionalTags    []string `yaml:"additional_tags"`

	AvoidOverwrite bool          `yaml:"avoid_overwrite"`
	SkipExisting   bool          `yaml:"skip_existing"`
	DryRun         bool          `yaml:"dry_run"`
	Repeat         int           `yaml:"retry"`
	RetryDelay     time.Duration `yaml:"retry_delay"`
	BestEffortTags bool          `yaml:"best_effort_tags"`
	BackupDir      string        `yaml:"backup_dir"`

	Concurrency int           `yaml:"concurrency"`
	Extensions  []string      `yaml:"extensions"`
	Debounce    time.Duration `yaml:"debounce"`
}

// DefaultConfig returns a Config with every default filled in.
func DefaultConfig() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// LoadConfig reads a YAML config file. Missing values take their defaults.
func LoadConfig(path string) (*Config, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	c := &Config{}
	if err := yaml.Unmarshal(bs, c); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	c.applyDefaults()
	return c, nil
}

func (c *Config) applyDefaults() {
	if len(c.Tasks) == 0 {
		c.Tasks = []string{string(TaskDescription), string(TaskTags)}
	}
	if c.DescriptionPrompt == "" {
		c.DescriptionPrompt = DefaultDescriptionPrompt
	}
	if c.TagPrompt == "" {
		c.TagPrompt = DefaultTagPrompt
	}
	if len(c.DescriptionFields) == 0 {
		for _, k := range DefaultDescriptionFields {
			c.DescriptionFields = append(c.DescriptionFields, string(k))
		}
	}
	if len(c.TagFields) == 0 {
		for _, k := range DefaultTagFields {
			c.TagFields = append(c.TagFields, string(k))
		}
	}
	if len(c.Extensions) == 0 {
		c.Extensions = DefaultExtensions
	}
	if c.Concurrency < 1 {
		c.Concurrency = 1
	}
	if c.Repeat < 0 {
		c.Repeat = 0
	}
	if c.Debounce <= 0 {
		c.Debounce = 2 * time.Second
	}
	if c.Timeout <= 0 {
		c.Timeout = 2 * time.Minute
	}
}

// plan is a validated, typed view of a Config.
type plan struct {
	tasks             []Task
	descriptionFields []FieldKey
	tagFields         []FieldKey
}

func (c *Config) plan() (*plan, error) {
	c.applyDefaults()
	ts, err := ParseTasks(c.Tasks)
	if err != nil {
		return nil, err
	}
	df, err := ParseDescriptionFields(c.DescriptionFields)
	if err != nil {
		return nil, fmt.Errorf("description fields: %w", err)
	}
	tf, err := ParseTagFields(c.TagFields)
	if err != nil {
		return nil, fmt.Errorf("tag fields: %w", err)
	}
	return &plan{tasks: ts, descriptionFields: df, tagFields: tf}, nil
}

// Validate checks that tasks and field names are known.
func (c *Config) Validate() error {
	if c.Provider == "" {
		return fmt.Errorf("provider is required")
	}
	_, err := c.plan()
	return err
}
