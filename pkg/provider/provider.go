// Package provider talks to AI vision services.
package provider

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrUnknownProvider is returned by Lookup for names not in the registry.
	ErrUnknownProvider = errors.New("unknown provider")
	// ErrUnsupported is returned when a provider lacks a capability.
	ErrUnsupported = errors.New("not supported by provider")
)

// Request is a single question about an image.
type Request struct {
	Image    []byte
	MIMEType string
	Model    string
	Prompt   string
	// Args are provider specific key=value options, see ParseArgs.
	Args []string
	// Path is the local file the image was read from.
	Path string
	// FileID is a reference returned by Uploader.Upload, if any.
	FileID string
}

// Output is a raw provider response: either free text, or a list when Items is non-nil.
type Output struct {
	Text  string
	Items []string
}

// Text returns a text Output.
func Text(s string) Output {
	return Output{Text: s}
}

// List returns a list Output.
func List(items ...string) Output {
	if items == nil {
		items = []string{}
	}
	return Output{Items: items}
}

// Provider answers prompts about images.
type Provider interface {
	Name() string
	Describe(ctx context.Context, r Request) (string, error)
	Tag(ctx context.Context, r Request) (Output, error)
}

// Uploader is implemented by providers that accept a file reference in place of inline bytes.
type Uploader interface {
	Upload(ctx context.Context, path string, mimeType string) (string, error)
}

func modelOr(m string, def string) string {
	if strings.TrimSpace(m) == "" {
		return def
	}
	return m
}
