package provider

import (
	"context"
	"errors"
	"slices"
	"testing"
)

func TestLookup(t *testing.T) {
	r := NewRegistry()
	tests := []struct {
		name    string
		want    string
		wantErr error
	}{
		{name: "echo", want: "echo"},
		{name: " ECHO ", want: "echo"},
		{name: "amazon", wantErr: ErrUnsupported},
		{name: "bedrock", wantErr: ErrUnsupported},
		{name: "nope", wantErr: ErrUnknownProvider},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p, err := r.Lookup(tc.name, HTTPConfig{})
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("Lookup(%q) error = %v, want %v", tc.name, err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Lookup(%q): %v", tc.name, err)
			}
			if p.Name() != tc.want {
				t.Errorf("Name() = %q, want %q", p.Name(), tc.want)
			}
		})
	}
}

func TestLookupMissingKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	r := NewRegistry()
	for _, name := range []string{"openai", "anthropic"} {
		if _, err := r.Lookup(name, HTTPConfig{}); err == nil {
			t.Errorf("Lookup(%q) without key succeeded", name)
		}
	}
}

func TestLookupVendor(t *testing.T) {
	t.Setenv("XAI_API_KEY", "k")
	t.Setenv("TOGETHER_API_KEY", "k")
	r := NewRegistry()
	for _, name := range []string{"xai", "together", "togetherai"} {
		p, err := r.Lookup(name, HTTPConfig{})
		if err != nil {
			t.Fatalf("Lookup(%q): %v", name, err)
		}
		if _, ok := p.(*OpenAI); !ok {
			t.Errorf("Lookup(%q) = %T, want *OpenAI", name, p)
		}
	}
}

func TestNames(t *testing.T) {
	ns := NewRegistry().Names()
	for _, want := range []string{"anthropic", "azure", "echo", "google", "mistral", "ollama", "openai", "openai-compatible", "openrouter", "togetherai"} {
		if !slices.Contains(ns, want) {
			t.Errorf("Names() missing %q: %v", want, ns)
		}
	}
	if !slices.IsSorted(ns) {
		t.Errorf("Names() not sorted: %v", ns)
	}
}

func TestHTTPConfigBadProxy(t *testing.T) {
	if _, err := (HTTPConfig{Proxy: "://bad"}).Client(); err == nil {
		t.Error("Client() with bad proxy succeeded")
	}
}

func TestEcho(t *testing.T) {
	r := Request{Prompt: "a, b"}
	got, err := Echo{}.Describe(context.Background(), r)
	if err != nil || got != "a, b" {
		t.Errorf("Describe() = %q, %v", got, err)
	}
	out, err := Echo{}.Tag(context.Background(), r)
	if err != nil || out.Text != "a, b" || out.Items != nil {
		t.Errorf("Tag() = %+v, %v", out, err)
	}
}
