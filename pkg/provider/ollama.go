package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	ollapi "github.com/ollama/ollama/api"
	"github.com/ollama/ollama/envconfig"
	"github.com/samber/lo"
	"k8s.io/klog/v2"
)

// Ollama talks to a local or remote Ollama server.
type Ollama struct {
	client *ollapi.Client
}

// NewOllama connects to OLLAMA_BASE_URL if set, otherwise OLLAMA_HOST or the default local server.
func NewOllama(hc *http.Client) (*Ollama, error) {
	endpoint := os.Getenv("OLLAMA_BASE_URL")
	if endpoint == "" {
		return &Ollama{client: ollapi.NewClient(envconfig.Host(), hc)}, nil
	}

	// The OpenAI-compatible path is not part of the native API.
	endpoint = strings.TrimSuffix(strings.TrimSuffix(endpoint, "/"), "/v1")
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse OLLAMA_BASE_URL: %w", err)
	}
	return &Ollama{client: ollapi.NewClient(u, hc)}, nil
}

func (o *Ollama) Name() string { return "ollama" }

func (o *Ollama) Describe(ctx context.Context, r Request) (string, error) {
	return o.generate(ctx, r)
}

func (o *Ollama) Tag(ctx context.Context, r Request) (Output, error) {
	s, err := o.generate(ctx, r)
	if err != nil {
		return Output{}, err
	}
	return Text(s), nil
}

func (o *Ollama) generate(ctx context.Context, r Request) (string, error) {
	args, err := ParseArgs(r.Args)
	if err != nil {
		return "", err
	}
	opts := map[string]any{}
	if args.Temperature != nil {
		opts["temperature"] = *args.Temperature
	}
	if args.MaxTokens > 0 {
		opts["num_predict"] = args.MaxTokens
	}

	req := &ollapi.GenerateRequest{
		Model:     modelOr(r.Model, "llama3.2-vision"),
		Prompt:    r.Prompt,
		Stream:    lo.ToPtr(false),
		KeepAlive: lo.ToPtr(ollapi.Duration{Duration: 5 * time.Minute}),
		Images:    []ollapi.ImageData{r.Image},
		Options:   opts,
	}

	klog.V(1).Infof("ollama: asking %s: %q", req.Model, r.Prompt)
	var sb strings.Builder
	err = o.client.Generate(ctx, req, func(resp ollapi.GenerateResponse) error {
		sb.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	klog.V(1).Infof("ollama: response: %q", sb.String())
	return sb.String(), nil
}
