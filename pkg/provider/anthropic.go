package provider

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"k8s.io/klog/v2"
)

const defaultAnthropicMaxTokens = 1024

// Anthropic talks to Claude models.
type Anthropic struct {
	client anthropic.Client
}

// NewAnthropic returns a provider using ANTHROPIC_API_KEY.
func NewAnthropic(hc *http.Client) (*Anthropic, error) {
	key := os.Getenv("ANTHROPIC_API_KEY")
	if key == "" {
		return nil, errors.New("anthropic: ANTHROPIC_API_KEY is not set")
	}
	c := anthropic.NewClient(option.WithAPIKey(key), option.WithHTTPClient(hc))
	return &Anthropic{client: c}, nil
}

func (a *Anthropic) Name() string { return "anthropic" }

func (a *Anthropic) Describe(ctx context.Context, r Request) (string, error) {
	return a.message(ctx, r)
}

func (a *Anthropic) Tag(ctx context.Context, r Request) (Output, error) {
	s, err := a.message(ctx, r)
	if err != nil {
		return Output{}, err
	}
	return Text(s), nil
}

func (a *Anthropic) message(ctx context.Context, r Request) (string, error) {
	args, err := ParseArgs(r.Args)
	if err != nil {
		return "", err
	}
	maxTokens := int64(defaultAnthropicMaxTokens)
	if args.MaxTokens > 0 {
		maxTokens = int64(args.MaxTokens)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(modelOr(r.Model, "claude-3-5-sonnet-20241022")),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewImageBlockBase64(r.MIMEType, base64.StdEncoding.EncodeToString(r.Image)),
				anthropic.NewTextBlock(r.Prompt),
			),
		},
	}
	if args.Temperature != nil {
		params.Temperature = anthropic.Float(*args.Temperature)
	}

	klog.V(1).Infof("anthropic: asking %s: %q", params.Model, r.Prompt)
	msg, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic message: %w", err)
	}

	var sb strings.Builder
	for _, c := range msg.Content {
		if c.Type == "text" {
			sb.WriteString(c.Text)
		}
	}
	if sb.Len() == 0 {
		return "", errors.New("anthropic: no text in response")
	}
	klog.V(1).Infof("anthropic: response: %q", sb.String())
	return sb.String(), nil
}
