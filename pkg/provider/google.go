package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"
	"k8s.io/klog/v2"
)

var uploadPollInterval = 2 * time.Second

// Google talks to Gemini models through the Gemini API.
type Google struct {
	client *genai.Client
}

// NewGoogle returns a provider using GOOGLE_API_KEY, API_KEY or GEMINI_API_KEY.
func NewGoogle(hc *http.Client) (*Google, error) {
	key := firstEnv("GOOGLE_API_KEY", "API_KEY", "GEMINI_API_KEY")
	if key == "" {
		return nil, errors.New("google: GOOGLE_API_KEY is not set")
	}
	c, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:     key,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: hc,
	})
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}
	return &Google{client: c}, nil
}

func (g *Google) Name() string { return "google" }

func (g *Google) Describe(ctx context.Context, r Request) (string, error) {
	return g.generate(ctx, r)
}

func (g *Google) Tag(ctx context.Context, r Request) (Output, error) {
	s, err := g.generate(ctx, r)
	if err != nil {
		return Output{}, err
	}
	return Text(s), nil
}

// Upload stores the file with the Files API and waits until it can be referenced.
func (g *Google) Upload(ctx context.Context, path string, mimeType string) (string, error) {
	f, err := g.client.Files.UploadFromPath(ctx, path, &genai.UploadFileConfig{MIMEType: mimeType})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", path, err)
	}
	klog.V(1).Infof("uploaded %s as %s", path, f.Name)

	for f.State != genai.FileStateActive {
		if f.State == genai.FileStateFailed {
			return "", fmt.Errorf("processing of %s failed", f.Name)
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(uploadPollInterval):
		}
		f, err = g.client.Files.Get(ctx, f.Name, nil)
		if err != nil {
			return "", fmt.Errorf("file status: %w", err)
		}
	}
	return f.URI, nil
}

func (g *Google) generate(ctx context.Context, r Request) (string, error) {
	args, err := ParseArgs(r.Args)
	if err != nil {
		return "", err
	}

	image := &genai.Part{InlineData: &genai.Blob{MIMEType: r.MIMEType, Data: r.Image}}
	if r.FileID != "" {
		image = &genai.Part{FileData: &genai.FileData{FileURI: r.FileID, MIMEType: r.MIMEType}}
	}
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: r.Prompt}, image},
		},
	}

	cfg := &genai.GenerateContentConfig{}
	if args.Temperature != nil {
		cfg.Temperature = genai.Ptr(float32(*args.Temperature))
	}
	if args.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(args.MaxTokens)
	}

	model := modelOr(r.Model, "gemini-1.5-pro")
	klog.V(1).Infof("google: asking %s: %q", model, r.Prompt)
	resp, err := g.client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	text := responseText(resp)
	if text == "" {
		return "", errors.New("google: no text in response")
	}
	klog.V(1).Infof("google: response: %q", text)
	return text, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}
