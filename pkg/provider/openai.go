package provider

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/sashabaranov/go-openai"
	"k8s.io/klog/v2"
)

// vendor describes an OpenAI-compatible endpoint.
type vendor struct {
	name    string
	baseURL string
	keyEnv  []string
	model   string
	// urlEnv overrides baseURL when set in the environment.
	urlEnv string
}

var vendors = map[string]vendor{
	"openai": {
		name: "openai", keyEnv: []string{"OPENAI_API_KEY"},
		urlEnv: "OPENAI_BASE_URL", model: "gpt-4o",
	},
	"mistral": {
		name: "mistral", baseURL: "https://api.mistral.ai/v1",
		keyEnv: []string{"MISTRAL_API_KEY"}, model: "mistral-large-latest",
	},
	"deepinfra": {
		name: "deepinfra", baseURL: "https://api.deepinfra.com/v1/openai",
		keyEnv: []string{"DEEPINFRA_API_KEY"}, model: "meta-llama/Llama-3.2-11B-Vision-Instruct",
	},
	"fireworks": {
		name: "fireworks", baseURL: "https://api.fireworks.ai/inference/v1",
		keyEnv: []string{"FIREWORKS_API_KEY"}, model: "accounts/fireworks/models/llama-v3p2-11b-vision-instruct",
	},
	"together": {
		name: "together", baseURL: "https://api.together.xyz/v1",
		keyEnv: []string{"TOGETHER_API_KEY", "TOGETHER_AI_API_KEY"}, model: "meta-llama/Llama-3.2-11B-Vision-Instruct-Turbo",
	},
	"xai": {
		name: "xai", baseURL: "https://api.x.ai/v1",
		keyEnv: []string{"XAI_API_KEY"}, model: "grok-2-vision-1212",
	},
	"openrouter": {
		name: "openrouter", baseURL: "https://openrouter.ai/api/v1",
		keyEnv: []string{"OPENROUTER_API_KEY"}, model: "openai/gpt-4o",
	},
	"openai-compatible": {
		name: "openai-compatible", keyEnv: []string{"OPENAI_COMPATIBLE_API_KEY"},
		urlEnv: "OPENAI_COMPATIBLE_BASE_URL", model: "gpt-4o",
	},
}

// OpenAI talks to any endpoint speaking the OpenAI chat completions API.
type OpenAI struct {
	name   string
	model  string
	client *openai.Client
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func newVendor(v vendor, hc *http.Client) (*OpenAI, error) {
	key := firstEnv(v.keyEnv...)
	if key == "" {
		return nil, fmt.Errorf("%s: %s is not set", v.name, strings.Join(v.keyEnv, " or "))
	}
	cfg := openai.DefaultConfig(key)
	if v.baseURL != "" {
		cfg.BaseURL = v.baseURL
	}
	if u := firstEnv(v.urlEnv); v.urlEnv != "" && u != "" {
		cfg.BaseURL = u
	}
	if v.name == "openai-compatible" && cfg.BaseURL == openai.DefaultConfig("").BaseURL {
		return nil, fmt.Errorf("%s: %s is not set", v.name, v.urlEnv)
	}
	cfg.HTTPClient = hc
	klog.V(1).Infof("%s endpoint: %s", v.name, cfg.BaseURL)
	return &OpenAI{name: v.name, model: v.model, client: openai.NewClientWithConfig(cfg)}, nil
}

// NewAzure returns a provider for an Azure OpenAI deployment. The model name is the deployment name.
func NewAzure(hc *http.Client) (*OpenAI, error) {
	key := os.Getenv("AZURE_OPENAI_API_KEY")
	endpoint := os.Getenv("AZURE_OPENAI_ENDPOINT")
	if key == "" || endpoint == "" {
		return nil, errors.New("azure: AZURE_OPENAI_API_KEY and AZURE_OPENAI_ENDPOINT must be set")
	}
	cfg := openai.DefaultAzureConfig(key, endpoint)
	cfg.HTTPClient = hc
	return &OpenAI{name: "azure", model: "gpt-4o", client: openai.NewClientWithConfig(cfg)}, nil
}

func (o *OpenAI) Name() string { return o.name }

func (o *OpenAI) Describe(ctx context.Context, r Request) (string, error) {
	return o.complete(ctx, r)
}

func (o *OpenAI) Tag(ctx context.Context, r Request) (Output, error) {
	s, err := o.complete(ctx, r)
	if err != nil {
		return Output{}, err
	}
	return Text(s), nil
}

func (o *OpenAI) complete(ctx context.Context, r Request) (string, error) {
	args, err := ParseArgs(r.Args)
	if err != nil {
		return "", err
	}

	req := openai.ChatCompletionRequest{
		Model: modelOr(r.Model, o.model),
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: r.Prompt,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL: "data:" + r.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(r.Image),
						},
					},
				},
			},
		},
		MaxTokens: args.MaxTokens,
	}
	if args.Temperature != nil {
		req.Temperature = float32(*args.Temperature)
	}

	klog.V(1).Infof("%s: asking %s: %q", o.name, req.Model, r.Prompt)
	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%s chat completion: %w", o.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s: empty response", o.name)
	}
	text := resp.Choices[0].Message.Content
	klog.V(1).Infof("%s: response: %q", o.name, text)
	return text, nil
}
