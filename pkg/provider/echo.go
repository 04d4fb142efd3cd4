package provider

import "context"

// Echo answers every request with its prompt. It makes no network calls.
type Echo struct{}

func (Echo) Name() string { return "echo" }

func (Echo) Describe(_ context.Context, r Request) (string, error) {
	return r.Prompt, nil
}

func (Echo) Tag(_ context.Context, r Request) (Output, error) {
	return Text(r.Prompt), nil
}
