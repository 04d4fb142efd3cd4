package provider

import (
	"fmt"
	"strconv"
	"strings"
)

// Args are generation options shared by providers.
type Args struct {
	Temperature *float64
	MaxTokens   int
}

// ParseArgs parses key=value pairs. Unknown keys are rejected.
func ParseArgs(kvs []string) (Args, error) {
	a := Args{}
	for _, kv := range kvs {
		kv = strings.TrimSpace(kv)
		if kv == "" {
			continue
		}
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return a, fmt.Errorf("provider arg %q: expected key=value", kv)
		}
		switch strings.ToLower(strings.TrimSpace(k)) {
		case "temperature":
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return a, fmt.Errorf("temperature: %w", err)
			}
			a.Temperature = &f
		case "max_tokens", "max-tokens":
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return a, fmt.Errorf("max_tokens: %w", err)
			}
			a.MaxTokens = n
		default:
			return a, fmt.Errorf("unknown provider arg %q", k)
		}
	}
	return a, nil
}
