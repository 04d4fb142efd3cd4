package provider

import (
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// HTTPConfig describes the HTTP client shared by all providers.
type HTTPConfig struct {
	Timeout time.Duration
	Proxy   string
}

// Client builds an *http.Client from c.
func (c HTTPConfig) Client() (*http.Client, error) {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	if c.Proxy != "" {
		u, err := url.Parse(c.Proxy)
		if err != nil {
			return nil, fmt.Errorf("proxy %q: %w", c.Proxy, err)
		}
		tr.Proxy = http.ProxyURL(u)
	}
	return &http.Client{Timeout: c.Timeout, Transport: tr}, nil
}
