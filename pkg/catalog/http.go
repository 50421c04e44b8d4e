package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"gopkg.in/yaml.v3"
)

// Default max response size: 1MB.
const defaultMaxResponseKB = 1024

// Auth defines provider authentication.
type Auth struct {
	Type  string `json:"type" yaml:"type"`                       // bearer
	Token string `json:"token,omitempty" yaml:"token,omitempty"` // token or ${ENV_VAR}
}

func (a *Auth) validate() error {
	switch a.Type {
	case "bearer":
		if a.Token == "" {
			return fmt.Errorf("auth: token is required for bearer authentication")
		}
	default:
		return fmt.Errorf("auth: unknown type %q", a.Type)
	}
	return nil
}

// Provider configures one HTTP catalog backend. Endpoint and header values
// support ${ENV_VAR} expansion so tokens stay out of config files.
type Provider struct {
	Name     string            `json:"name" yaml:"name"`
	Endpoint string            `json:"endpoint" yaml:"endpoint"`
	Method   string            `json:"method,omitempty" yaml:"method,omitempty"` // default POST
	Headers  map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Auth     *Auth             `json:"auth,omitempty" yaml:"auth,omitempty"`

	// RequestJQ builds the request body from the query; nil posts the
	// query object itself.
	RequestJQ *JQExpr `json:"request_jq,omitempty" yaml:"request_jq,omitempty"`

	// ResultsJQ extracts the entry list from the response body; nil expects
	// the body to already be a list of entries.
	ResultsJQ *JQExpr `json:"results_jq,omitempty" yaml:"results_jq,omitempty"`

	// MaxResponseKB bounds the response body; 0 means 1MB.
	MaxResponseKB int64 `json:"max_response_kb,omitempty" yaml:"max_response_kb,omitempty"`
}

func (p *Provider) validate() error {
	if p.Name == "" {
		return fmt.Errorf("catalog provider: name is required")
	}
	if p.Endpoint == "" {
		return fmt.Errorf("provider %s: endpoint is required", p.Name)
	}
	switch p.Method {
	case "", http.MethodGet, http.MethodPost, http.MethodPut:
	default:
		return fmt.Errorf("provider %s: unsupported method %q", p.Name, p.Method)
	}
	if p.Auth != nil {
		if err := p.Auth.validate(); err != nil {
			return fmt.Errorf("provider %s: %w", p.Name, err)
		}
	}
	return nil
}

// Config is the provider list, consulted in order.
type Config struct {
	Providers []Provider `json:"providers" yaml:"providers"`
}

// LoadConfig reads and validates a provider config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse catalog config: %w", err)
	}
	for i := range cfg.Providers {
		if err := cfg.Providers[i].validate(); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

// New builds a searcher chain from the config. A nil client falls back to
// http.DefaultClient.
func New(cfg *Config, client *http.Client) (Searcher, error) {
	chain := make(Chain, 0, len(cfg.Providers))
	for i := range cfg.Providers {
		p := &cfg.Providers[i]
		if err := p.validate(); err != nil {
			return nil, err
		}
		chain = append(chain, NewHTTPSearcher(p, client))
	}
	return chain, nil
}

// HTTPSearcher queries one provider endpoint.
type HTTPSearcher struct {
	provider *Provider
	client   *http.Client
}

// NewHTTPSearcher creates a searcher for one provider. A nil client falls
// back to http.DefaultClient.
func NewHTTPSearcher(p *Provider, client *http.Client) *HTTPSearcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSearcher{provider: p, client: client}
}

// Search implements Searcher.
func (s *HTTPSearcher) Search(ctx context.Context, q Query) ([]Entry, error) {
	p := s.provider

	var reqBody io.Reader
	if p.RequestJQ != nil {
		args := map[string]any{
			"title":       q.Title,
			"contentType": q.Type,
			"service":     q.Service,
		}
		result, err := p.RequestJQ.Run(args)
		if err != nil {
			return nil, fmt.Errorf("provider %s: build request body: %w", p.Name, err)
		}
		reqBody = bytes.NewReader([]byte(result))
	} else {
		data, err := json.Marshal(q)
		if err != nil {
			return nil, fmt.Errorf("provider %s: marshal query: %w", p.Name, err)
		}
		reqBody = bytes.NewReader(data)
	}

	method := p.Method
	if method == "" {
		method = http.MethodPost
	}
	req, err := http.NewRequestWithContext(ctx, method, expandEnvVars(p.Endpoint), reqBody)
	if err != nil {
		return nil, fmt.Errorf("provider %s: create request: %w", p.Name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range p.Headers {
		req.Header.Set(key, expandEnvVars(value))
	}
	if p.Auth != nil && p.Auth.Type == "bearer" {
		req.Header.Set("Authorization", "Bearer "+expandEnvVars(p.Auth.Token))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provider %s: %w", p.Name, err)
	}
	defer resp.Body.Close()

	maxKB := p.MaxResponseKB
	if maxKB <= 0 {
		maxKB = defaultMaxResponseKB
	}
	limitedBody := io.LimitReader(resp.Body, maxKB<<10+1)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errBody, _ := io.ReadAll(limitedBody)
		return nil, fmt.Errorf("provider %s: http status %d: %s", p.Name, resp.StatusCode, errBody)
	}

	var respBody any
	if err := json.NewDecoder(limitedBody).Decode(&respBody); err != nil {
		return nil, fmt.Errorf("provider %s: decode response: %w", p.Name, err)
	}

	raw := respBody
	if p.ResultsJQ != nil {
		result, err := p.ResultsJQ.Run(respBody)
		if err != nil {
			return nil, fmt.Errorf("provider %s: extract results: %w", p.Name, err)
		}
		if err := json.Unmarshal([]byte(result), &raw); err != nil {
			return nil, fmt.Errorf("provider %s: parse results: %w", p.Name, err)
		}
	}
	return decodeEntries(p.Name, raw)
}

// decodeEntries accepts either a list of entries or a single entry object.
func decodeEntries(provider string, v any) ([]Entry, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("provider %s: marshal results: %w", provider, err)
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err == nil {
		return entries, nil
	}
	var single Entry
	if err := json.Unmarshal(data, &single); err != nil {
		return nil, fmt.Errorf("provider %s: results are not entries: %w", provider, err)
	}
	return []Entry{single}, nil
}

// expandEnvVars expands ${VAR} patterns with environment variables.
func expandEnvVars(s string) string {
	return os.Expand(s, func(key string) string {
		return os.Getenv(key)
	})
}
