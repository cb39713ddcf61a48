package toolkit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	webFetchMaxBody  = 512 * 1024
	webFetchTimeout  = 30 * time.Second
	webFetchMaxTries = 3
)

// WebFetchTool retrieves a URL over HTTPS. It is the only built-in tool that
// touches the network, and it refuses to run for agents without network
// access.
type WebFetchTool struct {
	client *http.Client
}

// NewWebFetchTool creates the built-in web fetch tool.
func NewWebFetchTool() *WebFetchTool {
	return &WebFetchTool{
		client: &http.Client{Timeout: webFetchTimeout},
	}
}

func (w *WebFetchTool) Name() string { return "webfetch" }

func (w *WebFetchTool) Description() string {
	return "Fetch the contents of an HTTPS URL"
}

type webFetchArgs struct {
	URL string `json:"url"`
}

// Run implements Tool. Transient failures are retried with exponential
// backoff; 4xx responses are not.
func (w *WebFetchTool) Run(ctx context.Context, env ToolEnv, args json.RawMessage) (string, error) {
	if !env.NetworkAccess {
		return "", fmt.Errorf("webfetch requires network access")
	}

	var a webFetchArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return "", fmt.Errorf("invalid webfetch arguments: %w", err)
	}

	u, err := url.Parse(a.URL)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") {
		return "", fmt.Errorf("invalid url: %s", a.URL)
	}

	var body string
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.URL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := w.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return fmt.Errorf("server error: %s", resp.Status)
		}
		if resp.StatusCode >= 400 {
			return backoff.Permanent(fmt.Errorf("request failed: %s", resp.Status))
		}

		data, err := io.ReadAll(io.LimitReader(resp.Body, webFetchMaxBody))
		if err != nil {
			return err
		}
		body = string(data)
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), webFetchMaxTries-1),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		return "", fmt.Errorf("fetch %s: %w", a.URL, err)
	}
	return body, nil
}
