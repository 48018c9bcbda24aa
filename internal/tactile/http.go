package tactile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tools4ai/internal/actions"
	"tools4ai/internal/logging"
)

// HTTPExecutor calls endpoint-backed actions.
type HTTPExecutor struct {
	Client *http.Client
	// MaxBody caps the response body read.
	MaxBody int64
}

// NewHTTPExecutor returns an executor with a 60s client timeout.
func NewHTTPExecutor() *HTTPExecutor {
	return &HTTPExecutor{
		Client:  &http.Client{Timeout: defaultTimeout},
		MaxBody: defaultMaxOutput,
	}
}

// Call sends one request. {name} placeholders in the URL are filled first;
// remaining args travel as query parameters for GET and DELETE and as a JSON
// object body otherwise. A non-2xx status is an error carrying the body.
func (e *HTTPExecutor) Call(ctx context.Context, spec *actions.HTTPSpec, params []actions.Param, args []any) (string, error) {
	if spec == nil || spec.URL == "" {
		return "", fmt.Errorf("%w: http action has no url", actions.ErrInvalidSpec)
	}
	method := strings.ToUpper(spec.Method)
	if method == "" {
		method = http.MethodGet
	}

	target := spec.URL
	rest := make(map[string]any, len(params))
	order := make([]string, 0, len(params))
	for i, p := range params {
		var v any
		if i < len(args) {
			v = args[i]
		}
		placeholder := "{" + p.Name + "}"
		if strings.Contains(target, placeholder) {
			target = strings.ReplaceAll(target, placeholder, url.PathEscape(Stringify(v)))
			continue
		}
		rest[p.Name] = v
		order = append(order, p.Name)
	}

	var body io.Reader
	if method == http.MethodGet || method == http.MethodDelete {
		u, err := url.Parse(target)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %w", actions.ErrInvalidSpec, target, err)
		}
		q := u.Query()
		for _, name := range order {
			q.Set(name, Stringify(rest[name]))
		}
		u.RawQuery = q.Encode()
		target = u.String()
	} else {
		payload, err := json.Marshal(rest)
		if err != nil {
			return "", fmt.Errorf("encode body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", actions.ErrInvalidSpec, target, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range spec.Headers {
		req.Header.Set(k, v)
	}

	client := e.Client
	if client == nil {
		client = http.DefaultClient
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	limit := e.MaxBody
	if limit <= 0 {
		limit = defaultMaxOutput
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return "", fmt.Errorf("read %s %s: %w", method, target, err)
	}
	logging.TactileDebug("http: %s %s -> %d in %v", method, target, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return string(data), fmt.Errorf("%s %s: status %d", method, target, resp.StatusCode)
	}
	return string(data), nil
}
