package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/marginalia/internal/api"
	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driving"
	"github.com/custodia-labs/marginalia/internal/logger"
)

// Ensure Client implements the interface.
var _ driving.AnnotationService = (*Client)(nil)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 8 << 20

// Client talks to the annotation HTTP API.
type Client struct {
	base    *url.URL
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a client from settings.
func NewClient(settings domain.RemoteSettings) (*Client, error) {
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: remote base URL is not set", domain.ErrValidation)
	}
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(settings.BaseURL), "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: invalid remote base URL %q", domain.ErrValidation, settings.BaseURL)
	}

	defaults := domain.DefaultAppSettings().Remote
	if settings.Timeout <= 0 {
		settings.Timeout = defaults.Timeout
	}
	if settings.RequestsPerSecond <= 0 {
		settings.RequestsPerSecond = defaults.RequestsPerSecond
	}
	if settings.Burst <= 0 {
		settings.Burst = defaults.Burst
	}

	httpClient := &http.Client{}
	if settings.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: settings.Token})
		httpClient = oauth2.NewClient(context.Background(), ts)
	}
	httpClient.Timeout = settings.Timeout

	return &Client{
		base:    base,
		http:    httpClient,
		limiter: rate.NewLimiter(rate.Limit(settings.RequestsPerSecond), settings.Burst),
	}, nil
}

// CreateHighlight creates an anchor with a highlight.
func (c *Client) CreateHighlight(ctx context.Context, target domain.AnchorTarget, color string) (*domain.HighlightCreated, error) {
	var out domain.HighlightCreated
	if err := c.do(ctx, http.MethodPost, "/api/highlights", nil, api.NewHighlightRequest(target, color), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateMemo creates an anchor with a memo. Empty rects target the page
// and are left out of the request.
func (c *Client) CreateMemo(ctx context.Context, target domain.AnchorTarget, body string) (*domain.MemoCreated, error) {
	var out domain.MemoCreated
	if err := c.do(ctx, http.MethodPost, "/api/memos", nil, api.NewMemoRequest(target, body), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateMemoOnAnchor adds a memo to an existing anchor.
func (c *Client) CreateMemoOnAnchor(ctx context.Context, anchorID, body string) (*domain.MemoCreated, error) {
	var out domain.MemoCreated
	req := api.CreateMemoRequest{AnchorID: anchorID, Body: body}
	if err := c.do(ctx, http.MethodPost, "/api/memos", nil, req, &out); err != nil {
		return nil, err
	}
	if out.AnchorID == "" {
		out.AnchorID = anchorID
	}
	return &out, nil
}

// EditMemo replaces a memo body.
func (c *Client) EditMemo(ctx context.Context, memoID, body string) error {
	return c.do(ctx, http.MethodPatch, "/api/memos/"+url.PathEscape(memoID), nil, api.EditMemoRequest{Body: body}, nil)
}

// DeleteMemo removes a memo.
func (c *Client) DeleteMemo(ctx context.Context, memoID string) error {
	return c.do(ctx, http.MethodDelete, "/api/memos/"+url.PathEscape(memoID), nil, nil, nil)
}

// DeleteHighlight removes a highlight.
func (c *Client) DeleteHighlight(ctx context.Context, highlightID string) error {
	return c.do(ctx, http.MethodDelete, "/api/highlights/"+url.PathEscape(highlightID), nil, nil, nil)
}

// FetchPage returns everything annotated on a page.
func (c *Client) FetchPage(ctx context.Context, key domain.PageKey) (*domain.PageAnnotationSet, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("documentId", key.DocumentHash)
	q.Set("page", strconv.Itoa(key.Page))

	var out api.PageAnnotations
	if err := c.do(ctx, http.MethodGet, "/api/pageAnnotations", q, nil, &out); err != nil {
		return nil, err
	}
	return out.ToSet(key), nil
}

// do sends one request and decodes the envelope into out.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %s %s: %v", domain.ErrTransport, method, path, err)
	}

	u := *c.base
	u.Path += path
	u.RawQuery = query.Encode()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: %s %s: %v", domain.ErrTransport, method, path, err)
	}
	defer resp.Body.Close()
	logger.Debug("%s %s -> %d", method, u.Path, resp.StatusCode)

	var env api.Envelope
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&env)

	if resp.StatusCode >= http.StatusMultipleChoices || (decodeErr == nil && !env.Success) {
		if decodeErr != nil {
			return api.ErrorFor(resp.StatusCode, nil)
		}
		status := resp.StatusCode
		if status < http.StatusMultipleChoices {
			status = http.StatusBadGateway
		}
		return api.ErrorFor(status, env.Error)
	}
	if decodeErr != nil {
		return fmt.Errorf("%w: %s %s: invalid response: %v", domain.ErrTransport, method, path, decodeErr)
	}
	return env.Decode(out)
}
