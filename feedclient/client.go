// Package feedclient talks to the remote posts REST service. It holds no state
// besides its base URL and does not retry.
package feedclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cppla/postfeed/models"
)

const DefaultBaseURL = "https://dev.codeleap.co.uk/careers/"

// Operation names used in APIError.
const (
	OpFetch  = "fetch"
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// ErrForeignCursor rejects a page cursor that does not point into the remote collection.
var ErrForeignCursor = errors.New("page cursor does not belong to the feed service")

// APIError is a non-success answer (or transport failure) of the remote service.
type APIError struct {
	Op     string
	Status int
	// Detail is the server supplied message; only create failures carry one.
	Detail string
	Err    error
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	if e.Op == OpFetch {
		return "Failed to fetch posts"
	}
	return "Failed to " + e.Op + " post"
}

func (e *APIError) Unwrap() error { return e.Err }

// Client is the remote feed client.
type Client struct {
	baseURL string
	base    *neturl.URL
	http    *http.Client
	log     *zap.Logger
}

// New creates a client. An empty baseURL selects DefaultBaseURL; a nil httpClient gets one
// with the given timeout (0 means none).
func New(baseURL string, httpClient *http.Client, timeout time.Duration, logger *zap.Logger) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	normalized := ensureTrailingSlash(strings.TrimSpace(baseURL))
	base, err := neturl.Parse(normalized)
	if err != nil {
		logger.Warn("invalid feed base url, cursors will be refused", zap.String("url", normalized), zap.Error(err))
		base = nil
	}
	return &Client{
		baseURL: normalized,
		base:    base,
		http:    httpClient,
		log:     logger.Named("feedclient"),
	}
}

// BaseURL returns the normalized collection URL.
func (c *Client) BaseURL() string { return c.baseURL }

// ensureTrailingSlash makes the path of u end with "/", leaving any query untouched.
func ensureTrailingSlash(u string) string {
	parsed, err := neturl.Parse(u)
	if err != nil || (parsed.RawQuery == "" && parsed.Fragment == "") {
		if strings.HasSuffix(u, "/") {
			return u
		}
		return u + "/"
	}
	if !strings.HasSuffix(parsed.Path, "/") {
		parsed.Path += "/"
		if parsed.RawPath != "" {
			parsed.RawPath += "/"
		}
	}
	return parsed.String()
}

// FetchPosts loads one page: the first page when pageURL is empty, else the cursor URL.
// A cursor must share scheme and host with the base URL and stay under its path, otherwise
// ErrForeignCursor is returned and nothing is sent.
func (c *Client) FetchPosts(ctx context.Context, pageURL string) (models.Page, error) {
	var page models.Page
	url := c.baseURL
	if pageURL != "" {
		if !c.ownsCursor(pageURL) {
			c.log.Warn("foreign page cursor refused", zap.String("cursor", pageURL))
			return page, ErrForeignCursor
		}
		url = ensureTrailingSlash(pageURL)
	}

	resp, err := c.do(ctx, OpFetch, http.MethodGet, url, nil)
	if err != nil {
		return page, err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return page, &APIError{Op: OpFetch, Status: resp.StatusCode, Err: fmt.Errorf("decode page: %w", err)}
	}
	return page, nil
}

func (c *Client) ownsCursor(raw string) bool {
	if c.base == nil {
		return false
	}
	u, err := neturl.Parse(strings.TrimSpace(raw))
	if err != nil || u.User != nil || u.Opaque != "" {
		return false
	}
	if !strings.EqualFold(u.Scheme, c.base.Scheme) || !strings.EqualFold(u.Host, c.base.Host) {
		return false
	}
	p := path.Clean("/" + u.Path)
	if !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return strings.HasPrefix(p, c.base.Path)
}

type createRequest struct {
	Username string `json:"username"`
	Title    string `json:"title"`
	Content  string `json:"content"`
}

type updateRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// CreatePost publishes a new post and returns it as stored by the server.
func (c *Client) CreatePost(ctx context.Context, username, title, content string) (models.Post, error) {
	var post models.Post
	resp, err := c.do(ctx, OpCreate, http.MethodPost, c.baseURL, createRequest{Username: username, Title: title, Content: content})
	if err != nil {
		return post, err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(&post); err != nil {
		return post, &APIError{Op: OpCreate, Status: resp.StatusCode, Err: fmt.Errorf("decode post: %w", err)}
	}
	return post, nil
}

// UpdatePost changes title and content of a post.
func (c *Client) UpdatePost(ctx context.Context, id int64, title, content string) (models.Post, error) {
	var post models.Post
	resp, err := c.do(ctx, OpUpdate, http.MethodPatch, c.itemURL(id), updateRequest{Title: title, Content: content})
	if err != nil {
		return post, err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(&post); err != nil {
		return post, &APIError{Op: OpUpdate, Status: resp.StatusCode, Err: fmt.Errorf("decode post: %w", err)}
	}
	return post, nil
}

// DeletePost removes a post.
func (c *Client) DeletePost(ctx context.Context, id int64) error {
	resp, err := c.do(ctx, OpDelete, http.MethodDelete, c.itemURL(id), nil)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

func (c *Client) itemURL(id int64) string {
	return c.baseURL + strconv.FormatInt(id, 10) + "/"
}

// do sends the request and turns transport failures and non-2xx answers into *APIError.
func (c *Client) do(ctx context.Context, op, method, url string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, &APIError{Op: op, Err: fmt.Errorf("encode body: %w", err)}
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, &APIError{Op: op, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if method == http.MethodGet {
		req.Header.Set("Cache-Control", "no-store")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("remote request failed", zap.String("op", op), zap.String("url", url), zap.Error(err))
		return nil, &APIError{Op: op, Err: err}
	}
	c.log.Debug("remote request",
		zap.String("op", op),
		zap.String("method", method),
		zap.String("url", url),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		apiErr := &APIError{Op: op, Status: resp.StatusCode}
		if op == OpCreate {
			var payload struct {
				Detail string `json:"detail"`
			}
			if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&payload); err == nil {
				apiErr.Detail = strings.TrimSpace(payload.Detail)
			}
		}
		return nil, apiErr
	}
	return resp, nil
}
