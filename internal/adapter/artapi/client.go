package artapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coocood/freecache"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/mmcdole/artshelf/internal/domain"
)

const (
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 512
)

// Config configures the API client
type Config struct {
	BaseURL  string
	APIKey   string        // Optional; anonymous requests are allowed
	Timeout  time.Duration // Overall request deadline
	Observer domain.Observer

	CacheSize int           // Detail cache size in bytes; 0 disables the cache
	CacheTTL  time.Duration // Lifetime of cached artwork details
}

// Client implements domain.ArtworkSource against the artwork HTTP API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	observer   domain.Observer
	logger     *slog.Logger

	cache    *freecache.Cache
	cacheTTL int

	inFlight atomic.Int64

	errMu   sync.Mutex
	lastErr *domain.RemoteError
}

var _ domain.ArtworkSource = (*Client)(nil)

// NewClient creates a new artwork API client
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Observer == nil {
		cfg.Observer = domain.NoOpObserver{}
	}

	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  strings.TrimSpace(cfg.APIKey),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		observer: cfg.Observer,
		logger:   logger,
	}
	if cfg.CacheSize > 0 {
		c.cache = freecache.NewCache(cfg.CacheSize)
		c.cacheTTL = max(1, int(cfg.CacheTTL.Seconds()))
	}
	return c
}

// LastError returns the most recent request failure, or nil if the last
// request succeeded. Each new request clears it.
func (c *Client) LastError() *domain.RemoteError {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.lastErr
}

// InFlight returns the number of requests currently running
func (c *Client) InFlight() int {
	return int(c.inFlight.Load())
}

func (c *Client) setLastError(err *domain.RemoteError) {
	c.errMu.Lock()
	c.lastErr = err
	c.errMu.Unlock()
}

// request describes one API call
type request struct {
	op          string // Endpoint name for logs, metrics and errors
	method      string
	path        string
	query       url.Values
	body        io.Reader
	length      int64 // Body length when body is not a bytes.Reader
	contentType string
}

// doRequest performs one API call and returns the envelope data.
// There is no retry: the counter endpoints are not idempotent.
func (c *Client) doRequest(ctx context.Context, r request) (json.RawMessage, error) {
	c.setLastError(nil)
	c.inFlight.Add(1)
	defer c.inFlight.Add(-1)

	reqURL := c.baseURL + r.path
	if len(r.query) > 0 {
		reqURL = fmt.Sprintf("%s?%s", reqURL, r.query.Encode())
	}
	requestID := uuid.NewString()

	req, err := http.NewRequestWithContext(ctx, r.method, reqURL, r.body)
	if err != nil {
		return nil, c.fail(&domain.RemoteError{
			Op:        r.op,
			Message:   "failed to create request",
			RequestID: requestID,
			Err:       err,
		})
	}
	if r.length > 0 {
		req.ContentLength = r.length
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "X-API-Key "+c.apiKey)
	}

	c.logger.Debug("api request", "op", r.op, "method", r.method, "url", reqURL, "requestID", requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observer.OnRequest(r.op, 0, time.Since(start))
		return nil, c.fail(&domain.RemoteError{
			Op:        r.op,
			Message:   err.Error(),
			RequestID: requestID,
			Err:       err,
		})
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	c.observer.OnRequest(r.op, resp.StatusCode, time.Since(start))
	if err != nil {
		return nil, c.fail(&domain.RemoteError{
			Op:        r.op,
			Status:    resp.StatusCode,
			Message:   "failed to read response",
			RequestID: requestID,
			Err:       err,
		})
	}

	var (
		env       Envelope
		decodeErr error
	)
	if len(bytes.TrimSpace(body)) > 0 {
		decodeErr = json.Unmarshal(body, &env)
	}
	if env.RequestID != "" {
		requestID = env.RequestID
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := env.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		if decodeErr != nil {
			c.logger.Debug("non-envelope error body", "op", r.op, "body", truncate(body))
		}
		return nil, c.fail(&domain.RemoteError{
			Op:        r.op,
			Status:    resp.StatusCode,
			Code:      envelopeCode(env),
			Message:   msg,
			RequestID: requestID,
		})
	}

	if decodeErr != nil {
		return nil, c.fail(&domain.RemoteError{
			Op:        r.op,
			Status:    resp.StatusCode,
			Message:   "invalid response envelope",
			RequestID: requestID,
			Err:       decodeErr,
		})
	}

	if !envelopeOK(env) {
		msg := env.Message
		if msg == "" {
			msg = "request rejected"
		}
		return nil, c.fail(&domain.RemoteError{
			Op:        r.op,
			Status:    resp.StatusCode,
			Code:      envelopeCode(env),
			Message:   msg,
			RequestID: requestID,
		})
	}

	return env.Data, nil
}

func (c *Client) fail(err *domain.RemoteError) error {
	c.setLastError(err)
	c.logger.Error("api request failed",
		"op", err.Op,
		"status", err.Status,
		"code", err.Code,
		"requestID", err.RequestID,
		"error", err,
	)
	return err
}

// decode unmarshals envelope data, reporting malformed payloads as remote errors
func (c *Client) decode(op string, data json.RawMessage, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return c.fail(&domain.RemoteError{
			Op:      op,
			Status:  http.StatusOK,
			Message: "failed to parse response",
			Err:     err,
		})
	}
	return nil
}

func envelopeOK(env Envelope) bool {
	if env.Code == nil {
		return true
	}
	code := *env.Code
	return code == 0 || (code >= 200 && code < 300)
}

func envelopeCode(env Envelope) int {
	if env.Code == nil {
		return 0
	}
	return *env.Code
}

func truncate(body []byte) string {
	if len(body) > maxErrorBody {
		return string(body[:maxErrorBody])
	}
	return string(body)
}

// filterQuery encodes filters; paging parameters set afterwards take precedence
func filterQuery(filters domain.Filters) url.Values {
	query := url.Values{}
	for k, v := range filters.Extra {
		query.Set(k, v)
	}
	for _, tag := range filters.Tags {
		query.Add("tags", tag)
	}
	return query
}

// ListArtworks returns one page of the listing
func (c *Client) ListArtworks(ctx context.Context, page, pageSize int, filters domain.Filters) (domain.Page, error) {
	query := filterQuery(filters)
	query.Set("page", strconv.Itoa(page))
	query.Set("page_size", strconv.Itoa(pageSize))

	data, err := c.doRequest(ctx, request{
		op:     "artworks.list",
		method: http.MethodGet,
		path:   "/artworks",
		query:  query,
	})
	if err != nil {
		return domain.Page{}, err
	}

	var resp PageDTO
	if err := c.decode("artworks.list", data, &resp); err != nil {
		return domain.Page{}, err
	}

	result := domain.Page{
		Items:    MapArtworks(resp.List),
		Total:    max(0, resp.Total),
		Page:     resp.Page,
		PageSize: resp.PageSize,
	}
	if result.Page < 1 {
		result.Page = page
	}
	if result.PageSize < 1 {
		result.PageSize = pageSize
	}
	return result, nil
}

// RandomArtworks returns a random sample of artworks
func (c *Client) RandomArtworks(ctx context.Context, limit int, filters domain.Filters) ([]domain.Artwork, error) {
	query := filterQuery(filters)
	query.Set("limit", strconv.Itoa(limit))

	data, err := c.doRequest(ctx, request{
		op:     "artworks.random",
		method: http.MethodGet,
		path:   "/artworks/random",
		query:  query,
	})
	if err != nil {
		return nil, err
	}
	return c.decodeList("artworks.random", data)
}

// ListByCategory returns one page of a category listing
func (c *Client) ListByCategory(ctx context.Context, category string, page, pageSize int) ([]domain.Artwork, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("page_size", strconv.Itoa(pageSize))

	data, err := c.doRequest(ctx, request{
		op:     "artworks.category",
		method: http.MethodGet,
		path:   "/artworks/category/" + url.PathEscape(category),
		query:  query,
	})
	if err != nil {
		return nil, err
	}
	return c.decodeList("artworks.category", data)
}

// decodeList accepts either a bare array or a paginated object
func (c *Client) decodeList(op string, data json.RawMessage) ([]domain.Artwork, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []domain.Artwork{}, nil
	}
	if trimmed[0] == '{' {
		var page PageDTO
		if err := c.decode(op, data, &page); err != nil {
			return nil, err
		}
		return MapArtworks(page.List), nil
	}
	var list []ArtworkDTO
	if err := c.decode(op, data, &list); err != nil {
		return nil, err
	}
	return MapArtworks(list), nil
}

// GetArtwork returns a single artwork, served from the detail cache when fresh
func (c *Client) GetArtwork(ctx context.Context, id int64) (domain.Artwork, error) {
	if data, ok := c.cacheGet(id); ok {
		var dto ArtworkDTO
		if err := json.Unmarshal(data, &dto); err == nil {
			return MapArtwork(dto), nil
		}
		c.invalidate(id)
	}

	data, err := c.doRequest(ctx, request{
		op:     "artworks.get",
		method: http.MethodGet,
		path:   artworkPath(id),
	})
	if err != nil {
		return domain.Artwork{}, err
	}

	var dto ArtworkDTO
	if err := c.decode("artworks.get", data, &dto); err != nil {
		return domain.Artwork{}, err
	}
	c.cacheSet(id, data)
	return MapArtwork(dto), nil
}

// CreateArtwork registers an uploaded file as an artwork
func (c *Client) CreateArtwork(ctx context.Context, req domain.ArtworkCreateRequest) (domain.Artwork, error) {
	return c.sendArtwork(ctx, "artworks.create", http.MethodPost, "/artworks", req)
}

// UpdateArtwork changes an artwork's mutable fields
func (c *Client) UpdateArtwork(ctx context.Context, id int64, req domain.ArtworkUpdateRequest) (domain.Artwork, error) {
	c.invalidate(id)
	return c.sendArtwork(ctx, "artworks.update", http.MethodPut, artworkPath(id), req)
}

func (c *Client) sendArtwork(ctx context.Context, op, method, path string, payload any) (domain.Artwork, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return domain.Artwork{}, fmt.Errorf("failed to encode request: %w", err)
	}

	data, err := c.doRequest(ctx, request{
		op:          op,
		method:      method,
		path:        path,
		body:        bytes.NewReader(body),
		contentType: "application/json",
	})
	if err != nil {
		return domain.Artwork{}, err
	}

	var dto ArtworkDTO
	if err := c.decode(op, data, &dto); err != nil {
		return domain.Artwork{}, err
	}
	return MapArtwork(dto), nil
}

// DeleteArtwork removes an artwork
func (c *Client) DeleteArtwork(ctx context.Context, id int64) error {
	c.invalidate(id)
	_, err := c.doRequest(ctx, request{
		op:     "artworks.delete",
		method: http.MethodDelete,
		path:   artworkPath(id),
	})
	return err
}

// Increment calls the like or bookmark endpoint and returns the new counter
func (c *Client) Increment(ctx context.Context, kind domain.Kind, id int64) (int, error) {
	return c.engage(ctx, kind, id, kind.String())
}

// Decrement calls the unlike or unbookmark endpoint and returns the new counter
func (c *Client) Decrement(ctx context.Context, kind domain.Kind, id int64) (int, error) {
	return c.engage(ctx, kind, id, "un"+kind.String())
}

func (c *Client) engage(ctx context.Context, kind domain.Kind, id int64, action string) (int, error) {
	op := "artworks." + action
	c.invalidate(id)

	data, err := c.doRequest(ctx, request{
		op:     op,
		method: http.MethodPost,
		path:   artworkPath(id) + "/" + action,
	})
	if err != nil {
		return 0, err
	}

	var resp CounterDTO
	if len(bytes.TrimSpace(data)) > 0 {
		if err := c.decode(op, data, &resp); err != nil {
			return 0, err
		}
	}

	counter := resp.Likes
	if kind == domain.KindBookmark {
		counter = resp.Bookmarks
	}
	if counter == nil {
		// Some deployments answer with an empty body
		return -1, nil
	}
	return max(0, *counter), nil
}

// DeleteFile removes a stored file by path
func (c *Client) DeleteFile(ctx context.Context, path string) error {
	query := url.Values{}
	query.Set("path", path)

	data, err := c.doRequest(ctx, request{
		op:     "files.delete",
		method: http.MethodDelete,
		path:   "/files",
		query:  query,
	})
	if err != nil {
		return err
	}

	var resp DeleteFileDTO
	if err := c.decode("files.delete", data, &resp); err != nil {
		return err
	}
	if !resp.Deleted {
		return c.fail(&domain.RemoteError{
			Op:      "files.delete",
			Status:  http.StatusOK,
			Message: fmt.Sprintf("file %q was not deleted", path),
		})
	}
	return nil
}

// GetFileInfo returns metadata for a stored file
func (c *Client) GetFileInfo(ctx context.Context, path string) (domain.FileInfo, error) {
	query := url.Values{}
	query.Set("path", path)

	data, err := c.doRequest(ctx, request{
		op:     "files.info",
		method: http.MethodGet,
		path:   "/files/info",
		query:  query,
	})
	if err != nil {
		return domain.FileInfo{}, err
	}

	var dto FileInfoDTO
	if err := c.decode("files.info", data, &dto); err != nil {
		return domain.FileInfo{}, err
	}
	return MapFileInfo(dto), nil
}

func artworkPath(id int64) string {
	return "/artworks/" + strconv.FormatInt(id, 10)
}

func cacheKey(id int64) []byte {
	return []byte("artwork:" + strconv.FormatInt(id, 10))
}

func (c *Client) cacheGet(id int64) ([]byte, bool) {
	if c.cache == nil {
		return nil, false
	}
	data, err := c.cache.Get(cacheKey(id))
	hit := err == nil
	c.observer.OnCache(hit)
	return data, hit
}

func (c *Client) cacheSet(id int64, data []byte) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Set(cacheKey(id), data, c.cacheTTL); err != nil {
		c.logger.Debug("artwork not cached", "artworkID", id, "error", err)
	}
}

func (c *Client) invalidate(id int64) {
	if c.cache == nil {
		return
	}
	c.cache.Del(cacheKey(id))
}
