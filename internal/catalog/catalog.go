// Package catalog holds the client-side view of the remote artwork listing.
//
// A Catalog keeps the loaded page(s) of artworks and the artwork currently
// shown in detail, and coordinates engagement toggles: the matching Ledger
// talks to the server and records the new state, then the catalog nudges the
// displayed counter by one instead of refetching.
package catalog

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/mmcdole/artshelf/internal/domain"
)

const (
	defaultPageSize    = 20
	defaultRandomLimit = 10
)

// Remote is the part of the API the catalog calls directly
type Remote interface {
	domain.ArtworkRepository
	domain.UploadRepository
}

// Ledger is the engagement state the catalog reads and drives.
// *engagement.Ledger implements it.
type Ledger interface {
	IsActive(id int64) bool
	Toggle(ctx context.Context, id int64) (bool, error)
	Clear(id int64)
}

// State is the lifecycle of the loaded list
type State int

const (
	StateEmpty State = iota
	StateLoading
	StatePopulated
	StateLoadingMore
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoading:
		return "loading"
	case StatePopulated:
		return "populated"
	case StateLoadingMore:
		return "loading more"
	default:
		return "unknown"
	}
}

// Options sets listing defaults; zero values fall back to 20 and 10
type Options struct {
	PageSize    int
	RandomLimit int
}

// Catalog is the artwork list view-model. It is safe for concurrent use.
type Catalog struct {
	remote    Remote
	likes     Ledger
	bookmarks Ledger
	logger    *slog.Logger

	defaultPageSize    int
	defaultRandomLimit int

	// Only one FetchPage/FetchRandom/FetchCategory/LoadMore runs at a time
	fetching atomic.Bool

	mu          sync.RWMutex
	items       []domain.Artwork
	current     *domain.Artwork
	currentPage int
	pageSize    int
	total       int
	state       State
}

// New creates an empty catalog
func New(remote Remote, likes, bookmarks Ledger, opts Options, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.PageSize <= 0 {
		opts.PageSize = defaultPageSize
	}
	if opts.RandomLimit <= 0 {
		opts.RandomLimit = defaultRandomLimit
	}
	return &Catalog{
		remote:             remote,
		likes:              likes,
		bookmarks:          bookmarks,
		logger:             logger,
		defaultPageSize:    opts.PageSize,
		defaultRandomLimit: opts.RandomLimit,
		items:              []domain.Artwork{},
		currentPage:        1,
		pageSize:           opts.PageSize,
	}
}

// =============================================================================
// Accessors
// =============================================================================

// Items returns a copy of the loaded artworks in server order
func (c *Catalog) Items() []domain.Artwork {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneItems(c.items)
}

// Current returns a copy of the detail artwork, or nil
func (c *Catalog) Current() *domain.Artwork {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return nil
	}
	a := cloneArtwork(*c.current)
	return &a
}

func (c *Catalog) CurrentPage() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.currentPage
}

func (c *Catalog) PageSize() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pageSize
}

func (c *Catalog) Total() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.total
}

func (c *Catalog) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// HasMore reports whether the server holds more artworks than are loaded
func (c *Catalog) HasMore() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items) < c.total
}

// Lookup returns a loaded artwork by id
func (c *Catalog) Lookup(id int64) (domain.Artwork, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.indexOf(id); i >= 0 {
		return cloneArtwork(c.items[i]), nil
	}
	return domain.Artwork{}, domain.ErrNotFoundLocally
}

// =============================================================================
// Fetching
// =============================================================================

// FetchPage replaces the loaded list with one page of the listing
func (c *Catalog) FetchPage(ctx context.Context, page, pageSize int, filters domain.Filters) (domain.Page, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = c.defaultPageSize
	}

	prev, ok := c.beginFetch(StateLoading)
	if !ok {
		return domain.Page{}, domain.ErrFetchInFlight
	}
	defer c.fetching.Store(false)

	result, err := c.remote.ListArtworks(ctx, page, pageSize, filters)
	if err != nil {
		c.restoreState(prev)
		c.logger.Debug("failed to fetch artworks", "error", err, "page", page, "pageSize", pageSize)
		return domain.Page{}, err
	}

	c.mu.Lock()
	c.items = cloneItems(result.Items)
	c.total = max(result.Total, len(c.items))
	c.currentPage = page
	c.pageSize = pageSize
	c.state = StatePopulated
	c.mu.Unlock()

	c.logger.Debug("fetched artworks", "page", page, "count", len(result.Items), "total", result.Total)
	return result, nil
}

// FetchRandom replaces the loaded list with a random sample.
// Total and CurrentPage are left as they were.
func (c *Catalog) FetchRandom(ctx context.Context, limit int, filters domain.Filters) ([]domain.Artwork, error) {
	if limit <= 0 {
		limit = c.defaultRandomLimit
	}

	prev, ok := c.beginFetch(StateLoading)
	if !ok {
		return nil, domain.ErrFetchInFlight
	}
	defer c.fetching.Store(false)

	items, err := c.remote.RandomArtworks(ctx, limit, filters)
	if err != nil {
		c.restoreState(prev)
		c.logger.Debug("failed to fetch random artworks", "error", err, "limit", limit)
		return nil, err
	}

	c.mu.Lock()
	c.items = cloneItems(items)
	c.state = StatePopulated
	c.mu.Unlock()

	c.logger.Debug("fetched random artworks", "count", len(items))
	return items, nil
}

// FetchCategory replaces the loaded list with one page of a category.
// The category endpoint reports no total, so Total becomes the loaded count
// and LoadMore has nothing to append.
func (c *Catalog) FetchCategory(ctx context.Context, category string, page, pageSize int) ([]domain.Artwork, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = c.defaultPageSize
	}

	prev, ok := c.beginFetch(StateLoading)
	if !ok {
		return nil, domain.ErrFetchInFlight
	}
	defer c.fetching.Store(false)

	items, err := c.remote.ListByCategory(ctx, category, page, pageSize)
	if err != nil {
		c.restoreState(prev)
		c.logger.Debug("failed to fetch category", "error", err, "category", category, "page", page)
		return nil, err
	}

	c.mu.Lock()
	c.items = cloneItems(items)
	c.total = len(items)
	c.currentPage = page
	c.pageSize = pageSize
	c.state = StatePopulated
	c.mu.Unlock()

	c.logger.Debug("fetched category", "category", category, "count", len(items))
	return items, nil
}

// LoadMore appends the next page. It returns false without calling the
// server when everything is already loaded.
func (c *Catalog) LoadMore(ctx context.Context, filters domain.Filters) (bool, error) {
	prev, ok := c.beginFetch(StateLoadingMore)
	if !ok {
		return false, domain.ErrFetchInFlight
	}
	defer c.fetching.Store(false)

	c.mu.RLock()
	hasMore := len(c.items) < c.total
	nextPage := c.currentPage + 1
	pageSize := c.pageSize
	c.mu.RUnlock()

	if !hasMore {
		c.restoreState(prev)
		return false, nil
	}

	result, err := c.remote.ListArtworks(ctx, nextPage, pageSize, filters)
	if err != nil {
		c.restoreState(prev)
		c.logger.Debug("failed to load more artworks", "error", err, "page", nextPage)
		return false, err
	}

	c.mu.Lock()
	c.items = append(c.items, cloneItems(result.Items)...)
	c.total = max(result.Total, len(c.items))
	if len(result.Items) == 0 {
		// The server ran dry before reaching its own total
		c.total = len(c.items)
	}
	c.currentPage = nextPage
	c.state = StatePopulated
	loaded, total := len(c.items), c.total
	c.mu.Unlock()

	c.logger.Debug("loaded more artworks", "page", nextPage, "count", len(result.Items), "loaded", loaded, "total", total)
	return true, nil
}

// LoadAll keeps calling LoadMore until the listing is exhausted.
// onProgress, if set, receives the loaded and total counts after each page.
func (c *Catalog) LoadAll(ctx context.Context, filters domain.Filters, onProgress domain.ProgressFunc) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		more, err := c.LoadMore(ctx, filters)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
		if onProgress != nil {
			c.mu.RLock()
			loaded, total := len(c.items), c.total
			c.mu.RUnlock()
			onProgress(loaded, total)
		}
	}
}

// FetchArtwork loads one artwork and makes it the current detail
func (c *Catalog) FetchArtwork(ctx context.Context, id int64) (domain.Artwork, error) {
	artwork, err := c.remote.GetArtwork(ctx, id)
	if err != nil {
		c.logger.Debug("failed to fetch artwork", "error", err, "artworkID", id)
		return domain.Artwork{}, err
	}

	c.mu.Lock()
	current := cloneArtwork(artwork)
	c.current = &current
	c.mu.Unlock()

	return artwork, nil
}

// beginFetch claims the fetch slot and moves to next, returning the prior state
func (c *Catalog) beginFetch(next State) (State, bool) {
	if !c.fetching.CompareAndSwap(false, true) {
		c.logger.Warn("fetch rejected, already in flight")
		return 0, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.state
	c.state = next
	return prev, true
}

func (c *Catalog) restoreState(prev State) {
	c.mu.Lock()
	c.state = prev
	c.mu.Unlock()
}

// =============================================================================
// Mutations
// =============================================================================

// Create registers an uploaded file as an artwork. The list is not touched;
// the new artwork shows up on the next fetch.
func (c *Catalog) Create(ctx context.Context, req domain.ArtworkCreateRequest) (domain.Artwork, error) {
	artwork, err := c.remote.CreateArtwork(ctx, req)
	if err != nil {
		c.logger.Debug("failed to create artwork", "error", err, "fileID", req.FileID)
		return domain.Artwork{}, err
	}
	c.logger.Info("created artwork", "artworkID", artwork.ID)
	return artwork, nil
}

// Update changes an artwork and refreshes the matching current detail and list entry
func (c *Catalog) Update(ctx context.Context, id int64, req domain.ArtworkUpdateRequest) (domain.Artwork, error) {
	artwork, err := c.remote.UpdateArtwork(ctx, id, req)
	if err != nil {
		c.logger.Debug("failed to update artwork", "error", err, "artworkID", id)
		return domain.Artwork{}, err
	}

	c.mu.Lock()
	if c.current != nil && c.current.ID == artwork.ID {
		current := cloneArtwork(artwork)
		c.current = &current
	}
	if i := c.indexOf(artwork.ID); i >= 0 {
		c.items[i] = cloneArtwork(artwork)
	}
	c.mu.Unlock()

	return artwork, nil
}

// Upload sends a file and creates an artwork for it. A created artwork is
// put at the head of the list.
func (c *Catalog) Upload(ctx context.Context, req domain.UploadRequest) (domain.UploadResult, error) {
	result, err := c.remote.UploadArtwork(ctx, req)
	if err != nil {
		c.logger.Debug("failed to upload artwork", "error", err, "file", req.FileName)
		return domain.UploadResult{}, err
	}

	if result.Artwork != nil {
		c.mu.Lock()
		items := make([]domain.Artwork, 0, len(c.items)+1)
		items = append(items, cloneArtwork(*result.Artwork))
		c.items = append(items, c.items...)
		c.total++
		if c.state == StateEmpty {
			c.state = StatePopulated
		}
		c.mu.Unlock()
	}

	c.logger.Info("uploaded artwork", "file", result.File.FileID, "created", result.Artwork != nil)
	return result, nil
}

// UploadFile sends a file without creating an artwork
func (c *Catalog) UploadFile(ctx context.Context, req domain.UploadRequest) (domain.FileInfo, error) {
	info, err := c.remote.UploadFile(ctx, req)
	if err != nil {
		c.logger.Debug("failed to upload file", "error", err, "file", req.FileName)
		return domain.FileInfo{}, err
	}
	return info, nil
}

// Remove deletes an artwork on the server, then drops it from the list and
// the detail view and forgets its engagement records.
func (c *Catalog) Remove(ctx context.Context, id int64) error {
	if err := c.remote.DeleteArtwork(ctx, id); err != nil {
		c.logger.Debug("failed to delete artwork", "error", err, "artworkID", id)
		return err
	}

	c.mu.Lock()
	kept := c.items[:0:0]
	for _, a := range c.items {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	if removed := len(c.items) - len(kept); removed > 0 {
		c.total = max(0, c.total-removed)
	}
	c.items = kept
	if c.current != nil && c.current.ID == id {
		c.current = nil
	}
	c.mu.Unlock()

	c.likes.Clear(id)
	c.bookmarks.Clear(id)

	c.logger.Info("deleted artwork", "artworkID", id)
	return nil
}

// Reset empties the catalog. It never fails.
func (c *Catalog) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = []domain.Artwork{}
	c.current = nil
	c.currentPage = 1
	c.total = 0
	c.state = StateEmpty
}

// =============================================================================
// Engagement
// =============================================================================

func (c *Catalog) IsLiked(id int64) bool      { return c.likes.IsActive(id) }
func (c *Catalog) IsBookmarked(id int64) bool { return c.bookmarks.IsActive(id) }

// ToggleLike flips the like state and nudges the displayed counter
func (c *Catalog) ToggleLike(ctx context.Context, id int64) (bool, error) {
	return c.toggle(ctx, domain.KindLike, c.likes, id)
}

// ToggleBookmark flips the bookmark state and nudges the displayed counter
func (c *Catalog) ToggleBookmark(ctx context.Context, id int64) (bool, error) {
	return c.toggle(ctx, domain.KindBookmark, c.bookmarks, id)
}

func (c *Catalog) toggle(ctx context.Context, kind domain.Kind, ledger Ledger, id int64) (bool, error) {
	active, err := ledger.Toggle(ctx, id)
	if err != nil && !errors.Is(err, domain.ErrPersist) {
		return active, err
	}
	// The server moved its counter even when saving the ledger failed
	c.ApplyEngagementDelta(id, kind, active)
	return active, err
}

// ApplyEngagementDelta moves the kind counter of a loaded artwork and of the
// current detail by one, never below zero. Unknown ids are ignored.
func (c *Catalog) ApplyEngagementDelta(id int64, kind domain.Kind, activated bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.indexOf(id); i >= 0 {
		c.items[i].Nudge(kind, activated)
	}
	if c.current != nil && c.current.ID == id {
		c.current.Nudge(kind, activated)
	}
}

// indexOf returns the position of id in items or -1; callers hold mu
func (c *Catalog) indexOf(id int64) int {
	for i := range c.items {
		if c.items[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneArtwork(a domain.Artwork) domain.Artwork {
	if a.Tags != nil {
		a.Tags = append([]string(nil), a.Tags...)
	}
	return a
}

func cloneItems(items []domain.Artwork) []domain.Artwork {
	out := make([]domain.Artwork, len(items))
	for i, a := range items {
		out[i] = cloneArtwork(a)
	}
	return out
}
