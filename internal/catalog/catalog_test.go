package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/mmcdole/artshelf/internal/domain"
	"github.com/mmcdole/artshelf/internal/engagement"
	"github.com/mmcdole/artshelf/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRemote serves an in-memory catalog and records every call
type fakeRemote struct {
	mu      sync.Mutex
	all     []domain.Artwork
	calls   []string
	err     error         // returned by every call when set
	gate    chan struct{} // listing calls block until it is closed
	entered chan struct{} // signalled when a listing call starts
}

func newFakeRemote(n int) *fakeRemote {
	f := &fakeRemote{}
	for i := 1; i <= n; i++ {
		f.all = append(f.all, domain.Artwork{
			ID:   int64(i),
			URL:  fmt.Sprintf("https://cdn.example/%d.png", i),
			Tags: []string{fmt.Sprintf("tag%d", i)},
		})
	}
	return f
}

func (f *fakeRemote) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeRemote) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeRemote) wait() {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}
}

func (f *fakeRemote) find(id int64) *domain.Artwork {
	for i := range f.all {
		if f.all[i].ID == id {
			return &f.all[i]
		}
	}
	return nil
}

func (f *fakeRemote) ListArtworks(_ context.Context, page, pageSize int, _ domain.Filters) (domain.Page, error) {
	f.wait()
	if err := f.record(fmt.Sprintf("list %d/%d", page, pageSize)); err != nil {
		return domain.Page{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	start := min((page-1)*pageSize, len(f.all))
	end := min(start+pageSize, len(f.all))
	return domain.Page{
		Items:    append([]domain.Artwork(nil), f.all[start:end]...),
		Total:    len(f.all),
		Page:     page,
		PageSize: pageSize,
	}, nil
}

func (f *fakeRemote) RandomArtworks(_ context.Context, limit int, _ domain.Filters) ([]domain.Artwork, error) {
	f.wait()
	if err := f.record(fmt.Sprintf("random %d", limit)); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	n := min(limit, len(f.all))
	out := make([]domain.Artwork, 0, n)
	for i := len(f.all) - 1; i >= len(f.all)-n; i-- {
		out = append(out, f.all[i])
	}
	return out, nil
}

func (f *fakeRemote) ListByCategory(_ context.Context, category string, page, pageSize int) ([]domain.Artwork, error) {
	if err := f.record(fmt.Sprintf("category %s %d/%d", category, page, pageSize)); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Artwork(nil), f.all[:min(pageSize, len(f.all))]...), nil
}

func (f *fakeRemote) GetArtwork(_ context.Context, id int64) (domain.Artwork, error) {
	if err := f.record(fmt.Sprintf("get %d", id)); err != nil {
		return domain.Artwork{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if a := f.find(id); a != nil {
		return *a, nil
	}
	return domain.Artwork{}, &domain.RemoteError{Op: "artworks.get", Status: 404, Message: "not found"}
}

func (f *fakeRemote) CreateArtwork(_ context.Context, req domain.ArtworkCreateRequest) (domain.Artwork, error) {
	if err := f.record("create " + req.FileID); err != nil {
		return domain.Artwork{}, err
	}
	return domain.Artwork{ID: 1000, Tags: req.Tags}, nil
}

func (f *fakeRemote) UpdateArtwork(_ context.Context, id int64, req domain.ArtworkUpdateRequest) (domain.Artwork, error) {
	if err := f.record(fmt.Sprintf("update %d", id)); err != nil {
		return domain.Artwork{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	a := f.find(id)
	if a == nil {
		return domain.Artwork{}, &domain.RemoteError{Op: "artworks.update", Status: 404, Message: "not found"}
	}
	if req.Tags != nil {
		a.Tags = req.Tags
	}
	return *a, nil
}

func (f *fakeRemote) DeleteArtwork(_ context.Context, id int64) error {
	return f.record(fmt.Sprintf("delete %d", id))
}

func (f *fakeRemote) Increment(_ context.Context, kind domain.Kind, id int64) (int, error) {
	return f.engage(kind, id, true)
}

func (f *fakeRemote) Decrement(_ context.Context, kind domain.Kind, id int64) (int, error) {
	return f.engage(kind, id, false)
}

func (f *fakeRemote) engage(kind domain.Kind, id int64, up bool) (int, error) {
	name := kind.String()
	if !up {
		name = "un" + name
	}
	if err := f.record(fmt.Sprintf("%s %d", name, id)); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	a := f.find(id)
	if a == nil {
		return 0, nil
	}
	a.Nudge(kind, up)
	return a.Counter(kind), nil
}

func (f *fakeRemote) UploadFile(_ context.Context, req domain.UploadRequest) (domain.FileInfo, error) {
	if err := f.record("upload file " + req.FileName); err != nil {
		return domain.FileInfo{}, err
	}
	return domain.FileInfo{FileID: "f-" + req.FileName, Name: req.FileName}, nil
}

func (f *fakeRemote) UploadArtwork(_ context.Context, req domain.UploadRequest) (domain.UploadResult, error) {
	if err := f.record("upload " + req.FileName); err != nil {
		return domain.UploadResult{}, err
	}
	return domain.UploadResult{
		File:    domain.FileInfo{FileID: "f-" + req.FileName},
		Artwork: &domain.Artwork{ID: 500, Tags: req.Tags},
	}, nil
}

func (f *fakeRemote) DeleteFile(context.Context, string) error { return nil }

func (f *fakeRemote) GetFileInfo(context.Context, string) (domain.FileInfo, error) {
	return domain.FileInfo{}, nil
}

type fixture struct {
	remote    *fakeRemote
	likes     *engagement.Ledger
	bookmarks *engagement.Ledger
	catalog   *Catalog
}

func newFixture(t *testing.T, n int) *fixture {
	t.Helper()
	remote := newFakeRemote(n)

	st, err := store.NewKVStore("", "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	likes, err := engagement.NewLedger(domain.KindLike, remote, st, nil, nil)
	require.NoError(t, err)
	bookmarks, err := engagement.NewLedger(domain.KindBookmark, remote, st, nil, nil)
	require.NoError(t, err)

	return &fixture{
		remote:    remote,
		likes:     likes,
		bookmarks: bookmarks,
		catalog:   New(remote, likes, bookmarks, Options{}, nil),
	}
}

func TestCatalog_PaginationScenario(t *testing.T) {
	f := newFixture(t, 57)
	c := f.catalog
	ctx := context.Background()

	assert.Equal(t, StateEmpty, c.State())

	_, err := c.FetchPage(ctx, 1, 20, domain.Filters{})
	require.NoError(t, err)
	assert.Len(t, c.Items(), 20)
	assert.Equal(t, 57, c.Total())
	assert.True(t, c.HasMore())
	assert.Equal(t, StatePopulated, c.State())

	more, err := c.LoadMore(ctx, domain.Filters{})
	require.NoError(t, err)
	assert.True(t, more)
	assert.Equal(t, 2, c.CurrentPage())
	assert.Len(t, c.Items(), 40)

	for range 2 {
		_, err = c.LoadMore(ctx, domain.Filters{})
		require.NoError(t, err)
	}
	assert.Len(t, c.Items(), 57)
	assert.False(t, c.HasMore())

	calls := len(f.remote.Calls())
	more, err = c.LoadMore(ctx, domain.Filters{})
	require.NoError(t, err)
	assert.False(t, more)
	assert.Len(t, f.remote.Calls(), calls, "an exhausted listing makes no remote call")
	assert.Equal(t, StatePopulated, c.State())

	assert.Equal(t, []string{"list 1/20", "list 2/20", "list 3/20", "list 4/20"}, f.remote.Calls())

	// Server order is kept across appends
	items := c.Items()
	for i, a := range items {
		assert.Equal(t, int64(i+1), a.ID)
	}
}

func TestCatalog_PageGrowth(t *testing.T) {
	tests := []struct {
		total    int
		pageSize int
	}{
		{total: 0, pageSize: 20},
		{total: 5, pageSize: 20},
		{total: 20, pageSize: 20},
		{total: 21, pageSize: 20},
		{total: 57, pageSize: 7},
		{total: 100, pageSize: 1},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d by %d", tt.total, tt.pageSize), func(t *testing.T) {
			f := newFixture(t, tt.total)
			ctx := context.Background()

			_, err := f.catalog.FetchPage(ctx, 1, tt.pageSize, domain.Filters{})
			require.NoError(t, err)
			assert.Len(t, f.catalog.Items(), min(tt.pageSize, tt.total))

			for n := 1; n <= 5; n++ {
				_, err := f.catalog.LoadMore(ctx, domain.Filters{})
				require.NoError(t, err)
				assert.Len(t, f.catalog.Items(), min(tt.pageSize*(1+n), tt.total))
				assert.LessOrEqual(t, len(f.catalog.Items()), f.catalog.Total())
			}
		})
	}
}

func TestCatalog_FetchPageNormalizesArguments(t *testing.T) {
	f := newFixture(t, 30)

	_, err := f.catalog.FetchPage(context.Background(), 0, 0, domain.Filters{})
	require.NoError(t, err)

	assert.Equal(t, []string{"list 1/20"}, f.remote.Calls())
	assert.Equal(t, 1, f.catalog.CurrentPage())
	assert.Equal(t, 20, f.catalog.PageSize())
}

func TestCatalog_ToggleLikeScenario(t *testing.T) {
	f := newFixture(t, 10)
	f.remote.all[4].Likes = 3 // id 5
	c := f.catalog
	ctx := context.Background()

	_, err := c.FetchPage(ctx, 1, 20, domain.Filters{})
	require.NoError(t, err)
	require.False(t, c.IsLiked(5))

	active, err := c.ToggleLike(ctx, 5)
	require.NoError(t, err)
	assert.True(t, active)
	assert.True(t, c.IsLiked(5))
	assert.True(t, f.likes.Status(5).Active)

	local, err := c.Lookup(5)
	require.NoError(t, err)
	assert.Equal(t, 4, local.Likes)
	assert.Equal(t, f.remote.all[4].Likes, local.Likes, "local counter matches the server")
	assert.Contains(t, f.remote.Calls(), "like 5")

	active, err = c.ToggleLike(ctx, 5)
	require.NoError(t, err)
	assert.False(t, active)
	local, _ = c.Lookup(5)
	assert.Equal(t, 3, local.Likes)
	assert.Contains(t, f.remote.Calls(), "unlike 5")
}

func TestCatalog_ToggleBookmarkPatchesCounter(t *testing.T) {
	f := newFixture(t, 3)
	c := f.catalog
	ctx := context.Background()

	_, err := c.FetchPage(ctx, 1, 20, domain.Filters{})
	require.NoError(t, err)
	_, err = c.FetchArtwork(ctx, 2)
	require.NoError(t, err)

	active, err := c.ToggleBookmark(ctx, 2)
	require.NoError(t, err)
	assert.True(t, active)
	assert.True(t, c.IsBookmarked(2))
	assert.False(t, c.IsLiked(2))

	local, _ := c.Lookup(2)
	assert.Equal(t, 1, local.Bookmarks)
	assert.Equal(t, 1, c.Current().Bookmarks)
	assert.Equal(t, 0, local.Likes)
}

func TestCatalog_ToggleFailureLeavesCounters(t *testing.T) {
	f := newFixture(t, 3)
	c := f.catalog
	ctx := context.Background()

	_, err := c.FetchPage(ctx, 1, 20, domain.Filters{})
	require.NoError(t, err)

	f.remote.err = &domain.RemoteError{Op: "artworks.like", Status: 503, Message: "unavailable"}
	_, err = c.ToggleLike(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrRemote)

	local, _ := c.Lookup(1)
	assert.Equal(t, 0, local.Likes)
	assert.False(t, c.IsLiked(1))
}

func TestCatalog_ApplyEngagementDelta(t *testing.T) {
	f := newFixture(t, 2)
	c := f.catalog
	ctx := context.Background()

	_, err := c.FetchPage(ctx, 1, 20, domain.Filters{})
	require.NoError(t, err)
	_, err = c.FetchArtwork(ctx, 1)
	require.NoError(t, err)

	// Clamped at zero on both the list entry and the detail
	c.ApplyEngagementDelta(1, domain.KindLike, false)
	local, _ := c.Lookup(1)
	assert.Equal(t, 0, local.Likes)
	assert.Equal(t, 0, c.Current().Likes)

	c.ApplyEngagementDelta(1, domain.KindBookmark, true)
	local, _ = c.Lookup(1)
	assert.Equal(t, 1, local.Bookmarks)
	assert.Equal(t, 1, c.Current().Bookmarks)

	// Unknown ids are a silent no-op
	before := c.Items()
	assert.NotPanics(t, func() { c.ApplyEngagementDelta(99, domain.KindLike, true) })
	assert.Equal(t, before, c.Items())

	_, err = c.Lookup(99)
	assert.ErrorIs(t, err, domain.ErrNotFoundLocally)
}

func TestCatalog_RemoveCascades(t *testing.T) {
	f := newFixture(t, 5)
	c := f.catalog
	ctx := context.Background()

	_, err := c.FetchPage(ctx, 1, 20, domain.Filters{})
	require.NoError(t, err)
	_, err = c.FetchArtwork(ctx, 3)
	require.NoError(t, err)
	_, err = c.ToggleLike(ctx, 3)
	require.NoError(t, err)
	_, err = c.ToggleBookmark(ctx, 3)
	require.NoError(t, err)

	require.NoError(t, c.Remove(ctx, 3))

	assert.False(t, c.IsLiked(3))
	assert.False(t, c.IsBookmarked(3))
	assert.Equal(t, domain.Record{ArtworkID: 3}, f.likes.Status(3))
	_, err = c.Lookup(3)
	assert.ErrorIs(t, err, domain.ErrNotFoundLocally)
	assert.Len(t, c.Items(), 4)
	assert.Equal(t, 4, c.Total())
	assert.Nil(t, c.Current())
}

func TestCatalog_RemoveFailureKeepsEverything(t *testing.T) {
	f := newFixture(t, 5)
	c := f.catalog
	ctx := context.Background()

	_, err := c.FetchPage(ctx, 1, 20, domain.Filters{})
	require.NoError(t, err)
	_, err = c.ToggleLike(ctx, 2)
	require.NoError(t, err)

	f.remote.err = &domain.RemoteError{Op: "artworks.delete", Status: 500, Message: "boom"}
	err = c.Remove(ctx, 2)
	assert.ErrorIs(t, err, domain.ErrRemote)

	assert.True(t, c.IsLiked(2))
	assert.Len(t, c.Items(), 5)
	assert.Equal(t, 5, c.Total())
}

func TestCatalog_FetchFailureLeavesState(t *testing.T) {
	f := newFixture(t, 30)
	c := f.catalog
	ctx := context.Background()
	boom := &domain.RemoteError{Op: "artworks.list", Status: 500, Message: "boom"}

	f.remote.err = boom
	_, err := c.FetchPage(ctx, 1, 20, domain.Filters{})
	assert.ErrorIs(t, err, domain.ErrRemote)
	assert.Equal(t, StateEmpty, c.State(), "a failed first fetch does not leave loading")

	f.remote.err = nil
	_, err = c.FetchPage(ctx, 1, 20, domain.Filters{})
	require.NoError(t, err)

	f.remote.err = boom
	more, err := c.LoadMore(ctx, domain.Filters{})
	assert.ErrorIs(t, err, domain.ErrRemote)
	assert.False(t, more)
	_, err = c.FetchRandom(ctx, 5, domain.Filters{})
	assert.ErrorIs(t, err, domain.ErrRemote)

	assert.Equal(t, StatePopulated, c.State())
	assert.Len(t, c.Items(), 20)
	assert.Equal(t, 1, c.CurrentPage())
	assert.Equal(t, 30, c.Total())
}

func TestCatalog_RemoteFailuresLoggedAtDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	remote := newFakeRemote(5)
	st, err := store.NewKVStore("", "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	likes, err := engagement.NewLedger(domain.KindLike, remote, st, nil, logger)
	require.NoError(t, err)
	bookmarks, err := engagement.NewLedger(domain.KindBookmark, remote, st, nil, logger)
	require.NoError(t, err)
	c := New(remote, likes, bookmarks, Options{}, logger)
	ctx := context.Background()

	remote.err = &domain.RemoteError{Op: "artworks.list", Status: 500, Message: "boom"}
	_, err = c.FetchPage(ctx, 1, 20, domain.Filters{})
	require.Error(t, err)
	_, err = c.ToggleLike(ctx, 1)
	require.Error(t, err)
	require.Error(t, c.Remove(ctx, 1))

	out := buf.String()
	assert.Contains(t, out, "failed to fetch artworks")
	assert.Contains(t, out, "failed to toggle")
	assert.NotContains(t, out, "level=ERROR", "the API client owns error-level reporting")
}

func TestCatalog_SingleFetchInFlight(t *testing.T) {
	f := newFixture(t, 57)
	f.remote.gate = make(chan struct{})
	f.remote.entered = make(chan struct{}, 1)
	c := f.catalog
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := c.FetchPage(ctx, 1, 20, domain.Filters{})
		done <- err
	}()
	<-f.remote.entered
	assert.Equal(t, StateLoading, c.State())

	_, err := c.FetchPage(ctx, 2, 20, domain.Filters{})
	assert.ErrorIs(t, err, domain.ErrFetchInFlight)
	_, err = c.LoadMore(ctx, domain.Filters{})
	assert.ErrorIs(t, err, domain.ErrFetchInFlight)
	_, err = c.FetchRandom(ctx, 5, domain.Filters{})
	assert.ErrorIs(t, err, domain.ErrFetchInFlight)

	close(f.remote.gate)
	require.NoError(t, <-done)

	assert.Equal(t, []string{"list 1/20"}, f.remote.Calls())
	assert.Len(t, c.Items(), 20)
}

func TestCatalog_FetchRandomKeepsPaging(t *testing.T) {
	f := newFixture(t, 57)
	c := f.catalog
	ctx := context.Background()

	_, err := c.FetchPage(ctx, 2, 20, domain.Filters{})
	require.NoError(t, err)

	items, err := c.FetchRandom(ctx, 0, domain.Filters{})
	require.NoError(t, err)
	assert.Len(t, items, 10)
	assert.Len(t, c.Items(), 10)
	assert.Equal(t, 57, c.Total())
	assert.Equal(t, 2, c.CurrentPage())
	assert.Contains(t, f.remote.Calls(), "random 10")
}

func TestCatalog_FetchCategory(t *testing.T) {
	f := newFixture(t, 57)
	c := f.catalog
	ctx := context.Background()

	_, err := c.FetchPage(ctx, 1, 20, domain.Filters{})
	require.NoError(t, err)
	require.True(t, c.HasMore())

	items, err := c.FetchCategory(ctx, "landscape", 1, 5)
	require.NoError(t, err)
	assert.Len(t, items, 5)
	assert.Len(t, c.Items(), 5)
	assert.Equal(t, 5, c.Total())
	assert.False(t, c.HasMore())

	// The previous listing's cursor must not leak into the category view.
	more, err := c.LoadMore(ctx, domain.Filters{})
	require.NoError(t, err)
	assert.False(t, more)
	assert.Len(t, c.Items(), 5)
	assert.Equal(t, []string{"list 1/20", "category landscape 1/5"}, f.remote.Calls())
}

func TestCatalog_LoadAll(t *testing.T) {
	f := newFixture(t, 45)
	c := f.catalog
	ctx := context.Background()

	_, err := c.FetchPage(ctx, 1, 20, domain.Filters{})
	require.NoError(t, err)

	var progress [][2]int
	err = c.LoadAll(ctx, domain.Filters{}, func(loaded, total int) {
		progress = append(progress, [2]int{loaded, total})
	})
	require.NoError(t, err)

	assert.Len(t, c.Items(), 45)
	assert.Equal(t, [][2]int{{40, 45}, {45, 45}}, progress)
}

func TestCatalog_LoadAllStopsOnCancel(t *testing.T) {
	f := newFixture(t, 45)
	c := f.catalog

	_, err := c.FetchPage(context.Background(), 1, 20, domain.Filters{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = c.LoadAll(ctx, domain.Filters{}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, c.Items(), 20)
}

func TestCatalog_Reset(t *testing.T) {
	f := newFixture(t, 30)
	c := f.catalog
	ctx := context.Background()

	_, err := c.FetchPage(ctx, 2, 10, domain.Filters{})
	require.NoError(t, err)
	_, err = c.FetchArtwork(ctx, 1)
	require.NoError(t, err)

	c.Reset()

	assert.Empty(t, c.Items())
	assert.Equal(t, 0, c.Total())
	assert.Equal(t, 1, c.CurrentPage())
	assert.Nil(t, c.Current())
	assert.Equal(t, StateEmpty, c.State())
	assert.False(t, c.HasMore())
}

func TestCatalog_UpdateRefreshesCurrentAndList(t *testing.T) {
	f := newFixture(t, 3)
	c := f.catalog
	ctx := context.Background()

	_, err := c.FetchPage(ctx, 1, 20, domain.Filters{})
	require.NoError(t, err)
	_, err = c.FetchArtwork(ctx, 2)
	require.NoError(t, err)

	updated, err := c.Update(ctx, 2, domain.ArtworkUpdateRequest{Tags: []string{"renamed"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"renamed"}, updated.Tags)

	require.NotNil(t, c.Current())
	assert.Equal(t, int64(2), c.Current().ID)
	assert.Equal(t, []string{"renamed"}, c.Current().Tags)
	local, _ := c.Lookup(2)
	assert.Equal(t, []string{"renamed"}, local.Tags)
}

func TestCatalog_UpdateLeavesOtherCurrent(t *testing.T) {
	f := newFixture(t, 3)
	c := f.catalog
	ctx := context.Background()

	_, err := c.FetchPage(ctx, 1, 20, domain.Filters{})
	require.NoError(t, err)

	_, err = c.Update(ctx, 2, domain.ArtworkUpdateRequest{Tags: []string{"renamed"}})
	require.NoError(t, err)
	assert.Nil(t, c.Current())

	shown, err := c.FetchArtwork(ctx, 1)
	require.NoError(t, err)
	_, err = c.Update(ctx, 3, domain.ArtworkUpdateRequest{Tags: []string{"other"}})
	require.NoError(t, err)
	require.NotNil(t, c.Current())
	assert.Equal(t, int64(1), c.Current().ID)
	assert.Equal(t, shown.Tags, c.Current().Tags)

	local, _ := c.Lookup(3)
	assert.Equal(t, []string{"other"}, local.Tags)
}

func TestCatalog_UploadPrependsArtwork(t *testing.T) {
	f := newFixture(t, 3)
	c := f.catalog
	ctx := context.Background()

	_, err := c.FetchPage(ctx, 1, 20, domain.Filters{})
	require.NoError(t, err)

	result, err := c.Upload(ctx, domain.UploadRequest{FileName: "new.png", Title: "t", Artist: "a"})
	require.NoError(t, err)
	require.NotNil(t, result.Artwork)

	items := c.Items()
	require.Len(t, items, 4)
	assert.Equal(t, int64(500), items[0].ID)
	assert.Equal(t, 4, c.Total())

	info, err := c.UploadFile(ctx, domain.UploadRequest{FileName: "raw.png"})
	require.NoError(t, err)
	assert.Equal(t, "f-raw.png", info.FileID)
	assert.Len(t, c.Items(), 4, "plain file uploads do not touch the list")
}

func TestCatalog_CreateDoesNotTouchList(t *testing.T) {
	f := newFixture(t, 3)
	c := f.catalog
	ctx := context.Background()

	_, err := c.FetchPage(ctx, 1, 20, domain.Filters{})
	require.NoError(t, err)

	created, err := c.Create(ctx, domain.ArtworkCreateRequest{FileID: "f-1"})
	require.NoError(t, err)
	assert.Equal(t, int64(1000), created.ID)
	assert.Len(t, c.Items(), 3)
}

func TestCatalog_ItemsIsACopy(t *testing.T) {
	f := newFixture(t, 3)
	c := f.catalog

	_, err := c.FetchPage(context.Background(), 1, 20, domain.Filters{})
	require.NoError(t, err)

	items := c.Items()
	items[0].Likes = 99
	items[0].Tags[0] = "mutated"

	local, _ := c.Lookup(1)
	assert.Equal(t, 0, local.Likes)
	assert.Equal(t, "tag1", local.Tags[0])
}

type persistFailLedger struct {
	Ledger
	active bool
}

func (l *persistFailLedger) Toggle(context.Context, int64) (bool, error) {
	l.active = !l.active
	return l.active, fmt.Errorf("%w: %w", domain.ErrPersist, errors.New("disk full"))
}

func TestCatalog_PersistFailureStillPatchesCounter(t *testing.T) {
	f := newFixture(t, 3)
	c := New(f.remote, &persistFailLedger{Ledger: f.likes}, f.bookmarks, Options{}, nil)
	ctx := context.Background()

	_, err := c.FetchPage(ctx, 1, 20, domain.Filters{})
	require.NoError(t, err)

	active, err := c.ToggleLike(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrPersist)
	assert.True(t, active)

	local, _ := c.Lookup(1)
	assert.Equal(t, 1, local.Likes)
}
