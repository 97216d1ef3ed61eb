package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mmcdole/artshelf/internal/domain"
	"github.com/mmcdole/artshelf/internal/engagement"
)

// tagList collects repeated -tag flags
type tagList []string

func (t *tagList) String() string { return strings.Join(*t, ",") }

func (t *tagList) Set(v string) error {
	*t = append(*t, v)
	return nil
}

func newFlagSet(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ContinueOnError)
}

// parseID reads the artwork id from the first positional argument
func parseID(args []string) (int64, []string, error) {
	if len(args) == 0 {
		return 0, nil, errors.New("missing artwork id")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, nil, fmt.Errorf("invalid artwork id %q", args[0])
	}
	return id, args[1:], nil
}

func (a *app) cmdList(ctx context.Context, args []string) error {
	fs := newFlagSet("list")
	page := fs.Int("page", 1, "page number")
	size := fs.Int("size", a.cfg.Catalog.PageSize, "page size")
	var tags tagList
	fs.Var(&tags, "tag", "filter by tag (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	result, err := a.catalog.FetchPage(ctx, *page, *size, domain.Filters{Tags: tags})
	if err != nil {
		return err
	}

	a.printArtworks(a.catalog.Items())
	fmt.Printf("\npage %d, %d of %d loaded, more: %v\n",
		result.Page, len(a.catalog.Items()), a.catalog.Total(), a.catalog.HasMore())
	return nil
}

func (a *app) cmdRandom(ctx context.Context, args []string) error {
	fs := newFlagSet("random")
	limit := fs.Int("limit", a.cfg.Catalog.RandomLimit, "number of artworks")
	var tags tagList
	fs.Var(&tags, "tag", "filter by tag (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if _, err := a.catalog.FetchRandom(ctx, *limit, domain.Filters{Tags: tags}); err != nil {
		return err
	}
	a.printArtworks(a.catalog.Items())
	return nil
}

func (a *app) cmdCategory(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("missing category")
	}
	category := args[0]

	fs := newFlagSet("category")
	page := fs.Int("page", 1, "page number")
	size := fs.Int("size", a.cfg.Catalog.PageSize, "page size")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	if _, err := a.catalog.FetchCategory(ctx, category, *page, *size); err != nil {
		return err
	}
	a.printArtworks(a.catalog.Items())
	return nil
}

func (a *app) cmdAll(ctx context.Context, args []string) error {
	fs := newFlagSet("all")
	size := fs.Int("size", a.cfg.Catalog.PageSize, "page size")
	var tags tagList
	fs.Var(&tags, "tag", "filter by tag (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := a.loadAll(ctx, *size, domain.Filters{Tags: tags}); err != nil {
		return err
	}
	a.printArtworks(a.catalog.Items())
	return nil
}

func (a *app) loadAll(ctx context.Context, size int, filters domain.Filters) error {
	if _, err := a.catalog.FetchPage(ctx, 1, size, filters); err != nil {
		return err
	}
	err := a.catalog.LoadAll(ctx, filters, func(loaded, total int) {
		fmt.Fprintf(os.Stderr, "\rloading %d/%d", loaded, total)
	})
	fmt.Fprint(os.Stderr, "\r                    \r")
	return err
}

func (a *app) cmdShow(ctx context.Context, args []string) error {
	id, _, err := parseID(args)
	if err != nil {
		return err
	}

	artwork, err := a.catalog.FetchArtwork(ctx, id)
	if err != nil {
		return err
	}

	fmt.Printf("id:         %d\n", artwork.ID)
	fmt.Printf("url:        %s\n", artwork.URL)
	fmt.Printf("thumbnail:  %s\n", artwork.ThumbnailURL)
	fmt.Printf("tags:       %s\n", artwork.TagLine())
	fmt.Printf("views:      %d\n", artwork.Views)
	fmt.Printf("likes:      %d%s\n", artwork.Likes, marker(a.catalog.IsLiked(id), " (liked)"))
	fmt.Printf("bookmarks:  %d%s\n", artwork.Bookmarks, marker(a.catalog.IsBookmarked(id), " (bookmarked)"))
	if !artwork.CreatedAt.IsZero() {
		fmt.Printf("created:    %s\n", artwork.CreatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func (a *app) cmdToggle(ctx context.Context, kind domain.Kind, args []string) error {
	id, _, err := parseID(args)
	if err != nil {
		return err
	}

	// Load the detail so the counter can be patched and shown
	if _, err := a.catalog.FetchArtwork(ctx, id); err != nil {
		return err
	}

	var active bool
	if kind == domain.KindBookmark {
		active, err = a.catalog.ToggleBookmark(ctx, id)
	} else {
		active, err = a.catalog.ToggleLike(ctx, id)
	}
	if err != nil && !errors.Is(err, domain.ErrPersist) {
		return err
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	verb := pastTense(kind, active)
	current := a.catalog.Current()
	fmt.Printf("%s artwork %d (%d %ss)\n", verb, id, current.Counter(kind), kind)
	return nil
}

func (a *app) cmdCreate(ctx context.Context, args []string) error {
	fs := newFlagSet("create")
	fileID := fs.String("file-id", "", "id of an uploaded file")
	u := fs.String("url", "", "CDN URL")
	thumb := fs.String("thumb", "", "thumbnail URL")
	var tags tagList
	fs.Var(&tags, "tag", "tag (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *fileID == "" {
		return errors.New("-file-id is required")
	}

	artwork, err := a.catalog.Create(ctx, domain.ArtworkCreateRequest{
		FileID:       *fileID,
		URL:          *u,
		ThumbnailURL: *thumb,
		Tags:         tags,
	})
	if err != nil {
		return err
	}
	fmt.Printf("created artwork %d\n", artwork.ID)
	return nil
}

func (a *app) cmdUpdate(ctx context.Context, args []string) error {
	id, rest, err := parseID(args)
	if err != nil {
		return err
	}

	fs := newFlagSet("update")
	u := fs.String("url", "", "CDN URL")
	thumb := fs.String("thumb", "", "thumbnail URL")
	var tags tagList
	fs.Var(&tags, "tag", "tag (repeatable)")
	if err := fs.Parse(rest); err != nil {
		return err
	}

	artwork, err := a.catalog.Update(ctx, id, domain.ArtworkUpdateRequest{
		URL:          *u,
		ThumbnailURL: *thumb,
		Tags:         tags,
	})
	if err != nil {
		return err
	}
	fmt.Printf("updated artwork %d (tags: %s)\n", artwork.ID, artwork.TagLine())
	return nil
}

func (a *app) cmdDelete(ctx context.Context, args []string) error {
	id, _, err := parseID(args)
	if err != nil {
		return err
	}
	if err := a.catalog.Remove(ctx, id); err != nil {
		return err
	}
	fmt.Printf("deleted artwork %d\n", id)
	return nil
}

func (a *app) cmdUpload(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("missing file")
	}
	path := args[0]

	fs := newFlagSet("upload")
	title := fs.String("title", "", "artwork title")
	artist := fs.String("artist", "", "artist name")
	description := fs.String("description", "", "description")
	category := fs.String("category", "", "category")
	avatar := fs.String("avatar", "", "artist avatar URL")
	raw := fs.Bool("raw", false, "store the file without creating an artwork")
	var tags tagList
	fs.Var(&tags, "tag", "tag (repeatable)")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	req := domain.UploadRequest{
		FileName:    path,
		Content:     content,
		Title:       *title,
		Artist:      *artist,
		Description: *description,
		Category:    *category,
		AvatarURL:   *avatar,
		Tags:        tags,
		OnProgress: func(p int) {
			fmt.Fprintf(os.Stderr, "\ruploading %3d%%", p)
		},
	}
	defer fmt.Fprintln(os.Stderr)

	if *raw {
		info, err := a.catalog.UploadFile(ctx, req)
		if err != nil {
			return err
		}
		fmt.Printf("\nstored %s as %s (%s)\n", info.Name, info.FileID, info.Path)
		return nil
	}

	result, err := a.catalog.Upload(ctx, req)
	if err != nil {
		return err
	}
	fmt.Printf("\nstored %s as %s\n", result.File.Name, result.File.FileID)
	if result.Artwork != nil {
		fmt.Printf("created artwork %d\n", result.Artwork.ID)
	}
	return nil
}

func (a *app) cmdFileInfo(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("missing path")
	}
	info, err := a.client.GetFileInfo(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Printf("file id:   %s\n", info.FileID)
	fmt.Printf("name:      %s (%s)\n", info.Name, info.OriginalName)
	fmt.Printf("type:      %s\n", info.FileType)
	fmt.Printf("size:      %d bytes\n", info.Size)
	fmt.Printf("storage:   %s\n", info.StorageType)
	fmt.Printf("url:       %s\n", info.AccessURL)
	return nil
}

func (a *app) cmdFileDelete(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("missing path")
	}
	if err := a.client.DeleteFile(ctx, args[0]); err != nil {
		return err
	}
	fmt.Printf("deleted %s\n", args[0])
	return nil
}

func (a *app) cmdSearch(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("missing query")
	}
	query := args[0]

	fs := newFlagSet("search")
	size := fs.Int("size", a.cfg.Catalog.PageSize, "page size used while loading")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	if err := a.loadAll(ctx, *size, domain.Filters{}); err != nil {
		return err
	}

	results := a.catalog.Search(query)
	if len(results) == 0 {
		fmt.Println("no matches")
		return nil
	}
	for _, r := range results {
		fmt.Printf("%6d  %-40s  %s\n", r.Artwork.ID, r.Artwork.TagLine(), r.Artwork.URL)
	}
	return nil
}

func (a *app) cmdTags(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("missing query")
	}
	if _, err := a.catalog.FetchPage(ctx, 1, a.cfg.Catalog.PageSize, domain.Filters{}); err != nil {
		return err
	}
	for _, tag := range a.catalog.SuggestTags(args[0]) {
		fmt.Println(tag)
	}
	return nil
}

func (a *app) cmdLedger(args []string) error {
	ledgers := []*engagement.Ledger{a.likes, a.bookmarks}
	if len(args) > 0 {
		kind, err := domain.ParseKind(args[0])
		if err != nil {
			return err
		}
		ledgers = []*engagement.Ledger{a.ledger(kind)}
	}

	for _, l := range ledgers {
		records := l.Records()
		fmt.Printf("%ss (%d)\n", l.Kind(), len(records))
		for _, rec := range records {
			fmt.Printf("  %6d  %-8s  %s\n", rec.ArtworkID, marker(rec.Active, "active"), formatMillis(rec.LastChangedAt))
		}
	}
	return nil
}

func (a *app) cmdClear(args []string) error {
	if len(args) == 0 {
		return errors.New("missing kind (likes or bookmarks)")
	}
	kind, err := domain.ParseKind(args[0])
	if err != nil {
		return err
	}
	l := a.ledger(kind)

	if len(args) == 1 {
		l.ClearAll()
		fmt.Printf("cleared all %ss\n", kind)
		return nil
	}

	id, _, err := parseID(args[1:])
	if err != nil {
		return err
	}
	l.Clear(id)
	fmt.Printf("cleared %s record for artwork %d\n", kind, id)
	return nil
}

func (a *app) ledger(kind domain.Kind) *engagement.Ledger {
	if kind == domain.KindBookmark {
		return a.bookmarks
	}
	return a.likes
}
