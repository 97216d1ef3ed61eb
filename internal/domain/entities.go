package domain

import (
	"fmt"
	"strings"
	"time"
)

// Kind distinguishes the engagement types a client can toggle
type Kind int

const (
	KindLike Kind = iota
	KindBookmark
)

// Kinds lists every engagement kind, in display order
var Kinds = []Kind{KindLike, KindBookmark}

// String returns the lowercase name used in logs, metrics and storage keys
func (k Kind) String() string {
	switch k {
	case KindLike:
		return "like"
	case KindBookmark:
		return "bookmark"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind converts "like"/"likes"/"bookmark"/"bookmarks" into a Kind
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "like", "likes":
		return KindLike, nil
	case "bookmark", "bookmarks":
		return KindBookmark, nil
	default:
		return 0, fmt.Errorf("unknown engagement kind: %q", s)
	}
}

// Artwork is a catalog entry as returned by the remote API.
// Likes and Bookmarks are remote counters; the client only nudges them by one.
type Artwork struct {
	ID           int64     // Server-assigned identifier
	URL          string    // CDN URL of the full image
	ThumbnailURL string    // CDN URL of the thumbnail
	Views        int       // View counter
	Likes        int       // Like counter (>= 0)
	Bookmarks    int       // Bookmark counter (>= 0)
	Tags         []string  // Free-form tags
	CreatedAt    time.Time // Creation time on the server
	UpdatedAt    time.Time // Last update on the server
}

// Counter returns the counter tracked for the given engagement kind
func (a Artwork) Counter(kind Kind) int {
	if kind == KindBookmark {
		return a.Bookmarks
	}
	return a.Likes
}

// Nudge moves the counter for kind by one, never below zero
func (a *Artwork) Nudge(kind Kind, activated bool) {
	counter := &a.Likes
	if kind == KindBookmark {
		counter = &a.Bookmarks
	}
	if activated {
		*counter++
		return
	}
	*counter = max(0, *counter-1)
}

// TagLine returns the tags joined for display and search
func (a Artwork) TagLine() string {
	return strings.Join(a.Tags, ", ")
}

// Record is the client's engagement state for one artwork and kind
type Record struct {
	ArtworkID     int64 `json:"artworkId"`
	Active        bool  `json:"active"`
	LastChangedAt int64 `json:"lastChangedAt"` // Epoch milliseconds
}

// Page is one page of the remote listing
type Page struct {
	Items    []Artwork
	Total    int
	Page     int
	PageSize int
}

// Filters narrows remote listings
type Filters struct {
	Tags  []string          // Sent as repeated "tags" parameters
	Extra map[string]string // Sent verbatim, one parameter per key
}

// IsZero reports whether no filter is set
func (f Filters) IsZero() bool {
	return len(f.Tags) == 0 && len(f.Extra) == 0
}

// ArtworkCreateRequest registers an already uploaded file as an artwork
type ArtworkCreateRequest struct {
	FileID       string   `json:"file_id"`
	URL          string   `json:"url,omitempty"`
	Hash         string   `json:"hash,omitempty"`
	ThumbnailURL string   `json:"thumbnail_url,omitempty"`
	Tags         []string `json:"tags,omitempty"`
}

// ArtworkUpdateRequest changes the mutable fields of an artwork
type ArtworkUpdateRequest struct {
	URL          string   `json:"url,omitempty"`
	ThumbnailURL string   `json:"thumbnail_url,omitempty"`
	Tags         []string `json:"tags,omitempty"`
}

// FileInfo describes a file held by the remote file service
type FileInfo struct {
	ID           string
	FileID       string
	Name         string
	OriginalName string
	Size         int64
	Path         string
	AccessURL    string
	StorageType  string
	FileType     string // image, video, document, audio, other
	UploadTime   time.Time
	ModifiedAt   time.Time
}

// UploadRequest is a multipart upload, optionally creating an artwork
type UploadRequest struct {
	FileName    string
	Content     []byte
	Title       string
	Artist      string
	Description string
	Category    string
	AvatarURL   string
	Tags        []string

	// OnProgress receives upload progress in percent (0-100)
	OnProgress func(percent int)
}

// UploadResult is the outcome of an upload; Artwork is nil for plain file uploads
type UploadResult struct {
	File    FileInfo
	Artwork *Artwork
}
