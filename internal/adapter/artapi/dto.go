package artapi

import (
	"time"

	json "github.com/goccy/go-json"
)

// Envelope wraps every response body of the artwork API
type Envelope struct {
	Code      *int            `json:"code,omitempty"`
	Message   string          `json:"message,omitempty"`
	Data      json.RawMessage `json:"data"`
	RequestID string          `json:"request_id,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"`
}

// ArtworkDTO is an artwork as serialized by the API
type ArtworkDTO struct {
	ID           int64     `json:"id"`
	URL          string    `json:"url"`
	ThumbnailURL string    `json:"thumbnail_url"`
	Views        int       `json:"views"`
	Likes        int       `json:"likes"`
	Bookmarks    int       `json:"bookmarks"`
	Tags         []string  `json:"tags"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PageDTO is the data of a paginated listing
type PageDTO struct {
	List     []ArtworkDTO `json:"list"`
	Total    int          `json:"total"`
	Page     int          `json:"page"`
	PageSize int          `json:"pageSize"`
}

// CounterDTO is returned by the like/bookmark endpoints; only one field is set
type CounterDTO struct {
	Likes     *int `json:"likes,omitempty"`
	Bookmarks *int `json:"bookmarks,omitempty"`
}

// FileInfoDTO describes a stored file
type FileInfoDTO struct {
	ID           string `json:"id"`
	FileID       string `json:"file_id"`
	Name         string `json:"name"`
	OriginalName string `json:"original_name"`
	Size         int64  `json:"size"`
	Path         string `json:"path"`
	AccessURL    string `json:"access_url"`
	StorageType  string `json:"storage_type"`
	FileType     string `json:"file_type"`
	UploadTime   int64  `json:"upload_time"` // Unix seconds
	ModifiedAt   int64  `json:"modified_at"` // Unix seconds
}

// UploadDTO is returned by /artworks/upload
type UploadDTO struct {
	File    FileInfoDTO `json:"file"`
	Artwork *ArtworkDTO `json:"artwork,omitempty"`
}

// DeleteFileDTO is returned by DELETE /files
type DeleteFileDTO struct {
	Path    string `json:"path"`
	Deleted bool   `json:"deleted"`
}
