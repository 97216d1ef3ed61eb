package domain

import (
	"context"
)

// ArtworkRepository provides access to the remote artwork catalog
type ArtworkRepository interface {
	// ListArtworks returns one page of the listing
	ListArtworks(ctx context.Context, page, pageSize int, filters Filters) (Page, error)

	// RandomArtworks returns a random, unpaginated sample
	RandomArtworks(ctx context.Context, limit int, filters Filters) ([]Artwork, error)

	// ListByCategory returns one page of a category listing
	ListByCategory(ctx context.Context, category string, page, pageSize int) ([]Artwork, error)

	// GetArtwork returns a single artwork
	GetArtwork(ctx context.Context, id int64) (Artwork, error)

	// CreateArtwork registers an uploaded file as an artwork
	CreateArtwork(ctx context.Context, req ArtworkCreateRequest) (Artwork, error)

	// UpdateArtwork changes an artwork's mutable fields
	UpdateArtwork(ctx context.Context, id int64, req ArtworkUpdateRequest) (Artwork, error)

	// DeleteArtwork removes an artwork
	DeleteArtwork(ctx context.Context, id int64) error
}

// EngagementRepository exposes the anonymous counter endpoints.
// The server does not know who is asking; every call moves the counter.
type EngagementRepository interface {
	// Increment calls like/bookmark and returns the new counter,
	// or -1 when the server did not report it
	Increment(ctx context.Context, kind Kind, id int64) (int, error)

	// Decrement calls unlike/unbookmark and returns the new counter,
	// or -1 when the server did not report it
	Decrement(ctx context.Context, kind Kind, id int64) (int, error)
}

// UploadRepository provides file operations on the remote file service
type UploadRepository interface {
	// UploadFile stores a file without creating an artwork
	UploadFile(ctx context.Context, req UploadRequest) (FileInfo, error)

	// UploadArtwork stores a file and creates an artwork for it
	UploadArtwork(ctx context.Context, req UploadRequest) (UploadResult, error)

	// DeleteFile removes a stored file by path
	DeleteFile(ctx context.Context, path string) error

	// GetFileInfo returns metadata for a stored file
	GetFileInfo(ctx context.Context, path string) (FileInfo, error)
}

// ArtworkSource combines every repository the remote API implements
type ArtworkSource interface {
	ArtworkRepository
	EngagementRepository
	UploadRepository
}
