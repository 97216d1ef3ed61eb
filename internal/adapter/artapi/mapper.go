package artapi

import (
	"time"

	"github.com/mmcdole/artshelf/internal/domain"
)

// MapArtwork converts an API artwork to a domain artwork
func MapArtwork(dto ArtworkDTO) domain.Artwork {
	tags := dto.Tags
	if tags == nil {
		tags = []string{}
	}
	return domain.Artwork{
		ID:           dto.ID,
		URL:          dto.URL,
		ThumbnailURL: dto.ThumbnailURL,
		Views:        dto.Views,
		Likes:        max(0, dto.Likes),
		Bookmarks:    max(0, dto.Bookmarks),
		Tags:         tags,
		CreatedAt:    dto.CreatedAt,
		UpdatedAt:    dto.UpdatedAt,
	}
}

// MapArtworks converts a slice of API artworks, keeping server order
func MapArtworks(dtos []ArtworkDTO) []domain.Artwork {
	out := make([]domain.Artwork, 0, len(dtos))
	for _, dto := range dtos {
		out = append(out, MapArtwork(dto))
	}
	return out
}

// MapFileInfo converts API file metadata
func MapFileInfo(dto FileInfoDTO) domain.FileInfo {
	return domain.FileInfo{
		ID:           dto.ID,
		FileID:       dto.FileID,
		Name:         dto.Name,
		OriginalName: dto.OriginalName,
		Size:         dto.Size,
		Path:         dto.Path,
		AccessURL:    dto.AccessURL,
		StorageType:  dto.StorageType,
		FileType:     dto.FileType,
		UploadTime:   unixTime(dto.UploadTime),
		ModifiedAt:   unixTime(dto.ModifiedAt),
	}
}

func unixTime(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0)
}
