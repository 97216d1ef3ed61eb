package artapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"github.com/mmcdole/artshelf/internal/domain"
)

// UploadFile stores a file without creating an artwork
func (c *Client) UploadFile(ctx context.Context, req domain.UploadRequest) (domain.FileInfo, error) {
	body, contentType, err := buildMultipart(req, false)
	if err != nil {
		return domain.FileInfo{}, err
	}

	data, err := c.doRequest(ctx, request{
		op:          "files.upload",
		method:      http.MethodPost,
		path:        "/files",
		body:        newProgressReader(body, req.OnProgress),
		length:      int64(len(body)),
		contentType: contentType,
	})
	if err != nil {
		return domain.FileInfo{}, err
	}

	var dto FileInfoDTO
	if err := c.decode("files.upload", data, &dto); err != nil {
		return domain.FileInfo{}, err
	}
	return MapFileInfo(dto), nil
}

// UploadArtwork stores a file and creates an artwork for it
func (c *Client) UploadArtwork(ctx context.Context, req domain.UploadRequest) (domain.UploadResult, error) {
	if req.Title == "" || req.Artist == "" {
		return domain.UploadResult{}, errors.New("title and artist are required")
	}

	body, contentType, err := buildMultipart(req, true)
	if err != nil {
		return domain.UploadResult{}, err
	}

	data, err := c.doRequest(ctx, request{
		op:          "artworks.upload",
		method:      http.MethodPost,
		path:        "/artworks/upload",
		body:        newProgressReader(body, req.OnProgress),
		length:      int64(len(body)),
		contentType: contentType,
	})
	if err != nil {
		return domain.UploadResult{}, err
	}

	var dto UploadDTO
	if err := c.decode("artworks.upload", data, &dto); err != nil {
		return domain.UploadResult{}, err
	}

	result := domain.UploadResult{File: MapFileInfo(dto.File)}
	if dto.Artwork != nil {
		artwork := MapArtwork(*dto.Artwork)
		result.Artwork = &artwork
	}
	return result, nil
}

// buildMultipart encodes the form in memory so the request has a known length
// for progress reporting.
func buildMultipart(req domain.UploadRequest, withMetadata bool) ([]byte, string, error) {
	if req.FileName == "" {
		return nil, "", errors.New("file name is required")
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", filepath.Base(req.FileName))
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(req.Content); err != nil {
		return nil, "", fmt.Errorf("failed to write form file: %w", err)
	}

	if withMetadata {
		fields := []struct{ name, value string }{
			{"title", req.Title},
			{"artist", req.Artist},
			{"description", req.Description},
			{"category", req.Category},
			{"avatar_url", req.AvatarURL},
		}
		for _, f := range fields {
			if f.value == "" {
				continue
			}
			if err := w.WriteField(f.name, f.value); err != nil {
				return nil, "", fmt.Errorf("failed to write %s: %w", f.name, err)
			}
		}
		for _, tag := range req.Tags {
			if err := w.WriteField("tags[]", tag); err != nil {
				return nil, "", fmt.Errorf("failed to write tag: %w", err)
			}
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish form: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// progressReader reports the share of the body read so far, in percent.
// A callback only sees each percentage once.
type progressReader struct {
	r          io.Reader
	total      int
	read       int
	last       int
	onProgress func(int)
}

func newProgressReader(body []byte, onProgress func(int)) io.Reader {
	if onProgress == nil {
		return bytes.NewReader(body)
	}
	return &progressReader{
		r:          bytes.NewReader(body),
		total:      max(1, len(body)),
		last:       -1,
		onProgress: onProgress,
	}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.read += n
	if percent := p.read * 100 / p.total; percent != p.last {
		p.last = percent
		p.onProgress(percent)
	}
	return n, err
}
