package repository

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/dharsanguruparan/VaultBox/internal/model"
)

const blobRefPrefix = "blob:sha256:"

// BlobStore persists content-addressed payloads outside the record store.
type BlobStore interface {
	PutBlob(ctx context.Context, key string, data []byte, contentType string) error
	GetBlob(ctx context.Context, key string) ([]byte, error)
}

// BlobFiles moves base64 data-URI payloads into a BlobStore and keeps only a
// reference in the wrapped repository. Reads resolve references back, so
// callers always see inline content.
type BlobFiles struct {
	FileRepository
	blobs BlobStore
}

// NewBlobFiles wraps next with blob offloading.
func NewBlobFiles(next FileRepository, blobs BlobStore) *BlobFiles {
	return &BlobFiles{FileRepository: next, blobs: blobs}
}

// CreateFile offloads binary content before inserting.
func (b *BlobFiles) CreateFile(ctx context.Context, file *model.FileItem) (*model.FileItem, error) {
	stored := *file
	content, err := b.offload(ctx, stored.Content)
	if err != nil {
		return nil, err
	}
	stored.Content = content
	created, err := b.FileRepository.CreateFile(ctx, &stored)
	if err != nil {
		return nil, err
	}
	created.Content = file.Content
	return created, nil
}

// GetFilesByUserID resolves every listed record.
func (b *BlobFiles) GetFilesByUserID(ctx context.Context, userID string) ([]model.FileItem, error) {
	files, err := b.FileRepository.GetFilesByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return b.resolveAll(ctx, files)
}

// GetFileByID resolves the record content.
func (b *BlobFiles) GetFileByID(ctx context.Context, id, userID string) (*model.FileItem, error) {
	file, err := b.FileRepository.GetFileByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if err := b.resolve(ctx, file); err != nil {
		return nil, err
	}
	return file, nil
}

// UpdateFile offloads new content and resolves the updated record.
func (b *BlobFiles) UpdateFile(ctx context.Context, id, userID string, patch model.FilePatch) (*model.FileItem, error) {
	if patch.Content != nil {
		content, err := b.offload(ctx, *patch.Content)
		if err != nil {
			return nil, err
		}
		patch.Content = &content
	}
	file, err := b.FileRepository.UpdateFile(ctx, id, userID, patch)
	if err != nil {
		return nil, err
	}
	if err := b.resolve(ctx, file); err != nil {
		return nil, err
	}
	return file, nil
}

// SearchFiles resolves every matched record.
func (b *BlobFiles) SearchFiles(ctx context.Context, userID, query string) ([]model.FileItem, error) {
	files, err := b.FileRepository.SearchFiles(ctx, userID, query)
	if err != nil {
		return nil, err
	}
	return b.resolveAll(ctx, files)
}

func (b *BlobFiles) offload(ctx context.Context, content string) (string, error) {
	mediaType, data, ok := parseDataURI(content)
	if !ok {
		return content, nil
	}
	sum := sha256.Sum256(data)
	key := hex.EncodeToString(sum[:])
	if err := b.blobs.PutBlob(ctx, key, data, mediaType); err != nil {
		return "", fmt.Errorf("offload content: %w", err)
	}
	return blobRefPrefix + key + ";" + mediaType, nil
}

func (b *BlobFiles) resolve(ctx context.Context, file *model.FileItem) error {
	if !strings.HasPrefix(file.Content, blobRefPrefix) {
		return nil
	}
	key, mediaType, _ := strings.Cut(strings.TrimPrefix(file.Content, blobRefPrefix), ";")
	data, err := b.blobs.GetBlob(ctx, key)
	if err != nil {
		return fmt.Errorf("resolve content %s: %w", key, err)
	}
	file.Content = "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
	return nil
}

func (b *BlobFiles) resolveAll(ctx context.Context, files []model.FileItem) ([]model.FileItem, error) {
	for i := range files {
		if err := b.resolve(ctx, &files[i]); err != nil {
			return nil, err
		}
	}
	return files, nil
}

// parseDataURI splits "data:<mediatype>;base64,<payload>". Anything else,
// including malformed base64, is left inline. The decoder tolerates line
// breaks and stray padding bits, but resolve always re-encodes canonically,
// so only payloads that re-encode to the exact same text are offloaded;
// otherwise a read would not return what was written.
func parseDataURI(content string) (string, []byte, bool) {
	rest, ok := strings.CutPrefix(content, "data:")
	if !ok {
		return "", nil, false
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, false
	}
	mediaType, ok := strings.CutSuffix(header, ";base64")
	if !ok {
		return "", nil, false
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || base64.StdEncoding.EncodeToString(data) != payload {
		return "", nil, false
	}
	return mediaType, data, true
}
