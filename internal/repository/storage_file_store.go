package repository

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"policy-pulse-server/internal/domain"
	apperrors "policy-pulse-server/pkg/errors"
)

// StorageFileStore reads policy PDFs from the Supabase storage bucket over
// its plain object endpoint.
type StorageFileStore struct {
	baseURL string
	apiKey  string
	bucket  string
	client  *http.Client
	logger  domain.Logger
}

// NewStorageFileStore creates a new storage-backed policy file store
func NewStorageFileStore(baseURL, apiKey, bucket string, logger domain.Logger) *StorageFileStore {
	return &StorageFileStore{
		baseURL: baseURL,
		apiKey:  apiKey,
		bucket:  bucket,
		client:  http.DefaultClient,
		logger:  logger,
	}
}

// Download fetches one object's bytes from the bucket
func (s *StorageFileStore) Download(ctx context.Context, objectName string) ([]byte, error) {
	url := s.baseURL + "/storage/v1/object/" + s.bucket + "/" + objectName

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build storage request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, apperrors.NewNetworkError("storage request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrFileNotFound
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("storage download failed with status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read storage response: %w", err)
	}

	s.logger.Debug("Policy file downloaded", "object", objectName, "bytes", len(data))
	return data, nil
}
