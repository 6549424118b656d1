package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/everkeep/lifecycle-management-api/internal/config"
)

// BlobPurger requests the blob storage collaborator to erase all media of a
// creator. The purge endpoint is idempotent and tolerates creators with no
// stored media, so it is safe to retry before the deleting transaction
// commits.
type BlobPurger interface {
	PurgeCreator(ctx context.Context, creatorID string) error
}

// HTTPBlobClient talks to the external blob storage service
type HTTPBlobClient struct {
	httpClient *http.Client
	config     *config.StorageConfig
	logger     *logrus.Logger
}

// NewHTTPBlobClient creates a new blob storage client instance
func NewHTTPBlobClient(cfg *config.StorageConfig, logger *logrus.Logger) *HTTPBlobClient {
	timeout := 30 * time.Second
	if cfg.Timeout > 0 {
		timeout = cfg.Timeout
	}

	return &HTTPBlobClient{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		config: cfg,
		logger: logger,
	}
}

// PurgeCreator deletes all stored media of a creator
func (c *HTTPBlobClient) PurgeCreator(ctx context.Context, creatorID string) error {
	if !c.config.Enabled || c.config.BaseURL == "" {
		c.logger.Debug("Blob storage collaborator not configured, skipping purge")
		return nil
	}

	url := fmt.Sprintf("%s/media/creators/%s", c.config.BaseURL, creatorID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create purge request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call blob storage service: %w", err)
	}
	defer resp.Body.Close()

	// 404 means no media was ever stored for this creator
	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusNotFound {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("blob storage service returned %d: %s", resp.StatusCode, string(body))
	}

	c.logger.WithField("creator_id", creatorID).Info("Blob storage purge completed")
	return nil
}
