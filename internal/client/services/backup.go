package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/vaultmerge/vaultmerge/internal/netx"
)

// BackupService exports and imports the whole vault as a single file holding
// the JSON-encoded vault snapshot (not encrypted), uploaded and downloaded directly against object storage via
// presigned URLs the server issues but never sees the payload for.
type BackupService interface {
	Export(ctx context.Context, vs VaultService) (storageKey string, err error)
	Import(ctx context.Context, storageKey string) ([]byte, error)
}

type backupService struct {
	client rpcClient
}

// NewBackupService constructs a BackupService bound to the given gRPC client.
func NewBackupService(client rpcClient) BackupService {
	return &backupService{client: client}
}

// Export marshals the in-memory vault and uploads it to a presigned URL,
// returning the storage key needed to fetch it back later.
func (b *backupService) Export(ctx context.Context, vs VaultService) (string, error) {
	payload, err := json.Marshal(vs.Database().ToSnapshot())
	if err != nil {
		return "", fmt.Errorf("encoding vault for export: %w", err)
	}

	storageKey, url, err := b.client.GetBackupUploadURL(ctx)
	if err != nil {
		return "", fmt.Errorf("requesting backup upload URL: %w", err)
	}

	if err := netx.UploadToS3PresignedURL(url, payload); err != nil {
		return "", fmt.Errorf("uploading backup: %w", err)
	}

	return storageKey, nil
}

// Import downloads the JSON-encoded vault.Snapshot for storageKey. The
// caller is responsible for decoding and adopting it.
func (b *backupService) Import(ctx context.Context, storageKey string) ([]byte, error) {
	url, err := b.client.GetBackupDownloadURL(ctx, storageKey)
	if err != nil {
		return nil, fmt.Errorf("requesting backup download URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building backup download request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading backup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("downloading backup: unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading backup: %w", err)
	}
	return body, nil
}
