package services

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestBackupService_Export_UploadsSnapshotAndReturnsKey(t *testing.T) {
	var uploaded []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		uploaded = body
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	f := &fakeRPCClient{backupUploadKey: "backups/u1/key", backupUploadURL: srv.URL}
	vs := NewVaultService(f, newTestStore(t))
	_, err := vs.AddGroup(uuid.Nil, "Personal")
	require.NoError(t, err)

	b := NewBackupService(f)
	key, err := b.Export(context.Background(), vs)
	require.NoError(t, err)
	require.Equal(t, "backups/u1/key", key)
	require.Contains(t, string(uploaded), "Personal")
}

func TestBackupService_Export_PropagatesUploadFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	f := &fakeRPCClient{backupUploadURL: srv.URL}
	vs := NewVaultService(f, newTestStore(t))
	b := NewBackupService(f)

	_, err := b.Export(context.Background(), vs)
	require.Error(t, err)
}

func TestBackupService_Import_DownloadsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"groups":[]}`))
	}))
	defer srv.Close()

	f := &fakeRPCClient{backupDownloadURL: srv.URL}
	b := NewBackupService(f)

	body, err := b.Import(context.Background(), "backups/u1/key")
	require.NoError(t, err)
	require.Equal(t, `{"groups":[]}`, string(body))
}

func TestBackupService_Import_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := &fakeRPCClient{backupDownloadURL: srv.URL}
	b := NewBackupService(f)

	_, err := b.Import(context.Background(), "missing-key")
	require.Error(t, err)
}
