package services

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	sc "github.com/vaultmerge/vaultmerge/internal/server/config"
)

func newTestBackupService() *BackupService {
	return NewBackupService(&sc.Config{
		S3Region:       "us-east-1",
		S3RootUser:     "minioadmin",
		S3RootPassword: "minioadmin",
		S3BaseEndpoint: "http://127.0.0.1:9000",
		S3Bucket:       "vaultmerge",
	})
}

func stubS3(t *testing.T, putURL, getURL string, putErr, getErr error) {
	t.Helper()
	origLoad, origClient, origPresign := loadDefaultAWSConfig, newS3ClientFromConfig, newS3PresignClient
	origPut, origGet := presignPutObject, presignGetObject
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origClient
		newS3PresignClient = origPresign
		presignPutObject = origPut
		presignGetObject = origGet
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return &s3.Client{}
	}
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return &s3.PresignClient{}
	}
	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		if putErr != nil {
			return nil, putErr
		}
		return &v4.PresignedHTTPRequest{URL: putURL}, nil
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		if getErr != nil {
			return nil, getErr
		}
		return &v4.PresignedHTTPRequest{URL: getURL}, nil
	}
}

func TestBackupService_GetUploadURL(t *testing.T) {
	stubS3(t, "https://example.test/put", "", nil, nil)
	s := newTestBackupService()

	userID := uuid.New()
	key, url, err := s.GetUploadURL(context.Background(), userID)
	require.NoError(t, err)
	require.Equal(t, "https://example.test/put", url)
	require.Contains(t, key, userID.String())
	require.Contains(t, key, "backups/")
}

func TestBackupService_GetUploadURL_PropagatesPresignError(t *testing.T) {
	stubS3(t, "", "", errors.New("presign failed"), nil)
	s := newTestBackupService()

	_, _, err := s.GetUploadURL(context.Background(), uuid.New())
	require.ErrorContains(t, err, "presign failed")
}

func TestBackupService_GetDownloadURL(t *testing.T) {
	stubS3(t, "", "https://example.test/get", nil, nil)
	s := newTestBackupService()

	url, err := s.GetDownloadURL(context.Background(), "backups/u1/k")
	require.NoError(t, err)
	require.Equal(t, "https://example.test/get", url)
}

func TestBackupService_GetDownloadURL_PropagatesPresignError(t *testing.T) {
	stubS3(t, "", "", nil, errors.New("presign failed"))
	s := newTestBackupService()

	_, err := s.GetDownloadURL(context.Background(), "backups/u1/k")
	require.ErrorContains(t, err, "presign failed")
}
