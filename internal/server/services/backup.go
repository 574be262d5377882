package services

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	sc "github.com/vaultmerge/vaultmerge/internal/server/config"
)

// Indirections over the AWS SDK constructors, matching the teacher's
// testability seam for S3-backed services: tests replace these vars with
// fakes instead of standing up a MinIO instance.
var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

const backupPresignExpiry = 15 * time.Minute

// BackupService issues presigned S3 URLs so a client can upload or download
// a full-vault export (the JSON-encoded vault.Snapshot) without routing the
// payload through vaultmerged itself.
type BackupService struct {
	config *sc.Config
}

// NewBackupService constructs a BackupService.
func NewBackupService(config *sc.Config) *BackupService {
	return &BackupService{config: config}
}

func (s *BackupService) getPresignClient() (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
	})

	return newS3PresignClient(client), nil
}

// backupStorageKey namespaces backups per user so one account can never
// overwrite or read another's export via a guessed key.
func backupStorageKey(userID uuid.UUID) string {
	d := time.Now()
	return fmt.Sprintf("backups/%s/%d-%02d-%02d/%s", userID, d.Year(), d.Month(), d.Day(), uuid.New())
}

// GetUploadURL returns a presigned PUT URL for userID's next backup, along
// with the storage key the client must record to fetch it back later.
func (s *BackupService) GetUploadURL(ctx context.Context, userID uuid.UUID) (storageKey, url string, err error) {
	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", "", err
	}

	bucket := s.config.S3Bucket
	key := backupStorageKey(userID)

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(backupPresignExpiry))
	if err != nil {
		return "", "", err
	}

	return key, req.URL, nil
}

// GetDownloadURL returns a presigned GET URL for a previously uploaded
// backup.
func (s *BackupService) GetDownloadURL(ctx context.Context, storageKey string) (string, error) {
	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket

	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &storageKey,
	}, s3.WithPresignExpires(backupPresignExpiry))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}
