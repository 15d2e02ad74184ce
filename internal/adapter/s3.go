package adapter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/MKhiriev/go-protocol-sync/internal/config"
	"github.com/MKhiriev/go-protocol-sync/internal/logger"
	"github.com/MKhiriev/go-protocol-sync/models"
)

const (
	defaultS3Region = "us-east-1"

	// s3ModifiedMetaKey carries the write time with millisecond precision.
	// S3 itself reports LastModified in whole seconds.
	s3ModifiedMetaKey    = "modified"
	s3ModifiedMetaHeader = "X-Amz-Meta-Modified"
)

// s3RemoteStore keeps the folder layout as key prefixes inside one bucket.
// A folder ID is its prefix including the trailing slash and a file ID is
// the full object key.
type s3RemoteStore struct {
	client         *minio.Client
	bucket         string
	region         string
	rootFolder     string
	requestTimeout time.Duration

	mu     sync.Mutex
	folder *models.RemoteFolder
	now    func() time.Time

	logger *logger.Logger
}

// NewS3RemoteStore constructs the S3-compatible implementation of
// [RemoteStore]. Requests are signed with the static keys from cfg.S3.
func NewS3RemoteStore(cfg config.ClientAdapter, logger *logger.Logger) (RemoteStore, error) {
	region := cfg.S3.Region
	if region == "" {
		region = defaultS3Region
	}

	client, err := minio.New(cfg.S3.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.S3.AccessKey, cfg.S3.SecretKey, ""),
		Secure: cfg.S3.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating s3 client: %w", err)
	}

	return &s3RemoteStore{
		client:         client,
		bucket:         cfg.S3.Bucket,
		region:         region,
		rootFolder:     cfg.RootFolder,
		requestTimeout: cfg.RequestTimeout,
		now:            time.Now,
		logger:         logger,
	}, nil
}

// EnsureRootReady implements [RemoteStore]. The bucket is created when
// missing; prefixes need no creation.
func (s *s3RemoteStore) EnsureRootReady(ctx context.Context) (models.RemoteFolder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.folder != nil {
		return *s.folder, nil
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return models.RemoteFolder{}, mapS3Error("bucket exists", err)
	}
	if !exists {
		err = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region})
		if err != nil && minio.ToErrorResponse(err).Code != "BucketAlreadyOwnedByYou" {
			return models.RemoteFolder{}, mapS3Error("make bucket", err)
		}
		s.logger.Info().
			Str("func", "s3RemoteStore.EnsureRootReady").
			Str("bucket", s.bucket).
			Msg("created bucket")
	}

	s.folder = &models.RemoteFolder{
		ID:   path.Join(s.rootFolder, RecordsFolderName) + "/",
		Name: RecordsFolderName,
	}
	return *s.folder, nil
}

// ListRecords implements [RemoteStore]. Listing asks for user metadata so
// the millisecond write time is used where the server returns it.
func (s *s3RemoteStore) ListRecords(ctx context.Context, folder models.RemoteFolder) ([]models.RemoteFileRef, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var refs []models.RemoteFileRef
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: folder.ID, WithMetadata: true}) {
		if obj.Err != nil {
			return nil, mapS3Error("list objects", obj.Err)
		}

		name := strings.TrimPrefix(obj.Key, folder.ID)
		if name == models.DeviceRegistryName {
			continue
		}
		ref, err := models.NewRemoteFileRef(obj.Key, name, objectModified(obj))
		if err != nil {
			s.logger.Debug().
				Str("func", "s3RemoteStore.ListRecords").
				Str("file_id", obj.Key).
				Msg("skipping object with foreign name")
			continue
		}
		refs = append(refs, ref)
	}

	return refs, nil
}

// Download implements [RemoteStore].
func (s *s3RemoteStore) Download(ctx context.Context, fileID string) ([]byte, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	obj, err := s.client.GetObject(ctx, s.bucket, fileID, minio.GetObjectOptions{})
	if err != nil {
		return nil, mapS3Error("get object", err)
	}
	defer func() {
		_ = obj.Close()
	}()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, mapS3Error("read object", err)
	}
	return data, nil
}

// Upload implements [RemoteStore]. A put replaces any existing object under
// the same key. The returned time is the one stored in the object metadata.
func (s *s3RemoteStore) Upload(ctx context.Context, name string, data []byte, folder models.RemoteFolder) (time.Time, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	modified := models.TruncateTimestamp(s.now())
	_, err := s.client.PutObject(ctx, s.bucket, folder.ID+name, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{
			ContentType:  driveJSONMimeType,
			UserMetadata: map[string]string{s3ModifiedMetaKey: models.FormatTimestamp(modified)},
		})
	if err != nil {
		return time.Time{}, mapS3Error("put object", err)
	}
	return modified, nil
}

// FetchDeviceRegistry implements [RemoteStore].
func (s *s3RemoteStore) FetchDeviceRegistry(ctx context.Context, folder models.RemoteFolder) (models.DeviceRegistryDocument, error) {
	data, err := s.Download(ctx, folder.ID+models.DeviceRegistryName)
	if err != nil {
		if isNotFound(err) {
			return models.DeviceRegistryDocument{}, nil
		}
		return models.DeviceRegistryDocument{}, err
	}
	return decodeDeviceRegistry(data)
}

// UpdateDeviceRegistry implements [RemoteStore].
func (s *s3RemoteStore) UpdateDeviceRegistry(ctx context.Context, folder models.RemoteFolder, doc models.DeviceRegistryDocument) error {
	data, err := encodeDeviceRegistry(doc)
	if err != nil {
		return err
	}
	_, err = s.Upload(ctx, models.DeviceRegistryName, data, folder)
	return err
}

func (s *s3RemoteStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.requestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.requestTimeout)
}

// objectModified prefers the metadata write time over LastModified. Objects
// written by other tools, or servers that do not list metadata, fall back to
// LastModified.
func objectModified(obj minio.ObjectInfo) time.Time {
	for k, v := range obj.UserMetadata {
		if !strings.EqualFold(k, s3ModifiedMetaHeader) && !strings.EqualFold(k, s3ModifiedMetaKey) {
			continue
		}
		if t, err := models.ParseTimestamp(v); err == nil {
			return t
		}
	}
	return obj.LastModified
}

// mapS3Error translates an S3 error response into the adapter sentinels
// used by the Drive backend.
func mapS3Error(op string, err error) error {
	resp := minio.ToErrorResponse(err)

	switch {
	case resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" || resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %w: %s: %s", models.ErrNetworkFailure, ErrNotFound, op, resp.Message)
	case resp.Code == "InvalidAccessKeyId" || resp.Code == "SignatureDoesNotMatch" || resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: %w: %s: %s", models.ErrAuthenticationRequired, ErrUnauthorized, op, resp.Message)
	case resp.Code == "AccessDenied" || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %w: %s: %s", models.ErrNetworkFailure, ErrForbidden, op, resp.Message)
	case resp.StatusCode == http.StatusTooManyRequests || resp.Code == "SlowDown":
		return fmt.Errorf("%w: %w: %s: %s", models.ErrNetworkFailure, ErrRateLimited, op, resp.Message)
	case resp.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("%w: %w: %s: %s", models.ErrNetworkFailure, ErrServiceUnavailable, op, resp.Message)
	default:
		return wrapTransportError(op, err)
	}
}
