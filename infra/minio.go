package infra

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/tnqbao/gau-docgen-orchestrator/config"
)

type MinioClient struct {
	Client   *minio.Client
	Endpoint string
}

func InitMinioClient(cfg *config.EnvConfig) *MinioClient {
	endpoint := cfg.Minio.Endpoint
	if endpoint == "" {
		panic("MinIO endpoint is not configured")
	}

	accessKey := cfg.Minio.AccessKey
	if accessKey == "" {
		panic("MinIO access key is not configured")
	}

	secretKey := cfg.Minio.SecretKey
	if secretKey == "" {
		panic("MinIO secret key is not configured")
	}

	minioClient, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: cfg.Minio.UseSSL,
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize MinIO client: %v", err))
	}

	log.Println("Connected to MinIO:", endpoint)

	return &MinioClient{
		Client:   minioClient,
		Endpoint: endpoint,
	}
}

// EnsureBucket creates the bucket if it doesn't exist.
func (m *MinioClient) EnsureBucket(ctx context.Context, bucketName string) error {
	exists, err := m.Client.BucketExists(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("failed to check if bucket exists: %w", err)
	}

	if !exists {
		if err := m.Client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

// ListPaths returns the object keys under the given prefix.
func (m *MinioClient) ListPaths(ctx context.Context, bucketName, prefix string) ([]string, error) {
	objectCh := m.Client.ListObjects(ctx, bucketName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})

	var paths []string
	for object := range objectCh {
		if object.Err != nil {
			return nil, fmt.Errorf("failed to list objects under %q: %w", prefix, object.Err)
		}
		paths = append(paths, object.Key)
	}

	return paths, nil
}

// StatPath returns the size of an object, or an error if it is absent.
func (m *MinioClient) StatPath(ctx context.Context, bucketName, objectPath string) (int64, error) {
	info, err := m.Client.StatObject(ctx, bucketName, objectPath, minio.StatObjectOptions{})
	if err != nil {
		return 0, fmt.Errorf("failed to stat object %q: %w", objectPath, err)
	}
	return info.Size, nil
}

// OpenPath opens an object for reading and reports its content length;
// length is -1 when the store does not report one.
func (m *MinioClient) OpenPath(ctx context.Context, bucketName, objectPath string) (io.ReadCloser, int64, error) {
	object, err := m.Client.GetObject(ctx, bucketName, objectPath, minio.GetObjectOptions{})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get object %q: %w", objectPath, err)
	}

	info, err := object.Stat()
	if err != nil {
		_ = object.Close()
		return nil, 0, fmt.Errorf("failed to stat object %q: %w", objectPath, err)
	}

	return object, info.Size, nil
}

// PutPath writes an object with an explicit content type.
func (m *MinioClient) PutPath(ctx context.Context, bucketName, objectPath string, reader io.Reader, size int64, contentType string) error {
	_, err := m.Client.PutObject(ctx, bucketName, objectPath, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to put object %q: %w", objectPath, err)
	}
	return nil
}

// RemovePaths deletes the given objects. Deleting a non-existent object is
// tolerated as success.
func (m *MinioClient) RemovePaths(ctx context.Context, bucketName string, objectPaths []string) error {
	for _, objectPath := range objectPaths {
		if objectPath == "" {
			continue
		}
		err := m.Client.RemoveObject(ctx, bucketName, objectPath, minio.RemoveObjectOptions{})
		if err != nil {
			resp := minio.ToErrorResponse(err)
			if resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" {
				continue
			}
			return fmt.Errorf("failed to remove object %q: %w", objectPath, err)
		}
	}
	return nil
}
