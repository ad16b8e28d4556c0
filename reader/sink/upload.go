package sink

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

type UploadConfig struct {
	URL    string
	Key    string
	Secret string
	Bucket string
	Region string
	Path   string
	Secure bool
}

// Uploader copies finished output files to an S3 bucket.
type Uploader struct {
	cfg    UploadConfig
	client *minio.Client
	limit  *semaphore.Weighted
}

func NewUploader(cfg UploadConfig, limit *semaphore.Weighted) (*Uploader, error) {
	minioClient, err := minio.New(cfg.URL, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Key, cfg.Secret, ""),
		Secure: cfg.Secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return &Uploader{cfg: cfg, client: minioClient, limit: limit}, nil
}

// Upload puts every file under the configured prefix, keeping its path
// relative to root so partition directories survive. It returns the
// object keys.
func (u *Uploader) Upload(ctx context.Context, root string, files []string) ([]string, error) {
	keys := make([]string, len(files))
	for i, f := range files {
		key, err := ObjectKey(u.cfg.Path, root, f)
		if err != nil {
			return nil, err
		}
		keys[i] = key
	}
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range files {
		key := keys[i]
		g.Go(func() error {
			if u.limit != nil {
				if err := u.limit.Acquire(gctx, 1); err != nil {
					return err
				}
				defer u.limit.Release(1)
			}
			return u.put(gctx, f, key)
		})
	}
	return keys, g.Wait()
}

func (u *Uploader) put(ctx context.Context, filePath, key string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	fileInfo, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to get file info: %w", err)
	}

	_, err = u.client.PutObject(ctx, u.cfg.Bucket, key, file, fileInfo.Size(), minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s to S3: %w", filePath, err)
	}
	return nil
}

// ObjectKey maps a local file under root to its key under prefix.
func ObjectKey(prefix, root, file string) (string, error) {
	rel, err := filepath.Rel(root, file)
	if err != nil {
		return "", err
	}
	return path.Join(prefix, filepath.ToSlash(rel)), nil
}
