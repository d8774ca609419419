package dataset

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// objectGetter is the slice of the S3 client the fetcher needs. The real
// client satisfies it; tests hand in a fake.
type objectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Fetcher stages dataset objects from S3 into a local cache directory so
// the readers can mmap them like any other file.
type S3Fetcher struct {
	client objectGetter
	logger *slog.Logger
}

// NewS3Fetcher builds a fetcher from the ambient AWS configuration
// (environment, shared config, instance role). COPURCHASE_S3_ACCESS_KEY and
// COPURCHASE_S3_SECRET_KEY override the ambient credential chain, which is
// how MinIO-backed mirrors without an AWS profile are reached.
func NewS3Fetcher(ctx context.Context, logger *slog.Logger) (*S3Fetcher, error) {
	var opts []func(*awsconfig.LoadOptions) error
	access := os.Getenv("COPURCHASE_S3_ACCESS_KEY")
	secret := os.Getenv("COPURCHASE_S3_SECRET_KEY")
	if access != "" && secret != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(access, secret, "")))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &S3Fetcher{client: s3.NewFromConfig(cfg), logger: logger}, nil
}

// IsS3URL reports whether the dataset selector names an S3 object.
func IsS3URL(raw string) bool {
	return strings.HasPrefix(raw, "s3://")
}

func parseS3URL(raw string) (bucket, key string, err error) {
	rest := strings.TrimPrefix(raw, "s3://")
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("invalid s3 url %q", raw)
	}
	return bucket, key, nil
}

// Fetch downloads the object into cacheDir and returns the local path. A
// file already present under the object's base name is reused, so repeated
// runs do not re-download. The download lands under a .part name and is
// renamed only once complete, so a torn download never poses as a cache hit.
func (f *S3Fetcher) Fetch(ctx context.Context, rawURL, cacheDir string) (string, error) {
	bucket, key, err := parseS3URL(rawURL)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("create cache dir: %w", err)
	}

	local := filepath.Join(cacheDir, filepath.Base(key))
	if _, err := os.Stat(local); err == nil {
		f.logger.Debug("dataset already cached", "path", local)
		return local, nil
	}

	f.logger.Info("fetching dataset from s3", "bucket", bucket, "key", key)
	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("get s3://%s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	tmp := local + ".part"
	dst, err := os.Create(tmp)
	if err != nil {
		return "", err
	}
	n, err := io.Copy(dst, out.Body)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("download s3://%s/%s: %w", bucket, key, err)
	}
	if err := os.Rename(tmp, local); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}

	f.logger.Info("dataset cached", "path", local, "bytes", n)
	return local, nil
}

// Resolve turns a dataset selector into a local path. s3:// selectors are
// staged through the cache first; anything else is already a local path.
func Resolve(ctx context.Context, selector, cacheDir string, logger *slog.Logger) (string, error) {
	if !IsS3URL(selector) {
		return selector, nil
	}
	fetcher, err := NewS3Fetcher(ctx, logger)
	if err != nil {
		return "", err
	}
	return fetcher.Fetch(ctx, selector, cacheDir)
}
