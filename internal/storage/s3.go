package storage

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/vidhub/backend/internal/config"
	"github.com/vidhub/backend/internal/media"
)

const (
	defaultPartSize = 5 * 1024 * 1024
	megabyte        = 1024 * 1024
)

type uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

type objectDeleter interface {
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Host implements media.Host backed by an S3-compatible service.
type S3Host struct {
	uploader      uploader
	deleter       objectDeleter
	prober        media.DurationProber
	bucket        string
	baseURL       string
	videoPartSize int64
}

// NewS3Host configures a client targeting the provided object store. Video
// uploads are split into parts of videoPartSizeMB megabytes.
func NewS3Host(ctx context.Context, cfg config.ObjectStoreConfig, videoPartSizeMB int64, prober media.DurationProber) (*S3Host, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("s3 host: bucket is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
		if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	up := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = defaultPartSize
		u.LeavePartsOnError = false
	})

	return newS3Host(up, client, prober, cfg.Bucket, cfg.PublicBaseURL, videoPartSizeMB), nil
}

func newS3Host(up uploader, deleter objectDeleter, prober media.DurationProber, bucket, baseURL string, videoPartSizeMB int64) *S3Host {
	partSize := videoPartSizeMB * megabyte
	if partSize < defaultPartSize {
		partSize = defaultPartSize
	}
	return &S3Host{
		uploader:      up,
		deleter:       deleter,
		prober:        prober,
		bucket:        bucket,
		baseURL:       strings.TrimSuffix(baseURL, "/"),
		videoPartSize: partSize,
	}
}

// Upload stores the local file under a fresh key and returns its public
// location. Videos are probed for their duration before upload.
func (s *S3Host) Upload(ctx context.Context, localPath string, kind media.Kind) (media.Asset, error) {
	if strings.TrimSpace(localPath) == "" {
		return media.Asset{}, errors.New("s3 host: empty local path")
	}

	var asset media.Asset
	if kind == media.KindVideo {
		if s.prober == nil {
			return media.Asset{}, errors.New("s3 host: no duration prober for video upload")
		}
		duration, err := s.prober.Probe(ctx, localPath)
		if err != nil {
			return media.Asset{}, fmt.Errorf("s3 host probe %s: %w", localPath, err)
		}
		asset.Duration = duration
	}

	file, err := os.Open(localPath)
	if err != nil {
		return media.Asset{}, fmt.Errorf("s3 host open %s: %w", localPath, err)
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(localPath))
	key := path.Join(string(kind), uuid.NewString()+ext)

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   file,
		ACL:    s3types.ObjectCannedACLPublicRead,
	}
	if contentType := mime.TypeByExtension(ext); contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	var opts []func(*manager.Uploader)
	if kind == media.KindVideo {
		opts = append(opts, func(u *manager.Uploader) { u.PartSize = s.videoPartSize })
	}

	if _, err := s.uploader.Upload(ctx, input, opts...); err != nil {
		return media.Asset{}, fmt.Errorf("s3 host upload %s: %w", key, err)
	}

	asset.URL = s.location(key)
	return asset, nil
}

// Delete removes the object behind a location previously returned by Upload.
func (s *S3Host) Delete(ctx context.Context, url string) error {
	key, err := s.keyFor(url)
	if err != nil {
		return err
	}

	_, err = s.deleter.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var missing *s3types.NoSuchKey
		if errors.As(err, &missing) {
			return nil
		}
		return fmt.Errorf("s3 host delete %s: %w", key, err)
	}
	return nil
}

func (s *S3Host) location(key string) string {
	if s.baseURL == "" {
		return key
	}
	return fmt.Sprintf("%s/%s", s.baseURL, key)
}

func (s *S3Host) keyFor(url string) (string, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return "", media.ErrEmptyReference
	}
	if s.baseURL != "" {
		trimmed, ok := strings.CutPrefix(url, s.baseURL+"/")
		if !ok {
			return "", fmt.Errorf("s3 host: %q is not hosted under %s", url, s.baseURL)
		}
		url = trimmed
	}
	key := strings.TrimLeft(url, "/")
	if key == "" {
		return "", media.ErrEmptyReference
	}
	return key, nil
}

var _ media.Host = (*S3Host)(nil)
