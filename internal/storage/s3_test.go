package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/vidhub/backend/internal/media"
)

type uploaderStub struct {
	key      string
	body     []byte
	partSize int64
	err      error
}

func (u *uploaderStub) Upload(_ context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	if u.err != nil {
		return nil, u.err
	}
	cfg := &manager.Uploader{PartSize: defaultPartSize}
	for _, opt := range opts {
		opt(cfg)
	}
	u.partSize = cfg.PartSize
	u.key = aws.ToString(input.Key)
	data, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	u.body = data
	return &manager.UploadOutput{Key: input.Key}, nil
}

type deleterStub struct {
	keys []string
	err  error
}

func (d *deleterStub) DeleteObject(_ context.Context, input *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if d.err != nil {
		return nil, d.err
	}
	d.keys = append(d.keys, aws.ToString(input.Key))
	return &s3.DeleteObjectOutput{}, nil
}

type proberStub struct {
	duration float64
	err      error
}

func (p proberStub) Probe(context.Context, string) (float64, error) {
	return p.duration, p.err
}

func writeTempFile(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestS3HostUploadImage(t *testing.T) {
	up := &uploaderStub{}
	host := newS3Host(up, &deleterStub{}, nil, "bucket", "https://cdn.example.com/", 6)

	asset, err := host.Upload(context.Background(), writeTempFile(t, "avatar.PNG", "image-bytes"), media.KindImage)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.HasPrefix(up.key, "image/") || !strings.HasSuffix(up.key, ".png") {
		t.Fatalf("unexpected key %q", up.key)
	}
	if asset.URL != "https://cdn.example.com/"+up.key {
		t.Fatalf("unexpected url %q", asset.URL)
	}
	if string(up.body) != "image-bytes" {
		t.Fatalf("unexpected body %q", up.body)
	}
	if up.partSize != defaultPartSize {
		t.Fatalf("expected default part size for images, got %d", up.partSize)
	}
}

func TestS3HostUploadVideo(t *testing.T) {
	up := &uploaderStub{}
	host := newS3Host(up, &deleterStub{}, proberStub{duration: 93.5}, "bucket", "", 6)

	asset, err := host.Upload(context.Background(), writeTempFile(t, "clip.mp4", "video-bytes"), media.KindVideo)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if asset.Duration != 93.5 {
		t.Fatalf("expected probed duration, got %v", asset.Duration)
	}
	if asset.URL != up.key {
		t.Fatalf("expected bare key without base url, got %q", asset.URL)
	}
	if up.partSize != 6*megabyte {
		t.Fatalf("expected configured part size, got %d", up.partSize)
	}
}

func TestS3HostUploadFailures(t *testing.T) {
	path := writeTempFile(t, "clip.mp4", "video-bytes")

	host := newS3Host(&uploaderStub{}, &deleterStub{}, proberStub{err: errors.New("bad file")}, "bucket", "", 6)
	if _, err := host.Upload(context.Background(), path, media.KindVideo); err == nil {
		t.Fatal("expected probe failure")
	}

	host = newS3Host(&uploaderStub{err: errors.New("network")}, &deleterStub{}, nil, "bucket", "", 6)
	if _, err := host.Upload(context.Background(), path, media.KindImage); err == nil {
		t.Fatal("expected upload failure")
	}

	if _, err := host.Upload(context.Background(), filepath.Join(t.TempDir(), "missing.png"), media.KindImage); err == nil {
		t.Fatal("expected missing file failure")
	}
}

func TestS3HostDelete(t *testing.T) {
	deleter := &deleterStub{}
	host := newS3Host(&uploaderStub{}, deleter, nil, "bucket", "https://cdn.example.com", 6)

	if err := host.Delete(context.Background(), "https://cdn.example.com/video/abc.mp4"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(deleter.keys) != 1 || deleter.keys[0] != "video/abc.mp4" {
		t.Fatalf("unexpected keys %v", deleter.keys)
	}

	if err := host.Delete(context.Background(), "https://elsewhere.example.com/video/abc.mp4"); err == nil {
		t.Fatal("expected foreign url to be rejected")
	}
	if err := host.Delete(context.Background(), " "); !errors.Is(err, media.ErrEmptyReference) {
		t.Fatalf("expected empty reference error, got %v", err)
	}
}

func TestS3HostDeleteMissingObject(t *testing.T) {
	host := newS3Host(&uploaderStub{}, &deleterStub{err: &s3types.NoSuchKey{}}, nil, "bucket", "", 6)
	if err := host.Delete(context.Background(), "image/gone.png"); err != nil {
		t.Fatalf("expected missing object to be ignored, got %v", err)
	}

	host = newS3Host(&uploaderStub{}, &deleterStub{err: errors.New("denied")}, nil, "bucket", "", 6)
	if err := host.Delete(context.Background(), "image/gone.png"); err == nil {
		t.Fatal("expected delete failure")
	}
}
