package media

import (
	"context"
	"log/slog"

	"github.com/vidhub/backend/internal/logging"
)

// Batch records the assets uploaded during one operation so they can be
// removed again if a later step fails.
type Batch struct {
	host     Host
	uploaded []string
}

// NewBatch starts an empty batch against host.
func NewBatch(host Host) *Batch {
	return &Batch{host: host}
}

// Upload uploads a file and remembers it for Rollback.
func (b *Batch) Upload(ctx context.Context, localPath string, kind Kind) (Asset, error) {
	asset, err := b.host.Upload(ctx, localPath, kind)
	if err != nil {
		return Asset{}, err
	}
	b.uploaded = append(b.uploaded, asset.URL)
	return asset, nil
}

// Rollback deletes every asset uploaded through the batch, newest first.
// Failures are logged and do not stop the remaining deletions.
func (b *Batch) Rollback(ctx context.Context) {
	logger := logging.FromContext(ctx)
	for i := len(b.uploaded) - 1; i >= 0; i-- {
		if err := b.host.Delete(ctx, b.uploaded[i]); err != nil {
			logger.Error("rollback uploaded asset", slog.String("url", b.uploaded[i]), slog.Any("error", err))
		}
	}
	b.uploaded = nil
}

// Uploaded lists the asset locations recorded so far.
func (b *Batch) Uploaded() []string {
	return append([]string(nil), b.uploaded...)
}
