package ros

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/pkg/errors"
	"go.viam.com/rdk/logging"

	"github.com/viamrobotics/ar-tag-cog/tagcog"
)

// Replay feeds recorded batches through agg in order. Publish failures are logged
// and do not stop the replay; cancellation of ctx does.
func Replay(ctx context.Context, batches []BagBatch, agg *tagcog.Aggregator, logger logging.Logger) error {
	for i, batch := range batches {
		if err := ctx.Err(); err != nil {
			return errors.Wrapf(err, "replay stopped after %d of %d batches", i, len(batches))
		}
		if _, err := agg.OnBatch(ctx, batch.Markers); err != nil {
			logger.Warnw("failed to publish some centroids", "batch", i, "received", batch.Received, "error", err)
		}
	}
	return nil
}

// WriterPublisher writes each centroid as one line of PoseStamped JSON.
type WriterPublisher struct {
	mu  sync.Mutex
	enc *json.Encoder
	seq uint32
}

// NewWriterPublisher returns a publisher writing to w.
func NewWriterPublisher(w io.Writer) *WriterPublisher {
	return &WriterPublisher{enc: json.NewEncoder(w)}
}

// Publish encodes pose to the underlying writer.
func (wp *WriterPublisher) Publish(ctx context.Context, pose tagcog.Pose) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	wp.mu.Lock()
	defer wp.mu.Unlock()
	wp.seq++
	return wp.enc.Encode(PoseStampedJSONFromPose(pose, wp.seq))
}
