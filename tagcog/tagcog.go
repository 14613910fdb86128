// Package tagcog computes the center of gravity of a batch of detected fiducial
// markers and hands each computed pose to a Publisher.
package tagcog

import (
	"context"
	"time"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// A Marker is a single fiducial detection reported by the upstream detector.
type Marker struct {
	ID       int
	FrameID  string
	Position r3.Vector
}

// A Pose is a centroid emitted for a batch. Orientation is always the unit quaternion.
type Pose struct {
	FrameID     string
	Position    r3.Vector
	Orientation quat.Number
	Stamp       time.Time
}

// A Publisher receives every pose emitted by an Aggregator, in emission order.
type Publisher interface {
	Publish(ctx context.Context, pose Pose) error
}

// PublisherFunc adapts a function into a Publisher.
type PublisherFunc func(ctx context.Context, pose Pose) error

// Publish calls f.
func (f PublisherFunc) Publish(ctx context.Context, pose Pose) error {
	return f(ctx, pose)
}
