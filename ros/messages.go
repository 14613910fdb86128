package ros

import (
	"time"

	"github.com/bluenviron/goroslib/v2/pkg/msg"
	"github.com/bluenviron/goroslib/v2/pkg/msgs/geometry_msgs"
	"github.com/bluenviron/goroslib/v2/pkg/msgs/std_msgs"
	"github.com/golang/geo/r3"

	"github.com/viamrobotics/ar-tag-cog/tagcog"
)

// AlvarMarker is ar_track_alvar_msgs/AlvarMarker.
type AlvarMarker struct {
	msg.Package `ros:"ar_track_alvar_msgs"`
	Header      std_msgs.Header
	Id          uint32 //nolint:revive,stylecheck
	Confidence  uint32
	Pose        geometry_msgs.PoseStamped
}

// AlvarMarkers is ar_track_alvar_msgs/AlvarMarkers, one detection cycle.
type AlvarMarkers struct {
	msg.Package `ros:"ar_track_alvar_msgs"`
	Header      std_msgs.Header
	Markers     []AlvarMarker
}

// MarkersFromAlvar converts a detection cycle into a batch, preserving marker order.
func MarkersFromAlvar(in *AlvarMarkers) []tagcog.Marker {
	if in == nil || len(in.Markers) == 0 {
		return nil
	}
	out := make([]tagcog.Marker, 0, len(in.Markers))
	for _, m := range in.Markers {
		p := m.Pose.Pose.Position
		out = append(out, tagcog.Marker{
			ID:       int(m.Id),
			FrameID:  m.Header.FrameId,
			Position: r3.Vector{X: p.X, Y: p.Y, Z: p.Z},
		})
	}
	return out
}

// PoseStampedFromPose converts a centroid into the message published on the output topic.
func PoseStampedFromPose(pose tagcog.Pose, seq uint32) *geometry_msgs.PoseStamped {
	return &geometry_msgs.PoseStamped{
		Header: std_msgs.Header{
			Seq:     seq,
			Stamp:   pose.Stamp,
			FrameId: pose.FrameID,
		},
		Pose: geometry_msgs.Pose{
			Position: geometry_msgs.Point{
				X: pose.Position.X,
				Y: pose.Position.Y,
				Z: pose.Position.Z,
			},
			Orientation: geometry_msgs.Quaternion{
				X: pose.Orientation.Imag,
				Y: pose.Orientation.Jmag,
				Z: pose.Orientation.Kmag,
				W: pose.Orientation.Real,
			},
		},
	}
}

// Time is a ROS time value as it appears in bag JSON.
type Time struct {
	Secs  int64 `json:"secs"`
	Nsecs int64 `json:"nsecs"`
}

// AsTime converts to a time.Time.
func (t Time) AsTime() time.Time {
	return time.Unix(t.Secs, t.Nsecs)
}

// TimeFrom converts a time.Time to a ROS time; the zero time maps to zero.
func TimeFrom(t time.Time) Time {
	if t.IsZero() {
		return Time{}
	}
	return Time{Secs: t.Unix(), Nsecs: int64(t.Nanosecond())}
}

// Header is std_msgs/Header as it appears in bag JSON.
type Header struct {
	Seq     uint32 `json:"seq"`
	Stamp   Time   `json:"stamp"`
	FrameID string `json:"frame_id"`
}

// Vector3 holds a geometry_msgs/Point in bag JSON.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Quaternion holds a geometry_msgs/Quaternion in bag JSON.
type Quaternion struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// PoseJSON is geometry_msgs/Pose in bag JSON.
type PoseJSON struct {
	Position    Vector3    `json:"position"`
	Orientation Quaternion `json:"orientation"`
}

// PoseStampedJSON is geometry_msgs/PoseStamped in bag JSON. Replayed centroids are
// written in this form.
type PoseStampedJSON struct {
	Header Header   `json:"header"`
	Pose   PoseJSON `json:"pose"`
}

// MarkersMessage is one ar_pose_marker record extracted from a bag.
type MarkersMessage struct {
	Meta Time `json:"meta"`
	Data struct {
		Header  Header `json:"header"`
		Markers []struct {
			Header     Header          `json:"header"`
			ID         uint32          `json:"id"`
			Confidence uint32          `json:"confidence"`
			Pose       PoseStampedJSON `json:"pose"`
		} `json:"markers"`
	} `json:"data"`
}

// Batch converts the record into a marker batch.
func (m *MarkersMessage) Batch() []tagcog.Marker {
	if len(m.Data.Markers) == 0 {
		return nil
	}
	out := make([]tagcog.Marker, 0, len(m.Data.Markers))
	for _, marker := range m.Data.Markers {
		p := marker.Pose.Pose.Position
		out = append(out, tagcog.Marker{
			ID:       int(marker.ID),
			FrameID:  marker.Header.FrameID,
			Position: r3.Vector{X: p.X, Y: p.Y, Z: p.Z},
		})
	}
	return out
}

// PoseStampedJSONFromPose converts a centroid into its bag JSON form.
func PoseStampedJSONFromPose(pose tagcog.Pose, seq uint32) PoseStampedJSON {
	return PoseStampedJSON{
		Header: Header{
			Seq:     seq,
			Stamp:   TimeFrom(pose.Stamp),
			FrameID: pose.FrameID,
		},
		Pose: PoseJSON{
			Position: Vector3{X: pose.Position.X, Y: pose.Position.Y, Z: pose.Position.Z},
			Orientation: Quaternion{
				X: pose.Orientation.Imag,
				Y: pose.Orientation.Jmag,
				Z: pose.Orientation.Kmag,
				W: pose.Orientation.Real,
			},
		},
	}
}
