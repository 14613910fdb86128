// Package ros bridges the marker centroid aggregator and ROS: message types,
// a live node, and rosbag replay.
package ros

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/edaniels/gobag/rosbag"
	"github.com/pkg/errors"
	"go.viam.com/utils"

	"github.com/viamrobotics/ar-tag-cog/tagcog"
)

// ReadBag reads the contents of a rosbag into a gobag data structure.
func ReadBag(filename string) (*rosbag.RosBag, error) {
	//nolint:gosec
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open input file")
	}
	defer utils.UncheckedErrorFunc(f.Close)

	rb := rosbag.NewRosBag()
	if err := rb.Read(f); err != nil {
		return nil, errors.Wrapf(err, "unable to create ros bag, error")
	}

	return rb, nil
}

// A BagBatch is one detection cycle read back from a bag.
type BagBatch struct {
	Received time.Time
	Markers  []tagcog.Marker
}

// MarkerBatches returns every detection cycle recorded on topic, in bag order. When
// both startTime and endTime are non-zero only records whose timestamps fall within
// [startTime, endTime] are returned.
func MarkerBatches(rb *rosbag.RosBag, topic string, startTime, endTime int64) ([]BagBatch, error) {
	timeFilterFunc := func(int64) bool { return true }
	if startTime != 0 && endTime != 0 {
		timeFilterFunc = func(timestamp int64) bool {
			return timestamp >= startTime && timestamp <= endTime
		}
	}

	if err := rb.ParseTopicsToJSON(
		"",
		timeFilterFunc,
		func(t string) bool { return t == topic },
		false,
	); err != nil {
		return nil, errors.Wrapf(err, "error while parsing bag to JSON")
	}

	msgs := rb.TopicsAsJSON[topic]
	if msgs == nil {
		return nil, errors.Errorf("no messages for topic %s", topic)
	}
	return DecodeMarkerBatches(msgs)
}

// DecodeMarkerBatches decodes newline delimited ar_pose_marker records.
func DecodeMarkerBatches(r io.Reader) ([]BagBatch, error) {
	reader := bufio.NewReader(r)
	var batches []BagBatch
	for line := 1; ; line++ {
		data, err := reader.ReadBytes('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 {
			var message MarkersMessage
			if uErr := json.Unmarshal(trimmed, &message); uErr != nil {
				return nil, errors.Wrapf(uErr, "failed to decode marker record on line %d", line)
			}
			batches = append(batches, BagBatch{
				Received: message.Meta.AsTime(),
				Markers:  message.Batch(),
			})
		}
		if errors.Is(err, io.EOF) {
			return batches, nil
		}
	}
}
