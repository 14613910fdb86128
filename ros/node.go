package ros

import (
	"context"
	"sync"

	"github.com/bluenviron/goroslib/v2"
	"github.com/bluenviron/goroslib/v2/pkg/msgs/geometry_msgs"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.viam.com/rdk/logging"

	"github.com/viamrobotics/ar-tag-cog/tagcog"
)

// NodeConfig describes where the node registers and which topics it bridges.
type NodeConfig struct {
	Name          string
	Namespace     string
	MasterAddress string
	Host          string
	InputTopic    string
	OutputTopic   string
}

// A Node subscribes to marker detections and publishes their centroid.
type Node struct {
	conf   NodeConfig
	logger logging.Logger

	cancelCtx  context.Context
	cancelFunc func()

	node *goroslib.Node
	pub  *goroslib.Publisher
	sub  *goroslib.Subscriber
	agg  *tagcog.Aggregator

	closeOnce sync.Once
}

// NewNode registers with the ROS master and starts consuming conf.InputTopic.
func NewNode(
	ctx context.Context,
	conf NodeConfig,
	aggConf tagcog.Config,
	logger logging.Logger,
	opts ...tagcog.Option,
) (*Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rosNode, err := goroslib.NewNode(goroslib.NodeConf{
		Namespace:     conf.Namespace,
		Name:          conf.Name,
		MasterAddress: conf.MasterAddress,
		Host:          conf.Host,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to register node %q with master at %s", conf.Name, conf.MasterAddress)
	}

	pub, err := goroslib.NewPublisher(goroslib.PublisherConf{
		Node:  rosNode,
		Topic: conf.OutputTopic,
		Msg:   &geometry_msgs.PoseStamped{},
	})
	if err != nil {
		rosNode.Close()
		return nil, errors.Wrapf(err, "failed to advertise %s", conf.OutputTopic)
	}

	agg, err := tagcog.NewAggregator(aggConf, NewTopicPublisher(func(m *geometry_msgs.PoseStamped) {
		pub.Write(m)
	}), logger, opts...)
	if err != nil {
		pub.Close()
		rosNode.Close()
		return nil, err
	}

	cancelCtx, cancelFunc := context.WithCancel(context.Background())
	n := &Node{
		conf:       conf,
		logger:     logger,
		cancelCtx:  cancelCtx,
		cancelFunc: cancelFunc,
		node:       rosNode,
		pub:        pub,
		agg:        agg,
	}

	sub, err := goroslib.NewSubscriber(goroslib.SubscriberConf{
		Node:     rosNode,
		Topic:    conf.InputTopic,
		Callback: n.onMarkers,
	})
	if err != nil {
		cancelFunc()
		pub.Close()
		rosNode.Close()
		return nil, errors.Wrapf(err, "failed to subscribe to %s", conf.InputTopic)
	}
	n.sub = sub

	logger.Infow("node started",
		"name", conf.Name,
		"master", conf.MasterAddress,
		"input_topic", conf.InputTopic,
		"output_topic", conf.OutputTopic,
	)
	return n, nil
}

// onMarkers runs on goroslib's subscriber goroutine, one message at a time.
func (n *Node) onMarkers(msg *AlvarMarkers) {
	if _, err := n.agg.OnBatch(n.cancelCtx, MarkersFromAlvar(msg)); err != nil {
		n.logger.Warnw("failed to publish some centroids", "error", err)
	}
}

// Aggregator returns the aggregator fed by the subscription.
func (n *Node) Aggregator() *tagcog.Aggregator {
	return n.agg
}

// Close stops the subscription, then the publisher, then unregisters the node.
func (n *Node) Close() {
	n.closeOnce.Do(func() {
		n.cancelFunc()
		n.sub.Close()
		n.pub.Close()
		n.node.Close()
	})
}

// TopicPublisher hands centroids to a ROS publisher, numbering headers the way
// rospy does.
type TopicPublisher struct {
	write func(*geometry_msgs.PoseStamped)
	seq   atomic.Uint32
}

// NewTopicPublisher returns a publisher that converts poses and passes them to write.
func NewTopicPublisher(write func(*geometry_msgs.PoseStamped)) *TopicPublisher {
	return &TopicPublisher{write: write}
}

// Publish converts pose and writes it unless ctx is already done.
func (tp *TopicPublisher) Publish(ctx context.Context, pose tagcog.Pose) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tp.write(PoseStampedFromPose(pose, tp.seq.Inc()))
	return nil
}
