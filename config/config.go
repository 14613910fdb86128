// Package config defines the structures to configure the marker centroid node.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.viam.com/rdk/resource"

	"github.com/viamrobotics/ar-tag-cog/ros"
	"github.com/viamrobotics/ar-tag-cog/tagcog"
)

// Defaults applied to any field left empty.
const (
	DefaultNodeName      = "ar_tags_cog"
	DefaultMasterAddress = "127.0.0.1:11311"
	DefaultInputTopic    = "ar_pose_marker"
	DefaultOutputTopic   = "target_pose"

	masterURIEnvVar = "ROS_MASTER_URI"
)

// Config is the full startup configuration of the node.
type Config struct {
	ConfigFilePath string `json:"-"`

	// TagIDs is the optional allow-list of marker ids. Leaving it out accepts every
	// marker; an empty list accepts none.
	TagIDs []int      `json:"tag_ids"`
	Mode   string     `json:"mode,omitempty"`
	Node   NodeConfig `json:"node"`
}

// NodeConfig describes the node's registration and topics.
type NodeConfig struct {
	Name          string `json:"name,omitempty"`
	Namespace     string `json:"namespace,omitempty"`
	MasterAddress string `json:"master_address,omitempty"`
	Host          string `json:"host,omitempty"`
	InputTopic    string `json:"input_topic,omitempty"`
	OutputTopic   string `json:"output_topic,omitempty"`
}

// Ensure fills defaults and then validates the config.
func (c *Config) Ensure() error {
	c.Node.fillDefaults()
	if c.Mode == "" {
		c.Mode = string(tagcog.ModeCascade)
	}
	return c.Validate("")
}

// Validate ensures all parts of the config are valid.
func (c *Config) Validate(path string) error {
	if _, err := tagcog.ParseMode(c.Mode); err != nil {
		return resource.NewConfigValidationError(joinPath(path, "mode"), err)
	}
	seen := make(map[int]int, len(c.TagIDs))
	for idx, id := range c.TagIDs {
		idPath := fmt.Sprintf("%s.%d", joinPath(path, "tag_ids"), idx)
		if id < 0 {
			return resource.NewConfigValidationError(idPath, errors.Errorf("marker id %d must not be negative", id))
		}
		if prev, ok := seen[id]; ok {
			return resource.NewConfigValidationError(idPath, errors.Errorf("marker id %d already listed at index %d", id, prev))
		}
		seen[id] = idx
	}
	return c.Node.Validate(joinPath(path, "node"))
}

// Validate ensures the node can register and bridge its topics.
func (nc *NodeConfig) Validate(path string) error {
	if nc.Name == "" {
		return resource.NewConfigValidationFieldRequiredError(path, "name")
	}
	if nc.MasterAddress == "" {
		return resource.NewConfigValidationFieldRequiredError(path, "master_address")
	}
	if nc.InputTopic == "" {
		return resource.NewConfigValidationFieldRequiredError(path, "input_topic")
	}
	if nc.OutputTopic == "" {
		return resource.NewConfigValidationFieldRequiredError(path, "output_topic")
	}
	if nc.InputTopic == nc.OutputTopic {
		return resource.NewConfigValidationError(path,
			errors.Errorf("input_topic and output_topic must differ, both are %q", nc.InputTopic))
	}
	return nil
}

func (nc *NodeConfig) fillDefaults() {
	if nc.Name == "" {
		nc.Name = DefaultNodeName
	}
	if nc.MasterAddress == "" {
		nc.MasterAddress = masterAddressFromEnv()
	}
	if nc.InputTopic == "" {
		nc.InputTopic = DefaultInputTopic
	}
	if nc.OutputTopic == "" {
		nc.OutputTopic = DefaultOutputTopic
	}
}

// masterAddressFromEnv turns ROS_MASTER_URI (http://host:port) into host:port.
func masterAddressFromEnv() string {
	uri := os.Getenv(masterURIEnvVar)
	if uri == "" {
		return DefaultMasterAddress
	}
	parsed, err := url.Parse(uri)
	if err != nil || parsed.Host == "" {
		return DefaultMasterAddress
	}
	return parsed.Host
}

// AggregatorConfig returns the centroid settings.
func (c *Config) AggregatorConfig() tagcog.Config {
	mode, err := tagcog.ParseMode(c.Mode)
	if err != nil {
		mode = tagcog.ModeCascade
	}
	return tagcog.Config{TagIDs: c.TagIDs, Mode: mode}
}

// RosNodeConfig returns the node registration settings.
func (c *Config) RosNodeConfig() ros.NodeConfig {
	return ros.NodeConfig{
		Name:          c.Node.Name,
		Namespace:     c.Node.Namespace,
		MasterAddress: c.Node.MasterAddress,
		Host:          c.Node.Host,
		InputTopic:    c.Node.InputTopic,
		OutputTopic:   c.Node.OutputTopic,
	}
}

// ParseTagIDs parses a comma separated list of marker ids. The empty string means
// no allow-list at all.
func ParseTagIDs(list string) ([]int, error) {
	list = strings.TrimSpace(list)
	if list == "" {
		return nil, nil
	}
	parts := strings.Split(list, ",")
	ids := make([]int, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, errors.Wrapf(err, "invalid marker id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func joinPath(path, field string) string {
	if path == "" {
		return field
	}
	return path + "." + field
}
