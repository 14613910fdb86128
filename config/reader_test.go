package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.viam.com/test"

	"github.com/viamrobotics/ar-tag-cog/tagcog"
)

func TestFromReaderValidate(t *testing.T) {
	t.Setenv(masterURIEnvVar, "")

	_, err := FromReader("somepath", strings.NewReader(""))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "EOF")

	_, err = FromReader("somepath", strings.NewReader(`{"tag_ids": "1,2"}`))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "unmarshal")

	_, err = FromReader("somepath", strings.NewReader(`{"cloud": {}}`))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "unknown field")

	conf, err := FromReader("somepath", strings.NewReader(`{}`))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, conf, test.ShouldResemble, &Config{
		ConfigFilePath: "somepath",
		Mode:           "cascade",
		Node: NodeConfig{
			Name:          DefaultNodeName,
			MasterAddress: DefaultMasterAddress,
			InputTopic:    DefaultInputTopic,
			OutputTopic:   DefaultOutputTopic,
		},
	})
	test.That(t, conf.TagIDs, test.ShouldBeNil)

	conf, err = FromReader("somepath", strings.NewReader(`{"tag_ids": []}`))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, conf.TagIDs, test.ShouldNotBeNil)
	test.That(t, conf.TagIDs, test.ShouldBeEmpty)

	_, err = FromReader("somepath", strings.NewReader(`{"mode": "median"}`))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "mode")
	test.That(t, err.Error(), test.ShouldContainSubstring, "median")

	_, err = FromReader("somepath", strings.NewReader(`{"tag_ids": [1, 2, 1]}`))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "tag_ids.2")
	test.That(t, err.Error(), test.ShouldContainSubstring, "already listed at index 0")

	_, err = FromReader("somepath", strings.NewReader(`{"tag_ids": [-4]}`))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "must not be negative")

	_, err = FromReader("somepath", strings.NewReader(`{"node": {"input_topic": "markers", "output_topic": "markers"}}`))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "must differ")

	conf, err = FromReader("somepath", strings.NewReader(`{
		"tag_ids": [3, 4],
		"mode": "mean",
		"node": {"name": "cog", "namespace": "/robot", "master_address": "master:11311", "output_topic": "cog_pose"}
	}`))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, conf.TagIDs, test.ShouldResemble, []int{3, 4})
	test.That(t, conf.AggregatorConfig(), test.ShouldResemble, tagcog.Config{TagIDs: []int{3, 4}, Mode: tagcog.ModeMean})
	test.That(t, conf.Node.InputTopic, test.ShouldEqual, DefaultInputTopic)

	nodeConf := conf.RosNodeConfig()
	test.That(t, nodeConf.Name, test.ShouldEqual, "cog")
	test.That(t, nodeConf.Namespace, test.ShouldEqual, "/robot")
	test.That(t, nodeConf.MasterAddress, test.ShouldEqual, "master:11311")
	test.That(t, nodeConf.OutputTopic, test.ShouldEqual, "cog_pose")
}

func TestRead(t *testing.T) {
	t.Setenv(masterURIEnvVar, "")
	t.Setenv("COG_TEST_MASTER", "10.0.0.5:11311")

	path := filepath.Join(t.TempDir(), "cog.json")
	err := os.WriteFile(path, []byte(`{"node": {"master_address": "${COG_TEST_MASTER}"}}`), 0o600)
	test.That(t, err, test.ShouldBeNil)

	conf, err := Read(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, conf.ConfigFilePath, test.ShouldEqual, path)
	test.That(t, conf.Node.MasterAddress, test.ShouldEqual, "10.0.0.5:11311")

	_, err = Read(filepath.Join(t.TempDir(), "missing.json"))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "failed to read config file")
}

func TestMasterAddressFromEnv(t *testing.T) {
	t.Setenv(masterURIEnvVar, "http://robot.local:11312/")
	test.That(t, Default().Node.MasterAddress, test.ShouldEqual, "robot.local:11312")

	t.Setenv(masterURIEnvVar, "not a uri")
	test.That(t, Default().Node.MasterAddress, test.ShouldEqual, DefaultMasterAddress)

	t.Setenv(masterURIEnvVar, "")
	test.That(t, Default().Node.MasterAddress, test.ShouldEqual, DefaultMasterAddress)
}

func TestParseTagIDs(t *testing.T) {
	ids, err := ParseTagIDs("")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ids, test.ShouldBeNil)

	ids, err = ParseTagIDs(" 1, 2 ,3")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ids, test.ShouldResemble, []int{1, 2, 3})

	_, err = ParseTagIDs("1,two")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `"two"`)
}
