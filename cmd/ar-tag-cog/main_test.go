package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/rdk/logging"
	"go.viam.com/test"

	"github.com/viamrobotics/ar-tag-cog/config"
	"github.com/viamrobotics/ar-tag-cog/tagcog"
)

func TestMainWithArgsErrors(t *testing.T) {
	t.Setenv("ROS_MASTER_URI", "")
	logger := logging.NewTestLogger(t)

	for _, tc := range []struct {
		name string
		args []string
		err  string
	}{
		{"unknown named arg", []string{"main", "--unknown"}, "not defined"},
		{"bad summary flag", []string{"main", "--summary=who"}, "parse"},
		{"bad tag ids", []string{"main", "--tag-ids=1,x"}, "invalid marker id"},
		{"bad mode", []string{"main", "--mode=median"}, "median"},
		{"missing config", []string{"main", "--config=" + filepath.Join(t.TempDir(), "nope.json")}, "failed to read config file"},
		{"missing bag", []string{"main", "--bag=" + filepath.Join(t.TempDir(), "nope.bag")}, "unable to open input file"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := mainWithArgs(context.Background(), tc.args, logger)
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, err.Error(), test.ShouldContainSubstring, tc.err)
		})
	}
}

func TestResolveConfig(t *testing.T) {
	t.Setenv("ROS_MASTER_URI", "")

	cfg, err := resolveConfig(Arguments{})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.TagIDs, test.ShouldBeNil)
	test.That(t, cfg.AggregatorConfig().Mode, test.ShouldEqual, tagcog.ModeCascade)
	test.That(t, cfg.Node.MasterAddress, test.ShouldEqual, config.DefaultMasterAddress)

	path := filepath.Join(t.TempDir(), "cog.json")
	err = os.WriteFile(path, []byte(`{"tag_ids": [1], "mode": "mean", "node": {"master_address": "a:1"}}`), 0o600)
	test.That(t, err, test.ShouldBeNil)

	cfg, err = resolveConfig(Arguments{ConfigFile: path})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.TagIDs, test.ShouldResemble, []int{1})
	test.That(t, cfg.Mode, test.ShouldEqual, "mean")
	test.That(t, cfg.Node.MasterAddress, test.ShouldEqual, "a:1")

	cfg, err = resolveConfig(Arguments{ConfigFile: path, TagIDs: "2,3", Mode: "cascade", Master: "b:2"})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.TagIDs, test.ShouldResemble, []int{2, 3})
	test.That(t, cfg.Mode, test.ShouldEqual, "cascade")
	test.That(t, cfg.Node.MasterAddress, test.ShouldEqual, "b:2")
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	writeSummary(&buf, tagcog.Stats{Batches: 4, Published: 3})
	out := buf.String()
	test.That(t, out, test.ShouldContainSubstring, "COUNTER")
	test.That(t, out, test.ShouldContainSubstring, "poses published")
	test.That(t, out, test.ShouldContainSubstring, "3")
}
