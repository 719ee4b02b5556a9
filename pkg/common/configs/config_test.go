/*
 Licensed to the Apache Software Foundation (ASF) under one
 or more contributor license agreements.  See the NOTICE file
 distributed with this work for additional information
 regarding copyright ownership.  The ASF licenses this file
 to you under the Apache License, Version 2.0 (the
 "License"); you may not use this file except in compliance
 with the License.  You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package configs

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
	"gotest.tools/v3/assert"

	"github.com/apache/yunikorn-slurm-adapter/pkg/common"
)

const fullConfig = `
scheduler:
  partitionsfile: cache/partitions.yaml
  partitionsupdatedays: 0.5
  partitionmatching: false
  checkgroups: true
resolver:
  scopes: [toplevel, params]
options:
  runtime: "--time={}"
  partition: "--partition={}"
  log: "--output={} --error={}"
blacklist: [debug, gpu-test]
status:
  maxattempts: 5
  retryinterval: 2s
commands:
  sbatch: /opt/slurm/bin/sbatch
logging:
  level: warn
  handles:
    catalog: debug
metrics:
  textfile: /tmp/adapter.prom
tracing:
  enabled: true
  sampler: const
`

func TestLoadFullConfig(t *testing.T) {
	conf, err := LoadAdapterConfigFromByteArray([]byte(fullConfig))
	assert.NilError(t, err, "full config parse failed")
	assert.Equal(t, conf.Scheduler.PartitionsFile, "cache/partitions.yaml")
	assert.Equal(t, conf.RefreshInterval(), 12*time.Hour)
	assert.Equal(t, conf.Scheduler.PartitionMatching, false)
	assert.Equal(t, conf.Scheduler.CheckGroups, true)
	assert.DeepEqual(t, conf.Resolver.Scopes, []string{ScopeTopLevel, ScopeParams})
	// file order is kept
	assert.DeepEqual(t, conf.Options, OptionSchema{
		{Name: "runtime", Template: "--time={}"},
		{Name: "partition", Template: "--partition={}"},
		{Name: "log", Template: "--output={} --error={}"},
	})
	assert.Assert(t, conf.IsBlacklisted("gpu-test"))
	assert.Assert(t, !conf.IsBlacklisted("normal"))
	assert.Equal(t, conf.Status.MaxAttempts, 5)
	assert.Equal(t, conf.Status.RetryInterval, 2*time.Second)
	assert.Equal(t, conf.Commands.Sbatch, "/opt/slurm/bin/sbatch")
	assert.Equal(t, conf.Commands.Sacct, "sacct", "empty override must fall back to the default")
	assert.Equal(t, conf.Logging.Level, "warn")
	assert.Equal(t, conf.Logging.Handles["catalog"], "debug")
	assert.Equal(t, conf.Metrics.Textfile, "/tmp/adapter.prom")
	assert.Equal(t, conf.Tracing.Enabled, true)
	assert.Equal(t, conf.Tracing.Sampler, SamplerConst)
	assert.Equal(t, len(conf.Checksum), 64)
}

func TestDefaults(t *testing.T) {
	conf, err := LoadAdapterConfigFromByteArray([]byte(`
scheduler:
  partitionsfile: parts.yaml
options:
  partition: "--partition={}"
  threads: "--cpus-per-task={}"
`))
	assert.NilError(t, err)
	assert.Equal(t, conf.Scheduler.PartitionMatching, true)
	assert.Equal(t, conf.RefreshInterval(), 24*time.Hour)
	assert.Equal(t, conf.Status.MaxAttempts, DefaultMaxAttempts)
	assert.Equal(t, conf.Status.RetryInterval, time.Duration(0))
	assert.DeepEqual(t, conf.Resolver.Scopes, []string{ScopeResources, ScopeParams, ScopeTopLevel})
	assert.DeepEqual(t, conf.Commands, DefaultCommands())

	// a status section without attempts keeps the default
	conf, err = LoadAdapterConfigFromByteArray([]byte(`
status:
  retryinterval: 1s
options:
  partition: "--partition={}"
`))
	assert.NilError(t, err)
	assert.Equal(t, conf.Status.MaxAttempts, DefaultMaxAttempts)
	assert.Equal(t, conf.Scheduler.PartitionsFile, DefaultPartitionsFile)

	conf, err = LoadAdapterConfigFromByteArray([]byte(SampleAdapterConfig))
	assert.NilError(t, err, "built in default must be valid")
	assert.Equal(t, len(conf.Options), 5)
}

func TestParseConfigFail(t *testing.T) {
	tests := map[string]struct {
		content string
		err     string
	}{
		"unknown field": {content: "options:\n  a: b\nunknown: 1\n", err: "field unknown not found"},
		"no options":    {content: "scheduler:\n  partitionsfile: p.yaml\n", err: "at least one option"},
		"options list":  {content: "options: [a, b]\n", err: "mapping of option name"},
		"option nested": {content: "options:\n  a: {b: c}\n", err: "template string"},
		"empty template": {content: "options:\n  a: \"\"\n", err: "empty template"},
		"bad name":      {content: "options:\n  \"a b\": x\n", err: "invalid option name"},
		"duplicate":     {content: "options:\n  a: x\n  a: y\n", err: "duplicate option"},
		"no file":       {content: "scheduler:\n  partitionsfile: \"\"\noptions:\n  a: x\n", err: "partitions file must be set"},
		"negative days": {content: "scheduler:\n  partitionsupdatedays: -1\noptions:\n  a: x\n", err: "cannot be negative"},
		"bad scope":     {content: "resolver:\n  scopes: [wildcards]\noptions:\n  a: x\n", err: "unknown resolver scope"},
		"dup scope":     {content: "resolver:\n  scopes: [params, params]\noptions:\n  a: x\n", err: "duplicate resolver scope"},
		"no scope":      {content: "resolver:\n  scopes: []\noptions:\n  a: x\n", err: "at least one resolver scope"},
		"zero attempts": {content: "status:\n  maxattempts: 0\noptions:\n  a: x\n", err: "at least 1"},
		"neg interval":  {content: "status:\n  retryinterval: -1s\noptions:\n  a: x\n", err: "cannot be negative"},
		"bad level":     {content: "logging:\n  level: loud\noptions:\n  a: x\n", err: "invalid log level"},
		"bad handle":    {content: "logging:\n  handles: {nothing: info}\noptions:\n  a: x\n", err: "unknown logger handle"},
		"no partition":  {content: "scheduler:\n  partitionmatching: true\noptions:\n  threads: x\n", err: "partition matching needs"},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			conf, err := LoadAdapterConfigFromByteArray([]byte(test.content))
			assert.ErrorContains(t, err, test.err)
			assert.Assert(t, errors.Is(err, common.ErrorConfig), "config error not wrapped: %v", err)
			assert.Assert(t, conf == nil)
		})
	}
}

func TestOptionSchemaMarshal(t *testing.T) {
	schema := OptionSchema{
		{Name: "threads", Template: "--cpus-per-task={}"},
		{Name: "account", Template: "--account={}"},
	}
	out, err := yaml.Marshal(map[string]OptionSchema{"options": schema})
	assert.NilError(t, err)
	assert.Assert(t, strings.Index(string(out), "threads") < strings.Index(string(out), "account"), "order lost: %s", out)
	var back map[string]OptionSchema
	assert.NilError(t, yaml.Unmarshal(out, &back))
	assert.DeepEqual(t, back["options"], schema)
	tmpl, ok := schema.Get("account")
	assert.Assert(t, ok)
	assert.Equal(t, tmpl, "--account={}")
	_, ok = schema.Get("partition")
	assert.Assert(t, !ok)
}

func TestChecksum(t *testing.T) {
	conf1, err := LoadAdapterConfigFromByteArray([]byte(SampleAdapterConfig))
	assert.NilError(t, err)
	withChecksum := SampleAdapterConfig + "checksum: " + conf1.Checksum
	conf2, err := LoadAdapterConfigFromByteArray([]byte(withChecksum))
	assert.NilError(t, err)
	assert.Equal(t, conf1.Checksum, conf2.Checksum, "checksum line must not change the checksum")
}

func TestPartitionsFilePath(t *testing.T) {
	conf := NewDefaultConfig()
	assert.Equal(t, conf.PartitionsFilePath(), DefaultPartitionsFile)
	conf.SetBaseDir("/etc/adapter")
	assert.Equal(t, conf.PartitionsFilePath(), filepath.Join("/etc/adapter", DefaultPartitionsFile))
	conf.Scheduler.PartitionsFile = "/var/cache/partitions.yaml"
	assert.Equal(t, conf.PartitionsFilePath(), "/var/cache/partitions.yaml")
}

func TestMetricsFilePath(t *testing.T) {
	conf := NewDefaultConfig()
	assert.Equal(t, conf.MetricsFilePath(), "")
	conf.SetBaseDir("/etc/adapter")
	assert.Equal(t, conf.MetricsFilePath(), "")
	conf.Metrics.Textfile = "adapter.prom"
	assert.Equal(t, conf.MetricsFilePath(), filepath.Join("/etc/adapter", "adapter.prom"))
	conf.Metrics.Textfile = "/var/lib/node_exporter/adapter.prom"
	assert.Equal(t, conf.MetricsFilePath(), "/var/lib/node_exporter/adapter.prom")
}

func TestLoadAdapterConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultConfigFile)
	assert.NilError(t, os.WriteFile(path, []byte(fullConfig), 0o600))
	conf, err := LoadAdapterConfig(path)
	assert.NilError(t, err)
	assert.Equal(t, conf.BaseDir(), dir)
	assert.Equal(t, conf.PartitionsFilePath(), filepath.Join(dir, "cache", "partitions.yaml"))

	_, err = LoadAdapterConfig(filepath.Join(dir, "missing.yaml"))
	assert.Assert(t, errors.Is(err, common.ErrorConfig))

	_, err = LoadAdapterConfig("")
	assert.Assert(t, errors.Is(err, common.ErrorConfig), "missing configuration must be a config error: %v", err)
}

func TestResolveConfigPath(t *testing.T) {
	dir := t.TempDir()
	explicit := filepath.Join(dir, "explicit.yaml")
	fromEnv := filepath.Join(dir, "env.yaml")
	assert.NilError(t, os.WriteFile(explicit, []byte(SampleAdapterConfig), 0o600))
	assert.NilError(t, os.WriteFile(fromEnv, []byte(SampleAdapterConfig), 0o600))

	t.Setenv(ConfigPathEnv, fromEnv)
	path, err := ResolveConfigPath(explicit)
	assert.NilError(t, err)
	assert.Equal(t, path, explicit, "explicit path must win")
	path, err = ResolveConfigPath("")
	assert.NilError(t, err)
	assert.Equal(t, path, fromEnv)

	_, err = ResolveConfigPath(filepath.Join(dir, "nope.yaml"))
	assert.Assert(t, errors.Is(err, common.ErrorConfig))
	t.Setenv(ConfigPathEnv, filepath.Join(dir, "nope.yaml"))
	_, err = ResolveConfigPath("")
	assert.ErrorContains(t, err, ConfigPathEnv)

	// nothing next to the test binary either
	t.Setenv(ConfigPathEnv, "")
	path, err = ResolveConfigPath("")
	assert.Assert(t, errors.Is(err, common.ErrorConfig), "no configuration found must fail: %v", err)
	assert.ErrorContains(t, err, "no configuration file found")
	assert.Equal(t, path, "")
}
