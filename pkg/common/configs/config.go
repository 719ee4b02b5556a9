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
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/apache/yunikorn-slurm-adapter/pkg/common"
	"github.com/apache/yunikorn-slurm-adapter/pkg/log"
)

// Resolution scopes of the job properties.
const (
	ScopeResources = "resources"
	ScopeParams    = "params"
	ScopeTopLevel  = "toplevel"
)

// PartitionOption receives the partition chosen by matching.
const PartitionOption = "partition"

const (
	DefaultMaxAttempts    = 50
	DefaultUpdateDays     = 1.0
	DefaultPartitionsFile = "partitions.yaml"
)

// The adapter configuration:
// - the catalog and matching settings
// - the scope order used to resolve options
// - the ordered option schema mapping option names to argument templates
// - partitions never considered for matching
// - status polling, command overrides, logging, metrics and tracing
type AdapterConfig struct {
	Scheduler SchedulerConfig
	Resolver  ResolverConfig
	Options   OptionSchema
	Blacklist []string       `yaml:",omitempty"`
	Status    StatusConfig
	Commands  CommandsConfig
	Logging   LoggingConfig  `yaml:",omitempty"`
	Metrics   MetricsConfig  `yaml:",omitempty"`
	Tracing   TracingConfig  `yaml:",omitempty"`
	Checksum  string         `yaml:",omitempty"`

	// directory relative paths are resolved against
	baseDir string
}

// Catalog and matching settings.
// A relative partitions file is resolved against the configuration directory.
type SchedulerConfig struct {
	PartitionsFile       string
	PartitionsUpdateDays float64
	PartitionMatching    bool
	CheckGroups          bool `yaml:",omitempty"`
}

type ResolverConfig struct {
	Scopes []string
}

type StatusConfig struct {
	MaxAttempts   int
	RetryInterval time.Duration `yaml:",omitempty"`
}

// Executables used to talk to the cluster, names are looked up in PATH.
type CommandsConfig struct {
	Whoami   string
	Sacctmgr string
	Groups   string
	Sinfo    string
	Scontrol string
	Sbatch   string
	Sacct    string
}

type LoggingConfig struct {
	Level   string            `yaml:",omitempty"`
	Handles map[string]string `yaml:",omitempty"`
}

type MetricsConfig struct {
	Textfile string `yaml:",omitempty"`
}

// TracingConfig selects the jaeger sampler: env reads the JAEGER_* settings,
// const traces every invocation and also logs the spans.
type TracingConfig struct {
	Enabled bool   `yaml:",omitempty"`
	Sampler string `yaml:",omitempty"`
}

const (
	SamplerEnv   = "env"
	SamplerConst = "const"
)

// Option is one entry of the option schema: the name looked up in the job properties and the
// argument template with one or more {} slots.
type Option struct {
	Name     string
	Template string
}

// OptionSchema keeps the options in the order they are defined in the file.
type OptionSchema []Option

func (s *OptionSchema) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("options must be a mapping of option name to template (line %d)", value.Line)
	}
	options := make(OptionSchema, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		key, val := value.Content[i], value.Content[i+1]
		if key.Kind != yaml.ScalarNode || val.Kind != yaml.ScalarNode {
			return fmt.Errorf("option at line %d must map a name to a template string", key.Line)
		}
		options = append(options, Option{Name: key.Value, Template: val.Value})
	}
	*s = options
	return nil
}

func (s OptionSchema) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, opt := range s {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: opt.Name},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: opt.Template})
	}
	return node, nil
}

// Get returns the template for the named option.
func (s OptionSchema) Get(name string) (string, bool) {
	for _, opt := range s {
		if opt.Name == name {
			return opt.Template, true
		}
	}
	return "", false
}

func (sc *SchedulerConfig) UnmarshalYAML(unmarshal func(interface{}) error) error {
	sc.PartitionMatching = true
	sc.PartitionsUpdateDays = DefaultUpdateDays

	type plain SchedulerConfig
	return unmarshal((*plain)(sc))
}

func (st *StatusConfig) UnmarshalYAML(unmarshal func(interface{}) error) error {
	st.MaxAttempts = DefaultMaxAttempts

	type plain StatusConfig
	return unmarshal((*plain)(st))
}

// NewDefaultConfig returns the configuration used for every value the file does not set.
func NewDefaultConfig() *AdapterConfig {
	return &AdapterConfig{
		Scheduler: SchedulerConfig{
			PartitionsFile:       DefaultPartitionsFile,
			PartitionsUpdateDays: DefaultUpdateDays,
			PartitionMatching:    true,
		},
		Resolver: ResolverConfig{
			Scopes: []string{ScopeResources, ScopeParams, ScopeTopLevel},
		},
		Status: StatusConfig{
			MaxAttempts: DefaultMaxAttempts,
		},
		Commands: DefaultCommands(),
	}
}

func DefaultCommands() CommandsConfig {
	return CommandsConfig{
		Whoami:   "whoami",
		Sacctmgr: "sacctmgr",
		Groups:   "groups",
		Sinfo:    "sinfo",
		Scontrol: "scontrol",
		Sbatch:   "sbatch",
		Sacct:    "sacct",
	}
}

// RefreshInterval converts the update days into a duration.
func (c *AdapterConfig) RefreshInterval() time.Duration {
	return time.Duration(c.Scheduler.PartitionsUpdateDays * float64(24*time.Hour))
}

// PartitionsFilePath returns the catalog location, relative paths resolved against the config directory.
func (c *AdapterConfig) PartitionsFilePath() string {
	return c.resolvePath(c.Scheduler.PartitionsFile)
}

// MetricsFilePath returns the metrics textfile location, empty if metrics are not exported.
func (c *AdapterConfig) MetricsFilePath() string {
	if c.Metrics.Textfile == "" {
		return ""
	}
	return c.resolvePath(c.Metrics.Textfile)
}

func (c *AdapterConfig) resolvePath(path string) string {
	if filepath.IsAbs(path) || c.baseDir == "" {
		return path
	}
	return filepath.Join(c.baseDir, path)
}

// BaseDir is the directory the configuration was loaded from, empty for in memory configs.
func (c *AdapterConfig) BaseDir() string {
	return c.baseDir
}

// SetBaseDir changes the directory relative paths are resolved against.
func (c *AdapterConfig) SetBaseDir(dir string) {
	c.baseDir = dir
}

// IsBlacklisted returns true if the partition must never be used.
func (c *AdapterConfig) IsBlacklisted(partition string) bool {
	for _, name := range c.Blacklist {
		if name == partition {
			return true
		}
	}
	return false
}

// Applies the command defaults to overrides left empty.
func (cc *CommandsConfig) applyDefaults() {
	def := DefaultCommands()
	setIfEmpty := func(value *string, fallback string) {
		if strings.TrimSpace(*value) == "" {
			*value = fallback
		}
	}
	setIfEmpty(&cc.Whoami, def.Whoami)
	setIfEmpty(&cc.Sacctmgr, def.Sacctmgr)
	setIfEmpty(&cc.Groups, def.Groups)
	setIfEmpty(&cc.Sinfo, def.Sinfo)
	setIfEmpty(&cc.Scontrol, def.Scontrol)
	setIfEmpty(&cc.Sbatch, def.Sbatch)
	setIfEmpty(&cc.Sacct, def.Sacct)
}

func LoadAdapterConfigFromByteArray(content []byte) (*AdapterConfig, error) {
	conf, err := ParseAndValidateConfig(content)
	if err != nil {
		return nil, err
	}
	// Create a sha256 checksum for this validated config
	SetChecksum(content, conf)
	return conf, nil
}

func SetChecksum(content []byte, conf *AdapterConfig) {
	noChecksumContent := GetConfigurationString(content)
	conf.Checksum = fmt.Sprintf("%X", sha256.Sum256([]byte(noChecksumContent)))
}

func ParseAndValidateConfig(content []byte) (*AdapterConfig, error) {
	conf := NewDefaultConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true) // Enable strict unmarshaling behavior
	err := decoder.Decode(conf)
	if err != nil && !errors.Is(err, io.EOF) { // empty content may have EOF error, skip it
		log.Log(log.Config).Error("failed to parse adapter configuration",
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", common.ErrorConfig, err)
	}
	conf.Commands.applyDefaults()
	// validate the config
	err = Validate(conf)
	if err != nil {
		log.Log(log.Config).Error("adapter configuration validation failed",
			zap.Error(err))
		return nil, err
	}
	return conf, nil
}

// GetConfigurationString removes a checksum line from the content before hashing.
func GetConfigurationString(requestBytes []byte) string {
	conf := string(requestBytes)
	checksum := "checksum: "
	checksumLength := 64 + len(checksum)
	if strings.Contains(conf, checksum) {
		checksum += strings.Split(conf, checksum)[1]
		checksum = strings.TrimRight(checksum, "\n")
		if len(checksum) > checksumLength {
			checksum = checksum[:checksumLength]
		}
	}
	return strings.ReplaceAll(conf, checksum, "")
}

// SampleAdapterConfig is a complete configuration to start from, printed by the sampleconfig command.
var SampleAdapterConfig = `
scheduler:
  partitionsfile: partitions.yaml
  partitionsupdatedays: 1
  partitionmatching: true
resolver:
  scopes: [resources, params, toplevel]
options:
  partition: "--partition={}"
  threads: "--cpus-per-task={}"
  mem_mb: "--mem={}"
  runtime: "--time={}"
  log: "--output={} --error={}"
status:
  maxattempts: 50
`
