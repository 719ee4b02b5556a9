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

package scheduler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/apache/yunikorn-slurm-adapter/pkg/common"
	"github.com/apache/yunikorn-slurm-adapter/pkg/common/configs"
	"github.com/apache/yunikorn-slurm-adapter/pkg/log"
	"github.com/apache/yunikorn-slurm-adapter/pkg/scheduler/objects"
)

// Option names with a meaning beyond rendering the command line.
const (
	OptionPartition = configs.PartitionOption
	OptionThreads   = "threads"
	OptionMemory    = "memory"
	OptionMemMB     = "mem_mb"
	OptionRuntime   = "runtime"
	OptionLog       = "log"
)

// Settings are the resolved options of one submission.
// Values are kept as found in the job properties, consumers convert them.
type Settings struct {
	names  []string
	values map[string]interface{}
}

func NewSettings() *Settings {
	return &Settings{
		values: make(map[string]interface{}),
	}
}

// Set stores the value, a nil value removes the option.
func (s *Settings) Set(name string, value interface{}) {
	if value == nil {
		if _, ok := s.values[name]; ok {
			delete(s.values, name)
			for i, n := range s.names {
				if n == name {
					s.names = append(s.names[:i], s.names[i+1:]...)
					break
				}
			}
		}
		return
	}
	if _, ok := s.values[name]; !ok {
		s.names = append(s.names, name)
	}
	s.values[name] = value
}

func (s *Settings) Get(name string) (interface{}, bool) {
	value, ok := s.values[name]
	return value, ok
}

// Names returns the resolved option names in resolution order.
func (s *Settings) Names() []string {
	return append([]string(nil), s.names...)
}

func (s *Settings) Len() int {
	return len(s.names)
}

func (s *Settings) String() string {
	parts := make([]string, 0, len(s.names))
	for _, name := range s.names {
		parts = append(parts, name+"="+FormatValue(s.values[name]))
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// SettingsResolver searches the job property scopes for every option of the schema.
type SettingsResolver struct {
	options configs.OptionSchema
	scopes  []string
}

func NewSettingsResolver(conf *configs.AdapterConfig) *SettingsResolver {
	return &SettingsResolver{
		options: conf.Options,
		scopes:  conf.Resolver.Scopes,
	}
}

// Resolve takes for every option the first present value following the scope order.
// The log option is reduced to its first path and the directory of that path is created.
func (sr *SettingsResolver) Resolve(props *objects.JobProperties) (*Settings, error) {
	settings := NewSettings()
	for _, option := range sr.options {
		value, scope := sr.lookup(props, option.Name)
		if value == nil {
			continue
		}
		if option.Name == OptionLog {
			path, err := prepareLog(value)
			if err != nil {
				return nil, err
			}
			value = []interface{}{path}
		}
		log.Log(log.Settings).Debug("resolved option",
			zap.String("option", option.Name),
			zap.String("scope", scope),
			zap.Any("value", value))
		settings.Set(option.Name, value)
	}
	return settings, nil
}

func (sr *SettingsResolver) lookup(props *objects.JobProperties, name string) (interface{}, string) {
	for _, scope := range sr.scopes {
		var values map[string]interface{}
		switch scope {
		case configs.ScopeResources:
			values = props.Resources
		case configs.ScopeParams:
			values = props.Params
		case configs.ScopeTopLevel:
			values = props.TopLevel
		}
		if value, ok := values[name]; ok && !isAbsent(value) {
			return value, scope
		}
	}
	return nil, ""
}

// isAbsent treats empty strings, sequences and mappings as not set.
func isAbsent(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []interface{}:
		return len(v) == 0
	case map[string]interface{}:
		return len(v) == 0
	}
	return false
}

// prepareLog returns the first log path and creates its directory.
func prepareLog(value interface{}) (string, error) {
	if list, ok := value.([]interface{}); ok {
		value = list[0]
	}
	path := FormatValue(value)
	if path == "" {
		return "", fmt.Errorf("%w: empty log path", common.ErrorParse)
	}
	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return "", fmt.Errorf("%w: cannot resolve log directory of %s: %v", common.ErrorSubmission, path, err)
	}
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: cannot create log directory: %v", common.ErrorSubmission, err)
	}
	return path, nil
}
