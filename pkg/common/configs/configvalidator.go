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
	"fmt"
	"regexp"
	"strings"

	"github.com/apache/yunikorn-slurm-adapter/pkg/common"
	"github.com/apache/yunikorn-slurm-adapter/pkg/log"
)

// Option names are looked up as keys in the job properties.
var OptionNameRegExp = regexp.MustCompile("^[a-zA-Z_][a-zA-Z0-9_]*$")

func checkOptions(options OptionSchema) error {
	if len(options) == 0 {
		return fmt.Errorf("at least one option must be defined")
	}
	seen := make(map[string]bool, len(options))
	for _, opt := range options {
		if !OptionNameRegExp.MatchString(opt.Name) {
			return fmt.Errorf("invalid option name '%s'", opt.Name)
		}
		if seen[opt.Name] {
			return fmt.Errorf("duplicate option '%s'", opt.Name)
		}
		seen[opt.Name] = true
		if strings.TrimSpace(opt.Template) == "" {
			return fmt.Errorf("option '%s' has an empty template", opt.Name)
		}
	}
	return nil
}

func checkScheduler(sched SchedulerConfig) error {
	if strings.TrimSpace(sched.PartitionsFile) == "" {
		return fmt.Errorf("partitions file must be set")
	}
	if sched.PartitionsUpdateDays < 0 {
		return fmt.Errorf("partitions update days cannot be negative: %v", sched.PartitionsUpdateDays)
	}
	return nil
}

func checkScopes(scopes []string) error {
	if len(scopes) == 0 {
		return fmt.Errorf("at least one resolver scope must be defined")
	}
	seen := make(map[string]bool, len(scopes))
	for _, scope := range scopes {
		switch scope {
		case ScopeResources, ScopeParams, ScopeTopLevel:
		default:
			return fmt.Errorf("unknown resolver scope '%s'", scope)
		}
		if seen[scope] {
			return fmt.Errorf("duplicate resolver scope '%s'", scope)
		}
		seen[scope] = true
	}
	return nil
}

// matching only has an effect if the chosen partition can be passed on
func checkMatching(sched SchedulerConfig, options OptionSchema) error {
	if !sched.PartitionMatching {
		return nil
	}
	if _, ok := options.Get(PartitionOption); !ok {
		return fmt.Errorf("partition matching needs a '%s' option to pass the matched partition on", PartitionOption)
	}
	return nil
}

func checkStatus(status StatusConfig) error {
	if status.MaxAttempts < 1 {
		return fmt.Errorf("status max attempts must be at least 1: %d", status.MaxAttempts)
	}
	if status.RetryInterval < 0 {
		return fmt.Errorf("status retry interval cannot be negative: %v", status.RetryInterval)
	}
	return nil
}

func checkLogging(logging LoggingConfig) error {
	if logging.Level != "" {
		if err := log.ParseLevel(logging.Level); err != nil {
			return err
		}
	}
	for name, level := range logging.Handles {
		if err := log.CheckHandleName(name); err != nil {
			return err
		}
		if err := log.ParseLevel(level); err != nil {
			return fmt.Errorf("logger handle %s: %w", name, err)
		}
	}
	return nil
}

func checkTracing(tracing TracingConfig) error {
	switch tracing.Sampler {
	case "", SamplerEnv, SamplerConst:
		return nil
	default:
		return fmt.Errorf("unknown tracing sampler '%s'", tracing.Sampler)
	}
}

// Check the adapter configuration.
// All errors wrap common.ErrorConfig.
func Validate(newConfig *AdapterConfig) error {
	if newConfig == nil {
		return fmt.Errorf("%w: adapter config is not set", common.ErrorConfig)
	}
	checks := []func() error{
		func() error { return checkScheduler(newConfig.Scheduler) },
		func() error { return checkScopes(newConfig.Resolver.Scopes) },
		func() error { return checkOptions(newConfig.Options) },
		func() error { return checkStatus(newConfig.Status) },
		func() error { return checkLogging(newConfig.Logging) },
		func() error { return checkTracing(newConfig.Tracing) },
		func() error { return checkMatching(newConfig.Scheduler, newConfig.Options) },
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return fmt.Errorf("%w: %v", common.ErrorConfig, err)
		}
	}
	return nil
}
