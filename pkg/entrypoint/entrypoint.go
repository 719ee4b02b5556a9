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

package entrypoint

import (
	"go.uber.org/zap"

	"github.com/apache/yunikorn-slurm-adapter/pkg/common"
	"github.com/apache/yunikorn-slurm-adapter/pkg/common/configs"
	"github.com/apache/yunikorn-slurm-adapter/pkg/log"
	"github.com/apache/yunikorn-slurm-adapter/pkg/rmproxy"
	"github.com/apache/yunikorn-slurm-adapter/pkg/scheduler"
	"github.com/apache/yunikorn-slurm-adapter/pkg/trace"
)

// options used to control how one invocation is set up
type startupOptions struct {
	configPath string
	runner     rmproxy.Runner
}

// StartAllServices sets up one invocation talking to the real cluster commands.
// An empty config path falls back to the environment and the file next to the executable.
func StartAllServices(configPath string) (*ServiceContext, error) {
	log.Log(log.Entrypoint).Debug("ServiceContext start all services")
	return startAllServicesWithParameters(
		startupOptions{
			configPath: configPath,
			runner:     rmproxy.NewOSRunner(),
		})
}

// VisibleForTesting
func StartAllServicesWithRunner(configPath string, runner rmproxy.Runner) (*ServiceContext, error) {
	log.Log(log.Entrypoint).Debug("ServiceContext start all services (custom runner)")
	return startAllServicesWithParameters(
		startupOptions{
			configPath: configPath,
			runner:     runner,
		})
}

func StartAllServicesWithLogger(logger *zap.Logger, zapConfigs *zap.Config, configPath string) (*ServiceContext, error) {
	log.InitializeLogger(logger, zapConfigs)
	return StartAllServices(configPath)
}

func startAllServicesWithParameters(opts startupOptions) (*ServiceContext, error) {
	invocation := common.GetNewUUID()
	path, err := configs.ResolveConfigPath(opts.configPath)
	if err != nil {
		return nil, err
	}
	conf, err := configs.LoadAdapterConfig(path)
	if err != nil {
		return nil, err
	}
	if err = log.UpdateLoggingConfig(conf.Logging.Level, conf.Logging.Handles); err != nil {
		return nil, err
	}
	tracer, err := trace.NewAdapterTracer(conf.Tracing, invocation)
	if err != nil {
		log.Log(log.Entrypoint).Warn("tracing disabled, tracer creation failed",
			zap.Error(err))
		tracer, _ = trace.NewAdapterTracer(configs.TracingConfig{}, invocation)
	}
	proxy := rmproxy.NewRMProxy(opts.runner, conf.Commands)

	log.Log(log.Entrypoint).Info("adapter invocation started",
		zap.String("invocation", invocation),
		zap.String("configFile", path),
		zap.String("checksum", conf.Checksum))
	return &ServiceContext{
		Invocation: invocation,
		Config:     conf,
		Pipeline:   scheduler.NewPipeline(conf, proxy, tracer),
		Tracer:     tracer,
	}, nil
}
