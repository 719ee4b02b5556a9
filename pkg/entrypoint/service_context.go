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

	"github.com/apache/yunikorn-slurm-adapter/pkg/common/configs"
	"github.com/apache/yunikorn-slurm-adapter/pkg/log"
	"github.com/apache/yunikorn-slurm-adapter/pkg/metrics"
	"github.com/apache/yunikorn-slurm-adapter/pkg/scheduler"
	"github.com/apache/yunikorn-slurm-adapter/pkg/trace"
)

// ServiceContext holds everything one invocation of the adapter uses.
type ServiceContext struct {
	Invocation string
	Config     *configs.AdapterConfig
	Pipeline   *scheduler.Pipeline
	Tracer     *trace.AdapterTracer
}

// StopAll flushes the tracer and exports the metrics of the invocation.
func (s *ServiceContext) StopAll() {
	log.Log(log.Entrypoint).Debug("ServiceContext stop all services",
		zap.String("invocation", s.Invocation))
	s.Tracer.Close()
	if err := metrics.WriteTextfile(s.Config.MetricsFilePath()); err != nil {
		log.Log(log.Entrypoint).Warn("failed to write metrics",
			zap.String("file", s.Config.MetricsFilePath()),
			zap.Error(err))
	}
	if err := log.Log(log.Entrypoint).Sync(); err != nil {
		// stderr cannot always be synced
		log.Log(log.Entrypoint).Debug("log sync failed", zap.Error(err))
	}
}
