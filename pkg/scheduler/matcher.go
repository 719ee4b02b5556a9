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
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/apache/yunikorn-slurm-adapter/pkg/common"
	"github.com/apache/yunikorn-slurm-adapter/pkg/common/resources"
	"github.com/apache/yunikorn-slurm-adapter/pkg/log"
	"github.com/apache/yunikorn-slurm-adapter/pkg/metrics"
	"github.com/apache/yunikorn-slurm-adapter/pkg/scheduler/objects"
)

// the resource demand of one job, only resolved options are set
type jobRequest struct {
	cpus       *resources.Resource
	memory     *resources.Resource
	runtime    resources.Duration
	hasRuntime bool
}

func newJobRequest(settings *Settings) (*jobRequest, error) {
	req := &jobRequest{
		cpus:   resources.NewResource(),
		memory: resources.NewResource(),
	}
	if value, ok := settings.Get(OptionThreads); ok {
		q, err := resources.QuantityFromValue(value)
		if err != nil {
			return nil, fmt.Errorf("option %s: %w", OptionThreads, err)
		}
		req.cpus.Resources[resources.CPUS] = q
	}
	// both memory options compare against the partition memory, the larger request decides
	for _, name := range []string{OptionMemory, OptionMemMB} {
		if value, ok := settings.Get(name); ok {
			q, err := resources.QuantityFromValue(value)
			if err != nil {
				return nil, fmt.Errorf("option %s: %w", name, err)
			}
			req.memory = resources.ComponentWiseMax(req.memory, resources.NewResourceFromMap(map[string]resources.Quantity{resources.MEMORY: q}))
		}
	}
	if value, ok := settings.Get(OptionRuntime); ok {
		runtime, err := ParseRuntime(value)
		if err != nil {
			return nil, fmt.Errorf("option %s: %w", OptionRuntime, err)
		}
		req.runtime = runtime
		req.hasRuntime = true
	}
	return req, nil
}

// ParseRuntime converts a requested runtime. Time strings use the cluster format, plain
// integers, also when encoded as a string, are minutes.
func ParseRuntime(value interface{}) (resources.Duration, error) {
	if s, ok := value.(string); ok {
		if _, err := resources.ParseQuantity(s); err != nil {
			return resources.ParseDuration(s)
		}
	}
	minutes, err := resources.QuantityFromValue(value)
	if err != nil {
		return 0, err
	}
	if minutes < 0 {
		return 0, fmt.Errorf("%w: negative runtime '%v'", common.ErrorParse, value)
	}
	if int64(minutes) > math.MaxInt64/60 {
		return 0, fmt.Errorf("%w: runtime '%v' overflows", common.ErrorParse, value)
	}
	return resources.Duration(int64(minutes) * 60), nil
}

// unsuitable returns why the partition cannot run the job, empty if it can.
func (req *jobRequest) unsuitable(p *objects.Partition) string {
	if !p.IsUp() {
		return "partition is not up"
	}
	if !resources.FitIn(p.Capacity, req.cpus) {
		return "not enough cpus"
	}
	if !resources.FitIn(p.Capacity, req.memory) {
		return "not enough memory"
	}
	if req.hasRuntime && req.runtime > 0 && (!p.HasTimeLimit() || req.runtime > p.TimeLimit) {
		return "runtime exceeds time limit"
	}
	return ""
}

// MatchPartition selects the partition for the job.
// A partition named in the settings only has to exist in the catalog. Otherwise the catalog
// is scanned in priority tier order and the first partition that is up and can hold the
// requested cpus, memory and runtime is returned.
func MatchPartition(settings *Settings, catalog *objects.PartitionCollection) (string, error) {
	defer metrics.GetAdapterMetrics().ObserveMatchLatency(time.Now())
	if value, ok := settings.Get(OptionPartition); ok {
		name := FormatValue(value)
		if catalog.GetPartition(name) == nil {
			return "", fmt.Errorf("%w: partition <%s> specified by user was not found", common.ErrorUnknownPartition, name)
		}
		log.Log(log.Matcher).Info("using partition specified by user",
			zap.String("partition", name))
		return name, nil
	}
	req, err := newJobRequest(settings)
	if err != nil {
		return "", err
	}
	var selected string
	catalog.ForEachPartition(func(p *objects.Partition) bool {
		if reason := req.unsuitable(p); reason != "" {
			log.Log(log.Matcher).Debug("partition unsuitable",
				zap.String("partition", p.Name),
				zap.String("reason", reason))
			return true
		}
		selected = p.Name
		return false
	})
	if selected == "" {
		return "", fmt.Errorf("%w: no partition was found to satisfy resources requirements %s", common.ErrorNoSuitablePartition, settings)
	}
	log.Log(log.Matcher).Info("partition selected",
		zap.String("partition", selected))
	return selected, nil
}
