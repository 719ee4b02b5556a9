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
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/apache/yunikorn-slurm-adapter/pkg/common"
	"github.com/apache/yunikorn-slurm-adapter/pkg/common/configs"
	"github.com/apache/yunikorn-slurm-adapter/pkg/common/resources"
	"github.com/apache/yunikorn-slurm-adapter/pkg/log"
	"github.com/apache/yunikorn-slurm-adapter/pkg/metrics"
	"github.com/apache/yunikorn-slurm-adapter/pkg/scheduler/objects"
	"github.com/apache/yunikorn-slurm-adapter/pkg/trace"
)

// Pipeline runs the adapter operations of one invocation.
type Pipeline struct {
	conf     *configs.AdapterConfig
	proxy    ClusterProxy
	tracer   *trace.AdapterTracer
	catalog  *CatalogBuilder
	resolver *SettingsResolver
	poller   *StatusPoller
}

func NewPipeline(conf *configs.AdapterConfig, proxy ClusterProxy, tracer *trace.AdapterTracer) *Pipeline {
	return &Pipeline{
		conf:     conf,
		proxy:    proxy,
		tracer:   tracer,
		catalog:  NewCatalogBuilder(conf, proxy),
		resolver: NewSettingsResolver(conf),
		poller:   NewStatusPoller(proxy, conf.Status),
	}
}

// Submit resolves the settings of the job script, selects the partition when matching is
// enabled and submits the job once. The cluster job id is returned.
func (p *Pipeline) Submit(ctx context.Context, jobScript string) (string, error) {
	span, ctx := p.tracer.StartSpan(ctx, trace.SubmitLevel, "", jobScript)
	jobID, err := p.submit(ctx, jobScript)
	if err != nil {
		result := metrics.ResultFailed
		if errors.Is(err, common.ErrorNoSuitablePartition) || errors.Is(err, common.ErrorUnknownPartition) {
			result = metrics.ResultRejected
		}
		metrics.GetAdapterMetrics().IncSubmission(result)
		trace.FinishSpan(span, result, err.Error())
		return "", err
	}
	metrics.GetAdapterMetrics().IncSubmission(metrics.ResultSubmitted)
	trace.FinishSpan(span, metrics.ResultSubmitted, jobID)
	return jobID, nil
}

func (p *Pipeline) submit(ctx context.Context, jobScript string) (string, error) {
	span, _ := p.tracer.StartSpan(ctx, trace.SubmitLevel, trace.ResolvePhase, "")
	props, err := objects.ReadJobProperties(jobScript)
	if err != nil {
		trace.FinishSpan(span, metrics.ResultFailed, err.Error())
		return "", err
	}
	settings, err := p.resolver.Resolve(props)
	if err != nil {
		trace.FinishSpan(span, metrics.ResultFailed, err.Error())
		return "", err
	}
	trace.FinishSpan(span, metrics.ResultOK, settings.String())

	if p.conf.Scheduler.PartitionMatching {
		catalog, err := p.Catalog(ctx, false)
		if err != nil {
			return "", err
		}
		span, _ = p.tracer.StartSpan(ctx, trace.SubmitLevel, trace.MatchPhase, "")
		partition, err := MatchPartition(settings, catalog)
		if err != nil {
			log.Log(log.Matcher).Error("partition matching failed", zap.Error(err))
			trace.FinishSpan(span, metrics.ResultRejected, err.Error())
			return "", err
		}
		trace.FinishSpan(span, metrics.ResultOK, partition)
		settings.Set(OptionPartition, partition)
	}

	argv := GenerateCommand(p.proxy.SubmitCommand(), p.conf.Options, settings, jobScript)
	log.Log(log.Submit).Info("submitting job",
		zap.String("jobScript", jobScript),
		zap.Strings("command", argv))
	span, _ = p.tracer.StartSpan(ctx, trace.SubmitLevel, trace.RunPhase, "")
	jobID, err := p.proxy.Submit(ctx, argv)
	if err != nil {
		trace.FinishSpan(span, metrics.ResultFailed, err.Error())
		return "", err
	}
	trace.FinishSpan(span, metrics.ResultSubmitted, jobID)
	log.Log(log.Submit).Info("job submitted",
		zap.String("jobScript", jobScript),
		zap.String("jobID", jobID))
	return jobID, nil
}

// Catalog returns the filtered partition catalog, rebuilding it when stale or when forced.
func (p *Pipeline) Catalog(ctx context.Context, refresh bool) (*objects.PartitionCollection, error) {
	phase := trace.LoadPhase
	if refresh {
		phase = trace.RebuildPhase
	}
	span, ctx := p.tracer.StartSpan(ctx, trace.CatalogLevel, phase, p.conf.PartitionsFilePath())
	catalog, err := p.catalog.Load(ctx, refresh)
	if err != nil {
		trace.FinishSpan(span, metrics.ResultFailed, err.Error())
		return nil, err
	}
	trace.FinishSpan(span, metrics.ResultOK, fmt.Sprintf("%d partitions", catalog.Len()))
	return catalog, nil
}

// Status reports the outcome of the job. Only a malformed job id is an error, failing
// status queries are reported as a failed job.
func (p *Pipeline) Status(ctx context.Context, jobID string) (string, error) {
	id, err := resources.ParseQuantity(jobID)
	if err != nil || id <= 0 {
		return "", fmt.Errorf("%w: invalid job id '%s'", common.ErrorParse, jobID)
	}
	span, ctx := p.tracer.StartSpan(ctx, trace.StatusLevel, trace.QueryPhase, id.String())
	outcome := p.poller.Poll(ctx, id.String())
	trace.FinishSpan(span, outcome, "")
	return outcome, nil
}
