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

package trace

import (
	"context"
	"fmt"
	"io"

	"github.com/opentracing/opentracing-go"
	"github.com/uber/jaeger-client-go"
	jaegercfg "github.com/uber/jaeger-client-go/config"
	jaegerzap "github.com/uber/jaeger-client-go/log/zap"
	"github.com/uber/jaeger-lib/metrics"
	"go.uber.org/zap"

	"github.com/apache/yunikorn-slurm-adapter/pkg/common/configs"
	"github.com/apache/yunikorn-slurm-adapter/pkg/log"
)

const (
	LevelKey      = "level"
	PhaseKey      = "phase"
	NameKey       = "name"
	StateKey      = "state"
	InfoKey       = "info"
	InvocationKey = "invocation"

	SubmitLevel  = "submit"
	StatusLevel  = "status"
	CatalogLevel = "catalog"

	ResolvePhase = "resolve"
	MatchPhase   = "match"
	RunPhase     = "run"
	LoadPhase    = "load"
	RebuildPhase = "rebuild"
	QueryPhase   = "query"

	ServiceName = "slurm-adapter"
)

// AdapterTracer creates the spans of one invocation.
type AdapterTracer struct {
	Tracer     opentracing.Tracer
	Closer     io.Closer
	Invocation string
}

// NewAdapterTracer returns a jaeger backed tracer when enabled and a noop tracer otherwise.
func NewAdapterTracer(conf configs.TracingConfig, invocation string) (*AdapterTracer, error) {
	if !conf.Enabled {
		return &AdapterTracer{Tracer: opentracing.NoopTracer{}, Invocation: invocation}, nil
	}
	tracer, closer, err := newJaegerTracer(conf.Sampler)
	if err != nil {
		return nil, err
	}
	log.Log(log.Trace).Debug("tracer created",
		zap.String("invocation", invocation),
		zap.String("sampler", conf.Sampler))
	return &AdapterTracer{Tracer: tracer, Closer: closer, Invocation: invocation}, nil
}

// newJaegerTracer starts from the JAEGER_* environment. The const sampler overrides the
// environment sampling and logs every span through the trace logger.
func newJaegerTracer(sampler string) (opentracing.Tracer, io.Closer, error) {
	cfg, err := jaegercfg.FromEnv()
	if err != nil {
		return nil, nil, fmt.Errorf("jaeger environment: %w", err)
	}
	cfg.ServiceName = ServiceName
	if sampler == configs.SamplerConst {
		cfg.Sampler = &jaegercfg.SamplerConfig{Type: jaeger.SamplerTypeConst, Param: 1}
		if cfg.Reporter == nil {
			cfg.Reporter = &jaegercfg.ReporterConfig{}
		}
		cfg.Reporter.LogSpans = true
	}
	return cfg.NewTracer(
		jaegercfg.Logger(jaegerzap.NewLogger(log.Log(log.Trace))),
		jaegercfg.Metrics(metrics.NullFactory),
	)
}

// StartSpan starts a span as a child of the span in the context, if any.
// The level is required, phase and name are set as tags when not empty.
func (t *AdapterTracer) StartSpan(ctx context.Context, level, phase, name string) (opentracing.Span, context.Context) {
	tracer := opentracing.Tracer(opentracing.NoopTracer{})
	if t != nil && t.Tracer != nil {
		tracer = t.Tracer
	}
	operation := level
	if phase != "" {
		operation = level + "/" + phase
	}
	span, spanCtx := opentracing.StartSpanFromContextWithTracer(ctx, tracer, operation)
	span.SetTag(LevelKey, level)
	if phase != "" {
		span.SetTag(PhaseKey, phase)
	}
	if name != "" {
		span.SetTag(NameKey, name)
	}
	if t != nil && t.Invocation != "" {
		span.SetTag(InvocationKey, t.Invocation)
	}
	return span, spanCtx
}

// Close flushes the reporter.
func (t *AdapterTracer) Close() {
	if t != nil && t.Closer != nil {
		if err := t.Closer.Close(); err != nil {
			log.Log(log.Trace).Warn("failed to close tracer", zap.Error(err))
		}
	}
}

// FinishSpan sets the result tags and finishes the span.
func FinishSpan(span opentracing.Span, state, info string) {
	if span == nil {
		return
	}
	if state != "" {
		span.SetTag(StateKey, state)
	}
	if info != "" {
		span.SetTag(InfoKey, info)
	}
	span.Finish()
}
