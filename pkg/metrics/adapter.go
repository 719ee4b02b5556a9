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

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/apache/yunikorn-slurm-adapter/pkg/log"
)

// Label values used by the adapter.
const (
	ResultSubmitted = "submitted"
	ResultRejected  = "rejected"
	ResultFailed    = "failed"
	ResultOK        = "ok"
	ResultRebuilt   = "rebuilt"
	ResultCached    = "cached"
)

// AdapterMetrics to declare the metrics of one adapter invocation
type AdapterMetrics struct {
	submission        *prometheus.CounterVec
	statusOutcome     *prometheus.CounterVec
	statusAttempt     *prometheus.CounterVec
	catalogLoad       *prometheus.CounterVec
	catalogPartitions prometheus.Gauge
	commandLatency    *prometheus.HistogramVec
	matchLatency      prometheus.Histogram
}

// InitAdapterMetrics to initialize the adapter metrics
func InitAdapterMetrics() *AdapterMetrics {
	s := &AdapterMetrics{}

	s.submission = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubmitSubsystem,
			Name:      "job_submission_total",
			Help:      "Total number of job submissions. Result of the submission includes `submitted`, `rejected` and `failed`.",
		}, []string{"result"})

	s.statusOutcome = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: StatusSubsystem,
			Name:      "outcome_total",
			Help:      "Total number of reported job states. Outcome includes `running`, `success` and `failed`.",
		}, []string{"outcome"})

	s.statusAttempt = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: StatusSubsystem,
			Name:      "query_attempt_total",
			Help:      "Total number of status query attempts. Result of the attempt includes `ok` and `failed`.",
		}, []string{"result"})

	s.catalogLoad = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: CatalogSubsystem,
			Name:      "load_total",
			Help:      "Total number of partition catalog loads. Result of the load includes `cached`, `rebuilt` and `failed`.",
		}, []string{"result"})

	s.catalogPartitions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: CatalogSubsystem,
			Name:      "partitions",
			Help:      "Number of partitions in the loaded catalog after filtering.",
		})

	s.commandLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: ClusterSubsystem,
			Name:      "command_latency_seconds",
			Help:      "Latency of the cluster commands, in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8), // start from 1ms
		}, []string{"command"})

	s.matchLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: SubmitSubsystem,
			Name:      "partition_matching_latency_seconds",
			Help:      "Latency of the partition matching, in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 10, 6),
		})

	// Register the metrics
	var metricsList = []prometheus.Collector{
		s.submission,
		s.statusOutcome,
		s.statusAttempt,
		s.catalogLoad,
		s.catalogPartitions,
		s.commandLatency,
		s.matchLatency,
	}
	for _, metric := range metricsList {
		if err := prometheus.Register(metric); err != nil {
			log.Log(log.Metrics).Warn("failed to register metrics collector", zap.Error(err))
		}
	}
	return s
}

func (m *AdapterMetrics) Reset() {
	m.submission.Reset()
	m.statusOutcome.Reset()
	m.statusAttempt.Reset()
	m.catalogLoad.Reset()
	m.catalogPartitions.Set(0)
	m.commandLatency.Reset()
}

func SinceInSeconds(start time.Time) float64 {
	return time.Since(start).Seconds()
}

func (m *AdapterMetrics) IncSubmission(result string) {
	m.submission.With(prometheus.Labels{"result": result}).Inc()
}

func (m *AdapterMetrics) IncStatusOutcome(outcome string) {
	m.statusOutcome.With(prometheus.Labels{"outcome": outcome}).Inc()
}

func (m *AdapterMetrics) IncStatusAttempt(result string) {
	m.statusAttempt.With(prometheus.Labels{"result": result}).Inc()
}

func (m *AdapterMetrics) IncCatalogLoad(result string) {
	m.catalogLoad.With(prometheus.Labels{"result": result}).Inc()
}

func (m *AdapterMetrics) SetCatalogPartitions(count int) {
	m.catalogPartitions.Set(float64(count))
}

func (m *AdapterMetrics) ObserveCommandLatency(command string, start time.Time) {
	m.commandLatency.With(prometheus.Labels{"command": command}).Observe(SinceInSeconds(start))
}

func (m *AdapterMetrics) ObserveMatchLatency(start time.Time) {
	m.matchLatency.Observe(SinceInSeconds(start))
}
