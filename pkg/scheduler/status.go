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
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"github.com/apache/yunikorn-slurm-adapter/pkg/common/configs"
	"github.com/apache/yunikorn-slurm-adapter/pkg/log"
	"github.com/apache/yunikorn-slurm-adapter/pkg/metrics"
	"github.com/apache/yunikorn-slurm-adapter/pkg/scheduler/objects"
)

// The job outcomes reported to the workflow engine.
const (
	OutcomeRunning = objects.OutcomeRunning
	OutcomeSuccess = objects.OutcomeSuccess
	OutcomeFailed  = objects.OutcomeFailed
)

// JobStateSource answers the status query of a job.
type JobStateSource interface {
	JobState(ctx context.Context, jobID string) (string, error)
}

// StatusPoller queries the job state until one query succeeds or the attempts are used up.
// One successful query decides the outcome, also when the job is still running.
type StatusPoller struct {
	source      JobStateSource
	maxAttempts int
	interval    time.Duration
}

func NewStatusPoller(source JobStateSource, conf configs.StatusConfig) *StatusPoller {
	attempts := conf.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return &StatusPoller{
		source:      source,
		maxAttempts: attempts,
		interval:    conf.RetryInterval,
	}
}

func (sp *StatusPoller) backOff(ctx context.Context) backoff.BackOff {
	var b backoff.BackOff = &backoff.ZeroBackOff{}
	if sp.interval > 0 {
		b = backoff.NewConstantBackOff(sp.interval)
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(sp.maxAttempts-1)), ctx)
}

// Poll returns the outcome of the job, it never fails: exhausting the attempts is reported
// as a failed job. The job status state machine counts the attempts and decides the outcome.
func (sp *StatusPoller) Poll(ctx context.Context, jobID string) string {
	state := objects.NewJobStatusState(jobID)
	// at most one failure line per second, the rest is summarised
	failures := log.RateLimitedLog(log.Status, time.Second)
	err := backoff.Retry(func() error {
		jobState, err := sp.source.JobState(ctx, jobID)
		if err != nil {
			metrics.GetAdapterMetrics().IncStatusAttempt(metrics.ResultFailed)
			sp.transition(state, jobID, objects.FailAttempt)
			failures.Error("failed status checking attempt",
				zap.String("jobID", jobID),
				zap.Int("attempt", objects.Attempts(state)),
				zap.Int("maxAttempts", sp.maxAttempts),
				zap.Error(err))
			return err
		}
		metrics.GetAdapterMetrics().IncStatusAttempt(metrics.ResultOK)
		sp.transition(state, jobID, objects.ResolveStatus, jobState)
		return nil
	}, sp.backOff(ctx))
	failures.Flush("failed status checking attempts not logged",
		zap.String("jobID", jobID),
		zap.Int("maxAttempts", sp.maxAttempts))

	if state.Is(objects.Querying.String()) {
		log.Log(log.Status).Error("job status unknown, reporting failed",
			zap.String("jobID", jobID),
			zap.Int("attempts", objects.Attempts(state)),
			zap.Error(err))
		sp.transition(state, jobID, objects.ExhaustAttempts)
	}
	outcome, ok := objects.Outcome(state)
	if !ok {
		outcome = OutcomeFailed
	}
	metrics.GetAdapterMetrics().IncStatusOutcome(outcome)
	clusterState, _ := state.Metadata(objects.ClusterStateKey)
	log.Log(log.Status).Debug("job status",
		zap.String("jobID", jobID),
		zap.Any("clusterState", clusterState),
		zap.String("outcome", outcome),
		zap.String("state", state.Current()),
		zap.Int("attempts", objects.Attempts(state)))
	return outcome
}

// transition fires the event, staying in the same state is not an error.
// The bookkeeping must not be skipped when the query context is cancelled.
func (sp *StatusPoller) transition(state *fsm.FSM, jobID string, event objects.JobStatusEvent, args ...interface{}) {
	err := state.Event(context.Background(), event.String(), args...)
	var noTransition fsm.NoTransitionError
	if err != nil && !errors.As(err, &noTransition) {
		log.Log(log.Status).Warn("job status transition failed",
			zap.String("jobID", jobID),
			zap.Stringer("event", event),
			zap.Error(err))
	}
}
