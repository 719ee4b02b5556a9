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

package objects

import (
	"context"
	"errors"

	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"github.com/apache/yunikorn-slurm-adapter/pkg/log"
)

// The job outcomes reported to the workflow engine.
const (
	OutcomeRunning = "running"
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
)

var jobStateOutcomes = map[string]string{
	"BOOT_FAIL":     OutcomeFailed,
	"CANCELLED":     OutcomeFailed,
	"COMPLETED":     OutcomeSuccess,
	"CONFIGURING":   OutcomeRunning,
	"COMPLETING":    OutcomeRunning,
	"DEADLINE":      OutcomeFailed,
	"FAILED":        OutcomeFailed,
	"NODE_FAIL":     OutcomeFailed,
	"OUT_OF_MEMORY": OutcomeFailed,
	"PENDING":       OutcomeRunning,
	"PREEMPTED":     OutcomeFailed,
	"RUNNING":       OutcomeRunning,
	"RESV_DEL_HOLD": OutcomeRunning,
	"REQUEUE_FED":   OutcomeFailed,
	"REQUEUE_HOLD":  OutcomeFailed,
	"REQUEUED":      OutcomeFailed,
	"RESIZING":      OutcomeFailed,
	"REVOKED":       OutcomeFailed,
	"SIGNALING":     OutcomeFailed,
	"SPECIAL_EXIT":  OutcomeFailed,
	"STAGE_OUT":     OutcomeFailed,
	"STOPPED":       OutcomeFailed,
	"SUSPENDED":     OutcomeFailed,
	"TIMEOUT":       OutcomeFailed,
}

// MapJobState translates a cluster job state. Unknown states are failed, the flag reports
// if the state was known.
func MapJobState(state string) (string, bool) {
	outcome, ok := jobStateOutcomes[state]
	if !ok {
		return OutcomeFailed, false
	}
	return outcome, true
}

// ----------------------------------
// job status events
// ----------------------------------
type JobStatusEvent int

const (
	FailAttempt JobStatusEvent = iota
	ResolveStatus
	ExhaustAttempts
)

func (je JobStatusEvent) String() string {
	return [...]string{"FailAttempt", "ResolveStatus", "ExhaustAttempts"}[je]
}

// ----------------------------------
// job status states
// ----------------------------------
type JobStatusState int

const (
	Querying JobStatusState = iota
	Resolved
	Exhausted
)

func (js JobStatusState) String() string {
	return [...]string{"Querying", "Resolved", "Exhausted"}[js]
}

// Metadata kept on the state machine.
const (
	AttemptsKey     = "attempts"
	OutcomeKey      = "outcome"
	ClusterStateKey = "clusterState"
)

// NewJobStatusState returns the status poller state machine for one job.
// FailAttempt stays in Querying and counts the attempt, ResolveStatus takes the cluster state
// as its argument and maps it, ExhaustAttempts ends the polling as failed.
// The outcome is only set once the machine left Querying.
func NewJobStatusState(jobID string) *fsm.FSM {
	return fsm.NewFSM(
		Querying.String(), fsm.Events{
			{
				Name: FailAttempt.String(),
				Src:  []string{Querying.String()},
				Dst:  Querying.String(),
			}, {
				Name: ResolveStatus.String(),
				Src:  []string{Querying.String()},
				Dst:  Resolved.String(),
			}, {
				Name: ExhaustAttempts.String(),
				Src:  []string{Querying.String()},
				Dst:  Exhausted.String(),
			},
		},
		fsm.Callbacks{
			"before_" + FailAttempt.String(): func(_ context.Context, event *fsm.Event) {
				countAttempt(event.FSM)
			},
			"before_" + ResolveStatus.String(): func(_ context.Context, event *fsm.Event) {
				clusterState, ok := firstArg(event)
				if !ok {
					event.Cancel(errors.New("cluster state missing"))
					return
				}
				countAttempt(event.FSM)
				event.FSM.SetMetadata(ClusterStateKey, clusterState)
			},
			"enter_" + Resolved.String(): func(_ context.Context, event *fsm.Event) {
				clusterState, _ := firstArg(event)
				outcome, known := MapJobState(clusterState)
				if !known {
					log.Log(log.Status).Error("unknown job state, reporting failed",
						zap.String("jobID", jobID),
						zap.String("state", clusterState))
				}
				event.FSM.SetMetadata(OutcomeKey, outcome)
			},
			"enter_" + Exhausted.String(): func(_ context.Context, event *fsm.Event) {
				event.FSM.SetMetadata(OutcomeKey, OutcomeFailed)
			},
			"enter_state": func(_ context.Context, event *fsm.Event) {
				log.Log(log.Status).Debug("job status transition",
					zap.String("jobID", jobID),
					zap.String("source", event.Src),
					zap.String("destination", event.Dst),
					zap.String("event", event.Event))
			},
		},
	)
}

func firstArg(event *fsm.Event) (string, bool) {
	if len(event.Args) == 0 {
		return "", false
	}
	value, ok := event.Args[0].(string)
	return value, ok
}

func countAttempt(state *fsm.FSM) {
	state.SetMetadata(AttemptsKey, Attempts(state)+1)
}

// Attempts returns the number of status queries counted so far.
func Attempts(state *fsm.FSM) int {
	if value, ok := state.Metadata(AttemptsKey); ok {
		if attempts, ok := value.(int); ok {
			return attempts
		}
	}
	return 0
}

// Outcome returns the outcome decided by the state machine, false while still querying.
func Outcome(state *fsm.FSM) (string, bool) {
	if value, ok := state.Metadata(OutcomeKey); ok {
		if outcome, ok := value.(string); ok {
			return outcome, true
		}
	}
	return "", false
}
