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

package rmproxy

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/apache/yunikorn-slurm-adapter/pkg/common"
	"github.com/apache/yunikorn-slurm-adapter/pkg/common/configs"
	"github.com/apache/yunikorn-slurm-adapter/pkg/log"
	"github.com/apache/yunikorn-slurm-adapter/pkg/metrics"
)

// Gateway to talk to the cluster manager through its command line tools.
type RMProxy struct {
	runner   Runner
	commands configs.CommandsConfig
}

func NewRMProxy(runner Runner, commands configs.CommandsConfig) *RMProxy {
	return &RMProxy{
		runner:   runner,
		commands: commands,
	}
}

func (rmp *RMProxy) run(ctx context.Context, argv ...string) ([]byte, error) {
	start := time.Now()
	out, err := rmp.runner.Run(ctx, argv)
	metrics.GetAdapterMetrics().ObserveCommandLatency(filepath.Base(argv[0]), start)
	if log.IsDebugEnabled(log.RMProxy) {
		log.Log(log.RMProxy).Debug("cluster command",
			zap.String("command", strings.Join(argv, " ")),
			zap.Int("outputBytes", len(out)),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
	}
	return out, err
}

// Whoami returns the invoking user.
func (rmp *RMProxy) Whoami(ctx context.Context) (string, error) {
	out, err := rmp.run(ctx, rmp.commands.Whoami)
	if err != nil {
		return "", err
	}
	return ParseUserResponse(out)
}

// Account returns the cluster account of the user.
func (rmp *RMProxy) Account(ctx context.Context, userName string) (string, error) {
	out, err := rmp.run(ctx, rmp.commands.Sacctmgr, "-Pn", "show", "user", userName)
	if err != nil {
		return "", err
	}
	return ParseAccountResponse(out)
}

// Groups returns the group memberships of the user.
func (rmp *RMProxy) Groups(ctx context.Context, userName string) ([]string, error) {
	out, err := rmp.run(ctx, rmp.commands.Groups, userName)
	if err != nil {
		return nil, err
	}
	return ParseGroupsResponse(out), nil
}

// PartitionTable returns one row per partition node configuration.
func (rmp *RMProxy) PartitionTable(ctx context.Context) ([]PartitionRow, error) {
	out, err := rmp.run(ctx, rmp.commands.Sinfo, "--noconvert", "-eO", PartitionFormat)
	if err != nil {
		return nil, err
	}
	return ParsePartitionTable(out)
}

// PartitionSettings returns the raw Key=Value settings of the partition.
func (rmp *RMProxy) PartitionSettings(ctx context.Context, partition string) (string, error) {
	out, err := rmp.run(ctx, rmp.commands.Scontrol, "show", "partition", partition)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// SubmitCommand is the base of the submission command line.
func (rmp *RMProxy) SubmitCommand() string {
	return rmp.commands.Sbatch
}

// Submit runs the complete submission command line once and returns the job id.
func (rmp *RMProxy) Submit(ctx context.Context, argv []string) (string, error) {
	if len(argv) == 0 {
		return "", fmt.Errorf("%w: empty submission command", common.ErrorSubmission)
	}
	out, err := rmp.run(ctx, argv...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorSubmission, err)
	}
	jobID, err := ParseSubmitResponse(out)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorSubmission, err)
	}
	return jobID, nil
}

// JobState returns the cluster state of the job.
func (rmp *RMProxy) JobState(ctx context.Context, jobID string) (string, error) {
	out, err := rmp.run(ctx, rmp.commands.Sacct, "-nbPj", jobID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorStatusQuery, err)
	}
	state, err := ParseStatusResponse(out)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorStatusQuery, err)
	}
	return state, nil
}
