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

	"github.com/apache/yunikorn-slurm-adapter/pkg/common/security"
	"github.com/apache/yunikorn-slurm-adapter/pkg/rmproxy"
)

// ClusterProxy is everything the pipeline asks the cluster manager.
type ClusterProxy interface {
	security.IdentitySource
	PartitionTable(ctx context.Context) ([]rmproxy.PartitionRow, error)
	PartitionSettings(ctx context.Context, partition string) (string, error)
	SubmitCommand() string
	Submit(ctx context.Context, argv []string) (string, error)
	JobState(ctx context.Context, jobID string) (string, error)
}

var _ ClusterProxy = &rmproxy.RMProxy{}
