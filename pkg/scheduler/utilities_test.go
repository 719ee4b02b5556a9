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
	"testing"

	"gotest.tools/v3/assert"

	"github.com/apache/yunikorn-slurm-adapter/pkg/common/configs"
	"github.com/apache/yunikorn-slurm-adapter/pkg/mock"
	"github.com/apache/yunikorn-slurm-adapter/pkg/rmproxy"
	"github.com/apache/yunikorn-slurm-adapter/pkg/scheduler/objects"
)

const (
	testUser = "testuser"

	partitionTable = `PARTITION           CPUS   MEMORY    TIMELIMIT    MAXCPUSPERNODE   GROUPS   AVAIL   PRIO_TIER
normal              8      16000     1:00:00      UNLIMITED        all      up      5
normal              4      32000     2:00:00      UNLIMITED        all      up      5
fast                4      8000      2:00:00      UNLIMITED        all      up      9
debug               2      1000      infinite     UNLIMITED        all      up      20
chem                64     256000    7-00:00:00   UNLIMITED        all      up      30
broken              128    512000    infinite     UNLIMITED        all      up      50
`
	normalSettings = `PartitionName=normal
   AllowGroups=ALL AllowAccounts=ALL AllowQos=ALL
   MaxTime=01:00:00 PriorityTier=5
`
	fastSettings = `PartitionName=fast
   AllowGroups=gpu AllowAccounts=ALL AllowQos=ALL
   MaxTime=02:00:00 PriorityTier=9
`
	debugSettings = `PartitionName=debug
   AllowGroups=ALL AllowAccounts=physics,biology AllowQos=ALL
   MaxTime=UNLIMITED PriorityTier=20
`
	chemSettings = `PartitionName=chem
   AllowGroups=ALL AllowAccounts=chemistry AllowQos=ALL
   MaxTime=7-00:00:00 PriorityTier=30
`
	brokenSettings = `PartitionName=broken
   AllowGroups=ALL AllowAccounts=ALL
`
)

// newTestCluster scripts a cluster with five partitions for a user in account physics.
func newTestCluster() *mock.Runner {
	return newScriptedCluster(nil)
}

// newScriptedCluster replaces the scripted answer of the given command lines.
func newScriptedCluster(overrides map[string]mock.Response) *mock.Runner {
	script := []struct {
		key    string
		output string
	}{
		{"whoami", testUser + "\n"},
		{"sacctmgr -Pn show user " + testUser, testUser + "|physics|None\n"},
		{"groups " + testUser, testUser + " : users physics\n"},
		{"sinfo", partitionTable},
		{"scontrol show partition normal", normalSettings},
		{"scontrol show partition fast", fastSettings},
		{"scontrol show partition debug", debugSettings},
		{"scontrol show partition chem", chemSettings},
		{"scontrol show partition broken", brokenSettings},
	}
	runner := mock.NewRunner()
	for _, line := range script {
		if resp, ok := overrides[line.key]; ok {
			runner.OnError(line.key, resp.Output, resp.Err)
			continue
		}
		runner.On(line.key, line.output)
	}
	return runner
}

func newTestProxy(runner rmproxy.Runner) *rmproxy.RMProxy {
	return rmproxy.NewRMProxy(runner, configs.DefaultCommands())
}

// newTestConfig returns the default configuration with the catalog in a temporary directory.
func newTestConfig(t *testing.T) *configs.AdapterConfig {
	conf, err := configs.LoadAdapterConfigFromByteArray([]byte(configs.SampleAdapterConfig))
	assert.NilError(t, err, "default configuration rejected")
	conf.SetBaseDir(t.TempDir())
	return conf
}

// newPartition builds a partition from one table row.
func newPartition(name string, cpus, memory, limit, avail, tier string) *objects.Partition {
	p := objects.NewPartition(name)
	p.Fold(map[string]string{
		rmproxy.ColumnPartition: name,
		rmproxy.ColumnCPUs:      cpus,
		rmproxy.ColumnMemory:    memory,
		rmproxy.ColumnTimeLimit: limit,
		rmproxy.ColumnAvail:     avail,
		rmproxy.ColumnPrioTier:  tier,
	})
	return p
}

func newCatalog(partitions ...*objects.Partition) *objects.PartitionCollection {
	catalog := objects.NewPartitionCollection()
	for _, p := range partitions {
		catalog.AddPartition(p)
	}
	return catalog
}
