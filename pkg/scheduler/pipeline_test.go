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
	"os"
	"path/filepath"
	"testing"

	"github.com/opentracing/opentracing-go/mocktracer"
	"gotest.tools/v3/assert"

	"github.com/apache/yunikorn-slurm-adapter/pkg/common"
	"github.com/apache/yunikorn-slurm-adapter/pkg/common/configs"
	"github.com/apache/yunikorn-slurm-adapter/pkg/mock"
	"github.com/apache/yunikorn-slurm-adapter/pkg/trace"
)

const pipelineConfig = `
scheduler:
  partitionsfile: cache/partitions.yaml
  partitionsupdatedays: 1
resolver:
  scopes: [resources, params, toplevel]
options:
  partition: "--partition={}"
  threads: "--cpus-per-task={}"
  mem_mb: "--mem={}"
  runtime: "--time={}"
  log: "--output={} --error={}"
blacklist: [debug]
status:
  maxattempts: 3
`

func newTestPipeline(t *testing.T, runner *mock.Runner, content string) (*Pipeline, *mocktracer.MockTracer) {
	conf, err := configs.LoadAdapterConfigFromByteArray([]byte(content))
	assert.NilError(t, err, "test configuration rejected")
	conf.SetBaseDir(t.TempDir())
	tracer := mocktracer.New()
	return NewPipeline(conf, newTestProxy(runner), &trace.AdapterTracer{Tracer: tracer, Invocation: "test"}), tracer
}

func writeJobScript(t *testing.T, properties string) string {
	path := filepath.Join(t.TempDir(), "snakejob.sh")
	content := "#!/bin/sh\n# properties = " + properties + "\n\necho run\n"
	assert.NilError(t, os.WriteFile(path, []byte(content), 0o755))
	return path
}

func lastCall(runner *mock.Runner) []string {
	calls := runner.Calls()
	return calls[len(calls)-1]
}

func TestPipelineSubmit(t *testing.T) {
	runner := newTestCluster().On("sbatch", "Submitted batch job 4242\n")
	pipeline, tracer := newTestPipeline(t, runner, pipelineConfig)
	script := writeJobScript(t, `{"rule": "align", "threads": 2, "resources": {"mem_mb": 4000, "runtime": "00:30:00"}}`)

	jobID, err := pipeline.Submit(context.Background(), script)
	assert.NilError(t, err, "submission failed")
	assert.Equal(t, jobID, "4242")
	assert.DeepEqual(t, lastCall(runner), []string{
		"sbatch", "--partition=fast", "--cpus-per-task=2", "--mem=4000", "--time=00:30:00", script,
	})
	_, err = os.Stat(filepath.Join(pipeline.conf.BaseDir(), "cache", "partitions.yaml"))
	assert.NilError(t, err, "catalog not persisted")

	spans := tracer.FinishedSpans()
	assert.Assert(t, len(spans) >= 4, "expected spans for every stage")
	root := spans[len(spans)-1]
	assert.Equal(t, root.OperationName, trace.SubmitLevel)
	assert.Equal(t, root.Tag(trace.StateKey), "submitted")
	assert.Equal(t, root.Tag(trace.InfoKey), "4242")
}

func TestPipelineSubmitBlacklisted(t *testing.T) {
	runner := newTestCluster().On("sbatch", "Submitted batch job 1\n")
	pipeline, _ := newTestPipeline(t, runner, pipelineConfig)
	// debug would be the best match but is blacklisted
	script := writeJobScript(t, `{"threads": 1, "resources": {"mem_mb": 100}}`)
	_, err := pipeline.Submit(context.Background(), script)
	assert.NilError(t, err)
	assert.Equal(t, lastCall(runner)[1], "--partition=fast")
}

func TestPipelineSubmitWithoutMatching(t *testing.T) {
	runner := mock.NewRunner().On("sbatch", "Submitted batch job 77\n")
	pipeline, _ := newTestPipeline(t, runner, pipelineConfig)
	pipeline.conf.Scheduler.PartitionMatching = false
	script := writeJobScript(t, `{"params": {"partition": "anything"}, "threads": 64}`)

	jobID, err := pipeline.Submit(context.Background(), script)
	assert.NilError(t, err)
	assert.Equal(t, jobID, "77")
	assert.DeepEqual(t, lastCall(runner), []string{"sbatch", "--partition=anything", "--cpus-per-task=64", script})
	assert.Equal(t, runner.CallCount("sinfo"), 0, "catalog must not be touched")
}

func TestPipelineSubmitErrors(t *testing.T) {
	tests := []struct {
		name       string
		properties string
		sbatch     mock.Response
		sentinel   error
		submitted  bool
	}{
		{"unknown partition", `{"params": {"partition": "chem"}}`, mock.Response{Output: "Submitted batch job 1"}, common.ErrorUnknownPartition, false},
		{"no partition", `{"threads": 1000}`, mock.Response{Output: "Submitted batch job 1"}, common.ErrorNoSuitablePartition, false},
		{"bad threads", `{"threads": "many"}`, mock.Response{Output: "Submitted batch job 1"}, common.ErrorParse, false},
		{"sbatch fails", `{}`, mock.Response{Output: "", Err: errors.New("exit status 1")}, common.ErrorSubmission, true},
		{"sbatch response", `{}`, mock.Response{Output: "sbatch: error: invalid partition"}, common.ErrorSubmission, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := newTestCluster().OnError("sbatch", tt.sbatch.Output, tt.sbatch.Err)
			pipeline, _ := newTestPipeline(t, runner, pipelineConfig)
			_, err := pipeline.Submit(context.Background(), writeJobScript(t, tt.properties))
			assert.Assert(t, errors.Is(err, tt.sentinel), "unexpected error %v", err)
			assert.Equal(t, runner.CallCount("sbatch") == 1, tt.submitted)
		})
	}
}

func TestPipelineSubmitNoProperties(t *testing.T) {
	runner := newTestCluster()
	pipeline, _ := newTestPipeline(t, runner, pipelineConfig)
	path := filepath.Join(t.TempDir(), "plain.sh")
	assert.NilError(t, os.WriteFile(path, []byte("#!/bin/sh\necho hi\n"), 0o755))
	_, err := pipeline.Submit(context.Background(), path)
	assert.Assert(t, errors.Is(err, common.ErrorParse))
	_, err = pipeline.Submit(context.Background(), filepath.Join(t.TempDir(), "missing.sh"))
	assert.Assert(t, errors.Is(err, common.ErrorParse))
	assert.Equal(t, len(runner.Calls()), 0)
}

func TestPipelineCatalog(t *testing.T) {
	runner := newTestCluster()
	pipeline, _ := newTestPipeline(t, runner, pipelineConfig)
	catalog, err := pipeline.Catalog(context.Background(), false)
	assert.NilError(t, err)
	assert.DeepEqual(t, catalog.GetPartitionNames(), []string{"fast", "normal"})
	_, err = pipeline.Catalog(context.Background(), true)
	assert.NilError(t, err)
	assert.Equal(t, runner.CallCount("sinfo"), 2)
}

func TestPipelineStatus(t *testing.T) {
	runner := mock.NewRunner().On("sacct -nbPj 4242", "4242|COMPLETED|0:0\n")
	pipeline, tracer := newTestPipeline(t, runner, pipelineConfig)
	outcome, err := pipeline.Status(context.Background(), " 4242 ")
	assert.NilError(t, err)
	assert.Equal(t, outcome, OutcomeSuccess)
	spans := tracer.FinishedSpans()
	assert.Equal(t, len(spans), 1)
	assert.Equal(t, spans[0].Tag(trace.StateKey), OutcomeSuccess)

	for _, id := range []string{"", "abc", "0", "-3", "12a"} {
		_, err = pipeline.Status(context.Background(), id)
		assert.Assert(t, errors.Is(err, common.ErrorParse), "job id %q", id)
	}
	assert.Equal(t, runner.CallCount("sacct"), 1)

	// failing queries are an outcome, not an error
	runner = mock.NewRunner().OnError("sacct", "", errors.New("down"))
	pipeline, _ = newTestPipeline(t, runner, pipelineConfig)
	outcome, err = pipeline.Status(context.Background(), "1")
	assert.NilError(t, err)
	assert.Equal(t, outcome, OutcomeFailed)
	assert.Equal(t, runner.CallCount("sacct"), 3)
}
