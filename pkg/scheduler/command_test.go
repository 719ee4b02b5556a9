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
	"encoding/json"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/apache/yunikorn-slurm-adapter/pkg/common/configs"
	"github.com/apache/yunikorn-slurm-adapter/pkg/common/resources"
)

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  string
	}{
		{"nil", nil, ""},
		{"string", "normal", "normal"},
		{"number", json.Number("2048"), "2048"},
		{"int", 4, "4"},
		{"int64", int64(-1), "-1"},
		{"uint64", uint64(7), "7"},
		{"integral float", 16.0, "16"},
		{"float", 1.5, "1.5"},
		{"bool", true, "true"},
		{"list", []interface{}{"a", json.Number("1")}, "a,1"},
		{"strings", []string{"x", "y"}, "x,y"},
		{"stringer", resources.Duration(93784), "1-02:03:04"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, FormatValue(tt.value), tt.want)
		})
	}
}

func TestGenerateCommand(t *testing.T) {
	options := configs.OptionSchema{
		{Name: "partition", Template: "--partition={}"},
		{Name: "threads", Template: "--cpus-per-task={}"},
		{Name: "mem_mb", Template: "--mem={}"},
		{Name: "log", Template: "--output={} --error={}"},
		{Name: "name", Template: "-J {}"},
	}
	settings := NewSettings()
	settings.Set("log", []interface{}{"logs/my job.log"})
	settings.Set("threads", json.Number("4"))
	settings.Set("partition", "normal")
	settings.Set("unused", "ignored")

	argv := GenerateCommand("sbatch", options, settings, "/tmp/job.sh")
	assert.DeepEqual(t, argv, []string{
		"sbatch",
		"--partition=normal",
		"--cpus-per-task=4",
		"--output=logs/my job.log",
		"--error=logs/my job.log",
		"/tmp/job.sh",
	})

	argv = GenerateCommand("sbatch", options, NewSettings(), "job.sh")
	assert.DeepEqual(t, argv, []string{"sbatch", "job.sh"})

	settings = NewSettings()
	settings.Set("name", "rule_a")
	argv = GenerateCommand("/opt/slurm/bin/sbatch", options, settings, "job.sh")
	assert.DeepEqual(t, argv, []string{"/opt/slurm/bin/sbatch", "-J", "rule_a", "job.sh"})
}

func TestGenerateCommandRepeatedSlot(t *testing.T) {
	options := configs.OptionSchema{{Name: "tag", Template: "--comment={}-{}"}}
	settings := NewSettings()
	settings.Set("tag", "x")
	argv := GenerateCommand("sbatch", options, settings, "job.sh")
	assert.DeepEqual(t, argv, []string{"sbatch", "--comment=x-x", "job.sh"})
}
