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

package resources

import (
	"errors"
	"testing"

	"gopkg.in/yaml.v3"
	"gotest.tools/v3/assert"

	"github.com/apache/yunikorn-slurm-adapter/pkg/common"
)

func TestParseDuration(t *testing.T) {
	tests := map[string]struct {
		input string
		secs  Duration
		err   bool
	}{
		"hms":             {input: "01:00:00", secs: 3600},
		"days":            {input: "1-02:03:04", secs: 93784},
		"zero":            {input: "00:00:00", secs: 0},
		"zero days":       {input: "0-00:00:01", secs: 1},
		"long":            {input: "14-00:00:00", secs: 14 * 86400},
		"large fields":    {input: "00:90:00", secs: 5400},
		"spaces":          {input: " 2:00:00 ", secs: 7200},
		"infinite":        {input: "infinite", secs: Unbounded},
		"unlimited":       {input: "UNLIMITED", secs: Unbounded},
		"infinite mixed":  {input: "Infinite", secs: Unbounded},
		"empty":           {input: "", err: true},
		"two fields":      {input: "10:00", err: true},
		"four fields":     {input: "1:2:3:4", err: true},
		"letters":         {input: "ab:cd:ef", err: true},
		"negative":        {input: "-01:00:00", err: true},
		"days only":       {input: "3-", err: true},
		"double dash":     {input: "1-2-03:00:00", err: true},
		"empty field":     {input: "01::00", err: true},
		"signed field":    {input: "+1:00:00", err: true},
		"days overflow":   {input: "99999999999999999-00:00:00", err: true},
		"hours overflow":  {input: "9223372036854775807:00:00", err: true},
		"partial keyword": {input: "infinity", err: true},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			result, err := ParseDuration(test.input)
			if test.err {
				assert.Assert(t, errors.Is(err, common.ErrorParse), "expected parse error for %q, got %v", test.input, err)
				return
			}
			assert.NilError(t, err)
			assert.Equal(t, result, test.secs)
		})
	}
}

func TestDurationString(t *testing.T) {
	assert.Equal(t, Duration(93784).String(), "1-02:03:04")
	assert.Equal(t, Duration(3600).String(), "01:00:00")
	assert.Equal(t, Duration(0).String(), "00:00:00")
	assert.Equal(t, Unbounded.String(), "infinite")
	for _, in := range []string{"7-00:00:00", "23:59:59", "infinite"} {
		d, err := ParseDuration(in)
		assert.NilError(t, err)
		assert.Equal(t, d.String(), in)
	}
}

func TestMaxDuration(t *testing.T) {
	assert.Equal(t, MaxDuration(10, 20), Duration(20))
	assert.Equal(t, MaxDuration(20, 10), Duration(20))
	assert.Equal(t, MaxDuration(Unbounded, 10), Unbounded)
	assert.Assert(t, MaxDuration(10, Unbounded).IsUnbounded())
}

type limitHolder struct {
	Limit Duration `yaml:"limit"`
}

func TestDurationYAML(t *testing.T) {
	out, err := yaml.Marshal(limitHolder{Limit: 3600})
	assert.NilError(t, err)
	assert.Equal(t, string(out), "limit: 3600\n")
	out, err = yaml.Marshal(limitHolder{Limit: Unbounded})
	assert.NilError(t, err)
	assert.Equal(t, string(out), "limit: infinite\n")

	tests := map[string]struct {
		input string
		limit Duration
		err   string
	}{
		"seconds":  {input: "limit: 600", limit: 600},
		"infinite": {input: "limit: infinite", limit: Unbounded},
		"time":     {input: "limit: 1-00:00:00", limit: 86400},
		"negative": {input: "limit: -5", err: "negative time limit"},
		"garbage":  {input: "limit: soon", err: "line 1"},
		"list":     {input: "limit: [1, 2]", err: "must be a scalar"},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			var holder limitHolder
			err := yaml.Unmarshal([]byte(test.input), &holder)
			if test.err != "" {
				assert.ErrorContains(t, err, test.err)
				return
			}
			assert.NilError(t, err)
			assert.Equal(t, holder.Limit, test.limit)
		})
	}
}
