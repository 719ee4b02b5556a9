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
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/apache/yunikorn-slurm-adapter/pkg/common"
)

const jobScript = `#!/bin/sh
# properties = {"type": "single", "rule": "align", "threads": 4, "resources": {"mem_mb": 16000, "runtime": "02:00:00"}, "params": {"partition": "gpu"}, "log": ["logs/align.log"]}
cd /work && snakemake --snakefile Snakefile
`

func TestParseJobProperties(t *testing.T) {
	jp, err := ParseJobProperties(strings.NewReader(jobScript))
	assert.NilError(t, err)
	assert.Equal(t, jp.TopLevel["rule"], "align")
	assert.Equal(t, jp.TopLevel["threads"], json.Number("4"))
	assert.Equal(t, jp.Resources["mem_mb"], json.Number("16000"))
	assert.Equal(t, jp.Resources["runtime"], "02:00:00")
	assert.Equal(t, jp.Params["partition"], "gpu")
	assert.DeepEqual(t, jp.TopLevel["log"], []interface{}{"logs/align.log"})
}

func TestParseJobPropertiesErrors(t *testing.T) {
	_, err := ParseJobProperties(strings.NewReader("#!/bin/sh\necho hi\n"))
	assert.ErrorContains(t, err, "no job properties")
	assert.Assert(t, errors.Is(err, common.ErrorParse))
	_, err = ParseJobProperties(strings.NewReader("# properties = {not json}\n"))
	assert.ErrorContains(t, err, "invalid job properties")
}

func TestNestedScopes(t *testing.T) {
	jp := NewJobProperties(map[string]interface{}{"resources": "oops", "params": nil})
	assert.Equal(t, len(jp.Resources), 0)
	assert.Equal(t, len(jp.Params), 0)
	jp = NewJobProperties(nil)
	assert.Assert(t, jp.TopLevel != nil)
}

func TestReadJobProperties(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.sh")
	assert.NilError(t, os.WriteFile(path, []byte(jobScript), 0o600))
	jp, err := ReadJobProperties(path)
	assert.NilError(t, err)
	assert.Equal(t, jp.Params["partition"], "gpu")
	_, err = ReadJobProperties(filepath.Join(t.TempDir(), "missing.sh"))
	assert.Assert(t, errors.Is(err, common.ErrorParse))
}
