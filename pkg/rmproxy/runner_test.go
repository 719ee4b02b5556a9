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
	"errors"
	"os/exec"
	"testing"

	"gotest.tools/v3/assert"
)

func TestOSRunner(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("no shell available")
	}
	r := NewOSRunner()
	out, err := r.Run(context.Background(), []string{"sh", "-c", "echo hello"})
	assert.NilError(t, err)
	assert.Equal(t, string(out), "hello\n")

	_, err = r.Run(context.Background(), []string{"sh", "-c", "echo oops >&2; exit 3"})
	var cmdErr *CommandError
	assert.Assert(t, errors.As(err, &cmdErr), "expected command error, got %v", err)
	assert.Equal(t, cmdErr.ExitCode, 3)
	assert.Equal(t, cmdErr.Stderr, "oops\n")
	assert.ErrorContains(t, err, "exit code 3: oops")

	_, err = r.Run(context.Background(), []string{"/nonexistent/binary"})
	assert.Assert(t, errors.As(err, &cmdErr))
	assert.Equal(t, cmdErr.ExitCode, 0)

	_, err = r.Run(context.Background(), nil)
	assert.ErrorContains(t, err, "empty command")
}
