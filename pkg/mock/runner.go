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

package mock

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/apache/yunikorn-slurm-adapter/pkg/locking"
	"github.com/apache/yunikorn-slurm-adapter/pkg/log"
)

// Response is one scripted answer of the fake cluster.
type Response struct {
	Output string
	Err    error
}

// Runner is a scripted cluster: responses are registered per command line or per executable.
// Multiple responses for the same key are returned in order, the last one is repeated.
type Runner struct {
	responses map[string][]Response
	calls     [][]string
	locking.Mutex
}

func NewRunner() *Runner {
	return &Runner{
		responses: make(map[string][]Response),
	}
}

// On scripts the output for the key: the full command line joined by spaces or only the executable.
func (r *Runner) On(key string, output string) *Runner {
	return r.add(key, Response{Output: output})
}

// OnError scripts a failure for the key.
func (r *Runner) OnError(key string, output string, err error) *Runner {
	return r.add(key, Response{Output: output, Err: err})
}

func (r *Runner) add(key string, resp Response) *Runner {
	r.Lock()
	defer r.Unlock()
	r.responses[key] = append(r.responses[key], resp)
	return r
}

func (r *Runner) Run(_ context.Context, argv []string) ([]byte, error) {
	r.Lock()
	defer r.Unlock()
	r.calls = append(r.calls, append([]string(nil), argv...))
	key := strings.Join(argv, " ")
	queue, ok := r.responses[key]
	if !ok && len(argv) > 0 {
		key = argv[0]
		queue, ok = r.responses[key]
	}
	if !ok || len(queue) == 0 {
		log.Log(log.Test).Info("fake runner has no scripted response",
			zap.Strings("argv", argv))
		return nil, fmt.Errorf("no response scripted for '%s'", strings.Join(argv, " "))
	}
	resp := queue[0]
	if len(queue) > 1 {
		r.responses[key] = queue[1:]
	}
	return []byte(resp.Output), resp.Err
}

// Calls returns a copy of all command lines run so far.
func (r *Runner) Calls() [][]string {
	r.Lock()
	defer r.Unlock()
	calls := make([][]string, len(r.calls))
	copy(calls, r.calls)
	return calls
}

// CallCount returns how often the executable was run.
func (r *Runner) CallCount(executable string) int {
	r.Lock()
	defer r.Unlock()
	count := 0
	for _, argv := range r.calls {
		if len(argv) > 0 && argv[0] == executable {
			count++
		}
	}
	return count
}
