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

package main

import (
	"os"

	"go.uber.org/zap"

	"github.com/apache/yunikorn-slurm-adapter/pkg/log"
)

func main() {
	os.Exit(execute(newAdapterCLI(nil, os.Stdout), os.Args[1:]))
}

// execute returns the process exit status: 0 on success, 1 after logging the failure.
func execute(cli *adapterCLI, args []string) int {
	if err := cli.Exec(args); err != nil {
		log.Log(log.Entrypoint).Error("slurm adapter failed",
			zap.Strings("args", args),
			zap.Error(err))
		_ = log.Log(log.Entrypoint).Sync()
		return 1
	}
	return 0
}
