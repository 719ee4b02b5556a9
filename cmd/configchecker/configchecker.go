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
	"fmt"
	"os"

	"github.com/apache/yunikorn-slurm-adapter/pkg/common/configs"
)

/*
A utility command to load the adapter configuration file and check its validity
*/
func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "Usage: "+os.Args[0]+" <adapter-config-file>")
		os.Exit(1)
	}
	configFile := os.Args[1]
	content, err := os.ReadFile(configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	conf, err := configs.LoadAdapterConfigFromByteArray(content)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(3)
	}
	fmt.Printf("%s is valid, %d options, checksum %s\n", configFile, len(conf.Options), conf.Checksum)
}
