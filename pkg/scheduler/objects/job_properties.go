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
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"

	"go.uber.org/zap"

	"github.com/apache/yunikorn-slurm-adapter/pkg/common"
	"github.com/apache/yunikorn-slurm-adapter/pkg/log"
)

// The workflow engine embeds the job properties as one JSON line in the job script.
var propertiesRegExp = regexp.MustCompile(`^# properties = (.*)$`)

const (
	scopeResources = "resources"
	scopeParams    = "params"
)

// JobProperties are the three lookup scopes of one job. The top level scope is the complete
// document, resources and params are the nested mappings.
type JobProperties struct {
	TopLevel  map[string]interface{}
	Resources map[string]interface{}
	Params    map[string]interface{}
}

// ReadJobProperties reads the properties line from the job script.
func ReadJobProperties(jobScript string) (*JobProperties, error) {
	file, err := os.Open(jobScript)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read job script: %v", common.ErrorParse, err)
	}
	defer file.Close()
	return ParseJobProperties(file)
}

// ParseJobProperties scans for the first properties line. Numbers are kept as json.Number
// so integers are never turned into floating point values.
func ParseJobProperties(reader io.Reader) (*JobProperties, error) {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		match := propertiesRegExp.FindSubmatch(scanner.Bytes())
		if match == nil {
			continue
		}
		decoder := json.NewDecoder(bytes.NewReader(match[1]))
		decoder.UseNumber()
		var doc map[string]interface{}
		if err := decoder.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%w: invalid job properties: %v", common.ErrorParse, err)
		}
		return NewJobProperties(doc), nil
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: cannot read job script: %v", common.ErrorParse, err)
	}
	return nil, fmt.Errorf("%w: no job properties found in job script", common.ErrorParse)
}

// NewJobProperties splits a decoded document into its scopes.
func NewJobProperties(doc map[string]interface{}) *JobProperties {
	if doc == nil {
		doc = make(map[string]interface{})
	}
	return &JobProperties{
		TopLevel:  doc,
		Resources: nestedScope(doc, scopeResources),
		Params:    nestedScope(doc, scopeParams),
	}
}

func nestedScope(doc map[string]interface{}, name string) map[string]interface{} {
	value, ok := doc[name]
	if !ok || value == nil {
		return map[string]interface{}{}
	}
	scope, ok := value.(map[string]interface{})
	if !ok {
		log.Log(log.Settings).Debug("job property scope is not a mapping, ignoring it",
			zap.String("scope", name),
			zap.Any("value", value))
		return map[string]interface{}{}
	}
	return scope
}
