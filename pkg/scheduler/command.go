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
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/apache/yunikorn-slurm-adapter/pkg/common/configs"
)

const templateSlot = "{}"

// GenerateCommand renders the submission command line: the base command, the argument
// template of every resolved option in schema order and the job script last.
// Every slot of a template gets the same value. Templates are split on whitespace before
// the values are filled in, a value containing spaces stays one argument.
func GenerateCommand(base string, options configs.OptionSchema, settings *Settings, jobScript string) []string {
	argv := []string{base}
	for _, option := range options {
		value, ok := settings.Get(option.Name)
		if !ok {
			continue
		}
		formatted := FormatValue(value)
		for _, field := range strings.Fields(option.Template) {
			argv = append(argv, strings.ReplaceAll(field, templateSlot, formatted))
		}
	}
	return append(argv, jobScript)
}

// FormatValue turns a job property value into its command line form.
// Integral numbers print without decimals and sequences are joined with commas.
func FormatValue(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < math.MaxInt64 {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case []interface{}:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = FormatValue(item)
		}
		return strings.Join(parts, ",")
	case []string:
		return strings.Join(v, ",")
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(value)
}
