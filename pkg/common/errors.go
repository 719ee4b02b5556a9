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

package common

import "errors"

var (
	// ErrorConfig returned when the configuration or the persisted catalog is missing or malformed
	ErrorConfig = errors.New("configuration error")
	// ErrorParse returned when the output of a cluster command does not follow the expected format
	ErrorParse = errors.New("parse error")
	// ErrorAccessDenied returned when the account or groups are not allowed on a partition
	ErrorAccessDenied = errors.New("access denied")
	// ErrorNoSuitablePartition returned when no partition satisfies the resource request
	ErrorNoSuitablePartition = errors.New("no partition was found to satisfy resources requirements")
	// ErrorUnknownPartition returned when the user specified partition is not in the catalog
	ErrorUnknownPartition = errors.New("partition specified by user was not found")
	// ErrorSubmission returned when the submission command fails or its response has no job id
	ErrorSubmission = errors.New("job submission failed")
	// ErrorStatusQuery returned when a single status query attempt fails
	ErrorStatusQuery = errors.New("status query failed")
)
