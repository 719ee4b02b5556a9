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
	"fmt"
	"regexp"
	"strings"

	"github.com/apache/yunikorn-slurm-adapter/pkg/common"
)

// Column names of the partition table, as printed in the header.
const (
	ColumnPartition      = "PARTITION"
	ColumnCPUs           = "CPUS"
	ColumnMemory         = "MEMORY"
	ColumnTimeLimit      = "TIMELIMIT"
	ColumnMaxCPUsPerNode = "MAXCPUSPERNODE"
	ColumnGroups         = "GROUPS"
	ColumnAvail          = "AVAIL"
	ColumnPrioTier       = "PRIO_TIER"
)

// PartitionFormat is the field list requested from sinfo, in header order.
const PartitionFormat = "partitionname,cpus,memory,time,maxcpuspernode,groups,available,prioritytier"

var jobIDRegExp = regexp.MustCompile(`Submitted batch job (\d+)`)

// PartitionRow is one node configuration line of the partition table keyed by column name.
type PartitionRow map[string]string

func firstLine(out string) string {
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

// ParseUserResponse returns the user name printed on the first line.
func ParseUserResponse(out []byte) (string, error) {
	userName := firstLine(string(out))
	if userName == "" {
		return "", fmt.Errorf("%w: empty user name response", common.ErrorParse)
	}
	return userName, nil
}

// ParseAccountResponse extracts the account from "user|account|role".
func ParseAccountResponse(out []byte) (string, error) {
	line := firstLine(string(out))
	fields := strings.Split(line, "|")
	if len(fields) < 2 || strings.TrimSpace(fields[1]) == "" {
		return "", fmt.Errorf("%w: no account in response '%s'", common.ErrorParse, line)
	}
	return strings.TrimSpace(fields[1]), nil
}

// ParseGroupsResponse extracts the groups from "user : group1 group2".
// A response without the user prefix is a plain group list.
func ParseGroupsResponse(out []byte) []string {
	line := firstLine(string(out))
	if idx := strings.LastIndex(line, ":"); idx >= 0 {
		line = line[idx+1:]
	}
	return strings.Fields(line)
}

// ParsePartitionTable splits the table into rows keyed by the header columns.
// Columns are whitespace delimited and rows may be ragged: missing trailing columns are left
// out of the row and surplus values are ignored.
func ParsePartitionTable(out []byte) ([]PartitionRow, error) {
	var header []string
	rows := make([]PartitionRow, 0)
	for _, line := range strings.Split(string(out), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if header == nil {
			header = fields
			if !containsColumn(header, ColumnPartition) {
				return nil, fmt.Errorf("%w: partition table header '%s' has no %s column", common.ErrorParse, line, ColumnPartition)
			}
			continue
		}
		row := make(PartitionRow, len(header))
		for i, value := range fields {
			if i >= len(header) {
				break
			}
			row[header[i]] = value
		}
		rows = append(rows, row)
	}
	if header == nil {
		return nil, fmt.Errorf("%w: empty partition table", common.ErrorParse)
	}
	return rows, nil
}

func containsColumn(header []string, column string) bool {
	for _, h := range header {
		if h == column {
			return true
		}
	}
	return false
}

// ParseSubmitResponse extracts the job id from the submission response.
func ParseSubmitResponse(out []byte) (string, error) {
	match := jobIDRegExp.FindSubmatch(out)
	if match == nil {
		return "", fmt.Errorf("%w: no job id in submission response '%s'", common.ErrorParse, strings.TrimSpace(string(out)))
	}
	return string(match[1]), nil
}

// ParseStatusResponse extracts the job state from "id|STATE|exitcode".
// Only the first line, the job allocation, is used. Qualified states such as
// "CANCELLED by 1234" are reduced to their first word.
func ParseStatusResponse(out []byte) (string, error) {
	line := firstLine(string(out))
	fields := strings.Split(line, "|")
	if len(fields) < 2 {
		return "", fmt.Errorf("%w: unexpected status response '%s'", common.ErrorParse, line)
	}
	state := strings.Fields(fields[1])
	if len(state) == 0 {
		return "", fmt.Errorf("%w: empty state in status response '%s'", common.ErrorParse, line)
	}
	return state[0], nil
}
