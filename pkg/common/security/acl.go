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

package security

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/apache/yunikorn-slurm-adapter/pkg/log"
)

const (
	WildCard  = "ALL"
	Separator = ","
)

// ACL is an allow list of accounts or groups as the cluster manager reports it:
// a comma separated list or the wildcard ALL.
type ACL struct {
	names      map[string]bool
	allAllowed bool
}

// NewACL creates the ACL from the comma separated list. Empty entries are ignored,
// an empty list allows nobody.
func NewACL(aclStr string) ACL {
	acl := ACL{names: make(map[string]bool)}
	aclStr = strings.TrimSpace(aclStr)
	if aclStr == "" {
		return acl
	}
	for _, name := range strings.Split(aclStr, Separator) {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if name == WildCard {
			acl.allAllowed = true
			continue
		}
		acl.names[name] = true
	}
	if acl.allAllowed && len(acl.names) > 0 {
		log.Log(log.Security).Debug("ACL contains wildcard, ignoring explicit names",
			zap.String("acl", aclStr))
		acl.names = make(map[string]bool)
	}
	return acl
}

// Allows returns true if the wildcard is set or the name is listed.
func (a ACL) Allows(name string) bool {
	if a.isWildcard() {
		return true
	}
	return a.names[name]
}

// AllowsAny returns true if the wildcard is set or at least one of the names is listed.
func (a ACL) AllowsAny(names []string) bool {
	if a.isWildcard() {
		return true
	}
	for _, name := range names {
		if a.names[name] {
			return true
		}
	}
	return false
}

func (a ACL) isWildcard() bool {
	return a.allAllowed
}

// String returns the canonical form: the wildcard or the sorted names.
func (a ACL) String() string {
	if a.isWildcard() {
		return WildCard
	}
	names := make([]string, 0, len(a.names))
	for name := range a.names {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, Separator)
}
