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
	"strings"

	"go.uber.org/zap"

	"github.com/apache/yunikorn-slurm-adapter/pkg/common/security"
	"github.com/apache/yunikorn-slurm-adapter/pkg/log"
)

// Setting keys of the partition access policy.
const (
	SettingPartitionName = "PartitionName"
	SettingAllowGroups   = "AllowGroups"
	SettingAllowAccounts = "AllowAccounts"
	SettingMaxTime       = "MaxTime"
	SettingPriorityTier  = "PriorityTier"
)

var requiredSettings = []string{
	SettingAllowGroups,
	SettingAllowAccounts,
	SettingMaxTime,
	SettingPriorityTier,
}

// PartitionSettings is the access policy snapshot of one partition.
// An incomplete or malformed snapshot is kept but marked invalid, callers must check IsValid.
type PartitionSettings struct {
	Name          string
	settings      map[string]string
	allowGroups   security.ACL
	allowAccounts security.ACL
	valid         bool
}

// NewPartitionSettings parses whitespace separated Key=Value tokens.
// Only the first = separates the key, values may contain = themselves.
func NewPartitionSettings(name, raw string) *PartitionSettings {
	ps := &PartitionSettings{
		Name:     name,
		settings: make(map[string]string),
		valid:    true,
	}
	for _, token := range strings.Fields(raw) {
		parts := strings.SplitN(token, "=", 2)
		if len(parts) != 2 || parts[0] == "" {
			log.Log(log.Security).Warn("malformed partition setting",
				zap.String("partition", name),
				zap.String("token", token))
			ps.valid = false
			continue
		}
		if parts[0] == SettingPartitionName {
			ps.Name = parts[1]
			continue
		}
		ps.settings[parts[0]] = parts[1]
	}
	for _, key := range requiredSettings {
		if _, ok := ps.settings[key]; !ok {
			log.Log(log.Security).Warn("required setting missing from partition settings",
				zap.String("partition", ps.Name),
				zap.String("setting", key))
			ps.valid = false
		}
	}
	ps.allowGroups = security.NewACL(ps.settings[SettingAllowGroups])
	ps.allowAccounts = security.NewACL(ps.settings[SettingAllowAccounts])
	return ps
}

// IsValid returns false if a required setting is missing or a token could not be parsed.
func (ps *PartitionSettings) IsValid() bool {
	return ps.valid
}

// Get returns the raw value of a setting.
func (ps *PartitionSettings) Get(key string) (string, bool) {
	value, ok := ps.settings[key]
	return value, ok
}

// CheckUser returns true if the account may submit to the partition.
func (ps *PartitionSettings) CheckUser(account string) bool {
	return ps.allowAccounts.Allows(account)
}

// CheckGroups returns true if at least one of the groups may submit to the partition.
func (ps *PartitionSettings) CheckGroups(groups []string) bool {
	return ps.allowGroups.AllowsAny(groups)
}

func (ps *PartitionSettings) AllowAccounts() security.ACL {
	return ps.allowAccounts
}

func (ps *PartitionSettings) AllowGroups() security.ACL {
	return ps.allowGroups
}
