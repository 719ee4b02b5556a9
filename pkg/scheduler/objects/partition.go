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
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/apache/yunikorn-slurm-adapter/pkg/common/resources"
	"github.com/apache/yunikorn-slurm-adapter/pkg/log"
	"github.com/apache/yunikorn-slurm-adapter/pkg/rmproxy"
)

// AvailUp is the availability of a partition that accepts jobs.
const AvailUp = "up"

// Partition is the merged view of all node configurations of one cluster partition.
// Numeric fields hold the maximum over all rows, categorical fields the last row seen.
type Partition struct {
	Name          string
	Capacity      *resources.Resource
	TimeLimit     resources.Duration
	PriorityTier  int64
	Avail         string
	Groups        string
	AllowAccounts string

	hasTimeLimit bool
	hasTier      bool
}

func NewPartition(name string) *Partition {
	return &Partition{
		Name:     name,
		Capacity: resources.NewResource(),
	}
}

// IsUp returns true if the partition accepts jobs.
func (p *Partition) IsUp() bool {
	return p.Avail == AvailUp
}

// HasTimeLimit returns false if no row had a parsable time limit.
func (p *Partition) HasTimeLimit() bool {
	return p.hasTimeLimit
}

// Fold merges one node configuration row into the partition.
// Fields that cannot be parsed are skipped, they never fail the merge.
func (p *Partition) Fold(row map[string]string) {
	for column, value := range row {
		switch column {
		case rmproxy.ColumnPartition:
			continue
		case rmproxy.ColumnCPUs:
			p.foldQuantity(resources.CPUS, value)
		case rmproxy.ColumnMemory:
			p.foldQuantity(resources.MEMORY, value)
		case rmproxy.ColumnMaxCPUsPerNode:
			p.foldQuantity(resources.MAXCPUSPERNODE, value)
		case rmproxy.ColumnTimeLimit:
			limit, err := resources.ParseDuration(value)
			if err != nil {
				p.logSkip(column, value, err)
				continue
			}
			if p.hasTimeLimit {
				limit = resources.MaxDuration(p.TimeLimit, limit)
			}
			p.TimeLimit = limit
			p.hasTimeLimit = true
		case rmproxy.ColumnPrioTier:
			tier, err := resources.ParseQuantity(value)
			if err != nil {
				p.logSkip(column, value, err)
				continue
			}
			if !p.hasTier || int64(tier) > p.PriorityTier {
				p.PriorityTier = int64(tier)
			}
			p.hasTier = true
		case rmproxy.ColumnAvail:
			p.Avail = value
		case rmproxy.ColumnGroups:
			p.Groups = value
		default:
			log.Log(log.Catalog).Debug("ignoring unknown partition column",
				zap.String("partition", p.Name),
				zap.String("column", column))
		}
	}
}

func (p *Partition) foldQuantity(key, value string) {
	q, err := resources.ParseQuantity(value)
	if err != nil {
		p.logSkip(key, value, err)
		return
	}
	if current, ok := p.Capacity.Get(key); !ok || q > current {
		p.Capacity.Resources[key] = q
	}
}

func (p *Partition) logSkip(column, value string, err error) {
	log.Log(log.Catalog).Debug("skipping partition field",
		zap.String("partition", p.Name),
		zap.String("column", column),
		zap.String("value", value),
		zap.Error(err))
}

func (p *Partition) String() string {
	limit := "none"
	if p.hasTimeLimit {
		limit = p.TimeLimit.String()
	}
	return fmt.Sprintf("partition %s: avail=%s tier=%d capacity=%s timelimit=%s", p.Name, p.Avail, p.PriorityTier, p.Capacity, limit)
}

// PartitionEntry is the persisted form of a partition, keyed by the table column names.
type PartitionEntry struct {
	CPUs           *int64              `yaml:"CPUS,omitempty"`
	Memory         *int64              `yaml:"MEMORY,omitempty"`
	TimeLimit      *resources.Duration `yaml:"TIMELIMIT,omitempty"`
	MaxCPUsPerNode *int64              `yaml:"MAXCPUSPERNODE,omitempty"`
	Groups         string              `yaml:"GROUPS,omitempty"`
	Avail          string              `yaml:"AVAIL,omitempty"`
	PrioTier       *int64              `yaml:"PRIO_TIER,omitempty"`
	AllowAccounts  string              `yaml:"ALLOW_ACCOUNTS,omitempty"`
}

// Entry converts the partition into its persisted form.
func (p *Partition) Entry() PartitionEntry {
	entry := PartitionEntry{
		Groups:        p.Groups,
		Avail:         p.Avail,
		AllowAccounts: p.AllowAccounts,
	}
	quantity := func(key string) *int64 {
		if q, ok := p.Capacity.Get(key); ok {
			v := int64(q)
			return &v
		}
		return nil
	}
	entry.CPUs = quantity(resources.CPUS)
	entry.Memory = quantity(resources.MEMORY)
	entry.MaxCPUsPerNode = quantity(resources.MAXCPUSPERNODE)
	if p.hasTimeLimit {
		limit := p.TimeLimit
		entry.TimeLimit = &limit
	}
	if p.hasTier {
		tier := p.PriorityTier
		entry.PrioTier = &tier
	}
	return entry
}

// NewPartitionFromEntry restores a persisted partition.
func NewPartitionFromEntry(name string, entry PartitionEntry) *Partition {
	p := NewPartition(strings.TrimSpace(name))
	p.Groups = entry.Groups
	p.Avail = entry.Avail
	p.AllowAccounts = entry.AllowAccounts
	set := func(key string, value *int64) {
		if value != nil {
			p.Capacity.Resources[key] = resources.Quantity(*value)
		}
	}
	set(resources.CPUS, entry.CPUs)
	set(resources.MEMORY, entry.Memory)
	set(resources.MAXCPUSPERNODE, entry.MaxCPUsPerNode)
	if entry.TimeLimit != nil {
		p.TimeLimit = *entry.TimeLimit
		p.hasTimeLimit = true
	}
	if entry.PrioTier != nil {
		p.PriorityTier = *entry.PrioTier
		p.hasTier = true
	}
	return p
}
