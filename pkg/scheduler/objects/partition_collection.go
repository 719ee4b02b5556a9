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
	"sort"

	"github.com/google/btree"

	"github.com/apache/yunikorn-slurm-adapter/pkg/locking"
)

// partitions sort by priority tier, highest first, and then by name
type partitionRef struct {
	partition *Partition
}

func (pr partitionRef) Less(than btree.Item) bool {
	other, ok := than.(partitionRef)
	if !ok {
		return false
	}
	if pr.partition.PriorityTier != other.partition.PriorityTier {
		return pr.partition.PriorityTier > other.partition.PriorityTier
	}
	return pr.partition.Name < other.partition.Name
}

// PartitionCollection is the partition catalog: partitions by name and in matching order.
type PartitionCollection struct {
	partitions map[string]*Partition
	ordered    *btree.BTree

	locking.RWMutex
}

func NewPartitionCollection() *PartitionCollection {
	return &PartitionCollection{
		partitions: make(map[string]*Partition),
		ordered:    btree.New(7),
	}
}

// AddPartition adds or replaces the partition with the same name.
// A partition must not be changed after it is added.
func (pc *PartitionCollection) AddPartition(p *Partition) {
	if p == nil {
		return
	}
	pc.Lock()
	defer pc.Unlock()
	if old, ok := pc.partitions[p.Name]; ok {
		pc.ordered.Delete(partitionRef{partition: old})
	}
	pc.partitions[p.Name] = p
	pc.ordered.ReplaceOrInsert(partitionRef{partition: p})
}

// RemovePartition removes the partition and returns it, nil if not found.
func (pc *PartitionCollection) RemovePartition(name string) *Partition {
	pc.Lock()
	defer pc.Unlock()
	p, ok := pc.partitions[name]
	if !ok {
		return nil
	}
	pc.ordered.Delete(partitionRef{partition: p})
	delete(pc.partitions, name)
	return p
}

func (pc *PartitionCollection) GetPartition(name string) *Partition {
	pc.RLock()
	defer pc.RUnlock()
	return pc.partitions[name]
}

func (pc *PartitionCollection) Len() int {
	pc.RLock()
	defer pc.RUnlock()
	return len(pc.partitions)
}

// ForEachPartition calls f in matching order until it returns false.
func (pc *PartitionCollection) ForEachPartition(f func(*Partition) bool) {
	pc.RLock()
	defer pc.RUnlock()
	pc.ordered.Ascend(func(item btree.Item) bool {
		if ref, ok := item.(partitionRef); ok {
			return f(ref.partition)
		}
		return true
	})
}

// GetPartitions returns the partitions in matching order.
func (pc *PartitionCollection) GetPartitions() []*Partition {
	list := make([]*Partition, 0, pc.Len())
	pc.ForEachPartition(func(p *Partition) bool {
		list = append(list, p)
		return true
	})
	return list
}

// GetPartitionNames returns the sorted names.
func (pc *PartitionCollection) GetPartitionNames() []string {
	pc.RLock()
	defer pc.RUnlock()
	names := make([]string, 0, len(pc.partitions))
	for name := range pc.partitions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
