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

package resources

import (
	"fmt"
	"sort"
	"strings"
)

// const keys, named as the columns of the cluster partition table
const (
	CPUS           = "CPUS"
	MEMORY         = "MEMORY"
	MAXCPUSPERNODE = "MAXCPUSPERNODE"
)

type Resource struct {
	Resources map[string]Quantity
}

var zeroResource = NewResource()

func NewResource() *Resource {
	return &Resource{Resources: make(map[string]Quantity)}
}

func NewResourceFromMap(m map[string]Quantity) *Resource {
	if m == nil {
		return NewResource()
	}
	return &Resource{Resources: m}
}

// Sorted by key to make the output stable.
func (r *Resource) String() string {
	if r == nil {
		return "map[]"
	}
	keys := make([]string, 0, len(r.Resources))
	for k := range r.Resources {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s:%d", k, r.Resources[k]))
	}
	return "map[" + strings.Join(parts, " ") + "]"
}

// Return a clone (copy) of the resource
func (r *Resource) Clone() *Resource {
	ret := NewResource()
	if r == nil {
		return ret
	}
	for k, v := range r.Resources {
		ret.Resources[k] = v
	}
	return ret
}

// Get returns the quantity and whether it was set.
func (r *Resource) Get(key string) (Quantity, bool) {
	if r == nil {
		return 0, false
	}
	q, ok := r.Resources[key]
	return q, ok
}

// Operations
// All operations must be nil safe

// Check if smaller fits in larger
// A nil resource is treated as an empty resource (zero), a missing entry in larger is zero
func FitIn(larger *Resource, smaller *Resource) bool {
	if larger == nil {
		larger = zeroResource
	}
	if smaller == nil {
		smaller = zeroResource
	}

	for k, v := range smaller.Resources {
		largerValue := larger.Resources[k]
		if largerValue < 0 {
			largerValue = 0
		}
		if v > largerValue {
			return false
		}
	}
	return true
}

func maxQuantity(x, y Quantity) Quantity {
	if x > y {
		return x
	}
	return y
}

// Returns a new resource with the largest value for each entry in the resources.
// An entry only set in one of the two is copied as is, a nil resource is empty.
func ComponentWiseMax(left *Resource, right *Resource) *Resource {
	out := left.Clone()
	if right == nil {
		return out
	}
	for k, v := range right.Resources {
		if current, ok := out.Resources[k]; ok {
			out.Resources[k] = maxQuantity(current, v)
		} else {
			out.Resources[k] = v
		}
	}
	return out
}

func Equals(left *Resource, right *Resource) bool {
	if left == nil || right == nil {
		return left == right || (IsEmpty(left) && IsEmpty(right))
	}
	if len(left.Resources) != len(right.Resources) {
		return false
	}
	for k, v := range left.Resources {
		if rv, ok := right.Resources[k]; !ok || rv != v {
			return false
		}
	}
	return true
}

// A nil resource is empty
func IsEmpty(r *Resource) bool {
	return r == nil || len(r.Resources) == 0
}
