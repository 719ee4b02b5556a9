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
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/apache/yunikorn-slurm-adapter/pkg/common"
)

// Duration is a cluster time limit in seconds.
type Duration int64

// Unbounded is the time limit of a partition without a limit.
const Unbounded = Duration(math.MaxInt64)

const (
	infinite  = "infinite"
	unlimited = "unlimited"
	maxDays   = int64(math.MaxInt64/86400) - 1
)

// ParseDuration converts a cluster time string "[days-]HH:MM:SS" into seconds.
// The literals "infinite" and "unlimited" (any case) return Unbounded.
func ParseDuration(value string) (Duration, error) {
	value = strings.TrimSpace(value)
	lower := strings.ToLower(value)
	if lower == infinite || lower == unlimited {
		return Unbounded, nil
	}
	var days int64
	hms := value
	if idx := strings.Index(value, "-"); idx >= 0 {
		var err error
		if days, err = parseField(value[:idx], value); err != nil {
			return 0, err
		}
		if days > maxDays {
			return 0, fmt.Errorf("%w: time '%s' out of range", common.ErrorParse, value)
		}
		hms = value[idx+1:]
	}
	parts := strings.Split(hms, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("%w: time '%s' must have the format [days-]HH:MM:SS", common.ErrorParse, value)
	}
	fields := make([]int64, 3)
	for i, part := range parts {
		field, err := parseField(part, value)
		if err != nil {
			return 0, err
		}
		fields[i] = field
	}
	// hours and minutes are not range checked, the cluster never prints them out of range
	seconds := days * 86400
	for i, unit := range []int64{3600, 60, 1} {
		if fields[i] > (math.MaxInt64-seconds)/unit {
			return 0, fmt.Errorf("%w: time '%s' out of range", common.ErrorParse, value)
		}
		seconds += fields[i] * unit
	}
	return Duration(seconds), nil
}

func parseField(field, value string) (int64, error) {
	if field == "" || strings.TrimLeft(field, "0123456789") != "" {
		return 0, fmt.Errorf("%w: time '%s' contains a non numeric field '%s'", common.ErrorParse, value, field)
	}
	result, err := strconv.ParseInt(field, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: time '%s' out of range", common.ErrorParse, value)
	}
	return result, nil
}

// MaxDuration returns the longer of the two limits, Unbounded wins.
func MaxDuration(left, right Duration) Duration {
	if left > right {
		return left
	}
	return right
}

func (d Duration) IsUnbounded() bool {
	return d == Unbounded
}

// Seconds returns the limit in seconds, Unbounded returns math.MaxInt64.
func (d Duration) Seconds() int64 {
	return int64(d)
}

// String formats the duration the way the cluster does: D-HH:MM:SS or infinite.
func (d Duration) String() string {
	if d.IsUnbounded() {
		return infinite
	}
	secs := int64(d)
	days := secs / 86400
	secs %= 86400
	hms := fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60)
	if days > 0 {
		return fmt.Sprintf("%d-%s", days, hms)
	}
	return hms
}

// MarshalYAML stores seconds or the literal infinite.
func (d Duration) MarshalYAML() (interface{}, error) {
	if d.IsUnbounded() {
		return infinite, nil
	}
	return int64(d), nil
}

// UnmarshalYAML accepts seconds, a cluster time string or the unbounded literal.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("%w: time limit must be a scalar (line %d)", common.ErrorConfig, value.Line)
	}
	if secs, err := strconv.ParseInt(value.Value, 10, 64); err == nil {
		if secs < 0 {
			return fmt.Errorf("%w: negative time limit %d (line %d)", common.ErrorConfig, secs, value.Line)
		}
		*d = Duration(secs)
		return nil
	}
	parsed, err := ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("%w: line %d: %v", common.ErrorConfig, value.Line, err)
	}
	*d = parsed
	return nil
}
