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
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/apache/yunikorn-slurm-adapter/pkg/common"
)

// Quantities are plain integers: cluster output is requested with --noconvert so memory is
// always in MB and counts are bare numbers.
// <quantity>     ::= <signedNumber>
// <signedNumber> ::= <digits> | <sign><digits>
// <sign>         ::= "+" | "-"
// <digits>       ::= <digit> | <digit><digits>

// No unit defined here for better performance
type Quantity int64

var legal = regexp.MustCompile(`^[+-]?[0-9]+$`)

// ParseQuantity parses a base 10 integer, surrounding whitespace is ignored.
func ParseQuantity(value string) (Quantity, error) {
	value = strings.TrimSpace(value)
	if !legal.MatchString(value) {
		return 0, fmt.Errorf("%w: invalid quantity '%s'", common.ErrorParse, value)
	}
	result, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid quantity '%s': overflow", common.ErrorParse, value)
	}
	return Quantity(result), nil
}

// QuantityFromValue converts a resolved job setting into a quantity.
// Integers, integral floating point numbers and string encoded integers are accepted,
// anything else is a conversion error.
func QuantityFromValue(value interface{}) (Quantity, error) {
	switch v := value.(type) {
	case Quantity:
		return v, nil
	case int:
		return Quantity(v), nil
	case int64:
		return Quantity(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return 0, fmt.Errorf("%w: invalid quantity '%d': overflow", common.ErrorParse, v)
		}
		return Quantity(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%w: invalid quantity '%v': not an integer", common.ErrorParse, v)
		}
		// float64(math.MaxInt64) is 2^63 which is already out of range
		if v >= math.MaxInt64 || v < math.MinInt64 {
			return 0, fmt.Errorf("%w: invalid quantity '%v': overflow", common.ErrorParse, v)
		}
		return Quantity(v), nil
	case json.Number:
		return ParseQuantity(v.String())
	case string:
		return ParseQuantity(v)
	default:
		return 0, fmt.Errorf("%w: invalid quantity '%v': unsupported type %T", common.ErrorParse, value, value)
	}
}

func (q Quantity) String() string {
	return strconv.FormatInt(int64(q), 10)
}
