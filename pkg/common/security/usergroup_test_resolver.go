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
	"context"
	"fmt"
)

// Test users known to the test resolver:
// - testuser1: account physics, groups users and physics
// - testuser2: account chemistry, no groups
// - testuser3: account lookup fails
func NewTestResolver(userName string) *Resolver {
	return &Resolver{
		lookupUser: func(_ context.Context) (string, error) {
			if userName == "" {
				return "", fmt.Errorf("lookup failed for current user")
			}
			return userName, nil
		},
		lookupAccount: testAccount,
		lookupGroups:  testGroups,
	}
}

// test function only
func testAccount(_ context.Context, userName string) (string, error) {
	switch userName {
	case "testuser1":
		return "physics", nil
	case "testuser2":
		return "chemistry", nil
	}
	return "", fmt.Errorf("account lookup failed for user: %s", userName)
}

// test function only
func testGroups(_ context.Context, userName string) ([]string, error) {
	switch userName {
	case "testuser1":
		return []string{"users", "physics"}, nil
	case "testuser2", "testuser3":
		return []string{}, nil
	}
	return nil, fmt.Errorf("group lookup failed for user: %s", userName)
}
