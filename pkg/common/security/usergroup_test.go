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
	"testing"

	"gotest.tools/v3/assert"
)

func TestResolve(t *testing.T) {
	ctx := context.Background()
	ug, err := NewTestResolver("testuser1").Resolve(ctx)
	assert.NilError(t, err)
	assert.Equal(t, ug.User, "testuser1")
	assert.Equal(t, ug.Account, "physics")
	assert.DeepEqual(t, ug.Groups, []string{"users", "physics"})

	_, err = NewTestResolver("testuser3").Resolve(ctx)
	assert.ErrorContains(t, err, "account lookup failed")
	_, err = NewTestResolver("").Resolve(ctx)
	assert.ErrorContains(t, err, "lookup failed for current user")
}

type fixedSource struct {
	user string
}

func (f fixedSource) Whoami(_ context.Context) (string, error) {
	return f.user, nil
}

func (f fixedSource) Account(_ context.Context, userName string) (string, error) {
	return userName + "-acct", nil
}

func (f fixedSource) Groups(_ context.Context, _ string) ([]string, error) {
	return []string{"g1"}, nil
}

func TestResolveFromSource(t *testing.T) {
	ug, err := NewResolver(fixedSource{user: " alice\n"}).Resolve(context.Background())
	assert.NilError(t, err)
	assert.Equal(t, ug.User, "alice")
	assert.Equal(t, ug.Account, "alice-acct")

	_, err = NewResolver(fixedSource{user: "  "}).Resolve(context.Background())
	assert.ErrorContains(t, err, "empty user name")
}

func TestCheckAccess(t *testing.T) {
	ug := &UserGroup{User: "testuser1", Account: "physics", Groups: []string{"users"}}
	tests := map[string]struct {
		accounts    string
		groups      string
		checkGroups bool
		allowed     bool
	}{
		"wildcard":              {accounts: "ALL", groups: "ALL", allowed: true},
		"account listed":        {accounts: "chemistry,physics", groups: "admins", allowed: true},
		"account missing":       {accounts: "chemistry", groups: "ALL", allowed: false},
		"groups not checked":    {accounts: "ALL", groups: "admins", allowed: true},
		"groups checked denied": {accounts: "ALL", groups: "admins", checkGroups: true, allowed: false},
		"groups checked":        {accounts: "ALL", groups: "admins,users", checkGroups: true, allowed: true},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			allowed := ug.CheckAccess(NewACL(test.accounts), NewACL(test.groups), test.checkGroups)
			assert.Equal(t, allowed, test.allowed)
		})
	}
}
