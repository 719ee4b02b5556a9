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
	"strings"

	"go.uber.org/zap"

	"github.com/apache/yunikorn-slurm-adapter/pkg/common"
	"github.com/apache/yunikorn-slurm-adapter/pkg/log"
)

// The identity of the invoking user as the cluster sees it.
type UserGroup struct {
	User    string
	Account string
	Groups  []string
}

// Resolver looks up the identity. The lookups are pluggable so the cluster proxy
// or a test implementation can be used.
type Resolver struct {
	lookupUser    func(ctx context.Context) (string, error)
	lookupAccount func(ctx context.Context, userName string) (string, error)
	lookupGroups  func(ctx context.Context, userName string) ([]string, error)
}

// IdentitySource is implemented by anything that can answer the three identity queries.
type IdentitySource interface {
	Whoami(ctx context.Context) (string, error)
	Account(ctx context.Context, userName string) (string, error)
	Groups(ctx context.Context, userName string) ([]string, error)
}

func NewResolver(source IdentitySource) *Resolver {
	return &Resolver{
		lookupUser:    source.Whoami,
		lookupAccount: source.Account,
		lookupGroups:  source.Groups,
	}
}

// Resolve runs the lookups in order: user, account and groups.
// Any failure aborts the resolution.
func (r *Resolver) Resolve(ctx context.Context) (*UserGroup, error) {
	userName, err := r.lookupUser(ctx)
	if err != nil {
		return nil, err
	}
	userName = strings.TrimSpace(userName)
	if userName == "" {
		return nil, fmt.Errorf("%w: empty user name", common.ErrorParse)
	}
	account, err := r.lookupAccount(ctx, userName)
	if err != nil {
		return nil, err
	}
	groups, err := r.lookupGroups(ctx, userName)
	if err != nil {
		return nil, err
	}
	ug := &UserGroup{
		User:    userName,
		Account: account,
		Groups:  groups,
	}
	log.Log(log.Security).Debug("resolved invoking user",
		zap.String("user", ug.User),
		zap.String("account", ug.Account),
		zap.Strings("groups", ug.Groups))
	return ug, nil
}

// CheckAccess returns true if the account is allowed by the accounts ACL.
// Groups are only checked when requested.
func (ug *UserGroup) CheckAccess(accounts, groups ACL, checkGroups bool) bool {
	if !accounts.Allows(ug.Account) {
		return false
	}
	return !checkGroups || groups.AllowsAny(ug.Groups)
}
