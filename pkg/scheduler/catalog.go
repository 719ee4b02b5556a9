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

package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/apache/yunikorn-slurm-adapter/pkg/common"
	"github.com/apache/yunikorn-slurm-adapter/pkg/common/configs"
	"github.com/apache/yunikorn-slurm-adapter/pkg/common/security"
	"github.com/apache/yunikorn-slurm-adapter/pkg/log"
	"github.com/apache/yunikorn-slurm-adapter/pkg/metrics"
	"github.com/apache/yunikorn-slurm-adapter/pkg/rmproxy"
	"github.com/apache/yunikorn-slurm-adapter/pkg/scheduler/objects"
)

// CatalogBuilder keeps the persisted partition catalog up to date and loads it.
type CatalogBuilder struct {
	conf  *configs.AdapterConfig
	proxy ClusterProxy
	now   func() time.Time
}

func NewCatalogBuilder(conf *configs.AdapterConfig, proxy ClusterProxy) *CatalogBuilder {
	return &CatalogBuilder{
		conf:  conf,
		proxy: proxy,
		now:   time.Now,
	}
}

// Load returns the catalog with the blacklisted partitions removed.
// The persisted file is rebuilt first when it is missing, stale or a refresh is forced.
func (cb *CatalogBuilder) Load(ctx context.Context, refresh bool) (*objects.PartitionCollection, error) {
	path := cb.conf.PartitionsFilePath()
	result := metrics.ResultCached
	if refresh || !isFresh(path, cb.conf.RefreshInterval(), cb.now()) {
		rebuilt, err := cb.rebuildFile(ctx, path, refresh)
		if err != nil {
			metrics.GetAdapterMetrics().IncCatalogLoad(metrics.ResultFailed)
			return nil, err
		}
		if rebuilt {
			result = metrics.ResultRebuilt
		}
	}
	catalog, err := loadCatalogFile(path)
	if err != nil {
		metrics.GetAdapterMetrics().IncCatalogLoad(metrics.ResultFailed)
		return nil, err
	}
	for _, name := range catalog.GetPartitionNames() {
		if cb.conf.IsBlacklisted(name) && catalog.RemovePartition(name) != nil {
			log.Log(log.Catalog).Debug("removed blacklisted partition",
				zap.String("partition", name))
		}
	}
	metrics.GetAdapterMetrics().IncCatalogLoad(result)
	metrics.GetAdapterMetrics().SetCatalogPartitions(catalog.Len())
	log.Log(log.Catalog).Info("partition catalog loaded",
		zap.String("file", path),
		zap.String("source", result),
		zap.Strings("partitions", catalog.GetPartitionNames()))
	return catalog, nil
}

// rebuildFile rebuilds and persists the catalog while holding the catalog lock.
// Without a forced refresh the freshness is checked again once the lock is held, another
// invocation might have rebuilt the file while this one was waiting.
func (cb *CatalogBuilder) rebuildFile(ctx context.Context, path string, force bool) (bool, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("%w: cannot create partition catalog directory: %v", common.ErrorConfig, err)
	}
	unlock, err := lockFile(path + ".lock")
	if err != nil {
		return false, fmt.Errorf("%w: cannot lock partition catalog: %v", common.ErrorConfig, err)
	}
	defer unlock()
	if !force && isFresh(path, cb.conf.RefreshInterval(), cb.now()) {
		log.Log(log.Catalog).Debug("partition catalog was rebuilt concurrently",
			zap.String("file", path))
		return false, nil
	}
	catalog, err := cb.Rebuild(ctx)
	if err != nil {
		return false, err
	}
	if err = saveCatalogFile(path, catalog); err != nil {
		return false, err
	}
	log.Log(log.Catalog).Info("partition catalog rebuilt",
		zap.String("file", path),
		zap.Int("partitions", catalog.Len()))
	return true, nil
}

// Rebuild queries the cluster and returns the partitions the invoking user may submit to.
// Any failing query aborts the rebuild.
func (cb *CatalogBuilder) Rebuild(ctx context.Context) (*objects.PartitionCollection, error) {
	user, err := security.NewResolver(cb.proxy).Resolve(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve invoking user: %w", err)
	}
	rows, err := cb.proxy.PartitionTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot query partition table: %w", err)
	}
	names, grouped := groupRows(rows)
	catalog := objects.NewPartitionCollection()
	for _, name := range names {
		raw, err := cb.proxy.PartitionSettings(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("cannot query settings of partition %s: %w", name, err)
		}
		settings := objects.NewPartitionSettings(name, raw)
		if !cb.allowed(user, settings) {
			continue
		}
		partition := objects.NewPartition(name)
		for _, row := range grouped[name] {
			partition.Fold(row)
		}
		partition.AllowAccounts = settings.AllowAccounts().String()
		log.Log(log.Catalog).Debug("partition added to catalog",
			zap.Stringer("partition", partition))
		catalog.AddPartition(partition)
	}
	return catalog, nil
}

func (cb *CatalogBuilder) allowed(user *security.UserGroup, settings *objects.PartitionSettings) bool {
	if !settings.IsValid() {
		log.Log(log.Catalog).Warn("partition settings incomplete, excluding partition",
			zap.String("partition", settings.Name))
		return false
	}
	if !user.CheckAccess(settings.AllowAccounts(), settings.AllowGroups(), cb.conf.Scheduler.CheckGroups) {
		log.Log(log.Catalog).Debug("access denied, excluding partition",
			zap.String("partition", settings.Name),
			zap.String("account", user.Account),
			zap.Strings("groups", user.Groups),
			zap.Stringer("allowAccounts", settings.AllowAccounts()),
			zap.Stringer("allowGroups", settings.AllowGroups()),
			zap.Error(common.ErrorAccessDenied))
		return false
	}
	return true
}

// groupRows groups the rows by partition name, names are kept in the order first seen.
// sinfo marks the default partition with a trailing asterisk.
func groupRows(rows []rmproxy.PartitionRow) ([]string, map[string][]rmproxy.PartitionRow) {
	names := make([]string, 0)
	grouped := make(map[string][]rmproxy.PartitionRow)
	for _, row := range rows {
		name := strings.TrimSuffix(row[rmproxy.ColumnPartition], "*")
		if name == "" {
			continue
		}
		if _, ok := grouped[name]; !ok {
			names = append(names, name)
		}
		grouped[name] = append(grouped[name], row)
	}
	return names, grouped
}
