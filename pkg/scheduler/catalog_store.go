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
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/apache/yunikorn-slurm-adapter/pkg/common"
	"github.com/apache/yunikorn-slurm-adapter/pkg/scheduler/objects"
)

// MarshalCatalog renders the catalog as a mapping of partition name to fields.
func MarshalCatalog(catalog *objects.PartitionCollection) ([]byte, error) {
	entries := make(map[string]objects.PartitionEntry, catalog.Len())
	catalog.ForEachPartition(func(p *objects.Partition) bool {
		entries[p.Name] = p.Entry()
		return true
	})
	return yaml.Marshal(entries)
}

// UnmarshalCatalog decodes a persisted catalog. Unknown fields are rejected.
func UnmarshalCatalog(content []byte) (*objects.PartitionCollection, error) {
	entries := make(map[string]objects.PartitionEntry)
	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true)
	if err := decoder.Decode(&entries); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: invalid partition catalog: %v", common.ErrorConfig, err)
	}
	catalog := objects.NewPartitionCollection()
	for name, entry := range entries {
		catalog.AddPartition(objects.NewPartitionFromEntry(name, entry))
	}
	return catalog, nil
}

func loadCatalogFile(path string) (*objects.PartitionCollection, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read partition catalog: %v", common.ErrorConfig, err)
	}
	catalog, err := UnmarshalCatalog(content)
	if err != nil {
		return nil, fmt.Errorf("%w (file %s)", err, path)
	}
	return catalog, nil
}

// saveCatalogFile replaces the file in one step: readers see the old or the new catalog, never a partial one.
func saveCatalogFile(path string, catalog *objects.PartitionCollection) error {
	content, err := MarshalCatalog(catalog)
	if err != nil {
		return fmt.Errorf("%w: cannot encode partition catalog: %v", common.ErrorConfig, err)
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("%w: cannot write partition catalog: %v", common.ErrorConfig, err)
	}
	tmpName := tmp.Name()
	fail := func(err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: cannot write partition catalog: %v", common.ErrorConfig, err)
	}
	if _, err = tmp.Write(content); err != nil {
		return fail(err)
	}
	if err = tmp.Sync(); err != nil {
		return fail(err)
	}
	if err = tmp.Chmod(0o644); err != nil {
		return fail(err)
	}
	if err = tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: cannot write partition catalog: %v", common.ErrorConfig, err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: cannot write partition catalog: %v", common.ErrorConfig, err)
	}
	return nil
}

// isFresh returns true if the file exists and is younger than the interval.
func isFresh(path string, interval time.Duration, now time.Time) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return now.Sub(info.ModTime()) < interval
}
