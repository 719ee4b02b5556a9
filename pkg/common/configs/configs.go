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

package configs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/apache/yunikorn-slurm-adapter/pkg/common"
	"github.com/apache/yunikorn-slurm-adapter/pkg/log"
)

const (
	ConfigPathEnv     = "SLURM_ADAPTER_CONFIG"
	DefaultConfigFile = "slurm.yaml"
)

// ResolveConfigPath finds the configuration file: the explicit path first, then the environment
// and last the file next to the executable. Finding no file is a configuration error.
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("%w: configuration file %s: %v", common.ErrorConfig, explicit, err)
		}
		return explicit, nil
	}
	if fromEnv := common.GetStringEnvVar(ConfigPathEnv, ""); fromEnv != "" {
		if _, err := os.Stat(fromEnv); err != nil {
			return "", fmt.Errorf("%w: configuration file %s from %s: %v", common.ErrorConfig, fromEnv, ConfigPathEnv, err)
		}
		return fromEnv, nil
	}
	exe, err := os.Executable()
	if err != nil {
		log.Log(log.Config).Debug("executable location unknown", zap.Error(err))
		return "", notFound()
	}
	candidate := filepath.Join(filepath.Dir(exe), DefaultConfigFile)
	if _, err = os.Stat(candidate); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: configuration file %s: %v", common.ErrorConfig, candidate, err)
		}
		return "", notFound()
	}
	return candidate, nil
}

func notFound() error {
	return fmt.Errorf("%w: no configuration file found (--config, $%s, %s next to the executable)",
		common.ErrorConfig, ConfigPathEnv, DefaultConfigFile)
}

// LoadAdapterConfig reads and validates the configuration file.
// Relative paths in the file resolve against the directory of the file.
func LoadAdapterConfig(path string) (*AdapterConfig, error) {
	if path == "" {
		return nil, notFound()
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorConfig, err)
	}
	conf, err := LoadAdapterConfigFromByteArray(content)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	conf.SetBaseDir(filepath.Dir(abs))
	log.Log(log.Config).Debug("configuration loaded",
		zap.String("path", abs),
		zap.String("checksum", conf.Checksum))
	return conf, nil
}
