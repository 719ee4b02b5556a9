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

package locking

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	godeadlock "github.com/sasha-s/go-deadlock"
	"go.uber.org/zap"

	"github.com/apache/yunikorn-slurm-adapter/pkg/common"
	"github.com/apache/yunikorn-slurm-adapter/pkg/log"
)

// Environment switches for lock tracking. Tracking is off unless enabled explicitly.
const (
	EnvDeadlockDetectionEnabled = "SLURM_ADAPTER_DEADLOCK_DETECTION"
	EnvDeadlockTimeoutSeconds   = "SLURM_ADAPTER_DEADLOCK_TIMEOUT"
	EnvExitOnDeadlock           = "SLURM_ADAPTER_DEADLOCK_EXIT"
	EnvDisableLockOrder         = "SLURM_ADAPTER_DEADLOCK_DISABLE_ORDER"

	defaultTimeoutSeconds = 60
)

var (
	once             sync.Once
	trackingEnabled  atomic.Bool
	timeoutSeconds   atomic.Int32
	deadlockDetected atomic.Bool
	testingMode      atomic.Bool
	exitOnDeadlock   atomic.Bool
	reports          = &reportBuffer{}
)

// reportBuffer collects the detector output for the next deadlock report.
type reportBuffer struct {
	data []byte
	sync.Mutex
}

func (b *reportBuffer) Write(p []byte) (int, error) {
	b.Lock()
	defer b.Unlock()
	b.data = append(b.data, p...)
	return len(p), nil
}

func (b *reportBuffer) drain() string {
	b.Lock()
	defer b.Unlock()
	out := string(b.data)
	b.data = nil
	return out
}

func init() {
	once.Do(configure)
}

func configure() {
	timeout, err := strconv.ParseInt(os.Getenv(EnvDeadlockTimeoutSeconds), 10, 32)
	if err != nil || timeout <= 0 {
		timeout = defaultTimeoutSeconds
	}
	apply(common.GetBoolEnvVar(EnvDeadlockDetectionEnabled, false), int32(timeout),
		common.GetBoolEnvVar(EnvDisableLockOrder, false), common.GetBoolEnvVar(EnvExitOnDeadlock, false))
}

func apply(enabled bool, timeout int32, disableOrder, exit bool) {
	trackingEnabled.Store(enabled)
	timeoutSeconds.Store(timeout)
	exitOnDeadlock.Store(exit)

	godeadlock.Opts.Disable = !enabled
	godeadlock.Opts.DeadlockTimeout = time.Duration(timeout) * time.Second
	godeadlock.Opts.DisableLockOrderDetection = disableOrder
	godeadlock.Opts.LogBuf = reports
	godeadlock.Opts.OnPotentialDeadlock = reportDeadlock

	if enabled {
		// written before logging is set up: the logger itself takes locks
		_, _ = fmt.Fprintf(os.Stderr, "lock tracking enabled (timeout: %ds, lock order detection: %t)\n", timeout, !disableOrder)
	}
}

func reportDeadlock() {
	deadlockDetected.Store(true)
	log.Log(log.Core).Error("potential deadlock detected",
		zap.String("details", reports.drain()))
	if exitOnDeadlock.Load() && !testingMode.Load() {
		os.Exit(1)
	}
}

func IsTrackingEnabled() bool {
	return trackingEnabled.Load()
}

func GetDeadlockTimeoutSeconds() int {
	return int(timeoutSeconds.Load())
}

func IsDeadlockDetected() bool {
	return deadlockDetected.Load()
}

// Mutex behaves as sync.Mutex and is tracked when lock tracking is enabled.
type Mutex struct {
	godeadlock.Mutex
}

// RWMutex behaves as sync.RWMutex and is tracked when lock tracking is enabled.
type RWMutex struct {
	godeadlock.RWMutex
}
