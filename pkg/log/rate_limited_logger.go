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

package log

import (
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"
)

// RateLimitedLogger writes at most one entry per interval and counts what it drops.
// Every written entry carries the number of entries dropped before it, Flush reports
// the entries dropped since the last written one.
type RateLimitedLogger struct {
	logger     *zap.Logger
	limiter    *rate.Limiter
	total      int
	suppressed int

	sync.Mutex
}

// RateLimitedLog returns a logger for the handle that writes once within the interval.
func RateLimitedLog(handle *LoggerHandle, every time.Duration) *RateLimitedLogger {
	return newRateLimitedLogger(Log(handle), every)
}

func newRateLimitedLogger(logger *zap.Logger, every time.Duration) *RateLimitedLogger {
	return &RateLimitedLogger{
		logger:  logger,
		limiter: rate.NewLimiter(rate.Every(every), 1),
	}
}

func (rl *RateLimitedLogger) Warn(msg string, fields ...zap.Field) {
	rl.write(zapcore.WarnLevel, msg, fields)
}

func (rl *RateLimitedLogger) Error(msg string, fields ...zap.Field) {
	rl.write(zapcore.ErrorLevel, msg, fields)
}

func (rl *RateLimitedLogger) write(level zapcore.Level, msg string, fields []zap.Field) {
	rl.Lock()
	defer rl.Unlock()
	rl.total++
	if !rl.limiter.Allow() {
		rl.suppressed++
		return
	}
	if rl.suppressed > 0 {
		fields = append(fields, zap.Int("suppressed", rl.suppressed))
		rl.suppressed = 0
	}
	if ce := rl.logger.Check(level, msg); ce != nil {
		ce.Write(fields...)
	}
}

// Flush writes a summary if entries were dropped since the last written entry.
// It returns the number of entries logged and dropped since the logger was created.
func (rl *RateLimitedLogger) Flush(msg string, fields ...zap.Field) int {
	rl.Lock()
	defer rl.Unlock()
	if rl.suppressed > 0 {
		rl.logger.Warn(msg, append(fields,
			zap.Int("suppressed", rl.suppressed),
			zap.Int("total", rl.total))...)
		rl.suppressed = 0
	}
	return rl.total
}
