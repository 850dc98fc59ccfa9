/**
 * Tencent is pleased to support the open source community by making polaris-go available.
 *
 * Copyright (C) 2019 THL A29 Limited, a Tencent company. All rights reserved.
 *
 * Licensed under the BSD 3-Clause License (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 * https://opensource.org/licenses/BSD-3-Clause
 *
 * Unless required by applicable law or agreed to in writing, software distributed
 * under the License is distributed on an "AS IS" BASIS, WITHOUT WARRANTIES OR
 * CONDITIONS OF ANY KIND, either express or implied. See the License for the
 * specific language governing permissions and limitations under the License.
 */

package log

const (
	// DefaultLogger is the name of the Logger extension used when none is configured.
	DefaultLogger = LoggerZap
	// DefaultBaseLogLevel is the default level for the base logger.
	DefaultBaseLogLevel = InfoLog
	// DefaultInvokerLogLevel is the default level for the invoker diagnostics logger.
	DefaultInvokerLogLevel = InfoLog
	// DefaultStatLogLevel is the default level for the router/load-balancer logger.
	DefaultStatLogLevel = InfoLog

	baseLoggerName    = "base"
	invokerLoggerName = "invoker"
	statLoggerName    = "stat"
)

const (
	// DefaultErrorOutputPath is where uncaught logging-subsystem errors go.
	DefaultErrorOutputPath = "stderr"
	// DefaultRotationMaxAge is, in days, how long rotated log files are kept.
	DefaultRotationMaxAge = 30
	// DefaultRotationMaxSize is, in MB, the size at which a log file rotates.
	DefaultRotationMaxSize = 50
	// DefaultRotationMaxBackups is how many rotated files are retained.
	DefaultRotationMaxBackups = 5
	// DefaultLogRotationRootDir is the default root directory for rotated logs.
	DefaultLogRotationRootDir = "./clustercore/log"
	// DefaultBaseLogRotationPath is the base logger's rotation path, relative to the root dir.
	DefaultBaseLogRotationPath = "/base/clustercore.log"
	// DefaultInvokerLogRotationPath is the invoker logger's rotation path, relative to the root dir.
	DefaultInvokerLogRotationPath = "/invoker/clustercore-invoker.log"
	// DefaultStatLogRotationPath is the stat logger's rotation path, relative to the root dir.
	DefaultStatLogRotationPath = "/stat/clustercore-stat.log"

	// DefaultBaseLogRotationFile is the full default rotation path for the base logger.
	DefaultBaseLogRotationFile = DefaultLogRotationRootDir + DefaultBaseLogRotationPath
	// DefaultInvokerLogRotationFile is the full default rotation path for the invoker logger.
	DefaultInvokerLogRotationFile = DefaultLogRotationRootDir + DefaultInvokerLogRotationPath
	// DefaultStatLogRotationFile is the full default rotation path for the stat logger.
	DefaultStatLogRotationFile = DefaultLogRotationRootDir + DefaultStatLogRotationPath
)
