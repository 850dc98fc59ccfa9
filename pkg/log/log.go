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

// Package log holds the process-wide logger slots used by the cluster dispatch
// engine and the extension registry. Concrete loggers are supplied by a Logger
// capability plugin (see plugin/logger/zaplog); this package only stores and
// serves the active instances.
package log

import (
	"fmt"
	"log"
	"sync/atomic"

	"github.com/hashicorp/go-multierror"
	"github.com/modern-go/reflect2"
)

const (
	// LoggerZap is the name of the zap-backed Logger plugin.
	LoggerZap = "zaplog"
)

// Logger is the logging capability every other component writes through.
type Logger interface {
	Tracef(format string, args ...interface{})
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
	IsLevelEnabled(l int) bool
	SetLogLevel(l int) error
}

// DirLogger is a Logger that additionally knows its own rotation directory.
type DirLogger interface {
	Logger
	GetLogDir() string
}

const (
	TraceLog int = iota
	DebugLog
	InfoLog
	WarnLog
	ErrorLog
	FatalLog
	// NoneLog disables logging entirely.
	NoneLog

	minLogLevel = TraceLog
	maxLogLevel = NoneLog
)

var logContainer = newContainer()

// SeverityName renders a log level as its textual severity.
var SeverityName = []string{
	TraceLog: "TRACE",
	DebugLog: "DEBUG",
	InfoLog:  "INFO",
	WarnLog:  "WARNING",
	ErrorLog: "ERROR",
	FatalLog: "FATAL",
}

func newContainer() *container {
	cont := &container{
		loggers: make([]*atomic.Value, 0, MaxLogger),
	}
	for i := 0; i < MaxLogger; i++ {
		cont.loggers = append(cont.loggers, &atomic.Value{})
	}
	return cont
}

const (
	// BaseLogger is the general-purpose logger used by most components.
	BaseLogger = iota
	// InvokerLogger records cluster-invoker dispatch decisions (retries,
	// fork timeouts, fail-safe swallows).
	InvokerLogger
	// StatLogger records load-balancer and router diagnostics.
	StatLogger
	// MaxLogger is the number of logger slots.
	MaxLogger
)

type container struct {
	loggers []*atomic.Value
}

func (c *container) set(slot int, logger Logger) {
	c.loggers[slot].Store(&logger)
}

func (c *container) get(slot int) Logger {
	value := c.loggers[slot].Load()
	if reflect2.IsNil(value) {
		return nil
	}
	return *(value.(*Logger))
}

// SetBaseLogger installs the process-wide base logger.
func SetBaseLogger(logger Logger) { logContainer.set(BaseLogger, logger) }

// SetInvokerLogger installs the cluster-invoker diagnostics logger.
func SetInvokerLogger(logger Logger) { logContainer.set(InvokerLogger, logger) }

// SetStatLogger installs the router/load-balancer diagnostics logger.
func SetStatLogger(logger Logger) { logContainer.set(StatLogger, logger) }

// nopLogger discards everything; the getters hand it out while no logger is set.
type nopLogger struct{}

func (nopLogger) Tracef(string, ...interface{}) {}
func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Fatalf(string, ...interface{}) {}
func (nopLogger) IsLevelEnabled(int) bool       { return false }
func (nopLogger) SetLogLevel(int) error         { return nil }

// GetBaseLogger returns the process-wide base logger, or a logger that
// discards everything if unset.
func GetBaseLogger() Logger {
	if l := logContainer.get(BaseLogger); l != nil {
		return l
	}
	return nopLogger{}
}

// GetInvokerLogger returns the cluster-invoker diagnostics logger, falling
// back to the base logger when none was configured.
func GetInvokerLogger() Logger {
	if l := logContainer.get(InvokerLogger); l != nil {
		return l
	}
	return GetBaseLogger()
}

// GetStatLogger returns the router/load-balancer diagnostics logger, falling
// back to the base logger when none was configured.
func GetStatLogger() Logger {
	if l := logContainer.get(StatLogger); l != nil {
		return l
	}
	return GetBaseLogger()
}

// Options configures one logger instance.
type Options struct {
	// OutputPaths is a list of file system paths to write log data to. The
	// special values stdout and stderr write to the standard I/O streams.
	OutputPaths []string

	// ErrorOutputPaths is where logger-internal errors are written.
	ErrorOutputPaths []string

	// RotateOutputPath is the base path for a rotating log file.
	RotateOutputPath string

	// RotationMaxSize is, in MB, the size at which the file rotates.
	RotationMaxSize int

	// RotationMaxAge is, in days, how long rotated files are kept.
	RotationMaxAge int

	// RotationMaxBackups is how many rotated files are retained.
	RotationMaxBackups int

	// LogLevel is the minimum level that is actually emitted.
	LogLevel int
}

// VerifyLogLevel checks that a level is within the valid range.
func VerifyLogLevel(level int) error {
	if level < minLogLevel || level > maxLogLevel {
		return fmt.Errorf("logLevel must be in [%d, %d], now is %d", minLogLevel, maxLogLevel, level)
	}
	return nil
}

// Verify checks that every required option was set.
func (o Options) Verify() error {
	var errs error
	if len(o.RotateOutputPath) == 0 {
		errs = multierror.Append(errs, fmt.Errorf("RotateOutputPath is required"))
	}
	if o.RotationMaxBackups == 0 {
		errs = multierror.Append(errs, fmt.Errorf("RotationMaxBackups is required"))
	}
	if o.RotationMaxAge == 0 {
		errs = multierror.Append(errs, fmt.Errorf("RotationMaxAge is required"))
	}
	if o.RotationMaxSize == 0 {
		errs = multierror.Append(errs, fmt.Errorf("RotationMaxSize is required"))
	}
	if err := VerifyLogLevel(o.LogLevel); err != nil {
		errs = multierror.Append(errs, err)
	}
	return errs
}

type loggerCreator func(string, *Options, int) (Logger, error)

var loggerCreators = make(map[string]loggerCreator)

// RegisterLoggerCreator registers a Logger plugin under name. Registering the
// default logger name immediately wires up the base/invoker/stat loggers with
// their default rotation paths.
func RegisterLoggerCreator(name string, creator loggerCreator) {
	loggerCreators[name] = creator
	if name != DefaultLogger {
		return
	}
	var errs error
	if err := ConfigDefaultBaseLogger(name); err != nil {
		errs = multierror.Append(errs, multierror.Prefix(err, "fail to create default base logger"))
	}
	if err := ConfigDefaultInvokerLogger(name); err != nil {
		errs = multierror.Append(errs, multierror.Prefix(err, "fail to create default invoker logger"))
	}
	if err := ConfigDefaultStatLogger(name); err != nil {
		errs = multierror.Append(errs, multierror.Prefix(err, "fail to create default stat logger"))
	}
	if errs != nil {
		log.Fatalf("RegisterLoggerCreator failed, errs is %v", errs)
	}
}

func configLogger(pluginName, loggerName string, options *Options, defaultLevel int) (Logger, error) {
	if err := options.Verify(); err != nil {
		return nil, fmt.Errorf("configLogger: invalid options %+v: %w", *options, err)
	}
	creator, ok := loggerCreators[pluginName]
	if !ok {
		return nil, fmt.Errorf("configLogger: plugin name %s not registered", pluginName)
	}
	logger, err := creator(loggerName, options, defaultLevel)
	if err != nil {
		return nil, fmt.Errorf("configLogger: fail to create logger for plugin %s: %w", pluginName, err)
	}
	return logger, nil
}

// ConfigBaseLogger installs the base logger from the named plugin.
func ConfigBaseLogger(pluginName string, options *Options) error {
	logger, err := configLogger(pluginName, baseLoggerName, options, DefaultBaseLogLevel)
	if err != nil {
		return err
	}
	SetBaseLogger(logger)
	return nil
}

// ConfigInvokerLogger installs the invoker diagnostics logger from the named plugin.
func ConfigInvokerLogger(pluginName string, options *Options) error {
	logger, err := configLogger(pluginName, invokerLoggerName, options, DefaultInvokerLogLevel)
	if err != nil {
		return err
	}
	SetInvokerLogger(logger)
	return nil
}

// ConfigStatLogger installs the router/load-balancer diagnostics logger from the named plugin.
func ConfigStatLogger(pluginName string, options *Options) error {
	logger, err := configLogger(pluginName, statLoggerName, options, DefaultStatLogLevel)
	if err != nil {
		return err
	}
	SetStatLogger(logger)
	return nil
}

// CreateDefaultLoggerOptions builds the default rotation options for one logger.
func CreateDefaultLoggerOptions(rotationPath string, logLevel int) *Options {
	return &Options{
		ErrorOutputPaths:   []string{DefaultErrorOutputPath},
		RotateOutputPath:   rotationPath,
		RotationMaxSize:    DefaultRotationMaxSize,
		RotationMaxAge:     DefaultRotationMaxAge,
		RotationMaxBackups: DefaultRotationMaxBackups,
		LogLevel:           logLevel,
	}
}

// ConfigDefaultBaseLogger installs the base logger with its default rotation path.
func ConfigDefaultBaseLogger(pluginName string) error {
	return ConfigBaseLogger(pluginName, CreateDefaultLoggerOptions(DefaultBaseLogRotationFile, DefaultBaseLogLevel))
}

// ConfigDefaultInvokerLogger installs the invoker logger with its default rotation path.
func ConfigDefaultInvokerLogger(pluginName string) error {
	return ConfigInvokerLogger(pluginName,
		CreateDefaultLoggerOptions(DefaultInvokerLogRotationFile, DefaultInvokerLogLevel))
}

// ConfigDefaultStatLogger installs the stat logger with its default rotation path.
func ConfigDefaultStatLogger(pluginName string) error {
	return ConfigStatLogger(pluginName, CreateDefaultLoggerOptions(DefaultStatLogRotationFile, DefaultStatLogLevel))
}
