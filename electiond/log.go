// Copyright (c) 2017-2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/decred/slog"
	"github.com/jrick/logrotate/rotator"
	"github.com/tokenvote/tokenvote/electiond/backend/ledgerbe"
	"github.com/tokenvote/tokenvote/electiond/backend/ledgerbe/plugins/election"
	"github.com/tokenvote/tokenvote/electiond/backend/ledgerbe/plugins/token"
	"github.com/tokenvote/tokenvote/electiond/backend/ledgerbe/store/localdb"
	"github.com/tokenvote/tokenvote/electiond/backend/ledgerbe/store/mysql"
	"github.com/tokenvote/tokenvote/electiond/backend/ledgerbe/store/postgres"
	"github.com/tokenvote/tokenvote/electiond/websockets"
)

// logWriter implements an io.Writer that outputs to both standard output and
// the write-end pipe of an initialized log rotator.
type logWriter struct{}

func (logWriter) Write(p []byte) (n int, err error) {
	os.Stdout.Write(p)
	if logRotator == nil {
		return len(p), nil
	}
	return logRotator.Write(p)
}

// Loggers per subsystem. A single backend logger is created and all subsytem
// loggers created from it will write to the backend. When adding new
// subsystems, add the subsystem logger variable here and to the
// subsystemLoggers map.
//
// Loggers can not be used before the log rotator has been initialized with a
// log file. This must be performed early during application startup by
// calling initLogRotator.
var (
	// backendLog is the logging backend used to create all subsystem
	// loggers.
	backendLog = slog.NewBackend(logWriter{})

	// logRotator is one of the logging outputs. It should be closed on
	// application shutdown.
	logRotator *rotator.Rotator

	log         = backendLog.Logger("ELCD")
	ledgerbeLog = backendLog.Logger("BACK")
	storeLog    = backendLog.Logger("STOR")
	tokenLog    = backendLog.Logger("TOKN")
	electionLog = backendLog.Logger("ELEC")
	wsLog       = backendLog.Logger("WSKT")
)

// Initialize package-global logger variables.
func init() {
	ledgerbe.UseLogger(ledgerbeLog)
	localdb.UseLogger(storeLog)
	mysql.UseLogger(storeLog)
	postgres.UseLogger(storeLog)
	token.UseLogger(tokenLog)
	election.UseLogger(electionLog)
	websockets.UseLogger(wsLog)
}

// subsystemLoggers maps each subsystem identifier to its associated logger.
var subsystemLoggers = map[string]slog.Logger{
	"ELCD": log,
	"BACK": ledgerbeLog,
	"STOR": storeLog,
	"TOKN": tokenLog,
	"ELEC": electionLog,
	"WSKT": wsLog,
}

// initLogRotator initializes the logging rotater to write logs to logFile
// and create roll files in the same directory. It must be called before the
// package-global log rotater variables are used.
func initLogRotator(logFile string) {
	logDir, _ := filepath.Split(logFile)
	err := os.MkdirAll(logDir, 0700)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create log directory: %v\n", err)
		os.Exit(1)
	}
	r, err := rotator.New(logFile, 10*1024, false, 8)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create file rotator: %v\n", err)
		os.Exit(1)
	}

	logRotator = r
}

// setLogLevel sets the logging level for provided subsystem. Invalid
// subsystems are ignored.
func setLogLevel(subsystemID string, logLevel string) {
	logger, ok := subsystemLoggers[subsystemID]
	if !ok {
		return
	}

	// Defaults to info if the log level is invalid.
	level, _ := slog.LevelFromString(logLevel)
	logger.SetLevel(level)
}

// setLogLevels sets the log level for all subsystem loggers to the passed
// level.
func setLogLevels(logLevel string) {
	for subsystemID := range subsystemLoggers {
		setLogLevel(subsystemID, logLevel)
	}
}

// logClosure is a closure that can be printed with %v to be used to
// generate expensive-to-create data for a detailed log level and avoid doing
// the work if the data isn't printed.
type logClosure func() string

func (c logClosure) String() string {
	return c()
}

func newLogClosure(c func() string) logClosure {
	return logClosure(c)
}
