// Package logging sets up structured logging in a uniform way.
package logging

import (
	"os"

	"github.com/go-kit/kit/log"
)

// Provided by ldflags during build
var (
	release string
	commit  string
	branch  string
)

// Init returns a logger configured with common settings like
// timestamping and source code locations.
//
// Init must be called as early as possible in main(), before any
// application-specific logging occurs.
func Init() log.Logger {
	l := log.NewJSONLogger(log.NewSyncWriter(os.Stdout))

	logger := log.With(l, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)

	logger.Log("release", release, "commit", commit, "git-branch", branch, "msg", "Starting")

	return logger
}

// Info logs keyvals tagged at info level.
func Info(logger log.Logger, keyvals ...interface{}) error {
	return log.WithPrefix(logger, "level", "info").Log(keyvals...)
}

// Warn logs keyvals tagged at warning level.
func Warn(logger log.Logger, keyvals ...interface{}) error {
	return log.WithPrefix(logger, "level", "warn").Log(keyvals...)
}

// Crit logs keyvals tagged at critical level, i.e., failures that the
// process can't recover from such as startup configuration errors.
func Crit(logger log.Logger, keyvals ...interface{}) error {
	return log.WithPrefix(logger, "level", "crit").Log(keyvals...)
}
