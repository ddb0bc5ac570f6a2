// Copyright 2020 Acnodal Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package lifecycle starts and stops the managed service through the
// lifecycle backend's commands. All outcomes are boolean: a failure
// here is a signal for the next poll cycle, never a reason to stop
// the loop. The commands are idempotent from the caller's point of
// view; deactivating an already-inactive instance may report a benign
// failure, which callers treat as success of intent.
package lifecycle

import (
	"github.com/go-kit/kit/log"

	"soloist.io/internal/config"
	"soloist.io/internal/logging"
	"soloist.io/internal/remote"
)

// Controller issues activate/deactivate commands to local or remote
// nodes.
type Controller struct {
	logger     log.Logger
	exec       remote.Executor
	activate   string
	deactivate string
}

// NewController returns a Controller driving the configured lifecycle
// commands through the executor.
func NewController(l log.Logger, exec remote.Executor, cfg *config.Config) *Controller {
	return &Controller{
		logger:     l,
		exec:       exec,
		activate:   cfg.ActivateCommand,
		deactivate: cfg.DeactivateCommand,
	}
}

// Activate starts the service on host (locally when host is empty)
// and reports whether the command succeeded.
func (c *Controller) Activate(host string) bool {
	if err := c.exec.Run(host, c.activate); err != nil {
		logging.Warn(c.logger, "op", "activate", "host", host, "error", err)
		return false
	}
	logging.Info(c.logger, "op", "activate", "host", host, "msg", "service activated")
	return true
}

// Deactivate stops the service on host (locally when host is empty)
// and reports whether the command succeeded.
func (c *Controller) Deactivate(host string) bool {
	if err := c.exec.Run(host, c.deactivate); err != nil {
		logging.Warn(c.logger, "op", "deactivate", "host", host, "error", err)
		return false
	}
	logging.Info(c.logger, "op", "deactivate", "host", host, "msg", "service deactivated")
	return true
}
