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

package failover

import (
	"time"

	"github.com/go-kit/kit/log"

	"soloist.io/internal/config"
	"soloist.io/internal/logging"
)

// Prober reports whether the service is active on a host. An empty
// host means the local node.
type Prober interface {
	IsActive(host string) bool
}

// Activator starts and stops service instances. An empty host means
// the local node.
type Activator interface {
	Activate(host string) bool
	Deactivate(host string) bool
}

// Resolver picks the survivor of a two-active conflict.
type Resolver interface {
	Resolve(host string) Decision
}

// Controller is the periodic control loop. Each cycle it probes every
// node's liveness from scratch and acts on what it finds: exactly one
// active instance means nothing to do, two means conflict resolution,
// zero means self-activation after a priority-scaled backoff that
// gives higher-priority nodes first chance.
//
// The loop is strictly sequential: probes, resolutions, and
// activations happen one after another within a cycle, so there is no
// in-process locking. Blocking is bounded by the probe and command
// channel timeouts.
type Controller struct {
	logger    log.Logger
	self      string
	peers     []string
	priority  int
	heartbeat time.Duration
	priWait   time.Duration
	prober    Prober
	lifecycle Activator
	resolver  Resolver

	// sleep pauses between cycles and reports false when the loop
	// should stop. Replaceable in tests for deterministic scheduling.
	sleep func(time.Duration) bool
}

// NewController returns a Controller for the local node described by
// m. If error is non-nil then the controller object shouldn't be
// used.
func NewController(l log.Logger, cfg *config.Config, m *config.Membership, prober Prober, lifecycle Activator, resolver Resolver) *Controller {
	return &Controller{
		logger:    l,
		self:      m.Self,
		peers:     m.Peers,
		priority:  m.Priority,
		heartbeat: cfg.HeartbeatInterval,
		priWait:   cfg.PriorityWait,
		prober:    prober,
		lifecycle: lifecycle,
		resolver:  resolver,
	}
}

// Run executes poll cycles until stopCh is closed. It never returns
// on a runtime failure; every cycle re-evaluates the cluster from
// scratch.
func (c *Controller) Run(stopCh chan struct{}) {
	sleep := c.sleep
	if sleep == nil {
		sleep = func(d time.Duration) bool {
			t := time.NewTimer(d)
			defer t.Stop()
			select {
			case <-t.C:
				return true
			case <-stopCh:
				return false
			}
		}
	}

	priorityWait := false
	for {
		delay := c.heartbeat
		if priorityWait {
			// No instance anywhere. Give higher-priority nodes first
			// chance to start theirs.
			delay = time.Duration(c.priority) * c.priWait
		}
		if !sleep(delay) {
			logging.Info(c.logger, "op", "shutdown", "node", c.self, "msg", "control loop stopped")
			return
		}
		priorityWait = c.cycle(priorityWait)
	}
}

// cycle runs one poll iteration and returns whether the loop is in
// the priority-wait state afterwards.
func (c *Controller) cycle(priorityWait bool) bool {
	cycles.Inc()

	selfActive := c.prober.IsActive("")
	anyActive := selfActive

	for _, host := range c.peers {
		hostActive := c.prober.IsActive(host)

		// Split brain: this peer and we are both active. Resolve it,
		// deactivate the loser. Once we've ceded to a peer we're no
		// longer a contender, so later peers aren't compared.
		if selfActive && hostActive {
			conflicts.Inc()
			logging.Info(c.logger, "op", "resolve", "node", c.self, "peer", host, "msg", "split brain detected")

			decision := c.resolver.Resolve(host)
			if decision == KeepRemote {
				logging.Info(c.logger, "op", "resolve", "node", c.self, "peer", host, "decision", decision, "msg", "deactivating self")
				if !c.lifecycle.Deactivate("") {
					commandErrors.Inc()
				}
				deactivations.Inc()
				selfActive = false
			} else {
				logging.Info(c.logger, "op", "resolve", "node", c.self, "peer", host, "decision", decision, "msg", "deactivating peer")
				if !c.lifecycle.Deactivate(host) {
					commandErrors.Inc()
				}
				deactivations.Inc()
				hostActive = false
			}
		}

		anyActive = anyActive || hostActive
	}

	if !anyActive {
		// Nobody is running the service. The highest-priority node
		// starts immediately; everyone else waits out one backoff
		// first, and activates only if the cluster is still empty on
		// the re-poll.
		if priorityWait || c.priority == 0 {
			logging.Info(c.logger, "op", "activate", "node", c.self, "msg", "no active instance found, starting here")
			if c.lifecycle.Activate("") {
				activations.Inc()
				selfActive = true
			} else {
				commandErrors.Inc()
			}
			priorityWait = false
		} else {
			priorityWait = true
		}
	} else {
		priorityWait = false
	}

	if selfActive {
		activeBool.Set(1)
	} else {
		activeBool.Set(0)
	}
	return priorityWait
}
