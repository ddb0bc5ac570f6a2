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

// Package failover implements the control loop that keeps exactly one
// service instance active across the standby list, and the conflict
// resolution that picks a survivor when two instances are found
// running at once.
package failover

import (
	"github.com/go-kit/kit/log"

	"soloist.io/internal/checkpoint"
	"soloist.io/internal/logging"
)

// Decision is the outcome of resolving a two-active conflict.
type Decision int

const (
	// KeepSelf: the local instance stays, the peer is deactivated.
	KeepSelf Decision = iota
	// KeepRemote: the peer stays, the local instance is deactivated.
	KeepRemote
)

func (d Decision) String() string {
	if d == KeepRemote {
		return "keepRemote"
	}
	return "keepSelf"
}

// Checkpoints is the view of the checkpoint store the resolver needs.
type Checkpoints interface {
	Pull(host string) bool
	LatestRemote(host string) (int64, error)
	LatestLocal() (int64, error)
}

// Clock estimates wall-clock skew against a peer.
type Clock interface {
	Estimate(host string) (int64, error)
}

// ConflictResolver decides, when both the local node and a peer are
// running the service, which side must deactivate. Its failure
// defaults are deliberately asymmetric: an unreachable peer can't be
// trusted to take over (keep self), but a node whose own checkpoint
// sync is broken shouldn't serve from possibly-stale state (cede to
// the peer). Under combined failures these defaults can leave zero or
// two instances active for a cycle; the next cycle re-converges.
type ConflictResolver struct {
	logger log.Logger
	ckpts  Checkpoints
	clock  Clock
	self   string
}

// NewConflictResolver returns a resolver comparing checkpoints on
// behalf of the local node self.
func NewConflictResolver(l log.Logger, ckpts Checkpoints, clock Clock, self string) *ConflictResolver {
	return &ConflictResolver{logger: l, ckpts: ckpts, clock: clock, self: self}
}

// Resolve compares the local node's most recent checkpoint against
// host's and returns which side should stay active. Skew and
// checkpoint state are re-read on every call; nothing is cached
// between resolutions.
func (r *ConflictResolver) Resolve(host string) Decision {
	// Pull the peer's checkpoints first. If we can't, it shouldn't
	// take over.
	if !r.ckpts.Pull(host) {
		return KeepSelf
	}
	if !r.ckpts.Pull("") {
		logging.Warn(r.logger, "op", "resolve", "peer", host, "msg", "local checkpoint sync failed, ceding to peer")
		return KeepRemote
	}

	skew, err := r.clock.Estimate(host)
	if err != nil {
		logging.Warn(r.logger, "op", "resolve", "peer", host, "error", err, "msg", "could not estimate clock skew")
		return KeepSelf
	}

	remoteTS, err := r.ckpts.LatestRemote(host)
	if err != nil {
		logging.Warn(r.logger, "op", "resolve", "peer", host, "error", err, "msg", "unable to find checkpoint info")
		return KeepSelf
	}
	localTS, err := r.ckpts.LatestLocal()
	if err != nil {
		logging.Warn(r.logger, "op", "resolve", "peer", host, "error", err, "msg", "unable to find checkpoint info")
		return KeepSelf
	}

	if checkpoint.ShouldRemoteBeActive(remoteTS, localTS, skew, host, r.self) {
		return KeepRemote
	}
	return KeepSelf
}
