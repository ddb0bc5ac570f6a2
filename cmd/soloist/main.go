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

// soloist keeps exactly one instance of a stateful service active
// across the nodes in its standby list. It polls every node's
// liveness endpoint each heartbeat; when two instances are found it
// deactivates the one with the older checkpoint, and when none are
// found it activates the local one after a priority-scaled backoff.
package main

import (
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"soloist.io/internal/checkpoint"
	"soloist.io/internal/config"
	"soloist.io/internal/failover"
	"soloist.io/internal/lifecycle"
	"soloist.io/internal/logging"
	"soloist.io/internal/probe"
	"soloist.io/internal/remote"
)

func main() {
	logger := logging.Init()

	cfg := config.FromEnvironment()

	var (
		nodeName    = flag.String("node-name", os.Getenv("SOLOIST_NODE_NAME"), "this node's name exactly as it appears in the standby list (default: the system hostname, which may be short where the list holds FQDNs)")
		standbyList = flag.String("standby-list", cfg.StandbyListPath, "path to the standby list file, one node per line in priority order")
		metricsHost = flag.String("metrics-host", os.Getenv("SOLOIST_METRICS_HOST"), "HTTP host address for Prometheus metrics")
		metricsPort = flag.Int("metrics-port", 7472, "HTTP listening port for Prometheus metrics")
	)
	flag.Parse()

	if *nodeName == "" {
		hostname, err := os.Hostname()
		if err != nil {
			logging.Crit(logger, "op", "startup", "error", err, "msg", "cannot determine local hostname")
			os.Exit(2)
		}
		*nodeName = hostname
	}

	// Read the standby list once; membership and priority are fixed
	// for the life of the process. A node that isn't in the list has
	// no business running the controller, so that's fatal.
	file, err := os.Open(*standbyList)
	if err != nil {
		logging.Crit(logger, "op", "startup", "error", err, "msg", "cannot read standby list")
		os.Exit(2)
	}
	list, err := config.ParseStandbyList(file)
	file.Close()
	if err != nil {
		logging.Crit(logger, "op", "startup", "error", err, "msg", "cannot read standby list")
		os.Exit(2)
	}
	membership, err := config.NewMembership(list, *nodeName)
	if err != nil {
		logging.Crit(logger, "op", "startup", "error", err, "standby-list", *standbyList, "msg", "invalid cluster membership")
		os.Exit(2)
	}

	logging.Info(logger, "op", "startup", "node", membership.Self, "priority", membership.Priority, "peers", strings.Join(membership.Peers, ","))

	executor, err := remote.NewSSH(logger, cfg.RunUser, cfg.SSHKeyFile, cfg.CommandTimeout)
	if err != nil {
		logging.Crit(logger, "op", "startup", "error", err, "msg", "failed to create command executor")
		os.Exit(1)
	}

	prober := probe.NewHTTP(logger, cfg.APIPort)
	store := checkpoint.NewStore(logger, executor, cfg)
	clock := checkpoint.NewSkewEstimator(logger, executor)
	lc := lifecycle.NewController(logger, executor, cfg)
	resolver := failover.NewConflictResolver(logger, store, clock, membership.Self)
	controller := failover.NewController(logger, cfg, membership, prober, lc, resolver)

	stopCh := make(chan struct{})
	go func() {
		c1 := make(chan os.Signal, 1)
		signal.Notify(c1, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)
		<-c1
		logging.Info(logger, "op", "shutdown", "msg", "signal received, initiating shutdown")
		signal.Stop(c1)
		close(stopCh)
	}()

	go failover.RunMetrics(*metricsHost, *metricsPort)

	// Runs until stopCh closes; runtime failures are logged and
	// retried on the next cycle, never fatal.
	controller.Run(stopCh)

	logging.Info(logger, "op", "shutdown", "msg", "shutdown complete")
}
