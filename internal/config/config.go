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

// Package "config" provides code for parsing and validating
// configuration data: the environment-derived settings and the
// standby list that defines cluster membership and priority.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Defaults for the environment-derived settings. Every one of them
// can be overridden by the environment variable named alongside it.
const (
	DefaultRootDir           = "/var"                 // SOLOIST_ROOT
	DefaultEtcDir            = "/etc/soloist"         // SOLOIST_ETCD
	DefaultAPIPort           = 26502                  // SOLOIST_PORT
	DefaultRunUser           = "soloist"              // SOLOIST_USER
	DefaultHeartbeatInterval = 5 * time.Second        // SOLOIST_HEARTBEAT
	DefaultPriorityWait      = 5 * time.Second        // SOLOIST_PRI_WAIT
	DefaultCommandTimeout    = 30 * time.Second       // SOLOIST_CMD_TIMEOUT
	DefaultCheckpointPrefix  = "resmgr_"              // SOLOIST_CKPT_PREFIX

	// Commands handed to the service lifecycle backend. They're
	// opaque to the controller: it only looks at the exit status.
	DefaultActivateCommand   = "/usr/bin/soloist_standby off; /usr/bin/start_soloist" // SOLOIST_ACTIVATE_CMD
	DefaultDeactivateCommand = "/usr/bin/soloist_standby on; killall soloist"         // SOLOIST_DEACTIVATE_CMD
	DefaultSyncCommand       = "/usr/bin/soloist_synch"                               // SOLOIST_SYNC_CMD
)

// Config holds the settings shared by the controller's components.
// It's built once at startup and never modified afterwards.
type Config struct {
	// RootDir is the service root directory.
	RootDir string

	// LibDir holds the service's runtime data, including the synced
	// checkpoint archives pulled from peers.
	LibDir string

	// LogDir is where the managed service writes its logs. The
	// controller itself logs to stdout but the directory is part of
	// the configuration surface shared with the lifecycle backend.
	LogDir string

	// EtcDir holds the controller's configuration, notably the
	// standby list.
	EtcDir string

	// CheckpointDir is where the managed service persists its
	// checkpoint files.
	CheckpointDir string

	// CheckpointPrefix is the file-name prefix that identifies
	// checkpoint files among whatever else lives in CheckpointDir.
	CheckpointPrefix string

	// StandbyListPath is the file listing the cluster's nodes in
	// priority order, one per line.
	StandbyListPath string

	// APIPort is the port on which each node's service instance
	// answers liveness pings.
	APIPort int

	// RunUser is the account used for remote command execution.
	RunUser string

	// SSHKeyFile is the private key used to authenticate remote
	// command execution.
	SSHKeyFile string

	// HeartbeatInterval is the poll cycle period.
	HeartbeatInterval time.Duration

	// PriorityWait is the backoff unit: when no instance is active a
	// node waits priority*PriorityWait before activating itself.
	PriorityWait time.Duration

	// CommandTimeout bounds connection setup and local command
	// execution on the command channel.
	CommandTimeout time.Duration

	// Lifecycle backend commands.
	ActivateCommand   string
	DeactivateCommand string
	SyncCommand       string
}

// FromEnvironment returns a Config populated with the documented
// defaults, each overridden by its environment variable if set.
// Derived directories (LibDir, LogDir, CheckpointDir) follow their
// parents unless overridden explicitly.
func FromEnvironment() *Config {
	root := stringEnv("SOLOIST_ROOT", DefaultRootDir)
	lib := stringEnv("SOLOIST_LIBD", filepath.Join(root, "lib", "soloist"))
	etc := stringEnv("SOLOIST_ETCD", DefaultEtcDir)

	return &Config{
		RootDir:           root,
		LibDir:            lib,
		LogDir:            stringEnv("SOLOIST_LOGD", filepath.Join(root, "log", "soloist")),
		EtcDir:            etc,
		CheckpointDir:     stringEnv("SOLOIST_CKPTD", filepath.Join(lib, "chkpt")),
		CheckpointPrefix:  stringEnv("SOLOIST_CKPT_PREFIX", DefaultCheckpointPrefix),
		StandbyListPath:   stringEnv("SOLOIST_STANDBY_LIST", filepath.Join(etc, "standby_list")),
		APIPort:           intEnv("SOLOIST_PORT", DefaultAPIPort),
		RunUser:           stringEnv("SOLOIST_USER", DefaultRunUser),
		SSHKeyFile:        stringEnv("SOLOIST_SSH_KEY", filepath.Join("/home", stringEnv("SOLOIST_USER", DefaultRunUser), ".ssh", "id_rsa")),
		HeartbeatInterval: durationEnv("SOLOIST_HEARTBEAT", DefaultHeartbeatInterval),
		PriorityWait:      durationEnv("SOLOIST_PRI_WAIT", DefaultPriorityWait),
		CommandTimeout:    durationEnv("SOLOIST_CMD_TIMEOUT", DefaultCommandTimeout),
		ActivateCommand:   stringEnv("SOLOIST_ACTIVATE_CMD", DefaultActivateCommand),
		DeactivateCommand: stringEnv("SOLOIST_DEACTIVATE_CMD", DefaultDeactivateCommand),
		SyncCommand:       stringEnv("SOLOIST_SYNC_CMD", DefaultSyncCommand),
	}
}

func stringEnv(envVar string, defaultVal string) string {
	if val := os.Getenv(envVar); val != "" {
		return val
	}
	return defaultVal
}

func intEnv(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}

// durationEnv parses a duration from an environment variable,
// returning the default if the env var is not set or cannot be
// parsed.
func durationEnv(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}
