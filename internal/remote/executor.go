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

// Package remote provides the command channel through which the
// controller drives the lifecycle backend, the checkpoint sync
// mechanism, and remote clock reads. Commands are shell command
// lines; the exit status is the only result contract, stdout the
// only data contract.
package remote

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
	"time"

	"github.com/go-kit/kit/log"
	"golang.org/x/crypto/ssh"

	"soloist.io/internal/logging"
)

// Executor runs a command line on a named host. An empty host means
// local execution. A non-nil error includes non-zero exit status.
type Executor interface {
	// Output runs the command and returns its stdout.
	Output(host string, command string) ([]byte, error)

	// Run runs the command, discarding output.
	Run(host string, command string) error
}

// SSH is an Executor that reaches remote hosts over SSH and runs
// local commands under /bin/sh. Both sides see the same command line
// verbatim, so quoting behaves identically locally and remotely.
type SSH struct {
	logger  log.Logger
	user    string
	auth    []ssh.AuthMethod
	timeout time.Duration
}

// NewSSH returns an Executor authenticating as user with the private
// key in keyFile. The timeout bounds connection setup and local
// command execution; a command that hangs after its session is
// established blocks the caller, which the control loop tolerates
// (the transport is expected to enforce its own liveness).
func NewSSH(l log.Logger, user string, keyFile string, timeout time.Duration) (*SSH, error) {
	key, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, fmt.Errorf("reading ssh key %s: %w", keyFile, err)
	}
	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("parsing ssh key %s: %w", keyFile, err)
	}

	return &SSH{
		logger:  l,
		user:    user,
		auth:    []ssh.AuthMethod{ssh.PublicKeys(signer)},
		timeout: timeout,
	}, nil
}

func (e *SSH) Output(host string, command string) ([]byte, error) {
	if host == "" {
		return e.localOutput(command)
	}

	client, err := ssh.Dial("tcp", net.JoinHostPort(host, "22"), &ssh.ClientConfig{
		User: e.user,
		Auth: e.auth,
		// Standby nodes come and go; host keys aren't pinned.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         e.timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", host, err)
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("opening session on %s: %w", host, err)
	}
	defer session.Close()

	out, err := session.Output(command)
	if err != nil {
		logging.Warn(e.logger, "op", "remoteCommand", "host", host, "command", command, "error", err)
		return out, fmt.Errorf("running %q on %s: %w", command, host, err)
	}
	return out, nil
}

func (e *SSH) Run(host string, command string) error {
	_, err := e.Output(host, command)
	return err
}

func (e *SSH) localOutput(command string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, "/bin/sh", "-c", command).Output()
	if err != nil {
		logging.Warn(e.logger, "op", "localCommand", "command", command, "error", err)
		return out, fmt.Errorf("running %q locally: %w", command, err)
	}
	return out, nil
}
