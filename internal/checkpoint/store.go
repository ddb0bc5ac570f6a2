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

package checkpoint

import (
	"fmt"
	"strings"

	"github.com/go-kit/kit/log"

	"soloist.io/internal/config"
	"soloist.io/internal/logging"
	"soloist.io/internal/remote"
)

// Field positions of the date and time in the two listing formats we
// read timestamps from. Remote checkpoints arrive inside synced tar
// archives, local ones are listed straight from the checkpoint
// directory.
const (
	tarDateField = 3
	tarTimeField = 4
	lsDateField  = 5
	lsTimeField  = 6
)

// Store reads checkpoint timestamps for the local node and, after a
// sync pull, for one peer at a time. The checkpoint files themselves
// belong to the managed service; the store only looks at listings.
type Store struct {
	logger  log.Logger
	exec    remote.Executor
	libDir  string
	ckptDir string
	prefix  string
	sync    string
}

// NewStore returns a Store using the executor for sync pulls and
// listing commands.
func NewStore(l log.Logger, exec remote.Executor, cfg *config.Config) *Store {
	return &Store{
		logger:  l,
		exec:    exec,
		libDir:  cfg.LibDir,
		ckptDir: cfg.CheckpointDir,
		prefix:  cfg.CheckpointPrefix,
		sync:    cfg.SyncCommand,
	}
}

// Pull runs the checkpoint sync command on host (locally when host is
// empty), making that node's latest checkpoint archive available in
// the local lib directory. It reports success as a boolean: a failed
// pull is an expected condition that the conflict resolver turns into
// a conservative decision, not an error.
func (s *Store) Pull(host string) bool {
	if err := s.exec.Run(host, s.sync); err != nil {
		logging.Warn(s.logger, "op", "pull", "msg", "could not sync checkpoints", "host", host, "error", err)
		return false
	}
	return true
}

// LatestRemote returns the timestamp of host's most recent checkpoint
// as found in the most recently synced archive from that host. Pull
// must have succeeded for host first. An empty listing is an error; a
// present but unparseable listing line yields the zero sentinel.
func (s *Store) LatestRemote(host string) (int64, error) {
	// The archive is named with the peer's short name.
	short := host
	if i := strings.IndexByte(short, '.'); i >= 0 {
		short = short[:i]
	}

	// List the members of the newest archive from host, keep the
	// checkpoint files, newest first. Runs locally: the archive was
	// pulled into our lib directory.
	cmd := fmt.Sprintf(
		"tar -t -v --full-time -f $( ls -t %s/chkpt_synch.%s.*.tgz | head -1 ) | (grep %s | sort -r -k 4,5 | head -1) 2>/dev/null",
		s.libDir, short, s.prefix)

	out, err := s.exec.Output("", cmd)
	if err != nil {
		return 0, fmt.Errorf("listing synced checkpoints from %s: %w", host, err)
	}
	line := strings.TrimSpace(string(out))
	if line == "" {
		return 0, fmt.Errorf("no synced checkpoint found for %s", host)
	}
	return ExtractEpoch(s.logger, line, tarDateField, tarTimeField), nil
}

// LatestLocal returns the timestamp of the local node's most recent
// checkpoint file. An empty listing is an error; an unparseable
// listing line yields the zero sentinel.
func (s *Store) LatestLocal() (int64, error) {
	// -F marks directories with a trailing slash so grep can drop
	// them; only plain checkpoint files count.
	cmd := fmt.Sprintf(`ls --full-time -tF %s/%s* | grep -v "/$" 2>/dev/null | head -1`,
		s.ckptDir, s.prefix)

	out, err := s.exec.Output("", cmd)
	if err != nil {
		return 0, fmt.Errorf("listing local checkpoints: %w", err)
	}
	line := strings.TrimSpace(string(out))
	if line == "" {
		return 0, fmt.Errorf("no local checkpoint found in %s", s.ckptDir)
	}
	return ExtractEpoch(s.logger, line, lsDateField, lsTimeField), nil
}
