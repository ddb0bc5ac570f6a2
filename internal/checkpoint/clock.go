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
	"strconv"
	"strings"

	"github.com/go-kit/kit/log"

	"soloist.io/internal/remote"
)

// clockCommand prints the node's wall clock as Unix seconds.
const clockCommand = "date +%s"

// SkewEstimator measures the wall-clock offset between the local node
// and a peer. The estimate is recomputed for every conflict
// resolution: skew drifts, and the peer changes.
type SkewEstimator struct {
	logger log.Logger
	exec   remote.Executor
}

// NewSkewEstimator returns a SkewEstimator reading clocks over the
// command channel.
func NewSkewEstimator(l log.Logger, exec remote.Executor) *SkewEstimator {
	return &SkewEstimator{logger: l, exec: exec}
}

// Estimate returns local minus remote wall-clock seconds. Any failure
// to read either clock is an error: a skew silently defaulted to zero
// could tip the recency comparison the wrong way.
func (s *SkewEstimator) Estimate(host string) (int64, error) {
	remoteClock, err := s.readClock(host)
	if err != nil {
		return 0, fmt.Errorf("reading clock on %s: %w", host, err)
	}
	localClock, err := s.readClock("")
	if err != nil {
		return 0, fmt.Errorf("reading local clock: %w", err)
	}
	return localClock - remoteClock, nil
}

func (s *SkewEstimator) readClock(host string) (int64, error) {
	out, err := s.exec.Output(host, clockCommand)
	if err != nil {
		return 0, err
	}
	secs, err := strconv.ParseInt(strings.TrimSpace(string(out)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing clock reading %q: %w", strings.TrimSpace(string(out)), err)
	}
	return secs, nil
}
