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

// Package checkpoint reads metadata about the managed service's
// persisted checkpoints: it pulls checkpoint archives from peers,
// extracts the most recent checkpoint's timestamp on each side, and
// decides which side's checkpoint is more recent once clock skew is
// corrected for. It never touches checkpoint content.
package checkpoint

import (
	"strings"
	"time"

	"github.com/go-kit/kit/log"

	"soloist.io/internal/logging"
)

// listingTimeLayout is the two-field date+time format that both "ls
// --full-time" and "tar -tv --full-time" listings carry.
const listingTimeLayout = "2006-01-02 15:04:05"

// ExtractEpoch takes a line from a long ls listing or a verbose tar
// listing and returns the Unix timestamp built from the given date
// and time fields. ls listings carry fractional seconds, which are
// truncated. If the fields are missing or unrecognizable the line is
// logged and 0 is returned; extraction never fails past this
// boundary.
func ExtractEpoch(l log.Logger, line string, dateField int, timeField int) int64 {
	toks := strings.Fields(line)
	if dateField >= len(toks) || timeField >= len(toks) {
		logging.Warn(l, "op", "extractEpoch", "msg", "unable to build a timestamp", "line", line)
		return 0
	}

	clock := toks[timeField]
	if i := strings.IndexByte(clock, '.'); i >= 0 {
		clock = clock[:i]
	}

	t, err := time.ParseInLocation(listingTimeLayout, toks[dateField]+" "+clock, time.Local)
	if err != nil {
		logging.Warn(l, "op", "extractEpoch", "msg", "unable to build a timestamp", "date", toks[dateField], "time", clock)
		return 0
	}
	return t.Unix()
}
