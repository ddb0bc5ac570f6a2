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

package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrNotInStandbyList is returned by NewMembership when the local
// node doesn't appear in the standby list. It's the one configuration
// error the controller can't run past.
var ErrNotInStandbyList = errors.New("local node not present in standby list")

// Membership is the local node's place in the cluster, derived once
// at startup from the standby list.
type Membership struct {
	// Self is the local node's name as it appears in the standby list.
	Self string

	// Peers are the other nodes, in standby-list order.
	Peers []string

	// Priority is Self's index in the standby list. 0 is the highest
	// priority: that node activates itself without any backoff wait
	// when no instance is running.
	Priority int
}

// ParseStandbyList reads a newline-separated list of node names.
// Leading and trailing whitespace is trimmed and blank lines are
// skipped; order is preserved because it defines priority.
func ParseStandbyList(r io.Reader) ([]string, error) {
	var nodes []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		node := strings.TrimSpace(scanner.Text())
		if node == "" {
			continue
		}
		nodes = append(nodes, node)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading standby list: %w", err)
	}
	return nodes, nil
}

// NewMembership locates self in the standby list and splits the list
// into priority and peers. Self must appear exactly once.
func NewMembership(list []string, self string) (*Membership, error) {
	m := Membership{Self: self, Priority: -1}

	for i, node := range list {
		if node != self {
			m.Peers = append(m.Peers, node)
			continue
		}
		if m.Priority >= 0 {
			return nil, fmt.Errorf("node %q appears more than once in standby list", self)
		}
		m.Priority = i
	}

	if m.Priority < 0 {
		return nil, fmt.Errorf("%w: %q", ErrNotInStandbyList, self)
	}
	return &m, nil
}
