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

// Package probe answers one question: is a service instance active on
// a given node right now? Answers are never cached; a probe result is
// only trusted for the poll cycle that asked for it.
package probe

import (
	"bytes"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-kit/kit/log"

	"soloist.io/internal/logging"
)

// DefaultTimeout bounds the whole probe exchange. A hung endpoint
// must never stall the control loop.
const DefaultTimeout = 3 * time.Second

// Prober reports whether the service is active on a host. An empty
// host means the local node.
type Prober interface {
	IsActive(host string) bool
}

// HTTP probes the service's API endpoint: it POSTs "ping" and treats
// the instance as active iff the response body contains "pong"
// (case-insensitively) within the timeout. Every failure mode
// collapses to "not active": a false negative costs a redundant,
// idempotent activation attempt, whereas an error propagated here
// would have to stop the loop.
type HTTP struct {
	logger log.Logger
	client *http.Client
	port   int
}

// NewHTTP returns a Prober for service endpoints on the given port.
func NewHTTP(l log.Logger, port int) *HTTP {
	return &HTTP{
		logger: l,
		client: &http.Client{Timeout: DefaultTimeout},
		port:   port,
	}
}

func (p *HTTP) IsActive(host string) bool {
	if host == "" {
		host = "localhost"
	}
	url := "http://" + net.JoinHostPort(host, strconv.Itoa(p.port)) + "/api"

	resp, err := p.client.Post(url, "text/plain", strings.NewReader("ping"))
	if err != nil {
		probeFailures.WithLabelValues(host).Inc()
		return false
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		probeFailures.WithLabelValues(host).Inc()
		return false
	}

	if !bytes.Contains(bytes.ToLower(body), []byte("pong")) {
		logging.Warn(p.logger, "op", "probe", "host", host, "msg", "unexpected ping response", "body", string(body))
		probeFailures.WithLabelValues(host).Inc()
		return false
	}
	return true
}
