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
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const subsystem = "failover"

var (
	cycles = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "soloist",
		Subsystem: subsystem,
		Name:      "cycles_total",
		Help:      "Number of poll cycles that have run.",
	})

	conflicts = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "soloist",
		Subsystem: subsystem,
		Name:      "conflicts_total",
		Help:      "Number of split-brain conflicts detected.",
	})

	activations = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "soloist",
		Subsystem: subsystem,
		Name:      "activations_total",
		Help:      "Number of successful local service activations.",
	})

	deactivations = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "soloist",
		Subsystem: subsystem,
		Name:      "deactivations_total",
		Help:      "Number of deactivations issued to resolve conflicts.",
	})

	commandErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "soloist",
		Subsystem: subsystem,
		Name:      "command_errors_total",
		Help:      "Number of lifecycle commands that reported failure.",
	})

	activeBool = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "soloist",
		Subsystem: subsystem,
		Name:      "active_bool",
		Help:      "1 if the local service instance was active at the end of the last cycle.",
	})
)

func init() {
	prometheus.MustRegister(cycles)
	prometheus.MustRegister(conflicts)
	prometheus.MustRegister(activations)
	prometheus.MustRegister(deactivations)
	prometheus.MustRegister(commandErrors)
	prometheus.MustRegister(activeBool)
}

// RunMetrics runs the metrics server. It doesn't ever return.
func RunMetrics(metricsHost string, metricsPort int) {
	http.Handle("/metrics", promhttp.Handler())
	http.ListenAndServe(fmt.Sprintf("%s:%d", metricsHost, metricsPort), nil)
}
