// SPDX-License-Identifier: MIT

package main

import (
	"net/http"

	"github.com/go-kit/kit/log/level"
	kitprom "github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// systemEvents counts accept/reject events per node.
var systemEvents = kitprom.NewCounterFrom(stdprometheus.CounterOpts{
	Namespace: "collapse",
	Subsystem: "node",
	Name:      "events",
	Help:      "accept/reject events by kind and node",
}, []string{"event", "node"})

func startDebug(addr string) {
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		err := http.ListenAndServe(addr, nil)
		level.Warn(log).Log("event", "debug listener exited", "addr", addr, "err", err)
	}()
}
