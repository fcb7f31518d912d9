// Copyright 2024 The flowql Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics exposes per-chain I/O counters through
// prometheus/client_golang, mirroring the original BaseIOMetrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// IOMetrics tracks records and bytes flowing in and out of one chain,
// registered under prefix so multiple chains can share a process.
type IOMetrics struct {
	RecordsIn  prometheus.Counter
	RecordsOut prometheus.Counter
	BytesIn    prometheus.Counter
	BytesOut   prometheus.Counter
}

// NewIOMetrics creates and registers the four counters against reg under
// prefix; prefix is typically the chain or task name.
func NewIOMetrics(reg prometheus.Registerer, prefix string) *IOMetrics {
	m := &IOMetrics{
		RecordsIn: prometheus.NewCounter(prometheus.CounterOpts{
			Name: prefix + "_num_records_in",
			Help: "number of records in",
		}),
		RecordsOut: prometheus.NewCounter(prometheus.CounterOpts{
			Name: prefix + "_num_records_out",
			Help: "number of records out",
		}),
		BytesIn: prometheus.NewCounter(prometheus.CounterOpts{
			Name: prefix + "_num_bytes_in",
			Help: "number of bytes in",
		}),
		BytesOut: prometheus.NewCounter(prometheus.CounterOpts{
			Name: prefix + "_num_bytes_out",
			Help: "number of bytes out",
		}),
	}
	reg.MustRegister(m.RecordsIn, m.RecordsOut, m.BytesIn, m.BytesOut)
	return m
}
