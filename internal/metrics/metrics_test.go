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

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestNewIOMetricsRegistersFourIndependentCounters(t *testing.T) {
	require := require.New(t)

	reg := prometheus.NewRegistry()
	m := NewIOMetrics(reg, "chain_abc")

	m.RecordsIn.Inc()
	m.RecordsIn.Inc()
	m.RecordsOut.Inc()
	m.BytesIn.Add(42)

	require.Equal(float64(2), testutil.ToFloat64(m.RecordsIn))
	require.Equal(float64(1), testutil.ToFloat64(m.RecordsOut))
	require.Equal(float64(42), testutil.ToFloat64(m.BytesIn))
	require.Equal(float64(0), testutil.ToFloat64(m.BytesOut))

	families, err := reg.Gather()
	require.NoError(err)
	require.Len(families, 4)
}
