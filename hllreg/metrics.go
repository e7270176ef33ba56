/**
 * Copyright 2016 l0vest0rm.hll authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License"): you may
 * not use this file except in compliance with the License. You may obtain
 * a copy of the License at
 *
 *     http: *www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
 * WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
 * License for the specific language governing permissions and limitations
 * under the License.
 */

package hllreg

import "github.com/prometheus/client_golang/prometheus"

var _ prometheus.Collector = (*Registry)(nil)

var (
	cardinalityDesc = prometheus.NewDesc(
		"hll_sketch_cardinality_estimate",
		"Current cardinality estimate of a named HyperLogLog sketch.",
		[]string{"sketch"}, nil,
	)
	variantDesc = prometheus.NewDesc(
		"hll_sketch_variant",
		"Current storage representation of a named sketch: 0=small, 1=array, 2=dense.",
		[]string{"sketch"}, nil,
	)
)

// variantCode mirrors hll.Sketch.Variant()'s three string forms as a small
// integer, since Prometheus gauges are numeric.
func variantCode(v string) float64 {
	switch v {
	case "small":
		return 0
	case "array":
		return 1
	case "dense":
		return 2
	default:
		return -1
	}
}

// Describe implements prometheus.Collector.
func (r *Registry) Describe(ch chan<- *prometheus.Desc) {
	ch <- cardinalityDesc
	ch <- variantDesc
}

// Collect implements prometheus.Collector, emitting one cardinality gauge
// and one variant gauge per tracked sketch name. Collect takes the
// registry lock like any other read, so a scrape never races a concurrent
// Insert/Merge.
func (r *Registry) Collect(ch chan<- prometheus.Metric) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, s := range r.sketches {
		ch <- prometheus.MustNewConstMetric(
			cardinalityDesc, prometheus.GaugeValue, float64(s.Estimate()), name,
		)
		ch <- prometheus.MustNewConstMetric(
			variantDesc, prometheus.GaugeValue, variantCode(r.variants[name]), name,
		)
	}
}
