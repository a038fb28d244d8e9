package main

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus"
)

// metricSnapshot flattens the registry into series name -> value. Counters
// and gauges report their value, histograms their sample count.
func metricSnapshot(g prometheus.Gatherer) (map[string]float64, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, fmt.Errorf("gather metrics: %w", err)
	}
	snap := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			name := mf.GetName()
			if len(m.GetLabel()) > 0 {
				pairs := make([]string, 0, len(m.GetLabel()))
				for _, lp := range m.GetLabel() {
					pairs = append(pairs, lp.GetName()+"="+lp.GetValue())
				}
				sort.Strings(pairs)
				name += "{" + strings.Join(pairs, ",") + "}"
			}
			switch {
			case m.GetCounter() != nil:
				snap[name] = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				snap[name] = m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				snap[name] = float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return snap, nil
}

func snapshotTable(snap map[string]float64) func(w *tabwriter.Writer) {
	return func(w *tabwriter.Writer) {
		for _, k := range sortedKeys(snap) {
			fmt.Fprintf(w, "%s\t%g\n", k, snap[k])
		}
	}
}
