package metrics

import (
	"math"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// OrchSnapshot summarizes orchestration traffic for the console footer.
type OrchSnapshot struct {
	Total  int64            `json:"total"`
	OK     int64            `json:"ok"`
	Failed int64            `json:"failed"`
	ByKind map[string]int64 `json:"by_kind"`
	P90Ms  float64          `json:"p90_ms"`
	P95Ms  float64          `json:"p95_ms"`
}

// Snapshot reads the orchestration counters and latency histogram from gatherer.
func Snapshot(gatherer prometheus.Gatherer) OrchSnapshot {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	out := OrchSnapshot{ByKind: map[string]int64{}}
	mfs, err := gatherer.Gather()
	if err != nil {
		return out
	}

	var latency *dto.MetricFamily
	for _, mf := range mfs {
		if mf == nil {
			continue
		}
		switch mf.GetName() {
		case RequestsMetricName:
			for _, metric := range mf.Metric {
				if metric == nil || metric.GetCounter() == nil {
					continue
				}
				count := int64(metric.GetCounter().GetValue())
				out.Total += count
				if labelValue(metric, "outcome") == "ok" {
					out.OK += count
				} else {
					out.Failed += count
				}
				out.ByKind[labelValue(metric, "kind")] += count
			}
		case LatencyMetricName:
			latency = mf
		}
	}

	if latency == nil {
		return out
	}

	cumulativeByUpper := map[float64]uint64{}
	var sampleCount uint64
	for _, metric := range latency.Metric {
		if metric == nil {
			continue
		}
		h := metric.GetHistogram()
		if h == nil {
			continue
		}
		sampleCount += h.GetSampleCount()
		for _, b := range h.Bucket {
			if b == nil {
				continue
			}
			cumulativeByUpper[b.GetUpperBound()] += b.GetCumulativeCount()
		}
	}
	if sampleCount == 0 {
		return out
	}

	uppers := make([]float64, 0, len(cumulativeByUpper))
	for upper := range cumulativeByUpper {
		uppers = append(uppers, upper)
	}
	sort.Float64s(uppers)

	out.P90Ms = histogramQuantile(0.90, sampleCount, uppers, cumulativeByUpper) * 1000.0
	out.P95Ms = histogramQuantile(0.95, sampleCount, uppers, cumulativeByUpper) * 1000.0
	return out
}

func labelValue(metric *dto.Metric, name string) string {
	for _, lp := range metric.Label {
		if lp != nil && lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

// histogramQuantile returns the upper bound of the first bucket whose
// cumulative count reaches q of the samples. Observations past the last
// finite bucket report that bucket's bound.
func histogramQuantile(q float64, total uint64, uppers []float64, cumulativeByUpper map[float64]uint64) float64 {
	if total == 0 || q <= 0 {
		return 0
	}
	target := uint64(math.Ceil(q * float64(total)))
	var lastFinite float64
	for _, upper := range uppers {
		if math.IsInf(upper, 1) {
			break
		}
		lastFinite = upper
		if cumulativeByUpper[upper] >= target {
			return upper
		}
	}
	return lastFinite
}
