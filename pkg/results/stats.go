package results

import (
	"math"
	"sort"
	"time"
)

// Stats summarises a group of records. Response times are in milliseconds.
type Stats struct {
	Count          int     `json:"count"`
	OK             int     `json:"ok"`
	KO             int     `json:"ko"`
	Min            float64 `json:"min"`
	Max            float64 `json:"max"`
	Mean           float64 `json:"mean"`
	StdDev         float64 `json:"stdDev"`
	RequestsPerSec float64 `json:"requestsPerSec"`
	sorted         []float64
}

func computeStats(records []Record, window time.Duration) Stats {
	s := Stats{Count: len(records)}
	if len(records) == 0 {
		return s
	}

	first, last := records[0].Start, records[0].End
	s.sorted = make([]float64, 0, len(records))
	sum := 0.0
	for _, r := range records {
		if r.OK {
			s.OK++
		} else {
			s.KO++
		}
		rt := r.ResponseTime()
		s.sorted = append(s.sorted, rt)
		sum += rt
		if r.Start.Before(first) {
			first = r.Start
		}
		if r.End.After(last) {
			last = r.End
		}
	}
	sort.Float64s(s.sorted)

	s.Min = s.sorted[0]
	s.Max = s.sorted[len(s.sorted)-1]
	s.Mean = sum / float64(len(s.sorted))
	variance := 0.0
	for _, rt := range s.sorted {
		variance += (rt - s.Mean) * (rt - s.Mean)
	}
	s.StdDev = math.Sqrt(variance / float64(len(s.sorted)))

	if window <= 0 {
		window = last.Sub(first)
	}
	if window > 0 {
		s.RequestsPerSec = float64(s.Count) / window.Seconds()
	} else {
		s.RequestsPerSec = float64(s.Count)
	}
	return s
}

// Percentile returns the nearest-rank p-th percentile of the response times, with p in [0, 100].
func (s Stats) Percentile(p float64) float64 {
	if len(s.sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return s.sorted[0]
	}
	if p >= 100 {
		return s.sorted[len(s.sorted)-1]
	}
	rank := int(math.Ceil(p / 100 * float64(len(s.sorted))))
	return s.sorted[rank-1]
}

func (s Stats) OKPercent() float64 {
	if s.Count == 0 {
		return 0
	}
	return 100 * float64(s.OK) / float64(s.Count)
}

func (s Stats) KOPercent() float64 {
	if s.Count == 0 {
		return 0
	}
	return 100 * float64(s.KO) / float64(s.Count)
}
