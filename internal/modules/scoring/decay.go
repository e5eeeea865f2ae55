package scoring

import (
	"math"
	"sort"
	"time"

	types "github.com/aurahq/aura-backend/internal/domain"
)

// DecaySpan is how many days an event keeps contributing, including the
// day it occurred.
const DecaySpan = 7

// percentHeadroom stretches the percent denominator past the high-zone
// floor so a score right at the boundary reads below 100.
const percentHeadroom = 1.2

type Contributor struct {
	Name       string `json:"name"`
	Score      int    `json:"score"`
	Severity   string `json:"severity"`
	DaysActive int    `json:"days_active"`
}

type Snapshot struct {
	Date         time.Time
	Score        int
	Zone         string
	Percent      int
	Contributors []Contributor
}

// Thresholds carries the resolved zone floors.
type Thresholds struct {
	High float64
	Mild float64
	Low  float64
}

// Compute produces the decay-weighted snapshot for one perspective date.
// Each event's contribution is its severity weight at the event's age in
// days. Per-contributor totals are rounded before summing so the listed
// contributors always add up to the snapshot score exactly. Events with
// no mapped severity or outside the decay span contribute nothing.
func Compute(date time.Time, events []*types.TriggerEvent, severities map[string]string, weights map[string][7]float64, th Thresholds) Snapshot {
	type bucket struct {
		severity string
		raw      float64
		dates    map[string]struct{}
	}
	buckets := map[string]*bucket{}

	day := date.Truncate(24 * time.Hour)
	for _, ev := range events {
		age := int(day.Sub(ev.OccurredDate.Truncate(24*time.Hour)).Hours() / 24)
		if age < 0 || age >= DecaySpan {
			continue
		}
		severity, ok := severities[ev.Type]
		if !ok || severity == types.SeverityNone {
			continue
		}
		w, ok := weights[severity]
		if !ok {
			continue
		}
		b := buckets[ev.Type]
		if b == nil {
			b = &bucket{severity: severity, dates: map[string]struct{}{}}
			buckets[ev.Type] = b
		}
		b.raw += w[age]
		b.dates[ev.OccurredDate.Format("2006-01-02")] = struct{}{}
	}

	snap := Snapshot{Date: day}
	total := 0
	for name, b := range buckets {
		if b.raw <= 0 {
			continue
		}
		rounded := int(math.Round(b.raw))
		total += rounded
		snap.Contributors = append(snap.Contributors, Contributor{
			Name:       name,
			Score:      rounded,
			Severity:   b.severity,
			DaysActive: len(b.dates),
		})
	}
	sort.Slice(snap.Contributors, func(i, j int) bool {
		if snap.Contributors[i].Score != snap.Contributors[j].Score {
			return snap.Contributors[i].Score > snap.Contributors[j].Score
		}
		return snap.Contributors[i].Name < snap.Contributors[j].Name
	})

	snap.Score = total
	snap.Zone = ZoneFor(float64(total), th)
	snap.Percent = PercentFor(float64(total), th)
	return snap
}

// ComputeLive produces the snapshot for the perspective date plus the
// forecast for the following days of the decay span, all from the same
// event set.
func ComputeLive(date time.Time, events []*types.TriggerEvent, severities map[string]string, weights map[string][7]float64, th Thresholds) []Snapshot {
	out := make([]Snapshot, 0, DecaySpan)
	for k := 0; k < DecaySpan; k++ {
		out = append(out, Compute(date.AddDate(0, 0, k), events, severities, weights, th))
	}
	return out
}

func ZoneFor(score float64, th Thresholds) string {
	switch {
	case score >= th.High:
		return types.ZoneHigh
	case score >= th.Mild:
		return types.ZoneMild
	case score >= th.Low:
		return types.ZoneLow
	default:
		return types.ZoneNone
	}
}

// PercentFor maps a score onto 0..100 against the high-zone floor with
// headroom, clamped at both ends.
func PercentFor(score float64, th Thresholds) int {
	denom := th.High * percentHeadroom
	if denom <= 0 {
		if score > 0 {
			return 100
		}
		return 0
	}
	p := int(math.Round(score / denom * 100))
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
