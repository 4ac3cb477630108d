package analysis

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/Young050223/AI-Medication-Assistant-sub000/internal/platform/fanout"
	"github.com/Young050223/AI-Medication-Assistant-sub000/internal/platform/registry"
)

// maxTopReactions caps the reaction ranking fetched from the registry.
const maxTopReactions = 15

// adverseProbe is the value type of one fan-out query against the
// adverse-event registry: either a report count or the reaction ranking.
type adverseProbe struct {
	count     int
	reactions []registry.Reaction
}

// AdverseAggregator collects spontaneous-report statistics with five
// concurrent registry queries: total, serious, death, and hospitalization
// counts plus the most frequently reported reactions.
type AdverseAggregator struct {
	registry     AdverseRegistry
	queryTimeout time.Duration
}

// NewAdverseAggregator wires an adverse-event aggregator. queryTimeout
// bounds each individual query.
func NewAdverseAggregator(reg AdverseRegistry, queryTimeout time.Duration) *AdverseAggregator {
	return &AdverseAggregator{registry: reg, queryTimeout: queryTimeout}
}

// Fetch returns aggregated evidence, or nil when the registry holds no
// reports for the name. Individual query failures degrade the evidence to
// whatever arrived and are returned for logging; the error is non-nil only
// when every query failed.
func (a *AdverseAggregator) Fetch(ctx context.Context, name string) (*AdverseEventEvidence, []string, error) {
	countTask := func(filter registry.ReportFilter) func(context.Context) (adverseProbe, error) {
		return func(ctx context.Context) (adverseProbe, error) {
			n, err := a.registry.CountReports(ctx, name, filter)
			return adverseProbe{count: n}, err
		}
	}
	tasks := []fanout.Task[adverseProbe]{
		{Name: "total", Run: countTask(registry.FilterAll)},
		{Name: "serious", Run: countTask(registry.FilterSerious)},
		{Name: "death", Run: countTask(registry.FilterDeath)},
		{Name: "hospitalization", Run: countTask(registry.FilterHospitalization)},
		{Name: "reactions", Run: func(ctx context.Context) (adverseProbe, error) {
			rs, err := a.registry.TopReactions(ctx, name, maxTopReactions)
			return adverseProbe{reactions: rs}, err
		}},
	}
	results := fanout.Collect(ctx, a.queryTimeout, tasks)

	var warnings []string
	for _, res := range results {
		if res.Err != nil {
			warnings = append(warnings, fmt.Sprintf("%s query failed: %v", res.Name, res.Err))
		}
	}
	if fanout.Succeeded(results) == 0 {
		return nil, warnings, fmt.Errorf("all adverse-event queries failed")
	}

	ev := &AdverseEventEvidence{
		TotalReports:         results[0].Value.count,
		SeriousCount:         results[1].Value.count,
		DeathCount:           results[2].Value.count,
		HospitalizationCount: results[3].Value.count,
		TopReactions:         rankReactions(results[4].Value.reactions),
	}
	ev.SeriousRate = seriousRate(ev.SeriousCount, ev.TotalReports)

	if ev.TotalReports == 0 && len(ev.TopReactions) == 0 {
		return nil, warnings, nil
	}
	return ev, warnings, nil
}

// seriousRate is the serious share of all reports as a percentage with
// one decimal place. Zero totals yield zero, not a division error.
func seriousRate(serious, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(serious)/float64(total)*1000) / 10
}

// rankReactions annotates each reaction with its count relative to the
// largest count in the set.
func rankReactions(reactions []registry.Reaction) []ReactionCount {
	if len(reactions) == 0 {
		return nil
	}
	max := reactions[0].Count
	for _, r := range reactions[1:] {
		if r.Count > max {
			max = r.Count
		}
	}
	out := make([]ReactionCount, 0, len(reactions))
	for _, r := range reactions {
		pct := 0
		if max > 0 {
			pct = int(math.Round(float64(r.Count) / float64(max) * 100))
		}
		out = append(out, ReactionCount{Term: r.Term, Count: r.Count, PercentOfMax: pct})
	}
	return out
}
