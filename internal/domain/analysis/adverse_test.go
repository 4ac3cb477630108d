package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Young050223/AI-Medication-Assistant-sub000/internal/platform/registry"
)

func TestAdverseFetchAggregates(t *testing.T) {
	a := NewAdverseAggregator(activeAdverse(), time.Second)
	ev, warnings, err := a.Fetch(context.Background(), "ibuprofen")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	if ev.TotalReports != 200 || ev.SeriousCount != 30 || ev.DeathCount != 3 || ev.HospitalizationCount != 12 {
		t.Errorf("unexpected counts: %+v", ev)
	}
	if ev.SeriousRate != 15.0 {
		t.Errorf("serious rate = %v, want 15.0", ev.SeriousRate)
	}
	if len(ev.TopReactions) != 2 {
		t.Fatalf("expected 2 reactions, got %d", len(ev.TopReactions))
	}
	if ev.TopReactions[0].PercentOfMax != 100 || ev.TopReactions[1].PercentOfMax != 50 {
		t.Errorf("percent-of-max wrong: %+v", ev.TopReactions)
	}
}

func TestAdverseFetchNoReports(t *testing.T) {
	ev, _, err := NewAdverseAggregator(emptyAdverse(), time.Second).Fetch(context.Background(), "zzz-not-a-drug")
	if err != nil {
		t.Fatalf("zero reports must not be an error: %v", err)
	}
	if ev != nil {
		t.Errorf("expected nil evidence for zero reports, got %+v", ev)
	}
}

func TestAdverseFetchPartialFailure(t *testing.T) {
	reg := activeAdverse()
	reg.reactErr = errors.New("server error")

	ev, warnings, err := NewAdverseAggregator(reg, time.Second).Fetch(context.Background(), "ibuprofen")
	if err != nil {
		t.Fatalf("partial failure must degrade, not fail: %v", err)
	}
	if len(warnings) != 1 {
		t.Errorf("expected one warning, got %v", warnings)
	}
	if ev == nil || ev.TotalReports != 200 {
		t.Fatalf("counts should survive reaction failure: %+v", ev)
	}
	if len(ev.TopReactions) != 0 {
		t.Errorf("reactions should be empty: %+v", ev.TopReactions)
	}
}

func TestAdverseFetchTotalFailure(t *testing.T) {
	reg := &fakeAdverse{
		countErr: errors.New("unreachable"),
		reactErr: errors.New("unreachable"),
	}
	ev, warnings, err := NewAdverseAggregator(reg, time.Second).Fetch(context.Background(), "ibuprofen")
	if err == nil {
		t.Fatal("expected error when every query failed")
	}
	if ev != nil {
		t.Errorf("no evidence expected: %+v", ev)
	}
	if len(warnings) != 5 {
		t.Errorf("expected 5 warnings, got %d", len(warnings))
	}
}

func TestSeriousRate(t *testing.T) {
	cases := []struct {
		serious, total int
		want           float64
	}{
		{30, 200, 15.0},
		{1, 3, 33.3},
		{2, 3, 66.7},
		{0, 100, 0},
		{5, 0, 0}, // zero total never divides
	}
	for _, c := range cases {
		if got := seriousRate(c.serious, c.total); got != c.want {
			t.Errorf("seriousRate(%d, %d) = %v, want %v", c.serious, c.total, got, c.want)
		}
	}
}

func TestRankReactions(t *testing.T) {
	got := rankReactions([]registry.Reaction{
		{Term: "NAUSEA", Count: 100},
		{Term: "HEADACHE", Count: 50},
		{Term: "RASH", Count: 33},
	})
	wantPct := []int{100, 50, 33}
	for i, r := range got {
		if r.PercentOfMax != wantPct[i] {
			t.Errorf("%s: percent = %d, want %d", r.Term, r.PercentOfMax, wantPct[i])
		}
	}
	if rankReactions(nil) != nil {
		t.Error("empty input should rank to nil")
	}
}
