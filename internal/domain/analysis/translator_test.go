package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/Young050223/AI-Medication-Assistant-sub000/internal/platform/llm"
)

func TestNeedsTranslation(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{"ibuprofen", false},
		{"Advil 200mg", false},
		{"paracétamol", false}, // accented Latin stays Latin
		{"布洛芬", true},
		{"布洛芬 200mg", true},
		{"イブプロフェン", true},
		{"ибупрофен", true},
	}
	for _, c := range cases {
		if got := NeedsTranslation(c.name); got != c.want {
			t.Errorf("NeedsTranslation(%q) = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestTranslateReturnsRankedCandidates(t *testing.T) {
	model := llm.NewScriptedClient([]string{
		`{"candidates":[{"name":"ibuprofen","dosage_form":"tablet"},{"name":"Advil"}]}`,
	}, nil)
	tr := NewTranslator(model)

	got, err := tr.Translate(context.Background(), "布洛芬")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}
	if got[0].Name != "ibuprofen" || got[0].DosageForm != "tablet" {
		t.Errorf("unexpected first candidate: %+v", got[0])
	}
	if got[1].Name != "Advil" {
		t.Errorf("unexpected second candidate: %+v", got[1])
	}
}

func TestTranslateUnwrapsFencedJSON(t *testing.T) {
	model := llm.NewScriptedClient([]string{
		"```json\n" + translationJSON("ibuprofen") + "\n```",
	}, nil)
	got, err := NewTranslator(model).Translate(context.Background(), "布洛芬")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if len(got) != 1 || got[0].Name != "ibuprofen" {
		t.Errorf("unexpected candidates: %+v", got)
	}
}

func TestTranslateCapsAndFiltersCandidates(t *testing.T) {
	model := llm.NewScriptedClient([]string{
		translationJSON("a", "", "b", "c", "d"),
	}, nil)
	got, err := NewTranslator(model).Translate(context.Background(), "布洛芬")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if len(got) != maxTranslationCandidates {
		t.Fatalf("expected cap of %d, got %d", maxTranslationCandidates, len(got))
	}
	for _, c := range got {
		if c.Name == "" {
			t.Error("empty candidate survived filtering")
		}
	}
}

func TestTranslateErrors(t *testing.T) {
	cases := []struct {
		name     string
		response string
		err      error
	}{
		{"model failure", "", errors.New("upstream unavailable")},
		{"undecodable response", "the drug is probably ibuprofen", nil},
		{"empty candidate list", `{"candidates":[]}`, nil},
		{"only blank names", `{"candidates":[{"name":"  "}]}`, nil},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			model := llm.NewScriptedClient([]string{c.response}, []error{c.err})
			if _, err := NewTranslator(model).Translate(context.Background(), "布洛芬"); err == nil {
				t.Error("expected error, got none")
			}
		})
	}
}
