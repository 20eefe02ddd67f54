package rank

import (
	"testing"

	"github.com/dgallion1/docoutline/internal/doctree"
)

func section(text, doc string, page int) Section {
	return Section{
		Heading:  doctree.HeadingCandidate{Line: doctree.Line{Text: text, Page: page}, Level: doctree.LevelH1, Page: page},
		Document: doc,
	}
}

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"Data-Analysis!":  "dataanalysis",
		"data analysis":   "dataanalysis",
		"Café Menü 2024":  "cafemenu2024",
		"":                "",
		"¿? ¡!":           "",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestRank_ElevatedAndBaseline(t *testing.T) {
	kws := IntentKeywords(ParseIntent([]byte(`{"role": "analysis"}`)))
	ranked := Rank([]Section{
		section("Budget Summary", "a.pdf", 1),
		section("Data Analysis Methods", "a.pdf", 2),
	}, kws)

	if len(ranked) != 2 {
		t.Fatalf("expected 2 ranked headings, got %d", len(ranked))
	}
	if ranked[0].Text() != "Data Analysis Methods" || ranked[0].ImportanceRank != TierElevated {
		t.Errorf("expected elevated first, got %q rank %d", ranked[0].Text(), ranked[0].ImportanceRank)
	}
	if ranked[1].Text() != "Budget Summary" || ranked[1].ImportanceRank != TierBaseline {
		t.Errorf("expected baseline second, got %q rank %d", ranked[1].Text(), ranked[1].ImportanceRank)
	}
	if ranked[0].Document != "a.pdf" {
		t.Errorf("expected document to be carried, got %q", ranked[0].Document)
	}
}

func TestRank_EmptyIntentIsAllBaseline(t *testing.T) {
	kws := IntentKeywords(ParseIntent([]byte(`{}`)), ParseIntent([]byte(`{}`)))
	ranked := Rank([]Section{section("Anything", "a.pdf", 1), section("Else", "b.pdf", 1)}, kws)
	for _, r := range ranked {
		if r.ImportanceRank != TierBaseline {
			t.Errorf("expected baseline for %q, got %d", r.Text(), r.ImportanceRank)
		}
	}
}

func TestRank_StableWithinTier(t *testing.T) {
	kws := []string{"travel"}
	ranked := Rank([]Section{
		section("Intro", "a.pdf", 1),
		section("Travel Tips", "a.pdf", 2),
		section("Costs", "a.pdf", 3),
		section("Travel Insurance", "b.pdf", 1),
		section("Food", "b.pdf", 2),
	}, kws)

	want := []string{"Travel Tips", "Travel Insurance", "Intro", "Costs", "Food"}
	for i, w := range want {
		if ranked[i].Text() != w {
			t.Errorf("position %d: expected %q, got %q", i, w, ranked[i].Text())
		}
	}
}

func TestParseIntent_MalformedDegrades(t *testing.T) {
	for _, in := range []string{"", "   ", "not json", `["a","b"]`, `"just a string"`, `null`, `{"broken":`} {
		intent := ParseIntent([]byte(in))
		if len(intent) != 0 {
			t.Errorf("ParseIntent(%q): expected empty intent, got %v", in, intent)
		}
		if kws := intent.Keywords(); len(kws) != 0 {
			t.Errorf("ParseIntent(%q): expected no keywords, got %v", in, kws)
		}
	}
}

func TestIntent_KeywordsFlattening(t *testing.T) {
	in := ParseIntent([]byte(`{
		"role": "Travel Planner",
		"focus": ["nightlife", 42, "beaches", {"x": "y"}],
		"count": 7,
		"nested": {"inner": "ignored"},
		"flag": true,
		"none": null
	}`))
	got := in.Keywords()
	want := []string{"nightlife", "beaches", "Travel Planner"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("keyword %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestIntent_Echo(t *testing.T) {
	echo := ParseIntent([]byte(`{"role":"Analyst","topics":["a","b"]}`)).Echo()
	if echo["role"] != "Analyst" {
		t.Errorf("expected role echoed, got %v", echo["role"])
	}
	if topics, ok := echo["topics"].([]any); !ok || len(topics) != 2 {
		t.Errorf("expected topics list echoed, got %v", echo["topics"])
	}
	if len(ParseIntent(nil).Echo()) != 0 {
		t.Error("expected empty echo for empty intent")
	}
	for _, in := range []string{`["Analyst","Planner"]`, `"Analyst"`} {
		if echo := ParseIntent([]byte(in)).Echo(); echo == nil || len(echo) != 0 {
			t.Errorf("Echo of %s: expected empty object, got %#v", in, echo)
		}
	}
}

func TestNormalizeAll_DropsEmpty(t *testing.T) {
	got := NormalizeAll([]string{"!!!", "PhD Student", ""})
	if len(got) != 1 || got[0] != "phdstudent" {
		t.Errorf("expected [phdstudent], got %v", got)
	}
}
