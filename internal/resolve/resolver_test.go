package resolve

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/histrank/canon/internal/store"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.NewStore(store.Config{DBPath: ":memory:"})
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seedFigures(t *testing.T, s store.Store, figs ...*store.Figure) {
	t.Helper()
	ctx := context.Background()
	for _, f := range figs {
		if err := s.UpsertFigure(ctx, f); err != nil {
			t.Fatalf("UpsertFigure(%s): %v", f.ID, err)
		}
	}
}

func newTestResolver(t *testing.T, s store.Store, compounds map[string][]string) *Resolver {
	t.Helper()
	snap, err := LoadSnapshot(context.Background(), s)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	return NewResolver(snap, compounds)
}

func TestResolveSlugStage(t *testing.T) {
	s := newTestStore(t)
	seedFigures(t, s, &store.Figure{ID: "isaac-newton", Name: "Isaac Newton"})
	r := newTestResolver(t, s, nil)

	res := r.Resolve("Isaac Newton")
	if res.Stage != StageSlug {
		t.Fatalf("stage = %s, want %s", res.Stage, StageSlug)
	}
	if !reflect.DeepEqual(res.FigureIDs, []string{"isaac-newton"}) {
		t.Errorf("ids = %v", res.FigureIDs)
	}
}

func TestResolveAliasStage(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedFigures(t, s, &store.Figure{ID: "napoleon", Name: "Napoleon"})
	if err := s.UpsertAlias(ctx, "napoleon bonaparte", "napoleon"); err != nil {
		t.Fatalf("UpsertAlias: %v", err)
	}
	r := newTestResolver(t, s, nil)

	// Fails the slug stage (id is "napoleon", not "napoleon-bonaparte"),
	// resolves through the alias table.
	res := r.Resolve("Napoleon Bonaparte")
	if res.Stage != StageAlias {
		t.Fatalf("stage = %s, want %s", res.Stage, StageAlias)
	}
	if len(res.FigureIDs) != 1 || res.FigureIDs[0] != "napoleon" {
		t.Errorf("ids = %v", res.FigureIDs)
	}
}

func TestResolveAliasVariants(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedFigures(t, s,
		&store.Figure{ID: "aquinas", Name: "Thomas Aquinas"},
		&store.Figure{ID: "wilhelm-grimm", Name: "Wilhelm Grimm"},
	)
	if err := s.UpsertAlias(ctx, "saint thomas aquinas", "aquinas"); err != nil {
		t.Fatalf("UpsertAlias: %v", err)
	}
	if err := s.UpsertAlias(ctx, "jacob and wilhelm grimm", "wilhelm-grimm"); err != nil {
		t.Fatalf("UpsertAlias: %v", err)
	}
	r := newTestResolver(t, s, nil)

	// "St" expands to "saint" for the alias lookup.
	res := r.Resolve("St Thomas Aquinas")
	if res.Stage != StageAlias || len(res.FigureIDs) != 1 || res.FigureIDs[0] != "aquinas" {
		t.Errorf("st variant: stage=%s ids=%v", res.Stage, res.FigureIDs)
	}

	// "&" maps to "and".
	res = r.Resolve("Jacob & Wilhelm Grimm")
	if res.Stage != StageAlias || len(res.FigureIDs) != 1 || res.FigureIDs[0] != "wilhelm-grimm" {
		t.Errorf("ampersand variant: stage=%s ids=%v", res.Stage, res.FigureIDs)
	}
}

func TestResolveCompoundStage(t *testing.T) {
	s := newTestStore(t)
	seedFigures(t, s,
		&store.Figure{ID: "james-watson", Name: "James Watson"},
		&store.Figure{ID: "francis-crick", Name: "Francis Crick"},
	)
	compounds := map[string][]string{
		"watson and crick": {"james-watson", "francis-crick"},
	}
	r := newTestResolver(t, s, compounds)

	res := r.Resolve("Watson and Crick")
	if res.Stage != StageCompound {
		t.Fatalf("stage = %s, want %s", res.Stage, StageCompound)
	}
	want := []string{"james-watson", "francis-crick"}
	if !reflect.DeepEqual(res.FigureIDs, want) {
		t.Errorf("ids = %v, want %v", res.FigureIDs, want)
	}
}

func TestResolveCanonicalStage(t *testing.T) {
	s := newTestStore(t)
	seedFigures(t, s, &store.Figure{ID: "kongzi", Name: "Confucius"})
	r := newTestResolver(t, s, nil)

	// Slug "confucius" is not the id; the normalized canonical name is.
	res := r.Resolve("Confucius")
	if res.Stage != StageCanonical {
		t.Fatalf("stage = %s, want %s", res.Stage, StageCanonical)
	}
	if len(res.FigureIDs) != 1 || res.FigureIDs[0] != "kongzi" {
		t.Errorf("ids = %v", res.FigureIDs)
	}
}

func TestResolveLastNameStage(t *testing.T) {
	s := newTestStore(t)
	seedFigures(t, s,
		&store.Figure{ID: "albert-einstein", Name: "Albert Einstein"},
		&store.Figure{ID: "marie-curie", Name: "Marie Curie"},
		&store.Figure{ID: "pierre-curie", Name: "Pierre Curie"},
	)
	r := newTestResolver(t, s, nil)

	// Unique surname resolves.
	res := r.Resolve("Einstein")
	if res.Stage != StageLastName {
		t.Fatalf("stage = %s, want %s", res.Stage, StageLastName)
	}
	if len(res.FigureIDs) != 1 || res.FigureIDs[0] != "albert-einstein" {
		t.Errorf("ids = %v", res.FigureIDs)
	}

	// Shared surname is ambiguous and must not resolve via this stage.
	res = r.Resolve("Curie")
	if res.Stage == StageLastName {
		t.Errorf("ambiguous surname resolved to %v", res.FigureIDs)
	}
}

func TestResolveFuzzyStage(t *testing.T) {
	s := newTestStore(t)
	seedFigures(t, s,
		&store.Figure{ID: "fyodor-dostoevsky", Name: "Fyodor Dostoevsky"},
		&store.Figure{ID: "isaac-newton", Name: "Isaac Newton"},
	)
	r := newTestResolver(t, s, nil)

	// One transposition away; unique minimum, long-name threshold.
	res := r.Resolve("Fyodor Dostoevski")
	if res.Stage != StageFuzzy {
		t.Fatalf("stage = %s, want %s", res.Stage, StageFuzzy)
	}
	if len(res.FigureIDs) != 1 || res.FigureIDs[0] != "fyodor-dostoevsky" {
		t.Errorf("ids = %v", res.FigureIDs)
	}
}

func TestResolveFuzzyTieProducesNoMatch(t *testing.T) {
	s := newTestStore(t)
	seedFigures(t, s,
		&store.Figure{ID: "hano", Name: "Hano"},
		&store.Figure{ID: "hana", Name: "Hana"},
	)
	r := newTestResolver(t, s, nil)

	// "hans" is distance 1 from both; the tie must yield no match.
	res := r.Resolve("Hans")
	if res.Matched() {
		t.Fatalf("expected no match on fuzzy tie, got %v via %s", res.FigureIDs, res.Stage)
	}
	if res.Stage != StageNone {
		t.Errorf("stage = %s, want %s", res.Stage, StageNone)
	}
}

func TestResolveUnmatched(t *testing.T) {
	s := newTestStore(t)
	seedFigures(t, s, &store.Figure{ID: "isaac-newton", Name: "Isaac Newton"})
	r := newTestResolver(t, s, nil)

	res := r.Resolve("Zarathustra of Bactria")
	if res.Matched() {
		t.Fatalf("expected no match, got %v via %s", res.FigureIDs, res.Stage)
	}
}

func TestResolveIdempotent(t *testing.T) {
	s := newTestStore(t)
	seedFigures(t, s,
		&store.Figure{ID: "isaac-newton", Name: "Isaac Newton"},
		&store.Figure{ID: "marie-curie", Name: "Marie Curie"},
	)
	r := newTestResolver(t, s, nil)

	for _, raw := range []string{"Isaac Newton", "Newtn", "Curie", "Nobody At All"} {
		first := r.Resolve(raw)
		second := r.Resolve(raw)
		if !reflect.DeepEqual(first, second) {
			t.Errorf("Resolve(%q) not idempotent: %+v != %+v", raw, first, second)
		}
	}
}

func TestResolverReload(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedFigures(t, s, &store.Figure{ID: "isaac-newton", Name: "Isaac Newton"})
	r := newTestResolver(t, s, nil)

	if res := r.Resolve("Gottfried Leibniz"); res.Matched() {
		t.Fatalf("unexpected match before reload: %v", res.FigureIDs)
	}

	seedFigures(t, s, &store.Figure{ID: "gottfried-leibniz", Name: "Gottfried Leibniz"})
	if err := r.Reload(ctx, s); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	res := r.Resolve("Gottfried Leibniz")
	if res.Stage != StageSlug || len(res.FigureIDs) != 1 {
		t.Errorf("after reload: stage=%s ids=%v", res.Stage, res.FigureIDs)
	}
}

func TestLoadCompounds(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "compounds.yaml")
	content := "Watson and Crick:\n  - james-watson\n  - francis-crick\nWright Brothers:\n  - wilbur-wright\n  - orville-wright\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	compounds, err := LoadCompounds(path)
	if err != nil {
		t.Fatalf("LoadCompounds: %v", err)
	}
	if len(compounds) != 2 {
		t.Fatalf("expected 2 phrases, got %d", len(compounds))
	}
	// Keys are normalized.
	if _, ok := compounds["watson and crick"]; !ok {
		t.Errorf("missing normalized phrase, keys = %v", compounds)
	}
}

func TestLoadCompoundsMissingFileIsFatal(t *testing.T) {
	if _, err := LoadCompounds(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing overrides file")
	}
}
