package completion

import (
	"errors"
	"testing"

	"shinyhunt.ai/internal/catalog"
	"shinyhunt.ai/internal/host"
	"shinyhunt.ai/internal/host/hosttest"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New(catalog.Def{
		Species: []catalog.Species{
			{ID: 1, Name: "A", CatchRate: 255},
			{ID: 2, Name: "B", CatchRate: 255},
			{ID: 3, Name: "C", CatchRate: 45},
		},
		Routes: []catalog.Route{
			{Region: 2, Number: 1, Species: []string{"C"}},
			{Region: 1, Number: 2, Species: []string{"B"}},
			{Region: 1, Number: 1, Species: []string{"A"}},
		},
		Dungeons: []catalog.Run{
			{Name: "Zeta Cave", Region: 0, SubRegion: 0},
			{Name: "Alpha Tower", Region: 0, SubRegion: 0},
			{Name: "Beta Woods", Region: 1, SubRegion: 0},
		},
		Safari: &catalog.SafariZone{Name: "Safari Zone"},
	})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return c
}

func TestIsRouteComplete(t *testing.T) {
	cat := testCatalog(t)
	fake := hosttest.New()
	tr := New(cat, fake.Host())

	r := catalog.Route{Region: 9, Number: 9, Species: []string{"A", "B"}}
	if tr.IsRouteComplete(r) {
		t.Fatalf("route with no shinies should be incomplete")
	}
	fake.Statuses[1] = host.CaughtShiny
	fake.Statuses[2] = host.Caught
	if tr.IsRouteComplete(r) {
		t.Fatalf("non-shiny catch should not complete the route")
	}
	fake.Statuses[2] = host.CaughtShiny
	if !tr.IsRouteComplete(r) {
		t.Fatalf("expected route complete")
	}

	r.Species = append(r.Species, "Missingno")
	if tr.IsRouteComplete(r) {
		t.Fatalf("unknown species must keep the route incomplete")
	}
	if missing, total := tr.MissingShinies(r); missing != 1 || total != 3 {
		t.Fatalf("missing shinies: got %d/%d want 1/3", missing, total)
	}
}

func TestNextIncompleteRoute_Scenario(t *testing.T) {
	cat := testCatalog(t)
	fake := hosttest.New()
	fake.ShinyAll(cat, "A")
	tr := New(cat, fake.Host())

	next, ok := tr.NextIncompleteRoute(catalog.RouteRef{Region: 1, Number: 1})
	if !ok || next.Ref() != (catalog.RouteRef{Region: 1, Number: 2}) {
		t.Fatalf("from 1:1: got %v ok=%v want 1:2", next.Ref(), ok)
	}
	next, ok = tr.NextIncompleteRoute(catalog.RouteRef{Region: 2, Number: 1})
	if !ok || next.Ref() != (catalog.RouteRef{Region: 1, Number: 2}) {
		t.Fatalf("from 2:1: got %v ok=%v want wrap to 1:2", next.Ref(), ok)
	}
}

func TestNextIncompleteRoute_AllComplete(t *testing.T) {
	cat := testCatalog(t)
	fake := hosttest.New()
	fake.ShinyAll(cat, "A", "B", "C")
	tr := New(cat, fake.Host())

	for _, r := range cat.Routes {
		if got, ok := tr.NextIncompleteRoute(r.Ref()); ok {
			t.Fatalf("from %s: expected none, got %s", r.Ref(), got.Ref())
		}
	}
	if _, ok := tr.FirstIncompleteRoute(); ok {
		t.Fatalf("expected no first incomplete route")
	}
}

func TestNextIncompleteRoute_SingleIncompleteFromAnywhere(t *testing.T) {
	cat := testCatalog(t)
	fake := hosttest.New()
	fake.ShinyAll(cat, "A", "C")
	tr := New(cat, fake.Host())

	want := catalog.RouteRef{Region: 1, Number: 2}
	starts := []catalog.RouteRef{{Region: 0, Number: 0}, {Region: 1, Number: 1}, {Region: 1, Number: 2}, {Region: 2, Number: 1}, {Region: 7, Number: 7}}
	for _, start := range starts {
		got, ok := tr.NextIncompleteRoute(start)
		if !ok || got.Ref() != want {
			t.Fatalf("from %s: got %s ok=%v want %s", start, got.Ref(), ok, want)
		}
	}
}

func TestNextIncompleteRoute_SkipsUnreachableAndExcluded(t *testing.T) {
	cat, err := catalog.New(catalog.Def{
		Species: []catalog.Species{{ID: 1, Name: "A"}},
		Routes: []catalog.Route{
			{Region: 1, Number: 1, Species: []string{"A"}},
			{Region: 1, Number: 2, Species: []string{"A"}},
			{Region: 1, Number: 3, SubRegion: 4, Species: []string{"A"}},
			{Region: 1, Number: 4, Species: []string{"A"}},
		},
		ExcludedSubRegions: []catalog.SubRegionRef{{Region: 1, SubRegion: 4}},
	})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	fake := hosttest.New()
	fake.Unreachable[catalog.RouteRef{Region: 1, Number: 2}] = true
	tr := New(cat, fake.Host())

	got, ok := tr.NextIncompleteRoute(catalog.RouteRef{Region: 1, Number: 1})
	if !ok || got.Ref() != (catalog.RouteRef{Region: 1, Number: 4}) {
		t.Fatalf("got %s ok=%v want 1:4", got.Ref(), ok)
	}
	first, ok := tr.FirstIncompleteRoute()
	if !ok || first.Ref() != (catalog.RouteRef{Region: 1, Number: 1}) {
		t.Fatalf("first: got %s ok=%v want 1:1", first.Ref(), ok)
	}
}

func TestIsRunComplete_FaultIsIncomplete(t *testing.T) {
	cat := testCatalog(t)
	fake := hosttest.New()
	fake.RunsComplete["Alpha Tower"] = true
	fake.RunErrors["Alpha Tower"] = errors.New("boom")
	tr := New(cat, fake.Host())

	var faults []string
	tr.OnFault(func(target string, err error) { faults = append(faults, target) })
	if tr.IsRunComplete("Alpha Tower") {
		t.Fatalf("faulting query must be treated as incomplete")
	}
	if len(faults) != 1 || faults[0] != "Alpha Tower" {
		t.Fatalf("expected one fault report, got %v", faults)
	}
}

func TestIsRunComplete_AbsentCapability(t *testing.T) {
	cat := testCatalog(t)
	tr := New(cat, host.Host{})
	if tr.IsRunComplete("Alpha Tower") {
		t.Fatalf("absent runs capability must answer incomplete")
	}
	if tr.IsSafariComplete() {
		t.Fatalf("absent runs capability must keep safari incomplete")
	}
}

func TestNextIncompleteRun(t *testing.T) {
	cat := testCatalog(t)
	fake := hosttest.New()
	for _, r := range cat.Runs {
		fake.RunsUnlocked[r.Name] = true
	}
	tr := New(cat, fake.Host())

	got, ok := tr.NextIncompleteRun("")
	if !ok || got.Name != "Alpha Tower" {
		t.Fatalf("auto: got %q want Alpha Tower", got.Name)
	}

	got, ok = tr.NextIncompleteRun("Beta Woods")
	if !ok || got.Name != "Beta Woods" {
		t.Fatalf("override: got %q want Beta Woods", got.Name)
	}

	fake.RunsComplete["Beta Woods"] = true
	got, ok = tr.NextIncompleteRun("Beta Woods")
	if !ok || got.Name != "Alpha Tower" {
		t.Fatalf("completed override: got %q want Alpha Tower", got.Name)
	}

	fake.RunsUnlocked["Alpha Tower"] = false
	got, ok = tr.NextIncompleteRun("unknown")
	if !ok || got.Name != "Zeta Cave" {
		t.Fatalf("locked first: got %q want Zeta Cave", got.Name)
	}

	fake.RunsComplete["Zeta Cave"] = true
	if got, ok := tr.NextIncompleteRun(""); ok {
		t.Fatalf("expected none, got %q", got.Name)
	}
}
