package citytrie

import (
	"strings"
	"sync"
	"testing"

	"github.com/royalcat/airplaces/geomodel"
	"golang.org/x/text/cases"
)

func city(name, state string) geomodel.City {
	return geomodel.City{Name: name, State: state}
}

func names(cities []geomodel.City) []string {
	out := make([]string, len(cities))
	for i, c := range cities {
		out[i] = c.Name + "/" + c.State
	}
	return out
}

func sampleTrie() *Trie {
	return New([]geomodel.City{
		city("Springfield", "MA"),
		city("Chicago", "IL"),
		city("Springfield", "IL"),
		city("Spruce Pine", "NC"),
		city("Spring", "TX"),
		city("Sacramento", "CA"),
		city("Zanesville", "OH"),
	})
}

func TestEmpty(t *testing.T) {
	tr := New(nil)
	if tr.Len() != 0 {
		t.Fatalf("expected empty trie, got %d", tr.Len())
	}
	for _, q := range []string{"", "a", "Chicago"} {
		res := tr.Query(q)
		if len(res.Cities) != 0 || res.Ambiguous {
			t.Fatalf("query %q on empty trie: %+v", q, res)
		}
	}
}

func TestLen(t *testing.T) {
	if n := sampleTrie().Len(); n != 7 {
		t.Fatalf("expected 7 records, got %d", n)
	}
}

func TestQueryCaseInsensitive(t *testing.T) {
	tr := sampleTrie()

	for _, q := range []string{"chicago", "CHICAGO", "ChIcAgO", "Chicago"} {
		res := tr.Query(q)
		if res.Ambiguous || len(res.Cities) != 1 || res.Cities[0].Name != "Chicago" {
			t.Fatalf("query %q: %v ambiguous=%v", q, names(res.Cities), res.Ambiguous)
		}
	}
}

func TestQueryUnicodeFolding(t *testing.T) {
	tr := New([]geomodel.City{
		city("Española", "NM"),
		city("Espanola", "FL"),
	})

	res := tr.Query("ESPAÑOLA")
	if res.Ambiguous || len(res.Cities) != 1 || res.Cities[0].State != "NM" {
		t.Fatalf("unexpected result: %v ambiguous=%v", names(res.Cities), res.Ambiguous)
	}
}

func TestQueryNoMatch(t *testing.T) {
	tr := sampleTrie()

	for _, q := range []string{"Zzyzxville", "Springfieldx", "Q"} {
		res := tr.Query(q)
		if len(res.Cities) != 0 || res.Ambiguous {
			t.Fatalf("query %q: expected no match, got %v ambiguous=%v", q, names(res.Cities), res.Ambiguous)
		}
	}
}

func TestQuerySingleExtension(t *testing.T) {
	tr := sampleTrie()

	// only one name continues "Chi"
	res := tr.Query("chi")
	if res.Ambiguous || len(res.Cities) != 1 || res.Cities[0].Name != "Chicago" {
		t.Fatalf("unexpected result: %v ambiguous=%v", names(res.Cities), res.Ambiguous)
	}

	// "Springf" continues only as Springfield, both states are returned
	res = tr.Query("Springf")
	if res.Ambiguous || len(res.Cities) != 2 {
		t.Fatalf("unexpected result: %v ambiguous=%v", names(res.Cities), res.Ambiguous)
	}
	for _, c := range res.Cities {
		if c.Name != "Springfield" {
			t.Fatalf("unexpected city %q", c.Name)
		}
	}
}

func TestQueryExactNameIsPrefixOfOther(t *testing.T) {
	tr := sampleTrie()

	res := tr.Query("spring")
	if res.Ambiguous || len(res.Cities) != 1 || res.Cities[0].State != "TX" {
		t.Fatalf("unexpected result: %v ambiguous=%v", names(res.Cities), res.Ambiguous)
	}
}

func TestQueryAmbiguousPrefix(t *testing.T) {
	tr := sampleTrie()

	res := tr.Query("Spr")
	if !res.Ambiguous {
		t.Fatalf("expected ambiguous result, got %v", names(res.Cities))
	}
	got := strings.Join(names(res.Cities), ",")
	want := "Spring/TX,Springfield/IL,Springfield/MA,Spruce Pine/NC"
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}

	res = tr.Query("S")
	if !res.Ambiguous || len(res.Cities) != 5 {
		t.Fatalf("expected 5 ambiguous hints, got %v ambiguous=%v", names(res.Cities), res.Ambiguous)
	}
}

func TestQueryEmptyPrefix(t *testing.T) {
	tr := sampleTrie()

	res := tr.Query("")
	if !res.Ambiguous || len(res.Cities) != tr.Len() {
		t.Fatalf("expected every record as a hint, got %d ambiguous=%v", len(res.Cities), res.Ambiguous)
	}
}

func TestQueryPlace(t *testing.T) {
	tr := sampleTrie()

	tests := []struct {
		name, state string
		want        []string
		ambiguous   bool
	}{
		{"Springfield", "", []string{"Springfield/IL", "Springfield/MA"}, true},
		{"Springfield", "MA", []string{"Springfield/MA"}, false},
		{"springfield", "il", []string{"Springfield/IL"}, false},
		{"Springfield", "TX", nil, false},
		{"Chicago", "", []string{"Chicago/IL"}, false},
		// a single match is returned as is
		{"Chicago", "CA", []string{"Chicago/IL"}, false},
		{"Zzyzxville", "", nil, false},
		{"Zzyzxville", "CA", nil, false},
		{"Spr", "MA", []string{"Spring/TX", "Springfield/IL", "Springfield/MA", "Spruce Pine/NC"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name+"/"+tt.state, func(t *testing.T) {
			res := tr.QueryPlace(tt.name, tt.state)
			if res.Ambiguous != tt.ambiguous {
				t.Fatalf("expected ambiguous=%v, got %v", tt.ambiguous, res.Ambiguous)
			}
			got := strings.Join(names(res.Cities), ",")
			want := strings.Join(tt.want, ",")
			if got != want {
				t.Fatalf("expected %q, got %q", want, got)
			}
		})
	}
}

func TestQueryPlaceDoesNotModifyIndex(t *testing.T) {
	tr := sampleTrie()

	_ = tr.QueryPlace("Springfield", "MA")

	res := tr.QueryPlace("Springfield", "IL")
	if len(res.Cities) != 1 || res.Cities[0].State != "IL" {
		t.Fatalf("unexpected result: %v", names(res.Cities))
	}
	res = tr.QueryPlace("Springfield", "")
	if len(res.Cities) != 2 {
		t.Fatalf("index modified by filtering: %v", names(res.Cities))
	}
}

func TestResultCapacityClipped(t *testing.T) {
	tr := sampleTrie()

	res := tr.Query("Springfield")
	_ = append(res.Cities, city("Bogus", "XX"))

	after := tr.Query("Spruce")
	if len(after.Cities) != 1 || after.Cities[0].Name != "Spruce Pine" {
		t.Fatalf("backing records overwritten: %v", names(after.Cities))
	}
}

func TestConcurrentQueries(t *testing.T) {
	tr := sampleTrie()

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 1000 {
				if res := tr.QueryPlace("springfield", "ma"); len(res.Cities) != 1 {
					t.Errorf("unexpected result: %v", names(res.Cities))
					return
				}
			}
		}()
	}
	wg.Wait()
}

func FuzzQueryPrefix(f *testing.F) {
	tr := sampleTrie()
	for _, s := range []string{"", "s", "Spr", "Chicago", "zz", "SPRINGFIELD"} {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, q string) {
		prefix := cases.Fold().String(q)
		res := tr.Query(q)
		for _, c := range res.Cities {
			if !strings.HasPrefix(cases.Fold().String(c.Name), prefix) {
				t.Fatalf("query %q returned %q", q, c.Name)
			}
		}
	})
}

func BenchmarkQuery(b *testing.B) {
	tr := sampleTrie()

	for b.Loop() {
		tr.QueryPlace("Springfield", "MA")
	}
}
