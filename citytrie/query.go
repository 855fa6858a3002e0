package citytrie

import (
	"strings"

	"github.com/royalcat/airplaces/geomodel"
	"golang.org/x/text/cases"
)

// Result of a trie lookup.
//
// Cities is a view of the records owned by the trie and must not be modified.
// An empty Cities with Ambiguous unset means nothing matched.
type Result struct {
	Cities    []geomodel.City
	Ambiguous bool
}

// Query looks up a city by a case-insensitive name or name prefix.
//
// A prefix that has a single possible continuation resolves to it. A prefix that
// branches into several names returns every record starting with it, flagged ambiguous.
func (t *Trie) Query(name string) Result {
	n := int32(0)
	for _, c := range cases.Fold().String(name) {
		child, ok := t.child(n, c)
		if !ok {
			return Result{}
		}
		n = child
	}

	return t.firstCompletion(n)
}

func (t *Trie) firstCompletion(n int32) Result {
	nd := &t.nodes[n]

	switch {
	case nd.begin >= 0:
		return Result{Cities: t.span(nd.begin, nd.end)}
	case len(nd.children) == 1:
		return t.firstCompletion(nd.children[0])
	case len(nd.children) > 1:
		return t.ambiguousHints(n)
	default:
		return Result{}
	}
}

// ambiguousHints returns every record below n, the whole subtree rather than one
// completion per branch.
func (t *Trie) ambiguousHints(n int32) Result {
	nd := &t.nodes[n]
	return Result{Cities: t.span(nd.lo, nd.hi), Ambiguous: true}
}

func (t *Trie) span(begin, end int32) []geomodel.City {
	return t.cities[begin:end:end]
}

// QueryPlace runs Query and uses state to pick between cities sharing the same name.
//
// Without a state several same-named cities are reported as ambiguous. With a state
// only the cities of that state (case-insensitive) are kept; the result may be empty.
func (t *Trie) QueryPlace(name, state string) Result {
	res := t.Query(name)
	if len(res.Cities) <= 1 || res.Ambiguous {
		return res
	}

	if state == "" {
		res.Ambiguous = true
		return res
	}

	var filtered []geomodel.City
	for _, c := range res.Cities {
		if strings.EqualFold(c.State, state) {
			filtered = append(filtered, c)
		}
	}
	return Result{Cities: filtered}
}
