// Package citytrie indexes city records by name in a character trie built over the
// records sorted case-insensitively by name and state.
//
// Every node covers a contiguous range of the sorted records, so a match is always
// reported as a sub-slice of the backing records.
package citytrie

import (
	"cmp"
	"slices"
	"strings"

	"github.com/royalcat/airplaces/geomodel"
	"golang.org/x/text/cases"
)

// terminator marks the position right after the last rune of a name.
const terminator rune = -1

type node struct {
	char rune

	// records whose name ends at this node, begin < 0 when none
	begin, end int32
	// every record under this node
	lo, hi int32

	// ascending by char
	children []int32
}

type Trie struct {
	cities []geomodel.City
	keys   [][]rune
	nodes  []node
}

type entry struct {
	city        geomodel.City
	name, state string
}

// New takes ownership of cities, sorts them and builds the trie.
func New(cities []geomodel.City) *Trie {
	fold := cases.Fold()

	entries := make([]entry, len(cities))
	for i, c := range cities {
		entries[i] = entry{
			city:  c,
			name:  fold.String(c.Name),
			state: fold.String(c.State),
		}
	}
	slices.SortStableFunc(entries, func(a, b entry) int {
		return cmp.Or(strings.Compare(a.name, b.name), strings.Compare(a.state, b.state))
	})

	t := &Trie{
		cities: cities,
		keys:   make([][]rune, len(cities)),
		nodes:  []node{{begin: -1, end: -1}},
	}
	for i, e := range entries {
		t.cities[i] = e.city
		t.keys[i] = []rune(e.name)
	}

	t.construct(0, len(t.cities), 0, 0)

	return t
}

// Len returns the number of indexed records.
func (t *Trie) Len() int {
	return len(t.cities)
}

func (t *Trie) construct(begin, end, depth int, n int32) {
	t.nodes[n].lo, t.nodes[n].hi = int32(begin), int32(end)

	for idx := begin; idx < end; {
		next := t.endOfRun(idx, end, depth)

		c := t.runeAt(idx, depth)
		if c == terminator {
			t.nodes[n].begin, t.nodes[n].end = int32(idx), int32(next)
		} else {
			child := int32(len(t.nodes))
			t.nodes = append(t.nodes, node{char: c, begin: -1, end: -1})
			t.nodes[n].children = append(t.nodes[n].children, child)
			t.construct(idx, next, depth+1, child)
		}

		idx = next
	}
}

// endOfRun returns the first index after fm whose rune at depth differs from fm's.
func (t *Trie) endOfRun(fm, to, depth int) int {
	c := t.runeAt(fm, depth)
	for i := fm + 1; i < to; i++ {
		if t.runeAt(i, depth) != c {
			return i
		}
	}
	return to
}

func (t *Trie) runeAt(i, depth int) rune {
	key := t.keys[i]
	if depth >= len(key) {
		return terminator
	}
	return key[depth]
}

func (t *Trie) child(n int32, c rune) (int32, bool) {
	children := t.nodes[n].children
	i, ok := slices.BinarySearchFunc(children, c, func(child int32, c rune) int {
		return cmp.Compare(t.nodes[child].char, c)
	})
	if !ok {
		return 0, false
	}
	return children[i], true
}
