// Package instancetest builds instances for tests.
package instancetest

import (
	"fmt"
	"math/rand"
	"slices"
	"strconv"
	"strings"

	"github.com/TomaszSorobka/CSRP-graphs/pkg/instance"
)

// Parse builds an instance from a compact description such as
// "A:1,2 B:2,3 C:4". Entities get ids 0, 1, 2, ... in order of appearance and
// keep their letter as name; statement ids are taken literally. An entity with
// no statements is written "D:".
func Parse(desc string) *instance.Instance {
	catalog := &instance.Catalog{EntityNames: map[int]string{}, StatementTexts: map[int]string{}}
	var entities, statements []int
	es := make(map[int][]int)
	seen := make(map[int]bool)

	for id, tok := range strings.Fields(desc) {
		name, list, ok := strings.Cut(tok, ":")
		if !ok {
			panic(fmt.Sprintf("instancetest: bad token %q", tok))
		}
		entities = append(entities, id)
		catalog.EntityNames[id] = name
		es[id] = []int{}
		if list == "" {
			continue
		}
		for _, f := range strings.Split(list, ",") {
			s, err := strconv.Atoi(f)
			if err != nil {
				panic(fmt.Sprintf("instancetest: bad statement %q", f))
			}
			es[id] = append(es[id], s)
			if !seen[s] {
				seen[s] = true
				statements = append(statements, s)
				catalog.StatementTexts[s] = "s" + f
			}
		}
	}
	return instance.New("test", entities, statements, es, catalog)
}

// ID returns the id of the entity with the given name, or -1.
func ID(inst *instance.Instance, name string) int {
	for _, e := range inst.Entities {
		if inst.EntityName(e) == name {
			return e
		}
	}
	return -1
}

// Names maps entity ids to their names, sorted.
func Names(inst *instance.Instance, ids []int) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = inst.EntityName(id)
	}
	slices.Sort(out)
	return out
}

// Random builds a valid random instance with 1..maxEntities entities and
// 1..maxStatements statements. Every statement gets at least one owner and
// owners occasionally list a statement twice.
func Random(r *rand.Rand, maxEntities, maxStatements int) *instance.Instance {
	nEntities := 1 + r.Intn(maxEntities)
	nStatements := 1 + r.Intn(maxStatements)

	entities := make([]int, nEntities)
	es := make(map[int][]int, nEntities)
	catalog := &instance.Catalog{EntityNames: map[int]string{}, StatementTexts: map[int]string{}}
	for e := range entities {
		entities[e] = e
		es[e] = []int{}
		catalog.EntityNames[e] = "e" + strconv.Itoa(e)
	}

	statements := make([]int, nStatements)
	for s := range statements {
		statements[s] = s
		catalog.StatementTexts[s] = "s" + strconv.Itoa(s)
		owner := r.Intn(nEntities)
		es[owner] = append(es[owner], s)
		for e := 0; e < nEntities; e++ {
			if e != owner && r.Float64() < 0.25 {
				es[e] = append(es[e], s)
			}
		}
	}
	for _, e := range entities {
		if len(es[e]) > 0 && r.Float64() < 0.1 {
			es[e] = append(es[e], es[e][0])
		}
		r.Shuffle(len(es[e]), func(i, j int) { es[e][i], es[e][j] = es[e][j], es[e][i] })
	}
	return instance.New("random", entities, statements, es, catalog)
}

// RandomDeletionSet picks up to max distinct entity ids of inst.
func RandomDeletionSet(r *rand.Rand, inst *instance.Instance, max int) []int {
	perm := r.Perm(inst.NumberOfEntities())
	k := 1 + r.Intn(max)
	if k > len(perm) {
		k = len(perm)
	}
	out := make([]int, k)
	for i := 0; i < k; i++ {
		out[i] = inst.Entities[perm[i]]
	}
	return out
}
