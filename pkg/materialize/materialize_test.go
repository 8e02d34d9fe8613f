package materialize

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TomaszSorobka/CSRP-graphs/pkg/instance"
	"github.com/TomaszSorobka/CSRP-graphs/pkg/instance/instancetest"
	"github.com/TomaszSorobka/CSRP-graphs/pkg/intersection"
	"github.com/TomaszSorobka/CSRP-graphs/pkg/invariant"
)

func decompose(t *testing.T, inst *instance.Instance, deleted ...int) *intersection.Graph {
	t.Helper()
	g := intersection.Build(inst)
	require.NoError(t, g.Split(deleted))
	g.AddDeletedNodes()
	return g
}

func TestMaterializePath(t *testing.T) {
	inst := instancetest.Parse("A:1,2 B:2,3 C:3,4")
	subs, err := Materialize(inst, decompose(t, inst, 1))
	require.NoError(t, err)
	require.Len(t, subs, 2)

	assert.Equal(t, "test.0", subs[0].ID)
	assert.Equal(t, []int{0, 1}, subs[0].Entities)
	assert.Equal(t, []int{1, 2}, subs[0].Statements)
	assert.Equal(t, []int{2}, subs[0].StatementsOf(1), "the copy of B keeps only the statement it shares with A")

	assert.Equal(t, "test.1", subs[1].ID)
	assert.Equal(t, []int{1, 2}, subs[1].Entities)
	assert.Equal(t, []int{3, 4}, subs[1].Statements)
	assert.Equal(t, []int{3}, subs[1].StatementsOf(1))

	assert.Same(t, inst.Catalog(), subs[0].Catalog())
	assert.Equal(t, "B", subs[1].EntityName(1))
}

func TestMaterializeDedupesOwnStatements(t *testing.T) {
	inst := instancetest.Parse("A:1,1,2 B:2 C:5")
	g := intersection.Build(inst)
	subs, err := Materialize(inst, g)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, []int{1, 2}, subs[0].StatementsOf(0))
}

func TestUniqueStatementsGoToSmallestSubInstance(t *testing.T) {
	inst := instancetest.Parse("A:1 B:1,2,9 C:2,3")
	subs, err := Materialize(inst, decompose(t, inst, 1))
	require.NoError(t, err)
	require.Len(t, subs, 2)

	// {A,B} holds one statement, {B,C} two.
	assert.Equal(t, []int{1, 9}, subs[0].Statements)
	assert.Equal(t, []int{1, 9}, subs[0].StatementsOf(1), "shared statements first, then unique")
	assert.Equal(t, []int{2, 3}, subs[1].Statements)
}

func TestUniqueStatementsAddOwnerWhenMissing(t *testing.T) {
	// After deleting X the components are {S,T}, {P}, {Q,R}.
	inst := instancetest.Parse("X:1,2,7 P:1 Q:2,3,4 R:3,4 S:10 T:10")
	x := instancetest.ID(inst, "X")
	subs, err := Materialize(inst, decompose(t, inst, x))
	require.NoError(t, err)
	require.Len(t, subs, 3)

	assert.Equal(t, []string{"S", "T", "X"}, instancetest.Names(inst, subs[0].Entities))
	assert.Equal(t, []int{7, 10}, subs[0].Statements)
	assert.Equal(t, []int{7}, subs[0].StatementsOf(x))
	for _, sub := range subs {
		assert.NoError(t, sub.Validate())
	}
}

func TestUniqueStatementsLargestFirst(t *testing.T) {
	// Components after deleting X then Y: {R}, {P}, {Q}.
	inst := instancetest.Parse("X:1,7 Y:2,8,9 P:1 Q:2 R:5")
	x, y := instancetest.ID(inst, "X"), instancetest.ID(inst, "Y")
	subs, err := Materialize(inst, decompose(t, inst, x, y))
	require.NoError(t, err)
	require.Len(t, subs, 3)

	// Y has two unique statements and is placed first, into {R}. X then
	// lands in {P,X}, the first remaining sub-instance with one statement.
	assert.Equal(t, []string{"R", "Y"}, instancetest.Names(inst, subs[0].Entities))
	assert.Equal(t, []int{5, 8, 9}, subs[0].Statements)
	assert.Equal(t, []int{1, 7}, subs[1].Statements)
	assert.Equal(t, []int{1, 7}, subs[1].StatementsOf(x))
	assert.Equal(t, []int{2}, subs[2].Statements)
}

func TestMaterializeWithoutComponentsIsViolation(t *testing.T) {
	inst := instancetest.Parse("A:1 B:1")
	g := intersection.Build(inst)
	require.NoError(t, g.Split([]int{0, 1}))

	_, err := Materialize(inst, g)
	require.Error(t, err)
	assert.True(t, invariant.IsViolation(err))

	var ie *invariant.Error
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "test", ie.InstanceID)
	assert.Equal(t, []int{0, 1}, ie.Candidate)
}

func TestMaterializeDetectsLostStatement(t *testing.T) {
	inst := instance.New("orphan", []int{0, 1}, []int{1, 99}, map[int][]int{0: {1}, 1: {1}}, nil)
	_, err := Materialize(inst, intersection.Build(inst))
	require.Error(t, err)
	assert.True(t, invariant.IsViolation(err))
	assert.Contains(t, err.Error(), "99")
}

func TestMaterializeDoesNotMutateGraph(t *testing.T) {
	inst := instancetest.Parse("X:1,7 Y:2,8,9 P:1 Q:2 R:5")
	g := decompose(t, inst, 0, 1)
	before := g.DeletedIDs()

	_, err := Materialize(inst, g)
	require.NoError(t, err)
	assert.Equal(t, before, g.DeletedIDs())
}

func TestMaterializeProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	build := func(seed int64) (*instance.Instance, *intersection.Graph, bool) {
		r := rand.New(rand.NewSource(seed))
		inst := instancetest.Random(r, 10, 14)
		g := intersection.Build(inst)
		if err := g.Split(instancetest.RandomDeletionSet(r, inst, 3)); err != nil {
			return nil, nil, false
		}
		g.Merge(1.0 / 3)
		g.AddDeletedNodes()
		return inst, g, g.ComponentCount() > 0
	}

	properties.Property("sub-instances cover exactly the parent statements", prop.ForAll(
		func(seed int64) bool {
			inst, g, ok := build(seed)
			if !ok {
				return true
			}
			subs, err := Materialize(inst, g)
			if err != nil {
				return false
			}
			var union []int
			for _, sub := range subs {
				if sub.Validate() != nil {
					return false
				}
				union = append(union, sub.Statements...)
			}
			slices.Sort(union)
			return slices.Equal(slices.Compact(union), inst.Statements)
		},
		gen.Int64(),
	))

	properties.Property("entities are preserved", prop.ForAll(
		func(seed int64) bool {
			inst, g, ok := build(seed)
			if !ok {
				return true
			}
			subs, err := Materialize(inst, g)
			if err != nil {
				return false
			}
			count := make(map[int]int)
			for _, sub := range subs {
				for _, e := range sub.Entities {
					count[e]++
				}
			}
			for _, e := range inst.Entities {
				if g.Node(e).Deleted {
					if count[e] < 1 {
						return false
					}
				} else if count[e] != 1 {
					return false
				}
			}
			return true
		},
		gen.Int64(),
	))

	properties.Property("materialization is idempotent", prop.ForAll(
		func(seed int64) bool {
			inst, g, ok := build(seed)
			if !ok {
				return true
			}
			a, errA := Materialize(inst, g)
			b, errB := Materialize(inst, g)
			if errA != nil || errB != nil || len(a) != len(b) {
				return false
			}
			for i := range a {
				if a[i].ID != b[i].ID ||
					!slices.Equal(a[i].Entities, b[i].Entities) ||
					!slices.Equal(a[i].Statements, b[i].Statements) {
					return false
				}
				for _, e := range a[i].Entities {
					if !slices.Equal(a[i].StatementsOf(e), b[i].StatementsOf(e)) {
						return false
					}
				}
			}
			return true
		},
		gen.Int64(),
	))

	properties.TestingRun(t)
}
