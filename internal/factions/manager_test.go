package factions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/k7LqB9c2W/funsim-sub000/internal/entropy"
)

func TestRelationMatrixInvariants(t *testing.T) {
	m := NewManager()
	rng := entropy.NewSource(13)
	var ids []int32
	for i := 0; i < 6; i++ {
		ids = append(ids, m.CreateFaction(rng, int32(i)).ID)
	}

	for _, a := range ids {
		for _, b := range ids {
			r := m.Relation(a, b)
			assert.Equal(t, r, m.Relation(b, a), "relation not symmetric for %d/%d", a, b)
			assert.GreaterOrEqual(t, r, RelationMin)
			assert.LessOrEqual(t, r, RelationMax)
			if a == b {
				assert.Equal(t, RelationSelf, r)
			}
		}
	}
}

func TestAdjustRelationClampsAndStaysSymmetric(t *testing.T) {
	m := NewManager()
	rng := entropy.NewSource(2)
	a := m.CreateFaction(rng, 0).ID
	b := m.CreateFaction(rng, 0).ID

	m.AdjustRelation(a, b, -500)
	assert.Equal(t, RelationMin, m.Relation(a, b))
	assert.Equal(t, RelationMin, m.Relation(b, a))

	m.AdjustRelation(a, b, 1000)
	assert.Equal(t, RelationMax, m.Relation(a, b))

	// Self-relation cannot be adjusted away from full.
	m.AdjustRelation(a, a, -50)
	assert.Equal(t, RelationSelf, m.Relation(a, a))
}

func TestStaleIDsReadNeutral(t *testing.T) {
	m := NewManager()
	rng := entropy.NewSource(2)
	a := m.CreateFaction(rng, 0).ID

	assert.Nil(t, m.Get(999))
	assert.Zero(t, m.Relation(a, 999))
	assert.Equal(t, RelationNeutral, Classify(m.Relation(a, 999)))
	m.AdjustRelation(a, 999, -10) // no-op, no panic
}

func TestDeclareWarLifecycle(t *testing.T) {
	m := NewManager()
	rng := entropy.NewSource(6)
	a := m.CreateFaction(rng, 0).ID
	b := m.CreateFaction(rng, 0).ID
	c := m.CreateFaction(rng, 0).ID

	w := m.DeclareWar(a, b, 10)
	require.NotNil(t, w)
	assert.True(t, m.AtWar(a, b))
	assert.False(t, m.AtWar(a, c))
	assert.Equal(t, RelationMin, m.Relation(a, b), "war must collapse the relation")
	assert.Equal(t, 1, w.Side(a))
	assert.Equal(t, -1, w.Side(b))
	assert.Equal(t, 0, w.Side(c))

	// Re-declaring returns the running war instead of stacking a second one.
	again := m.DeclareWar(a, b, 11)
	assert.Equal(t, w.ID, again.ID)
	assert.Len(t, m.Wars, 1)

	assert.Len(t, m.WarsOf(a), 1)
	assert.NotNil(t, m.WarBetween(b, a))
	assert.NotNil(t, m.WarByID(w.ID))

	m.EndWar(w.ID)
	assert.False(t, m.AtWar(a, b))
	assert.Empty(t, m.Wars)
	assert.Nil(t, m.WarByID(w.ID))
}

func TestRebelFactionStartsHostile(t *testing.T) {
	m := NewManager()
	rng := entropy.NewSource(21)
	parent := m.CreateFaction(rng, 0).ID
	rebel := m.CreateRebelFaction(rng, parent, 50)

	assert.Equal(t, RelationMin, m.Relation(rebel.ID, parent))
	assert.GreaterOrEqual(t, rebel.Traits.Aggression, 0.5)
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	m := NewManager()
	rng := entropy.NewSource(8)
	a := m.CreateFaction(rng, 0).ID
	b := m.CreateFaction(rng, 0).ID
	m.AdjustRelation(a, b, -12)
	m.DeclareWar(a, b, 3)

	restored := RestoreManager(m.Snapshot())
	assert.Equal(t, m.Count(), restored.Count())
	assert.Equal(t, m.Relation(a, b), restored.Relation(a, b))
	assert.True(t, restored.AtWar(a, b))

	next := restored.CreateFaction(rng, 9)
	assert.Greater(t, next.ID, b, "id counter regressed after restore")
}

func TestRestoreDiscardsMismatchedMatrix(t *testing.T) {
	m := NewManager()
	rng := entropy.NewSource(8)
	a := m.CreateFaction(rng, 0).ID
	b := m.CreateFaction(rng, 0).ID

	snap := m.Snapshot()
	snap.Relations = snap.Relations[:1] // corrupt

	restored := RestoreManager(snap)
	assert.Equal(t, 2, restored.Count())
	assert.Zero(t, restored.Relation(a, b), "mismatched matrix should reseed neutral")
	assert.Equal(t, RelationSelf, restored.Relation(a, a))
}

func TestCanExpandInto(t *testing.T) {
	m := NewManager()
	rng := entropy.NewSource(30)
	aID := m.CreateFaction(rng, 0).ID
	bID := m.CreateFaction(rng, 0).ID
	a, b := m.Get(aID), m.Get(bID)

	// Unclaimed and self are always allowed.
	assert.True(t, m.CanExpandInto(a.ID, -1, false))
	assert.True(t, m.CanExpandInto(a.ID, a.ID, false))

	// Hostile target: passive factions hold back, warlike ones push.
	m.AdjustRelation(a.ID, b.ID, -200)
	require.Equal(t, RelationHostile, m.RelationTypeOf(a.ID, b.ID))
	a.Traits.Aggression = 0.1
	a.Influence.Aggression = 1
	assert.False(t, m.CanExpandInto(a.ID, b.ID, false))
	a.Traits.Aggression = 0.9
	assert.True(t, m.CanExpandInto(a.ID, b.ID, false))

	// Resource stress lowers the bar.
	a.Traits.Aggression = 0.5
	assert.False(t, m.CanExpandInto(a.ID, b.ID, false))
	assert.True(t, m.CanExpandInto(a.ID, b.ID, true))
}
