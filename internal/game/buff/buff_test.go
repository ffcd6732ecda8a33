package buff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfunc/noodle-rush/internal/errors"
	"github.com/wfunc/noodle-rush/internal/game/state"
)

func TestRegistry_Effect(t *testing.T) {
	r := DefaultRegistry()

	e, ok := r.Effect(DeliveryFlow, 1)
	require.True(t, ok)
	assert.Equal(t, 5.0, e.Value)
	assert.Empty(t, e.Special)

	e, ok = r.Effect(DeliveryFlow, 4)
	require.True(t, ok)
	assert.Equal(t, SpecialPenaltyReduction, e.Special)

	// 超过上限取最高等级
	e, ok = r.Effect(CrowdPull, 9)
	require.True(t, ok)
	assert.Equal(t, 5, e.Level)
	assert.Equal(t, 30.0, e.Value)

	_, ok = r.Effect(MentalClarity, 0)
	assert.False(t, ok)
	_, ok = r.Effect("unknown", 1)
	assert.False(t, ok)
}

func TestRegistry_TypeFor(t *testing.T) {
	r := DefaultRegistry()

	bt, ok := r.TypeFor("zen_master")
	require.True(t, ok)
	assert.Equal(t, MentalClarity, bt)

	_, ok = r.TypeFor("stranger")
	assert.False(t, ok)

	assert.Equal(t, []state.BuffType{DeliveryFlow, MentalClarity, Bargain, CrowdPull}, r.Types())
}

func TestRegistry_ApplyReplacesSameType(t *testing.T) {
	r := DefaultRegistry()
	doc := state.NewDocument(state.DefaultNewGameOptions())

	_, err := r.Apply(doc, "chef_li", 1)
	require.NoError(t, err)
	_, err = r.Apply(doc, "bartender", 2)
	require.NoError(t, err)
	b, err := r.Apply(doc, "scholar", 3)
	require.NoError(t, err)

	// scholar 与 chef_li 同为 delivery_flow，后者被替换
	require.Len(t, doc.Buffs.Active, 2)
	assert.Equal(t, 3, Level(doc, DeliveryFlow))
	assert.Equal(t, 2, Level(doc, CrowdPull))
	assert.Equal(t, 0, Level(doc, Bargain))
	assert.Equal(t, "confidant:scholar", b.Source)
}

func TestRegistry_ApplyNeverDuplicatesTypes(t *testing.T) {
	r := DefaultRegistry()
	doc := state.NewDocument(state.DefaultNewGameOptions())
	ids := []string{"chef_li", "zen_master", "merchant_wu", "bartender", "coach", "scholar"}

	for i := 0; i < 60; i++ {
		_, err := r.Apply(doc, ids[i%len(ids)], i%5+1)
		require.NoError(t, err)

		seen := map[state.BuffType]bool{}
		for _, b := range doc.Buffs.Active {
			assert.False(t, seen[b.Type], "重复的增益类型 %s", b.Type)
			seen[b.Type] = true
		}
	}
}

func TestRegistry_ApplyUnknown(t *testing.T) {
	r := DefaultRegistry()
	doc := state.NewDocument(state.DefaultNewGameOptions())

	_, err := r.Apply(doc, "stranger", 1)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
	_, err = r.Apply(doc, "chef_li", 0)
	assert.True(t, errors.Is(err, errors.ErrInvalidParam))
	assert.Empty(t, doc.Buffs.Active)
}

func TestDiscount(t *testing.T) {
	buffs := []state.Buff{{Type: Bargain, Level: 2, Value: 10}}
	assert.Equal(t, int64(900), Discount(buffs, 1000))
	assert.Equal(t, int64(1000), Discount(nil, 1000))
	assert.Equal(t, int64(0), Discount(buffs, 0))
	assert.Equal(t, 10.0, Value(buffs, Bargain))
	assert.Equal(t, 0.0, Value(buffs, CrowdPull))
}
