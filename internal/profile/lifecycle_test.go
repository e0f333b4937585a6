package profile

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddInterest_CaseInsensitiveDuplicate(t *testing.T) {
	list, ok := AddInterest(nil, "Jazz", LevelCasual)
	require.True(t, ok)

	list, ok = AddInterest(list, "jazz", LevelCasual)
	assert.False(t, ok)
	require.Len(t, list, 1)
	assert.Equal(t, "Jazz", list[0].Label)
	assert.NotEmpty(t, list[0].ID)
}

func TestAddInterest_TrimsAndRejectsBlank(t *testing.T) {
	list, ok := AddInterest(nil, "   ", LevelCasual)
	assert.False(t, ok)
	assert.Empty(t, list)

	list, ok = AddInterest(nil, "  Poterie ", LevelExpert)
	require.True(t, ok)
	assert.Equal(t, "Poterie", list[0].Label)
	assert.Equal(t, LevelExpert, list[0].Level)
}

func TestAddInterest_DoesNotMutateInput(t *testing.T) {
	orig := []Interest{{ID: "a", Label: "Cuisine", Level: LevelCasual}}
	out, ok := AddInterest(orig, "Yoga", LevelCasual)
	require.True(t, ok)
	assert.Len(t, orig, 1)
	assert.Len(t, out, 2)
}

func TestToggleLevel_RoundTrip(t *testing.T) {
	list := []Interest{{ID: "a", Label: "Cuisine", Level: LevelCasual}}

	once := ToggleLevel(list, "a")
	assert.Equal(t, LevelExpert, once[0].Level)
	assert.Equal(t, LevelCasual, list[0].Level, "input must stay untouched")

	twice := ToggleLevel(once, "a")
	assert.Equal(t, LevelCasual, twice[0].Level)
}

func TestToggleLevel_UnknownID(t *testing.T) {
	list := []Interest{{ID: "a", Label: "Cuisine", Level: LevelCasual}}
	assert.Equal(t, list, ToggleLevel(list, "missing"))
}

func TestRemoveInterest(t *testing.T) {
	list := []Interest{
		{ID: "a", Label: "Cuisine", Level: LevelCasual},
		{ID: "b", Label: "Jazz", Level: LevelExpert},
	}
	out := RemoveInterest(list, "a")
	require.Len(t, out, 1)
	assert.Equal(t, "b", out[0].ID)
}

func TestAddTag_Duplicate(t *testing.T) {
	tags, ok := AddTag(nil, "Alcool")
	require.True(t, ok)
	tags, ok = AddTag(tags, "ALCOOL ")
	assert.False(t, ok)
	assert.Len(t, tags, 1)

	tags = RemoveTag(tags, tags[0].ID)
	assert.Empty(t, tags)
}

func TestDismissGift(t *testing.T) {
	p := Default()

	p, ok := DismissGift(p, "Parfums")
	require.True(t, ok)
	require.Len(t, p.Blacklist, 1)

	p, ok = DismissGift(p, "parfums")
	assert.False(t, ok)
	assert.Len(t, p.Blacklist, 1)

	p, ok = DismissGift(p, "")
	assert.False(t, ok)
	assert.Len(t, p.Blacklist, 1)
}

func TestLevel_UnmarshalLegacyValues(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{`"expert"`, LevelExpert},
		{`"casual"`, LevelCasual},
		{`"none"`, LevelCasual},
		{`""`, LevelCasual},
	}
	for _, tt := range tests {
		var l Level
		require.NoError(t, json.Unmarshal([]byte(tt.in), &l), tt.in)
		assert.Equal(t, tt.want, l, tt.in)
	}

	var l Level
	assert.Error(t, json.Unmarshal([]byte(`"guru"`), &l))
}

func TestValidate(t *testing.T) {
	p := Default()
	assert.NoError(t, p.Validate())

	p.CalmEnergy = 101
	assert.ErrorContains(t, p.Validate(), "calmeEnergie")

	p = Default()
	p.Age = -1
	assert.Error(t, p.Validate())
}

func TestGroups(t *testing.T) {
	p := Default()
	for _, g := range Groups {
		assert.True(t, ValidGroup(g))
		tags, ok := AddTag(p.Group(g), "x-"+g)
		require.True(t, ok)
		p = p.SetGroup(g, tags)
		assert.Len(t, p.Group(g), 1, g)
	}
	assert.False(t, ValidGroup("interets"))
	assert.Nil(t, p.Group("unknown"))
}

func TestNormalize(t *testing.T) {
	var p Profile
	p = p.Normalize()
	assert.Equal(t, Unspecified, p.Budget)
	assert.Equal(t, Unspecified, p.Intention)
	assert.Equal(t, Unspecified, p.BuyerProfile)
	assert.NotNil(t, p.Interests)
	assert.NotNil(t, p.Blacklist)
}
