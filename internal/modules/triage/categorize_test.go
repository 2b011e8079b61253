package triage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		name        string
		title       string
		description string
		want        Category
	}{
		{"garbage", "Overflowing bin", "Trash everywhere near the market", CategoryGarbage},
		{"pothole", "Big POTHOLE", "car damaged", CategoryPothole},
		{"lighting", "Lamp post dark", "since monday", CategoryLighting},
		{"water", "Burst pipe", "flooding the lane", CategoryWater},
		{"other", "Noise", "loud music at night", CategoryOther},
		{"order wins", "Garbage on the street", "", CategoryGarbage},
		{"street light is a pothole match first", "Street light out", "", CategoryPothole},
		{"title and description joined", "lamp", "", CategoryLighting},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Categorize(tc.title, tc.description))
		})
	}
}

func TestDefaultRulesIsACopy(t *testing.T) {
	rs := DefaultRules()
	rs[0].Keywords[0] = "mutated"
	assert.Equal(t, CategoryGarbage, Categorize("garbage", ""))
}

func TestParseRules(t *testing.T) {
	raw := []byte(`
rules:
  - category: Graffiti
    keywords: [" Graffiti ", paint]
  - category: Lighting
    keywords: [light]
`)
	rs, err := ParseRules(raw)
	require.NoError(t, err)

	want := Rules{
		{Category: "Graffiti", Keywords: []string{"graffiti", "paint"}},
		{Category: CategoryLighting, Keywords: []string{"light"}},
	}
	if diff := cmp.Diff(want, rs); diff != "" {
		t.Fatalf("rules mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, Category("Graffiti"), rs.Categorize("Paint on wall", ""))
	assert.Equal(t, CategoryOther, rs.Categorize("garbage", ""))
}

func TestParseRulesRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"unknown field":   "rules:\n  - category: A\n    keywords: [a]\n    weight: 2\n",
		"blank keyword":   "rules:\n  - category: A\n    keywords: [\"  \"]\n",
		"no keywords":     "rules:\n  - category: A\n",
		"no category":     "rules:\n  - keywords: [a]\n",
		"empty rule list": "rules: []\n",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseRules([]byte(raw))
			assert.Error(t, err)
		})
	}
}

func TestLoadRules(t *testing.T) {
	rs, err := LoadRules("")
	require.NoError(t, err)
	assert.Equal(t, DefaultRules(), rs)

	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rules:\n  - category: Parks\n    keywords: [bench]\n"), 0o600))
	rs, err = LoadRules(path)
	require.NoError(t, err)
	assert.Equal(t, Category("Parks"), rs.Categorize("Broken bench", ""))

	_, err = LoadRules(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
