package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRewardCatalog(t *testing.T) {
	catalog, err := ParseRewardCatalog([]byte(`
rewards:
  - id: DISC5K5P
    name: 5% off
    points_cost: 5000
    discount_percent: 5
  - id: DISC50K50P
    name: Half price
    points_cost: 50000
    discount_percent: 50
`))
	require.NoError(t, err)

	r, ok := catalog.Lookup("DISC50K50P")
	require.True(t, ok)
	require.Equal(t, int64(50000), r.PointsCost)
	require.Equal(t, 50, r.DiscountPercent)

	_, ok = catalog.Lookup("DISC10K10P")
	require.False(t, ok)
	require.Len(t, catalog.List(), 2)
}

func TestParseRewardCatalogErrors(t *testing.T) {
	cases := map[string]string{
		"missing id":       "rewards:\n  - points_cost: 10\n    discount_percent: 5\n",
		"zero cost":        "rewards:\n  - id: A\n    points_cost: 0\n    discount_percent: 5\n",
		"percent too high": "rewards:\n  - id: A\n    points_cost: 10\n    discount_percent: 101\n",
		"duplicate id":     "rewards:\n  - id: A\n    points_cost: 10\n    discount_percent: 5\n  - id: A\n    points_cost: 20\n    discount_percent: 5\n",
		"bad yaml":         "rewards: [",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseRewardCatalog([]byte(doc))
			require.Error(t, err)
		})
	}
}

func TestLoadRewardCatalog(t *testing.T) {
	def, err := LoadRewardCatalog("")
	require.NoError(t, err)
	_, ok := def.Lookup("DISC10K10P")
	require.True(t, ok)
	_, ok = def.Lookup("DISC20K20P")
	require.True(t, ok)

	path := filepath.Join(t.TempDir(), "rewards.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rewards:\n  - id: X\n    points_cost: 1\n    discount_percent: 1\n"), 0o644))
	loaded, err := LoadRewardCatalog(path)
	require.NoError(t, err)
	require.Len(t, loaded.List(), 1)

	_, err = LoadRewardCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
