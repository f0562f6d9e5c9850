package tiler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDatasetKind(t *testing.T) {
	require.Equal(t, LightPollution, ParseDatasetKind(" light-pollution"))
	require.Equal(t, EarthMap, ParseDatasetKind("EARTH_MAP"))
	require.Equal(t, DatasetKind(""), ParseDatasetKind("elevation"))
	require.Equal(t, "light-pollution.tree", LightPollution.FileName())
}

func TestCopyIsDeep(t *testing.T) {
	opts := &TilerOptions{
		Dataset:            Population,
		TilerQueryOptions:  &TilerQueryOptions{Level: 2},
		TilerExportOptions: &TilerExportOptions{Output: "out"},
	}

	copied := opts.Copy()
	copied.TilerQueryOptions.Level = 5
	copied.TilerExportOptions.Output = "elsewhere"

	require.Equal(t, 2, opts.TilerQueryOptions.Level)
	require.Equal(t, "out", opts.TilerExportOptions.Output)
	require.Nil(t, copied.TilerServeOptions)
	require.Equal(t, Population, copied.Dataset)
}
