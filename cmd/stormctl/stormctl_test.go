package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/storm-data-atcf/internal/domain"
	"github.com/couchcryptid/storm-data-atcf/internal/feed"
)

const (
	sectorFixture = `05L ERNESTO 240815 1800 251N 669W ATL 85 972
11W YAGI 240905 0600 197N 1119E WPAC 140 915
96L INVEST 240905 0600 120N 400W ATL 25 1009
`
	interpFixture = `AL052024 ERNESTO 240815 1800 25.1 -66.9 L HU 85 972 12 15
WP112024 YAGI 240905 0600 19.7 111.9 W ST 140 915 9 290
AL962024 INVEST 240905 0600 12.0 -40.0 L DB 25 1009 10 270
`
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() {
		jsonOut = false
		listFilter = ""
		listRegions = ""
	})

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeCache(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, feed.FixFile), []byte(sectorFixture), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, feed.InterpFile), []byte(interpFixture), 0o600))
	t.Setenv("ATCF_CACHE_DIR", dir)
	t.Setenv("ATCF_REGIONS", "111111")
}

func TestClassify(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"ERNESTO", "85", "HU", "ATL"}, "Hurricane (cat2)\n"},
		{[]string{"YAGI", "140", "ST", "WPAC"}, "Super Typhoon (cat5)\n"},
		{[]string{"INVEST", "45", "DB", "ATL"}, "Area of Interest (low)\n"},
	}
	for _, tt := range tests {
		t.Run(tt.args[0], func(t *testing.T) {
			out, err := execute(t, append([]string{"classify"}, tt.args...)...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestClassify_JSON(t *testing.T) {
	out, err := execute(t, "classify", "--json", "ALBERTO", "40", "SS", "ATL")
	require.NoError(t, err)

	var c domain.Classification
	require.NoError(t, json.Unmarshal([]byte(out), &c))
	assert.Equal(t, domain.CategorySubtropicalStorm, c.Category)
}

func TestClassify_BadWind(t *testing.T) {
	_, err := execute(t, "classify", "ERNESTO", "fast", "HU", "ATL")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid wind")
}

func TestList(t *testing.T) {
	writeCache(t)

	out, err := execute(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "ERNESTO")
	assert.Contains(t, out, "Super Typhoon")
	assert.Contains(t, out, "96L")
}

func TestList_FilterAndRegions(t *testing.T) {
	writeCache(t)

	out, err := execute(t, "list", "--json", "--filter", "!invest", "--regions", "100000")
	require.NoError(t, err)

	var storms []domain.ActiveStorm
	require.NoError(t, json.Unmarshal([]byte(out), &storms))
	require.Len(t, storms, 1)
	assert.Equal(t, "05L", storms[0].ID)
}

func TestList_BadFilter(t *testing.T) {
	writeCache(t)

	_, err := execute(t, "list", "--filter", "wind >=")
	require.Error(t, err)
}

func TestList_EmptyCache(t *testing.T) {
	t.Setenv("ATCF_CACHE_DIR", t.TempDir())

	out, err := execute(t, "list")
	require.NoError(t, err)
	assert.Equal(t, "no active storms\n", out)
}

func TestDump(t *testing.T) {
	writeCache(t)

	out, err := execute(t, "dump")
	require.NoError(t, err)

	sector, interp, ok := strings.Cut(out, "\n\n")
	require.True(t, ok)
	assert.Equal(t, sectorFixture, sector+"\n")
	assert.Equal(t, 3, strings.Count(interp, "\n"))
	assert.True(t, strings.HasPrefix(interp, "AL052024 - - - 25.1 -66.9 L HU"))
}
