package migrations

import (
	"io/fs"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	embedded "retailops/migrations"
)

func TestParseDirection(t *testing.T) {
	d, err := ParseDirection("up")
	require.NoError(t, err)
	assert.Equal(t, Up, d)

	d, err = ParseDirection("down")
	require.NoError(t, err)
	assert.Equal(t, Down, d)

	_, err = ParseDirection("sideways")
	assert.Error(t, err)
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(embedded.Postgres, embedded.PostgresDir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	ups := make([]string, 0)
	downs := make(map[string]bool)
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups = append(ups, strings.TrimSuffix(name, ".up.sql"))
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Errorf("unexpected file %s", name)
		}
	}

	sort.Strings(ups)
	assert.Len(t, downs, len(ups))
	for _, base := range ups {
		assert.True(t, downs[base], "missing down migration for %s", base)
	}
}

func TestActivityLogIndexes(t *testing.T) {
	names := make([]string, 0)
	for _, idx := range ActivityLogIndexes() {
		names = append(names, *idx.Options.Name)
	}
	assert.ElementsMatch(t, []string{"idx_activity_logs_timestamp", "idx_activity_logs_entity"}, names)
}
