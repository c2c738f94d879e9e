package testutil_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecomonitor/aquamap/migrations"
	"github.com/ecomonitor/aquamap/testutil"
)

// wantColumns lists, per table, the columns the map and the bundled authority
// read. pines keeps a mirror of the last written position; pin_positions holds
// both geographic and legacy percent columns.
var wantColumns = map[string][]string{
	"users":         {"id", "email", "display_name", "role", "is_active"},
	"pines":         {"id", "name", "category", "status", "description", "latitude", "longitude", "owner_id", "active", "deleted_at"},
	"pin_positions": {"pin_id", "latitude", "longitude", "x", "y", "updated_at"},
}

// TestMigrations applies every migration, checks the schema the repos rely on,
// then rolls everything back. Skipped when TEST_DATABASE_URL is not set.
func TestMigrations(t *testing.T) {
	db := testutil.NewSQLDB(t)
	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	require.NoError(t, err, "create goose provider")
	ctx := context.Background()

	// Another package's TestMain may already have migrated the shared DB.
	_, err = provider.DownTo(ctx, 0)
	require.NoError(t, err, "initial reset")

	results, err := provider.Up(ctx)
	require.NoError(t, err, "goose up")
	assert.Len(t, results, len(wantColumns))

	for table, cols := range wantColumns {
		assert.ElementsMatch(t, cols, intersect(columnsOf(t, db, table), cols), "columns of %s", table)
	}
	// The authority may run on its own database, so positions must not
	// reference pines.
	assert.Zero(t, foreignKeysOf(t, db, "pin_positions"))
	assert.Equal(t, 1, foreignKeysOf(t, db, "pines"), "pines.owner_id references users")

	_, err = provider.DownTo(ctx, 0)
	require.NoError(t, err, "goose down-to 0")
	for table := range wantColumns {
		assert.Empty(t, columnsOf(t, db, table), "table %s should be gone", table)
	}
}

func columnsOf(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()
	rows, err := db.QueryContext(context.Background(), `
		SELECT column_name FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = $1`, table)
	require.NoError(t, err)
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var c string
		require.NoError(t, rows.Scan(&c))
		cols = append(cols, c)
	}
	require.NoError(t, rows.Err())
	return cols
}

func foreignKeysOf(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	err := db.QueryRowContext(context.Background(), `
		SELECT count(*) FROM information_schema.table_constraints
		WHERE table_schema = 'public' AND table_name = $1 AND constraint_type = 'FOREIGN KEY'`, table).Scan(&n)
	require.NoError(t, err)
	return n
}

func intersect(have, want []string) []string {
	set := make(map[string]bool, len(have))
	for _, h := range have {
		set[h] = true
	}
	var out []string
	for _, w := range want {
		if set[w] {
			out = append(out, w)
		}
	}
	return out
}
