package database

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsAreOrdered(t *testing.T) {
	t.Parallel()

	migrations, err := Migrations()
	require.NoError(t, err)
	require.Len(t, migrations, 2)
	require.Equal(t, 1, migrations[0].Version)
	require.Contains(t, migrations[0].SQL, "CREATE TABLE IF NOT EXISTS users")
	require.Equal(t, 2, migrations[1].Version)
	require.Contains(t, migrations[1].SQL, "CREATE TABLE IF NOT EXISTS history")
}

func TestLoadMigrationsSkipsNoiseAndRejectsDuplicates(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"m/010_late.sql":    {Data: []byte("SELECT 10;")},
		"m/002_second.sql":  {Data: []byte("SELECT 2;")},
		"m/README.md":       {Data: []byte("docs")},
		"m/draft.sql":       {Data: []byte("SELECT 0;")},
		"m/000_zero.sql":    {Data: []byte("SELECT 0;")},
		"m/abc_invalid.sql": {Data: []byte("SELECT 0;")},
	}
	migrations, err := loadMigrations(fsys, "m")
	require.NoError(t, err)
	require.Len(t, migrations, 2)
	require.Equal(t, "002_second.sql", migrations[0].Name)
	require.Equal(t, 10, migrations[1].Version)

	fsys["m/002_again.sql"] = &fstest.MapFile{Data: []byte("SELECT 2;")}
	_, err = loadMigrations(fsys, "m")
	require.Error(t, err)
}
