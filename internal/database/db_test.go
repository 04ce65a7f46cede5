package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenSQLiteInMemory(t *testing.T) {
	db, err := Open(Config{Driver: "sqlite"})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.True(t, db.Migrator().HasTable("organizations"))
	require.True(t, db.Migrator().HasTable("memberships"))
	require.True(t, db.Migrator().HasTable("audit_logs"))
	require.True(t, db.Migrator().HasTable("cache_entries"))
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(Config{Driver: "oracle"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported database driver")
}

func TestBuildPostgresDSN(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{
		User:     "roster",
		Password: "secret",
		Name:     "rosterd",
		Host:     "db.internal",
		Port:     6543,
	})
	require.NoError(t, err)
	require.Contains(t, dsn, "host=db.internal")
	require.Contains(t, dsn, "port=6543")
	require.Contains(t, dsn, "sslmode=disable")

	_, err = buildPostgresDSN(Config{Host: "db"})
	require.Error(t, err)
}

func TestBuildMySQLDSN(t *testing.T) {
	dsn, err := buildMySQLDSN(Config{
		User: "roster",
		Name: "rosterd",
	})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(dsn, "roster@tcp(127.0.0.1:3306)/rosterd?"))
	require.Contains(t, dsn, "parseTime=True")

	override, err := buildMySQLDSN(Config{
		User:    "roster",
		Name:    "rosterd",
		Options: map[string]string{"charset": "latin1"},
	})
	require.NoError(t, err)
	require.Contains(t, override, "charset=latin1")
}
