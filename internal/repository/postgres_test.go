package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"linkshort/internal/config"
	"linkshort/internal/repository"
	"linkshort/internal/testutils"
)

func TestPostgresStore(t *testing.T) {
	ctx := context.Background()
	dsn := testutils.StartPostgres(t)

	cfg := config.Default()
	cfg.Store.Driver = config.DriverPostgres
	cfg.Store.DatabaseURL = dsn

	s, err := repository.Open(ctx, cfg, testutils.Logger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	pg, ok := s.(*repository.PostgresStore)
	require.True(t, ok)

	runStoreSuite(t, func(t *testing.T) repository.Store {
		_, err := pg.Pool.Exec(ctx, `TRUNCATE urls RESTART IDENTITY`)
		require.NoError(t, err)
		return pg
	})
}
