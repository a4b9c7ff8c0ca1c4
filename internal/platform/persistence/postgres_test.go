package persistence

import (
	"log/slog"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
)

// Connection lifecycle needs a live database; only the accessor is covered.
func TestPostgresDB_Pool(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	var pool *pgxpool.Pool
	db := &PostgresDB{pool: pool, logger: logger}

	assert.Equal(t, pool, db.Pool())
}
