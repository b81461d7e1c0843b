package repositories

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPostgresDSN(t *testing.T) {
	t.Run("lock timeout applies to every connection", func(t *testing.T) {
		// The timeout must ride in the DSN, not a one-off SET on a single
		// pooled connection.
		assert.Contains(t, postgresDSN(), "options='-c lock_timeout=5s'")
	})

	t.Run("lock timeout is configurable", func(t *testing.T) {
		t.Setenv("DB_LOCK_TIMEOUT", "250ms")
		assert.Contains(t, postgresDSN(), "options='-c lock_timeout=250ms'")
	})

	t.Run("connection parameters come from the environment", func(t *testing.T) {
		t.Setenv("DB_HOST", "db.internal")
		t.Setenv("DB_NAME", "kobo_test")
		dsn := postgresDSN()
		assert.Contains(t, dsn, "host=db.internal")
		assert.Contains(t, dsn, "dbname=kobo_test")
	})
}
