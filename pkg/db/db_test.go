package db

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"taskvault/pkg/config"
)

func TestDSNDefaultsSSLMode(t *testing.T) {
	dsn := DSN(config.DBConfig{Host: "localhost", Port: 5432, User: "u", Password: "p", Name: "todo"})
	assert.Equal(t, "postgres://u:p@localhost:5432/todo?sslmode=disable", dsn)

	dsn = DSN(config.DBConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "todo", SSLMode: "require"})
	assert.True(t, strings.HasSuffix(dsn, "sslmode=require"))
}

func TestTruncateSQL(t *testing.T) {
	assert.Equal(t, "unknown", truncateSQL(""))
	assert.Equal(t, "SELECT 1", truncateSQL("SELECT 1"))

	long := strings.Repeat("x", 250)
	got := truncateSQL(long)
	assert.Len(t, got, 203)
	assert.True(t, strings.HasSuffix(got, "..."))
}
