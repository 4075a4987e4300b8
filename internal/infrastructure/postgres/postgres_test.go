package postgres

import (
	"context"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureSchemaExecutesStatements(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	for range schema {
		mock.ExpectExec("CREATE").WillReturnResult(sqlmock.NewResult(0, 0))
	}

	require.NoError(t, EnsureSchema(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Both ends of a menu reference are foreign-keyed: a reference insert cannot
// commit against an ingredient a concurrent guarded DELETE just removed.
func TestSchemaConstrainsReferencesToBothEnds(t *testing.T) {
	var junction string
	for _, stmt := range schema {
		if strings.Contains(stmt, "CREATE TABLE IF NOT EXISTS menu_item_ingredients") {
			junction = stmt
			break
		}
	}
	require.NotEmpty(t, junction)
	assert.Contains(t, junction, "REFERENCES menu_items (shop_id, id)")
	assert.Contains(t, junction, "REFERENCES ingredients (shop_id, id)")
}
