package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDB_InitSchema(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS users").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, db.InitSchema(context.Background()))

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS users").WillReturnError(errors.New("permission denied"))
	err := db.InitSchema(context.Background())
	assert.ErrorContains(t, err, "failed to initialize schema")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchemaDeclaresReadModel(t *testing.T) {
	for _, table := range []string{"articles", "article_embeddings", "user_engagements"} {
		assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS "+table)
	}
}
