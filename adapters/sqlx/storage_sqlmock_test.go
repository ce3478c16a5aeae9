package sqlx_test

import (
	"context"
	"database/sql"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	libsqlx "github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storage "gesushell/adapters/sqlx"
)

func newMockStore(t *testing.T) (*storage.Store, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	xdb := storage.NewWithDB(libsqlx.NewDb(db, "postgres"), storage.DriverPostgres)
	cleanup := func() {
		_ = db.Close()
	}
	return xdb, mock, cleanup
}

func TestSQLMock_LoadMissing(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT payload FROM state_blobs`).
		WithArgs("gamification-alice").
		WillReturnError(sql.ErrNoRows)

	raw, ok, err := store.Load(context.Background(), "gamification-alice")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, raw)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_LoadPresent(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	payload := []byte(`{"schema_version":1,"state":{"xp":42}}`)
	mock.ExpectQuery(`SELECT payload FROM state_blobs`).
		WithArgs("gamification-alice").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow(payload))

	raw, ok, err := store.Load(context.Background(), "gamification-alice")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, payload, raw)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_SaveUpserts(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	mock.ExpectExec(`INSERT INTO state_blobs`).
		WithArgs("gamification-alice", []byte("payload"), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Save(context.Background(), "gamification-alice", []byte("payload")))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_BackupInserts(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	raw := []byte(`{{{not json`)
	mock.ExpectExec(`INSERT INTO state_backups`).
		WithArgs(sqlmock.AnyArg(), "gamification-alice", raw, "corrupt", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	name, err := store.Backup(context.Background(), "gamification-alice", raw, "corrupt")
	require.NoError(t, err)
	assert.NotEmpty(t, name)
	require.NoError(t, mock.ExpectationsWereMet())
}
