package sqlite_test

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vortex-fintech/contacts/contact"
	"github.com/vortex-fintech/contacts/data/contactstore/sqlite"
	"github.com/vortex-fintech/contacts/foundation/timeutil"
)

const fixedID = contact.ID("01890a5d-ac96-774b-bcce-b302099a8057")

var created = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

const anaDoc = `{"id":"01890a5d-ac96-774b-bcce-b302099a8057","firstName":"Ana","lastName":"","email":"ana@example.com","phone":"","createdAt":"2024-05-01T10:00:00Z"}`

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func newStore(db sqlite.Executor) *sqlite.Store {
	return sqlite.New(db,
		sqlite.WithClock(timeutil.NewFrozenClock(created)),
		sqlite.WithIDGenerator(func() (contact.ID, error) { return fixedID, nil }),
	)
}

func TestCreate(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO contacts (id, document, created_at)")).
		WithArgs(string(fixedID), anaDoc, created.UnixMicro()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	c, err := newStore(db).Create(context.Background(), contact.Fields{FirstName: "Ana", Email: "ana@example.com"})
	require.NoError(t, err)
	assert.Equal(t, fixedID, c.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_Failure(t *testing.T) {
	db, mock := newMock(t)
	want := errors.New("database is locked")
	mock.ExpectExec("INSERT INTO contacts").WillReturnError(want)

	_, err := newStore(db).Create(context.Background(), contact.Fields{FirstName: "Ana", Phone: "1"})
	assert.ErrorIs(t, err, want)
}

func TestFindByID(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT document FROM contacts WHERE id = ?")).
		WithArgs(string(fixedID)).
		WillReturnRows(sqlmock.NewRows([]string{"document"}).AddRow(anaDoc))

	c, err := newStore(db).FindByID(context.Background(), fixedID)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "Ana", c.FirstName)
	assert.True(t, c.CreatedAt.Equal(created))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByID_NotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("SELECT document FROM contacts").
		WillReturnRows(sqlmock.NewRows([]string{"document"}))

	c, err := newStore(db).FindByID(context.Background(), fixedID)
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestFindAll(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC, id DESC")).
		WillReturnRows(sqlmock.NewRows([]string{"document"}).
			AddRow(`{"id":"b","firstName":"t2","phone":"1","createdAt":"2024-05-01T10:00:01Z"}`).
			AddRow(`{"id":"a","firstName":"t1","phone":"1","createdAt":"2024-05-01T10:00:00Z"}`))

	list, err := newStore(db).FindAll(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, contact.ID("b"), list[0].ID)
	assert.Equal(t, contact.ID("a"), list[1].ID)
}

func TestFindAll_BadDocument(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("SELECT document FROM contacts").
		WillReturnRows(sqlmock.NewRows([]string{"document"}).AddRow(`not json`))

	_, err := newStore(db).FindAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode document")
}

func TestUpdateByID(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE contacts SET document = json_patch(document, ?) WHERE id = ? RETURNING document")).
		WithArgs(`{"firstName":"Ana","lastName":"","email":"ana@example.com","phone":""}`, string(fixedID)).
		WillReturnRows(sqlmock.NewRows([]string{"document"}).AddRow(anaDoc))

	c, err := newStore(db).UpdateByID(context.Background(), fixedID, contact.Fields{FirstName: "Ana", Email: "ana@example.com"})
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, fixedID, c.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteByID_Unknown(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("DELETE FROM contacts WHERE id = ? RETURNING document")).
		WithArgs(string(fixedID)).
		WillReturnRows(sqlmock.NewRows([]string{"document"}))

	c, err := newStore(db).DeleteByID(context.Background(), fixedID)
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestEnsureSchema_Transaction(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS contacts").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS contacts_created_at_idx").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	require.NoError(t, newStore(db).EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchema_RollbackOnFailure(t *testing.T) {
	db, mock := newMock(t)
	want := errors.New("disk I/O error")
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE").WillReturnError(want)
	mock.ExpectRollback()

	err := newStore(db).EnsureSchema(context.Background())
	assert.ErrorIs(t, err, want)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_RealDatabase(t *testing.T) {
	ctx := context.Background()
	db, err := sqlite.Open(ctx, ":memory:")
	require.NoError(t, err)
	defer db.Close()

	clock := timeutil.NewFrozenClock(created)
	s := sqlite.New(db, sqlite.WithClock(clock))
	require.NoError(t, s.EnsureSchema(ctx))
	require.NoError(t, s.EnsureSchema(ctx))

	svc := contact.NewService(s)
	var ids []contact.ID
	for _, name := range []string{"t1", "t2", "t3"} {
		c, err := svc.Register(ctx, contact.Input{"firstName": name, "phone": "1"})
		require.NoError(t, err)
		ids = append(ids, c.ID)
		clock.Advance(time.Second)
	}

	list, err := svc.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"t3", "t2", "t1"}, []string{list[0].FirstName, list[1].FirstName, list[2].FirstName})

	edited, err := svc.Edit(ctx, ids[0].String(), contact.Input{"firstName": "t1b", "email": "t1@example.com"})
	require.NoError(t, err)
	require.NotNil(t, edited)
	assert.Equal(t, "", edited.Phone)
	assert.True(t, edited.CreatedAt.Equal(created))

	removed, err := svc.Delete(ctx, ids[1].String())
	require.NoError(t, err)
	require.NotNil(t, removed)

	list, err = svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
