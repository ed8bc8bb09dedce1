package services

import (
	"context"
	"testing"

	"github.com/dimitrije/orbit-api/internal/database"
	"github.com/dimitrije/orbit-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*database.DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })
	return &database.DB{Pool: mock}, mock
}

func TestTagService_Create(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewTagService(db)
	orgID := uuid.New()
	color := "#ff0000"

	mock.ExpectQuery(`INSERT INTO tags`).
		WithArgs(orgID, "urgent", &color).
		WillReturnRows(pgxmock.NewRows([]string{"id", "organization_id", "name", "color", "created_at"}).
			AddRow(uuid.New(), orgID, "urgent", &color, fixedNow))

	tag, err := svc.Create(context.Background(), orgID, "urgent", &color)

	require.NoError(t, err)
	assert.Equal(t, "urgent", tag.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTagService_Create_Duplicate(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewTagService(db)
	orgID := uuid.New()

	mock.ExpectQuery(`INSERT INTO tags`).
		WithArgs(orgID, "urgent", (*string)(nil)).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: database.ConstraintTagName})

	_, err := svc.Create(context.Background(), orgID, "urgent", nil)

	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTagService_List(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewTagService(db)
	orgID := uuid.New()

	mock.ExpectQuery(`FROM tags WHERE organization_id`).
		WithArgs(orgID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "organization_id", "name", "color", "created_at"}))

	tags, err := svc.List(context.Background(), orgID)

	require.NoError(t, err)
	assert.NotNil(t, tags)
	assert.Empty(t, tags)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentService_Create(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewCommentService(db)
	orgID, userID, memberID, taskID := uuid.New(), uuid.New(), uuid.New(), uuid.New()

	expectActiveMember(mock, orgID, userID, memberID)
	mock.ExpectQuery(`INSERT INTO comments`).
		WithArgs(taskID, memberID, "Looks good", orgID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "task_id", "author_id", "content", "created_at", "updated_at"}).
			AddRow(uuid.New(), taskID, memberID, "Looks good", fixedNow, fixedNow))

	comment, err := svc.Create(context.Background(), orgID, userID, taskID, "Looks good")

	require.NoError(t, err)
	assert.Equal(t, memberID, comment.AuthorID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentService_Create_Errors(t *testing.T) {
	orgID, userID, memberID, taskID := uuid.New(), uuid.New(), uuid.New(), uuid.New()

	t.Run("not a member", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(`SELECT id FROM organization_members`).
			WithArgs(userID, orgID, models.MemberStatusActive).
			WillReturnError(pgx.ErrNoRows)

		_, err := NewCommentService(db).Create(context.Background(), orgID, userID, taskID, "hi")
		assert.ErrorIs(t, err, ErrForbidden)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("task in another organization", func(t *testing.T) {
		db, mock := newMockDB(t)
		expectActiveMember(mock, orgID, userID, memberID)
		mock.ExpectQuery(`INSERT INTO comments`).
			WithArgs(taskID, memberID, "hi", orgID).
			WillReturnError(pgx.ErrNoRows)

		_, err := NewCommentService(db).Create(context.Background(), orgID, userID, taskID, "hi")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCommentService_List(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewCommentService(db)
	orgID, taskID := uuid.New(), uuid.New()

	mock.ExpectQuery(`FROM comments c`).
		WithArgs(taskID, orgID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "task_id", "author_id", "content", "created_at", "updated_at", "name"}).
			AddRow(uuid.New(), taskID, uuid.New(), "First", fixedNow, fixedNow, ptr("Jane")))

	comments, err := svc.List(context.Background(), orgID, taskID)

	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "Jane", *comments[0].AuthorName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentService_Delete(t *testing.T) {
	orgID, userID, commentID := uuid.New(), uuid.New(), uuid.New()

	t.Run("author", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(`SELECT m.user_id FROM comments c`).
			WithArgs(commentID, orgID).
			WillReturnRows(pgxmock.NewRows([]string{"user_id"}).AddRow(&userID))
		mock.ExpectExec(`DELETE FROM comments WHERE id`).
			WithArgs(commentID).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		require.NoError(t, NewCommentService(db).Delete(context.Background(), orgID, userID, commentID))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("someone else", func(t *testing.T) {
		db, mock := newMockDB(t)
		other := uuid.New()
		mock.ExpectQuery(`SELECT m.user_id FROM comments c`).
			WithArgs(commentID, orgID).
			WillReturnRows(pgxmock.NewRows([]string{"user_id"}).AddRow(&other))

		err := NewCommentService(db).Delete(context.Background(), orgID, userID, commentID)
		assert.ErrorIs(t, err, ErrForbidden)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(`SELECT m.user_id FROM comments c`).
			WithArgs(commentID, orgID).
			WillReturnError(pgx.ErrNoRows)

		err := NewCommentService(db).Delete(context.Background(), orgID, userID, commentID)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSearchService_Search(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewSearchService(db)
	orgID := uuid.New()
	hitCols := []string{"id", "title"}
	taskID, clientID := uuid.New(), uuid.New()

	mock.ExpectQuery(`FROM tasks t`).
		WithArgs(orgID, `%web\_site%`, 5).
		WillReturnRows(pgxmock.NewRows(hitCols).AddRow(taskID, "Build web_site"))
	mock.ExpectQuery(`FROM projects`).
		WithArgs(orgID, `%web\_site%`, 5).
		WillReturnRows(pgxmock.NewRows(hitCols))
	mock.ExpectQuery(`FROM clients`).
		WithArgs(orgID, `%web\_site%`, 5).
		WillReturnRows(pgxmock.NewRows(hitCols).AddRow(clientID, "Web_Site Co"))

	results, err := svc.Search(context.Background(), orgID, " web_site ")

	require.NoError(t, err)
	require.Len(t, results.Tasks, 1)
	assert.Equal(t, taskID, results.Tasks[0].ID)
	assert.Empty(t, results.Projects)
	assert.Len(t, results.Clients, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchService_Search_ShortQuery(t *testing.T) {
	db, mock := newMockDB(t)

	results, err := NewSearchService(db).Search(context.Background(), uuid.New(), "a")

	require.NoError(t, err)
	assert.Empty(t, results.Tasks)
	assert.NotNil(t, results.Projects)
	assert.NoError(t, mock.ExpectationsWereMet())
}
