package repository

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yaqa/yaqa/internal/model"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = raw.Close() })
	return sqlx.NewDb(raw, "sqlmock"), mock
}

func TestUserUpdateMissingRow(t *testing.T) {
	conn, mock := newMock(t)
	mock.ExpectExec("UPDATE users").WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewUserRepository(conn).Update(context.Background(), &model.User{ID: 42})
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetTagsPropagatesDeleteError(t *testing.T) {
	conn, mock := newMock(t)
	boom := errors.New("disk full")
	mock.ExpectExec("DELETE FROM question_tags").WillReturnError(boom)

	err := NewQuestionRepository(conn).SetTags(context.Background(), 1, []int64{2})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBatchLookupsSkipEmptyInput(t *testing.T) {
	conn, mock := newMock(t)
	ctx := context.Background()

	counts, err := NewLikeRepository(conn).Counts(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, counts)

	tags, err := NewQuestionRepository(conn).TagsFor(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, tags)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttachAssignsEachOwnerColumnOnce(t *testing.T) {
	var statements []string
	matcher := sqlmock.QueryMatcherFunc(func(_, actual string) error {
		statements = append(statements, actual)
		return nil
	})
	raw, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(matcher))
	require.NoError(t, err)
	t.Cleanup(func() { _ = raw.Close() })

	// Postgres placeholders
	repo := NewImageRepository(sqlx.NewDb(raw, "pgx"))
	ctx := context.Background()

	for range 3 {
		mock.ExpectExec("UPDATE images").WillReturnResult(sqlmock.NewResult(0, 1))
	}
	require.NoError(t, repo.AttachToQuestion(ctx, 7, []int64{3}))
	require.NoError(t, repo.AttachToComment(ctx, 8, []int64{3, 4}))
	require.NoError(t, repo.AttachToUser(ctx, 9, 3))
	require.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, statements, 3)
	for i, owner := range []string{"question_id", "comment_id", "user_id"} {
		stmt := statements[i]
		set, _, ok := strings.Cut(strings.TrimPrefix(stmt, "UPDATE images SET "), " WHERE ")
		require.True(t, ok, stmt)

		for _, column := range []string{"question_id", "comment_id", "user_id"} {
			assert.Equal(t, 1, strings.Count(set, column+" ="), "%s in %q", column, set)
		}
		assert.Contains(t, set, owner+" = $1")
		assert.Contains(t, stmt, "WHERE id IN ($2")
	}
}
