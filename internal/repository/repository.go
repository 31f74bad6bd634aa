package repository

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/yaqa/yaqa/internal/db"
)

// Querier is satisfied by both *sqlx.DB and *sqlx.Tx so the same repository
// code runs inside and outside a transaction.
type Querier interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

type Repositories struct {
	Users         UserRepository
	Questions     QuestionRepository
	Comments      CommentRepository
	Tags          TagRepository
	Images        ImageRepository
	Likes         LikeRepository
	Subscriptions SubscriptionRepository
}

func New(q Querier) *Repositories {
	return &Repositories{
		Users:         NewUserRepository(q),
		Questions:     NewQuestionRepository(q),
		Comments:      NewCommentRepository(q),
		Tags:          NewTagRepository(q),
		Images:        NewImageRepository(q),
		Likes:         NewLikeRepository(q),
		Subscriptions: NewSubscriptionRepository(q),
	}
}

// Store hands out repositories bound either to the pool or to a transaction.
type Store struct {
	db    *sqlx.DB
	repos *Repositories
}

func NewStore(database *sqlx.DB) *Store {
	return &Store{db: database, repos: New(database)}
}

// Repos returns repositories running on the connection pool.
func (s *Store) Repos() *Repositories {
	return s.repos
}

// InTx runs fn with repositories bound to a single transaction.
func (s *Store) InTx(ctx context.Context, fn func(r *Repositories) error) error {
	return db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		return fn(New(tx))
	})
}

// in expands a "?"-style IN query and rebinds it for the driver.
func in(q Querier, query string, args ...any) (string, []any, error) {
	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return "", nil, err
	}
	return q.Rebind(query), args, nil
}

// isUniqueViolation works for both SQLite and PostgreSQL
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "UNIQUE constraint failed") || strings.Contains(errStr, "duplicate key value")
}
