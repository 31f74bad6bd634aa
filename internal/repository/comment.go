package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/yaqa/yaqa/internal/model"
)

var ErrCommentNotFound = errors.New("comment not found")

const commentColumns = `id, question_id, author_id, body, created_at, updated_at`

type CommentRepository interface {
	Create(ctx context.Context, comment *model.Comment) error
	ByID(ctx context.Context, id int64) (*model.Comment, error)
	Update(ctx context.Context, comment *model.Comment) error
	ByQuestionID(ctx context.Context, questionID int64) ([]*model.Comment, error)
}

type commentRepository struct {
	db Querier
}

func NewCommentRepository(db Querier) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *model.Comment) error {
	query := `INSERT INTO comments (question_id, author_id, body, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5) RETURNING id`

	return r.db.QueryRowxContext(ctx, query,
		comment.QuestionID,
		comment.AuthorID,
		comment.Body,
		comment.CreatedAt,
		comment.UpdatedAt,
	).Scan(&comment.ID)
}

func (r *commentRepository) ByID(ctx context.Context, id int64) (*model.Comment, error) {
	comment := &model.Comment{}
	query := `SELECT ` + commentColumns + ` FROM comments WHERE id = $1`

	err := r.db.GetContext(ctx, comment, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCommentNotFound
	}
	if err != nil {
		return nil, err
	}

	return comment, nil
}

func (r *commentRepository) Update(ctx context.Context, comment *model.Comment) error {
	query := `UPDATE comments SET body = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, comment.Body, comment.UpdatedAt, comment.ID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrCommentNotFound
	}

	return nil
}

// ByQuestionID returns the question's comments oldest first.
func (r *commentRepository) ByQuestionID(ctx context.Context, questionID int64) ([]*model.Comment, error) {
	var comments []*model.Comment
	query := `SELECT ` + commentColumns + ` FROM comments WHERE question_id = $1 ORDER BY id ASC`

	err := r.db.SelectContext(ctx, &comments, query, questionID)
	if err != nil {
		return nil, err
	}

	return comments, nil
}
