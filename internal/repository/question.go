package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/yaqa/yaqa/internal/model"
)

var ErrQuestionNotFound = errors.New("question not found")

const questionColumns = `q.id, q.author_id, q.title, q.body, q.created_at, q.updated_at`

// QuestionFilter narrows a question listing. Zero values mean "no
// restriction". Results are always ordered newest first.
type QuestionFilter struct {
	AuthorID     int64
	CommentedBy  int64
	SubscribedBy int64
	TagName      string
	// BeforeID keeps only questions with a smaller id (keyset paging).
	BeforeID int64
	Limit    int
}

type QuestionRepository interface {
	Create(ctx context.Context, question *model.Question) error
	ByID(ctx context.Context, id int64) (*model.Question, error)
	Update(ctx context.Context, question *model.Question) error
	List(ctx context.Context, filter QuestionFilter) ([]*model.Question, error)
	SetTags(ctx context.Context, questionID int64, tagIDs []int64) error
	TagsFor(ctx context.Context, questionIDs []int64) (map[int64][]*model.Tag, error)
	CommentCounts(ctx context.Context, questionIDs []int64) (map[int64]int64, error)
}

type questionRepository struct {
	db Querier
}

func NewQuestionRepository(db Querier) QuestionRepository {
	return &questionRepository{db: db}
}

func (r *questionRepository) Create(ctx context.Context, question *model.Question) error {
	query := `INSERT INTO questions (author_id, title, body, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5) RETURNING id`

	return r.db.QueryRowxContext(ctx, query,
		question.AuthorID,
		question.Title,
		question.Body,
		question.CreatedAt,
		question.UpdatedAt,
	).Scan(&question.ID)
}

func (r *questionRepository) ByID(ctx context.Context, id int64) (*model.Question, error) {
	question := &model.Question{}
	query := `SELECT ` + questionColumns + ` FROM questions q WHERE q.id = $1`

	err := r.db.GetContext(ctx, question, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrQuestionNotFound
	}
	if err != nil {
		return nil, err
	}

	return question, nil
}

func (r *questionRepository) Update(ctx context.Context, question *model.Question) error {
	query := `UPDATE questions SET title = $1, body = $2, updated_at = $3 WHERE id = $4`

	result, err := r.db.ExecContext(ctx, query, question.Title, question.Body, question.UpdatedAt, question.ID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrQuestionNotFound
	}

	return nil
}

func (r *questionRepository) List(ctx context.Context, filter QuestionFilter) ([]*model.Question, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.AuthorID != 0 {
		where = append(where, "q.author_id = "+arg(filter.AuthorID))
	}
	if filter.CommentedBy != 0 {
		where = append(where, `EXISTS (SELECT 1 FROM comments c
			WHERE c.question_id = q.id AND c.author_id = `+arg(filter.CommentedBy)+`)`)
	}
	if filter.SubscribedBy != 0 {
		where = append(where, `EXISTS (SELECT 1 FROM question_tags qt
			JOIN user_tags ut ON ut.tag_id = qt.tag_id
			WHERE qt.question_id = q.id AND ut.user_id = `+arg(filter.SubscribedBy)+`)`)
	}
	if filter.TagName != "" {
		where = append(where, `EXISTS (SELECT 1 FROM question_tags qt
			JOIN tags t ON t.id = qt.tag_id
			WHERE qt.question_id = q.id AND t.name = `+arg(filter.TagName)+`)`)
	}
	if filter.BeforeID > 0 {
		where = append(where, "q.id < "+arg(filter.BeforeID))
	}

	query := `SELECT ` + questionColumns + ` FROM questions q`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY q.id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ` + arg(filter.Limit)
	}

	var questions []*model.Question
	err := r.db.SelectContext(ctx, &questions, query, args...)
	if err != nil {
		return nil, err
	}

	return questions, nil
}

// SetTags replaces the question's tag set.
func (r *questionRepository) SetTags(ctx context.Context, questionID int64, tagIDs []int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM question_tags WHERE question_id = $1`, questionID)
	if err != nil {
		return err
	}

	for _, tagID := range tagIDs {
		_, err = r.db.ExecContext(ctx,
			`INSERT INTO question_tags (question_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			questionID, tagID)
		if err != nil {
			return err
		}
	}

	return nil
}

func (r *questionRepository) TagsFor(ctx context.Context, questionIDs []int64) (map[int64][]*model.Tag, error) {
	tags := make(map[int64][]*model.Tag, len(questionIDs))
	if len(questionIDs) == 0 {
		return tags, nil
	}

	query, args, err := in(r.db, `SELECT qt.question_id, t.id, t.name, t.created_at
		FROM question_tags qt JOIN tags t ON t.id = qt.tag_id
		WHERE qt.question_id IN (?)
		ORDER BY t.name`, questionIDs)
	if err != nil {
		return nil, err
	}

	var rows []struct {
		QuestionID int64 `db:"question_id"`
		model.Tag
	}
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		tag := row.Tag
		tags[row.QuestionID] = append(tags[row.QuestionID], &tag)
	}
	return tags, nil
}

func (r *questionRepository) CommentCounts(ctx context.Context, questionIDs []int64) (map[int64]int64, error) {
	counts := make(map[int64]int64, len(questionIDs))
	if len(questionIDs) == 0 {
		return counts, nil
	}

	query, args, err := in(r.db, `SELECT question_id, COUNT(*) AS n FROM comments
		WHERE question_id IN (?) GROUP BY question_id`, questionIDs)
	if err != nil {
		return nil, err
	}

	var rows []struct {
		QuestionID int64 `db:"question_id"`
		N          int64 `db:"n"`
	}
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		counts[row.QuestionID] = row.N
	}
	return counts, nil
}
