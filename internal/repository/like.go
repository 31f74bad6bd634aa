package repository

import (
	"context"
	"time"
)

type LikeRepository interface {
	Exists(ctx context.Context, userID, questionID int64) (bool, error)
	// Insert reports whether a new like row was written.
	Insert(ctx context.Context, userID, questionID int64) (bool, error)
	// Delete reports whether a like row was removed.
	Delete(ctx context.Context, userID, questionID int64) (bool, error)
	Count(ctx context.Context, questionID int64) (int64, error)
	Counts(ctx context.Context, questionIDs []int64) (map[int64]int64, error)
	LikedBy(ctx context.Context, userID int64, questionIDs []int64) (map[int64]bool, error)
}

type likeRepository struct {
	db Querier
}

func NewLikeRepository(db Querier) LikeRepository {
	return &likeRepository{db: db}
}

func (r *likeRepository) Exists(ctx context.Context, userID, questionID int64) (bool, error) {
	var n int
	query := `SELECT COUNT(*) FROM likes WHERE user_id = $1 AND question_id = $2`

	err := r.db.GetContext(ctx, &n, query, userID, questionID)
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

func (r *likeRepository) Insert(ctx context.Context, userID, questionID int64) (bool, error) {
	query := `INSERT INTO likes (user_id, question_id, created_at) VALUES ($1, $2, $3)
	          ON CONFLICT (user_id, question_id) DO NOTHING`

	result, err := r.db.ExecContext(ctx, query, userID, questionID, time.Now().UTC())
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}

func (r *likeRepository) Delete(ctx context.Context, userID, questionID int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM likes WHERE user_id = $1 AND question_id = $2`, userID, questionID)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}

func (r *likeRepository) Count(ctx context.Context, questionID int64) (int64, error) {
	var n int64
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM likes WHERE question_id = $1`, questionID)
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (r *likeRepository) Counts(ctx context.Context, questionIDs []int64) (map[int64]int64, error) {
	counts := make(map[int64]int64, len(questionIDs))
	if len(questionIDs) == 0 {
		return counts, nil
	}

	query, args, err := in(r.db, `SELECT question_id, COUNT(*) AS n FROM likes
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

func (r *likeRepository) LikedBy(ctx context.Context, userID int64, questionIDs []int64) (map[int64]bool, error) {
	liked := make(map[int64]bool, len(questionIDs))
	if len(questionIDs) == 0 {
		return liked, nil
	}

	query, args, err := in(r.db, `SELECT question_id FROM likes WHERE user_id = ? AND question_id IN (?)`,
		userID, questionIDs)
	if err != nil {
		return nil, err
	}

	var ids []int64
	err = r.db.SelectContext(ctx, &ids, query, args...)
	if err != nil {
		return nil, err
	}

	for _, id := range ids {
		liked[id] = true
	}
	return liked, nil
}
