package repository

import (
	"context"
	"time"

	"github.com/yaqa/yaqa/internal/model"
)

// SubscriptionRepository stores which tags a user follows.
type SubscriptionRepository interface {
	Subscribe(ctx context.Context, userID, tagID int64) error
	Unsubscribe(ctx context.Context, userID, tagID int64) error
	TagsByUserID(ctx context.Context, userID int64) ([]*model.Tag, error)
}

type subscriptionRepository struct {
	db Querier
}

func NewSubscriptionRepository(db Querier) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) Subscribe(ctx context.Context, userID, tagID int64) error {
	query := `INSERT INTO user_tags (user_id, tag_id, created_at) VALUES ($1, $2, $3)
	          ON CONFLICT DO NOTHING`

	_, err := r.db.ExecContext(ctx, query, userID, tagID, time.Now().UTC())
	return err
}

func (r *subscriptionRepository) Unsubscribe(ctx context.Context, userID, tagID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM user_tags WHERE user_id = $1 AND tag_id = $2`, userID, tagID)
	return err
}

func (r *subscriptionRepository) TagsByUserID(ctx context.Context, userID int64) ([]*model.Tag, error) {
	var tags []*model.Tag
	query := `SELECT t.id, t.name, t.created_at FROM tags t
	          JOIN user_tags ut ON ut.tag_id = t.id
	          WHERE ut.user_id = $1 ORDER BY t.name`

	err := r.db.SelectContext(ctx, &tags, query, userID)
	if err != nil {
		return nil, err
	}

	return tags, nil
}
