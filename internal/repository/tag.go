package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/yaqa/yaqa/internal/model"
)

var ErrTagNotFound = errors.New("tag not found")

const tagColumns = `id, name, created_at`

type TagRepository interface {
	// Ensure inserts the tag unless a tag with that name already exists and
	// returns the stored row either way.
	Ensure(ctx context.Context, tag *model.Tag) (*model.Tag, error)
	ByName(ctx context.Context, name string) (*model.Tag, error)
	ByNames(ctx context.Context, names []string) ([]*model.Tag, error)
	All(ctx context.Context) ([]*model.Tag, error)
}

type tagRepository struct {
	db Querier
}

func NewTagRepository(db Querier) TagRepository {
	return &tagRepository{db: db}
}

func (r *tagRepository) Ensure(ctx context.Context, tag *model.Tag) (*model.Tag, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tags (name, created_at) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`,
		tag.Name, tag.CreatedAt)
	if err != nil {
		return nil, err
	}

	return r.ByName(ctx, tag.Name)
}

func (r *tagRepository) ByName(ctx context.Context, name string) (*model.Tag, error) {
	tag := &model.Tag{}
	query := `SELECT ` + tagColumns + ` FROM tags WHERE name = $1`

	err := r.db.GetContext(ctx, tag, query, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTagNotFound
	}
	if err != nil {
		return nil, err
	}

	return tag, nil
}

func (r *tagRepository) ByNames(ctx context.Context, names []string) ([]*model.Tag, error) {
	if len(names) == 0 {
		return nil, nil
	}

	query, args, err := in(r.db, `SELECT `+tagColumns+` FROM tags WHERE name IN (?)`, names)
	if err != nil {
		return nil, err
	}

	var tags []*model.Tag
	err = r.db.SelectContext(ctx, &tags, query, args...)
	if err != nil {
		return nil, err
	}

	return tags, nil
}

func (r *tagRepository) All(ctx context.Context) ([]*model.Tag, error) {
	var tags []*model.Tag
	query := `SELECT ` + tagColumns + ` FROM tags ORDER BY name`

	err := r.db.SelectContext(ctx, &tags, query)
	if err != nil {
		return nil, err
	}

	return tags, nil
}
