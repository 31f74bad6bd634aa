package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/yaqa/yaqa/internal/model"
)

var ErrImageNotFound = errors.New("image not found")

const imageColumns = `id, uploader_id, content_type, size, storage_key, question_id, comment_id, user_id, created_at`

// ImageRepository tracks image metadata and which entity owns each image.
// Attaching moves an image: the other owner columns are cleared.
type ImageRepository interface {
	Create(ctx context.Context, image *model.Image) error
	ByID(ctx context.Context, id int64) (*model.Image, error)
	ByIDs(ctx context.Context, ids []int64) ([]*model.Image, error)
	Delete(ctx context.Context, id int64) error

	AttachToQuestion(ctx context.Context, questionID int64, imageIDs []int64) error
	DetachFromQuestion(ctx context.Context, questionID int64) error
	AttachToComment(ctx context.Context, commentID int64, imageIDs []int64) error
	DetachFromComment(ctx context.Context, commentID int64) error
	AttachToUser(ctx context.Context, userID, imageID int64) error
	DetachFromUser(ctx context.Context, userID int64) error

	IDsByQuestions(ctx context.Context, questionIDs []int64) (map[int64][]int64, error)
	IDsByComments(ctx context.Context, commentIDs []int64) (map[int64][]int64, error)
	AvatarIDs(ctx context.Context, userIDs []int64) (map[int64]int64, error)
}

type imageRepository struct {
	db Querier
}

func NewImageRepository(db Querier) ImageRepository {
	return &imageRepository{db: db}
}

func (r *imageRepository) Create(ctx context.Context, image *model.Image) error {
	query := `INSERT INTO images (uploader_id, content_type, size, storage_key, created_at)
	          VALUES ($1, $2, $3, $4, $5) RETURNING id`

	return r.db.QueryRowxContext(ctx, query,
		image.UploaderID,
		image.ContentType,
		image.Size,
		image.StorageKey,
		image.CreatedAt,
	).Scan(&image.ID)
}

func (r *imageRepository) ByID(ctx context.Context, id int64) (*model.Image, error) {
	image := &model.Image{}
	query := `SELECT ` + imageColumns + ` FROM images WHERE id = $1`

	err := r.db.GetContext(ctx, image, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrImageNotFound
	}
	if err != nil {
		return nil, err
	}

	return image, nil
}

func (r *imageRepository) ByIDs(ctx context.Context, ids []int64) ([]*model.Image, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := in(r.db, `SELECT `+imageColumns+` FROM images WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}

	var images []*model.Image
	err = r.db.SelectContext(ctx, &images, query, args...)
	if err != nil {
		return nil, err
	}

	return images, nil
}

func (r *imageRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM images WHERE id = $1`, id)
	return err
}

func (r *imageRepository) AttachToQuestion(ctx context.Context, questionID int64, imageIDs []int64) error {
	return r.attach(ctx, "question_id", questionID, imageIDs)
}

func (r *imageRepository) DetachFromQuestion(ctx context.Context, questionID int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE images SET question_id = NULL WHERE question_id = $1`, questionID)
	return err
}

func (r *imageRepository) AttachToComment(ctx context.Context, commentID int64, imageIDs []int64) error {
	return r.attach(ctx, "comment_id", commentID, imageIDs)
}

func (r *imageRepository) DetachFromComment(ctx context.Context, commentID int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE images SET comment_id = NULL WHERE comment_id = $1`, commentID)
	return err
}

func (r *imageRepository) AttachToUser(ctx context.Context, userID, imageID int64) error {
	return r.attach(ctx, "user_id", userID, []int64{imageID})
}

func (r *imageRepository) DetachFromUser(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE images SET user_id = NULL WHERE user_id = $1`, userID)
	return err
}

var ownerColumns = []string{"question_id", "comment_id", "user_id"}

// attach sets column to ownerID on every image and clears the other owner
// columns. column is one of the fixed owner column names above.
func (r *imageRepository) attach(ctx context.Context, column string, ownerID int64, imageIDs []int64) error {
	if len(imageIDs) == 0 {
		return nil
	}

	// Each owner column is assigned exactly once; Postgres rejects repeats
	sets := make([]string, 0, len(ownerColumns))
	for _, c := range ownerColumns {
		if c == column {
			sets = append(sets, c+` = ?`)
		} else {
			sets = append(sets, c+` = NULL`)
		}
	}

	query, args, err := in(r.db, `UPDATE images SET `+strings.Join(sets, ", ")+` WHERE id IN (?)`, ownerID, imageIDs)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}

func (r *imageRepository) IDsByQuestions(ctx context.Context, questionIDs []int64) (map[int64][]int64, error) {
	return r.idsBy(ctx, "question_id", questionIDs)
}

func (r *imageRepository) IDsByComments(ctx context.Context, commentIDs []int64) (map[int64][]int64, error) {
	return r.idsBy(ctx, "comment_id", commentIDs)
}

func (r *imageRepository) idsBy(ctx context.Context, column string, ownerIDs []int64) (map[int64][]int64, error) {
	ids := make(map[int64][]int64, len(ownerIDs))
	if len(ownerIDs) == 0 {
		return ids, nil
	}

	query, args, err := in(r.db, `SELECT id, `+column+` AS owner_id FROM images
		WHERE `+column+` IN (?) ORDER BY id`, ownerIDs)
	if err != nil {
		return nil, err
	}

	var rows []struct {
		ID      int64 `db:"id"`
		OwnerID int64 `db:"owner_id"`
	}
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		ids[row.OwnerID] = append(ids[row.OwnerID], row.ID)
	}
	return ids, nil
}

// AvatarIDs maps each user to their most recent avatar image.
func (r *imageRepository) AvatarIDs(ctx context.Context, userIDs []int64) (map[int64]int64, error) {
	all, err := r.idsBy(ctx, "user_id", userIDs)
	if err != nil {
		return nil, err
	}

	avatars := make(map[int64]int64, len(all))
	for userID, ids := range all {
		avatars[userID] = ids[len(ids)-1]
	}
	return avatars, nil
}
