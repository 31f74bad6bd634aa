package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/yaqa/yaqa/internal/model"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateUsername = errors.New("username already exists")
)

const userColumns = `id, username, password_hash, first_name, last_name, email, created_at`

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	ByID(ctx context.Context, id int64) (*model.User, error)
	ByUsername(ctx context.Context, username string) (*model.User, error)
	ByIDs(ctx context.Context, ids []int64) (map[int64]*model.User, error)
	Update(ctx context.Context, user *model.User) error
}

type userRepository struct {
	db Querier
}

func NewUserRepository(db Querier) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (username, password_hash, first_name, last_name, email, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`

	err := r.db.QueryRowxContext(ctx, query,
		user.Username,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.Email,
		user.CreatedAt,
	).Scan(&user.ID)
	if isUniqueViolation(err) {
		return ErrDuplicateUsername
	}

	return err
}

func (r *userRepository) ByID(ctx context.Context, id int64) (*model.User, error) {
	user := &model.User{}
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	err := r.db.GetContext(ctx, user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (r *userRepository) ByUsername(ctx context.Context, username string) (*model.User, error) {
	user := &model.User{}
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	err := r.db.GetContext(ctx, user, query, username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (r *userRepository) ByIDs(ctx context.Context, ids []int64) (map[int64]*model.User, error) {
	users := make(map[int64]*model.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	query, args, err := in(r.db, `SELECT `+userColumns+` FROM users WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}

	var rows []*model.User
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, err
	}

	for _, u := range rows {
		users[u.ID] = u
	}
	return users, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	query := `UPDATE users SET first_name = $1, last_name = $2, email = $3, password_hash = $4 WHERE id = $5`

	result, err := r.db.ExecContext(ctx, query, user.FirstName, user.LastName, user.Email, user.PasswordHash, user.ID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrUserNotFound
	}

	return nil
}
