package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yaqa/yaqa/internal/db/dbtest"
	"github.com/yaqa/yaqa/internal/markdown"
	"github.com/yaqa/yaqa/internal/model"
	"github.com/yaqa/yaqa/internal/repository"
	"github.com/yaqa/yaqa/internal/storage"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01")

type testEnv struct {
	store     *repository.Store
	questions *QuestionService
	users     *UserService
	auth      *AuthService
	images    *ImageService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	conn := dbtest.New(t)
	store := repository.NewStore(conn)
	users := NewUserService(store, NewEmailService("", "noreply@example.com", "http://localhost", "YAQA", true), true)

	return &testEnv{
		store:     store,
		questions: NewQuestionService(store, markdown.NewParser(16), 20, 100),
		users:     users,
		auth:      NewAuthService(users, "test-secret", time.Hour, false),
		images:    NewImageService(store, storage.NewDBStorage(conn), 1<<20),
	}
}

func (e *testEnv) register(t *testing.T, username string) *model.User {
	t.Helper()
	u, err := e.users.Register(context.Background(), RegisterRequest{
		Username: username,
		Password: "correct horse battery",
	})
	require.NoError(t, err)
	return u
}

func (e *testEnv) upload(t *testing.T, u *model.User) int64 {
	t.Helper()
	img, err := e.images.Upload(context.Background(), u, bytes.NewReader(pngBytes))
	require.NoError(t, err)
	return img.ID
}

func (e *testEnv) ask(t *testing.T, u *model.User, body string, tags ...string) *model.QuestionWithComments {
	t.Helper()
	q, err := e.questions.Create(context.Background(), u, CreateQuestionRequest{Body: body, Tags: tags})
	require.NoError(t, err)
	return q
}
