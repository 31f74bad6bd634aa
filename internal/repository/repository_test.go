package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yaqa/yaqa/internal/db/dbtest"
	"github.com/yaqa/yaqa/internal/model"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(dbtest.New(t))
}

func createUser(t *testing.T, r *Repositories, username string) *model.User {
	t.Helper()
	u := &model.User{Username: username, PasswordHash: "x", CreatedAt: time.Now().UTC()}
	require.NoError(t, r.Users.Create(context.Background(), u))
	return u
}

func createQuestion(t *testing.T, r *Repositories, authorID int64, body string) *model.Question {
	t.Helper()
	now := time.Now().UTC()
	q := &model.Question{AuthorID: authorID, Title: body, Body: body, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, r.Questions.Create(context.Background(), q))
	return q
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	r := newStore(t).Repos()

	alice := createUser(t, r, "alice")
	assert.NotZero(t, alice.ID)

	err := r.Users.Create(ctx, &model.User{Username: "alice", PasswordHash: "y", CreatedAt: time.Now()})
	assert.ErrorIs(t, err, ErrDuplicateUsername)

	got, err := r.Users.ByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	_, err = r.Users.ByID(ctx, 999)
	assert.ErrorIs(t, err, ErrUserNotFound)

	got.FirstName = "Alice"
	require.NoError(t, r.Users.Update(ctx, got))

	byIDs, err := r.Users.ByIDs(ctx, []int64{alice.ID, 999})
	require.NoError(t, err)
	require.Len(t, byIDs, 1)
	assert.Equal(t, "Alice", byIDs[alice.ID].FirstName)
}

func TestQuestionListFilters(t *testing.T) {
	ctx := context.Background()
	r := newStore(t).Repos()

	alice := createUser(t, r, "alice")
	bob := createUser(t, r, "bob")

	goTag, err := r.Tags.Ensure(ctx, &model.Tag{Name: "go", CreatedAt: time.Now()})
	require.NoError(t, err)
	sqlTag, err := r.Tags.Ensure(ctx, &model.Tag{Name: "sql", CreatedAt: time.Now()})
	require.NoError(t, err)

	q1 := createQuestion(t, r, alice.ID, "first")
	q2 := createQuestion(t, r, bob.ID, "second")
	q3 := createQuestion(t, r, alice.ID, "third")

	require.NoError(t, r.Questions.SetTags(ctx, q1.ID, []int64{goTag.ID}))
	require.NoError(t, r.Questions.SetTags(ctx, q2.ID, []int64{goTag.ID, sqlTag.ID}))

	now := time.Now().UTC()
	require.NoError(t, r.Comments.Create(ctx, &model.Comment{QuestionID: q2.ID, AuthorID: alice.ID, Body: "c", CreatedAt: now, UpdatedAt: now}))
	require.NoError(t, r.Subscriptions.Subscribe(ctx, bob.ID, sqlTag.ID))

	ids := func(qs []*model.Question) []int64 {
		out := make([]int64, 0, len(qs))
		for _, q := range qs {
			out = append(out, q.ID)
		}
		return out
	}

	all, err := r.Questions.List(ctx, QuestionFilter{})
	require.NoError(t, err)
	assert.Equal(t, []int64{q3.ID, q2.ID, q1.ID}, ids(all))

	latest, err := r.Questions.List(ctx, QuestionFilter{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []int64{q3.ID, q2.ID}, ids(latest))

	below, err := r.Questions.List(ctx, QuestionFilter{BeforeID: q3.ID, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, []int64{q2.ID}, ids(below))

	authored, err := r.Questions.List(ctx, QuestionFilter{AuthorID: alice.ID})
	require.NoError(t, err)
	assert.Equal(t, []int64{q3.ID, q1.ID}, ids(authored))

	commented, err := r.Questions.List(ctx, QuestionFilter{CommentedBy: alice.ID})
	require.NoError(t, err)
	assert.Equal(t, []int64{q2.ID}, ids(commented))

	subscribed, err := r.Questions.List(ctx, QuestionFilter{SubscribedBy: bob.ID})
	require.NoError(t, err)
	assert.Equal(t, []int64{q2.ID}, ids(subscribed))

	tagged, err := r.Questions.List(ctx, QuestionFilter{TagName: "go"})
	require.NoError(t, err)
	assert.Equal(t, []int64{q2.ID, q1.ID}, ids(tagged))

	tags, err := r.Questions.TagsFor(ctx, []int64{q1.ID, q2.ID, q3.ID})
	require.NoError(t, err)
	assert.Len(t, tags[q1.ID], 1)
	assert.Len(t, tags[q2.ID], 2)
	assert.Empty(t, tags[q3.ID])

	counts, err := r.Questions.CommentCounts(ctx, []int64{q1.ID, q2.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[q2.ID])
	assert.Zero(t, counts[q1.ID])
}

func TestTagEnsureIsIdempotent(t *testing.T) {
	ctx := context.Background()
	r := newStore(t).Repos()

	first, err := r.Tags.Ensure(ctx, &model.Tag{Name: "go", CreatedAt: time.Now()})
	require.NoError(t, err)
	second, err := r.Tags.Ensure(ctx, &model.Tag{Name: "go", CreatedAt: time.Now()})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	all, err := r.Tags.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = r.Tags.ByName(ctx, "rust")
	assert.ErrorIs(t, err, ErrTagNotFound)
}

func TestLikeRepository(t *testing.T) {
	ctx := context.Background()
	r := newStore(t).Repos()

	alice := createUser(t, r, "alice")
	q := createQuestion(t, r, alice.ID, "q")

	inserted, err := r.Likes.Insert(ctx, alice.ID, q.ID)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = r.Likes.Insert(ctx, alice.ID, q.ID)
	require.NoError(t, err)
	assert.False(t, inserted)

	n, err := r.Likes.Count(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	liked, err := r.Likes.LikedBy(ctx, alice.ID, []int64{q.ID})
	require.NoError(t, err)
	assert.True(t, liked[q.ID])

	deleted, err := r.Likes.Delete(ctx, alice.ID, q.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = r.Likes.Delete(ctx, alice.ID, q.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	exists, err := r.Likes.Exists(ctx, alice.ID, q.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestImageAttachMovesOwnership(t *testing.T) {
	ctx := context.Background()
	r := newStore(t).Repos()

	alice := createUser(t, r, "alice")
	q := createQuestion(t, r, alice.ID, "q")
	now := time.Now().UTC()
	c := &model.Comment{QuestionID: q.ID, AuthorID: alice.ID, Body: "c", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, r.Comments.Create(ctx, c))

	img := &model.Image{UploaderID: &alice.ID, ContentType: "image/png", Size: 3, StorageKey: "k1", CreatedAt: now}
	require.NoError(t, r.Images.Create(ctx, img))

	require.NoError(t, r.Images.AttachToQuestion(ctx, q.ID, []int64{img.ID}))
	got, err := r.Images.ByID(ctx, img.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ImageOwnerQuestion, got.Owner())

	require.NoError(t, r.Images.AttachToComment(ctx, c.ID, []int64{img.ID}))
	got, err = r.Images.ByID(ctx, img.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ImageOwnerComment, got.Owner())
	assert.Nil(t, got.QuestionID)

	byComment, err := r.Images.IDsByComments(ctx, []int64{c.ID})
	require.NoError(t, err)
	assert.Equal(t, []int64{img.ID}, byComment[c.ID])

	require.NoError(t, r.Images.AttachToUser(ctx, alice.ID, img.ID))
	avatars, err := r.Images.AvatarIDs(ctx, []int64{alice.ID})
	require.NoError(t, err)
	assert.Equal(t, img.ID, avatars[alice.ID])

	require.NoError(t, r.Images.DetachFromUser(ctx, alice.ID))
	got, err = r.Images.ByID(ctx, img.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ImageOwnerNone, got.Owner())

	_, err = r.Images.ByID(ctx, 999)
	assert.ErrorIs(t, err, ErrImageNotFound)
}

func TestInTxRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	boom := errors.New("boom")

	err := s.InTx(ctx, func(r *Repositories) error {
		createUser(t, r, "ghost")
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.Repos().Users.ByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
