package service

import (
	"context"
	"fmt"

	"github.com/yaqa/yaqa/internal/markdown"
	"github.com/yaqa/yaqa/internal/model"
	"github.com/yaqa/yaqa/internal/repository"
)

// projector assembles read models from rows using batched lookups, so a
// page of questions costs a fixed number of queries.
type projector struct {
	r        *repository.Repositories
	markdown *markdown.Parser
}

func (p projector) users(ctx context.Context, ids []int64) (map[int64]*model.User, error) {
	users, err := p.r.Users.ByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}

	avatars, err := p.r.Images.AvatarIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load avatars: %w", err)
	}

	for id, u := range users {
		if avatarID, ok := avatars[id]; ok {
			u.AvatarImageID = &avatarID
		}
	}
	return users, nil
}

func (p projector) questions(ctx context.Context, viewer *model.User, questions []*model.Question) ([]model.QuestionView, error) {
	views := make([]model.QuestionView, 0, len(questions))
	if len(questions) == 0 {
		return views, nil
	}

	ids := make([]int64, 0, len(questions))
	authorIDs := make([]int64, 0, len(questions))
	for _, q := range questions {
		ids = append(ids, q.ID)
		authorIDs = append(authorIDs, q.AuthorID)
	}

	authors, err := p.users(ctx, uniqueIDs(authorIDs))
	if err != nil {
		return nil, err
	}

	tags, err := p.r.Questions.TagsFor(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load tags: %w", err)
	}

	images, err := p.r.Images.IDsByQuestions(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load images: %w", err)
	}

	likes, err := p.r.Likes.Counts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to count likes: %w", err)
	}

	comments, err := p.r.Questions.CommentCounts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to count comments: %w", err)
	}

	liked := map[int64]bool{}
	if viewer != nil {
		liked, err = p.r.Likes.LikedBy(ctx, viewer.ID, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to load likes: %w", err)
		}
	}

	for _, q := range questions {
		view := model.QuestionView{
			ID:                 q.ID,
			Title:              q.Title,
			Body:               q.Body,
			BodyHTML:           p.markdown.Render(q.Body),
			CreationDate:       q.CreatedAt,
			Tags:               make([]model.TagView, 0, len(tags[q.ID])),
			ImageIDs:           nonNil(images[q.ID]),
			LikeCount:          likes[q.ID],
			LikedByCurrentUser: liked[q.ID],
			CommentCount:       comments[q.ID],
		}
		if author, ok := authors[q.AuthorID]; ok {
			view.Author = model.NewUserView(author)
		}
		for _, t := range tags[q.ID] {
			view.Tags = append(view.Tags, model.TagView{ID: t.ID, Name: t.Name})
		}
		views = append(views, view)
	}

	return views, nil
}

func (p projector) comments(ctx context.Context, comments []*model.Comment) ([]model.CommentView, error) {
	views := make([]model.CommentView, 0, len(comments))
	if len(comments) == 0 {
		return views, nil
	}

	ids := make([]int64, 0, len(comments))
	authorIDs := make([]int64, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.ID)
		authorIDs = append(authorIDs, c.AuthorID)
	}

	authors, err := p.users(ctx, uniqueIDs(authorIDs))
	if err != nil {
		return nil, err
	}

	images, err := p.r.Images.IDsByComments(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load images: %w", err)
	}

	for _, c := range comments {
		view := model.CommentView{
			ID:           c.ID,
			QuestionID:   c.QuestionID,
			Body:         c.Body,
			BodyHTML:     p.markdown.Render(c.Body),
			CreationDate: c.CreatedAt,
			ImageIDs:     nonNil(images[c.ID]),
		}
		if author, ok := authors[c.AuthorID]; ok {
			view.Author = model.NewUserView(author)
		}
		views = append(views, view)
	}

	return views, nil
}

func (p projector) withComments(ctx context.Context, viewer *model.User, q *model.Question) (*model.QuestionWithComments, error) {
	views, err := p.questions(ctx, viewer, []*model.Question{q})
	if err != nil {
		return nil, err
	}

	comments, err := p.r.Comments.ByQuestionID(ctx, q.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load comments: %w", err)
	}

	commentViews, err := p.comments(ctx, comments)
	if err != nil {
		return nil, err
	}

	return &model.QuestionWithComments{
		QuestionView: views[0],
		Comments:     commentViews,
	}, nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// nonNil keeps empty lists as [] in JSON.
func nonNil(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
