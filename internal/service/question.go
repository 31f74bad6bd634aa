package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yaqa/yaqa/internal/logger"
	"github.com/yaqa/yaqa/internal/markdown"
	"github.com/yaqa/yaqa/internal/metrics"
	"github.com/yaqa/yaqa/internal/model"
	"github.com/yaqa/yaqa/internal/repository"
	"github.com/yaqa/yaqa/internal/validation"
	"golang.org/x/text/unicode/norm"
)

// QuestionService orchestrates questions, comments, tags, likes and image
// attachments. Every mutation runs in a single transaction; reads that
// follow a write inside the same call use the transaction too.
type QuestionService struct {
	store           *repository.Store
	markdown        *markdown.Parser
	pageSizeDefault int
	pageSizeMax     int
}

func NewQuestionService(store *repository.Store, md *markdown.Parser, pageSizeDefault, pageSizeMax int) *QuestionService {
	return &QuestionService{
		store:           store,
		markdown:        md,
		pageSizeDefault: pageSizeDefault,
		pageSizeMax:     pageSizeMax,
	}
}

func (s *QuestionService) projector(r *repository.Repositories) projector {
	return projector{r: r, markdown: s.markdown}
}

func (s *QuestionService) limit(limit int) int {
	if limit <= 0 {
		return s.pageSizeDefault
	}
	if limit > s.pageSizeMax {
		return s.pageSizeMax
	}
	return limit
}

func (s *QuestionService) list(ctx context.Context, viewer *model.User, filter repository.QuestionFilter) ([]model.QuestionView, error) {
	r := s.store.Repos()

	questions, err := r.Questions.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}

	return s.projector(r).questions(ctx, viewer, questions)
}

// All returns every question, newest first.
func (s *QuestionService) All(ctx context.Context, viewer *model.User) ([]model.QuestionView, error) {
	return s.list(ctx, viewer, repository.QuestionFilter{})
}

func (s *QuestionService) ByID(ctx context.Context, viewer *model.User, id int64) (*model.QuestionView, error) {
	r := s.store.Repos()

	q, err := r.Questions.ByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}

	views, err := s.projector(r).questions(ctx, viewer, []*model.Question{q})
	if err != nil {
		return nil, err
	}

	return &views[0], nil
}

func (s *QuestionService) ByIDWithComments(ctx context.Context, viewer *model.User, id int64) (*model.QuestionWithComments, error) {
	r := s.store.Repos()

	q, err := r.Questions.ByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}

	return s.projector(r).withComments(ctx, viewer, q)
}

// ByTagName returns the questions carrying the tag, newest first.
func (s *QuestionService) ByTagName(ctx context.Context, viewer *model.User, name string) ([]model.QuestionView, error) {
	name = norm.NFC.String(strings.TrimSpace(name))

	_, err := s.store.Repos().Tags.ByName(ctx, name)
	if err != nil {
		return nil, translate(err)
	}

	return s.list(ctx, viewer, repository.QuestionFilter{TagName: name})
}

// Latest returns the first page of the feed.
func (s *QuestionService) Latest(ctx context.Context, viewer *model.User, limit int) ([]model.QuestionView, error) {
	return s.list(ctx, viewer, repository.QuestionFilter{Limit: s.limit(limit)})
}

// Below returns at most limit questions with an id strictly below cursor,
// newest first. A cursor of zero or less is not a position: it returns the
// first page, same as Latest.
func (s *QuestionService) Below(ctx context.Context, viewer *model.User, cursor int64, limit int) ([]model.QuestionView, error) {
	return s.list(ctx, viewer, repository.QuestionFilter{BeforeID: cursor, Limit: s.limit(limit)})
}

// Authored pages through the actor's own questions. A zero cursor returns
// the first page.
func (s *QuestionService) Authored(ctx context.Context, actor *model.User, cursor int64, limit int) ([]model.QuestionView, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	return s.list(ctx, actor, repository.QuestionFilter{AuthorID: actor.ID, BeforeID: cursor, Limit: s.limit(limit)})
}

// Commented pages through questions the actor commented on.
func (s *QuestionService) Commented(ctx context.Context, actor *model.User, cursor int64, limit int) ([]model.QuestionView, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	return s.list(ctx, actor, repository.QuestionFilter{CommentedBy: actor.ID, BeforeID: cursor, Limit: s.limit(limit)})
}

// Subscribed pages through questions sharing a tag with the actor's
// subscriptions.
func (s *QuestionService) Subscribed(ctx context.Context, actor *model.User, cursor int64, limit int) ([]model.QuestionView, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	return s.list(ctx, actor, repository.QuestionFilter{SubscribedBy: actor.ID, BeforeID: cursor, Limit: s.limit(limit)})
}

// Tags lists every known tag by name.
func (s *QuestionService) Tags(ctx context.Context) ([]model.TagView, error) {
	tags, err := s.store.Repos().Tags.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}

	views := make([]model.TagView, 0, len(tags))
	for _, t := range tags {
		views = append(views, model.TagView{ID: t.ID, Name: t.Name})
	}
	return views, nil
}

func (s *QuestionService) Create(ctx context.Context, actor *model.User, req CreateQuestionRequest) (*model.QuestionWithComments, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}

	err := validation.ValidateBody(req.Body)
	if err != nil {
		return nil, err
	}

	names, err := validation.NormalizeTags(req.Tags)
	if err != nil {
		return nil, err
	}

	var out *model.QuestionWithComments
	err = s.store.InTx(ctx, func(r *repository.Repositories) error {
		tagIDs, err := resolveTags(ctx, r, names)
		if err != nil {
			return err
		}

		imageIDs, err := resolveImages(ctx, r, actor.ID, req.ImageIDs, nil)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		q := &model.Question{
			AuthorID:  actor.ID,
			Title:     validation.Title(req.Title, req.Body),
			Body:      req.Body,
			CreatedAt: now,
			UpdatedAt: now,
		}

		err = r.Questions.Create(ctx, q)
		if err != nil {
			return fmt.Errorf("failed to create question: %w", err)
		}

		err = r.Questions.SetTags(ctx, q.ID, tagIDs)
		if err != nil {
			return fmt.Errorf("failed to tag question: %w", err)
		}

		err = r.Images.AttachToQuestion(ctx, q.ID, imageIDs)
		if err != nil {
			return fmt.Errorf("failed to attach images: %w", err)
		}

		out, err = s.projector(r).withComments(ctx, actor, q)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.QuestionCreated()
	logger.FromContext(ctx).Info("question created", "question_id", out.ID, "user_id", actor.ID, "tags", len(names))
	return out, nil
}

// Update replaces the fields present in req. Only the author may update.
func (s *QuestionService) Update(ctx context.Context, actor *model.User, id int64, req CreateQuestionRequest) (*model.QuestionWithComments, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}

	if strings.TrimSpace(req.Body) != "" {
		err := validation.ValidateBody(req.Body)
		if err != nil {
			return nil, err
		}
	}

	var names []string
	if req.Tags != nil {
		var err error
		names, err = validation.NormalizeTags(req.Tags)
		if err != nil {
			return nil, err
		}
	}

	var out *model.QuestionWithComments
	err := s.store.InTx(ctx, func(r *repository.Repositories) error {
		q, err := r.Questions.ByID(ctx, id)
		if err != nil {
			return translate(err)
		}

		if q.AuthorID != actor.ID {
			return ErrNotAnAuthor
		}

		if strings.TrimSpace(req.Body) != "" {
			q.Body = req.Body
		}
		if strings.TrimSpace(req.Title) != "" {
			q.Title = validation.Title(req.Title, q.Body)
		}
		q.UpdatedAt = time.Now().UTC()

		err = r.Questions.Update(ctx, q)
		if err != nil {
			return fmt.Errorf("failed to update question: %w", err)
		}

		if req.ImageIDs != nil {
			imageIDs, err := resolveImages(ctx, r, actor.ID, req.ImageIDs, onQuestion(q.ID))
			if err != nil {
				return err
			}

			err = r.Images.DetachFromQuestion(ctx, q.ID)
			if err != nil {
				return fmt.Errorf("failed to detach images: %w", err)
			}

			err = r.Images.AttachToQuestion(ctx, q.ID, imageIDs)
			if err != nil {
				return fmt.Errorf("failed to attach images: %w", err)
			}
		}

		if req.Tags != nil {
			tagIDs, err := resolveTags(ctx, r, names)
			if err != nil {
				return err
			}

			err = r.Questions.SetTags(ctx, q.ID, tagIDs)
			if err != nil {
				return fmt.Errorf("failed to tag question: %w", err)
			}
		}

		out, err = s.projector(r).withComments(ctx, actor, q)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("question updated", "question_id", id, "user_id", actor.ID)
	return out, nil
}

func (s *QuestionService) PostComment(ctx context.Context, actor *model.User, questionID int64, req PostCommentRequest) (*model.QuestionWithComments, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}

	err := validation.ValidateBody(req.Body)
	if err != nil {
		return nil, err
	}

	var out *model.QuestionWithComments
	err = s.store.InTx(ctx, func(r *repository.Repositories) error {
		q, err := r.Questions.ByID(ctx, questionID)
		if err != nil {
			return translate(err)
		}

		imageIDs, err := resolveImages(ctx, r, actor.ID, req.ImageIDs, nil)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		c := &model.Comment{
			QuestionID: q.ID,
			AuthorID:   actor.ID,
			Body:       req.Body,
			CreatedAt:  now,
			UpdatedAt:  now,
		}

		err = r.Comments.Create(ctx, c)
		if err != nil {
			return fmt.Errorf("failed to create comment: %w", err)
		}

		err = r.Images.AttachToComment(ctx, c.ID, imageIDs)
		if err != nil {
			return fmt.Errorf("failed to attach images: %w", err)
		}

		out, err = s.projector(r).withComments(ctx, actor, q)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.CommentPosted()
	logger.FromContext(ctx).Info("comment posted", "question_id", questionID, "user_id", actor.ID)
	return out, nil
}

// EditComment changes a comment's body and, when ImageIDs is non-nil,
// replaces its image set. It returns the parent question.
func (s *QuestionService) EditComment(ctx context.Context, actor *model.User, commentID int64, req PostCommentRequest) (*model.QuestionWithComments, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}

	if strings.TrimSpace(req.Body) != "" {
		err := validation.ValidateBody(req.Body)
		if err != nil {
			return nil, err
		}
	}

	var out *model.QuestionWithComments
	err := s.store.InTx(ctx, func(r *repository.Repositories) error {
		c, err := r.Comments.ByID(ctx, commentID)
		if err != nil {
			return translate(err)
		}

		if c.AuthorID != actor.ID {
			return ErrNotAnAuthor
		}

		if strings.TrimSpace(req.Body) != "" {
			c.Body = req.Body
			c.UpdatedAt = time.Now().UTC()

			err = r.Comments.Update(ctx, c)
			if err != nil {
				return fmt.Errorf("failed to update comment: %w", err)
			}
		}

		if req.ImageIDs != nil {
			imageIDs, err := resolveImages(ctx, r, actor.ID, req.ImageIDs, onComment(c.ID))
			if err != nil {
				return err
			}

			err = r.Images.DetachFromComment(ctx, c.ID)
			if err != nil {
				return fmt.Errorf("failed to detach images: %w", err)
			}

			err = r.Images.AttachToComment(ctx, c.ID, imageIDs)
			if err != nil {
				return fmt.Errorf("failed to attach images: %w", err)
			}
		}

		q, err := r.Questions.ByID(ctx, c.QuestionID)
		if err != nil {
			return translate(err)
		}

		out, err = s.projector(r).withComments(ctx, actor, q)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("comment edited", "comment_id", commentID, "user_id", actor.ID)
	return out, nil
}

type likeOp int

const (
	likeToggle likeOp = iota
	likeSet
	likeUnset
)

// ToggleLike likes the question if the actor has not, and removes the like
// otherwise.
func (s *QuestionService) ToggleLike(ctx context.Context, actor *model.User, questionID int64) (*model.LikeResult, error) {
	return s.like(ctx, actor, questionID, likeToggle)
}

// Like is the idempotent form of ToggleLike for setting a like.
func (s *QuestionService) Like(ctx context.Context, actor *model.User, questionID int64) (*model.LikeResult, error) {
	return s.like(ctx, actor, questionID, likeSet)
}

// Unlike is the idempotent form of ToggleLike for removing a like.
func (s *QuestionService) Unlike(ctx context.Context, actor *model.User, questionID int64) (*model.LikeResult, error) {
	return s.like(ctx, actor, questionID, likeUnset)
}

// like relies on the (user_id, question_id) unique constraint: a conflicting
// insert means the like is already there and a delete that touches no row
// means it is already gone.
func (s *QuestionService) like(ctx context.Context, actor *model.User, questionID int64, op likeOp) (*model.LikeResult, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}

	result := &model.LikeResult{}
	changed := false
	err := s.store.InTx(ctx, func(r *repository.Repositories) error {
		_, err := r.Questions.ByID(ctx, questionID)
		if err != nil {
			return translate(err)
		}

		add := op == likeSet
		if op == likeToggle {
			liked, err := r.Likes.Exists(ctx, actor.ID, questionID)
			if err != nil {
				return fmt.Errorf("failed to check like: %w", err)
			}
			add = !liked
		}

		if add {
			result.Type = model.LikeTypeLike
			changed, err = r.Likes.Insert(ctx, actor.ID, questionID)
		} else {
			result.Type = model.LikeTypeDislike
			changed, err = r.Likes.Delete(ctx, actor.ID, questionID)
		}
		if err != nil {
			return fmt.Errorf("failed to change like: %w", err)
		}

		result.LikeCount, err = r.Likes.Count(ctx, questionID)
		if err != nil {
			return fmt.Errorf("failed to count likes: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		metrics.LikeChanged(string(result.Type))
	}
	logger.FromContext(ctx).Debug("like changed",
		"question_id", questionID, "user_id", actor.ID, "type", result.Type, "changed", changed)
	return result, nil
}

// resolveTags returns tag ids for names in order, creating missing tags.
// names must already be normalized.
func resolveTags(ctx context.Context, r *repository.Repositories, names []string) ([]int64, error) {
	if len(names) == 0 {
		return nil, nil
	}

	existing, err := r.Tags.ByNames(ctx, names)
	if err != nil {
		return nil, fmt.Errorf("failed to load tags: %w", err)
	}

	byName := make(map[string]int64, len(existing))
	for _, t := range existing {
		byName[t.Name] = t.ID
	}

	ids := make([]int64, 0, len(names))
	for _, name := range names {
		id, ok := byName[name]
		if !ok {
			tag, err := r.Tags.Ensure(ctx, &model.Tag{Name: name, CreatedAt: time.Now().UTC()})
			if err != nil {
				return nil, fmt.Errorf("failed to create tag %q: %w", name, err)
			}
			id = tag.ID
		}
		ids = append(ids, id)
	}

	return ids, nil
}

// resolveImages checks that every referenced image exists and may be used
// by the actor: either they uploaded it or it already sits on the entity
// being edited (attached reports that). Duplicate ids count once. Nothing is
// attached when any id is rejected.
func resolveImages(ctx context.Context, r *repository.Repositories, actorID int64, ids []int64, attached func(*model.Image) bool) ([]int64, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return ids, nil
	}

	images, err := r.Images.ByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load images: %w", err)
	}

	if len(images) != len(ids) {
		return nil, ErrInvalidImageID
	}

	for _, img := range images {
		uploadedByActor := img.UploaderID != nil && *img.UploaderID == actorID
		if !uploadedByActor && (attached == nil || !attached(img)) {
			return nil, fmt.Errorf("%w: image %d belongs to another user", ErrInvalidImageID, img.ID)
		}
	}

	return ids, nil
}

func onQuestion(questionID int64) func(*model.Image) bool {
	return func(img *model.Image) bool {
		return img.QuestionID != nil && *img.QuestionID == questionID
	}
}

func onComment(commentID int64) func(*model.Image) bool {
	return func(img *model.Image) bool {
		return img.CommentID != nil && *img.CommentID == commentID
	}
}

// IsClientError reports whether err is caused by the request rather than
// by the server.
func IsClientError(err error) bool {
	var vErr validation.Error
	return errors.As(err, &vErr) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalidImageID) ||
		errors.Is(err, ErrNotAnAuthor) ||
		errors.Is(err, ErrUnauthenticated) ||
		errors.Is(err, ErrUsernameTaken) ||
		errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrRegistrationClosed)
}
