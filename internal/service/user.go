package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yaqa/yaqa/internal/ctxkeys"
	"github.com/yaqa/yaqa/internal/logger"
	"github.com/yaqa/yaqa/internal/metrics"
	"github.com/yaqa/yaqa/internal/model"
	"github.com/yaqa/yaqa/internal/repository"
	"github.com/yaqa/yaqa/internal/validation"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/unicode/norm"
)

type UserService struct {
	store            *repository.Store
	emailService     *EmailService
	registrationOpen bool
}

func NewUserService(store *repository.Store, emailService *EmailService, registrationOpen bool) *UserService {
	return &UserService{
		store:            store,
		emailService:     emailService,
		registrationOpen: registrationOpen,
	}
}

// Register stores a new user with a bcrypt hash of the password.
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*model.User, error) {
	if !s.registrationOpen {
		return nil, ErrRegistrationClosed
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	err := validation.ValidateUsername(req.Username)
	if err != nil {
		return nil, err
	}

	err = validation.ValidatePassword(req.Password)
	if err != nil {
		return nil, err
	}

	err = validation.ValidateEmail(req.Email)
	if err != nil {
		return nil, err
	}

	for _, name := range []string{req.FirstName, req.LastName} {
		err = validation.ValidateName(name)
		if err != nil {
			return nil, err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username:     req.Username,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        req.Email,
		CreatedAt:    time.Now().UTC(),
	}

	err = s.store.Repos().Users.Create(ctx, user)
	if err != nil {
		return nil, translate(err)
	}

	metrics.UserRegistered()
	logger.FromContext(ctx).Info("user registered", "user_id", user.ID, "username", user.Username)

	if user.Email != "" && s.emailService != nil {
		err = s.emailService.SendWelcomeEmail(ctx, user.Email, user.DisplayName())
		if err != nil {
			logger.FromContext(ctx).Warn("failed to send welcome email", "user_id", user.ID, "error", err)
		}
	}

	return user, nil
}

// Current resolves the principal carried in ctx to the stored user.
func (s *UserService) Current(ctx context.Context) (*model.User, error) {
	username := ctxkeys.Principal(ctx)
	if username == "" {
		return nil, ErrUnauthenticated
	}

	return s.ByUsername(ctx, username)
}

func (s *UserService) ByUsername(ctx context.Context, username string) (*model.User, error) {
	r := s.store.Repos()

	user, err := r.Users.ByUsername(ctx, username)
	if err != nil {
		return nil, translate(err)
	}

	avatars, err := r.Images.AvatarIDs(ctx, []int64{user.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to load avatar: %w", err)
	}
	if avatarID, ok := avatars[user.ID]; ok {
		user.AvatarImageID = &avatarID
	}

	return user, nil
}

// Profile returns the user's own view including subscriptions.
func (s *UserService) Profile(ctx context.Context, user *model.User) (*model.Profile, error) {
	if user == nil {
		return nil, ErrUnauthenticated
	}
	return s.profile(ctx, s.store.Repos(), user)
}

func (s *UserService) profile(ctx context.Context, r *repository.Repositories, user *model.User) (*model.Profile, error) {
	tags, err := r.Subscriptions.TagsByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load subscriptions: %w", err)
	}

	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.Name)
	}

	return &model.Profile{
		UserView:       model.NewUserView(user),
		Email:          user.Email,
		SubscribedTags: names,
	}, nil
}

// UpdateProfile changes name, email and avatar. A new avatar image is moved
// to the user and the previous one is detached.
func (s *UserService) UpdateProfile(ctx context.Context, user *model.User, req UpdateProfileRequest) (*model.Profile, error) {
	if user == nil {
		return nil, ErrUnauthenticated
	}

	var out *model.Profile
	err := s.store.InTx(ctx, func(r *repository.Repositories) error {
		stored, err := r.Users.ByID(ctx, user.ID)
		if err != nil {
			return translate(err)
		}

		if req.FirstName != nil {
			err = validation.ValidateName(*req.FirstName)
			if err != nil {
				return err
			}
			stored.FirstName = strings.TrimSpace(*req.FirstName)
		}
		if req.LastName != nil {
			err = validation.ValidateName(*req.LastName)
			if err != nil {
				return err
			}
			stored.LastName = strings.TrimSpace(*req.LastName)
		}
		if req.Email != nil {
			email := strings.TrimSpace(strings.ToLower(*req.Email))
			err = validation.ValidateEmail(email)
			if err != nil {
				return err
			}
			stored.Email = email
		}

		err = r.Users.Update(ctx, stored)
		if err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}

		if req.AvatarImageID != nil {
			err = s.setAvatar(ctx, r, stored.ID, *req.AvatarImageID)
			if err != nil {
				return err
			}
		}

		avatars, err := r.Images.AvatarIDs(ctx, []int64{stored.ID})
		if err != nil {
			return fmt.Errorf("failed to load avatar: %w", err)
		}
		if avatarID, ok := avatars[stored.ID]; ok {
			stored.AvatarImageID = &avatarID
		}

		out, err = s.profile(ctx, r, stored)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("profile updated", "user_id", user.ID)
	return out, nil
}

func (s *UserService) setAvatar(ctx context.Context, r *repository.Repositories, userID, imageID int64) error {
	var ids []int64
	if imageID != 0 {
		var err error
		ids, err = resolveImages(ctx, r, userID, []int64{imageID}, func(img *model.Image) bool {
			return img.UserID != nil && *img.UserID == userID
		})
		if err != nil {
			return err
		}
	}

	err := r.Images.DetachFromUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to detach avatar: %w", err)
	}

	if len(ids) == 0 {
		return nil
	}

	err = r.Images.AttachToUser(ctx, userID, ids[0])
	if err != nil {
		return fmt.Errorf("failed to attach avatar: %w", err)
	}
	return nil
}

// Subscribe follows a tag, creating it if needed.
func (s *UserService) Subscribe(ctx context.Context, user *model.User, tagName string) (*model.Profile, error) {
	if user == nil {
		return nil, ErrUnauthenticated
	}

	names, err := validation.NormalizeTags([]string{tagName})
	if err != nil {
		return nil, err
	}

	var out *model.Profile
	err = s.store.InTx(ctx, func(r *repository.Repositories) error {
		ids, err := resolveTags(ctx, r, names)
		if err != nil {
			return err
		}

		err = r.Subscriptions.Subscribe(ctx, user.ID, ids[0])
		if err != nil {
			return fmt.Errorf("failed to subscribe: %w", err)
		}

		out, err = s.profile(ctx, r, user)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("tag subscribed", "user_id", user.ID, "tag", names[0])
	return out, nil
}

func (s *UserService) Unsubscribe(ctx context.Context, user *model.User, tagName string) (*model.Profile, error) {
	if user == nil {
		return nil, ErrUnauthenticated
	}

	name := norm.NFC.String(strings.TrimSpace(tagName))

	var out *model.Profile
	err := s.store.InTx(ctx, func(r *repository.Repositories) error {
		tag, err := r.Tags.ByName(ctx, name)
		if err != nil {
			return translate(err)
		}

		err = r.Subscriptions.Unsubscribe(ctx, user.ID, tag.ID)
		if err != nil {
			return fmt.Errorf("failed to unsubscribe: %w", err)
		}

		out, err = s.profile(ctx, r, user)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("tag unsubscribed", "user_id", user.ID, "tag", name)
	return out, nil
}
