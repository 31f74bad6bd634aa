package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/yaqa/yaqa/internal/logger"
	"github.com/yaqa/yaqa/internal/metrics"
	"github.com/yaqa/yaqa/internal/model"
	"github.com/yaqa/yaqa/internal/repository"
	"github.com/yaqa/yaqa/internal/storage"
	"github.com/yaqa/yaqa/internal/validation"
)

// ImageService stores uploaded images. New images have no owner until a
// question, comment or profile update references them.
type ImageService struct {
	store   *repository.Store
	storage storage.Storage
	maxSize int64
}

func NewImageService(store *repository.Store, storage storage.Storage, maxSize int64) *ImageService {
	return &ImageService{
		store:   store,
		storage: storage,
		maxSize: maxSize,
	}
}

func (s *ImageService) Upload(ctx context.Context, uploader *model.User, content io.Reader) (*model.Image, error) {
	if uploader == nil {
		return nil, ErrUnauthenticated
	}

	// One byte over the limit is enough to reject
	data, err := io.ReadAll(io.LimitReader(content, s.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	contentType, err := validation.DetectImage(data, s.maxSize)
	if err != nil {
		return nil, err
	}

	key := uuid.New().String()
	err = s.storage.Save(ctx, key, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to store image: %w", err)
	}

	image := &model.Image{
		UploaderID:  &uploader.ID,
		ContentType: contentType,
		Size:        int64(len(data)),
		StorageKey:  key,
		CreatedAt:   time.Now().UTC(),
	}

	err = s.store.Repos().Images.Create(ctx, image)
	if err != nil {
		delErr := s.storage.Delete(ctx, key)
		if delErr != nil {
			logger.FromContext(ctx).Warn("failed to clean up orphaned image payload", "key", key, "error", delErr)
		}
		return nil, fmt.Errorf("failed to save image: %w", err)
	}

	metrics.ImageUploaded(contentType)
	logger.FromContext(ctx).Info("image uploaded",
		"image_id", image.ID, "user_id", uploader.ID, "content_type", contentType, "size", image.Size)
	return image, nil
}

// Open returns the image metadata and its payload. The caller closes the
// reader.
func (s *ImageService) Open(ctx context.Context, id int64) (*model.Image, io.ReadCloser, error) {
	image, err := s.store.Repos().Images.ByID(ctx, id)
	if err != nil {
		return nil, nil, translate(err)
	}

	rc, err := s.storage.Open(ctx, image.StorageKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil, fmt.Errorf("%w: image payload missing", ErrNotFound)
	}
	if err != nil {
		return nil, nil, err
	}

	return image, rc, nil
}

// RedirectURL returns a direct download URL when the backing storage can
// presign one. ok is false otherwise.
func (s *ImageService) RedirectURL(ctx context.Context, id int64) (url string, ok bool, err error) {
	presigner, ok := s.storage.(storage.Presigner)
	if !ok {
		return "", false, nil
	}

	image, err := s.store.Repos().Images.ByID(ctx, id)
	if err != nil {
		return "", false, translate(err)
	}

	url, err = presigner.PresignedURL(ctx, image.StorageKey)
	if err != nil {
		return "", false, err
	}

	return url, true, nil
}
