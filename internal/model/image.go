package model

import (
	"time"
)

const (
	ImageOwnerNone     = ""
	ImageOwnerQuestion = "question"
	ImageOwnerComment  = "comment"
	ImageOwnerUser     = "user"
)

// Image is an uploaded picture. At most one of QuestionID, CommentID and
// UserID is set; an image with none of them is pending attachment.
type Image struct {
	ID          int64     `db:"id"`
	UploaderID  *int64    `db:"uploader_id"`
	ContentType string    `db:"content_type"`
	Size        int64     `db:"size"`
	StorageKey  string    `db:"storage_key"`
	QuestionID  *int64    `db:"question_id"`
	CommentID   *int64    `db:"comment_id"`
	UserID      *int64    `db:"user_id"`
	CreatedAt   time.Time `db:"created_at"`
}

func (i *Image) Owner() string {
	switch {
	case i.QuestionID != nil:
		return ImageOwnerQuestion
	case i.CommentID != nil:
		return ImageOwnerComment
	case i.UserID != nil:
		return ImageOwnerUser
	}
	return ImageOwnerNone
}
