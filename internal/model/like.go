package model

import (
	"time"
)

type LikeType string

const (
	LikeTypeLike LikeType = "LIKE"
	// LikeTypeDislike reports that an existing like was removed. There is
	// no downvote.
	LikeTypeDislike LikeType = "DISLIKE"
)

type Like struct {
	ID         int64     `db:"id"`
	UserID     int64     `db:"user_id"`
	QuestionID int64     `db:"question_id"`
	CreatedAt  time.Time `db:"created_at"`
}

type LikeResult struct {
	LikeCount int64    `json:"likeCount"`
	Type      LikeType `json:"type"`
}
