package model

import (
	"time"
)

// Read-side projections returned by the services. Field names follow the
// public JSON API.

type UserView struct {
	ID            int64     `json:"id"`
	Username      string    `json:"username"`
	FirstName     string    `json:"firstName,omitempty"`
	LastName      string    `json:"lastName,omitempty"`
	DisplayName   string    `json:"displayName"`
	AvatarImageID *int64    `json:"avatarImageId,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Profile is the current user's own view, including private fields.
type Profile struct {
	UserView
	Email          string   `json:"email,omitempty"`
	SubscribedTags []string `json:"subscribedTags"`
}

type TagView struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type QuestionView struct {
	ID                 int64     `json:"id"`
	Title              string    `json:"title"`
	Body               string    `json:"body"`
	BodyHTML           string    `json:"bodyHtml"`
	CreationDate       time.Time `json:"creationDate"`
	Author             UserView  `json:"author"`
	Tags               []TagView `json:"tags"`
	ImageIDs           []int64   `json:"imageIds"`
	LikeCount          int64     `json:"likeCount"`
	LikedByCurrentUser bool      `json:"likedByCurrentUser"`
	CommentCount       int64     `json:"commentCount"`
}

type CommentView struct {
	ID           int64     `json:"id"`
	QuestionID   int64     `json:"questionId"`
	Body         string    `json:"body"`
	BodyHTML     string    `json:"bodyHtml"`
	CreationDate time.Time `json:"creationDate"`
	Author       UserView  `json:"author"`
	ImageIDs     []int64   `json:"imageIds"`
}

type QuestionWithComments struct {
	QuestionView
	Comments []CommentView `json:"comments"`
}

func NewUserView(u *User) UserView {
	return UserView{
		ID:            u.ID,
		Username:      u.Username,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		DisplayName:   u.DisplayName(),
		AvatarImageID: u.AvatarImageID,
		CreatedAt:     u.CreatedAt,
	}
}
