package service

// CreateQuestionRequest is used both to create and to update a question.
// On update a nil Tags or ImageIDs leaves the set untouched and an empty,
// non-nil slice clears it.
type CreateQuestionRequest struct {
	Title    string   `json:"title,omitempty"`
	Body     string   `json:"body"`
	Tags     []string `json:"tags"`
	ImageIDs []int64  `json:"imageIds"`
}

type PostCommentRequest struct {
	Body     string  `json:"body"`
	ImageIDs []int64 `json:"imageIds"`
}

type RegisterRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// UpdateProfileRequest changes only the fields that are present.
// AvatarImageID 0 removes the avatar.
type UpdateProfileRequest struct {
	FirstName     *string `json:"firstName"`
	LastName      *string `json:"lastName"`
	Email         *string `json:"email"`
	AvatarImageID *int64  `json:"avatarImageId"`
}
