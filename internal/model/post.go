package model

import "time"

// Post represents a marketplace post in the database. UserID and the
// Username snapshot are stamped from the authenticated identity at
// creation and never change afterwards.
type Post struct {
	ID          string    `json:"_id"`
	UserID      string    `json:"_userId"`
	Username    string    `json:"_username"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Tags        []string  `json:"tags"`
	LastEdit    time.Time `json:"lastEdit"`
	CreatedAt   time.Time `json:"dateCreated"`
}

// CreatePostRequest represents a POST /posts/create request.
// Price is a pointer so a missing price can be told apart from zero.
type CreatePostRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       *float64 `json:"price"`
	Tags        []string `json:"tags"`
}

// UpdatePostRequest represents a PATCH /posts/update/{id} request.
// Every field is optional; absent fields keep their stored value.
type UpdatePostRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Tags        []string `json:"tags"`
}

// Empty reports whether the patch changes nothing.
func (r UpdatePostRequest) Empty() bool {
	return r.Title == nil && r.Description == nil && r.Price == nil && r.Tags == nil
}

// PostPatch carries the resolved changes applied to a post row.
type PostPatch struct {
	Title       *string
	Description *string
	Price       *float64
	Tags        []string
	LastEdit    time.Time
}

// PostPage is the paginated listing response, using the original wire
// keys so existing clients keep working.
type PostPage struct {
	PostData    []Post `json:"postData"`
	TotalPages  int    `json:"totalPages"`
	CurrentPage int    `json:"currentPage"`
}
