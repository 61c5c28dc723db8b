package models

import "time"

// Post is a feed entry with its likes and comments.
type Post struct {
	ID             string    `json:"id"`
	AuthorID       string    `json:"authorId"`
	AuthorUsername string    `json:"authorUsername"`
	Content        string    `json:"content"`
	Likes          []string  `json:"likes"` // user IDs
	LikeCount      int       `json:"likeCount"`
	Comments       []Comment `json:"comments"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Comment is an entry in a post's ordered comment list.
type Comment struct {
	ID             string    `json:"id"`
	PostID         string    `json:"-"`
	AuthorID       string    `json:"authorId"`
	AuthorUsername string    `json:"authorUsername"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
}

// PostPage is one page of the feed.
type PostPage struct {
	Posts []Post `json:"posts"`
	Total int    `json:"total"`
	Page  int    `json:"page"`
	Pages int    `json:"pages"`
}
