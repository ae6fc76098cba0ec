package model

import "time"

// Comment は投稿へのコメントを表す。
type Comment struct {
	ID        string
	PostID    string
	UserID    string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CommentWithAuthor はコメントと著者情報を結合したモデル。
// usersテーブルとJOINして取得される。
type CommentWithAuthor struct {
	Comment
	AuthorUsername  string
	AuthorFirstName string
	AuthorLastName  string
}
