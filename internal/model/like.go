package model

import "time"

// Like はユーザーと投稿のいいね関係を表す。
// (user_id, post_id) の組はDBのUNIQUE制約で最大1行に制限される。
// トグル操作の正しさはアプリケーションロジックではなくこの制約が保証する。
type Like struct {
	ID        string
	UserID    string
	PostID    string
	CreatedAt time.Time
}

// LikeState は投稿のいいね集計と閲覧者自身のいいね状態を表す。
// 匿名閲覧者の場合、LikedByUserは常にfalse。
type LikeState struct {
	PostID      string
	Count       int
	LikedByUser bool
}

// ToggleResult はトグル操作の結果を表す。
// Likedはトグル後の状態、Countはトグル後の集計値。
type ToggleResult struct {
	PostID string
	UserID string
	Liked  bool
	Count  int
}
