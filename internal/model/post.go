package model

import "time"

// Theme は投稿の大分類（テーマ）を表す。
type Theme struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Category はテーマ配下の小分類を表す。
// (theme_id, name) の組はDBのUNIQUE制約で一意。
type Category struct {
	ID        string
	ThemeID   string
	Name      string
	CreatedAt time.Time
}

// Post は投稿記事を表す。
// UserIDはnil許容であり、nilの場合は匿名投稿として扱う（エラーではない）。
// SlugはDBのUNIQUE制約で一意であり、衝突はSLUG_TAKENエラーとして表面化する。
type Post struct {
	ID          string
	Slug        string
	ThemeID     string
	CategoryID  string
	UserID      *string
	Title       string
	Description string
	Content     string // サニタイズ済みHTML
	ImageURL    string
	AltText     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PostWithRelations は投稿と表示に必要な関連情報を結合したモデル。
// users, themes, categoriesテーブルとLEFT JOINして取得される。
type PostWithRelations struct {
	Post
	AuthorFirstName string
	AuthorLastName  string
	ThemeName       string
	CategoryName    string
}

// AuthorName は表示用の著者名を返す。著者が存在しない場合は"Anonymous"を返す。
func (p *PostWithRelations) AuthorName() string {
	if p.UserID == nil {
		return "Anonymous"
	}
	name := p.AuthorFirstName
	if p.AuthorLastName != "" {
		if name != "" {
			name += " "
		}
		name += p.AuthorLastName
	}
	if name == "" {
		return "Anonymous"
	}
	return name
}
