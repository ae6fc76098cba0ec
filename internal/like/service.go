// Package like は投稿へのいいね機能を提供する。
package like

import (
	"context"
	"fmt"

	"github.com/hitoshi/microblog/internal/model"
	"github.com/hitoshi/microblog/internal/repository"
)

// ToggleRecorder はトグル結果のメトリクス記録インターフェース。
type ToggleRecorder interface {
	RecordLikeToggle(liked bool)
}

// LikeService はいいねの状態取得とトグルのサービス。
// 整合性の裏付けはリポジトリ層の(user_id, post_id)一意制約であり、
// サービス層では状態を保持しない。
type LikeService struct {
	likeRepo repository.LikeRepository
	postRepo repository.PostRepository
	recorder ToggleRecorder
}

// NewLikeService はLikeServiceの新しいインスタンスを生成する。
// recorderはnil可（メトリクス記録なしで動作する）。
func NewLikeService(
	likeRepo repository.LikeRepository,
	postRepo repository.PostRepository,
	recorder ToggleRecorder,
) *LikeService {
	return &LikeService{
		likeRepo: likeRepo,
		postRepo: postRepo,
		recorder: recorder,
	}
}

// GetState は投稿のいいね件数と、閲覧ユーザー自身のいいね状態を返す。
// userIDが空（匿名閲覧）の場合、LikedByUserは常にfalse。
// 存在しない投稿は件数0として返す。
func (s *LikeService) GetState(ctx context.Context, postID, userID string) (*model.LikeState, error) {
	if postID == "" {
		return nil, model.NewValidationError("postIdは必須です。")
	}

	count, err := s.likeRepo.CountByPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to count likes for post %s: %w", postID, err)
	}

	likedByUser := false
	if userID != "" {
		likedByUser, err = s.likeRepo.ExistsByUserAndPost(ctx, userID, postID)
		if err != nil {
			return nil, fmt.Errorf("failed to check like existence: %w", err)
		}
	}

	return &model.LikeState{
		PostID:      postID,
		Count:       count,
		LikedByUser: likedByUser,
	}, nil
}

// Toggle は認証済みユーザーのいいね状態を反転し、反転後の状態と件数を返す。
// 投稿が存在しない場合はPOST_NOT_FOUNDのAPIErrorを返す。
// 同一ペアへの同時トグルは一意制約により片側へ収束するため、
// 返される状態はトグル後のDBの実状態と常に一致する。
func (s *LikeService) Toggle(ctx context.Context, postID, userID string) (*model.ToggleResult, error) {
	if postID == "" {
		return nil, model.NewValidationError("postIdは必須です。")
	}
	if userID == "" {
		return nil, model.NewUnauthorizedError()
	}

	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to find post %s: %w", postID, err)
	}
	if post == nil {
		return nil, model.NewPostNotFoundError()
	}

	liked, count, err := s.likeRepo.Toggle(ctx, userID, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to toggle like: %w", err)
	}

	if s.recorder != nil {
		s.recorder.RecordLikeToggle(liked)
	}

	return &model.ToggleResult{
		PostID: postID,
		UserID: userID,
		Liked:  liked,
		Count:  count,
	}, nil
}
