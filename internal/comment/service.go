// Package comment は投稿へのコメント機能を提供する。
package comment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/microblog/internal/model"
	"github.com/hitoshi/microblog/internal/repository"
	"github.com/hitoshi/microblog/internal/security"
)

// CreateRecorder はコメント作成のメトリクス記録インターフェース。
type CreateRecorder interface {
	RecordCommentCreated()
}

// CommentService はコメントのCRUDサービス。
// 本文の編集・削除は本人または管理者のみ許可する。
type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	sanitizer   security.ContentSanitizerService
	recorder    CreateRecorder
}

// NewCommentService はCommentServiceの新しいインスタンスを生成する。
// recorderはnil可。
func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	sanitizer security.ContentSanitizerService,
	recorder CreateRecorder,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		sanitizer:   sanitizer,
		recorder:    recorder,
	}
}

// ListByPost は投稿のコメント一覧を作成日時昇順で返す。
// 投稿が存在しない場合はPOST_NOT_FOUNDのAPIErrorを返す。
func (s *CommentService) ListByPost(ctx context.Context, postID string) ([]model.CommentWithAuthor, error) {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to find post %s: %w", postID, err)
	}
	if post == nil {
		return nil, model.NewPostNotFoundError()
	}

	comments, err := s.commentRepo.ListByPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments for post %s: %w", postID, err)
	}
	return comments, nil
}

// Create は認証済みユーザーのコメントを作成して返す。
// 本文はサニタイズしてから保存する。投稿が存在しない場合はPOST_NOT_FOUND。
func (s *CommentService) Create(ctx context.Context, postID, userID, content string) (*model.Comment, error) {
	if userID == "" {
		return nil, model.NewUnauthorizedError()
	}
	if strings.TrimSpace(content) == "" {
		return nil, model.NewValidationError("コメント本文は必須です。")
	}

	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to find post %s: %w", postID, err)
	}
	if post == nil {
		return nil, model.NewPostNotFoundError()
	}

	// リポジトリはcreated_at/updated_atをそのままINSERTするため、ここで設定する
	now := time.Now().UTC()

	comment := &model.Comment{
		ID:        uuid.New().String(),
		PostID:    postID,
		UserID:    userID,
		Content:   s.sanitizer.Sanitize(content),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	if s.recorder != nil {
		s.recorder.RecordCommentCreated()
	}

	return comment, nil
}

// Update はコメント本文を更新する。
// 本人または管理者以外の更新はFORBIDDENのAPIErrorを返す。
func (s *CommentService) Update(ctx context.Context, commentID, content string, actor Actor) (*model.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, model.NewValidationError("コメント本文は必須です。")
	}

	comment, err := s.authorizedComment(ctx, commentID, actor)
	if err != nil {
		return nil, err
	}

	sanitized := s.sanitizer.Sanitize(content)
	if err := s.commentRepo.UpdateContent(ctx, commentID, sanitized); err != nil {
		return nil, err
	}

	comment.Content = sanitized
	return comment, nil
}

// Delete はコメントを削除する。
// 本人または管理者以外の削除はFORBIDDENのAPIErrorを返す。
func (s *CommentService) Delete(ctx context.Context, commentID string, actor Actor) error {
	if _, err := s.authorizedComment(ctx, commentID, actor); err != nil {
		return err
	}
	return s.commentRepo.Delete(ctx, commentID)
}

// Actor はコメント操作を行うユーザーの識別情報。
type Actor struct {
	UserID string
	Role   model.Role
}

// authorizedComment はコメントを取得し、actorの操作権限を検証する。
func (s *CommentService) authorizedComment(ctx context.Context, commentID string, actor Actor) (*model.Comment, error) {
	if actor.UserID == "" {
		return nil, model.NewUnauthorizedError()
	}

	comment, err := s.commentRepo.FindByID(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("failed to find comment %s: %w", commentID, err)
	}
	if comment == nil {
		return nil, model.NewCommentNotFoundError()
	}

	if comment.UserID != actor.UserID && actor.Role != model.RoleAdmin {
		return nil, model.NewForbiddenError()
	}
	return comment, nil
}
