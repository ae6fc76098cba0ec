// Package user はユーザープロフィールの管理機能を提供する。
package user

import (
	"context"
	"fmt"
	"strings"

	"github.com/hitoshi/microblog/internal/model"
	"github.com/hitoshi/microblog/internal/repository"
)

// UserService はプロフィール取得・更新のサービス。
type UserService struct {
	userRepo repository.UserRepository
}

// NewUserService はUserServiceの新しいインスタンスを生成する。
func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// GetProfile は指定IDのユーザーを返す。
// 見つからない場合はUSER_NOT_FOUNDのAPIErrorを返す。
func (s *UserService) GetProfile(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user %s: %w", userID, err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// UpdateProfileInput はプロフィール更新の入力。
type UpdateProfileInput struct {
	Username  string
	FirstName string
	LastName  string
}

// UpdateProfile はユーザー自身のプロフィールを更新して返す。
// usernameの一意制約違反はUSERNAME_TAKENとして伝播する。
func (s *UserService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*model.User, error) {
	if strings.TrimSpace(input.Username) == "" {
		return nil, model.NewValidationError("usernameは必須です。")
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user %s: %w", userID, err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	user.Username = input.Username
	user.FirstName = input.FirstName
	user.LastName = input.LastName

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
