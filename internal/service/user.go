package service

import (
	"context"
	"fmt"

	"github.com/podloop/podloop/internal/model"
	"github.com/podloop/podloop/internal/repository"
	"github.com/podloop/podloop/internal/validation"
)

type UserService struct {
	userRepository repository.UserRepository
}

func NewUserService(userRepository repository.UserRepository) *UserService {
	return &UserService{userRepository: userRepository}
}

func (s *UserService) ByID(ctx context.Context, id string) (*model.User, error) {
	return s.userRepository.ByID(ctx, id)
}

// UpdateBio persists a new bio. Future recommendation output reflects it;
// scores already returned are never recomputed.
func (s *UserService) UpdateBio(ctx context.Context, userID, bio string) error {
	if err := validation.ValidateBio(bio); err != nil {
		return fmt.Errorf("%w: %s", ErrValidation, err)
	}
	return s.userRepository.UpdateBio(ctx, userID, bio)
}
