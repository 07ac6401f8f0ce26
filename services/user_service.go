package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/matchpoint-app/matchpoint/models"
	"github.com/matchpoint-app/matchpoint/repositories"
	"github.com/matchpoint-app/matchpoint/storage"
)

type UserService interface {
	// EnsureProfile provisions the local profile row from verified
	// identity-provider claims on first contact.
	EnsureProfile(ctx context.Context, id int, displayName, email string, role models.UserRole) (*models.User, error)
	GetByID(ctx context.Context, id int) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) (*models.UserListResponse, error)
	UpdateDisplayName(ctx context.Context, id int, actorID int, isAdmin bool, displayName string) (*models.User, error)
	UploadAvatar(ctx context.Context, id int, contentType string, file io.Reader) (*models.User, error)
}

type userService struct {
	userRepo repositories.UserRepository
	uploader storage.FileUploader
	logger   *slog.Logger
}

func NewUserService(userRepo repositories.UserRepository, uploader storage.FileUploader, logger *slog.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		uploader: uploader,
		logger:   logger,
	}
}

func (s *userService) EnsureProfile(ctx context.Context, id int, displayName, email string, role models.UserRole) (*models.User, error) {
	if role != models.RolePlayer && role != models.RoleAdmin {
		role = models.RolePlayer
	}
	if strings.TrimSpace(displayName) == "" {
		displayName = "Player " + fmt.Sprint(id)
	}

	user := &models.User{
		ID:          id,
		DisplayName: displayName,
		Email:       email,
		Role:        role,
	}
	if err := s.userRepo.UpsertFromIdentity(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) GetByID(ctx context.Context, id int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.fillAvatarURL(user)
	return user, nil
}

func (s *userService) List(ctx context.Context, filter models.UserFilter) (*models.UserListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}

	users, total, err := s.userRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	for i := range users {
		s.fillAvatarURL(&users[i])
	}

	return &models.UserListResponse{
		Users:      users,
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
	}, nil
}

func (s *userService) UpdateDisplayName(ctx context.Context, id int, actorID int, isAdmin bool, displayName string) (*models.User, error) {
	if !isAdmin && id != actorID {
		return nil, ErrForbiddenOperation
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, fmt.Errorf("%w: display name is required", ErrValidationFailed)
	}

	if err := s.userRepo.UpdateDisplayName(ctx, id, displayName); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

var avatarExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

const maxAvatarSize = 2 << 20 // 2 MiB

func (s *userService) UploadAvatar(ctx context.Context, id int, contentType string, file io.Reader) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.uploader == nil {
		return nil, ErrUploadsUnavailable
	}

	ext, ok := avatarExtensions[contentType]
	if !ok {
		return nil, ErrInvalidFileType
	}

	key := path.Join("users", "avatars", fmt.Sprintf("%d", id), uuid.NewString()+ext)
	limited := io.LimitReader(file, maxAvatarSize+1)
	result, err := s.uploader.Upload(ctx, key, contentType, limited)
	if err != nil {
		return nil, fmt.Errorf("failed to upload avatar: %w", err)
	}

	oldKey := user.AvatarKey
	if err := s.userRepo.UpdateAvatarKey(ctx, id, &result.Key); err != nil {
		if delErr := s.uploader.Delete(ctx, result.Key); delErr != nil {
			s.logger.Warn("failed to clean up orphaned avatar",
				slog.String("key", result.Key), slog.Any("error", delErr))
		}
		return nil, err
	}
	if oldKey != nil && *oldKey != result.Key {
		if delErr := s.uploader.Delete(ctx, *oldKey); delErr != nil {
			s.logger.Warn("failed to delete previous avatar",
				slog.String("key", *oldKey), slog.Any("error", delErr))
		}
	}

	user.AvatarKey = &result.Key
	s.fillAvatarURL(user)
	return user, nil
}

func (s *userService) fillAvatarURL(user *models.User) {
	if user.AvatarKey != nil && s.uploader != nil {
		url := s.uploader.GetPublicURL(*user.AvatarKey)
		user.AvatarURL = &url
	}
}
