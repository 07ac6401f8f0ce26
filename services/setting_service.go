package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/matchpoint-app/matchpoint/models"
	"github.com/matchpoint-app/matchpoint/repositories"
)

const (
	fallbackDefaultCapacity = 16
)

// settingValidators maps the known setting keys to their value checks.
var settingValidators = map[string]func(value string) error{
	models.SettingDefaultCapacity: func(value string) error {
		n, err := strconv.Atoi(value)
		if err != nil || n < 2 {
			return fmt.Errorf("%w: %s must be an integer of at least 2", ErrSettingInvalidValue, models.SettingDefaultCapacity)
		}
		return nil
	},
	models.SettingAnnouncementEmailEnabled: func(value string) error {
		if _, err := strconv.ParseBool(value); err != nil {
			return fmt.Errorf("%w: %s must be a boolean", ErrSettingInvalidValue, models.SettingAnnouncementEmailEnabled)
		}
		return nil
	},
}

type SettingService interface {
	List(ctx context.Context) ([]*models.SystemSetting, error)
	Get(ctx context.Context, key string) (*models.SystemSetting, error)
	Update(ctx context.Context, key, value string, updatedByUserID int) (*models.SystemSetting, error)
	// Delete removes the stored value; reads fall back to the built-in
	// default afterwards.
	Delete(ctx context.Context, key string) error

	// Typed accessors with built-in defaults for the keys the server
	// itself consumes.
	DefaultCapacity(ctx context.Context) int
	AnnouncementEmailEnabled(ctx context.Context) bool
}

type settingService struct {
	settingRepo repositories.SettingRepository
}

func NewSettingService(settingRepo repositories.SettingRepository) SettingService {
	return &settingService{settingRepo: settingRepo}
}

func (s *settingService) List(ctx context.Context) ([]*models.SystemSetting, error) {
	return s.settingRepo.List(ctx)
}

func (s *settingService) Get(ctx context.Context, key string) (*models.SystemSetting, error) {
	if _, known := settingValidators[key]; !known {
		return nil, ErrSettingUnknownKey
	}
	return s.settingRepo.Get(ctx, key)
}

func (s *settingService) Update(ctx context.Context, key, value string, updatedByUserID int) (*models.SystemSetting, error) {
	validate, known := settingValidators[key]
	if !known {
		return nil, ErrSettingUnknownKey
	}
	if err := validate(value); err != nil {
		return nil, err
	}

	setting := &models.SystemSetting{
		Key:             key,
		Value:           value,
		UpdatedByUserID: &updatedByUserID,
	}
	if err := s.settingRepo.Upsert(ctx, setting); err != nil {
		return nil, err
	}
	return setting, nil
}

func (s *settingService) Delete(ctx context.Context, key string) error {
	if _, known := settingValidators[key]; !known {
		return ErrSettingUnknownKey
	}
	return s.settingRepo.Delete(ctx, key)
}

func (s *settingService) DefaultCapacity(ctx context.Context) int {
	setting, err := s.settingRepo.Get(ctx, models.SettingDefaultCapacity)
	if err != nil {
		return fallbackDefaultCapacity
	}
	n, err := strconv.Atoi(setting.Value)
	if err != nil || n < 2 {
		return fallbackDefaultCapacity
	}
	return n
}

func (s *settingService) AnnouncementEmailEnabled(ctx context.Context) bool {
	setting, err := s.settingRepo.Get(ctx, models.SettingAnnouncementEmailEnabled)
	if err != nil {
		return false
	}
	enabled, err := strconv.ParseBool(setting.Value)
	if err != nil {
		return false
	}
	return enabled
}
