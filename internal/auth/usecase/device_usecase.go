package usecase

import (
	"errors"

	"studio-admin-backend/internal/auth/repository"
)

var ErrEmptyDeviceToken = errors.New("device token is required")

// DeviceUsecase manages the admin devices that receive push alerts
type DeviceUsecase interface {
	RegisterDevice(userID, token, deviceInfo string) error
	UnregisterDevice(token string) error
}

type deviceUsecase struct {
	repo repository.DeviceTokenRepository
}

// NewDeviceUsecase creates a new instance of deviceUsecase
func NewDeviceUsecase(repo repository.DeviceTokenRepository) DeviceUsecase {
	return &deviceUsecase{repo: repo}
}

func (u *deviceUsecase) RegisterDevice(userID, token, deviceInfo string) error {
	if token == "" {
		return ErrEmptyDeviceToken
	}
	return u.repo.SaveToken(userID, token, deviceInfo)
}

func (u *deviceUsecase) UnregisterDevice(token string) error {
	if token == "" {
		return ErrEmptyDeviceToken
	}
	return u.repo.DeleteToken(token)
}
