package repository

import (
	"time"

	authdomain "studio-admin-backend/internal/auth/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DeviceTokenRepository defines the interface for admin device token operations
type DeviceTokenRepository interface {
	SaveToken(userID, token, deviceInfo string) error
	GetAllTokens() ([]authdomain.DeviceToken, error)
	GetTokensByUserID(userID string) ([]authdomain.DeviceToken, error)
	DeleteToken(token string) error
	DeleteTokensByUserID(userID string) error
}

// deviceTokenRepository implements DeviceTokenRepository interface
type deviceTokenRepository struct {
	db *gorm.DB
}

// NewDeviceTokenRepository creates a new instance of deviceTokenRepository
func NewDeviceTokenRepository(db *gorm.DB) DeviceTokenRepository {
	return &deviceTokenRepository{
		db: db,
	}
}

// SaveToken saves or updates a device token for a user (atomic upsert)
func (r *deviceTokenRepository) SaveToken(userID, token, deviceInfo string) error {
	deviceToken := &authdomain.DeviceToken{
		ID:         uuid.New().String(),
		UserID:     userID,
		Token:      token,
		DeviceInfo: deviceInfo,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	// Atomic upsert: INSERT ... ON CONFLICT (token) DO UPDATE
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "device_info", "updated_at"}),
	}).Create(deviceToken).Error
}

// GetAllTokens returns every registered admin device
func (r *deviceTokenRepository) GetAllTokens() ([]authdomain.DeviceToken, error) {
	var tokens []authdomain.DeviceToken
	if err := r.db.Order("updated_at DESC").Find(&tokens).Error; err != nil {
		return nil, err
	}
	return tokens, nil
}

// GetTokensByUserID returns all device tokens for a user
func (r *deviceTokenRepository) GetTokensByUserID(userID string) ([]authdomain.DeviceToken, error) {
	var tokens []authdomain.DeviceToken
	err := r.db.Where("user_id = ?", userID).Find(&tokens).Error
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

// DeleteToken removes a specific device token
func (r *deviceTokenRepository) DeleteToken(token string) error {
	return r.db.Where("token = ?", token).Delete(&authdomain.DeviceToken{}).Error
}

// DeleteTokensByUserID removes all device tokens for a user
func (r *deviceTokenRepository) DeleteTokensByUserID(userID string) error {
	return r.db.Where("user_id = ?", userID).Delete(&authdomain.DeviceToken{}).Error
}
