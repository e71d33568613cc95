package delivery

import (
	"net/http"

	authdomain "studio-admin-backend/internal/auth/domain"
	"studio-admin-backend/internal/auth/usecase"

	"github.com/gin-gonic/gin"
)

// AuthHandler serves the authenticated user and their push devices
type AuthHandler struct {
	deviceUsecase usecase.DeviceUsecase
}

// NewAuthHandler creates a new AuthHandler. deviceUsecase may be nil when push
// alerts are disabled.
func NewAuthHandler(deviceUsecase usecase.DeviceUsecase) *AuthHandler {
	return &AuthHandler{deviceUsecase: deviceUsecase}
}

// RegisterDeviceRequest represents the request body for registering a device
type RegisterDeviceRequest struct {
	Token      string `json:"token" binding:"required"`
	DeviceInfo string `json:"device_info"`
}

// Me returns the authenticated user
// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user := authdomain.UserFromContext(c.Request.Context())
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// RegisterDevice stores a push token for the authenticated user
// POST /api/devices
func (h *AuthHandler) RegisterDevice(c *gin.Context) {
	if h.deviceUsecase == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "push notifications are disabled"})
		return
	}

	var req RegisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.deviceUsecase.RegisterDevice(c.GetString("userID"), req.Token, req.DeviceInfo); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Device registered successfully"})
}

// UnregisterDevice removes a push token
// DELETE /api/devices/:token
func (h *AuthHandler) UnregisterDevice(c *gin.Context) {
	if h.deviceUsecase == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "push notifications are disabled"})
		return
	}

	if err := h.deviceUsecase.UnregisterDevice(c.Param("token")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Device unregistered successfully"})
}
