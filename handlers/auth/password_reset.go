package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/englishmaster/api/model"
	authutil "github.com/englishmaster/api/utils/auth"
	"github.com/englishmaster/api/utils/response"
	"github.com/englishmaster/api/utils/validation"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const resetTokenTTL = 1 * time.Hour

// ForgotPasswordRequest represents a password reset initiation request
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest represents a password reset completion request
type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// ForgotPassword creates a reset token and emails the reset link. The
// response is identical whether or not the email exists, to avoid leaking
// which addresses are registered.
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req ForgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var user model.User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		return response.SuccessWithMessage(c, "If the email exists, a reset link has been sent", nil)
	}

	rawToken, err := generateResetToken()
	if err != nil {
		return response.InternalServerError(c, "Failed to generate reset token")
	}

	// Only the hash of the token touches the database
	resetToken := model.PasswordResetToken{
		UserID:    user.ID,
		Token:     hashResetToken(rawToken),
		ExpiresAt: time.Now().Add(resetTokenTTL),
	}

	if err := h.db.Create(&resetToken).Error; err != nil {
		return response.InternalServerError(c, "Failed to create reset token")
	}

	resetLink := fmt.Sprintf("%s/reset-password?token=%s", h.appURL, rawToken)
	if h.emailService != nil {
		if err := h.emailService.SendPasswordResetEmail(c.Context(), user.Email, user.Name, resetLink); err != nil {
			return response.InternalServerError(c, "Failed to send reset email")
		}
	}

	return response.SuccessWithMessage(c, "If the email exists, a reset link has been sent", nil)
}

// ResetPassword completes a password reset. All existing sessions are
// invalidated by bumping the user's token version.
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	if ok, problems := validation.ValidatePassword(req.NewPassword); !ok {
		return response.BadRequest(c, strings.Join(problems, "; "))
	}

	var resetToken model.PasswordResetToken
	if err := h.db.Where("token = ?", hashResetToken(req.Token)).First(&resetToken).Error; err != nil {
		return response.BadRequest(c, "Invalid or expired reset token")
	}

	if resetToken.IsExpired() || resetToken.IsUsed() {
		return response.BadRequest(c, "Invalid or expired reset token")
	}

	hashedPassword, err := authutil.HashPassword(req.NewPassword)
	if err != nil {
		return response.InternalServerError(c, "Failed to process password")
	}

	now := time.Now()
	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.User{}).
			Where("id = ?", resetToken.UserID).
			Update("password_hash", hashedPassword).Error; err != nil {
			return err
		}

		// Bump the token version so every outstanding session dies with
		// the old password.
		if err := authutil.NewBlacklistService(tx).RevokeAllUserTokens(c.Context(), resetToken.UserID); err != nil {
			return err
		}

		return tx.Model(&resetToken).Update("used_at", &now).Error
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to reset password")
	}

	return response.SuccessWithMessage(c, "Password reset successfully", nil)
}

func generateResetToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
