package auth

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"restoran-analytics/internal/database"
	"restoran-analytics/internal/models"
	"restoran-analytics/internal/telemetry"
	"restoran-analytics/internal/validation"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type RegisterSuperAdminRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LocationSummary struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	City  string `json:"city"`
	State string `json:"state"`
}

type UserResponse struct {
	ID          uint             `json:"user_id"`
	Name        string           `json:"name"`
	Email       string           `json:"email"`
	Role        models.UserRole  `json:"role"`
	LocationID  *uint            `json:"location_id"`
	Location    *LocationSummary `json:"location,omitempty"`
	LastLoginAt *time.Time       `json:"last_login_at,omitempty"`
}

type TokenResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

var errSuperAdminExists = errors.New("super admin var")

// Kullanıcı bulunamadığında da bcrypt karşılaştırması yapılır; yanıt süresi
// hangi emaillerin kayıtlı olduğunu ele vermez.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("restoran-analytics"), bcrypt.DefaultCost)

func toUserResponse(u *models.User) UserResponse {
	resp := UserResponse{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        u.Role,
		LocationID:  u.LocationID,
		LastLoginAt: u.LastLoginAt,
	}
	if u.Location != nil {
		resp.Location = &LocationSummary{ID: u.Location.ID, Name: u.Location.Name, City: u.Location.City, State: u.Location.State}
	}
	return resp
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

// RegisterSuperAdminHandler zincirin ilk (ve tek) super admin hesabını açar.
func RegisterSuperAdminHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterSuperAdminRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		body.Email = normalizeEmail(body.Email)
		body.Name = strings.TrimSpace(body.Name)
		if err := validation.Struct(body); err != nil {
			return err
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Şifre hashlenemedi")
		}
		user := models.User{
			Name:         body.Name,
			Email:        body.Email,
			PasswordHash: string(hash),
			Role:         models.RoleSuperAdmin,
		}

		// sayım ve kayıt aynı işlemde: eşzamanlı iki kayıt ikinci super admini açamaz
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			var count int64
			if err := tx.Model(&models.User{}).Where("role = ?", models.RoleSuperAdmin).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return errSuperAdminExists
			}
			return tx.Create(&user).Error
		})
		if errors.Is(err, errSuperAdminExists) {
			return fiber.NewError(fiber.StatusForbidden, "Zaten bir super admin var")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kullanıcı oluşturulamadı")
		}

		slog.Info("super admin oluşturuldu", "user_id", user.ID)
		return c.Status(fiber.StatusCreated).JSON(toUserResponse(&user))
	}
}

// LoginHandler email/şifre ile token verir ve son giriş zamanını günceller.
func LoginHandler(tokens *Tokens, m *telemetry.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		body.Email = normalizeEmail(body.Email)
		if err := validation.Struct(body); err != nil {
			return err
		}

		var user models.User
		found := database.DB.Preload("Location").Where("email = ?", body.Email).First(&user).Error == nil
		hash := dummyHash
		if found {
			hash = []byte(user.PasswordHash)
		}
		if err := bcrypt.CompareHashAndPassword(hash, []byte(body.Password)); err != nil || !found {
			m.Login(false)
			slog.Info("başarısız giriş", "email", body.Email)
			return fiber.NewError(fiber.StatusUnauthorized, "Email veya şifre hatalı")
		}

		token, exp, err := tokens.Issue(&user)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Token oluşturulamadı")
		}

		now := time.Now()
		if err := database.DB.Model(&user).Update("last_login_at", now).Error; err != nil {
			slog.Warn("son giriş zamanı yazılamadı", "user_id", user.ID, "error", err)
		}
		user.LastLoginAt = &now
		m.Login(true)

		return c.JSON(TokenResponse{Token: token, ExpiresAt: exp, User: toUserResponse(&user)})
	}
}

// MeHandler token sahibinin güncel bilgisini döner. Token geçerli olsa da
// kullanıcı silinmişse 401.
func MeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals(CtxUserIDKey).(uint)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Kullanıcı bilgisi alınamadı")
		}

		var user models.User
		if err := database.DB.Preload("Location").First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusUnauthorized, "Kullanıcı artık mevcut değil")
			}
			return err
		}
		return c.JSON(toUserResponse(&user))
	}
}
