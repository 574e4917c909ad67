package auth

import (
	"strings"

	"restoran-analytics/internal/models"

	"github.com/gofiber/fiber/v2"
)

const (
	CtxUserIDKey     = "user_id"
	CtxUserRoleKey   = "user_role"
	CtxLocationIDKey = "location_id"
)

// JWTMiddleware Bearer token'ı doğrular ve kimlik bilgisini Locals'a yazar.
func JWTMiddleware(tokens *Tokens) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization header eksik")
		}

		scheme, raw, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(raw) == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization formatı 'Bearer <token>' olmalı")
		}

		claims, err := tokens.Parse(strings.TrimSpace(raw))
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Geçersiz veya süresi dolmuş token")
		}
		userID, _ := claims.UserID()

		c.Locals(CtxUserIDKey, userID)
		c.Locals(CtxUserRoleKey, claims.Role)
		c.Locals(CtxLocationIDKey, claims.LocationID)

		return c.Next()
	}
}

func RequireRole(allowedRoles ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		roleVal := c.Locals(CtxUserRoleKey)
		role, ok := roleVal.(models.UserRole)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "Rol bilgisi alınamadı")
		}

		for _, r := range allowedRoles {
			if r == role {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, "Bu işlem için yetkiniz yok")
	}
}

// Scope: isteği yapan kullanıcının erişebildiği şubeler
type Scope struct {
	UserID     uint
	Role       models.UserRole
	LocationID uint // location_admin için zorunlu, super_admin için 0
}

// All kullanıcı tüm şubeleri görebilir mi
func (s Scope) All() bool {
	return s.Role == models.RoleSuperAdmin
}

// Allows kullanıcı bu şubeye erişebilir mi
func (s Scope) Allows(locationID uint) bool {
	return s.All() || s.LocationID == locationID
}

// ScopeFromContext JWT middleware'in yazdığı bilgilerden erişim kapsamını çıkarır.
// Şube admini için şube bilgisi yoksa 403 döner.
func ScopeFromContext(c *fiber.Ctx) (Scope, error) {
	role, ok := c.Locals(CtxUserRoleKey).(models.UserRole)
	if !ok {
		return Scope{}, fiber.NewError(fiber.StatusForbidden, "Rol bilgisi alınamadı")
	}
	userID, _ := c.Locals(CtxUserIDKey).(uint)
	s := Scope{UserID: userID, Role: role}

	if role == models.RoleLocationAdmin {
		locPtr, ok := c.Locals(CtxLocationIDKey).(*uint)
		if !ok || locPtr == nil {
			return Scope{}, fiber.NewError(fiber.StatusForbidden, "Şube bilgisi bulunamadı")
		}
		s.LocationID = *locPtr
	}
	return s, nil
}
