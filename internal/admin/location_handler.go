package admin

import (
	"fmt"
	"strings"
	"time"

	"restoran-analytics/internal/audit"
	"restoran-analytics/internal/database"
	"restoran-analytics/internal/models"
	"restoran-analytics/internal/validation"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

const dateLayout = "2006-01-02"

type LocationResponse struct {
	ID        uint    `json:"id"`
	Name      string  `json:"name"`
	City      string  `json:"city"`
	State     string  `json:"state"`
	Manager   string  `json:"manager"`
	Seats     int     `json:"seats"`
	OpenDate  *string `json:"open_date"`
	Active    bool    `json:"active"`
	CreatedAt string  `json:"created_at"`
}

type CreateLocationRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	City     string `json:"city" validate:"max=100"`
	State    string `json:"state" validate:"max=50"`
	Manager  string `json:"manager" validate:"max=100"`
	Seats    int    `json:"seats" validate:"gte=0"`
	OpenDate string `json:"open_date" validate:"omitempty,datetime=2006-01-02"`
	Active   *bool  `json:"active"` // Opsiyonel, varsayılan true
}

type UpdateLocationRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=100"`
	City     *string `json:"city" validate:"omitempty,max=100"`
	State    *string `json:"state" validate:"omitempty,max=50"`
	Manager  *string `json:"manager" validate:"omitempty,max=100"`
	Seats    *int    `json:"seats" validate:"omitempty,gte=0"`
	OpenDate *string `json:"open_date" validate:"omitempty,datetime=2006-01-02"`
	Active   *bool   `json:"active"`
}

type CreateLocationAdminRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type LocationAdminResponse struct {
	ID         uint   `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	LocationID *uint  `json:"location_id"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

func toLocationResponse(l models.Location) LocationResponse {
	res := LocationResponse{
		ID:        l.ID,
		Name:      l.Name,
		City:      l.City,
		State:     l.State,
		Manager:   l.Manager,
		Seats:     l.Seats,
		Active:    l.Active,
		CreatedAt: l.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	if l.OpenDate != nil {
		d := l.OpenDate.Format(dateLayout)
		res.OpenDate = &d
	}
	return res
}

func parseOpenDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Açılış tarihi YYYY-MM-DD olmalı")
	}
	return &t, nil
}

func nameTaken(name string, exceptID uint) bool {
	var count int64
	database.DB.Model(&models.Location{}).
		Where("name = ? AND id <> ?", name, exceptID).
		Count(&count)
	return count > 0
}

// ----------------------------------------
// ŞUBE CRUD
// ----------------------------------------

func CreateLocationHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateLocationRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		body.Name = strings.TrimSpace(body.Name)
		body.City = strings.TrimSpace(body.City)
		body.State = strings.TrimSpace(body.State)
		body.Manager = strings.TrimSpace(body.Manager)
		if err := validation.Struct(body); err != nil {
			return err
		}

		openDate, err := parseOpenDate(body.OpenDate)
		if err != nil {
			return err
		}

		if nameTaken(body.Name, 0) {
			return fiber.NewError(fiber.StatusConflict, "Bu isimde bir şube zaten var")
		}

		loc := models.Location{
			Name:     body.Name,
			City:     body.City,
			State:    body.State,
			Manager:  body.Manager,
			Seats:    body.Seats,
			OpenDate: openDate,
			Active:   true,
		}
		if body.Active != nil {
			loc.Active = *body.Active
		}

		if err := database.DB.Create(&loc).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Şube oluşturulamadı")
		}

		res := toLocationResponse(loc)
		audit.Record(c, audit.LogOptions{
			LocationID:  &loc.ID,
			EntityType:  "location",
			EntityID:    loc.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Şube oluşturuldu: %s", loc.Name),
			After:       res,
		})
		return c.Status(fiber.StatusCreated).JSON(res)
	}
}

// ListLocationsHandler ?active=true ile sadece açık şubeler listelenir.
func ListLocationsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := database.DB.Order("id")
		if c.Query("active") == "true" {
			q = q.Where("active = ?", true)
		}

		var locations []models.Location
		if err := q.Find(&locations).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Şubeler listelenemedi")
		}

		res := make([]LocationResponse, 0, len(locations))
		for _, l := range locations {
			res = append(res, toLocationResponse(l))
		}

		return c.JSON(res)
	}
}

func GetLocationHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var loc models.Location
		if err := database.DB.First(&loc, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Şube bulunamadı")
		}

		return c.JSON(toLocationResponse(loc))
	}
}

func UpdateLocationHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var loc models.Location
		if err := database.DB.First(&loc, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Şube bulunamadı")
		}

		before := toLocationResponse(loc)

		var body UpdateLocationRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}
		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			body.Name = &name
		}
		if err := validation.Struct(body); err != nil {
			return err
		}

		if body.Name != nil {
			if *body.Name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Şube adı boş olamaz")
			}
			if nameTaken(*body.Name, loc.ID) {
				return fiber.NewError(fiber.StatusConflict, "Bu isimde bir şube zaten var")
			}
			loc.Name = *body.Name
		}
		if body.City != nil {
			loc.City = strings.TrimSpace(*body.City)
		}
		if body.State != nil {
			loc.State = strings.TrimSpace(*body.State)
		}
		if body.Manager != nil {
			loc.Manager = strings.TrimSpace(*body.Manager)
		}
		if body.Seats != nil {
			loc.Seats = *body.Seats
		}
		if body.OpenDate != nil {
			openDate, err := parseOpenDate(*body.OpenDate)
			if err != nil {
				return err
			}
			loc.OpenDate = openDate
		}
		if body.Active != nil {
			loc.Active = *body.Active
		}

		if err := database.DB.Save(&loc).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Şube güncellenemedi")
		}

		after := toLocationResponse(loc)
		audit.Record(c, audit.LogOptions{
			LocationID:  &loc.ID,
			EntityType:  "location",
			EntityID:    loc.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Şube güncellendi: %s", loc.Name),
			Before:      before,
			After:       after,
		})
		return c.JSON(after)
	}
}

// DeleteLocationHandler kayıtlı verisi olan şubeyi silmez; kapatmak için active=false kullanılır.
func DeleteLocationHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var loc models.Location
		if err := database.DB.First(&loc, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Şube bulunamadı")
		}

		for _, m := range []any{&models.SalesEntry{}, &models.InventoryEntry{}, &models.ReviewEntry{}, &models.User{}} {
			var count int64
			database.DB.Model(m).Where("location_id = ?", loc.ID).Count(&count)
			if count > 0 {
				return fiber.NewError(fiber.StatusConflict, "Şubeye bağlı kayıtlar var, silinemez")
			}
		}

		if err := database.DB.Delete(&loc).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Şube silinemedi")
		}

		audit.Record(c, audit.LogOptions{
			EntityType:  "location",
			EntityID:    loc.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Şube silindi: %s", loc.Name),
			Before:      toLocationResponse(loc),
		})

		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ----------------------------------------
// ŞUBE ADMİNİ OLUŞTURMA
// ----------------------------------------

func CreateLocationAdminHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		locationID := c.Params("id")

		var loc models.Location
		if err := database.DB.First(&loc, "id = ?", locationID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Şube bulunamadı")
		}

		var body CreateLocationAdminRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		body.Email = strings.ToLower(strings.TrimSpace(body.Email))
		body.Name = strings.TrimSpace(body.Name)
		if err := validation.Struct(body); err != nil {
			return err
		}

		var exist models.User
		if err := database.DB.Where("email = ?", body.Email).First(&exist).Error; err == nil {
			return fiber.NewError(fiber.StatusBadRequest, "Bu email zaten kayıtlı")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Şifre hashlenemedi")
		}

		user := models.User{
			Name:         body.Name,
			Email:        body.Email,
			PasswordHash: string(hash),
			Role:         models.RoleLocationAdmin,
			LocationID:   &loc.ID,
		}

		if err := database.DB.Create(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Şube admini oluşturulamadı")
		}

		audit.Record(c, audit.LogOptions{
			LocationID:  &loc.ID,
			EntityType:  "user",
			EntityID:    user.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Şube admini oluşturuldu: %s", user.Email),
		})

		return c.Status(fiber.StatusCreated).JSON(LocationAdminResponse{
			ID:         user.ID,
			Name:       user.Name,
			Email:      user.Email,
			Role:       string(user.Role),
			LocationID: user.LocationID,
			CreatedAt:  user.CreatedAt.Format("2006-01-02 15:04:05"),
			UpdatedAt:  user.UpdatedAt.Format("2006-01-02 15:04:05"),
		})
	}
}

// ----------------------------------------
// ŞUBE ADMİNLERİNİ LİSTELE
// GET /api/admin/locations/:id/admins
// ----------------------------------------

func ListLocationAdminsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		locationID := c.Params("id")

		var users []models.User
		if err := database.DB.
			Where("location_id = ? AND role = ?", locationID, models.RoleLocationAdmin).
			Order("created_at DESC").
			Find(&users).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Adminler listelenemedi")
		}

		res := make([]LocationAdminResponse, 0, len(users))
		for _, u := range users {
			res = append(res, LocationAdminResponse{
				ID:         u.ID,
				Name:       u.Name,
				Email:      u.Email,
				Role:       string(u.Role),
				LocationID: u.LocationID,
				CreatedAt:  u.CreatedAt.Format("2006-01-02 15:04:05"),
				UpdatedAt:  u.UpdatedAt.Format("2006-01-02 15:04:05"),
			})
		}

		return c.JSON(res)
	}
}
