// Package audit yönetim ve veri girişi işlemlerinin izini tutar.
package audit

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"restoran-analytics/internal/auth"
	"restoran-analytics/internal/database"
	"restoran-analytics/internal/models"

	"github.com/gofiber/fiber/v2"
)

type LogOptions struct {
	LocationID  *uint
	UserID      uint
	UserName    string
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

func WriteLog(opts LogOptions) error {
	// PostgreSQL jsonb için boş string yerine "null" JSON string'i kullanmalıyız
	beforeStr := "null"
	afterStr := "null"

	if opts.Before != nil {
		if b, err := json.Marshal(opts.Before); err == nil {
			beforeStr = string(b)
		}
	}
	if opts.After != nil {
		if b, err := json.Marshal(opts.After); err == nil {
			afterStr = string(b)
		}
	}

	log := models.AuditLog{
		LocationID:  opts.LocationID,
		UserID:      opts.UserID,
		UserName:    opts.UserName,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  beforeStr,
		AfterData:   afterStr,
	}

	if err := database.DB.Create(&log).Error; err != nil {
		return fmt.Errorf("audit log kaydedilemedi: %w", err)
	}

	return nil
}

// Record isteği yapan kullanıcıyı ekleyip log yazar. Log yazılamazsa istek bozulmaz, sadece uyarı düşülür.
func Record(c *fiber.Ctx, opts LogOptions) {
	if opts.UserID == 0 {
		opts.UserID, _ = c.Locals(auth.CtxUserIDKey).(uint)
	}
	if opts.UserName == "" && opts.UserID != 0 {
		var user models.User
		if err := database.DB.Select("name").First(&user, opts.UserID).Error; err == nil {
			opts.UserName = user.Name
		}
	}

	if err := WriteLog(opts); err != nil {
		slog.Warn("audit log yazılamadı",
			"entity_type", opts.EntityType, "entity_id", opts.EntityID, "action", opts.Action, "error", err)
	}
}
