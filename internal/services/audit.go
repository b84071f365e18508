package services

import (
	"github.com/billfold/billfold/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// writeAudit appends an audit row inside the caller's transaction so the log
// entry lives or dies with the change it describes.
func writeAudit(tx *gorm.DB, userID uint, kind string, entity uuid.UUID, action, detail string) error {
	return tx.Create(&models.AuditLog{
		UserID:     userID,
		EntityKind: kind,
		EntityUUID: entity,
		Action:     action,
		Detail:     detail,
	}).Error
}
