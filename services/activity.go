package services

import (
	"context"
	"encoding/json"

	"rentbook-backend/models"
	"rentbook-backend/rental"
	"rentbook-backend/repository"

	"gorm.io/datatypes"
)

// recordActivity appends an audit entry in the caller's transaction.
func recordActivity(ctx context.Context, tx repository.Tx, scope rental.Scope, tenantID uint,
	action, entityType string, entityID uint, description string, details any) error {
	var raw datatypes.JSON
	if details != nil {
		b, err := json.Marshal(details)
		if err != nil {
			return err
		}
		raw = datatypes.JSON(b)
	}
	return tx.RecordActivity(ctx, &models.ActivityLog{
		TenantID:    tenantID,
		UserID:      scope.UserID,
		Action:      action,
		EntityType:  entityType,
		EntityID:    entityID,
		Description: description,
		Details:     raw,
	})
}
