package services

import (
	"context"
	"fmt"

	"rentbook-backend/models"
	"rentbook-backend/rental"
	"rentbook-backend/repository"
	"rentbook-backend/utils"
)

// CatalogService manages properties, units and add-ons of a tenant.
type CatalogService struct {
	env Env
}

func NewCatalogService(env Env) *CatalogService {
	return &CatalogService{env: env.withDefaults()}
}

type UnitPatch struct {
	Code          *string             `json:"code"`
	Name          *string             `json:"name"`
	PricingMode   *models.PricingMode `json:"pricing_mode"`
	BasePrice     *float64            `json:"base_price"`
	DepositAmount *float64            `json:"deposit_amount"`
	Status        *models.UnitStatus  `json:"status"`
}

type AddOnPatch struct {
	Name        *string            `json:"name"`
	Description *string            `json:"description"`
	Price       *float64           `json:"price"`
	ChargeType  *models.ChargeType `json:"charge_type"`
	IsActive    *bool              `json:"is_active"`
}

func requireTenant(scope rental.Scope) error {
	if scope.TenantID == 0 {
		return rental.Validation("tenant context required")
	}
	return nil
}

func (s *CatalogService) CreateProperty(ctx context.Context, scope rental.Scope, p models.Property) (*models.Property, error) {
	if err := requireTenant(scope); err != nil {
		return nil, err
	}
	switch p.Type {
	case models.PropertyHouse, models.PropertyKos, models.PropertyCar:
	default:
		return nil, rental.Validation("unknown property type %q", p.Type)
	}
	p.ID = 0
	p.TenantID = scope.TenantID
	err := s.env.Store.Atomic(ctx, func(tx repository.Tx) error {
		if err := tx.CreateProperty(ctx, &p); err != nil {
			return err
		}
		return recordActivity(ctx, tx, scope, p.TenantID, "create", "property", p.ID,
			fmt.Sprintf("created property %s", p.Name), p)
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *CatalogService) ListProperties(ctx context.Context, scope rental.Scope) ([]models.Property, error) {
	var out []models.Property
	err := s.env.Store.Atomic(ctx, func(tx repository.Tx) error {
		var err error
		out, err = tx.ListProperties(ctx, scope)
		return err
	})
	return out, err
}

func validateUnit(u *models.Unit) error {
	if !u.PricingMode.Valid() {
		return rental.Validation("unknown pricing mode %q", u.PricingMode)
	}
	switch u.Status {
	case models.UnitAvailable, models.UnitMaintenance, models.UnitInactive:
	default:
		return rental.Validation("unknown unit status %q", u.Status)
	}
	if u.BasePrice < 0 || u.DepositAmount < 0 {
		return rental.Validation("prices must not be negative")
	}
	return nil
}

func (s *CatalogService) CreateUnit(ctx context.Context, scope rental.Scope, u models.Unit) (*models.Unit, error) {
	if err := requireTenant(scope); err != nil {
		return nil, err
	}
	if u.Status == "" {
		u.Status = models.UnitAvailable
	}
	if err := validateUnit(&u); err != nil {
		return nil, err
	}
	u.ID = 0
	u.TenantID = scope.TenantID
	err := s.env.Store.Atomic(ctx, func(tx repository.Tx) error {
		if _, err := tx.GetProperty(ctx, scope, u.PropertyID); err != nil {
			return err
		}
		if err := tx.CreateUnit(ctx, &u); err != nil {
			return err
		}
		return recordActivity(ctx, tx, scope, u.TenantID, "create", "unit", u.ID,
			fmt.Sprintf("created unit %s", u.Name), u)
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *CatalogService) ListUnits(ctx context.Context, scope rental.Scope, propertyID uint) ([]models.Unit, error) {
	var out []models.Unit
	err := s.env.Store.Atomic(ctx, func(tx repository.Tx) error {
		var err error
		out, err = tx.ListUnits(ctx, scope, propertyID)
		return err
	})
	return out, err
}

// UpdateUnit applies the non-nil fields of patch.
func (s *CatalogService) UpdateUnit(ctx context.Context, scope rental.Scope, id uint, patch UnitPatch) (*models.Unit, error) {
	utils.NormalizePtrDTO(&patch)
	var unit *models.Unit
	err := s.env.Store.Atomic(ctx, func(tx repository.Tx) error {
		u, err := tx.GetUnit(ctx, scope, id, true)
		if err != nil {
			return err
		}
		if patch.Code != nil {
			u.Code = *patch.Code
		}
		if patch.Name != nil {
			u.Name = *patch.Name
		}
		if patch.PricingMode != nil {
			u.PricingMode = *patch.PricingMode
		}
		if patch.BasePrice != nil {
			u.BasePrice = *patch.BasePrice
		}
		if patch.DepositAmount != nil {
			u.DepositAmount = *patch.DepositAmount
		}
		if patch.Status != nil {
			u.Status = *patch.Status
		}
		if err := validateUnit(u); err != nil {
			return err
		}
		if err := tx.SaveUnit(ctx, u); err != nil {
			return err
		}
		unit = u
		return recordActivity(ctx, tx, scope, u.TenantID, "update", "unit", u.ID,
			fmt.Sprintf("updated unit %s", u.Name), utils.UpdatesFromPtrDTO(&patch))
	})
	return unit, err
}

func validateAddOn(a *models.AddOn) error {
	if !a.ChargeType.Valid() {
		return rental.Validation("unknown charge type %q", a.ChargeType)
	}
	if a.Price < 0 {
		return rental.Validation("price must not be negative")
	}
	return nil
}

func (s *CatalogService) CreateAddOn(ctx context.Context, scope rental.Scope, a models.AddOn) (*models.AddOn, error) {
	if err := requireTenant(scope); err != nil {
		return nil, err
	}
	if err := validateAddOn(&a); err != nil {
		return nil, err
	}
	a.ID = 0
	a.TenantID = scope.TenantID
	err := s.env.Store.Atomic(ctx, func(tx repository.Tx) error {
		if err := tx.CreateAddOn(ctx, &a); err != nil {
			return err
		}
		return recordActivity(ctx, tx, scope, a.TenantID, "create", "add_on", a.ID,
			fmt.Sprintf("created add-on %s", a.Name), a)
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *CatalogService) ListAddOns(ctx context.Context, scope rental.Scope, activeOnly bool) ([]models.AddOn, error) {
	var out []models.AddOn
	err := s.env.Store.Atomic(ctx, func(tx repository.Tx) error {
		var err error
		out, err = tx.ListAddOns(ctx, scope, activeOnly)
		return err
	})
	return out, err
}

// UpdateAddOn edits the catalog entry; existing bookings keep their
// snapshots.
func (s *CatalogService) UpdateAddOn(ctx context.Context, scope rental.Scope, id uint, patch AddOnPatch) (*models.AddOn, error) {
	utils.NormalizePtrDTO(&patch)
	var addOn *models.AddOn
	err := s.env.Store.Atomic(ctx, func(tx repository.Tx) error {
		a, err := tx.GetAddOn(ctx, scope, id)
		if err != nil {
			return err
		}
		if patch.Name != nil {
			a.Name = *patch.Name
		}
		if patch.Description != nil {
			a.Description = *patch.Description
		}
		if patch.Price != nil {
			a.Price = *patch.Price
		}
		if patch.ChargeType != nil {
			a.ChargeType = *patch.ChargeType
		}
		if patch.IsActive != nil {
			a.IsActive = *patch.IsActive
		}
		if err := validateAddOn(a); err != nil {
			return err
		}
		if err := tx.SaveAddOn(ctx, a); err != nil {
			return err
		}
		addOn = a
		return recordActivity(ctx, tx, scope, a.TenantID, "update", "add_on", a.ID,
			fmt.Sprintf("updated add-on %s", a.Name), utils.UpdatesFromPtrDTO(&patch))
	})
	return addOn, err
}
