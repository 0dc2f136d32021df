package database

import (
	"fmt"

	"rentbook-backend/models"

	"gorm.io/gorm"
)

// Migrate applies idempotent schema migrations:
// - AutoMigrate (tables/columns/index tags)
// - btree_gist + the no-overlap exclusion constraint on bookings
// - Basic CHECK constraints
func Migrate(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(
			&models.Tenant{},
			&models.User{},
			&models.Property{},
			&models.Unit{},
			&models.AddOn{},
			&models.Booking{},
			&models.BookingAddOn{},
			&models.Invoice{},
			&models.Payment{},
			&models.Setting{},
			&models.Sequence{},
			&models.ActivityLog{},
			&models.IdempotencyKey{},
			&models.Review{},
		); err != nil {
			return fmt.Errorf("automigrate failed: %w", err)
		}

		if err := tx.Exec(`CREATE EXTENSION IF NOT EXISTS btree_gist`).Error; err != nil {
			return fmt.Errorf("btree_gist extension failed: %w", err)
		}

		// Two bookings that hold a unit may never share an instant.
		overlap := `
DO $$
BEGIN
	IF NOT EXISTS (
		SELECT 1 FROM pg_constraint
		WHERE conrelid = 'bookings'::regclass
		  AND conname  = 'excl_bookings_unit_window'
	) THEN
		ALTER TABLE bookings
		ADD CONSTRAINT excl_bookings_unit_window
		EXCLUDE USING gist (
			unit_id WITH =,
			tstzrange(start_at, end_at, '[)') WITH &&
		) WHERE (status NOT IN ('canceled', 'draft'));
	END IF;
END $$;`
		if err := tx.Exec(overlap).Error; err != nil {
			return fmt.Errorf("exclusion constraint migration failed: %w", err)
		}

		checks := []struct{ table, name, expr string }{
			{"bookings", "chk_bookings_window", "end_at > start_at"},
			{"bookings", "chk_bookings_total_nonneg", "total_price >= 0"},
			{"units", "chk_units_base_price_nonneg", "base_price >= 0"},
			{"add_ons", "chk_add_ons_price_nonneg", "price >= 0"},
			{"invoices", "chk_invoices_total_nonneg", "total_amount >= 0"},
			{"invoices", "chk_invoices_paid_range", "paid_amount >= 0 AND paid_amount <= total_amount"},
			{"payments", "chk_payments_amount_positive", "amount > 0"},
			{"reviews", "chk_reviews_rating_range", "rating BETWEEN 1 AND 5"},
		}
		for _, c := range checks {
			stmt := fmt.Sprintf(`
DO $$
BEGIN
	IF NOT EXISTS (
		SELECT 1 FROM pg_constraint
		WHERE conrelid = '%[1]s'::regclass
		  AND conname  = '%[2]s'
	) THEN
		ALTER TABLE %[1]s ADD CONSTRAINT %[2]s CHECK (%[3]s);
	END IF;
END $$;`, c.table, c.name, c.expr)
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("check constraint %s failed: %w", c.name, err)
			}
		}

		indexes := []string{
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_invoices_booking_period ON invoices (booking_id, period_year, period_month) WHERE period_month IS NOT NULL AND status <> 'canceled'`,
			`CREATE INDEX IF NOT EXISTS idx_invoices_open_due ON invoices (due_date) WHERE status IN ('unpaid', 'partial')`,
		}
		for _, stmt := range indexes {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("index migration failed on: %s - %w", stmt, err)
			}
		}
		return nil
	})
}
