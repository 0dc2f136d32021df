package routes

import (
	"github.com/gofiber/fiber/v2"

	"rentbook-backend/controllers"
	"rentbook-backend/middlewares"
	"rentbook-backend/models"
	"rentbook-backend/repository"
)

// Register wires all HTTP routes.
func Register(app *fiber.App, api *controllers.API, store repository.Store) {
	r := app.Group("/api")

	// Public auth endpoints
	r.Post("/register", api.Register)
	r.Post("/login", api.Login)

	// Protected endpoints (JWT auth)
	protected := r.Group("")
	protected.Use(middlewares.IsAuthenticatedHeader())
	protected.Use(middlewares.TenantScope())

	// Idempotency guard runs after the scope so keys are per tenant
	protected.Use(middlewares.Idempotency(store))

	staff := middlewares.RequireRole(models.RoleOwner, models.RoleStaff, models.RoleSuperAdmin)
	owner := middlewares.RequireRole(models.RoleOwner, models.RoleSuperAdmin)
	customer := middlewares.RequireRole(models.RoleCustomer)

	// Users
	protected.Get("/me", api.Me)
	protected.Post("/users", staff, api.CreateUser)

	// Catalog
	protected.Get("/properties", api.ListProperties)
	protected.Post("/properties", staff, api.CreateProperty)
	protected.Get("/units", api.ListUnits)
	protected.Post("/units", staff, api.CreateUnit)
	protected.Put("/units/:id", staff, api.UpdateUnit)
	protected.Get("/add-ons", api.ListAddOns)
	protected.Post("/add-ons", staff, api.CreateAddOn)
	protected.Put("/add-ons/:id", staff, api.UpdateAddOn)

	// Availability and pricing
	protected.Get("/availability", api.CheckAvailability)
	protected.Post("/bookings/price", api.PriceBooking)

	// Bookings
	protected.Post("/bookings", api.CreateBooking)
	protected.Get("/bookings", api.ListBookings)
	protected.Get("/bookings/:id", api.GetBooking)
	protected.Put("/bookings/:id", staff, api.UpdateBooking)
	protected.Patch("/bookings/:id/status", api.ChangeBookingStatus)
	protected.Delete("/bookings/:id", api.CancelBooking)

	// Invoices
	protected.Post("/bookings/:id/invoices", staff, api.CreateInvoice)
	protected.Post("/bookings/:id/invoices/recurring", staff, api.GenerateRecurringInvoices)
	protected.Get("/invoices", api.ListInvoices)
	protected.Post("/invoices/mark-overdue", staff, api.MarkOverdue)
	protected.Get("/invoices/:id", api.GetInvoice)
	protected.Put("/invoices/:id/cancel", staff, api.CancelInvoice)
	protected.Get("/invoices/:id/payments", api.ListPayments)

	// Payments
	protected.Post("/payments", staff, api.RecordPayment)
	protected.Post("/payments/:id/refund", staff, api.RefundPayment)

	// Reviews
	protected.Post("/reviews", customer, api.CreateReview)
	protected.Get("/reviews", api.ListReviews)

	// Settings
	protected.Get("/settings", staff, api.GetSettings)
	protected.Put("/settings", owner, api.PutSettings)
}
