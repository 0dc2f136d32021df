package controllers

import (
	"rentbook-backend/middlewares"
	"rentbook-backend/models"
	"rentbook-backend/repository"
	"rentbook-backend/services"
	"rentbook-backend/utils"

	"github.com/gofiber/fiber/v2"
)

type ReviewRequest struct {
	BookingID uint   `json:"booking_id" validate:"required"`
	Rating    int    `json:"rating" validate:"required,min=1,max=5"`
	Comment   string `json:"comment" validate:"required,max=2000"`
}

// CreateReview POST /reviews
func (a *API) CreateReview(c *fiber.Ctx) error {
	scope, err := middlewares.ScopeFrom(c)
	if err != nil {
		return err
	}
	var in ReviewRequest
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	review, err := a.Services.Reviews.CreateReview(c.UserContext(), scope, services.ReviewInput{
		BookingID: in.BookingID,
		Rating:    in.Rating,
		Comment:   in.Comment,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(review)
}

// ListReviews GET /reviews?property_id=&unit_id=&rating=
func (a *API) ListReviews(c *fiber.Ctx) error {
	scope, err := middlewares.ScopeFrom(c)
	if err != nil {
		return err
	}
	propertyID, err := queryID(c, "property_id")
	if err != nil {
		return err
	}
	unitID, err := queryID(c, "unit_id")
	if err != nil {
		return err
	}
	f := repository.ReviewFilter{
		PropertyID: propertyID,
		UnitID:     unitID,
		Rating:     utils.ParseIntDefault(c.Query("rating"), 0),
		Page:       utils.ParseIntDefault(c.Query("page"), 1),
		Limit:      utils.ParseIntDefault(c.Query("limit"), 20),
	}
	if f.Rating > 5 {
		return fiber.NewError(fiber.StatusBadRequest, "invalid rating")
	}

	page, err := a.Services.Reviews.ListReviews(c.UserContext(), scope, f)
	if err != nil {
		return err
	}
	if page.Reviews == nil {
		page.Reviews = []models.Review{}
	}
	return c.JSON(fiber.Map{
		"data":           page.Reviews,
		"total":          page.Total,
		"average_rating": page.AverageRating,
		"page":           f.Page,
		"limit":          f.Limit,
	})
}
