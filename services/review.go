package services

import (
	"context"
	"strings"

	"rentbook-backend/events"
	"rentbook-backend/models"
	"rentbook-backend/rental"
	"rentbook-backend/repository"
	"rentbook-backend/utils"
)

// ReviewService lets customers rate bookings they have finished.
type ReviewService struct {
	env Env
}

func NewReviewService(env Env) *ReviewService {
	return &ReviewService{env: env.withDefaults()}
}

type ReviewInput struct {
	BookingID uint
	Rating    int
	Comment   string
}

// ReviewPage is one page of approved reviews plus the mean rating over every
// review the filter matches.
type ReviewPage struct {
	Reviews       []models.Review
	Total         int64
	AverageRating float64
}

func (s *ReviewService) CreateReview(ctx context.Context, scope rental.Scope, in ReviewInput) (*models.Review, error) {
	if !scope.IsCustomer() {
		return nil, rental.Validation("only customers can review a booking")
	}
	if in.Rating < 1 || in.Rating > 5 {
		return nil, rental.Validation("rating must be between 1 and 5")
	}
	comment := strings.TrimSpace(in.Comment)
	if comment == "" {
		return nil, rental.Validation("comment is required")
	}

	var review *models.Review
	err := s.env.atomic(ctx, func(tx repository.Tx, _ *events.Batch) error {
		b, err := tx.GetBooking(ctx, scope, in.BookingID, false)
		if err != nil {
			return err
		}
		if b.Status != models.BookingCheckedOut && b.Status != models.BookingCompleted {
			return rental.InvalidState("booking %s is %s; only finished bookings can be reviewed", b.BookingNumber, b.Status)
		}
		review = &models.Review{
			TenantID:   b.TenantID,
			BookingID:  b.ID,
			PropertyID: b.PropertyID,
			UnitID:     b.UnitID,
			CustomerID: b.CustomerID,
			Rating:     in.Rating,
			Comment:    comment,
			IsApproved: true,
			CreatedAt:  s.env.now(),
		}
		if err := tx.CreateReview(ctx, review); err != nil {
			return err
		}
		return recordActivity(ctx, tx, scope, b.TenantID, "create_review", "review", review.ID,
			"Review for booking "+b.BookingNumber, map[string]any{"rating": in.Rating})
	})
	if err != nil {
		return nil, err
	}
	return review, nil
}

func (s *ReviewService) ListReviews(ctx context.Context, scope rental.Scope, f repository.ReviewFilter) (ReviewPage, error) {
	var page ReviewPage
	err := s.env.Store.Atomic(ctx, func(tx repository.Tx) error {
		var err error
		page.Reviews, page.Total, err = tx.ListReviews(ctx, scope, f)
		if err != nil || page.Total == 0 {
			return err
		}
		all := f
		all.Page, all.Limit = 1, 100
		var sum, seen int
		for int64(seen) < page.Total {
			rows, _, err := tx.ListReviews(ctx, scope, all)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				break
			}
			for _, r := range rows {
				sum += r.Rating
			}
			seen += len(rows)
			all.Page++
		}
		if seen == 0 {
			return nil
		}
		page.AverageRating = utils.Round2(float64(sum) / float64(seen))
		return nil
	})
	return page, err
}
