package reviews

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/veoxhq/veox-backend/internal/offers"
	"github.com/veoxhq/veox-backend/internal/orders"
	dbpkg "github.com/veoxhq/veox-backend/pkg/db"
	"github.com/veoxhq/veox-backend/pkg/db/models"
	"github.com/veoxhq/veox-backend/pkg/enums"
	pkgerrors "github.com/veoxhq/veox-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service covers review creation and performer rating reads.
type Service interface {
	Create(ctx context.Context, reviewerID uuid.UUID, req CreateReviewRequest) (*ReviewDTO, error)
	ListForPerformer(ctx context.Context, performerID uuid.UUID, limit int) ([]ReviewDTO, error)
	RatingSummary(ctx context.Context, performerID uuid.UUID) (*RatingSummaryDTO, error)
}

type service struct {
	repo       Repository
	ordersRepo orders.Repository
	offersRepo offers.Repository
	tx         txRunner
}

// NewService builds the reviews service.
func NewService(repo Repository, ordersRepo orders.Repository, offersRepo offers.Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reviews repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if offersRepo == nil {
		return nil, fmt.Errorf("offers repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:       repo,
		ordersRepo: ordersRepo,
		offersRepo: offersRepo,
		tx:         tx,
	}, nil
}

// Create inserts the customer's review and completes the order in the same
// transaction.
func (s *service) Create(ctx context.Context, reviewerID uuid.UUID, req CreateReviewRequest) (*ReviewDTO, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}

	order, err := s.ordersRepo.FindByID(ctx, req.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if order.CustomerID != reviewerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the order's customer can leave a review")
	}
	if order.Status == enums.OrderStatusOpen {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "order has no accepted offer yet")
	}

	winner, err := s.offersRepo.FindAcceptedByOrder(ctx, req.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "order has no accepted offer yet")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load accepted offer")
	}

	exists, err := s.repo.ExistsForOrderAndReviewer(ctx, req.OrderID, reviewerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check existing review")
	}
	if exists {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "review already left for this order")
	}

	var comment *string
	if req.Comment != nil {
		trimmed := strings.TrimSpace(*req.Comment)
		if trimmed != "" {
			comment = &trimmed
		}
	}

	var created *models.Review
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		review, err := s.repo.WithTx(tx).Create(ctx, &models.Review{
			OrderID:    req.OrderID,
			ReviewerID: reviewerID,
			RevieweeID: winner.PerformerID,
			Rating:     req.Rating,
			Comment:    comment,
		})
		if err != nil {
			if dbpkg.IsUniqueViolation(err, "ux_reviews_order_reviewer") {
				return pkgerrors.New(pkgerrors.CodeConflict, "review already left for this order")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create review")
		}

		// Already-completed orders make this a no-op.
		if _, err := s.ordersRepo.WithTx(tx).CompleteFromReview(ctx, req.OrderID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "complete order")
		}

		created = review
		return nil
	})
	if err != nil {
		return nil, err
	}
	return fromModel(created), nil
}

func (s *service) ListForPerformer(ctx context.Context, performerID uuid.UUID, limit int) ([]ReviewDTO, error) {
	rows, err := s.repo.ListByReviewee(ctx, performerID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list reviews")
	}
	result := make([]ReviewDTO, 0, len(rows))
	for i := range rows {
		result = append(result, *fromModel(&rows[i]))
	}
	return result, nil
}

func (s *service) RatingSummary(ctx context.Context, performerID uuid.UUID) (*RatingSummaryDTO, error) {
	avg, count, err := s.repo.RatingSummary(ctx, performerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "aggregate rating")
	}
	return &RatingSummaryDTO{
		Rating: roundRating(avg),
		Count:  count,
	}, nil
}
