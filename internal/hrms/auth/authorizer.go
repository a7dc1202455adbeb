package auth

import (
	"context"
	"fmt"

	e "github.com/gartstein/hrms/internal/hrms/errors"
	"github.com/gartstein/hrms/internal/hrms/models"
)

// ReviewAuthorizer admits the manager assigned to a review and admins.
type ReviewAuthorizer struct{}

func (ReviewAuthorizer) AuthorizeManagerReview(ctx context.Context, review *models.PerformanceReview) error {
	sub := Subject(ctx)
	if sub == "" {
		return fmt.Errorf("%w: caller is not authenticated", e.ErrForbidden)
	}
	switch CallerRole(ctx) {
	case RoleAdmin:
		return nil
	case RoleManager:
		if sub == review.ManagerID {
			return nil
		}
		return fmt.Errorf("%w: %s is not the manager of review %s", e.ErrForbidden, sub, review.ID)
	default:
		return fmt.Errorf("%w: role %q may not review", e.ErrForbidden, CallerRole(ctx))
	}
}
