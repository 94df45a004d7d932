package orderhttp

import (
	"errors"
	"log/slog"

	catalogapp "github.com/Apurer/marketplace-api/internal/domains/catalog/application"
	"github.com/Apurer/marketplace-api/internal/domains/orders/application"
	apierrors "github.com/Apurer/marketplace-api/internal/shared/errors"
)

// MapProblem translates order and catalog errors into problem documents.
func MapProblem(err error) (apierrors.ProblemDetail, bool) {
	var (
		validation  *application.ValidationError
		missing     *application.NotFoundError
		unavailable *application.SupplierUnavailableError
	)
	switch {
	case errors.Is(err, application.ErrNotSupplier):
		return apierrors.ErrNotSupplier.WithDetail("account does not own a shop"), true
	case errors.As(err, &validation):
		return apierrors.NewValidationProblem(err.Error(), validation.Reason, validation.Fields), true
	case errors.As(err, &missing):
		return apierrors.NewNotFoundProblem(missing.Resource, missing.ID), true
	case errors.Is(err, application.ErrNotFound):
		return apierrors.ErrNotFound.WithDetail(err.Error()), true
	case errors.As(err, &unavailable):
		return apierrors.NewSupplierUnavailableProblem(err.Error(), apierrors.UnavailableShop{
			ShopID:   unavailable.ShopID,
			ShopName: unavailable.ShopName,
			ItemID:   unavailable.ItemID,
			OfferID:  unavailable.OfferID,
		}), true
	case errors.Is(err, application.ErrEmptyCart):
		return apierrors.ErrEmptyCart.WithDetail(err.Error()), true
	case errors.Is(err, application.ErrNoPendingOrder):
		return apierrors.ErrNoPendingOrder.WithDetail(err.Error()), true
	case errors.Is(err, application.ErrContactInUse):
		return apierrors.ErrContactInUse.WithDetail(err.Error()), true
	case errors.Is(err, application.ErrIdempotencyConflict):
		return apierrors.ErrIdempotencyConflict.WithDetail(err.Error()), true
	case errors.Is(err, catalogapp.ErrInvalidInput):
		return apierrors.NewValidationProblem(err.Error(), "", nil), true
	}
	return apierrors.ProblemDetail{}, false
}

// NewResponder returns a problem responder that understands order errors.
func NewResponder(logger *slog.Logger) *apierrors.Responder {
	return apierrors.NewResponder("", logger, MapProblem)
}
