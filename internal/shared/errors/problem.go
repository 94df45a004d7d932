// Package errors renders marketplace failures as RFC 7807 problem documents.
package errors

import (
	"fmt"
	"math"
	"net/http"
	"time"
)

// ProblemDetail is an RFC 7807 problem document.
// See: https://www.rfc-editor.org/rfc/rfc7807
type ProblemDetail struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
	// Extensions carries the ids a client needs to react, e.g. the refusing shop.
	Extensions map[string]any `json:"extensions,omitempty"`
}

func (p ProblemDetail) Error() string {
	if p.Detail != "" {
		return fmt.Sprintf("%s: %s", p.Title, p.Detail)
	}
	return p.Title
}

// WithDetail returns a copy with the given detail message.
func (p ProblemDetail) WithDetail(detail string) ProblemDetail {
	p.Detail = detail
	return p
}

// WithExtension returns a copy with an additional extension property.
func (p ProblemDetail) WithExtension(key string, value any) ProblemDetail {
	extensions := make(map[string]any, len(p.Extensions)+1)
	for k, v := range p.Extensions {
		extensions[k] = v
	}
	extensions[key] = value
	p.Extensions = extensions
	return p
}

// Problem type references. Clients branch on these, so they are part of the API.
const (
	TypeValidation          = "/problems/validation-error"
	TypeBadRequest          = "/problems/bad-request"
	TypeNotFound            = "/problems/not-found"
	TypeUnauthenticated     = "/problems/unauthenticated"
	TypeNotSupplier         = "/problems/not-a-supplier"
	TypeRateLimited         = "/problems/too-many-requests"
	TypeInternal            = "/problems/internal-error"
	TypeEmptyCart           = "/problems/empty-cart"
	TypeNoPendingOrder      = "/problems/no-pending-order"
	TypeSupplierUnavailable = "/problems/supplier-unavailable"
	TypeContactInUse        = "/problems/contact-in-use"
	TypeIdempotencyConflict = "/problems/idempotency-conflict"
)

var (
	ErrValidation = ProblemDetail{Type: TypeValidation, Title: "Validation Error", Status: http.StatusBadRequest}
	ErrBadRequest = ProblemDetail{Type: TypeBadRequest, Title: "Bad Request", Status: http.StatusBadRequest}
	ErrNotFound   = ProblemDetail{Type: TypeNotFound, Title: "Resource Not Found", Status: http.StatusNotFound}
	ErrInternal   = ProblemDetail{Type: TypeInternal, Title: "Internal Server Error", Status: http.StatusInternalServerError}

	ErrUnauthenticated = ProblemDetail{Type: TypeUnauthenticated, Title: "Unauthenticated", Status: http.StatusUnauthorized}
	ErrNotSupplier     = ProblemDetail{Type: TypeNotSupplier, Title: "Not a Supplier", Status: http.StatusForbidden}
	ErrTooManyRequests = ProblemDetail{Type: TypeRateLimited, Title: "Too Many Requests", Status: http.StatusTooManyRequests}

	ErrEmptyCart           = ProblemDetail{Type: TypeEmptyCart, Title: "Empty Cart", Status: http.StatusConflict}
	ErrNoPendingOrder      = ProblemDetail{Type: TypeNoPendingOrder, Title: "No Pending Order", Status: http.StatusConflict}
	ErrSupplierUnavailable = ProblemDetail{Type: TypeSupplierUnavailable, Title: "Supplier Unavailable", Status: http.StatusConflict}
	ErrContactInUse        = ProblemDetail{Type: TypeContactInUse, Title: "Contact In Use", Status: http.StatusConflict}
	ErrIdempotencyConflict = ProblemDetail{Type: TypeIdempotencyConflict, Title: "Idempotency Key Reused", Status: http.StatusConflict}
)

// NewValidationProblem reports rejected input; fields maps field names to messages.
func NewValidationProblem(detail, reason string, fields map[string]string) ProblemDetail {
	problem := ErrValidation.WithDetail(detail)
	if len(fields) > 0 {
		problem = problem.WithExtension("fields", fields)
	}
	if reason != "" {
		problem = problem.WithExtension("reason", reason)
	}
	return problem
}

// NewNotFoundProblem names the missing resource.
func NewNotFoundProblem(resourceType string, identifier any) ProblemDetail {
	return ErrNotFound.
		WithDetail(fmt.Sprintf("%s with identifier '%v' not found", resourceType, identifier)).
		WithExtension("resourceType", resourceType).
		WithExtension("identifier", identifier)
}

// NewUnauthenticatedProblem rejects a request whose identity header is missing or malformed.
func NewUnauthenticatedProblem(header, reason string) ProblemDetail {
	return ErrUnauthenticated.WithDetail(header + " " + reason).WithExtension("header", header)
}

// NewThrottledProblem tells the caller how long to wait before retrying.
func NewThrottledProblem(retryAfter time.Duration) ProblemDetail {
	return ErrTooManyRequests.
		WithDetail("request rate exceeded").
		WithExtension("retryAfterSeconds", RetryAfterSeconds(retryAfter))
}

// RetryAfterSeconds rounds up to whole seconds, never below one.
func RetryAfterSeconds(d time.Duration) int {
	seconds := int(math.Ceil(d.Seconds()))
	if seconds < 1 {
		return 1
	}
	return seconds
}

// UnavailableShop identifies the supplier that refused an add or a confirmation.
// ItemID is set for confirmations, OfferID for cart adds.
type UnavailableShop struct {
	ShopID   int64
	ShopName string
	ItemID   int64
	OfferID  int64
}

// NewSupplierUnavailableProblem carries the refusing shop and, when known, the item or offer.
func NewSupplierUnavailableProblem(detail string, shop UnavailableShop) ProblemDetail {
	problem := ErrSupplierUnavailable.WithDetail(detail).
		WithExtension("shopId", shop.ShopID).
		WithExtension("shopName", shop.ShopName)
	if shop.ItemID != 0 {
		problem = problem.WithExtension("itemId", shop.ItemID)
	}
	if shop.OfferID != 0 {
		problem = problem.WithExtension("offerId", shop.OfferID)
	}
	return problem
}
