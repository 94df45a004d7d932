package errors

import (
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// ContentTypeProblemJSON is the media type of every error response.
const ContentTypeProblemJSON = "application/problem+json"

// ErrorMapper translates an application error into a problem, reporting false when it does not apply.
type ErrorMapper func(err error) (ProblemDetail, bool)

// Responder writes problem documents. Errors no mapper recognizes are logged and
// answered with a generic 500 so internals do not leak to clients.
type Responder struct {
	baseURI string
	logger  *slog.Logger
	mappers []ErrorMapper
}

// NewResponder builds a responder; relative problem types are prefixed with baseURI.
func NewResponder(baseURI string, logger *slog.Logger, mappers ...ErrorMapper) *Responder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Responder{baseURI: baseURI, logger: logger, mappers: mappers}
}

// Respond writes the problem with its status and the problem+json content type.
func (r *Responder) Respond(c *gin.Context, problem ProblemDetail) {
	if r.baseURI != "" && len(problem.Type) > 0 && problem.Type[0] == '/' {
		problem.Type = r.baseURI + problem.Type
	}
	if problem.Instance == "" {
		problem.Instance = c.Request.URL.Path
	}
	c.Header("Content-Type", ContentTypeProblemJSON)
	c.JSON(problem.Status, problem)
}

// RespondError maps err through the configured mappers.
func (r *Responder) RespondError(c *gin.Context, err error) {
	var problem ProblemDetail
	if errors.As(err, &problem) {
		r.Respond(c, problem)
		return
	}
	for _, mapper := range r.mappers {
		if problem, ok := mapper(err); ok {
			r.Respond(c, problem)
			return
		}
	}
	r.logger.ErrorContext(c.Request.Context(), "unhandled request error",
		slog.String("http.method", c.Request.Method),
		slog.String("http.path", c.FullPath()),
		slog.String("error", err.Error()),
	)
	r.Respond(c, ErrInternal.WithDetail("unexpected error"))
}

// BadRequest reports a body or parameter that could not be decoded.
func (r *Responder) BadRequest(c *gin.Context, detail string) {
	r.Respond(c, ErrBadRequest.WithDetail(detail))
}

// Throttle answers 429 with a Retry-After header matching the problem extension.
func (r *Responder) Throttle(c *gin.Context, retryAfter time.Duration) {
	c.Header("Retry-After", strconv.Itoa(RetryAfterSeconds(retryAfter)))
	r.Respond(c, NewThrottledProblem(retryAfter))
}
