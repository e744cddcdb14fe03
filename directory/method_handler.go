package directory

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	xerrors "github.com/tunaoezer/Intercom/errors"
)

// MethodFunc implements the logic of a callable or publishable method. It
// receives the request and its arguments, and returns zero or more result
// values or an error.
//
// Return a *MethodError to attach a JSON-serializable details payload to
// the error reported to the caller; any other error is reported using its
// Error() text with no details.
type MethodFunc func(request *Request, arguments []interface{}) ([]interface{}, error)

// MethodError is a structured error a MethodFunc can return to attach
// application-specific details alongside a description.
type MethodError struct {
	Description string
	Details     interface{}
}

func (e *MethodError) Error() string { return e.Description }

// MethodHandler adapts a MethodFunc into a directory Handler, optionally
// enforcing a fixed argument count and a JSON schema over the arguments
// before invoking the function.
type MethodHandler struct {
	BaseHandler
	fn     MethodFunc
	arity  int // -1 means any arity is accepted.
	schema *gojsonschema.Schema
}

// MethodOption configures a MethodHandler at construction time.
type MethodOption func(*MethodHandler)

// WithArity requires exactly n arguments. Requests with a different
// argument count fail with ErrInvalidArgumentCount without invoking fn.
func WithArity(n int) MethodOption {
	return func(h *MethodHandler) { h.arity = n }
}

// WithArgSchema validates the request arguments, treated as a JSON array,
// against schema before invoking fn.
func WithArgSchema(schema *gojsonschema.Schema) MethodOption {
	return func(h *MethodHandler) { h.schema = schema }
}

// NewMethodHandler constructs a regular (non catch-all) handler named name
// that invokes fn to process requests.
func NewMethodHandler(name string, fn MethodFunc, opts ...MethodOption) *MethodHandler {
	h := &MethodHandler{BaseHandler: NewBaseHandler(name), fn: fn, arity: -1}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *MethodHandler) Handle(request *Request) {
	args := request.Arguments()
	if h.arity >= 0 && len(args) != h.arity {
		request.Result().AddError(xerrors.ErrInvalidArgumentCount.Error(),
			fmt.Sprintf("expected %d arguments, got %d", h.arity, len(args)))
		return
	}
	if h.schema != nil {
		if valid, details := h.validate(args); !valid {
			request.Result().AddError(xerrors.ErrArgumentMismatch.Error(), details)
			return
		}
	}
	values, err := h.fn(request, args)
	if err != nil {
		if methodErr, ok := err.(*MethodError); ok {
			request.Result().AddError(methodErr.Description, methodErr.Details)
		} else {
			request.Result().AddError(err.Error(), nil)
		}
		return
	}
	for _, v := range values {
		request.Result().AddValue(v)
	}
}

// HandleCatchAll delegates to Handle; MethodHandler has no use for
// pathRemainder, since it is constructed as a regular, non catch-all
// handler and this is only reachable if a caller flips that with
// BaseHandler's catchAll field directly.
func (h *MethodHandler) HandleCatchAll(pathRemainder string, request *Request) {
	h.Handle(request)
}

func (h *MethodHandler) validate(args []interface{}) (bool, interface{}) {
	loaded := gojsonschema.NewGoLoader(args)
	result, err := h.schema.Validate(loaded)
	if err != nil {
		return false, err.Error()
	}
	if !result.Valid() {
		descriptions := make([]string, 0, len(result.Errors()))
		for _, resultError := range result.Errors() {
			descriptions = append(descriptions, resultError.String())
		}
		return false, descriptions
	}
	return true, nil
}
