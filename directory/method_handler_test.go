package directory

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xeipuuv/gojsonschema"
)

func TestMethodHandler_ReturnsValues(t *testing.T) {
	h := NewMethodHandler("add", func(_ *Request, args []interface{}) ([]interface{}, error) {
		a := args[0].(float64)
		b := args[1].(float64)
		return []interface{}{a + b}, nil
	})

	request := newTestRequest(t, "/add")
	request.AddArguments(float64(2), float64(3))
	h.Handle(request)

	assert.False(t, request.Result().HasErrors())
	assert.Equal(t, float64(5), request.Result().Value(0))
}

func TestMethodHandler_ArityMismatch(t *testing.T) {
	h := NewMethodHandler("add", func(_ *Request, args []interface{}) ([]interface{}, error) {
		return nil, nil
	}, WithArity(2))

	request := newTestRequest(t, "/add")
	request.AddArgument(float64(1))
	h.Handle(request)

	assert.True(t, request.Result().HasErrors())
	assert.Equal(t, "invalid number of method arguments", request.Result().Error(0).Description)
}

func TestMethodHandler_GenericErrorHasNoDetails(t *testing.T) {
	h := NewMethodHandler("fail", func(_ *Request, args []interface{}) ([]interface{}, error) {
		return nil, errors.New("boom")
	})

	request := newTestRequest(t, "/fail")
	h.Handle(request)

	require := assert.New(t)
	require.True(request.Result().HasErrors())
	require.Equal("boom", request.Result().Error(0).Description)
	require.Nil(request.Result().Error(0).Details)
}

func TestMethodHandler_MethodErrorCarriesDetails(t *testing.T) {
	h := NewMethodHandler("fail", func(_ *Request, args []interface{}) ([]interface{}, error) {
		return nil, &MethodError{Description: "not found", Details: map[string]interface{}{"id": "42"}}
	})

	request := newTestRequest(t, "/fail")
	h.Handle(request)

	err := request.Result().Error(0)
	assert.Equal(t, "not found", err.Description)
	assert.Equal(t, map[string]interface{}{"id": "42"}, err.Details)
}

func TestMethodHandler_ArgSchemaRejectsMismatch(t *testing.T) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(`{
		"type": "array",
		"items": [{"type": "string"}],
		"minItems": 1
	}`))
	assert.NoError(t, err)

	called := false
	h := NewMethodHandler("greet", func(_ *Request, args []interface{}) ([]interface{}, error) {
		called = true
		return nil, nil
	}, WithArgSchema(schema))

	request := newTestRequest(t, "/greet")
	request.AddArgument(float64(1))
	h.Handle(request)

	assert.True(t, request.Result().HasErrors())
	assert.Equal(t, "cannot call method with specified arguments", request.Result().Error(0).Description)
	assert.False(t, called)
}
