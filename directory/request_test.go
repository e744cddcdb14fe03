package directory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunaoezer/Intercom/uri"
)

func TestNewRequest_InfersTypeFromUri(t *testing.T) {
	u, err := uri.Parse("/rpc/method?type=call")
	require.NoError(t, err)
	r := NewRequest(u)
	assert.Equal(t, RequestCall, r.RequestType())

	u2, err := uri.Parse("/topic/updates?type=publish")
	require.NoError(t, err)
	r2 := NewRequest(u2)
	assert.Equal(t, RequestPublish, r2.RequestType())

	u3, err := uri.Parse("/unspecified")
	require.NoError(t, err)
	r3 := NewRequest(u3)
	assert.Equal(t, RequestUnspecified, r3.RequestType())
}

func TestRequest_ArgumentsAppendInOrder(t *testing.T) {
	u, err := uri.Parse("/x")
	require.NoError(t, err)
	r := NewRequest(u, "a", "b")
	r.AddArgument("c")
	r.AddArguments("d", "e")

	assert.Equal(t, []interface{}{"a", "b", "c", "d", "e"}, r.Arguments())
	assert.Equal(t, 5, r.NumArguments())
	assert.Nil(t, r.Argument(10))
}

func TestMakeRequestTypeParameter(t *testing.T) {
	assert.Equal(t, "type=call", MakeRequestTypeParameter(RequestCall))
	assert.Equal(t, "type=publish", MakeRequestTypeParameter(RequestPublish))
	assert.Equal(t, "", MakeRequestTypeParameter(RequestUnspecified))
}

func TestResult_OnlyFirstErrorMatters(t *testing.T) {
	r := NewResult()
	r.AddError("first", nil)
	r.AddError("second", nil)
	assert.True(t, r.HasErrors())
	assert.Equal(t, 2, r.NumErrors())
	assert.Equal(t, "first", r.Error(0).Description)
}
