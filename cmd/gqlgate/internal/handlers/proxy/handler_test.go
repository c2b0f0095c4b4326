package proxy

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fastjson"

	"github.com/gqlgate/gqlgate/internal/config"
	"github.com/gqlgate/gqlgate/internal/platform/dispatch"
	"github.com/gqlgate/gqlgate/internal/platform/headers"
	"github.com/gqlgate/gqlgate/internal/platform/metrics"
	"github.com/gqlgate/gqlgate/pkg/gqlgate"
)

func testHandler(t *testing.T, calls *int64) *Handler {
	t.Helper()

	catalog := []gqlgate.Descriptor{
		{Name: "getX", Kind: gqlgate.KindQuery, Query: "query getX($id: ID!) { x(id: $id) }"},
	}

	transport := func(ctx context.Context, body []byte, hdrs headers.Bundle) (*dispatch.Response, error) {
		atomic.AddInt64(calls, 1)
		return &dispatch.Response{
			Body:    json.RawMessage(`{"data":{"x":42}}`),
			Headers: headers.New("content-type", "application/json"),
		}, nil
	}

	operationProxy, err := gqlgate.New(catalog, transport)
	require.NoError(t, err)

	var parserPool fastjson.ParserPool

	return &Handler{
		cfg:        &config.GatewayMode{},
		proxy:      operationProxy,
		logger:     zerolog.Nop(),
		parserPool: &parserPool,
		metrics:    metrics.NewPrometheusMetrics(false),
	}
}

func TestOperationHandlerGet(t *testing.T) {

	var calls int64
	h := testHandler(t, &calls)

	ctx := new(fasthttp.RequestCtx)
	ctx.Request.Header.SetMethod(fasthttp.MethodGet)
	ctx.Request.SetRequestURI("/?op=getX&v=%7B%22id%22%3A1%7D")

	require.NoError(t, h.OperationHandler(ctx))

	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.JSONEq(t, `{"data":{"x":42}}`, string(ctx.Response.Body()))
	assert.Equal(t, "application/json", string(ctx.Response.Header.ContentType()))
	assert.Equal(t, int64(1), calls)
}

func TestOperationHandlerPost(t *testing.T) {

	var calls int64
	h := testHandler(t, &calls)

	ctx := new(fasthttp.RequestCtx)
	ctx.Request.Header.SetMethod(fasthttp.MethodPost)
	ctx.Request.SetRequestURI("/")
	ctx.Request.Header.SetContentType("application/json")
	ctx.Request.SetBodyString(`{"op":"getX","variables":{"id":1}}`)

	require.NoError(t, h.OperationHandler(ctx))

	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.JSONEq(t, `{"data":{"x":42}}`, string(ctx.Response.Body()))
	assert.Equal(t, int64(1), calls)
}

func TestOperationHandlerUnknownOperation(t *testing.T) {

	var calls int64
	h := testHandler(t, &calls)

	ctx := new(fasthttp.RequestCtx)
	ctx.Request.Header.SetMethod(fasthttp.MethodGet)
	ctx.Request.SetRequestURI("/?op=unknown")

	require.NoError(t, h.OperationHandler(ctx))

	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())

	var payload struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &payload))
	require.Len(t, payload.Errors, 1)
	assert.Contains(t, payload.Errors[0].Message, "unknown")
	assert.Equal(t, int64(0), calls, "unknown operations must never dispatch")
}

func TestOperationHandlerValidationFailure(t *testing.T) {

	var calls int64
	h := testHandler(t, &calls)

	require.NoError(t, h.proxy.AddValidation("getX", func(ctx context.Context, vars map[string]interface{}, op *gqlgate.Descriptor) error {
		return gqlgate.Invalid("id is required")
	}))

	ctx := new(fasthttp.RequestCtx)
	ctx.Request.Header.SetMethod(fasthttp.MethodGet)
	ctx.Request.SetRequestURI("/?op=getX")

	require.NoError(t, h.OperationHandler(ctx))

	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Body()), "id is required")
	assert.Equal(t, int64(0), calls)
}

func TestOperationHandlerBadRequestBody(t *testing.T) {

	var calls int64
	h := testHandler(t, &calls)

	ctx := new(fasthttp.RequestCtx)
	ctx.Request.Header.SetMethod(fasthttp.MethodPost)
	ctx.Request.SetRequestURI("/")
	ctx.Request.Header.SetContentType("application/json")
	ctx.Request.SetBodyString(`{broken`)

	require.NoError(t, h.OperationHandler(ctx))

	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
	assert.Equal(t, int64(0), calls)
}
