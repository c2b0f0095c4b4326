package proxy

import (
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fastjson"

	"github.com/gqlgate/gqlgate/internal/config"
	"github.com/gqlgate/gqlgate/internal/platform/metrics"
	"github.com/gqlgate/gqlgate/internal/platform/validator"
	"github.com/gqlgate/gqlgate/internal/platform/web"
	"github.com/gqlgate/gqlgate/pkg/gqlgate"
)

var errInternal = errors.New("internal server error")

type Handler struct {
	cfg        *config.GatewayMode
	proxy      gqlgate.Proxy
	logger     zerolog.Logger
	parserPool *fastjson.ParserPool
	metrics    metrics.Metrics
}

// OperationHandler runs the whole resolution pipeline for one inbound
// request: parse, registry lookup, validate, override-or-dispatch, response
// shaping. Error classification happens here; the mid.Errors middleware is
// only a safety net for what escapes.
func (h *Handler) OperationHandler(ctx *fasthttp.RequestCtx) error {

	start := time.Now()

	name, vars, err := validator.ParseOperationRequest(ctx, h.parserPool)
	if err != nil {
		h.logger.Info().
			Err(err).
			Interface("request_id", ctx.UserValue(web.RequestID)).
			Str("client_address", ctx.RemoteAddr().String()).
			Msg("Request parsing error")

		h.metrics.IncErrorTypeCounter("request parsing", name)
		h.metrics.IncHTTPRequestStat(start, name, fasthttp.StatusBadRequest)
		return web.RespondOperationError(ctx, fasthttp.StatusBadRequest, err)
	}

	ctx.SetUserValue(web.OperationName, name)

	resp, err := h.proxy.Request(ctx, name, vars, web.RequestHeaders(ctx))
	if err != nil {
		switch {
		case gqlgate.IsNotFound(err):
			h.logger.Info().
				Err(err).
				Interface("request_id", ctx.UserValue(web.RequestID)).
				Str("operation", name).
				Msg("Unknown operation requested")

			h.metrics.IncErrorTypeCounter("operation not found", name)
			h.metrics.IncHTTPRequestStat(start, name, fasthttp.StatusNotFound)
			return web.RespondOperationError(ctx, fasthttp.StatusNotFound, err)

		case gqlgate.IsValidation(err):
			h.logger.Info().
				Err(err).
				Interface("request_id", ctx.UserValue(web.RequestID)).
				Str("operation", name).
				Msg("Operation variables rejected")

			h.metrics.IncErrorTypeCounter("validation", name)
			h.metrics.IncHTTPRequestStat(start, name, fasthttp.StatusBadRequest)
			return web.RespondOperationError(ctx, fasthttp.StatusBadRequest, err)

		default:
			h.logger.Error().
				Err(err).
				Interface("request_id", ctx.UserValue(web.RequestID)).
				Str("operation", name).
				Msg("Operation resolution error")

			h.metrics.IncErrorTypeCounter("internal", name)
			h.metrics.IncHTTPRequestStat(start, name, fasthttp.StatusInternalServerError)
			return web.RespondOperationError(ctx, fasthttp.StatusInternalServerError, errInternal)
		}
	}

	web.ApplyHeaders(ctx, resp.Headers)

	h.metrics.IncHTTPRequestStat(start, name, fasthttp.StatusOK)
	return web.Respond(ctx, resp.Body, fasthttp.StatusOK)
}
