package mid

import (
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/gqlgate/gqlgate/internal/config"
	"github.com/gqlgate/gqlgate/internal/platform/denylist"
	"github.com/gqlgate/gqlgate/internal/platform/web"
)

type DenylistOptions struct {
	Config                *config.Denylist
	CustomBlockStatusCode int
	DeniedTokens          *denylist.DeniedTokens
	Logger                zerolog.Logger
}

var errAccessDenied = errors.New("access denied")

// Denylist rejects requests carrying a revoked authorization token before
// they reach the resolution pipeline.
func Denylist(options *DenylistOptions) web.Middleware {

	// This is the actual middleware function to be executed.
	m := func(before web.Handler) web.Handler {

		// Create the handler that will be attached in the middleware chain.
		h := func(ctx *fasthttp.RequestCtx) error {

			// check existence and emptiness of the cache
			if options.DeniedTokens != nil && options.DeniedTokens.ElementsNum > 0 {

				headerName := options.Config.Tokens.HeaderName
				if headerName == "" {
					headerName = fasthttp.HeaderAuthorization
				}

				token := string(ctx.Request.Header.Peek(headerName))
				if options.Config.Tokens.TrimBearerPrefix {
					token = strings.TrimPrefix(token, "Bearer ")
				}

				if token != "" {
					if _, found := options.DeniedTokens.Cache.Get(token); found {
						options.Logger.Info().
							Interface("request_id", ctx.UserValue(web.RequestID)).
							Bytes("host", ctx.Request.Header.Host()).
							Bytes("path", ctx.Path()).
							Bytes("method", ctx.Request.Header.Method()).
							Msg("The request with a revoked token has been blocked")

						ctx.Response.SetStatusCode(options.CustomBlockStatusCode)
						return web.RespondOperationError(ctx, options.CustomBlockStatusCode, errAccessDenied)
					}
				}
			}

			err := before(ctx)

			// Return the error, so it can be handled further up the chain.
			return err
		}

		return h
	}

	return m
}
