package mid

import (
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/gqlgate/gqlgate/internal/platform/web"
)

// Errors handles errors coming out of the call chain. Handlers classify the
// request-resolution taxonomy themselves; whatever still escapes here is an
// unexpected internal failure.
func Errors(logger zerolog.Logger) web.Middleware {

	// This is the actual middleware function to be executed.
	m := func(before web.Handler) web.Handler {

		// Create the handler that will be attached in the middleware chain.
		h := func(ctx *fasthttp.RequestCtx) error {

			// Run the handler chain and catch any propagated error.
			if err := before(ctx); err != nil {

				logger.Error().
					Err(err).
					Interface("request_id", ctx.UserValue(web.RequestID)).
					Msg("Error in the request handler")

				if err := web.RespondError(ctx, fasthttp.StatusInternalServerError, ""); err != nil {
					return err
				}

				// If we receive the shutdown err we need to return it
				// back to the base handler to shutdown the service.
				if ok := web.IsShutdown(err); ok {
					return err
				}
			}

			// The error has been handled so we can stop propagating it.
			return nil
		}

		return h
	}

	return m
}
