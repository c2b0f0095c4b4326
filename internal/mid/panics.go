package mid

import (
	"runtime/debug"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/gqlgate/gqlgate/internal/platform/web"
)

// Panics recovers from panics and converts the panic to an error so it is
// handled in Errors.
func Panics(logger zerolog.Logger) web.Middleware {

	// This is the actual middleware function to be executed.
	m := func(after web.Handler) web.Handler {

		// Create the handler that will be attached in the middleware chain.
		h := func(ctx *fasthttp.RequestCtx) (err error) {

			// Defer a function to recover from a panic and set the err return
			// variable after the fact.
			defer func() {
				if r := recover(); r != nil {
					err = errors.Errorf("panic: %v", r)

					// Log the Go stack trace for this panic'd goroutine.
					logger.Debug().Msgf("%s", debug.Stack())
				}
			}()

			// Call the next Handler and set its return value in the err variable.
			return after(ctx)
		}

		return h
	}

	return m
}
