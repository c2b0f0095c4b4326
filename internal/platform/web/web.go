package web

import (
	"os"
	"runtime/debug"
	"syscall"

	"github.com/fasthttp/router"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

const (
	// RequestID is the user-value key of the per-request id.
	RequestID = "__gqlgate_request_id"

	// OperationName is set by the handler once the operation is known so the
	// middleware chain can log it.
	OperationName = "__gqlgate_operation"
)

// Handler is the signature all application handlers and middleware operate
// on. Returned errors propagate up the middleware chain.
type Handler func(ctx *fasthttp.RequestCtx) error

// App is the entrypoint into our application and what configures our context
// object for each of our http handlers.
type App struct {
	Router   *router.Router
	Log      zerolog.Logger
	shutdown chan os.Signal
	mw       []Middleware
}

// NewApp creates an App value that handles a set of routes for the
// application.
func NewApp(shutdown chan os.Signal, logger zerolog.Logger, mw ...Middleware) *App {
	return &App{
		Router:   router.New(),
		shutdown: shutdown,
		mw:       mw,
		Log:      logger,
	}
}

// Handle mounts a Handler for a given HTTP verb and path pair wrapped with
// the handler-specific and application-wide middleware.
func (a *App) Handle(method string, path string, handler Handler, mw ...Middleware) {

	// First wrap handler specific middleware around this handler.
	handler = WrapMiddleware(mw, handler)

	// Add the application's general middleware to the handler chain.
	handler = WrapMiddleware(a.mw, handler)

	h := func(ctx *fasthttp.RequestCtx) {
		if err := handler(ctx); err != nil {
			a.SignalShutdown()
		}
	}

	a.Router.Handle(method, path, h)
}

// MainHandler tags the request with an id and routes it.
func (a *App) MainHandler(ctx *fasthttp.RequestCtx) {

	// handle panic
	defer func() {
		if r := recover(); r != nil {
			a.Log.Error().Msgf("panic: %v", r)

			// Log the Go stack trace for this panic'd goroutine.
			a.Log.Debug().Msgf("%s", debug.Stack())
		}
	}()

	ctx.SetUserValue(RequestID, uuid.NewString())

	a.Router.Handler(ctx)
}

// SignalShutdown is used to gracefully shutdown the app when an integrity
// issue is identified.
func (a *App) SignalShutdown() {
	a.shutdown <- syscall.SIGTERM
}
