package proxy

import (
	"net/url"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fastjson"

	"github.com/gqlgate/gqlgate/internal/config"
	"github.com/gqlgate/gqlgate/internal/mid"
	"github.com/gqlgate/gqlgate/internal/platform/denylist"
	"github.com/gqlgate/gqlgate/internal/platform/metrics"
	"github.com/gqlgate/gqlgate/internal/platform/web"
	"github.com/gqlgate/gqlgate/pkg/gqlgate"
)

func Handlers(cfg *config.GatewayMode, operationProxy gqlgate.Proxy, shutdown chan os.Signal, logger zerolog.Logger, deniedTokens *denylist.DeniedTokens, m metrics.Metrics) (fasthttp.RequestHandler, error) {

	denylistOptions := mid.DenylistOptions{
		Config:                &cfg.Denylist,
		CustomBlockStatusCode: fasthttp.StatusUnauthorized,
		DeniedTokens:          deniedTokens,
		Logger:                logger,
	}

	// Construct the web.App which holds all routes as well as common Middleware.
	app := web.NewApp(shutdown, logger, mid.Logger(logger), mid.Errors(logger), mid.Panics(logger), mid.Denylist(&denylistOptions))

	// define FastJSON parsers pool
	var parserPool fastjson.ParserPool

	s := Handler{
		cfg:        cfg,
		proxy:      operationProxy,
		logger:     logger,
		parserPool: &parserPool,
		metrics:    m,
	}

	// use API Host env var to take path
	apiHost, err := url.ParseRequestURI(cfg.APIHost)
	if err != nil {
		return nil, errors.Wrap(err, "parsing API Host URL")
	}

	operationsPath := apiHost.Path
	if operationsPath == "" {
		operationsPath = "/"
	}

	app.Handle(fasthttp.MethodGet, operationsPath, s.OperationHandler)
	app.Handle(fasthttp.MethodPost, operationsPath, s.OperationHandler)

	return app.MainHandler, nil
}
