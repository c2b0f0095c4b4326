package proxy

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"path"
	"syscall"
	"time"

	"github.com/ardanlabs/conf"
	"github.com/go-playground/validator"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/valyala/fasthttp"

	"github.com/gqlgate/gqlgate/internal/config"
	"github.com/gqlgate/gqlgate/internal/platform/denylist"
	"github.com/gqlgate/gqlgate/internal/platform/dispatch"
	"github.com/gqlgate/gqlgate/internal/platform/headers"
	"github.com/gqlgate/gqlgate/internal/platform/metrics"
	"github.com/gqlgate/gqlgate/internal/platform/operations"
	"github.com/gqlgate/gqlgate/internal/platform/proxy"
	"github.com/gqlgate/gqlgate/internal/version"
	"github.com/gqlgate/gqlgate/pkg/gqlgate"
)

const (
	logPrefix = "main"

	initialPoolCapacity = 100
	livenessEndpoint    = "/v1/liveness"
	readinessEndpoint   = "/v1/readiness"

	schemaCheckTimeout = 30 * time.Second
)

func Run(logger zerolog.Logger) error {

	// =========================================================================
	// Configuration

	var cfg config.GatewayMode
	cfg.Version.SVN = version.Version
	cfg.Version.Desc = version.ProjectName

	if err := conf.Parse(os.Args[1:], version.Namespace, &cfg); err != nil {
		switch err {
		case conf.ErrHelpWanted:
			usage, err := conf.Usage(version.Namespace, &cfg)
			if err != nil {
				return errors.Wrap(err, "generating config usage")
			}
			fmt.Println(usage)
			return nil
		case conf.ErrVersionWanted:
			version, err := conf.VersionString(version.Namespace, &cfg)
			if err != nil {
				return errors.Wrap(err, "generating config version")
			}
			fmt.Println(version)
			return nil
		}
		return errors.Wrap(err, "parsing config")
	}

	// validate env parameter values
	validate := validator.New()

	if err := validate.Struct(cfg); err != nil {

		for _, err := range err.(validator.ValidationErrors) {
			switch err.Tag() {
			case "gt":
				return errors.Errorf("configuration validator error: parameter %s should be > %s. Actual value: %d", err.Field(), err.Param(), err.Value())
			case "url":
				return errors.Errorf("configuration validator error: parameter %s should be a string in URL format. Example: http://localhost:8080/; actual value: %s", err.Field(), err.Value())
			case "oneof":
				return errors.Errorf("configuration validator error: parameter %s should have one of the following value: %s; actual value: %s", err.Field(), err.Param(), err.Value())
			}
		}
		return errors.Wrap(err, "configuration validator error")
	}

	// load yaml conf
	viper.SetConfigName("gqlgate") // name of config file (without extension)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".") // optionally look for config in the working directory

	if err := viper.ReadInConfig(); err != nil {
		logger.Debug().Msgf("%s: yaml config file reading error: %v", logPrefix, err)
	}

	if err := viper.Unmarshal(&cfg); err != nil {
		logger.Debug().Msgf("%s: yaml config file reading error: %v", logPrefix, err)
	}

	// =========================================================================
	// Init Logger

	logger = config.NewLogger(&cfg.Init)

	// =========================================================================
	// App Starting

	logger.Info().Msgf("%s : Started : Application initializing : version %q", logPrefix, version.Version)
	defer logger.Info().Msgf("%s: Completed", logPrefix)

	out, err := conf.String(&cfg)
	if err != nil {
		return errors.Wrap(err, "generating config for output")
	}
	logger.Info().Msgf("%s: Configuration Loaded :\n%v\n", logPrefix, out)

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Make a channel to listen for errors coming from the listener. Use a
	// buffered channel so the goroutine can exit if we don't collect this error.
	serverErrors := make(chan error, 1)

	// =========================================================================
	// Init Operation Catalog

	descs, err := operations.LoadManifest(cfg.Registry.OperationsFile)
	if err != nil {
		return errors.Wrap(err, "loading operations manifest")
	}

	logger.Info().Msgf("%s: Loaded %d operations from %s", logPrefix, len(descs), cfg.Registry.OperationsFile)

	// =========================================================================
	// Init Proxy Pool

	serverURL, err := url.ParseRequestURI(cfg.Server.URL)
	if err != nil {
		return errors.Wrap(err, "parsing upstream URL")
	}
	host := serverURL.Host
	if serverURL.Port() == "" {
		switch serverURL.Scheme {
		case "https":
			host += ":443"
		case "http":
			host += ":80"
		}
	}

	initialCap := initialPoolCapacity

	if cfg.Server.ClientPoolCapacity < initialPoolCapacity {
		initialCap = 1
	}

	options := proxy.Options{
		InitialPoolCapacity: initialCap,
		ClientPoolCapacity:  cfg.Server.ClientPoolCapacity,
		InsecureConnection:  cfg.Server.InsecureConnection,
		RootCA:              cfg.Server.RootCA,
		MaxConnsPerHost:     cfg.Server.MaxConnsPerHost,
		ReadTimeout:         cfg.Server.ReadTimeout,
		WriteTimeout:        cfg.Server.WriteTimeout,
		DialTimeout:         cfg.Server.DialTimeout,
		ReadBufferSize:      cfg.Server.ReadBufferSize,
		WriteBufferSize:     cfg.Server.WriteBufferSize,
		MaxResponseBodySize: cfg.Server.MaxResponseBodySize,
	}

	pool, err := proxy.NewChanPool(host, &options)
	if err != nil {
		return errors.Wrap(err, "upstream pool init")
	}

	// =========================================================================
	// Init Metrics

	promMetrics := metrics.NewPrometheusMetrics(cfg.Metrics.Enabled)

	if cfg.Metrics.Enabled {
		go func() {
			serverErrors <- promMetrics.StartService(&logger, &metrics.Options{
				EndpointName: cfg.Metrics.EndpointName,
				Host:         cfg.Metrics.Host,
				ReadTimeout:  cfg.Metrics.ReadTimeout,
				WriteTimeout: cfg.Metrics.WriteTimeout,
			})
		}()
	}

	// =========================================================================
	// Init Operation Proxy

	transport := proxy.NewTransport(pool, &proxy.TransportOptions{
		UpstreamURL:          serverURL,
		HostHeader:           cfg.Server.HostHeader,
		DeleteAcceptEncoding: cfg.Server.DeleteAcceptEncoding,
	})

	// count every upstream round trip, cached or deduplicated calls never
	// reach this point
	countedTransport := func(ctx context.Context, body []byte, hdrs headers.Bundle) (*dispatch.Response, error) {
		promMetrics.IncUpstreamDispatch()
		return transport(ctx, body, hdrs)
	}

	proxyOptions := []gqlgate.Option{
		gqlgate.WithDefaultTTL(cfg.Cache.DefaultTTL),
		gqlgate.WithCacheSize(cfg.Cache.MaxSize),
		gqlgate.WithTrustedHeaderPrefix(cfg.Cache.TrustedHeaderPrefix),
		gqlgate.WithLogger(logger),
	}
	if cfg.Cache.PassContentLength {
		proxyOptions = append(proxyOptions, gqlgate.WithContentLengthPassthrough())
	}

	operationProxy, err := gqlgate.New(descs, countedTransport, proxyOptions...)
	if err != nil {
		return errors.Wrap(err, "operation proxy init")
	}

	// =========================================================================
	// Startup Schema Check

	if cfg.Registry.SchemaCheck {
		ctx, cancel := context.WithTimeout(context.Background(), schemaCheckTimeout)
		defer cancel()

		issues, err := operationProxy.ValidateOperations(ctx, gqlgate.Headers{})
		if err != nil {
			return errors.Wrap(err, "fetching upstream schema")
		}

		logger.Info().Msgf("%s: Schema check completed: %d operations with issues", logPrefix, len(issues))
	}

	// =========================================================================
	// Init Denylist Cache

	logger.Info().Msgf("%s: Initializing Denylist Cache", logPrefix)

	deniedTokens, err := denylist.New(&cfg.Denylist, logger)
	if err != nil {
		return errors.Wrap(err, "denylist init error")
	}

	switch deniedTokens {
	case nil:
		logger.Info().Msgf("%s: Denylist not configured", logPrefix)
	default:
		logger.Info().Msgf("%s: Loaded %d tokens to the cache", logPrefix, deniedTokens.ElementsNum)
	}

	// =========================================================================
	// Init ZeroLogger

	zeroLogger := &config.ZerologAdapter{Logger: logger}

	// =========================================================================
	// Init Handlers

	requestHandlers, err := Handlers(&cfg, operationProxy, shutdown, logger, deniedTokens, promMetrics)
	if err != nil {
		return errors.Wrap(err, "handlers init")
	}

	// =========================================================================
	// Start Health API Service

	healthData := Health{
		Logger: logger,
		Pool:   pool,
	}

	// health service handler
	healthHandler := func(ctx *fasthttp.RequestCtx) {
		switch string(ctx.Path()) {
		case livenessEndpoint:
			if err := healthData.Liveness(ctx); err != nil {
				healthData.Logger.Error().Msgf("%s: liveness: %s", logPrefix, err.Error())
			}
		case readinessEndpoint:
			if err := healthData.Readiness(ctx); err != nil {
				healthData.Logger.Error().Msgf("%s: readiness: %s", logPrefix, err.Error())
			}
		default:
			ctx.Error("Unsupported path", fasthttp.StatusNotFound)
		}
	}

	healthAPI := fasthttp.Server{
		Handler:               healthHandler,
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		Logger:                zeroLogger,
		NoDefaultServerHeader: true,
	}

	// Start the service listening for requests.
	go func() {
		logger.Info().Msgf("%s: Health API listening on %s", logPrefix, cfg.HealthAPIHost)
		serverErrors <- healthAPI.ListenAndServe(cfg.HealthAPIHost)
	}()

	// =========================================================================
	// Start API Service

	logger.Info().Msgf("%s: Initializing API support", logPrefix)

	apiHost, err := url.ParseRequestURI(cfg.APIHost)
	if err != nil {
		return errors.Wrap(err, "parsing API Host URL")
	}

	var isTLS bool

	switch apiHost.Scheme {
	case "http":
		isTLS = false
	case "https":
		isTLS = true
	}

	api := fasthttp.Server{
		Handler:            requestHandlers,
		ReadTimeout:        cfg.ReadTimeout,
		WriteTimeout:       cfg.WriteTimeout,
		ReadBufferSize:     cfg.ReadBufferSize,
		WriteBufferSize:    cfg.WriteBufferSize,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
		DisableKeepalive:   cfg.DisableKeepalive,
		MaxConnsPerIP:      cfg.MaxConnsPerIP,
		MaxRequestsPerConn: cfg.MaxRequestsPerConn,
		ErrorHandler: func(ctx *fasthttp.RequestCtx, err error) {
			logger.Error().
				Err(err).
				Msg("request processing error")

			ctx.Error("", fasthttp.StatusBadRequest)
		},
		Logger:                zeroLogger,
		NoDefaultServerHeader: true,
	}

	// Start the service listening for requests.
	go func() {
		logger.Info().Msgf("%s: API listening on %s", logPrefix, cfg.APIHost)
		switch isTLS {
		case false:
			serverErrors <- api.ListenAndServe(apiHost.Host)
		case true:
			serverErrors <- api.ListenAndServeTLS(apiHost.Host, path.Join(cfg.TLS.CertsPath, cfg.TLS.CertFile),
				path.Join(cfg.TLS.CertsPath, cfg.TLS.CertKey))
		}
	}()

	// =========================================================================
	// Shutdown

	// Blocking main and waiting for shutdown.
	select {
	case err := <-serverErrors:
		return errors.Wrap(err, "server error")

	case sig := <-shutdown:
		logger.Info().Msgf("%s: %v: Start shutdown", logPrefix, sig)

		// Asking listener to shutdown and shed load.
		if err := api.Shutdown(); err != nil {
			return errors.Wrap(err, "could not stop server gracefully")
		}
		logger.Info().Msgf("%s: %v: Completed shutdown", logPrefix, sig)

		// Close upstream client pool
		pool.Close()
	}

	return nil
}
