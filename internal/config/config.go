package config

import (
	"time"

	"github.com/ardanlabs/conf"
)

// Init carries the settings every service of the gateway shares.
type Init struct {
	conf.Version
	LogLevel  string `conf:"default:INFO" validate:"oneof=TRACE DEBUG INFO ERROR WARNING"`
	LogFormat string `conf:"default:TEXT" validate:"oneof=TEXT JSON"`
}

// APIServer configures the client-facing listener.
type APIServer struct {
	APIHost            string        `conf:"default:http://0.0.0.0:8282,env:URL" validate:"required,url"`
	HealthAPIHost      string        `conf:"default:0.0.0.0:9667,env:HEALTH_HOST" validate:"required"`
	ReadTimeout        time.Duration `conf:"default:5s"`
	WriteTimeout       time.Duration `conf:"default:5s"`
	ReadBufferSize     int           `conf:"default:8192"`
	WriteBufferSize    int           `conf:"default:8192"`
	MaxRequestBodySize int           `conf:"default:4194304"`
	DisableKeepalive   bool          `conf:"default:false"`
	MaxConnsPerIP      int           `conf:"default:0"`
	MaxRequestsPerConn int           `conf:"default:0"`
}

// Backend configures the trusted upstream GraphQL endpoint and its client
// pool.
type Backend struct {
	URL                  string        `conf:"default:http://localhost:3000/graphql,env:UPSTREAM_URL" validate:"required,url"`
	HostHeader           string        `conf:""`
	ClientPoolCapacity   int           `conf:"default:1000" validate:"gt=0"`
	InsecureConnection   bool          `conf:"default:false"`
	RootCA               string        `conf:""`
	MaxConnsPerHost      int           `conf:"default:512"`
	ReadTimeout          time.Duration `conf:"default:5s"`
	WriteTimeout         time.Duration `conf:"default:5s"`
	DialTimeout          time.Duration `conf:"default:200ms"`
	ReadBufferSize       int           `conf:"default:8192"`
	WriteBufferSize      int           `conf:"default:8192"`
	MaxResponseBodySize  int           `conf:"default:0"`
	DeleteAcceptEncoding bool          `conf:"default:false"`
}

// Registry configures the pre-registered operation catalog.
type Registry struct {
	OperationsFile string `conf:"default:operations.yaml,env:OPERATIONS" validate:"required"`

	// SchemaCheck validates every non-overridden operation against the
	// upstream schema (fetched via introspection) during startup.
	SchemaCheck bool `conf:"default:false,env:SCHEMA_CHECK"`
}

// Cache configures the dedup/TTL response cache.
type Cache struct {
	// DefaultTTL applies to query operations without a behavior ttl. Zero
	// leaves them uncached.
	DefaultTTL time.Duration `conf:"default:0s,env:CACHE_DEFAULT_TTL"`

	MaxSize int64 `conf:"default:5000,env:CACHE_MAX_SIZE" validate:"gt=0"`

	// TrustedHeaderPrefix selects the vendor headers participating in cache
	// key derivation together with authorization.
	TrustedHeaderPrefix string `conf:"default:x-gqlgate-,env:CACHE_TRUSTED_HEADER_PREFIX"`

	// PassContentLength adds content-length to the response header
	// passthrough projection.
	PassContentLength bool `conf:"default:false"`
}

type Token struct {
	HeaderName       string `conf:""`
	TrimBearerPrefix bool   `conf:"default:true"`
	File             string `conf:""`
}

type Denylist struct {
	Tokens Token
}

type Metrics struct {
	Enabled      bool          `conf:"default:false,env:METRICS_ENABLED"`
	Host         string        `conf:"default:0.0.0.0:9010,env:METRICS_HOST" validate:"required"`
	EndpointName string        `conf:"default:metrics,env:METRICS_ENDPOINT_NAME"`
	ReadTimeout  time.Duration `conf:"default:5s"`
	WriteTimeout time.Duration `conf:"default:5s"`
}

type TLS struct {
	CertsPath string `conf:"default:certs"`
	CertFile  string `conf:"default:localhost.crt"`
	CertKey   string `conf:"default:localhost.key"`
}

// GatewayMode is the full configuration of the gqlgate service.
type GatewayMode struct {
	Init      `mapstructure:",squash"`
	APIServer `mapstructure:"Server"`
	TLS       TLS
	Registry  Registry
	Cache     Cache
	Denylist  Denylist
	Metrics   Metrics
	Server    Backend `mapstructure:"Backend"`
}
