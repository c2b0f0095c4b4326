package proxy

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/valyala/fasthttp"
)

const defaultConcurrency = 1000

var (
	errInvalidCapacitySetting = errors.New("invalid capacity settings")
	errClosed                 = errors.New("chan closed")
)

// HTTPClient is the part of fasthttp.Client the transport needs.
type HTTPClient interface {
	Do(req *fasthttp.Request, resp *fasthttp.Response) error
}

// Pool hands out reusable upstream HTTP clients.
type Pool interface {
	// Get returns a client from the pool.
	Get() (HTTPClient, error)

	// Put returns the client to the pool.
	Put(HTTPClient) error

	// Close closes the pool. After Close() the pool is no longer usable.
	Close()
}

// Options configure the upstream client pool.
type Options struct {
	InitialPoolCapacity int
	ClientPoolCapacity  int
	InsecureConnection  bool
	RootCA              string
	MaxConnsPerHost     int

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	DialTimeout  time.Duration

	ReadBufferSize      int
	WriteBufferSize     int
	MaxResponseBodySize int
}

// chanPool implements Pool on top of a buffered channel of clients. When the
// channel is empty a fresh client is built; when it is full returned clients
// are discarded.
type chanPool struct {
	mutex   sync.RWMutex
	clients chan HTTPClient

	options  *Options
	connAddr string

	tlsConfig *tls.Config
}

func (p *chanPool) factory() HTTPClient {
	client := fasthttp.Client{
		NoDefaultUserAgentHeader:      true,
		DisableHeaderNamesNormalizing: true,
		DisablePathNormalizing:        true,
		Dial: func(addr string) (net.Conn, error) {
			tcpDialer := &fasthttp.TCPDialer{
				Concurrency: defaultConcurrency,
			}
			return tcpDialer.DialTimeout(p.connAddr, p.options.DialTimeout)
		},
		TLSConfig:           p.tlsConfig,
		MaxConnsPerHost:     p.options.MaxConnsPerHost,
		ReadTimeout:         p.options.ReadTimeout,
		WriteTimeout:        p.options.WriteTimeout,
		ReadBufferSize:      p.options.ReadBufferSize,
		WriteBufferSize:     p.options.WriteBufferSize,
		MaxResponseBodySize: p.options.MaxResponseBodySize,
	}

	return &client
}

// NewChanPool builds a pool of clients for the upstream host:port address.
func NewChanPool(hostAddr string, options *Options) (Pool, error) {

	if options.InitialPoolCapacity < 0 || options.ClientPoolCapacity <= 0 || options.InitialPoolCapacity > options.ClientPoolCapacity {
		return nil, errInvalidCapacitySetting
	}

	// Get the SystemCertPool, continue with an empty pool on error
	rootCAs, err := x509.SystemCertPool()
	if err != nil {
		return nil, err
	}

	if options.RootCA != "" {
		certs, err := os.ReadFile(options.RootCA)
		if err != nil {
			return nil, fmt.Errorf("failed to append %q to RootCAs: %v", options.RootCA, err)
		}

		if ok := rootCAs.AppendCertsFromPEM(certs); !ok {
			return nil, errors.New("no certs appended, using system certs only")
		}
	}

	pool := &chanPool{
		mutex:    sync.RWMutex{},
		clients:  make(chan HTTPClient, options.ClientPoolCapacity),
		options:  options,
		connAddr: hostAddr,
		tlsConfig: &tls.Config{
			InsecureSkipVerify: options.InsecureConnection,
			RootCAs:            rootCAs,
		},
	}

	for i := 0; i < options.InitialPoolCapacity; i++ {
		pool.clients <- pool.factory()
	}

	return pool, nil
}

// Close closes the pool.
func (p *chanPool) Close() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.clients == nil {
		return
	}

	close(p.clients)
	p.clients = nil
}

// Get returns a client from the pool or builds a fresh one when the pool has
// run dry.
func (p *chanPool) Get() (HTTPClient, error) {
	p.mutex.RLock()
	clients := p.clients
	p.mutex.RUnlock()

	if clients == nil {
		return nil, errClosed
	}

	select {
	case client := <-clients:
		if client == nil {
			return nil, errClosed
		}
		return client, nil
	default:
		return p.factory(), nil
	}
}

// Put returns a client to the pool. If the pool is full the client is
// dropped.
func (p *chanPool) Put(client HTTPClient) error {
	if client == nil {
		return errors.New("client is nil. rejecting")
	}

	p.mutex.RLock()
	defer p.mutex.RUnlock()

	if p.clients == nil {
		// pool is closed, discard the client
		return nil
	}

	select {
	case p.clients <- client:
		return nil
	default:
		return nil
	}
}
