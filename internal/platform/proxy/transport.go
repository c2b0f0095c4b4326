package proxy

import (
	"context"
	"net/url"

	"github.com/pkg/errors"
	"github.com/valyala/fasthttp"

	"github.com/gqlgate/gqlgate/internal/platform/dispatch"
	"github.com/gqlgate/gqlgate/internal/platform/headers"
)

// TransportOptions configure the pooled upstream transport.
type TransportOptions struct {
	// UpstreamURL is the trusted GraphQL endpoint all dispatches go to.
	UpstreamURL *url.URL

	// HostHeader overrides the Host header sent upstream; defaults to the
	// upstream URL host.
	HostHeader string

	// DeleteAcceptEncoding strips the client Accept-Encoding header so the
	// upstream responds uncompressed.
	DeleteAcceptEncoding bool
}

// NewTransport builds the dispatch.Transport collaborator on top of the
// client pool. It performs exactly one upstream POST per call: no retries and
// no caching, those belong to the layers above. HTTP status interpretation is
// left to the caller; the upstream body and headers are passed through as-is.
func NewTransport(pool Pool, options *TransportOptions) dispatch.Transport {
	hostHeader := options.HostHeader
	if hostHeader == "" {
		hostHeader = options.UpstreamURL.Host
	}

	return func(ctx context.Context, body []byte, hdrs headers.Bundle) (*dispatch.Response, error) {
		client, err := pool.Get()
		if err != nil {
			return nil, errors.Wrap(err, "upstream client pool")
		}
		defer pool.Put(client)

		req := fasthttp.AcquireRequest()
		resp := fasthttp.AcquireResponse()
		defer fasthttp.ReleaseRequest(req)
		defer fasthttp.ReleaseResponse(resp)

		req.Header.SetMethod(fasthttp.MethodPost)
		req.SetRequestURI(options.UpstreamURL.String())

		hdrs.Range(func(name, value string) {
			req.Header.Add(name, value)
		})

		if options.DeleteAcceptEncoding {
			req.Header.Del(fasthttp.HeaderAcceptEncoding)
		}

		// Host comes from the upstream URL; the client-supplied value was
		// dropped by the header sanitizer. Content-Length is recomputed from
		// the body by fasthttp.
		req.Header.SetHost(hostHeader)
		req.URI().SetHost(options.UpstreamURL.Host)
		req.SetBody(body)

		if err := client.Do(req, resp); err != nil {
			return nil, errors.Wrap(err, "upstream request")
		}

		var respHeaders headers.Bundle
		resp.Header.VisitAll(func(key, value []byte) {
			respHeaders.Add(string(key), string(value))
		})

		// the response object goes back to fasthttp's pool, copy the body out
		respBody := append([]byte(nil), resp.Body()...)

		return &dispatch.Response{Body: respBody, Headers: respHeaders}, nil
	}
}
