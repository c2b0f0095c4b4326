package web

import (
	"github.com/savsgio/gotils/strconv"
	"github.com/valyala/fasthttp"

	"github.com/gqlgate/gqlgate/internal/platform/headers"
)

// RequestHeaders is the fasthttp conversion boundary into the core's header
// representation. Names are lower-cased by the bundle on insertion.
func RequestHeaders(ctx *fasthttp.RequestCtx) headers.Bundle {
	var b headers.Bundle
	ctx.Request.Header.VisitAll(func(key, value []byte) {
		b.Add(strconv.B2S(key), strconv.B2S(value))
	})

	// fasthttp keeps Host out of VisitAll; the sanitizer drops it again
	// before dispatch, it is only carried for logging and policy hooks.
	if host := ctx.Request.Header.Host(); len(host) > 0 {
		b.Add("host", strconv.B2S(host))
	}
	return b
}

// ApplyHeaders writes a projected header bundle to the outgoing response.
func ApplyHeaders(ctx *fasthttp.RequestCtx, b headers.Bundle) {
	b.Range(func(name, value string) {
		ctx.Response.Header.Add(name, value)
	})
}
