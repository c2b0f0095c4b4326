package web

import (
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
)

type graphqlError struct {
	Message string `json:"message"`
}

type graphqlErrorResponse struct {
	Errors []graphqlError `json:"errors"`
}

// Respond converts a Go value to JSON and sends it to the client. Byte and
// string payloads are assumed to be serialized already and are sent as-is.
func Respond(ctx *fasthttp.RequestCtx, data interface{}, statusCode int) error {
	// If there is nothing to marshal then set status code and return.
	if statusCode == http.StatusNoContent {
		ctx.SetStatusCode(statusCode)
		return nil
	}

	// Textual payloads are already serialized and go out as-is; the caller
	// owns their content-type. Anything else is marshaled to JSON.
	var body []byte
	switch v := data.(type) {
	case []byte:
		body = v
	case json.RawMessage:
		body = v
	case string:
		body = []byte(v)
	default:
		jsonData, err := json.Marshal(data)
		if err != nil {
			return err
		}
		body = jsonData
		ctx.SetContentType("application/json")
	}

	ctx.SetStatusCode(statusCode)

	if _, err := ctx.Write(body); err != nil {
		return err
	}

	return nil
}

// RespondError sends an empty error response back to the client.
func RespondError(ctx *fasthttp.RequestCtx, statusCode int, message string) error {
	ctx.Error(message, statusCode)
	return nil
}

// RespondOperationError sends a GraphQL-shaped error body so clients always
// receive the {"errors":[...]} envelope regardless of where the request
// failed.
func RespondOperationError(ctx *fasthttp.RequestCtx, statusCode int, err error) error {
	body, marshalErr := json.Marshal(graphqlErrorResponse{
		Errors: []graphqlError{{Message: err.Error()}},
	})
	if marshalErr != nil {
		return marshalErr
	}

	ctx.SetContentType("application/json")
	ctx.SetStatusCode(statusCode)

	if _, err := ctx.Write(body); err != nil {
		return err
	}

	return nil
}
