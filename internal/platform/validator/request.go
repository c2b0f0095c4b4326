package validator

import (
	"encoding/json"
	"strings"

	"github.com/savsgio/gotils/strconv"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fastjson"

	"github.com/gqlgate/gqlgate/internal/platform/operations"
)

var getNameArgs = []string{"op", "operation", "query"}

var postNameKeys = []string{"op", "operation", "operationName", "query"}

var variablesKeys = []string{"v", "variables"}

// ParseOperationRequest extracts the operation name and variables from an
// inbound GET or POST request.
//
// GET carries the name in the op query parameter (aliases: operation, query)
// and variables in v (alias: variables) as a JSON-encoded string. POST carries
// a JSON body with the same aliases plus operationName. Parse failures come
// back as ValidationError.
func ParseOperationRequest(ctx *fasthttp.RequestCtx, parserPool *fastjson.ParserPool) (string, map[string]interface{}, error) {

	switch strconv.B2S(ctx.Method()) {
	case fasthttp.MethodGet:
		return parseGetRequest(ctx)
	case fasthttp.MethodPost:
		return parsePostRequest(ctx, parserPool)
	}

	return "", nil, operations.Invalid("unsupported method %s", strconv.B2S(ctx.Method()))
}

func parseGetRequest(ctx *fasthttp.RequestCtx) (string, map[string]interface{}, error) {

	args := ctx.Request.URI().QueryArgs()

	var name string
	for _, arg := range getNameArgs {
		if value := args.Peek(arg); len(value) > 0 {
			name = string(value)
			break
		}
	}
	if name == "" {
		return "", nil, operations.Invalid("operation name not found in the request")
	}

	var vars map[string]interface{}
	for _, arg := range variablesKeys {
		value := args.Peek(arg)
		if len(value) == 0 {
			continue
		}
		if err := json.Unmarshal(value, &vars); err != nil {
			return "", nil, operations.Invalid("can't parse the variables value: %v", err)
		}
		break
	}

	return name, vars, nil
}

func parsePostRequest(ctx *fasthttp.RequestCtx, parserPool *fastjson.ParserPool) (string, map[string]interface{}, error) {

	contentType := strconv.B2S(ctx.Request.Header.ContentType())
	if !strings.HasPrefix(contentType, "application/json") {
		return "", nil, operations.Invalid("unsupported content type %q", contentType)
	}

	parser := parserPool.Get()
	defer parserPool.Put(parser)

	body, err := parser.ParseBytes(ctx.Request.Body())
	if err != nil {
		return "", nil, operations.Invalid("can't parse the request body: %v", err)
	}

	var name string
	for _, key := range postNameKeys {
		value := body.GetStringBytes(key)
		if len(value) > 0 {
			name = string(value)
			break
		}
	}
	if name == "" {
		return "", nil, operations.Invalid("operation name not found in the request")
	}

	var vars map[string]interface{}
	for _, key := range variablesKeys {
		value := body.Get(key)
		if value == nil || value.Type() == fastjson.TypeNull {
			continue
		}
		if value.Type() != fastjson.TypeObject {
			return "", nil, operations.Invalid("variables must be a JSON object")
		}
		if err := json.Unmarshal(value.MarshalTo(nil), &vars); err != nil {
			return "", nil, operations.Invalid("can't parse the variables value: %v", err)
		}
		break
	}

	return name, vars, nil
}
