package api

import (
	"net/http"

	"github.com/rs/zerolog"
	"text2phenotype.com/ner/logger"
)

// RequestIDHeader names the header callers use to correlate a request with their own logs.
// Its value becomes the document tid when the posted document has none.
const RequestIDHeader = "X-Request-Id"

const RequestInfoFieldsKey = "request_info"

var apiLogger = logger.NewLogger("API")

func makeRequestLogger(request *http.Request) zerolog.Logger {
	info := zerolog.Dict().
		Str("method", request.Method).
		Str("url", request.URL.String()).
		Str("remote_addr", request.RemoteAddr).
		Int64("content_length", request.ContentLength)
	if id := request.Header.Get(RequestIDHeader); len(id) > 0 {
		info = info.Str("request_id", id)
	}
	return apiLogger.With().Dict(RequestInfoFieldsKey, info).Logger()
}
