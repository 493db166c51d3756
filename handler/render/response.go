package render

import (
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"strings"
)

// ResponseErrorMessageAsHint internal error msg as hint
var ResponseErrorMessageAsHint bool

func init() {
	v := os.Getenv("RESPONSE_ERROR_MESSAGE_AS_HINT")
	ResponseErrorMessageAsHint, _ = strconv.ParseBool(v)
}

type wrapResponse struct {
	status int
	header http.Header
	buf    *bytes.Buffer
}

func (w *wrapResponse) Header() http.Header {
	return w.header
}

func (w *wrapResponse) WriteHeader(statusCode int) {
	w.status = statusCode
}

func (w *wrapResponse) Write(data []byte) (int, error) {
	return w.buf.Write(data)
}

func (w *wrapResponse) isJSONContent() bool {
	typ := w.header.Get("Content-Type")
	return strings.HasPrefix(typ, "application/json")
}

type dataResponse struct {
	Data json.RawMessage `json:"data,omitempty"`
}

type errorResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Hint string `json:"hint,omitempty"`
}

// WrapResponse nests successful json bodies under "data"; error bodies are
// passed through, without their hint unless hint is set
func WrapResponse(hint bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			wr := &wrapResponse{
				status: http.StatusOK,
				header: w.Header(),
				buf:    &bytes.Buffer{},
			}

			next.ServeHTTP(wr, r)

			body := wr.buf.Bytes()
			if wr.isJSONContent() {
				if wr.status < http.StatusBadRequest {
					if data, err := json.Marshal(dataResponse{Data: body}); err == nil {
						body = data
					}
				} else if !hint {
					var resp errorResponse
					if err := json.Unmarshal(body, &resp); err == nil {
						resp.Hint = ""
						body, _ = json.Marshal(resp)
					}
				}
			}

			w.WriteHeader(wr.status)
			_, _ = w.Write(body)
		}

		return http.HandlerFunc(fn)
	}
}
