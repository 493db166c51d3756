package render

import (
	"encoding/json"
	"net/http"

	"cdp/core"
	"cdp/handler/codes"

	"github.com/sirupsen/logrus"
)

type H map[string]interface{}

// JSON render with json
func JSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Debugln("render json")
	}
}

// Text render with text
func Text(w http.ResponseWriter, t string) {
	w.Header().Set("Content-Type", "application/text")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(t)); err != nil {
		logrus.WithError(err).Debugln("render text")
	}
}

// Error write err with the status and code it maps to
func Error(w http.ResponseWriter, err error) {
	write(w, codes.Status(err), err)
}

// Unauthorized no or invalid access token
func Unauthorized(w http.ResponseWriter) {
	write(w, http.StatusUnauthorized, core.ErrAuthorization)
}

// BadRequest bad request error
func BadRequest(w http.ResponseWriter, err error) {
	write(w, http.StatusBadRequest, err)
}

// NotFoundRequest not found request error
func NotFoundRequest(w http.ResponseWriter, err error) {
	write(w, http.StatusNotFound, err)
}

func write(w http.ResponseWriter, statusCode int, err error) {
	code := codes.Get(err)
	resp := errorResponse{Code: int(code), Msg: code.Error()}
	if code == core.ErrUnknown && statusCode < http.StatusInternalServerError {
		resp.Msg = err.Error()
	}

	if ResponseErrorMessageAsHint {
		resp.Hint = err.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logrus.WithError(err).Debugln("render error")
	}
}
