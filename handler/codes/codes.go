package codes

import (
	"errors"
	"net/http"

	"cdp/core"
)

// Get error code of err, ErrUnknown when err carries none
func Get(err error) core.ErrorCode {
	var code core.ErrorCode
	if errors.As(err, &code) {
		return code
	}

	return core.ErrUnknown
}

// Status http status for err
func Status(err error) int {
	switch Get(err) {
	case core.ErrUnknown, core.ErrArithmeticOverflow:
		return http.StatusInternalServerError
	case core.ErrAuthorization:
		return http.StatusForbidden
	case core.ErrInvalidAmount, core.ErrInvalidParameter:
		return http.StatusBadRequest
	case core.ErrUnknownCollateral, core.ErrVaultNotFound:
		return http.StatusNotFound
	case core.ErrIndexNotRefreshed:
		return http.StatusConflict
	case core.ErrPaused, core.ErrPriceUnavailable, core.ErrTransferFailed:
		return http.StatusServiceUnavailable
	default:
		return http.StatusUnprocessableEntity
	}
}
