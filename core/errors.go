package core

import "strconv"

// ErrorCode int
type ErrorCode int

const (
	// ErrUnknown unkown
	ErrUnknown ErrorCode = 100000
	// ErrAuthorization caller lacks the required role or ownership
	ErrAuthorization ErrorCode = 100001
	// ErrInvalidAmount invalid amount
	ErrInvalidAmount ErrorCode = 100002
	// ErrInvalidParameter invalid risk parameter
	ErrInvalidParameter ErrorCode = 100003
	// ErrPaused vault operations are paused
	ErrPaused ErrorCode = 100004

	// ErrUnknownCollateral collateral type not registered
	ErrUnknownCollateral ErrorCode = 100100
	// ErrVaultNotFound no vault
	ErrVaultNotFound ErrorCode = 100101
	// ErrDebtLimitExceeded aggregate debt would exceed the debt limit
	ErrDebtLimitExceeded ErrorCode = 100102
	// ErrMinRatioViolation borrow or withdraw would breach the min collateral ratio
	ErrMinRatioViolation ErrorCode = 100103
	// ErrInsufficientDebt repay would drive base debt below zero
	ErrInsufficientDebt ErrorCode = 100104
	// ErrInsufficientCollateral withdraw would drive collateral below zero
	ErrInsufficientCollateral ErrorCode = 100105
	// ErrNotLiquidatable vault health factor is not below one
	ErrNotLiquidatable ErrorCode = 100106
	// ErrInsufficientCollateralForSeizure seizure exceeds vault collateral
	ErrInsufficientCollateralForSeizure ErrorCode = 100107
	// ErrIndexNotRefreshed debt touched before the accrual index was refreshed
	ErrIndexNotRefreshed ErrorCode = 100108
	// ErrLiquidationTooSmall partial liquidation would leave the vault
	// unhealthy with collateral remaining
	ErrLiquidationTooSmall ErrorCode = 100109

	// ErrPriceUnavailable valuation cannot price the collateral type
	ErrPriceUnavailable ErrorCode = 100200
	// ErrArithmeticOverflow fixed-point result out of range
	ErrArithmeticOverflow ErrorCode = 100201
	// ErrTransferFailed token collaborator rejected a transfer, mint or burn
	ErrTransferFailed ErrorCode = 100202
)

var errorMessages = map[ErrorCode]string{
	ErrUnknown:                          "unknown error",
	ErrAuthorization:                    "authorization error",
	ErrInvalidAmount:                    "invalid amount",
	ErrInvalidParameter:                 "invalid parameter",
	ErrPaused:                           "vault operations paused",
	ErrUnknownCollateral:                "unknown collateral",
	ErrVaultNotFound:                    "vault not found",
	ErrDebtLimitExceeded:                "debt limit exceeded",
	ErrMinRatioViolation:                "min collateral ratio violation",
	ErrInsufficientDebt:                 "insufficient debt",
	ErrInsufficientCollateral:           "insufficient collateral",
	ErrNotLiquidatable:                  "vault not liquidatable",
	ErrInsufficientCollateralForSeizure: "insufficient collateral for seizure",
	ErrIndexNotRefreshed:                "rate index not refreshed",
	ErrLiquidationTooSmall:              "liquidation leaves vault unhealthy",
	ErrPriceUnavailable:                 "price unavailable",
	ErrArithmeticOverflow:               "arithmetic overflow",
	ErrTransferFailed:                   "transfer failed",
}

func (e ErrorCode) String() string {
	return strconv.Itoa(int(e))
}

func (e ErrorCode) Error() string {
	if msg, ok := errorMessages[e]; ok {
		return msg
	}

	return e.String()
}

// Retryable reports whether the same call may succeed later without the
// caller changing anything (stale prices, transient transfer failures).
func (e ErrorCode) Retryable() bool {
	switch e {
	case ErrPriceUnavailable, ErrTransferFailed, ErrPaused:
		return true
	default:
		return false
	}
}
