package oracle

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"cdp/core"
	"cdp/pkg/id"
	"cdp/pkg/resthttp"

	"github.com/fox-one/pkg/logger"
)

// RESTSource pulls tickers from an http price feed:
//
//	GET {endpoint}/prices/{collateral_type} -> {"data": PriceTicker}
type RESTSource struct {
	endpoint string
}

// NewREST new http price source
func NewREST(endpoint string) *RESTSource {
	return &RESTSource{endpoint: strings.TrimSuffix(endpoint, "/")}
}

// PullPriceTicker implements core.PriceSource
func (s *RESTSource) PullPriceTicker(ctx context.Context, collateralType string) (*core.PriceTicker, error) {
	var resp struct {
		Data *core.PriceTicker `json:"data"`
	}

	url := fmt.Sprintf("%s/prices/%s", s.endpoint, collateralType)
	request := resthttp.Request(ctx)
	if traceID, ok := id.TraceIDFromContext(ctx); ok {
		request = resthttp.WithRequestID(ctx, traceID)
	}

	code, err := resthttp.Execute(request, http.MethodGet, url, nil, &resp)
	if err != nil {
		logger.FromContext(ctx).WithError(err).WithField("code", code).Warnln("pull price ticker")
		return nil, fmt.Errorf("pull %s price: %v: %w", collateralType, err, core.ErrPriceUnavailable)
	}

	if resp.Data == nil || !resp.Data.Price.IsPositive() {
		return nil, fmt.Errorf("pull %s price: empty ticker: %w", collateralType, core.ErrPriceUnavailable)
	}

	if resp.Data.CollateralType == "" {
		resp.Data.CollateralType = collateralType
	}

	return resp.Data, nil
}
