package param

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"

	"cdp/core"
	"cdp/pkg/ray"

	"github.com/asaskevich/govalidator"
	"github.com/gorilla/schema"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

var decoder = schema.NewDecoder()

func init() {
	decoder.SetAliasTag("json")
	decoder.IgnoreUnknownKeys(true)
	decoder.RegisterConverter(decimal.Decimal{}, func(s string) reflect.Value {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return reflect.Value{}
		}

		return reflect.ValueOf(d)
	})
}

// Binding decodes the query of GET requests or the json body of the others
// into v, then checks its `valid` tags
func Binding(r *http.Request, v interface{}) error {
	if r.Method == http.MethodGet {
		if err := decoder.Decode(v, r.URL.Query()); err != nil {
			return fmt.Errorf("decode query: %v: %w", err, core.ErrInvalidParameter)
		}
	} else if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("decode body: %v: %w", err, core.ErrInvalidParameter)
		}
	}

	if _, err := govalidator.ValidateStruct(v); err != nil {
		return fmt.Errorf("%v: %w", err, core.ErrInvalidParameter)
	}

	return nil
}

// Int query value of key, def when absent
func Int(r *http.Request, key string, def int) (int, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def, nil
	}

	v, err := cast.ToIntE(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %v: %w", key, err, core.ErrInvalidParameter)
	}

	return v, nil
}

// Int64 query value of key, def when absent
func Int64(r *http.Request, key string, def int64) (int64, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def, nil
	}

	v, err := cast.ToInt64E(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %v: %w", key, err, core.ErrInvalidParameter)
	}

	return v, nil
}

// Amount converts a human amount into WAD base units
func Amount(d decimal.Decimal) (*uint256.Int, error) {
	return ray.FromDecimal(d, ray.WadDecimals)
}
