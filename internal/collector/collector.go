// Package collector turns operator input from the web form, JSON bodies or
// CLI flags into validated trade parameters. The calculator itself does not
// validate, so everything that reaches it should pass through here.
package collector

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"mtf-simulator/internal/types"
)

// ErrInvalidInput is wrapped by every rejection.
var ErrInvalidInput = errors.New("invalid input")

// Form field names, shared by the HTML form, query strings and JSON bodies.
const (
	FieldSymbol          = "symbol"
	FieldLTP             = "ltp"
	FieldInvestment      = "investment"
	FieldExposure        = "exposure"
	FieldTargetPrice     = "target_price"
	FieldStopPrice       = "stop_price"
	FieldHoldingDays     = "holding_days"
	FieldInterestRatePct = "interest_rate_pct"
	FieldBrokeragePct    = "brokerage_pct"
	FieldTxnChargesPct   = "txn_charges_pct"
	FieldOtherChargesPct = "other_charges_pct"
)

// FieldError describes one rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every rejected field of one submission.
type ValidationError struct {
	Fields []FieldError `json:"errors"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return fmt.Sprintf("%s: %s", ErrInvalidInput, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// input mirrors types.TradeParameters with validation rules.
type input struct {
	Symbol                string  `form:"symbol" validate:"max=32"`
	LastTradedPrice       float64 `form:"ltp" validate:"finite,gt=0"`
	Investment            float64 `form:"investment" validate:"finite,gte=0"`
	ExposureMultiplier    float64 `form:"exposure" validate:"finite,gte=0"`
	TargetPrice           float64 `form:"target_price" validate:"finite"`
	StopPrice             float64 `form:"stop_price" validate:"finite"`
	HoldingDays           int     `form:"holding_days" validate:"gte=0"`
	AnnualInterestRatePct float64 `form:"interest_rate_pct" validate:"finite,gte=0"`
	BrokeragePct          float64 `form:"brokerage_pct" validate:"finite,gte=0"`
	TransactionChargesPct float64 `form:"txn_charges_pct" validate:"finite,gte=0"`
	OtherChargesPct       float64 `form:"other_charges_pct" validate:"finite,gte=0"`
}

// Collector validates operator input. It is safe for concurrent use.
type Collector struct {
	validate *validator.Validate
}

func New() *Collector {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("form")
	})
	// RegisterValidation only fails for an empty tag or reserved names.
	_ = v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	})
	return &Collector{validate: v}
}

// Validate checks p against the input rules.
func (c *Collector) Validate(p types.TradeParameters) error {
	in := input(p)
	err := c.validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Message: describe(fe)})
	}
	return out
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "finite":
		return "must be a finite number"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		if fe.Param() == "0" {
			return "must not be negative"
		}
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "is invalid (" + fe.Tag() + ")"
	}
}

// FromForm builds parameters from submitted form or query values. Fields
// that are absent or blank keep their value from defaults.
func (c *Collector) FromForm(values url.Values, defaults types.TradeParameters) (types.TradeParameters, error) {
	p := defaults
	var fieldErrs []FieldError

	if v := strings.TrimSpace(values.Get(FieldSymbol)); v != "" {
		p.Symbol = v
	}

	floats := []struct {
		name string
		dst  *float64
	}{
		{FieldLTP, &p.LastTradedPrice},
		{FieldInvestment, &p.Investment},
		{FieldExposure, &p.ExposureMultiplier},
		{FieldTargetPrice, &p.TargetPrice},
		{FieldStopPrice, &p.StopPrice},
		{FieldInterestRatePct, &p.AnnualInterestRatePct},
		{FieldBrokeragePct, &p.BrokeragePct},
		{FieldTxnChargesPct, &p.TransactionChargesPct},
		{FieldOtherChargesPct, &p.OtherChargesPct},
	}
	for _, f := range floats {
		raw := strings.TrimSpace(values.Get(f.name))
		if raw == "" {
			continue
		}
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			fieldErrs = append(fieldErrs, FieldError{Field: f.name, Message: "must be a number"})
			continue
		}
		*f.dst = n
	}

	if raw := strings.TrimSpace(values.Get(FieldHoldingDays)); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			fieldErrs = append(fieldErrs, FieldError{Field: FieldHoldingDays, Message: "must be a whole number of days"})
		} else {
			p.HoldingDays = n
		}
	}

	if len(fieldErrs) > 0 {
		return p, &ValidationError{Fields: fieldErrs}
	}
	if err := c.Validate(p); err != nil {
		return p, err
	}
	return p, nil
}

// FromJSON decodes a JSON parameter object over defaults and validates it.
// Unknown fields are rejected.
func (c *Collector) FromJSON(r io.Reader, defaults types.TradeParameters) (types.TradeParameters, error) {
	p := defaults
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return defaults, fmt.Errorf("%w: decode body: %v", ErrInvalidInput, err)
	}
	if err := c.Validate(p); err != nil {
		return p, err
	}
	return p, nil
}
