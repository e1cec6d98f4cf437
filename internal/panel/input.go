package panel

import (
	"math"
	"strconv"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/newthinker/stockboard/internal/core"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// HoldingInput is the raw portfolio form. Zero shares or cost count as
// missing, matching the form's truthiness check.
type HoldingInput struct {
	Symbol  string  `validate:"required"`
	Shares  float64 `validate:"required"`
	AvgCost float64 `validate:"required"`
}

// AlertInput is the raw alert form. A zero price counts as missing, so a
// zero-price alert cannot be created.
type AlertInput struct {
	Symbol    string  `validate:"required"`
	Condition string  `default:"above" validate:"oneof=above below"`
	Price     float64 `validate:"required"`
}

// ParseAmount reads a numeric form value. Anything unparseable is zero.
func ParseAmount(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func (in *HoldingInput) normalize() error {
	in.Symbol = strings.ToUpper(strings.TrimSpace(in.Symbol))
	if err := validate.Struct(in); err != nil {
		return core.WrapError(core.ErrValidation, err)
	}
	return nil
}

func (in *AlertInput) normalize() error {
	in.Symbol = strings.ToUpper(strings.TrimSpace(in.Symbol))
	in.Condition = strings.ToLower(strings.TrimSpace(in.Condition))
	if err := defaults.Set(in); err != nil {
		return err
	}
	if err := validate.Struct(in); err != nil {
		return core.WrapError(core.ErrValidation, err)
	}
	return nil
}
