package validate

import (
	"fmt"
	"strings"

	"github.com/brokerage-api/internal/domain"
	"github.com/go-playground/validator/v10"
)

// v is the package-level singleton validator. It is initialised once at
// package load time. Any custom type registrations must be made during init()
// before the first call to Struct.
var v = validator.New()

func init() {
	v.RegisterStructValidation(commissionRules, domain.CreateCommissionRequest{})
}

// commissionRules enforces the cross-field commission constraint: a
// percentage-type commission cannot exceed 100. Flat amounts are only bound
// by the gt=0 field tag.
func commissionRules(sl validator.StructLevel) {
	req := sl.Current().Interface().(domain.CreateCommissionRequest)
	if req.Type == domain.CommissionTypePercentage && req.Amount > 100 {
		sl.ReportError(req.Amount, "Amount", "amount", "lte_percentage", "100")
	}
}

// Struct validates the given struct using its validate tags.
// Returns a human-readable error string or nil.
func Struct(s interface{}) error {
	if err := v.Struct(s); err != nil {
		ve, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		var msgs []string
		for _, fe := range ve {
			msgs = append(msgs, fmt.Sprintf("field '%s' failed '%s'", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("%s", strings.Join(msgs, "; "))
	}
	return nil
}
