package validate

import (
	"testing"

	"github.com/brokerage-api/internal/domain"
	"github.com/stretchr/testify/assert"
)

func baseCommission() domain.CreateCommissionRequest {
	return domain.CreateCommissionRequest{
		ListingID:  "L1",
		Type:       domain.CommissionTypeFlat,
		Amount:     500,
		Visibility: domain.VisibilityPrivate,
	}
}

func TestCommission_FlatPositiveAmount(t *testing.T) {
	req := baseCommission()
	assert.NoError(t, Struct(req))

	req.Amount = 125000 // flat amounts have no upper bound
	assert.NoError(t, Struct(req))
}

func TestCommission_FlatNonPositiveAmount(t *testing.T) {
	req := baseCommission()
	req.Amount = 0
	assert.Error(t, Struct(req))

	req.Amount = -10
	assert.Error(t, Struct(req))
}

func TestCommission_PercentageBounds(t *testing.T) {
	req := baseCommission()
	req.Type = domain.CommissionTypePercentage

	req.Amount = 100
	assert.NoError(t, Struct(req))

	req.Amount = 2.5
	assert.NoError(t, Struct(req))

	req.Amount = 150
	assert.Error(t, Struct(req), "percentage amount above 100 must be rejected")
}

func TestCommission_SplitPercentageBounds(t *testing.T) {
	req := baseCommission()

	for _, split := range []float64{0, 50, 100} {
		s := split
		req.SplitPercentage = &s
		assert.NoError(t, Struct(req), "split %v should pass", split)
	}
	for _, split := range []float64{-1, 100.5} {
		s := split
		req.SplitPercentage = &s
		assert.Error(t, Struct(req), "split %v should fail", split)
	}
}

func TestCommission_ClosedEnums(t *testing.T) {
	req := baseCommission()
	req.Type = "hourly"
	assert.Error(t, Struct(req))

	req = baseCommission()
	req.Visibility = "everyone"
	assert.Error(t, Struct(req))
}

func TestVerifyCommission_Type(t *testing.T) {
	req := domain.VerifyCommissionRequest{VerificationType: "document"}
	assert.NoError(t, Struct(req))

	req.VerificationType = "vibes"
	assert.Error(t, Struct(req))
}
