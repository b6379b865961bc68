package domain

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestToPlanck(t *testing.T) {
	assert.Equal(t, "1500000000000", ToPlanck(decimal.NewFromFloat(1.5)).String())
	assert.Equal(t, "0", ToPlanck(decimal.Zero).String())
	// 超出精度的部分截断
	assert.Equal(t, "1", ToPlanck(decimal.RequireFromString("0.0000000000019")).String())
}

func TestFromPlanck(t *testing.T) {
	assert.Equal(t, "1.5", FromPlanck(big.NewInt(1_500_000_000_000)).String())
	assert.Equal(t, "0", FromPlanck(nil).String())
}

func TestUnitsRoundTrip(t *testing.T) {
	for _, s := range []string{"0.25", "100", "0.000000000001"} {
		d := decimal.RequireFromString(s)
		assert.True(t, FromPlanck(ToPlanck(d)).Equal(d), "数量 %s 往返应无损", s)
	}
}
