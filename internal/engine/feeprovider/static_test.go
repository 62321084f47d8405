package feeprovider

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestStaticFallsBackToDefaultTier(t *testing.T) {
	provider := NewStatic(
		Fee{MakerFee: decimal.RequireFromString("0.2"), TakerFee: decimal.RequireFromString("0.5")},
		map[int16]Fee{
			7: {MakerFee: decimal.RequireFromString("0.1"), TakerFee: decimal.RequireFromString("0.3")},
		},
	)

	vip := provider.GetFee(7)
	assert.True(t, vip.MakerFee.Equal(decimal.RequireFromString("0.1")))
	assert.True(t, vip.TakerFee.Equal(decimal.RequireFromString("0.3")))

	unknown := provider.GetFee(42)
	assert.True(t, unknown.MakerFee.Equal(decimal.RequireFromString("0.2")))
	assert.True(t, unknown.TakerFee.Equal(decimal.RequireFromString("0.5")))
}

func TestStaticCopiesTierTable(t *testing.T) {
	tiers := map[int16]Fee{3: {MakerFee: decimal.NewFromInt(1), TakerFee: decimal.NewFromInt(2)}}
	provider := NewStatic(Fee{}, tiers)
	tiers[3] = Fee{}
	tiers[4] = Fee{TakerFee: decimal.NewFromInt(9)}

	assert.True(t, provider.GetFee(3).TakerFee.Equal(decimal.NewFromInt(2)))
	assert.True(t, provider.GetFee(4).TakerFee.IsZero())
}
