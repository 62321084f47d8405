package feeprovider

import "github.com/shopspring/decimal"

// Static serves fee rates from an in-memory tier table fixed at construction.
// Unknown fee ids fall back to the default tier.
type Static struct {
	fallback Fee
	tiers    map[int16]Fee
}

func NewStatic(fallback Fee, tiers map[int16]Fee) *Static {
	table := make(map[int16]Fee, len(tiers))
	for id, fee := range tiers {
		table[id] = fee
	}
	return &Static{
		fallback: fallback,
		tiers:    table,
	}
}

// Flat returns a provider charging the same rates for every fee id.
func Flat(maker, taker decimal.Decimal) *Static {
	return NewStatic(Fee{MakerFee: maker, TakerFee: taker}, nil)
}

func (s *Static) GetFee(feeID int16) Fee {
	if fee, ok := s.tiers[feeID]; ok {
		return fee
	}
	return s.fallback
}
