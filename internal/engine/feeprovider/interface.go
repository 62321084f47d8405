package feeprovider

import "github.com/shopspring/decimal"

// Fee holds percentage rates applied to traded notional: 0.2 means 0.2%.
type Fee struct {
	MakerFee decimal.Decimal `yaml:"maker"`
	TakerFee decimal.Decimal `yaml:"taker"`
}

type FeeProvider interface {
	GetFee(feeID int16) Fee
}
