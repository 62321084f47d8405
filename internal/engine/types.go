package engine

import (
	"github.com/shopspring/decimal"
)

type OrderID uint64
type UserID uint64

type OrderCondition uint8

const (
	GoodTillCancel OrderCondition = iota
	ImmediateOrCancel
	FillOrKill
)

func (c OrderCondition) String() string {
	switch c {
	case GoodTillCancel:
		return "GoodTillCancel"
	case ImmediateOrCancel:
		return "ImmediateOrCancel"
	case FillOrKill:
		return "FillOrKill"
	}
	return "Unknown"
}

// OrderMatchingResult is the outcome of AddOrder and CancelOrder.
type OrderMatchingResult uint8

const (
	OrderAccepted OrderMatchingResult = iota + 1
	CancelAccepted
	OrderDoesNotExists
	DuplicateOrder
	InvalidOrder
	IcebergOrderCannotBeFOKorIOC
	IcebergOrderCannotBeMarketOrder
	FillOrKillCannotBeStopOrder
	CancelOnNotAllowedForFOKorIOC
	CancelOnAlreadyPassed
)

var resultNames = map[OrderMatchingResult]string{
	OrderAccepted:                   "OrderAccepted",
	CancelAccepted:                  "CancelAccepted",
	OrderDoesNotExists:              "OrderDoesNotExists",
	DuplicateOrder:                  "DuplicateOrder",
	InvalidOrder:                    "InvalidOrder",
	IcebergOrderCannotBeFOKorIOC:    "IcebergOrderCannotBeFOKorIOC",
	IcebergOrderCannotBeMarketOrder: "IcebergOrderCannotBeMarketOrder",
	FillOrKillCannotBeStopOrder:     "FillOrKillCannotBeStopOrder",
	CancelOnNotAllowedForFOKorIOC:   "CancelOnNotAllowedForFOKorIOC",
	CancelOnAlreadyPassed:           "CancelOnAlreadyPassed",
}

func (r OrderMatchingResult) String() string {
	if name, ok := resultNames[r]; ok {
		return name
	}
	return "Unknown"
}

type CancelReason uint8

const (
	ReasonUserRequested CancelReason = iota + 1
	ReasonNoLiquidity
	ReasonImmediateOrCancel
	ReasonFillOrKill
	ReasonValidityExpired
	ReasonLessThanStepSize
)

func (r CancelReason) String() string {
	switch r {
	case ReasonUserRequested:
		return "UserRequested"
	case ReasonNoLiquidity:
		return "NoLiquidity"
	case ReasonImmediateOrCancel:
		return "ImmediateOrCancel"
	case ReasonFillOrKill:
		return "FillOrKill"
	case ReasonValidityExpired:
		return "ValidityExpired"
	case ReasonLessThanStepSize:
		return "LessThanStepSize"
	}
	return "Unknown"
}

// Order represents one order and its full lifecycle state.
// A zero Price is a market order; a zero StopPrice is not a stop order;
// a zero TotalQuantity is not an iceberg.
type Order struct {
	OrderID        OrderID
	UserID         UserID
	IsBuy          bool
	Price          decimal.Decimal
	OpenQuantity   decimal.Decimal
	OrderAmount    decimal.Decimal // notional size of an amount-denominated market buy
	StopPrice      decimal.Decimal
	TotalQuantity  decimal.Decimal
	TipQuantity    decimal.Decimal
	HiddenQuantity decimal.Decimal // iceberg quantity not yet carved into a tip
	OrderCondition OrderCondition
	CancelOn       int64
	FeeID          int16
	Cost           decimal.Decimal
	Fee            decimal.Decimal
	Sequence       uint64
}

func (o *Order) IsMarket() bool {
	return o.Price.IsZero()
}

func (o *Order) IsStop() bool {
	return o.StopPrice.IsPositive()
}

func (o *Order) IsIceberg() bool {
	return o.TotalQuantity.IsPositive()
}

func (o *Order) IsAmountOrder() bool {
	return o.OrderAmount.IsPositive()
}

// RemainingAmount is the unspent notional of an amount-denominated order.
func (o *Order) RemainingAmount() decimal.Decimal {
	return o.OrderAmount.Sub(o.Cost)
}

// RemainingQuantity is the visible plus hidden quantity still open.
func (o *Order) RemainingQuantity() decimal.Decimal {
	return o.OpenQuantity.Add(o.HiddenQuantity)
}

// Trade is one match between a resting (maker) and an incoming (taker) order.
// The ask fields are set when the ask order is finished by this trade, the bid
// fields when the bid order is.
type Trade struct {
	MakerOrderID         OrderID
	MakerUserID          UserID
	TakerOrderID         OrderID
	TakerUserID          UserID
	MatchPrice           decimal.Decimal
	MatchQuantity        decimal.Decimal
	AskRemainingQuantity decimal.NullDecimal
	AskFee               decimal.NullDecimal
	BidCost              decimal.NullDecimal
	BidFee               decimal.NullDecimal
	Timestamp            int64
}

type Accept struct {
	OrderID   OrderID
	UserID    UserID
	Timestamp int64
}

type Trigger struct {
	OrderID   OrderID
	UserID    UserID
	Timestamp int64
}

type Cancellation struct {
	OrderID           OrderID
	UserID            UserID
	RemainingQuantity decimal.Decimal
	Cost              decimal.Decimal
	Fee               decimal.Decimal
	Reason            CancelReason
	Timestamp         int64
}

// TradeListener receives engine notifications synchronously, inside the
// engine's critical section. Implementations must not block or call back
// into the engine.
type TradeListener interface {
	OnAccept(accept Accept)
	OnTrade(trade Trade)
	OnCancel(cancel Cancellation)
	OnTrigger(trigger Trigger)
}
