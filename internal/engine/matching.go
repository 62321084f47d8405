package engine

import (
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"order-matcher/internal/engine/feeprovider"
	"order-matcher/pkg/utils"
)

var hundred = decimal.NewFromInt(100)

// MatchingEngine owns the book of one instrument. Every operation runs under
// a single mutex, listener and fee provider calls included.
type MatchingEngine struct {
	mu             sync.Mutex
	book           *Book
	listener       TradeListener
	fees           feeprovider.FeeProvider
	stepSize       decimal.Decimal
	pricePrecision int32
	sequence       uint64
	marketPrice    decimal.Decimal
	acceptedOrders map[OrderID]struct{}
	currentOrders  map[OrderID]*Order
}

// NewMatchingEngine creates an engine. stepSize is the quantity increment
// amount orders are rounded down to; pricePrecision is the number of decimal
// places fees are rounded to.
func NewMatchingEngine(listener TradeListener, fees feeprovider.FeeProvider, stepSize decimal.Decimal, pricePrecision int32) *MatchingEngine {
	if !stepSize.IsPositive() {
		panic("matching engine: step size must be positive")
	}
	return &MatchingEngine{
		book:           NewBook(),
		listener:       listener,
		fees:           fees,
		stepSize:       stepSize,
		pricePrecision: pricePrecision,
		acceptedOrders: make(map[OrderID]struct{}),
		currentOrders:  make(map[OrderID]*Order),
	}
}

// AddOrder validates the order and, if accepted, either parks it in a stop
// side or matches it against the book. Rejections leave the engine and the
// listener untouched.
func (e *MatchingEngine) AddOrder(order *Order, timestamp int64) OrderMatchingResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	if result := e.validate(order, timestamp); result != OrderAccepted {
		utils.Logger.WithFields(logrus.Fields{
			"order_id": order.OrderID,
			"user_id":  order.UserID,
			"result":   result.String(),
		}).Debug("Order rejected")
		return result
	}

	e.acceptedOrders[order.OrderID] = struct{}{}
	order.Sequence = 0
	if order.IsIceberg() {
		order.OpenQuantity = decimal.Min(order.TipQuantity, order.TotalQuantity)
		order.HiddenQuantity = order.TotalQuantity.Sub(order.OpenQuantity)
	}
	e.listener.OnAccept(Accept{OrderID: order.OrderID, UserID: order.UserID, Timestamp: timestamp})

	if order.IsStop() {
		kind := StopAskSide
		if order.IsBuy {
			kind = StopBidSide
		}
		e.rest(order, kind)
		return OrderAccepted
	}

	e.matchAndTrigger(order, timestamp)

	if e.book.Crossed() {
		e.invariant(fmt.Sprintf("book crossed after order %d", order.OrderID))
	}
	return OrderAccepted
}

// CancelOrder removes a resting or pending stop order.
func (e *MatchingEngine) CancelOrder(orderID OrderID, timestamp int64) OrderMatchingResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	order, ok := e.currentOrders[orderID]
	if !ok {
		return OrderDoesNotExists
	}
	e.book.Remove(order)
	e.cancel(order, ReasonUserRequested, timestamp)
	return CancelAccepted
}

// CancelExpiredOrders cancels every live order whose CancelOn is at or before
// timestamp, oldest sequence first, and returns how many were cancelled.
func (e *MatchingEngine) CancelExpiredOrders(timestamp int64) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	var expired []*Order
	for _, order := range e.currentOrders {
		if order.CancelOn > 0 && order.CancelOn <= timestamp {
			expired = append(expired, order)
		}
	}
	sort.Slice(expired, func(i, j int) bool { return expired[i].Sequence < expired[j].Sequence })

	for _, order := range expired {
		e.book.Remove(order)
		e.cancel(order, ReasonValidityExpired, timestamp)
	}
	return len(expired)
}

func (e *MatchingEngine) validate(order *Order, timestamp int64) OrderMatchingResult {
	if order.IsIceberg() && (order.OrderCondition == FillOrKill || order.OrderCondition == ImmediateOrCancel) {
		return IcebergOrderCannotBeFOKorIOC
	}
	if order.OrderCondition == FillOrKill && !order.StopPrice.IsZero() {
		return FillOrKillCannotBeStopOrder
	}
	if order.OrderCondition > FillOrKill {
		return InvalidOrder
	}
	for _, v := range []decimal.Decimal{order.Price, order.StopPrice, order.OpenQuantity, order.OrderAmount, order.TotalQuantity, order.TipQuantity} {
		if v.IsNegative() {
			return InvalidOrder
		}
	}

	switch {
	case order.IsAmountOrder():
		if !order.IsBuy || !order.IsMarket() || !order.OpenQuantity.IsZero() || order.IsIceberg() {
			return InvalidOrder
		}
	case order.IsIceberg():
		if !order.TipQuantity.IsPositive() || order.TipQuantity.GreaterThan(order.TotalQuantity) {
			return InvalidOrder
		}
		if order.IsMarket() {
			return IcebergOrderCannotBeMarketOrder
		}
	case !order.OpenQuantity.IsPositive():
		return InvalidOrder
	}

	if order.CancelOn > 0 {
		if order.OrderCondition != GoodTillCancel {
			return CancelOnNotAllowedForFOKorIOC
		}
		if order.CancelOn <= timestamp {
			return CancelOnAlreadyPassed
		}
	}
	if _, ok := e.acceptedOrders[order.OrderID]; ok {
		return DuplicateOrder
	}
	return OrderAccepted
}

// matchAndTrigger matches the order, then fires the stops armed by each of
// its trades in trade order. Triggered orders are processed to completion.
func (e *MatchingEngine) matchAndTrigger(order *Order, timestamp int64) {
	for _, price := range e.match(order, timestamp) {
		for _, stop := range e.book.ArmedStops(price) {
			// a nested trigger may already have fired it
			if kind, ok := e.book.SideOf(stop.OrderID); !ok || (kind != StopAskSide && kind != StopBidSide) {
				continue
			}
			e.book.Remove(stop)
			delete(e.currentOrders, stop.OrderID)
			stop.StopPrice = decimal.Zero
			stop.Sequence = 0
			e.listener.OnTrigger(Trigger{OrderID: stop.OrderID, UserID: stop.UserID, Timestamp: timestamp})
			e.matchAndTrigger(stop, timestamp)
		}
	}
}

// match runs the matching loop for one incoming order and settles its
// residual. It returns the price of every trade in order.
func (e *MatchingEngine) match(order *Order, timestamp int64) []decimal.Decimal {
	if order.OrderCondition == FillOrKill && !e.canFill(order) {
		e.cancel(order, ReasonFillOrKill, timestamp)
		return nil
	}

	opposite := e.book.bids
	if order.IsBuy {
		opposite = e.book.asks
	}

	var prices []decimal.Decimal
	amountExhausted := false
	for {
		if order.OpenQuantity.IsZero() && order.HiddenQuantity.IsPositive() {
			e.replenishTip(order)
		}
		if !order.IsAmountOrder() && order.OpenQuantity.IsZero() {
			break
		}
		level := opposite.Best()
		if level == nil || !priceQualifies(order, level.Price) {
			break
		}
		resting := level.Front()
		quantity := resting.OpenQuantity
		if order.IsAmountOrder() {
			quantity = decimal.Min(quantity, e.affordable(order, resting.Price))
			if quantity.IsZero() {
				amountExhausted = true
				break
			}
		} else {
			quantity = decimal.Min(quantity, order.OpenQuantity)
		}
		prices = append(prices, resting.Price)
		e.execute(order, resting, quantity, timestamp)
	}

	// the opposite side may run out exactly when the amount left falls
	// below one step at the last price
	if order.IsAmountOrder() && !amountExhausted && len(prices) > 0 {
		amountExhausted = e.finished(order, prices[len(prices)-1])
	}
	e.settle(order, amountExhausted, timestamp)
	return prices
}

// settle decides the fate of whatever the matching loop left over.
func (e *MatchingEngine) settle(order *Order, amountExhausted bool, timestamp int64) {
	if order.IsAmountOrder() {
		switch {
		case order.RemainingAmount().IsZero():
			delete(e.currentOrders, order.OrderID)
		case amountExhausted:
			e.cancel(order, ReasonLessThanStepSize, timestamp)
		case order.OrderCondition == ImmediateOrCancel:
			e.cancel(order, ReasonImmediateOrCancel, timestamp)
		case order.OrderCondition == FillOrKill:
			e.invariant(fmt.Sprintf("fill-or-kill order %d left unfilled amount", order.OrderID))
		default:
			e.cancel(order, ReasonNoLiquidity, timestamp)
		}
		return
	}

	switch {
	case order.RemainingQuantity().IsZero():
		delete(e.currentOrders, order.OrderID)
	case order.OrderCondition == FillOrKill:
		e.invariant(fmt.Sprintf("fill-or-kill order %d partially filled", order.OrderID))
	case order.OrderCondition == ImmediateOrCancel:
		e.cancel(order, ReasonImmediateOrCancel, timestamp)
	case order.IsMarket():
		e.cancel(order, ReasonNoLiquidity, timestamp)
	default:
		kind := AskSide
		if order.IsBuy {
			kind = BidSide
		}
		e.rest(order, kind)
	}
}

// canFill reports whether the opposite side offers enough qualifying
// liquidity to fill the order completely. It does not mutate the book.
func (e *MatchingEngine) canFill(order *Order) bool {
	opposite := e.book.bids
	if order.IsBuy {
		opposite = e.book.asks
	}

	need := order.RemainingQuantity()
	amount := order.RemainingAmount()
	filled := false
	opposite.Each(func(resting *Order) bool {
		if !priceQualifies(order, resting.Price) {
			return false
		}
		available := resting.RemainingQuantity()
		if order.IsAmountOrder() {
			affordable := e.floorToStep(amount.Div(resting.Price))
			if affordable.IsZero() {
				filled = amount.LessThan(order.RemainingAmount())
				return false
			}
			if affordable.LessThanOrEqual(available) {
				filled = true
				return false
			}
			amount = amount.Sub(available.Mul(resting.Price))
			return true
		}
		need = need.Sub(available)
		if !need.IsPositive() {
			filled = true
			return false
		}
		return true
	})
	return filled
}

// execute applies one match between the incoming order and the resting order
// at the front of the best opposite level.
func (e *MatchingEngine) execute(taker, maker *Order, quantity decimal.Decimal, timestamp int64) {
	price := maker.Price
	cost := price.Mul(quantity)

	maker.OpenQuantity = maker.OpenQuantity.Sub(quantity)
	if !taker.IsAmountOrder() {
		taker.OpenQuantity = taker.OpenQuantity.Sub(quantity)
	}
	maker.Cost = maker.Cost.Add(cost)
	taker.Cost = taker.Cost.Add(cost)
	maker.Fee = maker.Fee.Add(e.fee(cost, e.fees.GetFee(maker.FeeID).MakerFee))
	taker.Fee = taker.Fee.Add(e.fee(cost, e.fees.GetFee(taker.FeeID).TakerFee))
	e.marketPrice = price

	if maker.OpenQuantity.IsZero() {
		e.book.Remove(maker)
		delete(e.currentOrders, maker.OrderID)
		if maker.HiddenQuantity.IsPositive() {
			kind := AskSide
			if maker.IsBuy {
				kind = BidSide
			}
			e.replenishTip(maker)
			e.rest(maker, kind)
		}
	}

	trade := Trade{
		MakerOrderID:  maker.OrderID,
		MakerUserID:   maker.UserID,
		TakerOrderID:  taker.OrderID,
		TakerUserID:   taker.UserID,
		MatchPrice:    price,
		MatchQuantity: quantity,
		Timestamp:     timestamp,
	}
	ask, bid := maker, taker
	if maker.IsBuy {
		ask, bid = taker, maker
	}
	if e.finished(ask, price) {
		trade.AskRemainingQuantity = decimal.NewNullDecimal(ask.RemainingQuantity())
		trade.AskFee = decimal.NewNullDecimal(ask.Fee)
	}
	if e.finished(bid, price) {
		trade.BidCost = decimal.NewNullDecimal(bid.Cost)
		trade.BidFee = decimal.NewNullDecimal(bid.Fee)
	}
	e.listener.OnTrade(trade)
}

// finished reports whether an order has nothing left to trade after a match
// at price.
func (e *MatchingEngine) finished(order *Order, price decimal.Decimal) bool {
	if order.IsAmountOrder() {
		return e.affordable(order, price).IsZero()
	}
	return order.RemainingQuantity().IsZero()
}

// replenishTip carves the next visible slice out of an iceberg's hidden quantity.
func (e *MatchingEngine) replenishTip(order *Order) {
	tip := decimal.Min(order.TipQuantity, order.HiddenQuantity)
	order.OpenQuantity = tip
	order.HiddenQuantity = order.HiddenQuantity.Sub(tip)
}

// rest assigns the next sequence and inserts the order at the tail of its level.
func (e *MatchingEngine) rest(order *Order, kind SideKind) {
	e.sequence++
	order.Sequence = e.sequence
	e.book.Insert(order, kind)
	e.currentOrders[order.OrderID] = order
}

func (e *MatchingEngine) cancel(order *Order, reason CancelReason, timestamp int64) {
	delete(e.currentOrders, order.OrderID)
	cancellation := Cancellation{
		OrderID:           order.OrderID,
		UserID:            order.UserID,
		RemainingQuantity: order.RemainingQuantity(),
		Cost:              order.Cost,
		Fee:               order.Fee,
		Reason:            reason,
		Timestamp:         timestamp,
	}
	utils.Logger.WithFields(logrus.Fields{
		"order_id":  order.OrderID,
		"remaining": cancellation.RemainingQuantity.String(),
		"reason":    reason.String(),
	}).Debug("Order cancelled")
	e.listener.OnCancel(cancellation)
}

// affordable is the largest step-sized quantity the order's remaining amount
// buys at price.
func (e *MatchingEngine) affordable(order *Order, price decimal.Decimal) decimal.Decimal {
	return e.floorToStep(order.RemainingAmount().Div(price))
}

func (e *MatchingEngine) floorToStep(quantity decimal.Decimal) decimal.Decimal {
	return quantity.Div(e.stepSize).Floor().Mul(e.stepSize)
}

func (e *MatchingEngine) fee(cost, rate decimal.Decimal) decimal.Decimal {
	return cost.Mul(rate).Div(hundred).Round(e.pricePrecision)
}

func (e *MatchingEngine) invariant(msg string) {
	utils.Logger.WithField("invariant", msg).Error("Order book invariant violated")
	panic("matching engine: " + msg)
}

func priceQualifies(order *Order, price decimal.Decimal) bool {
	if order.IsMarket() {
		return true
	}
	if order.IsBuy {
		return price.LessThanOrEqual(order.Price)
	}
	return price.GreaterThanOrEqual(order.Price)
}

// Book returns the engine's book. It is not synchronised: read it only while
// no other goroutine is calling the engine.
func (e *MatchingEngine) Book() *Book {
	return e.book
}

// CurrentOrders returns the live (resting or pending stop) orders by id.
func (e *MatchingEngine) CurrentOrders() map[OrderID]*Order {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make(map[OrderID]*Order, len(e.currentOrders))
	for id, order := range e.currentOrders {
		out[id] = order
	}
	return out
}

// AcceptedOrders returns every order id ever accepted, ascending.
func (e *MatchingEngine) AcceptedOrders() []OrderID {
	e.mu.Lock()
	defer e.mu.Unlock()

	ids := make([]OrderID, 0, len(e.acceptedOrders))
	for id := range e.acceptedOrders {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (e *MatchingEngine) IsAccepted(orderID OrderID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.acceptedOrders[orderID]
	return ok
}

// MarketPrice returns the price of the last trade, zero before any trade.
func (e *MatchingEngine) MarketPrice() decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.marketPrice
}

// Depth returns up to n aggregated levels of one side under the engine lock.
func (e *MatchingEngine) Depth(kind SideKind, n int) []DepthLevel {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.book.Side(kind).Depth(n)
}
