package wire

import (
	"fmt"

	"order-matcher/internal/engine"
)

const (
	NewOrderSize = HeaderSize +
		1 + 1 + // side, condition
		sizeOfID + sizeOfID +
		4*sizeOfDecimal + // price, quantity, stop price, total quantity
		sizeOfInt64 + // cancel on
		sizeOfDecimal + // amount
		2 + // fee id
		2*sizeOfDecimal // cost, fee
	OrderAcceptSize    = HeaderSize + 2*sizeOfID + 2*sizeOfInt64
	OrderTriggerSize   = OrderAcceptSize
	FillSize           = HeaderSize + 4*sizeOfID + 2*sizeOfDecimal + 4*sizeOfOptional + 2*sizeOfInt64
	CancelSize         = HeaderSize + 2*sizeOfID + 3*sizeOfDecimal + 1 + 2*sizeOfInt64
	MatchingResultSize = HeaderSize + sizeOfID + 1 + sizeOfInt64
)

// OrderAccept is an accept notification stamped with its journal sequence.
type OrderAccept struct {
	engine.Accept
	MessageSequence int64
}

type Fill struct {
	engine.Trade
	MessageSequence int64
}

type Cancel struct {
	engine.Cancellation
	MessageSequence int64
}

type OrderTrigger struct {
	engine.Trigger
	MessageSequence int64
}

// MatchingResult is the synchronous outcome of an add or cancel request.
type MatchingResult struct {
	OrderID   engine.OrderID
	Result    engine.OrderMatchingResult
	Timestamp int64
}

// EncodeNewOrder encodes an order request. For an iceberg the quantity slot
// carries the tip. Cost and fee carry the order's accumulated state, zero for
// a fresh request.
func EncodeNewOrder(order *engine.Order) ([]byte, error) {
	quantity := order.OpenQuantity
	if order.IsIceberg() {
		quantity = order.TipQuantity
	}

	enc := newEncoder(MsgNewOrder, NewOrderSize)
	enc.bool(order.IsBuy)
	enc.byte(byte(order.OrderCondition))
	enc.uint64(uint64(order.OrderID))
	enc.uint64(uint64(order.UserID))
	enc.decimal("price", order.Price)
	enc.decimal("quantity", quantity)
	enc.decimal("stop_price", order.StopPrice)
	enc.decimal("total_quantity", order.TotalQuantity)
	enc.int64(order.CancelOn)
	enc.decimal("order_amount", order.OrderAmount)
	enc.int16(order.FeeID)
	enc.decimal("cost", order.Cost)
	enc.decimal("fee", order.Fee)
	return enc.bytes()
}

func DecodeNewOrder(frame []byte) (*engine.Order, error) {
	dec, err := newDecoder(frame, MsgNewOrder, NewOrderSize)
	if err != nil {
		return nil, err
	}

	order := &engine.Order{}
	order.IsBuy = dec.bool()
	order.OrderCondition = engine.OrderCondition(dec.byte())
	order.OrderID = engine.OrderID(dec.uint64())
	order.UserID = engine.UserID(dec.uint64())
	order.Price = dec.decimal()
	quantity := dec.decimal()
	order.StopPrice = dec.decimal()
	order.TotalQuantity = dec.decimal()
	order.CancelOn = dec.int64()
	order.OrderAmount = dec.decimal()
	order.FeeID = dec.int16()
	order.Cost = dec.decimal()
	order.Fee = dec.decimal()

	if order.TotalQuantity.IsPositive() {
		order.TipQuantity = quantity
	} else {
		order.OpenQuantity = quantity
	}
	return order, nil
}

func EncodeOrderAccept(msg OrderAccept) ([]byte, error) {
	enc := newEncoder(MsgOrderAccept, OrderAcceptSize)
	enc.uint64(uint64(msg.OrderID))
	enc.uint64(uint64(msg.UserID))
	enc.int64(msg.Timestamp)
	enc.int64(msg.MessageSequence)
	return enc.bytes()
}

func DecodeOrderAccept(frame []byte) (OrderAccept, error) {
	dec, err := newDecoder(frame, MsgOrderAccept, OrderAcceptSize)
	if err != nil {
		return OrderAccept{}, err
	}
	var msg OrderAccept
	msg.OrderID = engine.OrderID(dec.uint64())
	msg.UserID = engine.UserID(dec.uint64())
	msg.Timestamp = dec.int64()
	msg.MessageSequence = dec.int64()
	return msg, nil
}

func EncodeOrderTrigger(msg OrderTrigger) ([]byte, error) {
	enc := newEncoder(MsgOrderTrigger, OrderTriggerSize)
	enc.uint64(uint64(msg.OrderID))
	enc.uint64(uint64(msg.UserID))
	enc.int64(msg.Timestamp)
	enc.int64(msg.MessageSequence)
	return enc.bytes()
}

func DecodeOrderTrigger(frame []byte) (OrderTrigger, error) {
	dec, err := newDecoder(frame, MsgOrderTrigger, OrderTriggerSize)
	if err != nil {
		return OrderTrigger{}, err
	}
	var msg OrderTrigger
	msg.OrderID = engine.OrderID(dec.uint64())
	msg.UserID = engine.UserID(dec.uint64())
	msg.Timestamp = dec.int64()
	msg.MessageSequence = dec.int64()
	return msg, nil
}

func EncodeFill(msg Fill) ([]byte, error) {
	enc := newEncoder(MsgFill, FillSize)
	enc.uint64(uint64(msg.MakerOrderID))
	enc.uint64(uint64(msg.TakerOrderID))
	enc.uint64(uint64(msg.MakerUserID))
	enc.uint64(uint64(msg.TakerUserID))
	enc.decimal("match_price", msg.MatchPrice)
	enc.decimal("match_quantity", msg.MatchQuantity)
	enc.optional("ask_remaining_quantity", msg.AskRemainingQuantity)
	enc.optional("ask_fee", msg.AskFee)
	enc.optional("bid_cost", msg.BidCost)
	enc.optional("bid_fee", msg.BidFee)
	enc.int64(msg.Timestamp)
	enc.int64(msg.MessageSequence)
	return enc.bytes()
}

func DecodeFill(frame []byte) (Fill, error) {
	dec, err := newDecoder(frame, MsgFill, FillSize)
	if err != nil {
		return Fill{}, err
	}
	var msg Fill
	msg.MakerOrderID = engine.OrderID(dec.uint64())
	msg.TakerOrderID = engine.OrderID(dec.uint64())
	msg.MakerUserID = engine.UserID(dec.uint64())
	msg.TakerUserID = engine.UserID(dec.uint64())
	msg.MatchPrice = dec.decimal()
	msg.MatchQuantity = dec.decimal()
	msg.AskRemainingQuantity = dec.optional()
	msg.AskFee = dec.optional()
	msg.BidCost = dec.optional()
	msg.BidFee = dec.optional()
	msg.Timestamp = dec.int64()
	msg.MessageSequence = dec.int64()
	return msg, nil
}

func EncodeCancel(msg Cancel) ([]byte, error) {
	enc := newEncoder(MsgCancel, CancelSize)
	enc.uint64(uint64(msg.OrderID))
	enc.uint64(uint64(msg.UserID))
	enc.decimal("remaining_quantity", msg.RemainingQuantity)
	enc.decimal("cost", msg.Cost)
	enc.decimal("fee", msg.Fee)
	enc.byte(byte(msg.Reason))
	enc.int64(msg.Timestamp)
	enc.int64(msg.MessageSequence)
	return enc.bytes()
}

func DecodeCancel(frame []byte) (Cancel, error) {
	dec, err := newDecoder(frame, MsgCancel, CancelSize)
	if err != nil {
		return Cancel{}, err
	}
	var msg Cancel
	msg.OrderID = engine.OrderID(dec.uint64())
	msg.UserID = engine.UserID(dec.uint64())
	msg.RemainingQuantity = dec.decimal()
	msg.Cost = dec.decimal()
	msg.Fee = dec.decimal()
	msg.Reason = engine.CancelReason(dec.byte())
	msg.Timestamp = dec.int64()
	msg.MessageSequence = dec.int64()
	return msg, nil
}

func EncodeMatchingResult(msg MatchingResult) ([]byte, error) {
	enc := newEncoder(MsgMatchingResult, MatchingResultSize)
	enc.uint64(uint64(msg.OrderID))
	enc.byte(byte(msg.Result))
	enc.int64(msg.Timestamp)
	return enc.bytes()
}

func DecodeMatchingResult(frame []byte) (MatchingResult, error) {
	dec, err := newDecoder(frame, MsgMatchingResult, MatchingResultSize)
	if err != nil {
		return MatchingResult{}, err
	}
	var msg MatchingResult
	msg.OrderID = engine.OrderID(dec.uint64())
	msg.Result = engine.OrderMatchingResult(dec.byte())
	msg.Timestamp = dec.int64()
	return msg, nil
}

// Decode dispatches on the frame's type tag and returns one of *engine.Order,
// OrderAccept, Fill, Cancel, OrderTrigger or MatchingResult.
func Decode(frame []byte) (interface{}, error) {
	t, err := Peek(frame)
	if err != nil {
		return nil, err
	}
	switch t {
	case MsgNewOrder:
		return DecodeNewOrder(frame)
	case MsgOrderAccept:
		return DecodeOrderAccept(frame)
	case MsgFill:
		return DecodeFill(frame)
	case MsgCancel:
		return DecodeCancel(frame)
	case MsgOrderTrigger:
		return DecodeOrderTrigger(frame)
	case MsgMatchingResult:
		return DecodeMatchingResult(frame)
	}
	return nil, fmt.Errorf("wire: unknown message type %d", byte(t))
}
