package listener

import (
	"github.com/sirupsen/logrus"

	"order-matcher/internal/engine"
)

// Nop discards every notification.
type Nop struct{}

func (Nop) OnAccept(engine.Accept) {}

func (Nop) OnTrade(engine.Trade) {}

func (Nop) OnCancel(engine.Cancellation) {}

func (Nop) OnTrigger(engine.Trigger) {}

// LogListener writes every notification as a structured log entry.
type LogListener struct {
	logger *logrus.Logger
}

func NewLogListener(logger *logrus.Logger) *LogListener {
	return &LogListener{logger: logger}
}

func (l *LogListener) OnAccept(a engine.Accept) {
	l.logger.WithFields(logrus.Fields{
		"order_id":  a.OrderID,
		"user_id":   a.UserID,
		"timestamp": a.Timestamp,
	}).Info("Order accepted")
}

func (l *LogListener) OnTrade(t engine.Trade) {
	fields := logrus.Fields{
		"maker_order_id": t.MakerOrderID,
		"taker_order_id": t.TakerOrderID,
		"price":          t.MatchPrice.String(),
		"quantity":       t.MatchQuantity.String(),
		"timestamp":      t.Timestamp,
	}
	if t.AskRemainingQuantity.Valid {
		fields["ask_remaining"] = t.AskRemainingQuantity.Decimal.String()
		fields["ask_fee"] = t.AskFee.Decimal.String()
	}
	if t.BidCost.Valid {
		fields["bid_cost"] = t.BidCost.Decimal.String()
		fields["bid_fee"] = t.BidFee.Decimal.String()
	}
	l.logger.WithFields(fields).Info("Trade executed")
}

func (l *LogListener) OnCancel(c engine.Cancellation) {
	l.logger.WithFields(logrus.Fields{
		"order_id":  c.OrderID,
		"user_id":   c.UserID,
		"remaining": c.RemainingQuantity.String(),
		"cost":      c.Cost.String(),
		"fee":       c.Fee.String(),
		"reason":    c.Reason.String(),
		"timestamp": c.Timestamp,
	}).Info("Order cancelled")
}

func (l *LogListener) OnTrigger(t engine.Trigger) {
	l.logger.WithFields(logrus.Fields{
		"order_id":  t.OrderID,
		"user_id":   t.UserID,
		"timestamp": t.Timestamp,
	}).Info("Stop order triggered")
}

// Multi fans every notification out to its listeners in registration order.
type Multi []engine.TradeListener

func (m Multi) OnAccept(a engine.Accept) {
	for _, l := range m {
		l.OnAccept(a)
	}
}

func (m Multi) OnTrade(t engine.Trade) {
	for _, l := range m {
		l.OnTrade(t)
	}
}

func (m Multi) OnCancel(c engine.Cancellation) {
	for _, l := range m {
		l.OnCancel(c)
	}
}

func (m Multi) OnTrigger(t engine.Trigger) {
	for _, l := range m {
		l.OnTrigger(t)
	}
}
