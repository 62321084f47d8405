// Package scenario replays a yaml order flow against a matching engine.
package scenario

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"order-matcher/internal/engine"
)

const (
	ActionAdd    = "add"
	ActionCancel = "cancel"
	ActionExpire = "expire"
)

var ErrUnknownAction = errors.New("unknown scenario action")

// Step is one request of the flow. At is the request timestamp; when zero it
// defaults to the previous step's timestamp plus one.
type Step struct {
	Action string `yaml:"action"`
	At     int64  `yaml:"at"`

	OrderID   uint64          `yaml:"id"`
	UserID    uint64          `yaml:"user"`
	Side      string          `yaml:"side"`
	Price     decimal.Decimal `yaml:"price"`
	Quantity  decimal.Decimal `yaml:"quantity"`
	StopPrice decimal.Decimal `yaml:"stop_price"`
	Total     decimal.Decimal `yaml:"total"`
	Tip       decimal.Decimal `yaml:"tip"`
	Amount    decimal.Decimal `yaml:"amount"`
	Condition string          `yaml:"condition"`
	CancelOn  int64           `yaml:"cancel_on"`
	FeeID     int16           `yaml:"fee_id"`
}

type Scenario struct {
	Steps []Step `yaml:"steps"`
}

// Outcome is the result of one step. Expired is set for expire steps only.
type Outcome struct {
	Step      int
	Action    string
	OrderID   engine.OrderID
	Result    engine.OrderMatchingResult
	Expired   int
	Timestamp int64
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	for i := range s.Steps {
		if err := s.Steps[i].check(); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return &s, nil
}

func (s Step) check() error {
	switch s.Action {
	case ActionAdd:
		if _, err := s.Order(); err != nil {
			return err
		}
	case ActionCancel, ActionExpire:
	default:
		return fmt.Errorf("%w %q", ErrUnknownAction, s.Action)
	}
	return nil
}

// Order builds the engine order described by an add step.
func (s Step) Order() (*engine.Order, error) {
	order := &engine.Order{
		OrderID:       engine.OrderID(s.OrderID),
		UserID:        engine.UserID(s.UserID),
		Price:         s.Price,
		OpenQuantity:  s.Quantity,
		StopPrice:     s.StopPrice,
		TotalQuantity: s.Total,
		TipQuantity:   s.Tip,
		OrderAmount:   s.Amount,
		CancelOn:      s.CancelOn,
		FeeID:         s.FeeID,
	}

	switch strings.ToLower(s.Side) {
	case "buy", "bid":
		order.IsBuy = true
	case "sell", "ask":
	default:
		return nil, fmt.Errorf("unknown side %q", s.Side)
	}

	switch strings.ToLower(s.Condition) {
	case "", "gtc":
		order.OrderCondition = engine.GoodTillCancel
	case "ioc":
		order.OrderCondition = engine.ImmediateOrCancel
	case "fok":
		order.OrderCondition = engine.FillOrKill
	default:
		return nil, fmt.Errorf("unknown condition %q", s.Condition)
	}
	return order, nil
}

// Run executes the steps in order. report, when non-nil, is called after
// each step.
func Run(e *engine.MatchingEngine, steps []Step, report func(Outcome)) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(steps))
	var now int64
	for i, step := range steps {
		if step.At != 0 {
			now = step.At
		} else {
			now++
		}

		outcome := Outcome{Step: i + 1, Action: step.Action, OrderID: engine.OrderID(step.OrderID), Timestamp: now}
		switch step.Action {
		case ActionAdd:
			order, err := step.Order()
			if err != nil {
				return outcomes, fmt.Errorf("step %d: %w", i+1, err)
			}
			outcome.Result = e.AddOrder(order, now)
		case ActionCancel:
			outcome.Result = e.CancelOrder(engine.OrderID(step.OrderID), now)
		case ActionExpire:
			outcome.Expired = e.CancelExpiredOrders(now)
		default:
			return outcomes, fmt.Errorf("step %d: %w %q", i+1, ErrUnknownAction, step.Action)
		}

		outcomes = append(outcomes, outcome)
		if report != nil {
			report(outcome)
		}
	}
	return outcomes, nil
}
