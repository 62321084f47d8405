package engine

import (
	"container/list"
	"fmt"
	"sort"

	"github.com/google/btree"
	"github.com/shopspring/decimal"
)

const btreeDegree = 32

type SideKind uint8

const (
	AskSide SideKind = iota
	BidSide
	StopAskSide
	StopBidSide
)

func (k SideKind) String() string {
	switch k {
	case AskSide:
		return "ask"
	case BidSide:
		return "bid"
	case StopAskSide:
		return "stop-ask"
	case StopBidSide:
		return "stop-bid"
	}
	return "unknown"
}

// PriceLevel is the FIFO queue of orders resting at one price.
type PriceLevel struct {
	Price  decimal.Decimal
	orders *list.List
}

func newPriceLevel(price decimal.Decimal) *PriceLevel {
	return &PriceLevel{Price: price, orders: list.New()}
}

func (pl *PriceLevel) Len() int {
	return pl.orders.Len()
}

// Front returns the order with time priority at this level.
func (pl *PriceLevel) Front() *Order {
	if e := pl.orders.Front(); e != nil {
		return e.Value.(*Order)
	}
	return nil
}

// Orders returns the queue in FIFO order.
func (pl *PriceLevel) Orders() []*Order {
	out := make([]*Order, 0, pl.orders.Len())
	for e := pl.orders.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(*Order))
	}
	return out
}

// Quantity is the visible quantity at this level.
func (pl *PriceLevel) Quantity() decimal.Decimal {
	total := decimal.Zero
	for e := pl.orders.Front(); e != nil; e = e.Next() {
		total = total.Add(e.Value.(*Order).OpenQuantity)
	}
	return total
}

// BookSide is one of the four price-keyed containers of the book.
// Ask sides iterate lowest price first, bid sides highest price first.
type BookSide struct {
	kind   SideKind
	levels *btree.BTreeG[*PriceLevel]
}

func newBookSide(kind SideKind) *BookSide {
	less := func(a, b *PriceLevel) bool { return a.Price.LessThan(b.Price) }
	if kind == BidSide || kind == StopBidSide {
		less = func(a, b *PriceLevel) bool { return a.Price.GreaterThan(b.Price) }
	}
	return &BookSide{kind: kind, levels: btree.NewG[*PriceLevel](btreeDegree, less)}
}

// Len returns the number of price levels.
func (s *BookSide) Len() int {
	return s.levels.Len()
}

// Best returns the first level in priority order, or nil.
func (s *BookSide) Best() *PriceLevel {
	level, ok := s.levels.Min()
	if !ok {
		return nil
	}
	return level
}

// Level returns the level at price, or nil.
func (s *BookSide) Level(price decimal.Decimal) *PriceLevel {
	level, ok := s.levels.Get(&PriceLevel{Price: price})
	if !ok {
		return nil
	}
	return level
}

// Orders returns every order in priority order.
func (s *BookSide) Orders() []*Order {
	var out []*Order
	s.levels.Ascend(func(level *PriceLevel) bool {
		out = append(out, level.Orders()...)
		return true
	})
	return out
}

// Each walks orders in priority order until fn returns false.
func (s *BookSide) Each(fn func(*Order) bool) {
	s.levels.Ascend(func(level *PriceLevel) bool {
		for e := level.orders.Front(); e != nil; e = e.Next() {
			if !fn(e.Value.(*Order)) {
				return false
			}
		}
		return true
	})
}

type bookEntry struct {
	side  *BookSide
	level *PriceLevel
	elem  *list.Element
}

// Book holds resting and pending-stop orders of one instrument. It is not
// safe for concurrent use; the engine serialises access.
type Book struct {
	asks     *BookSide
	bids     *BookSide
	stopAsks *BookSide
	stopBids *BookSide
	index    map[OrderID]*bookEntry
}

func NewBook() *Book {
	return &Book{
		asks:     newBookSide(AskSide),
		bids:     newBookSide(BidSide),
		stopAsks: newBookSide(StopAskSide),
		stopBids: newBookSide(StopBidSide),
		index:    make(map[OrderID]*bookEntry),
	}
}

func (b *Book) AskSide() *BookSide     { return b.asks }
func (b *Book) BidSide() *BookSide     { return b.bids }
func (b *Book) StopAskSide() *BookSide { return b.stopAsks }
func (b *Book) StopBidSide() *BookSide { return b.stopBids }

func (b *Book) Side(kind SideKind) *BookSide {
	switch kind {
	case AskSide:
		return b.asks
	case BidSide:
		return b.bids
	case StopAskSide:
		return b.stopAsks
	case StopBidSide:
		return b.stopBids
	}
	panic(fmt.Sprintf("orderbook: unknown side %d", kind))
}

// BestAsk returns the lowest ask level, or nil.
func (b *Book) BestAsk() *PriceLevel {
	return b.asks.Best()
}

// BestBid returns the highest bid level, or nil.
func (b *Book) BestBid() *PriceLevel {
	return b.bids.Best()
}

func (b *Book) Contains(id OrderID) bool {
	_, ok := b.index[id]
	return ok
}

// SideOf reports which container holds the order.
func (b *Book) SideOf(id OrderID) (SideKind, bool) {
	entry, ok := b.index[id]
	if !ok {
		return 0, false
	}
	return entry.side.kind, true
}

// Insert appends the order to the tail of its price level on the given side.
// Stop sides are keyed by StopPrice, active sides by Price.
func (b *Book) Insert(order *Order, kind SideKind) {
	if _, ok := b.index[order.OrderID]; ok {
		panic(fmt.Sprintf("orderbook: order %d is already in the book", order.OrderID))
	}
	side := b.Side(kind)
	price := order.Price
	if kind == StopAskSide || kind == StopBidSide {
		price = order.StopPrice
	}
	level := side.Level(price)
	if level == nil {
		level = newPriceLevel(price)
		side.levels.ReplaceOrInsert(level)
	}
	b.index[order.OrderID] = &bookEntry{side: side, level: level, elem: level.orders.PushBack(order)}
}

// Remove takes the order out of whichever container holds it. Removing an
// order that is not in the book is a defect.
func (b *Book) Remove(order *Order) {
	entry, ok := b.index[order.OrderID]
	if !ok {
		panic(fmt.Sprintf("orderbook: order %d is not in the book", order.OrderID))
	}
	entry.level.orders.Remove(entry.elem)
	if entry.level.orders.Len() == 0 {
		entry.side.levels.Delete(entry.level)
	}
	delete(b.index, order.OrderID)
}

// ArmedStops returns the stop orders triggered by tradePrice, in ascending
// Sequence. Buy stops arm at tradePrice >= StopPrice, sell stops at
// tradePrice <= StopPrice.
func (b *Book) ArmedStops(tradePrice decimal.Decimal) []*Order {
	var armed []*Order
	pivot := &PriceLevel{Price: tradePrice}
	collect := func(level *PriceLevel) bool {
		armed = append(armed, level.Orders()...)
		return true
	}
	// Both trees yield the levels on the triggered side of the pivot.
	b.stopAsks.levels.AscendGreaterOrEqual(pivot, collect)
	b.stopBids.levels.AscendGreaterOrEqual(pivot, collect)
	sort.Slice(armed, func(i, j int) bool { return armed[i].Sequence < armed[j].Sequence })
	return armed
}

// Crossed reports whether the best bid is at or above the best ask.
func (b *Book) Crossed() bool {
	ask, bid := b.BestAsk(), b.BestBid()
	if ask == nil || bid == nil {
		return false
	}
	return bid.Price.GreaterThanOrEqual(ask.Price)
}

// Len returns the number of orders held in all four containers.
func (b *Book) Len() int {
	return len(b.index)
}

// DepthLevel is one aggregated row of a market-depth view.
type DepthLevel struct {
	Price    decimal.Decimal
	Quantity decimal.Decimal
	Orders   int
}

// Depth aggregates the visible quantity of up to n levels of an active side.
func (s *BookSide) Depth(n int) []DepthLevel {
	var out []DepthLevel
	s.levels.Ascend(func(level *PriceLevel) bool {
		if n > 0 && len(out) == n {
			return false
		}
		out = append(out, DepthLevel{Price: level.Price, Quantity: level.Quantity(), Orders: level.Len()})
		return true
	})
	return out
}
