package listener

import (
	"fmt"
	"io"

	"order-matcher/internal/engine"
	"order-matcher/internal/wire"
	"order-matcher/pkg/utils"
)

// Journal writes every notification to w as a wire frame. Each frame gets the
// next message sequence, starting at 1. The engine cannot observe listener
// failures, so the first encode or write error is kept and later events are
// dropped; callers check Err after a run.
type Journal struct {
	w        io.Writer
	sequence int64
	err      error
}

func NewJournal(w io.Writer) *Journal {
	return &Journal{w: w}
}

// Err returns the first error hit while journaling.
func (j *Journal) Err() error {
	return j.err
}

// Sequence returns the sequence of the last frame written.
func (j *Journal) Sequence() int64 {
	return j.sequence
}

func (j *Journal) OnAccept(a engine.Accept) {
	j.write(func(seq int64) ([]byte, error) {
		return wire.EncodeOrderAccept(wire.OrderAccept{Accept: a, MessageSequence: seq})
	})
}

func (j *Journal) OnTrade(t engine.Trade) {
	j.write(func(seq int64) ([]byte, error) {
		return wire.EncodeFill(wire.Fill{Trade: t, MessageSequence: seq})
	})
}

func (j *Journal) OnCancel(c engine.Cancellation) {
	j.write(func(seq int64) ([]byte, error) {
		return wire.EncodeCancel(wire.Cancel{Cancellation: c, MessageSequence: seq})
	})
}

func (j *Journal) OnTrigger(t engine.Trigger) {
	j.write(func(seq int64) ([]byte, error) {
		return wire.EncodeOrderTrigger(wire.OrderTrigger{Trigger: t, MessageSequence: seq})
	})
}

// RecordResult journals the synchronous outcome of a request. Results carry
// no message sequence.
func (j *Journal) RecordResult(orderID engine.OrderID, result engine.OrderMatchingResult, timestamp int64) {
	if j.err != nil {
		return
	}
	frame, err := wire.EncodeMatchingResult(wire.MatchingResult{OrderID: orderID, Result: result, Timestamp: timestamp})
	if err != nil {
		j.fail(err)
		return
	}
	if _, err := j.w.Write(frame); err != nil {
		j.fail(err)
	}
}

func (j *Journal) write(encode func(seq int64) ([]byte, error)) {
	if j.err != nil {
		return
	}
	frame, err := encode(j.sequence + 1)
	if err != nil {
		j.fail(err)
		return
	}
	if _, err := j.w.Write(frame); err != nil {
		j.fail(err)
		return
	}
	j.sequence++
}

func (j *Journal) fail(err error) {
	j.err = fmt.Errorf("journal at sequence %d: %w", j.sequence+1, err)
	utils.LogError(j.err)
}
