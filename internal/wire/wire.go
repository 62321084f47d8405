// Package wire encodes engine requests and events as fixed-length
// little-endian frames.
//
// Every frame starts with an int32 total length, a one-byte message type and
// an int16 version. Prices, quantities and amounts travel as int64 fixed point
// with eight fractional digits.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/shopspring/decimal"
)

type MessageType byte

const (
	MsgNewOrder MessageType = iota + 1
	MsgOrderAccept
	MsgFill
	MsgCancel
	MsgOrderTrigger
	MsgMatchingResult
)

func (t MessageType) String() string {
	switch t {
	case MsgNewOrder:
		return "NewOrderRequest"
	case MsgOrderAccept:
		return "OrderAccept"
	case MsgFill:
		return "Fill"
	case MsgCancel:
		return "Cancel"
	case MsgOrderTrigger:
		return "OrderTrigger"
	case MsgMatchingResult:
		return "OrderMatchingResult"
	}
	return fmt.Sprintf("MessageType(%d)", byte(t))
}

const (
	Version int16 = 1

	// FixedPointScale is the number of fractional digits of encoded decimals.
	FixedPointScale = 8

	sizeOfLength  = 4
	sizeOfType    = 1
	sizeOfVersion = 2
	HeaderSize    = sizeOfLength + sizeOfType + sizeOfVersion

	sizeOfID       = 8
	sizeOfDecimal  = 8
	sizeOfInt64    = 8
	sizeOfOptional = 1 + sizeOfDecimal

	// MaxFrameSize bounds the length prefix accepted by ReadFrame.
	MaxFrameSize = 1 << 10
)

var (
	// ErrShortFrame is returned when a buffer is too small to hold a header.
	ErrShortFrame = errors.New("wire: frame shorter than header")

	maxFixed = decimal.NewFromInt(math.MaxInt64)
	minFixed = decimal.NewFromInt(math.MinInt64)
)

// LengthError reports a frame whose size does not match its message type.
type LengthError struct {
	Type MessageType
	Want int
	Got  int
}

func (e *LengthError) Error() string {
	return fmt.Sprintf("wire: %s must be %d bytes, got %d", e.Type, e.Want, e.Got)
}

// TypeError reports a frame decoded as the wrong message type.
type TypeError struct {
	Want MessageType
	Got  MessageType
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("wire: expected %s, got %s", e.Want, e.Got)
}

// VersionError reports a frame written by an unsupported protocol version.
type VersionError struct {
	Got int16
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("wire: unsupported version %d", e.Got)
}

// RangeError reports a decimal that cannot be carried as fixed point.
type RangeError struct {
	Field string
	Value decimal.Decimal
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("wire: %s=%s is not representable with %d decimals in 64 bits", e.Field, e.Value, FixedPointScale)
}

// Peek returns the message type of a framed message without decoding it.
func Peek(frame []byte) (MessageType, error) {
	if len(frame) < HeaderSize {
		return 0, ErrShortFrame
	}
	return MessageType(frame[sizeOfLength]), nil
}

// ReadFrame reads one length-prefixed frame from r. io.EOF is returned
// unchanged when r is exhausted between frames.
func ReadFrame(r io.Reader) ([]byte, error) {
	var prefix [sizeOfLength]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return nil, err
	}
	length := int(int32(binary.LittleEndian.Uint32(prefix[:])))
	if length < HeaderSize || length > MaxFrameSize {
		return nil, fmt.Errorf("wire: invalid frame length %d", length)
	}

	frame := make([]byte, length)
	copy(frame, prefix[:])
	if _, err := io.ReadFull(r, frame[sizeOfLength:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return frame, nil
}

func toFixed(field string, v decimal.Decimal) (int64, error) {
	scaled := v.Shift(FixedPointScale)
	if !scaled.Equal(scaled.Truncate(0)) || scaled.GreaterThan(maxFixed) || scaled.LessThan(minFixed) {
		return 0, &RangeError{Field: field, Value: v}
	}
	return scaled.IntPart(), nil
}

func fromFixed(v int64) decimal.Decimal {
	return decimal.New(v, -FixedPointScale)
}

// encoder writes fields sequentially into a pre-sized frame. The first error
// sticks and later writes are skipped.
type encoder struct {
	buf []byte
	off int
	err error
}

func newEncoder(t MessageType, size int) *encoder {
	enc := &encoder{buf: make([]byte, size)}
	enc.int32(int32(size))
	enc.byte(byte(t))
	enc.int16(Version)
	return enc
}

func (e *encoder) byte(v byte) {
	e.buf[e.off] = v
	e.off++
}

func (e *encoder) bool(v bool) {
	if v {
		e.byte(1)
		return
	}
	e.byte(0)
}

func (e *encoder) int16(v int16) {
	binary.LittleEndian.PutUint16(e.buf[e.off:], uint16(v))
	e.off += 2
}

func (e *encoder) int32(v int32) {
	binary.LittleEndian.PutUint32(e.buf[e.off:], uint32(v))
	e.off += 4
}

func (e *encoder) int64(v int64) {
	binary.LittleEndian.PutUint64(e.buf[e.off:], uint64(v))
	e.off += 8
}

func (e *encoder) uint64(v uint64) {
	binary.LittleEndian.PutUint64(e.buf[e.off:], v)
	e.off += 8
}

func (e *encoder) decimal(field string, v decimal.Decimal) {
	fixed, err := toFixed(field, v)
	if err != nil && e.err == nil {
		e.err = err
	}
	e.int64(fixed)
}

func (e *encoder) optional(field string, v decimal.NullDecimal) {
	e.bool(v.Valid)
	if !v.Valid {
		e.int64(0)
		return
	}
	e.decimal(field, v.Decimal)
}

func (e *encoder) bytes() ([]byte, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.buf, nil
}

// decoder reads fields sequentially from a frame whose header has already
// been checked by newDecoder: length first, then type, then version.
type decoder struct {
	buf []byte
	off int
}

func newDecoder(frame []byte, want MessageType, size int) (*decoder, error) {
	if len(frame) != size {
		return nil, &LengthError{Type: want, Want: size, Got: len(frame)}
	}
	if declared := int(int32(binary.LittleEndian.Uint32(frame))); declared != size {
		return nil, &LengthError{Type: want, Want: size, Got: declared}
	}
	if got := MessageType(frame[sizeOfLength]); got != want {
		return nil, &TypeError{Want: want, Got: got}
	}
	if v := int16(binary.LittleEndian.Uint16(frame[sizeOfLength+sizeOfType:])); v != Version {
		return nil, &VersionError{Got: v}
	}
	return &decoder{buf: frame, off: HeaderSize}, nil
}

func (d *decoder) byte() byte {
	v := d.buf[d.off]
	d.off++
	return v
}

func (d *decoder) bool() bool {
	return d.byte() != 0
}

func (d *decoder) int16() int16 {
	v := int16(binary.LittleEndian.Uint16(d.buf[d.off:]))
	d.off += 2
	return v
}

func (d *decoder) int64() int64 {
	v := int64(binary.LittleEndian.Uint64(d.buf[d.off:]))
	d.off += 8
	return v
}

func (d *decoder) uint64() uint64 {
	v := binary.LittleEndian.Uint64(d.buf[d.off:])
	d.off += 8
	return v
}

func (d *decoder) decimal() decimal.Decimal {
	return fromFixed(d.int64())
}

func (d *decoder) optional() decimal.NullDecimal {
	valid := d.bool()
	v := d.decimal()
	if !valid {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(v)
}
