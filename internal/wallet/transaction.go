package wallet

import (
	"fmt"
)

// Transaction is a wire-format Solana transaction held as raw bytes with the
// offsets needed to restamp the blockhash and install the fee payer
// signature. Supports legacy and v0 message formats.
type Transaction struct {
	raw             []byte
	sigCount        int
	msgStart        int
	blockhashOffset int // absolute offset into raw
}

const (
	signatureLen = 64
	blockhashLen = 32
	accountLen   = 32
)

// ParseTransaction locates the message and blockhash inside a serialized
// transaction produced by a swap aggregator.
func ParseTransaction(raw []byte) (*Transaction, error) {
	sigCount, n, err := decodeCompactU16(raw, 0)
	if err != nil {
		return nil, fmt.Errorf("signature count: %w", err)
	}
	msgStart := n + sigCount*signatureLen
	if msgStart >= len(raw) {
		return nil, fmt.Errorf("transaction truncated before message")
	}

	pos := msgStart
	// v0 messages carry a version prefix with the high bit set.
	if raw[pos]&0x80 != 0 {
		pos++
	}

	// Message header: three u8 counts.
	pos += 3
	if pos >= len(raw) {
		return nil, fmt.Errorf("transaction truncated in header")
	}

	numKeys, n, err := decodeCompactU16(raw, pos)
	if err != nil {
		return nil, fmt.Errorf("account count: %w", err)
	}
	pos += n + numKeys*accountLen
	if pos+blockhashLen > len(raw) {
		return nil, fmt.Errorf("transaction truncated before blockhash")
	}

	return &Transaction{
		raw:             raw,
		sigCount:        sigCount,
		msgStart:        msgStart,
		blockhashOffset: pos,
	}, nil
}

// SetBlockhash overwrites the recent blockhash in place. Must be followed by
// re-signing: the message bytes changed.
func (t *Transaction) SetBlockhash(hash []byte) error {
	if len(hash) != blockhashLen {
		return fmt.Errorf("blockhash must be %d bytes, got %d", blockhashLen, len(hash))
	}
	copy(t.raw[t.blockhashOffset:], hash)
	return nil
}

// Message returns the bytes covered by transaction signatures.
func (t *Transaction) Message() []byte {
	return t.raw[t.msgStart:]
}

// SetSignature installs sig in the i-th signature slot. Slot 0 is the fee
// payer.
func (t *Transaction) SetSignature(i int, sig []byte) error {
	if i < 0 || i >= t.sigCount {
		return fmt.Errorf("signature slot %d out of range (%d slots)", i, t.sigCount)
	}
	if len(sig) != signatureLen {
		return fmt.Errorf("signature must be %d bytes, got %d", signatureLen, len(sig))
	}
	_, n, _ := decodeCompactU16(t.raw, 0)
	copy(t.raw[n+i*signatureLen:], sig)
	return nil
}

// Serialize returns the wire bytes.
func (t *Transaction) Serialize() []byte { return t.raw }

// decodeCompactU16 reads a compact-u16 (shortvec) length prefix.
func decodeCompactU16(b []byte, pos int) (value, bytesRead int, err error) {
	for i := 0; i < 3; i++ {
		if pos+i >= len(b) {
			return 0, 0, fmt.Errorf("unexpected end of input")
		}
		c := int(b[pos+i])
		value |= (c & 0x7f) << (7 * i)
		if c&0x80 == 0 {
			return value, i + 1, nil
		}
	}
	return 0, 0, fmt.Errorf("compact-u16 too long")
}
