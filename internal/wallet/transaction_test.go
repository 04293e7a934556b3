package wallet

import (
	"bytes"
	"testing"
)

// buildLegacyTx assembles a minimal legacy transaction: sigCount signature
// slots, a 3-byte header, numKeys account keys, a blockhash, no instructions.
func buildLegacyTx(sigCount, numKeys int, blockhash byte) []byte {
	var buf bytes.Buffer
	buf.WriteByte(byte(sigCount))
	buf.Write(make([]byte, sigCount*signatureLen))
	buf.Write([]byte{1, 0, 1}) // header
	buf.WriteByte(byte(numKeys))
	buf.Write(make([]byte, numKeys*accountLen))
	hash := make([]byte, blockhashLen)
	for i := range hash {
		hash[i] = blockhash
	}
	buf.Write(hash)
	buf.WriteByte(0) // no instructions
	return buf.Bytes()
}

func TestParseTransactionLegacy(t *testing.T) {
	raw := buildLegacyTx(1, 3, 0xAA)
	tx, err := ParseTransaction(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx.sigCount != 1 {
		t.Fatalf("expected 1 signature slot, got %d", tx.sigCount)
	}
	want := 1 + signatureLen
	if tx.msgStart != want {
		t.Fatalf("expected message at %d, got %d", want, tx.msgStart)
	}
	for _, b := range raw[tx.blockhashOffset : tx.blockhashOffset+blockhashLen] {
		if b != 0xAA {
			t.Fatal("blockhash offset does not point at the blockhash")
		}
	}
}

func TestParseTransactionV0(t *testing.T) {
	legacy := buildLegacyTx(1, 2, 0xBB)
	// Splice the version prefix in front of the message.
	msgStart := 1 + signatureLen
	raw := append([]byte{}, legacy[:msgStart]...)
	raw = append(raw, 0x80)
	raw = append(raw, legacy[msgStart:]...)

	tx, err := ParseTransaction(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, b := range raw[tx.blockhashOffset : tx.blockhashOffset+blockhashLen] {
		if b != 0xBB {
			t.Fatal("blockhash offset does not point at the blockhash")
		}
	}
}

func TestSetBlockhashAndSignature(t *testing.T) {
	raw := buildLegacyTx(1, 3, 0x00)
	tx, err := ParseTransaction(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	hash := bytes.Repeat([]byte{0xCC}, blockhashLen)
	if err := tx.SetBlockhash(hash); err != nil {
		t.Fatalf("set blockhash: %v", err)
	}
	if !bytes.Contains(tx.Serialize(), hash) {
		t.Fatal("blockhash not written")
	}

	sig := bytes.Repeat([]byte{0xDD}, signatureLen)
	if err := tx.SetSignature(0, sig); err != nil {
		t.Fatalf("set signature: %v", err)
	}
	if !bytes.Equal(tx.Serialize()[1:1+signatureLen], sig) {
		t.Fatal("signature not installed in slot 0")
	}

	if err := tx.SetSignature(1, sig); err == nil {
		t.Fatal("expected out-of-range signature slot error")
	}
	if err := tx.SetBlockhash([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected short blockhash error")
	}
}

func TestParseTransactionTruncated(t *testing.T) {
	raw := buildLegacyTx(1, 3, 0x00)
	for _, cut := range []int{0, 1, 40, 70} {
		if _, err := ParseTransaction(raw[:cut]); err == nil {
			t.Fatalf("expected error for %d-byte prefix", cut)
		}
	}
}

func TestDecodeCompactU16(t *testing.T) {
	tests := []struct {
		in    []byte
		value int
		n     int
	}{
		{[]byte{0x00}, 0, 1},
		{[]byte{0x7f}, 127, 1},
		{[]byte{0x80, 0x01}, 128, 2},
		{[]byte{0xff, 0x01}, 255, 2},
		{[]byte{0x80, 0x80, 0x01}, 16384, 3},
	}
	for _, tt := range tests {
		v, n, err := decodeCompactU16(tt.in, 0)
		if err != nil {
			t.Fatalf("%v: unexpected error: %v", tt.in, err)
		}
		if v != tt.value || n != tt.n {
			t.Fatalf("%v: got (%d,%d), want (%d,%d)", tt.in, v, n, tt.value, tt.n)
		}
	}

	if _, _, err := decodeCompactU16([]byte{0x80}, 0); err == nil {
		t.Fatal("expected error for truncated encoding")
	}
}
