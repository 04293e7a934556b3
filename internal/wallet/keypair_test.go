package wallet

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/mr-tron/base58"
)

func TestKeypairFromBase58FullKey(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	kp, err := KeypairFromBase58(base58.Encode(priv))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if kp.Address() != base58.Encode(pub) {
		t.Fatalf("address mismatch: %s vs %s", kp.Address(), base58.Encode(pub))
	}

	msg := []byte("swap message")
	if !ed25519.Verify(pub, msg, kp.Sign(msg)) {
		t.Fatal("signature does not verify")
	}
}

func TestKeypairFromBase58Seed(t *testing.T) {
	seed := make([]byte, ed25519.SeedSize)
	if _, err := rand.Read(seed); err != nil {
		t.Fatalf("read seed: %v", err)
	}

	kp, err := KeypairFromBase58(base58.Encode(seed))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := ed25519.NewKeyFromSeed(seed).Public().(ed25519.PublicKey)
	if kp.Address() != base58.Encode(want) {
		t.Fatal("seed-derived address mismatch")
	}
}

func TestKeypairFromBase58Rejects(t *testing.T) {
	if _, err := KeypairFromBase58("not-base58-0OIl"); err == nil {
		t.Fatal("expected decode error")
	}
	if _, err := KeypairFromBase58(base58.Encode(make([]byte, 16))); err == nil {
		t.Fatal("expected length error")
	}
}
