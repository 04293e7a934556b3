// Package wallet signs and submits swap transactions for one keypair.
package wallet

import (
	"crypto/ed25519"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// Keypair is an ed25519 signing key with its base58 public address.
type Keypair struct {
	priv    ed25519.PrivateKey
	address string
}

// KeypairFromBase58 decodes a base58 secret key. Accepts the 64-byte
// seed+pubkey form exported by Solana wallets, or a bare 32-byte seed.
func KeypairFromBase58(secret string) (*Keypair, error) {
	raw, err := base58.Decode(secret)
	if err != nil {
		return nil, fmt.Errorf("decode secret key: %w", err)
	}

	var priv ed25519.PrivateKey
	switch len(raw) {
	case ed25519.PrivateKeySize:
		priv = ed25519.PrivateKey(raw)
	case ed25519.SeedSize:
		priv = ed25519.NewKeyFromSeed(raw)
	default:
		return nil, fmt.Errorf("secret key must be %d or %d bytes, got %d",
			ed25519.SeedSize, ed25519.PrivateKeySize, len(raw))
	}

	pub := priv.Public().(ed25519.PublicKey)
	if !isOnCurve(pub) {
		return nil, fmt.Errorf("public key is not a valid curve point")
	}

	return &Keypair{priv: priv, address: base58.Encode(pub)}, nil
}

// Address returns the base58-encoded public key.
func (k *Keypair) Address() string { return k.address }

// Sign returns the ed25519 signature of msg.
func (k *Keypair) Sign(msg []byte) []byte {
	return ed25519.Sign(k.priv, msg)
}

func isOnCurve(point []byte) bool {
	if len(point) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}
