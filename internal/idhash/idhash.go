package idhash

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"solana-trade-engine/internal/domain"
)

// ComputePositionID computes a deterministic position_id using SHA256.
// Formula: SHA256(token|recommender|direction|timestamp_ms|nonce)
// Returns hex-encoded hash (64 characters).
func ComputePositionID(
	tokenAddress string,
	recommenderID string,
	direction domain.TradeDirection,
	timestampMs int64,
	nonce uint64,
) string {
	data := fmt.Sprintf("%s|%s|%s|%d|%d",
		tokenAddress,
		recommenderID,
		string(direction),
		timestampMs,
		nonce,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// NewPositionID returns a fresh position_id for one trade attempt.
// The random nonce keeps IDs unique even when two attempts for the same
// token land on the same millisecond.
func NewPositionID(tokenAddress, recommenderID string, direction domain.TradeDirection, timestampMs int64) string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return ComputePositionID(tokenAddress, recommenderID, direction, timestampMs, binary.BigEndian.Uint64(b[:]))
}
