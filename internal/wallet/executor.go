package wallet

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/mr-tron/base58"
	"go.uber.org/zap"

	"solana-trade-engine/internal/observability"
	"solana-trade-engine/internal/quote"
	"solana-trade-engine/internal/solana"
)

// ErrUnconfirmed is the terminal message when the confirmation attempt
// budget runs out. Tests match it verbatim.
const ErrUnconfirmed = "Could not confirm transaction status"

// Confirmation polling budget.
const (
	ConfirmAttempts  = 10
	ConfirmBaseDelay = time.Second
	ConfirmGrowth    = 1.5
	ConfirmMaxDelay  = 8 * time.Second
)

// Result is the outcome of one swap attempt. Error is set and Success false
// on any failure; the pair is never inconsistent.
type Result struct {
	Success   bool
	Signature string
	InAmount  uint64
	OutAmount uint64
	Error     string
}

// Executor signs and submits swaps and reports balances.
type Executor interface {
	Buy(ctx context.Context, tokenAddress string, amountLamports uint64, slippageBps int) (*Result, error)
	Sell(ctx context.Context, tokenAddress string, amountBaseUnits uint64, slippageBps int) (*Result, error)
	Balance(ctx context.Context) (uint64, error)
	TokenBalance(ctx context.Context, mint string) (*solana.TokenBalance, error)
	Address() string
}

// QuoteProvider is the slice of the swap-aggregator client the executor
// needs.
type QuoteProvider interface {
	GetQuote(ctx context.Context, inputMint, outputMint string, amount uint64, slippageBps int) (*quote.Quote, error)
	GetSwapTransaction(ctx context.Context, q *quote.Quote, userPublicKey string) (string, error)
}

// SolanaExecutor executes swaps through a swap aggregator and a JSON-RPC
// endpoint.
type SolanaExecutor struct {
	keypair *Keypair
	rpc     solana.RPCClient
	quotes  QuoteProvider
	logger  *zap.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

var _ Executor = (*SolanaExecutor)(nil)

func NewSolanaExecutor(keypair *Keypair, rpc solana.RPCClient, quotes QuoteProvider, logger *zap.Logger) *SolanaExecutor {
	return &SolanaExecutor{
		keypair: keypair,
		rpc:     rpc,
		quotes:  quotes,
		logger:  logger,
		sleep:   sleepCtx,
	}
}

func (e *SolanaExecutor) Address() string { return e.keypair.Address() }

func (e *SolanaExecutor) Balance(ctx context.Context) (uint64, error) {
	return e.rpc.GetBalance(ctx, e.keypair.Address())
}

func (e *SolanaExecutor) TokenBalance(ctx context.Context, mint string) (*solana.TokenBalance, error) {
	return e.rpc.GetTokenBalance(ctx, e.keypair.Address(), mint)
}

// Buy swaps SOL into the token.
func (e *SolanaExecutor) Buy(ctx context.Context, tokenAddress string, amountLamports uint64, slippageBps int) (*Result, error) {
	return e.swap(ctx, solana.WSOLMint, tokenAddress, amountLamports, slippageBps)
}

// Sell swaps the token back into SOL.
func (e *SolanaExecutor) Sell(ctx context.Context, tokenAddress string, amountBaseUnits uint64, slippageBps int) (*Result, error) {
	return e.swap(ctx, tokenAddress, solana.WSOLMint, amountBaseUnits, slippageBps)
}

func (e *SolanaExecutor) swap(ctx context.Context, inputMint, outputMint string, amount uint64, slippageBps int) (*Result, error) {
	q, err := e.quotes.GetQuote(ctx, inputMint, outputMint, amount, slippageBps)
	if err != nil {
		return failure(fmt.Sprintf("quote: %v", err)), nil
	}

	txBase64, err := e.quotes.GetSwapTransaction(ctx, q, e.keypair.Address())
	if err != nil {
		return failure(fmt.Sprintf("swap transaction: %v", err)), nil
	}

	raw, err := base64.StdEncoding.DecodeString(txBase64)
	if err != nil {
		return failure(fmt.Sprintf("decode transaction: %v", err)), nil
	}
	tx, err := ParseTransaction(raw)
	if err != nil {
		return failure(fmt.Sprintf("parse transaction: %v", err)), nil
	}

	// Restamp with a fresh blockhash so the aggregator's (possibly stale)
	// one cannot expire the transaction, then re-sign.
	blockhash, err := e.rpc.GetLatestBlockhash(ctx)
	if err != nil {
		return failure(fmt.Sprintf("latest blockhash: %v", err)), nil
	}
	hashBytes, err := base58.Decode(blockhash)
	if err != nil {
		return failure(fmt.Sprintf("decode blockhash: %v", err)), nil
	}
	if err := tx.SetBlockhash(hashBytes); err != nil {
		return failure(err.Error()), nil
	}
	if err := tx.SetSignature(0, e.keypair.Sign(tx.Message())); err != nil {
		return failure(err.Error()), nil
	}

	signature, err := e.rpc.SendTransaction(ctx, base64.StdEncoding.EncodeToString(tx.Serialize()))
	if err != nil {
		return failure(fmt.Sprintf("send transaction: %v", err)), nil
	}

	e.logger.Info("transaction submitted",
		zap.String("signature", signature),
		zap.String("input_mint", inputMint),
		zap.String("output_mint", outputMint),
		zap.Uint64("amount", amount),
		zap.Int("slippage_bps", slippageBps))

	if err := e.confirm(ctx, signature); err != nil {
		res := failure(err.Error())
		res.Signature = signature
		return res, nil
	}

	return &Result{
		Success:   true,
		Signature: signature,
		InAmount:  q.InAmount,
		OutAmount: q.OutAmount,
	}, nil
}

// confirm polls signature status with bounded exponential backoff. The
// attempt budget is fixed; exhaustion is a terminal failure, never retried
// from a fresh budget.
func (e *SolanaExecutor) confirm(ctx context.Context, signature string) error {
	delay := ConfirmBaseDelay
	for attempt := 1; attempt <= ConfirmAttempts; attempt++ {
		if err := e.sleep(ctx, delay); err != nil {
			return err
		}

		status, err := e.rpc.GetSignatureStatus(ctx, signature)
		if err != nil {
			e.logger.Warn("signature status poll failed",
				zap.String("signature", signature),
				zap.Int("attempt", attempt),
				zap.Error(err))
		} else {
			if status.Confirmed() {
				observability.RecordConfirmationPolls(attempt)
				return nil
			}
			if status != nil && status.Err != nil {
				return fmt.Errorf("transaction failed on chain: %v", status.Err)
			}
		}

		delay = time.Duration(float64(delay) * ConfirmGrowth)
		if delay > ConfirmMaxDelay {
			delay = ConfirmMaxDelay
		}
	}
	return fmt.Errorf("%s", ErrUnconfirmed)
}

func failure(msg string) *Result {
	return &Result{Success: false, Error: msg}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
