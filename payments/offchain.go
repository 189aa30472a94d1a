package payments

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/velora-social/boostd/common"
	"github.com/velora-social/boostd/model"
	"github.com/velora-social/boostd/util"
)

const (
	offchainCapWindow = 24 * time.Hour
	refundLockTTL     = 30 * time.Second
)

// WalletLedger is the internal token ledger. Debit runs the spend cap check
// and the transfer atomically per user.
type WalletLedger interface {
	DebitWallet(ctx context.Context, userGuid uint64, amount, cap decimal.Decimal, window time.Duration, txType string, boostGuid uint64) (*model.OffchainTransaction, error)
	CreditWallet(ctx context.Context, userGuid uint64, amount decimal.Decimal, txType string, boostGuid uint64) (*model.OffchainTransaction, error)
	GetOffchainTransaction(ctx context.Context, txID string) (*model.OffchainTransaction, error)
}

// LockManager hands out the short lived refund locks. Contention surfaces
// as common.ErrLockFailed, never as a silent skip.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) error
}

// OffchainRail debits the wallet at creation inside one logical
// transaction. Refund is a symmetric credit guarded by boost:refund:{guid}.
type OffchainRail struct {
	ledger   WalletLedger
	locks    LockManager
	spendCap decimal.Decimal
}

func NewOffchainRail(ledger WalletLedger, locks LockManager, spendCap decimal.Decimal) *OffchainRail {
	return &OffchainRail{
		ledger:   ledger,
		locks:    locks,
		spendCap: spendCap,
	}
}

func (r *OffchainRail) Pay(ctx context.Context, b *model.Boost, details Details) (string, error) {
	entry, err := r.ledger.DebitWallet(ctx, b.OwnerGuid, b.Bid, r.spendCap, offchainCapWindow, "boost", b.Guid)
	if err != nil {
		return "", err
	}
	return entry.TxID, nil
}

// Charge is a no-op: offchain funds moved at Pay time.
func (r *OffchainRail) Charge(ctx context.Context, b *model.Boost) error {
	return nil
}

func (r *OffchainRail) Refund(ctx context.Context, b *model.Boost) error {
	// the lock is left to expire: a second refund attempt inside the TTL
	// must be visible as an error, not a no-op
	if err := r.locks.Acquire(ctx, util.BoostRefundLockKey(b.Guid), refundLockTTL); err != nil {
		return err
	}

	_, err := r.ledger.CreditWallet(ctx, b.OwnerGuid, b.Bid, "boost_refund", b.Guid)
	return err
}

func (r *OffchainRail) Verify(ctx context.Context, b *model.Boost) (common.TxVerifyState, error) {
	if b.TransactionID == "" {
		return common.TxVerifyPending, nil
	}
	entry, err := r.ledger.GetOffchainTransaction(ctx, b.TransactionID)
	if err != nil {
		return 0, err
	}
	if entry == nil {
		return common.TxVerifyFailed, nil
	}
	return common.TxVerifyConfirmed, nil
}
