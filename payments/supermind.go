package payments

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/xerrors"

	"github.com/velora-social/boostd/common"
	"github.com/velora-social/boostd/model"
	"github.com/velora-social/boostd/util"
)

// SupermindProcessor handles paid reply offers. Cash offers authorize at
// creation and capture on acceptance; offchain token offers debit the
// sender's wallet up front and reimburse on any non-accepted outcome.
type SupermindProcessor struct {
	intents  IntentsBackend
	ledger   WalletLedger
	locks    LockManager
	spendCap decimal.Decimal
}

func NewSupermindProcessor(intents IntentsBackend, ledger WalletLedger, locks LockManager, spendCap decimal.Decimal) *SupermindProcessor {
	return &SupermindProcessor{
		intents:  intents,
		ledger:   ledger,
		locks:    locks,
		spendCap: spendCap,
	}
}

// Authorize reserves the offer amount and returns the payment reference.
func (p *SupermindProcessor) Authorize(ctx context.Context, r *model.SupermindRequest, paymentMethodID string) (string, error) {
	switch common.PaymentMethod(r.PaymentMethod) {
	case common.PaymentMethodCash:
		if paymentMethodID == "" {
			return "", common.Validation("Payment method ID must be supplied")
		}
		amountCents := r.Amount.Mul(centsPerDollar).IntPart()
		intentID, err := p.intents.Create(ctx, amountCents, paymentMethodID, map[string]string{
			"supermind_guid": fmt.Sprintf("%d", r.Guid),
			"user_guid":      fmt.Sprintf("%d", r.SenderGuid),
		})
		if err != nil {
			return "", xerrors.Errorf("card authorization: %v: %w", err, common.ErrPaymentIntentFailed)
		}
		return intentID, nil

	case common.PaymentMethodOffchain:
		entry, err := p.ledger.DebitWallet(ctx, r.SenderGuid, r.Amount, p.spendCap, offchainCapWindow, "supermind", r.Guid)
		if err != nil {
			return "", err
		}
		return entry.TxID, nil
	}

	return "", xerrors.Errorf("paymentMethod=%s: %w", r.PaymentMethod, common.ErrMethodNotSupported)
}

// Capture finalizes the payment on acceptance: cash captures the intent,
// offchain pays the already-debited amount out to the receiver.
func (p *SupermindProcessor) Capture(ctx context.Context, r *model.SupermindRequest) error {
	switch common.PaymentMethod(r.PaymentMethod) {
	case common.PaymentMethodCash:
		if r.PaymentTxID == "" {
			return xerrors.Errorf("supermind %d has no payment intent: %w", r.Guid, common.ErrPaymentFailed)
		}
		if err := p.intents.Capture(ctx, r.PaymentTxID); err != nil {
			return xerrors.Errorf("capture %s: %v: %w", r.PaymentTxID, err, common.ErrPaymentFailed)
		}
		return nil

	case common.PaymentMethodOffchain:
		_, err := p.ledger.CreditWallet(ctx, r.ReceiverGuid, r.Amount, "supermind_payout", r.Guid)
		return err
	}

	return xerrors.Errorf("paymentMethod=%s: %w", r.PaymentMethod, common.ErrMethodNotSupported)
}

func (p *SupermindProcessor) Refund(ctx context.Context, r *model.SupermindRequest) error {
	switch common.PaymentMethod(r.PaymentMethod) {
	case common.PaymentMethodCash:
		if r.PaymentTxID == "" {
			return xerrors.Errorf("supermind %d has no payment intent: %w", r.Guid, common.ErrRefundFailed)
		}
		if err := p.intents.Cancel(ctx, r.PaymentTxID); err != nil {
			return xerrors.Errorf("cancel %s: %v: %w", r.PaymentTxID, err, common.ErrRefundFailed)
		}
		return nil

	case common.PaymentMethodOffchain:
		if err := p.locks.Acquire(ctx, util.SupermindRefundLockKey(r.Guid), refundLockTTL); err != nil {
			return err
		}
		_, err := p.ledger.CreditWallet(ctx, r.SenderGuid, r.Amount, "supermind_refund", r.Guid)
		return err
	}

	return xerrors.Errorf("paymentMethod=%s: %w", r.PaymentMethod, common.ErrMethodNotSupported)
}
