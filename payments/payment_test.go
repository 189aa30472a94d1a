package payments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/velora-social/boostd/common"
	"github.com/velora-social/boostd/model"
)

type stubRail struct {
	name string
	paid *string
}

func (r *stubRail) Pay(ctx context.Context, b *model.Boost, details Details) (string, error) {
	*r.paid = r.name
	return r.name, nil
}

func (r *stubRail) Charge(ctx context.Context, b *model.Boost) error  { return nil }
func (r *stubRail) Refund(ctx context.Context, b *model.Boost) error  { return nil }
func (r *stubRail) Verify(ctx context.Context, b *model.Boost) (common.TxVerifyState, error) {
	return common.TxVerifyConfirmed, nil
}

func TestProcessorDispatch(t *testing.T) {
	var paid string
	p := NewProcessor(
		&stubRail{name: "cash", paid: &paid},
		&stubRail{name: "offchain", paid: &paid},
		&stubRail{name: "onchain", paid: &paid},
	)

	cases := []struct {
		bidType       common.BidType
		paymentMethod common.PaymentMethod
		want          string
	}{
		{common.BidTypeCash, common.PaymentMethodCash, "cash"},
		{common.BidTypeTokens, common.PaymentMethodOffchain, "offchain"},
		{common.BidTypeTokens, common.PaymentMethodOnchain, "onchain"},
	}

	for _, tc := range cases {
		b := &model.Boost{BidType: string(tc.bidType), PaymentMethod: string(tc.paymentMethod)}
		if _, err := p.Pay(context.Background(), b, Details{}); err != nil {
			t.Fatal(err)
		}
		if paid != tc.want {
			t.Fatalf("%s/%s routed to %s, want %s", tc.bidType, tc.paymentMethod, paid, tc.want)
		}
	}
}

func TestProcessorUnsupportedMethod(t *testing.T) {
	var paid string
	p := NewProcessor(
		&stubRail{name: "cash", paid: &paid},
		&stubRail{name: "offchain", paid: &paid},
		&stubRail{name: "onchain", paid: &paid},
	)

	b := &model.Boost{BidType: "tokens", PaymentMethod: "paypal"}
	if _, err := p.Pay(context.Background(), b, Details{}); !errors.Is(err, common.ErrMethodNotSupported) {
		t.Fatalf("unexpected error: %v", err)
	}
}

type fakeLedger struct {
	debitErr error

	debits  int
	credits int

	lastAmount decimal.Decimal
	lastType   string
}

func (l *fakeLedger) DebitWallet(ctx context.Context, userGuid uint64, amount, cap decimal.Decimal, window time.Duration, txType string, boostGuid uint64) (*model.OffchainTransaction, error) {
	if l.debitErr != nil {
		return nil, l.debitErr
	}
	l.debits++
	l.lastAmount = amount
	l.lastType = txType
	return &model.OffchainTransaction{TxID: "oc:1", Amount: amount.Neg()}, nil
}

func (l *fakeLedger) CreditWallet(ctx context.Context, userGuid uint64, amount decimal.Decimal, txType string, boostGuid uint64) (*model.OffchainTransaction, error) {
	l.credits++
	l.lastAmount = amount
	l.lastType = txType
	return &model.OffchainTransaction{TxID: "oc:2", Amount: amount}, nil
}

func (l *fakeLedger) GetOffchainTransaction(ctx context.Context, txID string) (*model.OffchainTransaction, error) {
	if txID == "oc:1" {
		return &model.OffchainTransaction{TxID: txID}, nil
	}
	return nil, nil
}

type fakeLocks struct {
	err      error
	acquired []string
}

func (l *fakeLocks) Acquire(ctx context.Context, key string, ttl time.Duration) error {
	if l.err != nil {
		return l.err
	}
	l.acquired = append(l.acquired, key)
	return nil
}

func tokenBoost() *model.Boost {
	return &model.Boost{
		Guid:          99,
		OwnerGuid:     5,
		Bid:           decimal.NewFromInt(2),
		BidType:       string(common.BidTypeTokens),
		PaymentMethod: string(common.PaymentMethodOffchain),
	}
}

func TestOffchainPayDebitsWallet(t *testing.T) {
	ledger := &fakeLedger{}
	rail := NewOffchainRail(ledger, &fakeLocks{}, decimal.NewFromInt(10))

	txID, err := rail.Pay(context.Background(), tokenBoost(), Details{})
	if err != nil {
		t.Fatal(err)
	}
	if txID != "oc:1" {
		t.Fatalf("unexpected tx id %q", txID)
	}
	if ledger.debits != 1 || !ledger.lastAmount.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("unexpected debit: %d %s", ledger.debits, ledger.lastAmount)
	}
}

func TestOffchainPayOverCap(t *testing.T) {
	ledger := &fakeLedger{debitErr: common.ErrInsufficientFunds}
	rail := NewOffchainRail(ledger, &fakeLocks{}, decimal.NewFromInt(10))

	_, err := rail.Pay(context.Background(), tokenBoost(), Details{})
	if !errors.Is(err, common.ErrInsufficientFunds) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestOffchainRefundHeldLock(t *testing.T) {
	ledger := &fakeLedger{}
	rail := NewOffchainRail(ledger, &fakeLocks{err: common.ErrLockFailed}, decimal.NewFromInt(10))

	err := rail.Refund(context.Background(), tokenBoost())
	if !errors.Is(err, common.ErrLockFailed) {
		t.Fatalf("unexpected error: %v", err)
	}
	if ledger.credits != 0 {
		t.Fatal("no credit may run while the refund lock is held")
	}
}

func TestOffchainRefundCredits(t *testing.T) {
	ledger := &fakeLedger{}
	locks := &fakeLocks{}
	rail := NewOffchainRail(ledger, locks, decimal.NewFromInt(10))

	if err := rail.Refund(context.Background(), tokenBoost()); err != nil {
		t.Fatal(err)
	}
	if ledger.credits != 1 || ledger.lastType != "boost_refund" {
		t.Fatalf("unexpected credit: %d %s", ledger.credits, ledger.lastType)
	}
	if len(locks.acquired) != 1 || locks.acquired[0] != "boost:refund:99" {
		t.Fatalf("unexpected lock key %v", locks.acquired)
	}
}

type fakeIntents struct {
	createErr  error
	captureErr error
	cancelErr  error

	created   int
	captured  []string
	cancelled []string
}

func (i *fakeIntents) Create(ctx context.Context, amountCents int64, paymentMethodID string, metadata map[string]string) (string, error) {
	if i.createErr != nil {
		return "", i.createErr
	}
	i.created++
	return "pi_1", nil
}

func (i *fakeIntents) Capture(ctx context.Context, intentID string) error {
	if i.captureErr != nil {
		return i.captureErr
	}
	i.captured = append(i.captured, intentID)
	return nil
}

func (i *fakeIntents) Cancel(ctx context.Context, intentID string) error {
	if i.cancelErr != nil {
		return i.cancelErr
	}
	i.cancelled = append(i.cancelled, intentID)
	return nil
}

func cashBoost() *model.Boost {
	return &model.Boost{
		Guid:          99,
		OwnerGuid:     5,
		Bid:           decimal.RequireFromString("5.00"),
		BidType:       string(common.BidTypeCash),
		PaymentMethod: string(common.PaymentMethodCash),
		TransactionID: "pi_1",
	}
}

func TestCashPayRequiresPaymentMethodID(t *testing.T) {
	rail := NewCashRail(&fakeIntents{})

	_, err := rail.Pay(context.Background(), cashBoost(), Details{})
	if !common.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCashPayDeclined(t *testing.T) {
	rail := NewCashRail(&fakeIntents{createErr: errors.New("card declined")})

	_, err := rail.Pay(context.Background(), cashBoost(), Details{PaymentMethodID: "pm_1"})
	if !errors.Is(err, common.ErrPaymentIntentFailed) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCashChargeCaptures(t *testing.T) {
	intents := &fakeIntents{}
	rail := NewCashRail(intents)

	if err := rail.Charge(context.Background(), cashBoost()); err != nil {
		t.Fatal(err)
	}
	if len(intents.captured) != 1 || intents.captured[0] != "pi_1" {
		t.Fatalf("unexpected captures %v", intents.captured)
	}
}

func TestCashRefundCancelsIntent(t *testing.T) {
	intents := &fakeIntents{}
	rail := NewCashRail(intents)

	if err := rail.Refund(context.Background(), cashBoost()); err != nil {
		t.Fatal(err)
	}
	if len(intents.cancelled) != 1 || intents.cancelled[0] != "pi_1" {
		t.Fatalf("unexpected cancels %v", intents.cancelled)
	}
}
