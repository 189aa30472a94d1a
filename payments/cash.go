package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/paymentintent"
	"golang.org/x/xerrors"

	"github.com/velora-social/boostd/common"
	"github.com/velora-social/boostd/model"
)

// IntentsBackend is the slice of the card processor the cash rail uses.
// The real backend is stripe payment intents.
type IntentsBackend interface {
	Create(ctx context.Context, amountCents int64, paymentMethodID string, metadata map[string]string) (string, error)
	Capture(ctx context.Context, intentID string) error
	Cancel(ctx context.Context, intentID string) error
}

// CashRail authorizes at creation and captures at approval, so a boost can
// sit in the review queue without the card having been charged.
type CashRail struct {
	intents IntentsBackend
}

func NewCashRail(intents IntentsBackend) *CashRail {
	return &CashRail{intents: intents}
}

func (r *CashRail) Pay(ctx context.Context, b *model.Boost, details Details) (string, error) {
	if details.PaymentMethodID == "" {
		return "", common.Validation("Payment method ID must be supplied")
	}

	// bid is denominated in USD for cash boosts
	amountCents := b.Bid.Mul(centsPerDollar).IntPart()

	intentID, err := r.intents.Create(ctx, amountCents, details.PaymentMethodID, map[string]string{
		"boost_guid": fmt.Sprintf("%d", b.Guid),
		"user_guid":  fmt.Sprintf("%d", b.OwnerGuid),
	})
	if err != nil {
		// a declined card is not retried automatically
		return "", xerrors.Errorf("card authorization: %v: %w", err, common.ErrPaymentIntentFailed)
	}

	return intentID, nil
}

func (r *CashRail) Charge(ctx context.Context, b *model.Boost) error {
	if b.TransactionID == "" {
		return xerrors.Errorf("boost %d has no payment intent: %w", b.Guid, common.ErrPaymentFailed)
	}
	if err := r.intents.Capture(ctx, b.TransactionID); err != nil {
		return xerrors.Errorf("capture %s: %v: %w", b.TransactionID, err, common.ErrPaymentFailed)
	}
	return nil
}

func (r *CashRail) Refund(ctx context.Context, b *model.Boost) error {
	if b.TransactionID == "" {
		return xerrors.Errorf("boost %d has no payment intent: %w", b.Guid, common.ErrRefundFailed)
	}
	if err := r.intents.Cancel(ctx, b.TransactionID); err != nil {
		return xerrors.Errorf("cancel %s: %v: %w", b.TransactionID, err, common.ErrRefundFailed)
	}
	return nil
}

func (r *CashRail) Verify(ctx context.Context, b *model.Boost) (common.TxVerifyState, error) {
	if b.TransactionID == "" {
		return common.TxVerifyPending, nil
	}
	return common.TxVerifyConfirmed, nil
}

// StripeIntents is the production IntentsBackend.
type StripeIntents struct{}

func NewStripeIntents(apiKey string) *StripeIntents {
	stripe.Key = apiKey
	return &StripeIntents{}
}

func (s *StripeIntents) Create(ctx context.Context, amountCents int64, paymentMethodID string, metadata map[string]string) (string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(amountCents),
		Currency:      stripe.String(string(stripe.CurrencyUSD)),
		PaymentMethod: stripe.String(paymentMethodID),
		CaptureMethod: stripe.String(string(stripe.PaymentIntentCaptureMethodManual)),
		Confirm:       stripe.Bool(true),
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	intent, err := paymentintent.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeCard {
			return "", xerrors.Errorf("card declined: %s", stripeErr.Msg)
		}
		return "", err
	}

	return intent.ID, nil
}

func (s *StripeIntents) Capture(ctx context.Context, intentID string) error {
	params := &stripe.PaymentIntentCaptureParams{}
	params.Context = ctx
	_, err := paymentintent.Capture(intentID, params)
	return err
}

func (s *StripeIntents) Cancel(ctx context.Context, intentID string) error {
	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx
	_, err := paymentintent.Cancel(intentID, params)
	return err
}
