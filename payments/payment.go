package payments

import (
	"context"

	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/xerrors"

	"github.com/velora-social/boostd/common"
	"github.com/velora-social/boostd/model"
)

var log = logging.Logger("payments")

// Details is the client supplied payment payload for a boost creation.
type Details struct {
	Method          common.PaymentMethod
	PaymentMethodID string // cash: stripe payment method
	Address         string // onchain: payer wallet
	TxHash          string // onchain: submitted transaction hash
}

// Rail is one interchangeable payment backend. Pay moves (or escrows) funds
// at creation, Charge finalizes at approval, Refund reimburses. At most one
// Pay is attempted per boost, keyed by its guid.
type Rail interface {
	Pay(ctx context.Context, b *model.Boost, details Details) (string, error)
	Charge(ctx context.Context, b *model.Boost) error
	Refund(ctx context.Context, b *model.Boost) error
	Verify(ctx context.Context, b *model.Boost) (common.TxVerifyState, error)
}

// Processor routes boosts to the rail matching bidType/paymentMethod.
type Processor struct {
	cash     Rail
	offchain Rail
	onchain  Rail
}

func NewProcessor(cash, offchain, onchain Rail) *Processor {
	return &Processor{
		cash:     cash,
		offchain: offchain,
		onchain:  onchain,
	}
}

func (p *Processor) railFor(b *model.Boost) (Rail, error) {
	switch common.BidType(b.BidType) {
	case common.BidTypeCash:
		return p.cash, nil
	case common.BidTypeTokens:
		switch common.PaymentMethod(b.PaymentMethod) {
		case common.PaymentMethodOffchain:
			return p.offchain, nil
		case common.PaymentMethodOnchain:
			return p.onchain, nil
		}
	}
	return nil, xerrors.Errorf("bidType=%s paymentMethod=%s: %w",
		b.BidType, b.PaymentMethod, common.ErrMethodNotSupported)
}

func (p *Processor) Pay(ctx context.Context, b *model.Boost, details Details) (string, error) {
	rail, err := p.railFor(b)
	if err != nil {
		return "", err
	}
	return rail.Pay(ctx, b, details)
}

func (p *Processor) Charge(ctx context.Context, b *model.Boost) error {
	rail, err := p.railFor(b)
	if err != nil {
		return err
	}
	return rail.Charge(ctx, b)
}

func (p *Processor) Refund(ctx context.Context, b *model.Boost) error {
	rail, err := p.railFor(b)
	if err != nil {
		return err
	}
	return rail.Refund(ctx, b)
}

func (p *Processor) Verify(ctx context.Context, b *model.Boost) (common.TxVerifyState, error) {
	rail, err := p.railFor(b)
	if err != nil {
		return 0, err
	}
	return rail.Verify(ctx, b)
}
