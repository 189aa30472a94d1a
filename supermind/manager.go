package supermind

import (
	"context"
	"errors"
	"time"

	logging "github.com/ipfs/go-log/v2"
	"github.com/shopspring/decimal"
	"golang.org/x/xerrors"

	"github.com/velora-social/boostd/common"
	"github.com/velora-social/boostd/model"
	"github.com/velora-social/boostd/util"
)

var log = logging.Logger("supermind")

// Tx is the explicit transaction boundary held around request creation.
type Tx interface {
	AddSupermindRequest(r *model.SupermindRequest) error
	Commit() error
	Rollback() error
}

// Store is the persistence surface.
type Store interface {
	BeginTx(ctx context.Context) (Tx, error)
	GetSupermindRequest(ctx context.Context, guid uint64) (*model.SupermindRequest, error)
	TransitionSupermind(ctx context.Context, guid uint64, from, to common.SupermindStatus) error
	ExpiredSupermindRequests(ctx context.Context, olderThan int64) ([]*model.SupermindRequest, error)
}

// Payments reserves, finalizes, and reimburses offer funds.
type Payments interface {
	Authorize(ctx context.Context, r *model.SupermindRequest, paymentMethodID string) (string, error)
	Capture(ctx context.Context, r *model.SupermindRequest) error
	Refund(ctx context.Context, r *model.SupermindRequest) error
}

// Lookup resolves platform users.
type Lookup interface {
	GetUserByGuid(ctx context.Context, guid uint64) (*model.User, error)
}

// Notifier is fire and forget.
type Notifier interface {
	Notify(ctx context.Context, event string, payload interface{})
}

type CreateArgs struct {
	SenderGuid      uint64
	ReceiverGuid    uint64
	ActivityGuid    uint64
	Amount          decimal.Decimal
	PaymentMethod   common.PaymentMethod
	PaymentMethodID string
}

// Manager drives the paid reply offer lifecycle.
type Manager struct {
	store    Store
	payments Payments
	lookup   Lookup
	notifier Notifier

	expiry time.Duration
}

func NewManager(store Store, payments Payments, lookup Lookup, notifier Notifier, expiryDays int) *Manager {
	return &Manager{
		store:    store,
		payments: payments,
		lookup:   lookup,
		notifier: notifier,
		expiry:   time.Duration(expiryDays) * 24 * time.Hour,
	}
}

func (m *Manager) GetRequest(ctx context.Context, guid uint64) (*model.SupermindRequest, error) {
	return m.store.GetSupermindRequest(ctx, guid)
}

// Create validates, reserves the payment, and persists the request inside
// one database transaction. A persist failure after the funds were
// reserved compensates with a refund; the refund error, if any, is logged
// and the original failure is returned.
func (m *Manager) Create(ctx context.Context, args CreateArgs) (*model.SupermindRequest, error) {
	if args.SenderGuid == args.ReceiverGuid {
		return nil, common.Validation("You cannot send a Supermind request to yourself")
	}
	if !args.Amount.IsPositive() {
		return nil, common.Validation("Amount must be greater than zero")
	}
	if args.PaymentMethod != common.PaymentMethodCash && args.PaymentMethod != common.PaymentMethodOffchain {
		return nil, common.ErrMethodNotSupported
	}

	receiver, err := m.lookup.GetUserByGuid(ctx, args.ReceiverGuid)
	if err != nil {
		return nil, err
	}
	if args.PaymentMethod == common.PaymentMethodCash && receiver.MerchantAccountID == "" {
		return nil, common.Validation("Receiver cannot accept cash payments")
	}

	r := &model.SupermindRequest{
		Guid:             util.NewGuid(),
		SenderGuid:       args.SenderGuid,
		ReceiverGuid:     args.ReceiverGuid,
		ActivityGuid:     args.ActivityGuid,
		Amount:           args.Amount,
		PaymentMethod:    string(args.PaymentMethod),
		Status:           int(common.SupermindStatusCreated),
		CreatedTimestamp: util.NowMillis(),
	}

	tx, err := m.store.BeginTx(ctx)
	if err != nil {
		return nil, err
	}

	txID, err := m.payments.Authorize(ctx, r, args.PaymentMethodID)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Errorw("rollback after failed authorization", "guid", r.Guid, "err", rbErr)
		}
		return nil, err
	}
	r.PaymentTxID = txID

	if err := tx.AddSupermindRequest(r); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Errorw("rollback after failed insert", "guid", r.Guid, "err", rbErr)
		}
		if refundErr := m.payments.Refund(ctx, r); refundErr != nil {
			log.Errorw("compensating refund failed", "guid", r.Guid, "tx", txID, "err", refundErr)
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		if refundErr := m.payments.Refund(ctx, r); refundErr != nil {
			log.Errorw("compensating refund failed", "guid", r.Guid, "tx", txID, "err", refundErr)
		}
		return nil, err
	}

	m.notifier.Notify(ctx, "supermind:created", map[string]interface{}{
		"guid":         r.Guid,
		"receiverGuid": r.ReceiverGuid,
	})

	return r, nil
}

// Accept captures the reserved payment and marks the offer accepted. Only
// the receiver may accept. A failed capture retires the offer as a payment
// failure instead of leaving it open.
func (m *Manager) Accept(ctx context.Context, guid, actorGuid uint64) error {
	r, err := m.store.GetSupermindRequest(ctx, guid)
	if err != nil {
		return err
	}
	if r.ReceiverGuid != actorGuid {
		return common.ErrForbidden
	}
	if common.SupermindStatus(r.Status) != common.SupermindStatusCreated {
		return xerrors.Errorf("supermind %d is %d, accept requires created: %w",
			guid, r.Status, common.ErrIncorrectBoostStatus)
	}

	if err := m.payments.Capture(ctx, r); err != nil {
		if refundErr := m.payments.Refund(ctx, r); refundErr != nil {
			log.Errorw("refund after failed capture", "guid", guid, "err", refundErr)
		}
		if trErr := m.store.TransitionSupermind(ctx, guid,
			common.SupermindStatusCreated, common.SupermindStatusFailedPayment); trErr != nil {
			log.Errorw("failed-payment transition", "guid", guid, "err", trErr)
		}
		m.notifier.Notify(ctx, "supermind:payment_failed", map[string]interface{}{"guid": guid})
		return err
	}

	if err := m.store.TransitionSupermind(ctx, guid,
		common.SupermindStatusCreated, common.SupermindStatusAccepted); err != nil {
		return err
	}

	m.notifier.Notify(ctx, "supermind:accepted", map[string]interface{}{"guid": guid})
	return nil
}

// Reject reimburses the sender and retires the offer. Only the receiver
// may reject.
func (m *Manager) Reject(ctx context.Context, guid, actorGuid uint64) error {
	r, err := m.store.GetSupermindRequest(ctx, guid)
	if err != nil {
		return err
	}
	if r.ReceiverGuid != actorGuid {
		return common.ErrForbidden
	}

	return m.retire(ctx, r, common.SupermindStatusRejected, "supermind:rejected")
}

// Revoke lets the sender withdraw an offer that has not been answered.
func (m *Manager) Revoke(ctx context.Context, guid, actorGuid uint64) error {
	r, err := m.store.GetSupermindRequest(ctx, guid)
	if err != nil {
		return err
	}
	if r.SenderGuid != actorGuid {
		return common.ErrForbidden
	}

	return m.retire(ctx, r, common.SupermindStatusRevoked, "supermind:revoked")
}

// ExpireSweep reimburses and expires unanswered offers past the expiry
// window. Refund lock contention skips the offer until the next run.
func (m *Manager) ExpireSweep(ctx context.Context) error {
	cutoff := util.NowMillis() - int64(m.expiry/time.Millisecond)
	overdue, err := m.store.ExpiredSupermindRequests(ctx, cutoff)
	if err != nil {
		return err
	}

	for _, r := range overdue {
		if err := m.retire(ctx, r, common.SupermindStatusExpired, "supermind:expired"); err != nil {
			if errors.Is(err, common.ErrLockFailed) {
				log.Infow("expire skipped, refund lock held", "guid", r.Guid)
				continue
			}
			log.Errorw("expire failed", "guid", r.Guid, "err", err)
		}
	}

	return nil
}

func (m *Manager) retire(ctx context.Context, r *model.SupermindRequest, to common.SupermindStatus, event string) error {
	if common.SupermindStatus(r.Status) != common.SupermindStatusCreated {
		return xerrors.Errorf("supermind %d is %d, requires created: %w",
			r.Guid, r.Status, common.ErrIncorrectBoostStatus)
	}

	if err := m.payments.Refund(ctx, r); err != nil {
		return err
	}

	if err := m.store.TransitionSupermind(ctx, r.Guid, common.SupermindStatusCreated, to); err != nil {
		log.Errorw("transition failed after refund", "guid", r.Guid, "to", to, "err", err)
		return err
	}

	m.notifier.Notify(ctx, event, map[string]interface{}{"guid": r.Guid})
	return nil
}
