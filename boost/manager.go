package boost

import (
	"context"
	"errors"
	"time"

	logging "github.com/ipfs/go-log/v2"
	"github.com/shopspring/decimal"
	"golang.org/x/xerrors"

	"github.com/velora-social/boostd/common"
	"github.com/velora-social/boostd/model"
	"github.com/velora-social/boostd/payments"
	"github.com/velora-social/boostd/util"
)

var log = logging.Logger("boost")

// Repository is the only path to persisted boost state. Transitions are
// guarded: they succeed iff the current status equals the expected one.
type Repository interface {
	AddBoost(ctx context.Context, b *model.Boost) error
	GetBoost(ctx context.Context, guid uint64) (*model.Boost, error)
	BoostExistsForEntity(ctx context.Context, entityGuid, ownerGuid uint64) (bool, error)
	TransitionBoost(ctx context.Context, guid uint64, from, to common.BoostStatus) error
	ImpressionsBoostedSince(ctx context.Context, ownerGuid uint64, since int64) (int64, error)
	AddImpressionsMet(ctx context.Context, guid uint64, count int64) (*model.Boost, error)
	ListBoostsByStatus(ctx context.Context, status common.BoostStatus, limit int) ([]*model.Boost, error)
	ListBoostsByOwner(ctx context.Context, ownerGuid uint64, limit int) ([]*model.Boost, error)
	ExpiredBoosts(ctx context.Context, now time.Time, maxAge time.Duration) ([]*model.Boost, error)
}

// Processor is the multi-rail payment abstraction.
type Processor interface {
	Pay(ctx context.Context, b *model.Boost, details payments.Details) (string, error)
	Charge(ctx context.Context, b *model.Boost) error
	Refund(ctx context.Context, b *model.Boost) error
}

// Lookup resolves entities and users owned by the wider platform.
type Lookup interface {
	GetEntityByGuid(ctx context.Context, guid uint64) (*model.Entity, error)
	GetUserByGuid(ctx context.Context, guid uint64) (*model.User, error)
}

// Notifier is fire and forget.
type Notifier interface {
	Notify(ctx context.Context, event string, payload interface{})
}

// CreateArgs is a validated-from-transport boost creation request.
type CreateArgs struct {
	Type        common.BoostType
	EntityGuid  uint64
	OwnerGuid   uint64
	Impressions int64
	BidType     common.BidType
	Payment     payments.Details
	Categories  []string
	Priority    bool

	// optional client predetermined guid, bound by checksum
	Guid     uint64
	Checksum string

	TargetLocation    common.TargetLocation
	TargetSuitability common.TargetSuitability
}

// Manager drives the boost state machine. All status mutations go through
// it; external confirmations arrive via the Resolve/Fail transitions.
type Manager struct {
	repo     Repository
	proc     Processor
	lookup   Lookup
	rates    *payments.Rates
	notifier Notifier

	validCategories map[string]struct{}
	maxDailyViews   int64
	durationDays    int
	pendingMaxAge   time.Duration
}

func NewManager(repo Repository, proc Processor, lookup Lookup, rates *payments.Rates, notifier Notifier, validCategories []string, maxDailyViews int64, durationDays int) *Manager {
	categories := make(map[string]struct{}, len(validCategories))
	for _, c := range validCategories {
		categories[c] = struct{}{}
	}

	return &Manager{
		repo:            repo,
		proc:            proc,
		lookup:          lookup,
		rates:           rates,
		notifier:        notifier,
		validCategories: categories,
		maxDailyViews:   maxDailyViews,
		durationDays:    durationDays,
		pendingMaxAge:   48 * time.Hour,
	}
}

func (m *Manager) GetBoostByGuid(ctx context.Context, guid uint64) (*model.Boost, error) {
	return m.repo.GetBoost(ctx, guid)
}

// ReviewQueue lists boosts waiting for an approve/reject decision, oldest
// first.
func (m *Manager) ReviewQueue(ctx context.Context, limit int) ([]*model.Boost, error) {
	return m.repo.ListBoostsByStatus(ctx, common.BoostStatusCreated, limit)
}

func (m *Manager) ListByOwner(ctx context.Context, ownerGuid uint64, limit int) ([]*model.Boost, error) {
	return m.repo.ListBoostsByOwner(ctx, ownerGuid, limit)
}

// CheckExisting is the duplicate-boost guard, queried before charging so a
// doomed request never reaches a rail.
func (m *Manager) CheckExisting(ctx context.Context, entityGuid, ownerGuid uint64) (bool, error) {
	return m.repo.BoostExistsForEntity(ctx, entityGuid, ownerGuid)
}

// Add validates, charges (or escrows) via the matching rail, and persists.
// Persistence happens only after a successful charge/submission; a failed
// persist compensates with a refund.
func (m *Manager) Add(ctx context.Context, args CreateArgs) (*model.Boost, error) {
	b, err := m.buildBoost(ctx, args)
	if err != nil {
		return nil, err
	}

	txID, err := m.proc.Pay(ctx, b, args.Payment)
	if err != nil {
		return nil, err
	}
	b.TransactionID = txID

	if err := m.repo.AddBoost(ctx, b); err != nil {
		if refundErr := m.proc.Refund(ctx, b); refundErr != nil {
			log.Errorw("compensating refund failed",
				"guid", b.Guid, "tx", txID, "err", refundErr)
		}
		return nil, err
	}

	m.notifier.Notify(ctx, "boost:created", map[string]interface{}{
		"guid":       b.Guid,
		"entityGuid": b.EntityGuid,
		"ownerGuid":  b.OwnerGuid,
	})

	return b, nil
}

func (m *Manager) buildBoost(ctx context.Context, args CreateArgs) (*model.Boost, error) {
	switch args.Type {
	case common.BoostTypeNewsfeed, common.BoostTypeContent, common.BoostTypePeer:
	default:
		return nil, common.Validation("boost handler not found")
	}

	if args.BidType != common.BidTypeCash && args.BidType != common.BidTypeTokens {
		return nil, common.Validation("Unknown currency")
	}

	entity, err := m.lookup.GetEntityByGuid(ctx, args.EntityGuid)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, common.Validation("entity not found")
	}
	if entity.TimeCreated > time.Now().Unix() {
		return nil, common.Validation("You cannot boost a scheduled post.")
	}
	if entity.NSFW {
		return nil, common.Validation("You cannot boost NSFW content.")
	}

	owner, err := m.lookup.GetUserByGuid(ctx, args.OwnerGuid)
	if err != nil {
		return nil, err
	}
	if owner.NSFW {
		return nil, common.Validation("You cannot boost from an NSFW channel.")
	}

	for _, category := range args.Categories {
		if _, ok := m.validCategories[category]; !ok {
			return nil, common.Validation("Invalid category ID: %s", category)
		}
	}

	impressions := args.Impressions
	if args.BidType == common.BidTypeCash && impressions%10 != 0 {
		// cash impressions round down to the nearest 10
		impressions -= impressions % 10
	}

	min := m.rates.MinImpressions()
	max := m.rates.MaxImpressions()
	if args.Payment.Method == common.PaymentMethodOnchain {
		max *= 2
	}
	if impressions < min || impressions > max {
		return nil, common.Validation("You must boost between %d and %d impressions", min, max)
	}

	bid, err := m.computeBid(args.BidType, impressions, args.Priority)
	if err != nil {
		return nil, err
	}

	exists, err := m.CheckExisting(ctx, args.EntityGuid, args.OwnerGuid)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, common.Validation("There's already an ongoing boost for this entity")
	}

	since := util.NowMillis() - int64(24*time.Hour/time.Millisecond)
	boosted, err := m.repo.ImpressionsBoostedSince(ctx, args.OwnerGuid, since)
	if err != nil {
		return nil, err
	}
	if boosted+impressions > m.maxDailyViews {
		return nil, common.Validation("Exceeded maximum of %d boosted views per 24 hours.", m.maxDailyViews)
	}

	guid := args.Guid
	checksum := args.Checksum
	if guid != 0 {
		if args.BidType != common.BidTypeTokens {
			return nil, common.Validation("Provided GUID is only supported for token boosts")
		}
		expected := Checksum(guid, args.EntityGuid)
		if checksum != expected {
			return nil, common.Validation("Checksum does not match. Expected: %s", expected)
		}
		existing, err := m.repo.GetBoost(ctx, guid)
		if err != nil && !errors.Is(err, common.ErrBoostNotFound) {
			return nil, err
		}
		if existing != nil {
			return nil, common.Validation("Provided GUID already exists")
		}
	} else {
		guid = util.NewGuid()
		checksum = Checksum(guid, args.EntityGuid)
	}

	status := common.BoostStatusCreated
	paymentMethod := args.Payment.Method
	if args.BidType == common.BidTypeCash {
		paymentMethod = common.PaymentMethodCash
	} else if paymentMethod == common.PaymentMethodOnchain {
		// onchain submissions confirm asynchronously via the listener
		status = common.BoostStatusPendingOnchainConfirmation
	}

	durationDays := m.durationDays
	if durationDays < 1 {
		durationDays = 1
	}

	return &model.Boost{
		Guid:              guid,
		EntityGuid:        args.EntityGuid,
		OwnerGuid:         args.OwnerGuid,
		Bid:               bid,
		BidType:           string(args.BidType),
		PaymentMethod:     string(paymentMethod),
		DailyBid:          bid.Div(decimal.NewFromInt(int64(durationDays))),
		DurationDays:      durationDays,
		Impressions:       impressions,
		Type:              string(args.Type),
		Priority:          args.Priority,
		Status:            int(status),
		Checksum:          checksum,
		TargetLocation:    int(args.TargetLocation),
		TargetSuitability: int(args.TargetSuitability),
		CreatedTimestamp:  util.NowMillis(),
	}, nil
}

func (m *Manager) computeBid(bidType common.BidType, impressions int64, priority bool) (decimal.Decimal, error) {
	amount := decimal.NewFromInt(impressions)
	if priority {
		amount = amount.Mul(m.rates.PriorityRate().Add(decimal.NewFromInt(1)))
	}

	switch bidType {
	case common.BidTypeCash:
		usd := amount.Div(m.rates.USDRate()).Round(2)
		if usd.LessThan(m.rates.MinUSDCharge()) {
			return decimal.Zero, common.Validation("You must spend at least $%s", m.rates.MinUSDCharge().StringFixed(2))
		}
		return usd, nil
	case common.BidTypeTokens:
		return amount.Div(m.rates.TokenRate()).Round(4), nil
	default:
		return decimal.Zero, common.ErrMethodNotSupported
	}
}

// Revoke reimburses and retires a boost still waiting in the review queue.
// Only the owner, or an admin acting for them, may revoke.
func (m *Manager) Revoke(ctx context.Context, guid, actorGuid uint64) error {
	b, err := m.repo.GetBoost(ctx, guid)
	if err != nil {
		return err
	}

	if b.OwnerGuid != actorGuid {
		actor, err := m.lookup.GetUserByGuid(ctx, actorGuid)
		if err != nil {
			return err
		}
		if !actor.Admin {
			return common.ErrForbidden
		}
	}

	if common.BoostStatus(b.Status) != common.BoostStatusCreated {
		return xerrors.Errorf("boost %d is %s, revoke requires created: %w",
			guid, common.BoostStatus(b.Status), common.ErrIncorrectBoostStatus)
	}

	if err := m.proc.Refund(ctx, b); err != nil {
		return err
	}

	if err := m.repo.TransitionBoost(ctx, guid, common.BoostStatusCreated, common.BoostStatusRevoked); err != nil {
		// funds are back but the status write raced; loud, never swallowed
		log.Errorw("revoke transition failed after refund", "guid", guid, "err", err)
		return err
	}

	m.notifier.Notify(ctx, "boost:revoked", map[string]interface{}{"guid": guid})
	return nil
}

// Approve captures the escrowed payment (cash authorize-now capture-later)
// and activates the boost.
func (m *Manager) Approve(ctx context.Context, guid uint64) error {
	b, err := m.repo.GetBoost(ctx, guid)
	if err != nil {
		return err
	}

	if common.BoostStatus(b.Status) != common.BoostStatusCreated {
		return xerrors.Errorf("boost %d is %s, approve requires created: %w",
			guid, common.BoostStatus(b.Status), common.ErrIncorrectBoostStatus)
	}
	if b.TransactionID == "" {
		return xerrors.Errorf("boost %d has no transaction id: %w", guid, common.ErrPaymentFailed)
	}

	if err := m.proc.Charge(ctx, b); err != nil {
		// capture declined: release the authorization and fail the boost
		if refundErr := m.proc.Refund(ctx, b); refundErr != nil {
			log.Errorw("refund after failed capture", "guid", guid, "err", refundErr)
		}
		if trErr := m.repo.TransitionBoost(ctx, guid, common.BoostStatusCreated, common.BoostStatusFailed); trErr != nil {
			log.Errorw("fail transition after failed capture", "guid", guid, "err", trErr)
		}
		m.notifier.Notify(ctx, "boost:payment_failed", map[string]interface{}{"guid": guid})
		return err
	}

	if err := m.repo.TransitionBoost(ctx, guid, common.BoostStatusCreated, common.BoostStatusApproved); err != nil {
		return err
	}

	m.notifier.Notify(ctx, "boost:approved", map[string]interface{}{"guid": guid})
	return nil
}

// Reject reimburses and retires a boost from the review queue.
func (m *Manager) Reject(ctx context.Context, guid uint64) error {
	b, err := m.repo.GetBoost(ctx, guid)
	if err != nil {
		return err
	}

	if common.BoostStatus(b.Status) != common.BoostStatusCreated {
		return xerrors.Errorf("boost %d is %s, reject requires created: %w",
			guid, common.BoostStatus(b.Status), common.ErrIncorrectBoostStatus)
	}

	if err := m.proc.Refund(ctx, b); err != nil {
		return err
	}

	if err := m.repo.TransitionBoost(ctx, guid, common.BoostStatusCreated, common.BoostStatusRejected); err != nil {
		log.Errorw("reject transition failed after refund", "guid", guid, "err", err)
		return err
	}

	m.notifier.Notify(ctx, "boost:rejected", map[string]interface{}{"guid": guid})
	return nil
}

// ResolveOnchainConfirmation moves a boost whose chain transfer confirmed
// into the review queue. Replays fail on the status guard.
func (m *Manager) ResolveOnchainConfirmation(ctx context.Context, guid uint64) error {
	return m.repo.TransitionBoost(ctx, guid,
		common.BoostStatusPendingOnchainConfirmation, common.BoostStatusCreated)
}

// FailOnchainConfirmation retires a boost whose chain transfer failed. No
// funds were captured, so there is nothing to reimburse.
func (m *Manager) FailOnchainConfirmation(ctx context.Context, guid uint64) error {
	if err := m.repo.TransitionBoost(ctx, guid,
		common.BoostStatusPendingOnchainConfirmation, common.BoostStatusFailed); err != nil {
		return err
	}

	m.notifier.Notify(ctx, "boost:failed", map[string]interface{}{"guid": guid})
	return nil
}

// RecordImpressions is called by the delivery subsystem. Reaching the
// requested impressions completes the boost.
func (m *Manager) RecordImpressions(ctx context.Context, guid uint64, count int64) error {
	b, err := m.repo.AddImpressionsMet(ctx, guid, count)
	if err != nil {
		return err
	}

	if b.ImpressionsMet >= b.Impressions {
		if err := m.repo.TransitionBoost(ctx, guid, common.BoostStatusApproved, common.BoostStatusCompleted); err != nil {
			return err
		}
		m.notifier.Notify(ctx, "boost:completed", map[string]interface{}{"guid": guid})
	}

	return nil
}

// ExpireSweep reimburses and expires overdue boosts. Lock contention on a
// refund skips the boost until the next run.
func (m *Manager) ExpireSweep(ctx context.Context) error {
	overdue, err := m.repo.ExpiredBoosts(ctx, time.Now(), m.pendingMaxAge)
	if err != nil {
		return err
	}

	for _, b := range overdue {
		if err := m.expire(ctx, b); err != nil {
			if errors.Is(err, common.ErrLockFailed) {
				log.Infow("expire skipped, refund lock held", "guid", b.Guid)
				continue
			}
			log.Errorw("expire failed", "guid", b.Guid, "err", err)
		}
	}

	return nil
}

func (m *Manager) expire(ctx context.Context, b *model.Boost) error {
	from := common.BoostStatus(b.Status)
	if from.Terminal() {
		return nil
	}

	// onchain boosts that never confirmed hold no captured funds
	if from != common.BoostStatusPendingOnchainConfirmation {
		if err := m.proc.Refund(ctx, b); err != nil {
			return err
		}
	}

	if err := m.repo.TransitionBoost(ctx, b.Guid, from, common.BoostStatusExpired); err != nil {
		return err
	}

	m.notifier.Notify(ctx, "boost:expired", map[string]interface{}{"guid": b.Guid})
	return nil
}
