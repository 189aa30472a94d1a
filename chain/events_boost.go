package chain

import (
	"context"
	"strings"

	"golang.org/x/xerrors"

	"github.com/velora-social/boostd/common"
	"github.com/velora-social/boostd/model"
)

// Topic hashes emitted by the boost contract, one per event kind.
const (
	TopicBoostSent     = "0x68170a430a4e2c3743702c7f839f5230244aca61ed306ec622a5f393f9559040"
	TopicBoostAccepted = "0xd7ccb5dc8647fd89286a201b04b5e65fb7b5e281603e972695fd35f52bbd244b"
	TopicBoostRejected = "0xc43f9053be9f0ee374d3f8eb929d2e0aa990d33a7d4a51423cb715228d39ab89"
	TopicBoostRevoked  = "0x0b869ea800008714ae430dc6c4e12a2c880d50fb92937d51a4b223af34040971"

	// TopicBlockchainFail is synthetic: raised internally for submission
	// level failures that never made it on chain.
	TopicBlockchainFail = "blockchain:fail"
)

// BoostResolver is the slice of the boost manager the event handler drives.
type BoostResolver interface {
	ResolveOnchainConfirmation(ctx context.Context, boostGuid uint64) error
	FailOnchainConfirmation(ctx context.Context, boostGuid uint64) error
}

// TransactionLookup correlates a chain log with the transaction record
// written at submission time.
type TransactionLookup interface {
	GetTransactionByTx(ctx context.Context, txHash string) (*model.BlockchainTransaction, error)
	MarkTransactionFailed(ctx context.Context, txHash string) error
	MarkTransactionCompleted(ctx context.Context, txHash string) error
}

// BoostEvent maps boost contract topics onto boost manager transitions.
// Resolution is idempotent against replay: a second delivery for an already
// resolved boost surfaces ErrIncorrectBoostStatus from the manager.
type BoostEvent struct {
	resolver        BoostResolver
	txs             TransactionLookup
	contractAddress string
}

func NewBoostEvent(resolver BoostResolver, txs TransactionLookup, contractAddress string) *BoostEvent {
	return &BoostEvent{
		resolver:        resolver,
		txs:             txs,
		contractAddress: contractAddress,
	}
}

func (e *BoostEvent) Topics() []string {
	return []string{
		TopicBoostSent,
		TopicBoostAccepted,
		TopicBoostRejected,
		TopicBoostRevoked,
		TopicBlockchainFail,
	}
}

func (e *BoostEvent) Handle(ctx context.Context, topic string, entry Log) error {
	if topic != TopicBlockchainFail && !strings.EqualFold(entry.Address, e.contractAddress) {
		return xerrors.Errorf("log from %s: %w", entry.Address, common.ErrAddressMismatch)
	}

	tx, err := e.txs.GetTransactionByTx(ctx, entry.TransactionHash)
	if err != nil {
		return err
	}
	if tx == nil {
		return xerrors.Errorf("no boost with hash %s", entry.TransactionHash)
	}
	if tx.Contract != "boost" {
		return xerrors.Errorf("transaction %s is not a boost", tx.Tx)
	}

	switch topic {
	case TopicBoostSent:
		return e.boostSent(ctx, tx)
	case TopicBlockchainFail:
		return e.boostFail(ctx, tx)
	case TopicBoostAccepted, TopicBoostRejected, TopicBoostRevoked:
		// acknowledged on chain, the state machine is driven by the
		// manager level transitions
		log.Debugw("boost contract event", "topic", topic, "tx", tx.Tx)
		return nil
	default:
		return xerrors.Errorf("no handler for topic %s", topic)
	}
}

func (e *BoostEvent) boostSent(ctx context.Context, tx *model.BlockchainTransaction) error {
	if err := e.resolver.ResolveOnchainConfirmation(ctx, tx.BoostGuid); err != nil {
		return err
	}
	return e.txs.MarkTransactionCompleted(ctx, tx.Tx)
}

func (e *BoostEvent) boostFail(ctx context.Context, tx *model.BlockchainTransaction) error {
	if err := e.resolver.FailOnchainConfirmation(ctx, tx.BoostGuid); err != nil {
		return err
	}
	return e.txs.MarkTransactionFailed(ctx, tx.Tx)
}
