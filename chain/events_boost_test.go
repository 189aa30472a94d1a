package chain

import (
	"context"
	"errors"
	"testing"

	"github.com/velora-social/boostd/common"
	"github.com/velora-social/boostd/model"
)

const contractAddr = "0xBo0571111111111111111111111111111111111"

type fakeResolver struct {
	resolved []uint64
	failed   []uint64
	err      error
}

func (r *fakeResolver) ResolveOnchainConfirmation(ctx context.Context, boostGuid uint64) error {
	if r.err != nil {
		return r.err
	}
	r.resolved = append(r.resolved, boostGuid)
	return nil
}

func (r *fakeResolver) FailOnchainConfirmation(ctx context.Context, boostGuid uint64) error {
	if r.err != nil {
		return r.err
	}
	r.failed = append(r.failed, boostGuid)
	return nil
}

type fakeTxs struct {
	byHash    map[string]*model.BlockchainTransaction
	completed []string
	failed    []string
}

func (t *fakeTxs) GetTransactionByTx(ctx context.Context, txHash string) (*model.BlockchainTransaction, error) {
	return t.byHash[txHash], nil
}

func (t *fakeTxs) MarkTransactionFailed(ctx context.Context, txHash string) error {
	t.failed = append(t.failed, txHash)
	return nil
}

func (t *fakeTxs) MarkTransactionCompleted(ctx context.Context, txHash string) error {
	t.completed = append(t.completed, txHash)
	return nil
}

func newEventFixture() (*BoostEvent, *fakeResolver, *fakeTxs) {
	resolver := &fakeResolver{}
	txs := &fakeTxs{byHash: map[string]*model.BlockchainTransaction{
		"0xabc": {Tx: "0xabc", Contract: "boost", BoostGuid: 42},
	}}
	return NewBoostEvent(resolver, txs, contractAddr), resolver, txs
}

func TestHandleBoostSent(t *testing.T) {
	handler, resolver, txs := newEventFixture()

	err := handler.Handle(context.Background(), TopicBoostSent, Log{
		Address:         contractAddr,
		Topics:          []string{TopicBoostSent},
		TransactionHash: "0xabc",
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(resolver.resolved) != 1 || resolver.resolved[0] != 42 {
		t.Fatalf("boost not resolved: %v", resolver.resolved)
	}
	if len(txs.completed) != 1 || txs.completed[0] != "0xabc" {
		t.Fatalf("transaction not marked completed: %v", txs.completed)
	}
}

func TestHandleAddressMismatch(t *testing.T) {
	handler, resolver, _ := newEventFixture()

	err := handler.Handle(context.Background(), TopicBoostSent, Log{
		Address:         "0xattacker",
		Topics:          []string{TopicBoostSent},
		TransactionHash: "0xabc",
	})
	if !errors.Is(err, common.ErrAddressMismatch) {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resolver.resolved) != 0 {
		t.Fatal("mismatched address must not resolve anything")
	}
}

func TestHandleAddressCaseInsensitive(t *testing.T) {
	handler, resolver, _ := newEventFixture()

	err := handler.Handle(context.Background(), TopicBoostSent, Log{
		Address:         "0xBO0571111111111111111111111111111111111",
		Topics:          []string{TopicBoostSent},
		TransactionHash: "0xabc",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(resolver.resolved) != 1 {
		t.Fatal("checksummed address casing must still match")
	}
}

func TestHandleUnknownTransaction(t *testing.T) {
	handler, _, _ := newEventFixture()

	err := handler.Handle(context.Background(), TopicBoostSent, Log{
		Address:         contractAddr,
		Topics:          []string{TopicBoostSent},
		TransactionHash: "0xunknown",
	})
	if err == nil {
		t.Fatal("unknown transaction hash must error")
	}
}

func TestHandleBlockchainFail(t *testing.T) {
	handler, resolver, txs := newEventFixture()

	// synthetic topic carries no contract address
	err := handler.Handle(context.Background(), TopicBlockchainFail, Log{
		Topics:          []string{TopicBlockchainFail},
		TransactionHash: "0xabc",
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(resolver.failed) != 1 || resolver.failed[0] != 42 {
		t.Fatalf("boost not failed: %v", resolver.failed)
	}
	if len(txs.failed) != 1 {
		t.Fatalf("transaction not marked failed: %v", txs.failed)
	}
}

func TestHandleReplayPropagatesResolverError(t *testing.T) {
	handler, resolver, txs := newEventFixture()
	resolver.err = common.ErrIncorrectBoostStatus

	err := handler.Handle(context.Background(), TopicBoostSent, Log{
		Address:         contractAddr,
		Topics:          []string{TopicBoostSent},
		TransactionHash: "0xabc",
	})
	if !errors.Is(err, common.ErrIncorrectBoostStatus) {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(txs.completed) != 0 {
		t.Fatal("a replayed event must not re-mark the transaction")
	}
}

func TestHandleAcknowledgedTopicsAreNoOps(t *testing.T) {
	handler, resolver, txs := newEventFixture()

	for _, topic := range []string{TopicBoostAccepted, TopicBoostRejected, TopicBoostRevoked} {
		err := handler.Handle(context.Background(), topic, Log{
			Address:         contractAddr,
			Topics:          []string{topic},
			TransactionHash: "0xabc",
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	if len(resolver.resolved)+len(resolver.failed) != 0 {
		t.Fatal("acknowledged topics must not drive transitions")
	}
	if len(txs.completed)+len(txs.failed) != 0 {
		t.Fatal("acknowledged topics must not touch the transaction record")
	}
}

func TestHandleNonBoostContract(t *testing.T) {
	handler, _, txs := newEventFixture()
	txs.byHash["0xother"] = &model.BlockchainTransaction{Tx: "0xother", Contract: "wire", BoostGuid: 7}

	err := handler.Handle(context.Background(), TopicBoostSent, Log{
		Address:         contractAddr,
		Topics:          []string{TopicBoostSent},
		TransactionHash: "0xother",
	})
	if err == nil {
		t.Fatal("non-boost transaction must error")
	}
}
