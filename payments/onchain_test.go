package payments

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/velora-social/boostd/chain"
	"github.com/velora-social/boostd/common"
	"github.com/velora-social/boostd/model"
)

type fakeTxStore struct {
	added   []*model.BlockchainTransaction
	byBoost map[uint64]*model.BlockchainTransaction
}

func (s *fakeTxStore) AddTransaction(ctx context.Context, tx *model.BlockchainTransaction) error {
	s.added = append(s.added, tx)
	return nil
}

func (s *fakeTxStore) GetTransactionByBoost(ctx context.Context, boostGuid uint64) (*model.BlockchainTransaction, error) {
	return s.byBoost[boostGuid], nil
}

type fakeOnchainNode struct {
	sentData []string
	receipt  *chain.TransactionReceipt
}

func (n *fakeOnchainNode) SendTransaction(ctx context.Context, from, to, data string) (string, error) {
	n.sentData = append(n.sentData, data)
	return "0xrefund", nil
}

func (n *fakeOnchainNode) GetTransactionReceipt(ctx context.Context, txHash string) (*chain.TransactionReceipt, error) {
	return n.receipt, nil
}

func onchainBoost(boostType common.BoostType) *model.Boost {
	return &model.Boost{
		Guid:          123,
		OwnerGuid:     5,
		Bid:           decimal.NewFromInt(4),
		BidType:       string(common.BidTypeTokens),
		PaymentMethod: string(common.PaymentMethodOnchain),
		Type:          string(boostType),
	}
}

func TestOnchainPayRecordsSubmission(t *testing.T) {
	txs := &fakeTxStore{byBoost: map[uint64]*model.BlockchainTransaction{}}
	rail := NewOnchainRail(txs, &fakeOnchainNode{}, "0xcontract", "0xboostwallet")

	txID, err := rail.Pay(context.Background(), onchainBoost(common.BoostTypeNewsfeed), Details{
		Address: "0xpayer",
		TxHash:  "0xsubmitted",
	})
	if err != nil {
		t.Fatal(err)
	}
	if txID != "0xsubmitted" {
		t.Fatalf("unexpected tx id %q", txID)
	}
	if len(txs.added) != 1 || txs.added[0].Tx != "0xsubmitted" || txs.added[0].Contract != "boost" {
		t.Fatalf("submission not recorded: %+v", txs.added)
	}
}

func TestOnchainPayRequiresHashAndAddress(t *testing.T) {
	rail := NewOnchainRail(&fakeTxStore{}, &fakeOnchainNode{}, "0xcontract", "0xboostwallet")

	if _, err := rail.Pay(context.Background(), onchainBoost(common.BoostTypeNewsfeed), Details{Address: "0xpayer"}); !common.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := rail.Pay(context.Background(), onchainBoost(common.BoostTypeNewsfeed), Details{TxHash: "0xsubmitted"}); !common.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestOnchainRefundSubmitsReject(t *testing.T) {
	b := onchainBoost(common.BoostTypeNewsfeed)
	txs := &fakeTxStore{byBoost: map[uint64]*model.BlockchainTransaction{
		b.Guid: {Tx: "0xsubmitted", BoostGuid: b.Guid, UserGuid: 5, WalletAddress: "0xpayer", Amount: b.Bid},
	}}
	node := &fakeOnchainNode{}
	rail := NewOnchainRail(txs, node, "0xcontract", "0xboostwallet")

	if err := rail.Refund(context.Background(), b); err != nil {
		t.Fatal(err)
	}

	wantData := rejectSelector + fmt.Sprintf("%064x", b.Guid)
	if len(node.sentData) != 1 || node.sentData[0] != wantData {
		t.Fatalf("unexpected call data %v, want %s", node.sentData, wantData)
	}

	// the clawback is recorded with a negated amount
	if len(txs.added) != 1 || !txs.added[0].Amount.Equal(b.Bid.Neg()) {
		t.Fatalf("refund transaction not recorded: %+v", txs.added)
	}
}

func TestOnchainRefundPeerBypass(t *testing.T) {
	node := &fakeOnchainNode{}
	rail := NewOnchainRail(&fakeTxStore{}, node, "0xcontract", "0xboostwallet")

	if err := rail.Refund(context.Background(), onchainBoost(common.BoostTypePeer)); err != nil {
		t.Fatal(err)
	}
	if len(node.sentData) != 0 {
		t.Fatal("peer boosts settle wallet-to-wallet, no reject may be submitted")
	}
}

func TestOnchainVerify(t *testing.T) {
	b := onchainBoost(common.BoostTypeNewsfeed)
	b.TransactionID = "0xsubmitted"

	node := &fakeOnchainNode{}
	rail := NewOnchainRail(&fakeTxStore{}, node, "0xcontract", "0xboostwallet")

	state, err := rail.Verify(context.Background(), b)
	if err != nil {
		t.Fatal(err)
	}
	if state != common.TxVerifyPending {
		t.Fatalf("no receipt yet, want pending, got %v", state)
	}

	node.receipt = &chain.TransactionReceipt{TransactionHash: "0xsubmitted", Status: "0x1"}
	state, err = rail.Verify(context.Background(), b)
	if err != nil {
		t.Fatal(err)
	}
	if state != common.TxVerifyConfirmed {
		t.Fatalf("want confirmed, got %v", state)
	}

	node.receipt.Status = "0x0"
	state, err = rail.Verify(context.Background(), b)
	if err != nil {
		t.Fatal(err)
	}
	if state != common.TxVerifyFailed {
		t.Fatalf("want failed, got %v", state)
	}
}
