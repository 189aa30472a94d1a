package payments

import (
	"context"
	"fmt"

	"golang.org/x/xerrors"

	"github.com/velora-social/boostd/chain"
	"github.com/velora-social/boostd/common"
	"github.com/velora-social/boostd/model"
	"github.com/velora-social/boostd/util"
)

// rejectSelector is the 4-byte selector of the boost contract's
// reject(uint256) method, used to return escrowed tokens to the payer.
const rejectSelector = "0x4a99dc06"

// TxStore persists the correlation between boosts and chain transactions.
type TxStore interface {
	AddTransaction(ctx context.Context, tx *model.BlockchainTransaction) error
	GetTransactionByBoost(ctx context.Context, boostGuid uint64) (*model.BlockchainTransaction, error)
}

// OnchainNode is the slice of the rpc client the onchain rail needs.
type OnchainNode interface {
	SendTransaction(ctx context.Context, from, to, data string) (string, error)
	GetTransactionReceipt(ctx context.Context, txHash string) (*chain.TransactionReceipt, error)
}

// OnchainRail: Pay records a client submitted transfer (submit, not
// confirm — confirmation arrives later through the event listener). Refund
// submits a reject call from the boost wallet, an account managed by the
// node keystore.
type OnchainRail struct {
	txs             TxStore
	node            OnchainNode
	contractAddress string
	walletAddress   string
}

func NewOnchainRail(txs TxStore, node OnchainNode, contractAddress, walletAddress string) *OnchainRail {
	return &OnchainRail{
		txs:             txs,
		node:            node,
		contractAddress: contractAddress,
		walletAddress:   walletAddress,
	}
}

func (r *OnchainRail) Pay(ctx context.Context, b *model.Boost, details Details) (string, error) {
	if details.TxHash == "" {
		return "", common.Validation("transaction hash must be supplied for onchain boosts")
	}
	if details.Address == "" {
		return "", common.Validation("wallet address must be supplied for onchain boosts")
	}

	err := r.txs.AddTransaction(ctx, &model.BlockchainTransaction{
		Tx:            details.TxHash,
		Contract:      "boost",
		BoostGuid:     b.Guid,
		UserGuid:      b.OwnerGuid,
		WalletAddress: details.Address,
		Amount:        b.Bid,
		Timestamp:     util.NowMillis(),
	})
	if err != nil {
		return "", err
	}

	return details.TxHash, nil
}

// Charge is a no-op: the tokens are held by the contract once the transfer
// confirms.
func (r *OnchainRail) Charge(ctx context.Context, b *model.Boost) error {
	return nil
}

func (r *OnchainRail) Refund(ctx context.Context, b *model.Boost) error {
	// peer boosts settle wallet-to-wallet, there is nothing to claw back
	if common.BoostType(b.Type) == common.BoostTypePeer {
		return nil
	}

	orig, err := r.txs.GetTransactionByBoost(ctx, b.Guid)
	if err != nil {
		return err
	}
	if orig == nil {
		return xerrors.Errorf("boost %d has no onchain transaction: %w", b.Guid, common.ErrRefundFailed)
	}

	data := rejectSelector + fmt.Sprintf("%064x", b.Guid)

	refundTx, err := r.node.SendTransaction(ctx, r.walletAddress, r.contractAddress, data)
	if err != nil {
		return xerrors.Errorf("submit reject for boost %d: %v: %w", b.Guid, err, common.ErrRefundFailed)
	}

	return r.txs.AddTransaction(ctx, &model.BlockchainTransaction{
		Tx:            refundTx,
		Contract:      "boost",
		BoostGuid:     b.Guid,
		UserGuid:      orig.UserGuid,
		WalletAddress: orig.WalletAddress,
		Amount:        orig.Amount.Neg(),
		Timestamp:     util.NowMillis(),
	})
}

func (r *OnchainRail) Verify(ctx context.Context, b *model.Boost) (common.TxVerifyState, error) {
	if b.TransactionID == "" {
		return common.TxVerifyPending, nil
	}

	receipt, err := r.node.GetTransactionReceipt(ctx, b.TransactionID)
	if err != nil {
		return 0, err
	}
	if receipt == nil {
		return common.TxVerifyPending, nil
	}
	if receipt.Status == "0x1" {
		return common.TxVerifyConfirmed, nil
	}
	return common.TxVerifyFailed, nil
}
