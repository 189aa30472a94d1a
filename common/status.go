package common

// BoostStatus is the single non-terminal/terminal state of a boost.
// Terminal statuses are absorbing.
type BoostStatus int

const (
	BoostStatusCreated BoostStatus = iota + 1
	BoostStatusPendingOnchainConfirmation
	BoostStatusApproved
	BoostStatusCompleted
	BoostStatusRejected
	BoostStatusRevoked
	BoostStatusFailed
	BoostStatusExpired
)

func (s BoostStatus) String() string {
	switch s {
	case BoostStatusCreated:
		return "created"
	case BoostStatusPendingOnchainConfirmation:
		return "pending_onchain_confirmation"
	case BoostStatusApproved:
		return "approved"
	case BoostStatusCompleted:
		return "completed"
	case BoostStatusRejected:
		return "rejected"
	case BoostStatusRevoked:
		return "revoked"
	case BoostStatusFailed:
		return "failed"
	case BoostStatusExpired:
		return "expired"
	default:
		return "unknown"
	}
}

func (s BoostStatus) Terminal() bool {
	switch s {
	case BoostStatusCompleted, BoostStatusRejected, BoostStatusRevoked, BoostStatusFailed, BoostStatusExpired:
		return true
	default:
		return false
	}
}

type BidType string

const (
	BidTypeCash   BidType = "cash"
	BidTypeTokens BidType = "tokens"
)

// PaymentMethod further splits token bids. Cash bids always use
// PaymentMethodCash.
type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "cash"
	PaymentMethodOffchain PaymentMethod = "offchain"
	PaymentMethodOnchain  PaymentMethod = "onchain"
)

// BoostType is the delivery channel.
type BoostType string

const (
	BoostTypeNewsfeed BoostType = "newsfeed"
	BoostTypeContent  BoostType = "content"
	BoostTypePeer     BoostType = "peer"
)

type TargetLocation int

const (
	TargetLocationNewsfeed TargetLocation = 1
	TargetLocationSidebar  TargetLocation = 2
)

type TargetSuitability int

const (
	TargetSuitabilitySafe TargetSuitability = 1
	TargetSuitabilityOpen TargetSuitability = 2
)

// SupermindStatus mirrors the boost state machine shape for paid reply
// requests.
type SupermindStatus int

const (
	SupermindStatusCreated SupermindStatus = iota + 1
	SupermindStatusAccepted
	SupermindStatusRejected
	SupermindStatusRevoked
	SupermindStatusExpired
	SupermindStatusFailedPayment
)

func (s SupermindStatus) Terminal() bool {
	return s != SupermindStatusCreated
}

// TxVerifyState is the result of verifying a ledger reference.
type TxVerifyState int

const (
	TxVerifyConfirmed TxVerifyState = iota + 1
	TxVerifyPending
	TxVerifyFailed
)
