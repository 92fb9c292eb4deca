package model

// OpRecord is one line of a replay operations file. Op selects which fields
// are meaningful; amounts are decimal strings so values are not limited to
// float-safe integers.
type OpRecord struct {
	Op string `json:"op"`

	// mint / approve / transfer
	Asset   string `json:"asset,omitempty"`
	To      string `json:"to,omitempty"`
	Spender string `json:"spender,omitempty"`
	Amount  string `json:"amount,omitempty"`

	// deposit / withdraw / swap
	Caller    string `json:"caller,omitempty"`
	Amount0   string `json:"amount0,omitempty"`
	Amount1   string `json:"amount1,omitempty"`
	Shares    string `json:"shares,omitempty"`
	Out0      string `json:"out0,omitempty"`
	Out1      string `json:"out1,omitempty"`
	Recipient string `json:"recipient,omitempty"`
}

// Operation kinds accepted by the replay runner.
const (
	OpMint     = "mint"
	OpApprove  = "approve"
	OpTransfer = "transfer"
	OpDeposit  = "deposit"
	OpWithdraw = "withdraw"
	OpSwap     = "swap"
	OpSync     = "sync"
)
