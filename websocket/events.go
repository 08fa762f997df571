package websocket

// Event types for WebSocket messages
const (
	// Loyalty events
	EventPointsEarned   = "points:earned"
	EventPointsRedeemed = "points:redeemed"
	EventPointsExpired  = "points:expired"
	EventTierChanged    = "tier:changed"

	// Reward voucher events
	EventRewardVoucherIssued = "reward_voucher:issued"
	EventRewardVoucherUsed   = "reward_voucher:used"

	// Transaction events
	EventTransactionCreated   = "transaction:created"
	EventTransactionConfirmed = "transaction:confirmed"
	EventTransactionRejected  = "transaction:rejected"

	// General events
	EventDashboardRefresh = "dashboard:refresh"
)

// Message is the envelope written to every client.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// PointsEvent represents a balance movement
type PointsEvent struct {
	CustomerID    string `json:"customer_id"`
	TransactionID string `json:"transaction_id,omitempty"`
	Points        int64  `json:"points"`
	Balance       int64  `json:"balance,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

// TierEvent represents a tier transition
type TierEvent struct {
	CustomerID string `json:"customer_id"`
	From       string `json:"from"`
	To         string `json:"to"`
}

// RewardVoucherEvent represents a reward voucher lifecycle change
type RewardVoucherEvent struct {
	CustomerID string `json:"customer_id"`
	Code       string `json:"code"`
	RewardID   string `json:"reward_id,omitempty"`
	Status     string `json:"status"`
}

// TransactionEvent represents a transaction status change
type TransactionEvent struct {
	TransactionID string `json:"transaction_id"`
	CustomerID    string `json:"customer_id"`
	Status        string `json:"status"`
	AmountNet     int64  `json:"amount_net"`
}

// DashboardRefreshEvent signals that the dashboard should be refreshed
type DashboardRefreshEvent struct {
	Reason string `json:"reason"`
}
