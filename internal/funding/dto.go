package funding

import "time"

// FundRequest carries the value attached to a contribution. Exactly one of
// the two fields may be set; an empty body funds with zero value.
type FundRequest struct {
	ValueWei string `json:"value_wei"`
	ValueEth string `json:"value_eth"`
}

// FundResponse represents the API response for a recorded contribution.
type FundResponse struct {
	TransactionID      string    `json:"transaction_id"`
	Funder             string    `json:"funder"`
	ValueWei           string    `json:"value_wei"`
	ValueEth           string    `json:"value_eth"`
	ValueUSD           string    `json:"value_usd"`
	TotalFundedWei     string    `json:"total_funded_wei"`
	ContractBalanceWei string    `json:"contract_balance_wei"`
	FunderIndex        int       `json:"funder_index"`
	CompletedAt        time.Time `json:"completed_at"`
}

// WithdrawResponse represents the API response for an owner withdrawal.
type WithdrawResponse struct {
	TransactionID   string    `json:"transaction_id"`
	Owner           string    `json:"owner"`
	AmountWei       string    `json:"amount_wei"`
	AmountEth       string    `json:"amount_eth"`
	FundersReset    int       `json:"funders_reset"`
	OwnerBalanceWei string    `json:"owner_balance_wei"`
	CompletedAt     time.Time `json:"completed_at"`
}

// ContractResponse describes the deployed contract.
type ContractResponse struct {
	Address     string `json:"address"`
	Owner       string `json:"owner"`
	PriceFeed   string `json:"price_feed"`
	MinimumUSD  string `json:"minimum_usd"`
	BalanceWei  string `json:"balance_wei"`
	BalanceEth  string `json:"balance_eth"`
	FunderCount int    `json:"funder_count"`
}

// RateResponse exposes the latest oracle round.
type RateResponse struct {
	Answer    string    `json:"answer"`
	Decimals  uint8     `json:"decimals"`
	RoundID   uint64    `json:"round_id"`
	UpdatedAt time.Time `json:"updated_at"`
	EthUSD    string    `json:"eth_usd"`
}

// FunderResponse is a roster entry.
type FunderResponse struct {
	Index  int    `json:"index"`
	Funder string `json:"funder"`
}

// AmountFundedResponse is the recorded total for one address.
type AmountFundedResponse struct {
	Funder    string `json:"funder"`
	AmountWei string `json:"amount_wei"`
	AmountEth string `json:"amount_eth"`
}
