// internal/helius/types.go
package helius

import "encoding/json"

// Transaction is one entry of the enhanced-transactions API response.
// Only the fields the aggregation reads are mapped.
type Transaction struct {
	Signature        string           `json:"signature"`
	Timestamp        int64            `json:"timestamp"`
	Fee              int64            `json:"fee"` // lamports
	FeePayer         string           `json:"feePayer"`
	Type             string           `json:"type"`
	Source           string           `json:"source"`
	TokenTransfers   []TokenTransfer  `json:"tokenTransfers"`
	NativeTransfers  []NativeTransfer `json:"nativeTransfers"`
	AccountData      []AccountData    `json:"accountData"`
	TransactionError *json.RawMessage `json:"transactionError"`
}

// Failed reports whether the transaction carries a transaction-level error.
func (t *Transaction) Failed() bool {
	return t.TransactionError != nil && string(*t.TransactionError) != "null"
}

// TokenTransfer is a single token-transfer line item with the amount already
// adjusted for decimals.
type TokenTransfer struct {
	FromUserAccount  string  `json:"fromUserAccount"`
	ToUserAccount    string  `json:"toUserAccount"`
	FromTokenAccount string  `json:"fromTokenAccount"`
	ToTokenAccount   string  `json:"toTokenAccount"`
	Mint             string  `json:"mint"`
	TokenAmount      float64 `json:"tokenAmount"`
}

type NativeTransfer struct {
	FromUserAccount string `json:"fromUserAccount"`
	ToUserAccount   string `json:"toUserAccount"`
	Amount          int64  `json:"amount"` // lamports
}

// AccountData is the per-account balance-change record of one transaction.
type AccountData struct {
	Account             string               `json:"account"`
	NativeBalanceChange int64                `json:"nativeBalanceChange"`
	TokenBalanceChanges []TokenBalanceChange `json:"tokenBalanceChanges"`
}

type TokenBalanceChange struct {
	UserAccount    string         `json:"userAccount"`
	TokenAccount   string         `json:"tokenAccount"`
	Mint           string         `json:"mint"`
	RawTokenAmount RawTokenAmount `json:"rawTokenAmount"`
}

type RawTokenAmount struct {
	TokenAmount string `json:"tokenAmount"`
	Decimals    int    `json:"decimals"`
}

// Asset is the token_info part of a getAsset response. Supply is in raw
// base units, before decimal adjustment.
type Asset struct {
	Symbol    string    `json:"symbol"`
	Decimals  int       `json:"decimals"`
	Supply    int64     `json:"supply"`
	PriceInfo PriceInfo `json:"price_info"`
}

type PriceInfo struct {
	PricePerToken float64 `json:"price_per_token"`
	Currency      string  `json:"currency"`
}

// LargestAccount is one holder entry of a getTokenLargestAccounts response.
type LargestAccount struct {
	Address        string  `json:"address"`
	Amount         string  `json:"amount"`
	Decimals       int     `json:"decimals"`
	UIAmount       float64 `json:"uiAmount"`
	UIAmountString string  `json:"uiAmountString"`
}

type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      int         `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type getAssetResponse struct {
	Result *struct {
		ID        string `json:"id"`
		TokenInfo Asset  `json:"token_info"`
	} `json:"result"`
	Error *rpcError `json:"error"`
}

type largestAccountsResponse struct {
	Result *struct {
		Value []LargestAccount `json:"value"`
	} `json:"result"`
	Error *rpcError `json:"error"`
}
