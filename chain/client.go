package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/xerrors"
)

var log = logging.Logger("chain")

// Client is a minimal Ethereum JSON-RPC client. go-jsonrpc binds struct
// methods to Namespace.Method wire names and cannot emit eth_* names, so the
// request path is hand rolled over net/http.
type Client struct {
	url  string
	http *http.Client
}

func NewClient(url string) *Client {
	return &Client{
		url: url,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type rpcRequest struct {
	JsonRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// Request performs a single JSON-RPC call and decodes the result into out.
// A nil out discards the result.
func (c *Client) Request(ctx context.Context, method string, params []interface{}, out interface{}) error {
	if params == nil {
		params = []interface{}{}
	}

	body, err := json.Marshal(&rpcRequest{
		JsonRPC: "2.0",
		ID:      1,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return err
	}

	if rpcResp.Error != nil {
		return xerrors.Errorf("rpc %s: %s (%d)", method, rpcResp.Error.Message, rpcResp.Error.Code)
	}

	if out == nil {
		return nil
	}

	return json.Unmarshal(rpcResp.Result, out)
}

// Log is one entry returned by eth_getFilterChanges.
type Log struct {
	Address         string   `json:"address"`
	Topics          []string `json:"topics"`
	Data            string   `json:"data"`
	BlockNumber     string   `json:"blockNumber"`
	TransactionHash string   `json:"transactionHash"`
}

type FilterQuery struct {
	FromBlock string     `json:"fromBlock,omitempty"`
	Address   []string   `json:"address,omitempty"`
	Topics    [][]string `json:"topics,omitempty"`
}

type TransactionReceipt struct {
	TransactionHash string `json:"transactionHash"`
	Status          string `json:"status"`
	BlockNumber     string `json:"blockNumber"`
}

func (c *Client) NewFilter(ctx context.Context, query FilterQuery) (string, error) {
	var filterID string
	if err := c.Request(ctx, "eth_newFilter", []interface{}{query}, &filterID); err != nil {
		return "", err
	}
	if filterID == "" {
		return "", xerrors.New("filter could not be set")
	}
	return filterID, nil
}

func (c *Client) GetFilterChanges(ctx context.Context, filterID string) ([]Log, error) {
	var logs []Log
	if err := c.Request(ctx, "eth_getFilterChanges", []interface{}{filterID}, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

func (c *Client) UninstallFilter(ctx context.Context, filterID string) (bool, error) {
	var done bool
	if err := c.Request(ctx, "eth_uninstallFilter", []interface{}{filterID}, &done); err != nil {
		return false, err
	}
	return done, nil
}

func (c *Client) GetTransactionReceipt(ctx context.Context, txHash string) (*TransactionReceipt, error) {
	var receipt *TransactionReceipt
	if err := c.Request(ctx, "eth_getTransactionReceipt", []interface{}{txHash}, &receipt); err != nil {
		return nil, err
	}
	return receipt, nil
}

// SendTransaction submits a call from a node-keystore managed account.
func (c *Client) SendTransaction(ctx context.Context, from, to, data string) (string, error) {
	var txHash string
	params := []interface{}{map[string]string{
		"from": from,
		"to":   to,
		"data": data,
	}}
	if err := c.Request(ctx, "eth_sendTransaction", params, &txHash); err != nil {
		return "", err
	}
	return txHash, nil
}

func (c *Client) SendRawTransaction(ctx context.Context, signedTx string) (string, error) {
	var txHash string
	if err := c.Request(ctx, "eth_sendRawTransaction", []interface{}{signedTx}, &txHash); err != nil {
		return "", err
	}
	return txHash, nil
}

func (c *Client) BlockNumber(ctx context.Context) (int64, error) {
	var hex string
	if err := c.Request(ctx, "eth_blockNumber", nil, &hex); err != nil {
		return 0, err
	}
	return ParseHexInt(hex)
}

func ParseHexInt(s string) (int64, error) {
	return strconv.ParseInt(strings.TrimPrefix(s, "0x"), 16, 64)
}
