package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/deepnoodle-ai/docdb/wire"
)

const transactionsPath = "/v1/transactions"

// OpenTransaction starts a transaction. A zero timeLimit uses the server
// default. The request is never retried so that a slow response cannot
// open two transactions.
func (c *Client) OpenTransaction(ctx context.Context, name string, timeLimit time.Duration) (*Transaction, error) {
	q := url.Values{}
	if name != "" {
		q.Set(wire.ParamName, name)
	}
	if timeLimit > 0 {
		seconds := int64(timeLimit.Round(time.Second) / time.Second)
		q.Set(wire.ParamTimeLimit, strconv.FormatInt(max(seconds, 1), 10))
	}
	resp, err := c.do(ctx, &request{method: http.MethodPost, path: transactionsPath, query: q, noRetry: true})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var status wire.TransactionStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, &TransportError{Op: "decode transaction", Err: err}
	}
	c.logger.Debug("opened transaction", "txid", status.ID, "name", status.Name)
	return NewTransaction(status.ID, status.Name, status.ExpiresAt, c), nil
}

func (c *Client) CommitTransaction(ctx context.Context, txid string) error {
	return c.finishTransaction(ctx, txid, "commit")
}

func (c *Client) RollbackTransaction(ctx context.Context, txid string) error {
	return c.finishTransaction(ctx, txid, "rollback")
}

func (c *Client) finishTransaction(ctx context.Context, txid, result string) error {
	q := url.Values{}
	q.Set(wire.ParamResult, result)
	resp, err := c.do(ctx, &request{
		method:  http.MethodPost,
		path:    transactionsPath + "/" + url.PathEscape(txid),
		query:   q,
		noRetry: true,
	})
	if err != nil {
		return err
	}
	discard(resp)
	c.logger.Debug("finished transaction", "txid", txid, "result", result)
	return nil
}
