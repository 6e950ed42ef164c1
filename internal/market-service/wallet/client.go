// Package wallet é o cliente HTTP do wallet-service usado pelo market-service:
// reserva/confirma/devolve o stake das apostas e credita payouts de claim.
package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	walletdto "github.com/radieske/prediction-market-poc/internal/market-service/wallet/dto"
)

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(base string) *Client {
	return &Client{
		BaseURL: base,
		HTTP:    &http.Client{Timeout: 2 * time.Second},
	}
}

// Reserve bloqueia o valor da aposta na carteira (external_ref = betID).
func (c *Client) Reserve(ctx context.Context, userID string, cents int64, externalRef string) (string, error) {
	var out walletdto.ReserveResponse
	err := c.post(ctx, "/wallet/reserve", walletdto.ReserveRequest{
		UserID: userID, AmountCents: cents, ExternalRef: externalRef,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.ReservationID, nil
}

// Commit efetiva a reserva depois que o ledger aceitou a aposta.
func (c *Client) Commit(ctx context.Context, userID, externalRef string) error {
	return c.post(ctx, "/wallet/commit", walletdto.CommitRequest{UserID: userID, ExternalRef: externalRef}, nil)
}

// Refund desfaz a reserva quando o ledger rejeitou a aposta.
func (c *Client) Refund(ctx context.Context, userID, externalRef string) error {
	return c.post(ctx, "/wallet/refund", walletdto.RefundRequest{UserID: userID, ExternalRef: externalRef}, nil)
}

// Transfer credita um payout/refund na carteira do usuário. Implementa o
// Transferer do ledger; ref é a chave de idempotência no wallet-service.
func (c *Client) Transfer(ctx context.Context, to string, amountCents int64, ref string) error {
	return c.post(ctx, "/wallet/credit", walletdto.CreditRequest{
		UserID: to, AmountCents: amountCents, ExternalRef: ref,
	}, nil)
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, _ := json.Marshal(in)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return fmt.Errorf("wallet %s http %d", path, res.StatusCode)
	}
	if out != nil {
		return json.NewDecoder(res.Body).Decode(out)
	}
	return nil
}
