//go:build pact
// +build pact

package consumer_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"testing"
	"time"

	pacttest "github.com/Apurer/marketplace-api/test/pact"

	pactconsumer "github.com/pact-foundation/pact-go/v2/consumer"
	pactlog "github.com/pact-foundation/pact-go/v2/log"
	"github.com/pact-foundation/pact-go/v2/matchers"
	"github.com/stretchr/testify/require"
)

type itemPayload struct {
	ID        int64  `json:"id"`
	OfferID   int64  `json:"offerId"`
	ShopID    int64  `json:"shopId"`
	UnitPrice string `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
	Total     string `json:"total"`
	Status    string `json:"status"`
}

type orderPayload struct {
	ID     int64         `json:"id"`
	Status string        `json:"status"`
	Items  []itemPayload `json:"items"`
	Total  string        `json:"total"`
}

type problemDetail struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

type apiError struct {
	status      int
	problemType string
	detail      string
}

func (e apiError) Error() string {
	return fmt.Sprintf("%s: %s (status %d)", e.problemType, e.detail, e.status)
}

func TestBuyerPortalContract(t *testing.T) {
	t.Helper()
	pactlog.SetLogLevel("INFO")

	pact, err := pactconsumer.NewV2Pact(pactconsumer.MockHTTPProviderConfig{
		Consumer: pacttest.ConsumerName,
		Provider: pacttest.ProviderName,
		PactDir:  pacttest.PactDir(t),
		LogDir:   pacttest.LogDir(t),
	})
	require.NoError(t, err)

	jsonContentType := matchers.Regex("application/json; charset=utf-8", "application\\/json(?:;\\s?charset=utf-8)?")
	account := matchers.S(strconv.FormatInt(pacttest.BuyerID, 10))
	moneyPattern := "^\\d+\\.\\d{2}$"
	itemMatcher := matchers.Map{
		"id":        matchers.Like(int64(1)),
		"offerId":   matchers.Like(pacttest.OfferID),
		"shopId":    matchers.Like(int64(1)),
		"unitPrice": matchers.Term("12.50", moneyPattern),
		"quantity":  matchers.Like(pacttest.OfferQuantity),
		"total":     matchers.Term("25.00", moneyPattern),
		"status":    matchers.Term("cart", "^(cart|new|confirmed|done)$"),
	}
	problemMatcher := func(problemType, title string, status int) matchers.Map {
		return matchers.Map{
			"type":   matchers.S(problemType),
			"title":  matchers.S(title),
			"status": matchers.Like(status),
		}
	}

	pact.AddInteraction().
		Given(pacttest.StateOfferOnSale).
		UponReceiving("a request to add an offer to the cart").
		WithRequest("POST", "/api/v1/cart/items", func(b *pactconsumer.V2RequestBuilder) {
			b.Header("X-Account-ID", account)
			b.Header("Content-Type", matchers.S("application/json"))
			b.JSONBody(pacttest.ExampleCartItemRequest())
		}).
		WillRespondWith(http.StatusOK, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(itemMatcher)
		})

	pact.AddInteraction().
		Given(pacttest.StateSupplierPaused).
		UponReceiving("a request to add an offer of a paused shop").
		WithRequest("POST", "/api/v1/cart/items", func(b *pactconsumer.V2RequestBuilder) {
			b.Header("X-Account-ID", account)
			b.Header("Content-Type", matchers.S("application/json"))
			b.JSONBody(pacttest.ExampleCartItemRequest())
		}).
		WillRespondWith(http.StatusConflict, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", matchers.S("application/problem+json"))
			b.JSONBody(problemMatcher("/problems/supplier-unavailable", "Supplier Unavailable", http.StatusConflict))
		})

	pact.AddInteraction().
		Given(pacttest.StatePendingOrder).
		UponReceiving("a request to list the buyer's orders").
		WithRequest("GET", "/api/v1/orders", func(b *pactconsumer.V2RequestBuilder) {
			b.Header("X-Account-ID", account)
		}).
		WillRespondWith(http.StatusOK, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(matchers.EachLike(matchers.Map{
				"id":     matchers.Like(int64(1)),
				"status": matchers.Term("new", "^(new|confirmed|done)$"),
				"items":  matchers.EachLike(itemMatcher, 1),
				"total":  matchers.Term("25.00", moneyPattern),
			}, 1))
		})

	pact.AddInteraction().
		Given(pacttest.StateNoPendingOrder).
		UponReceiving("a confirmation without a pending order").
		WithRequest("POST", "/api/v1/orders/confirm", func(b *pactconsumer.V2RequestBuilder) {
			b.Header("X-Account-ID", account)
			b.Header("Content-Type", matchers.S("application/json"))
			b.JSONBody(map[string]any{"contactId": 1})
		}).
		WillRespondWith(http.StatusConflict, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", matchers.S("application/problem+json"))
			b.JSONBody(problemMatcher("/problems/no-pending-order", "No Pending Order", http.StatusConflict))
		})

	pact.AddInteraction().
		Given(pacttest.StateUnauthenticated).
		UponReceiving("a cart request without an account").
		WithRequest("GET", "/api/v1/cart").
		WillRespondWith(http.StatusUnauthorized, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", matchers.S("application/problem+json"))
			b.JSONBody(problemMatcher("/problems/unauthenticated", "Unauthenticated", http.StatusUnauthorized))
		})

	err = pact.ExecuteTest(t, func(config pactconsumer.MockServerConfig) error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		buyer := newPortalClient(config, pacttest.BuyerID)

		item, err := buyer.AddToCart(ctx, pacttest.OfferID, pacttest.OfferQuantity)
		if err != nil {
			return fmt.Errorf("add to cart: %w", err)
		}
		if item.OfferID != pacttest.OfferID || item.Quantity != pacttest.OfferQuantity {
			return fmt.Errorf("unexpected cart item %+v", item)
		}

		if _, err := buyer.AddToCart(ctx, pacttest.OfferID, pacttest.OfferQuantity); !isStatus(err, http.StatusConflict) {
			return fmt.Errorf("expected 409 for paused shop, got %v", err)
		}

		orders, err := buyer.ListOrders(ctx)
		if err != nil {
			return fmt.Errorf("list orders: %w", err)
		}
		if len(orders) == 0 || len(orders[0].Items) == 0 {
			return fmt.Errorf("expected a pending order with items, got %+v", orders)
		}

		if err := buyer.Confirm(ctx, 1); !isStatus(err, http.StatusConflict) {
			return fmt.Errorf("expected 409 without pending order, got %v", err)
		}

		if err := newPortalClient(config, 0).GetCart(ctx); !isStatus(err, http.StatusUnauthorized) {
			return fmt.Errorf("expected 401 without account, got %v", err)
		}
		return nil
	})
	require.NoError(t, err)
}

func isStatus(err error, status int) bool {
	apiErr, ok := err.(apiError)
	return ok && apiErr.status == status
}

type portalClient struct {
	baseURL    string
	accountID  int64
	httpClient *http.Client
}

func newPortalClient(config pactconsumer.MockServerConfig, accountID int64) *portalClient {
	host := config.Host
	if host == "" {
		host = "localhost"
	}
	transport := &http.Transport{TLSClientConfig: config.TLSConfig}
	return &portalClient{
		baseURL:    fmt.Sprintf("http://%s:%d", host, config.Port),
		accountID:  accountID,
		httpClient: &http.Client{Transport: transport, Timeout: 10 * time.Second},
	}
}

func (c *portalClient) AddToCart(ctx context.Context, offerID int64, quantity int) (*itemPayload, error) {
	var item itemPayload
	err := c.do(ctx, http.MethodPost, "/api/v1/cart/items", map[string]any{"offerId": offerID, "quantity": quantity}, &item)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *portalClient) ListOrders(ctx context.Context) ([]orderPayload, error) {
	var orders []orderPayload
	if err := c.do(ctx, http.MethodGet, "/api/v1/orders", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *portalClient) Confirm(ctx context.Context, contactID int64) error {
	return c.do(ctx, http.MethodPost, "/api/v1/orders/confirm", map[string]any{"contactId": contactID}, nil)
}

func (c *portalClient) GetCart(ctx context.Context) error {
	var cart orderPayload
	return c.do(ctx, http.MethodGet, "/api/v1/cart", nil, &cart)
}

func (c *portalClient) do(ctx context.Context, method, path string, body any, out any) error {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.accountID > 0 {
		req.Header.Set("X-Account-ID", strconv.FormatInt(c.accountID, 10))
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		return decodeAPIError(res)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}

func decodeAPIError(res *http.Response) error {
	var problem problemDetail
	_ = json.NewDecoder(res.Body).Decode(&problem)
	status := problem.Status
	if status == 0 {
		status = res.StatusCode
	}
	return apiError{status: status, problemType: problem.Type, detail: problem.Detail}
}
