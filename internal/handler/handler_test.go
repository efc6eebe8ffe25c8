package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storecraft/order-engine/internal/domain/catalog"
	"github.com/storecraft/order-engine/internal/domain/order"
)

const (
	testOrderID   = "f47ac10b-58cc-4372-a567-0e02b2c3d479"
	testProductID = "9f8c8d22-35ce-47a2-a2ac-3de5d2f7c1a1"
)

type stubCatalog struct {
	products map[string]*catalog.Product
}

func (s *stubCatalog) GetProduct(_ context.Context, id string) (*catalog.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return p, nil
}

type stubLedger struct{}

func (stubLedger) Reserve(context.Context, string, string) error { return nil }
func (stubLedger) Release(context.Context, string, string) error { return nil }

type stubStore struct {
	orders map[string]*order.Order
}

func (s *stubStore) GetOrder(_ context.Context, orderID string) (*order.Order, error) {
	o, ok := s.orders[orderID]
	if !ok {
		return nil, &order.NotFoundError{Kind: "order", ID: orderID}
	}
	c := *o
	c.Items = append([]order.Item(nil), o.Items...)
	return &c, nil
}

func (s *stubStore) AppendItem(_ context.Context, orderID string, item order.Item) error {
	s.orders[orderID].Items = append(s.orders[orderID].Items, item)
	return nil
}

func (s *stubStore) UpdateItemFields(_ context.Context, orderID, itemID string, patch order.ItemPatch) error {
	for i := range s.orders[orderID].Items {
		it := &s.orders[orderID].Items[i]
		if it.ID == itemID && patch.Quantity != nil {
			it.Quantity = *patch.Quantity
		}
	}
	return nil
}

func (s *stubStore) SetItemSnapshot(_ context.Context, orderID, itemID string, snap order.Snapshot) error {
	for i := range s.orders[orderID].Items {
		it := &s.orders[orderID].Items[i]
		if it.ID == itemID {
			it.SKU = snap.SKU
			it.Name = snap.Name
			it.Price = snap.Price
			it.PriceTotal = snap.PriceTotal
		}
	}
	return nil
}

func (s *stubStore) RemoveItem(_ context.Context, orderID, itemID string) error {
	o := s.orders[orderID]
	kept := o.Items[:0]
	for _, it := range o.Items {
		if it.ID != itemID {
			kept = append(kept, it)
		}
	}
	o.Items = kept
	return nil
}

func newTestServer() *httptest.Server {
	cat := &stubCatalog{products: map[string]*catalog.Product{
		testProductID: {
			ID:            testProductID,
			SKU:           "WIDGET",
			Name:          "Widget",
			Price:         decimal.RequireFromString("10.00"),
			StockQuantity: 5,
		},
	}}
	store := &stubStore{orders: map[string]*order.Order{testOrderID: {ID: testOrderID}}}
	eng := order.NewEngine(cat, store, stubLedger{})

	mux := http.NewServeMux()
	New(eng).Register(mux)
	return httptest.NewServer(mux)
}

func TestAddItemEndpoint(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	body := `{"product_id":"` + testProductID + `","quantity":8}`
	resp, err := http.Post(srv.URL+"/orders/"+testOrderID+"/items", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var o order.Order
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&o))
	require.Len(t, o.Items, 1)
	assert.Equal(t, 5, o.Items[0].Quantity, "stored quantity is clamped to stock")
	assert.True(t, decimal.RequireFromString("50.00").Equal(o.Items[0].PriceTotal))
}

func TestAddItemEndpoint_InvalidIdentifier(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	body := `{"product_id":"` + testProductID + `","quantity":1}`
	resp, err := http.Post(srv.URL+"/orders/not-a-uuid/items", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAddItemEndpoint_OrderNotFound(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	body := `{"product_id":"` + testProductID + `","quantity":1}`
	resp, err := http.Post(srv.URL+"/orders/"+testProductID+"/items", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdateItemEndpoint_ZeroQuantityDeletes(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	addBody := `{"product_id":"` + testProductID + `","quantity":2}`
	resp, err := http.Post(srv.URL+"/orders/"+testOrderID+"/items", "application/json", strings.NewReader(addBody))
	require.NoError(t, err)
	var o order.Order
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&o))
	resp.Body.Close()
	require.Len(t, o.Items, 1)

	req, err := http.NewRequest(http.MethodPut,
		srv.URL+"/orders/"+testOrderID+"/items/"+o.Items[0].ID,
		strings.NewReader(`{"quantity":0}`))
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&o))
	assert.Empty(t, o.Items)
}

func TestRecalculateAllEndpoint_EmptyOrder(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/orders/"+testOrderID+"/recalculate", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
