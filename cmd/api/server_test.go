package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"sufikitchen/pkg/cart"
	cartmem "sufikitchen/pkg/cart/memory"
	"sufikitchen/pkg/catalog"
	"sufikitchen/pkg/content"
	"sufikitchen/pkg/metrics"
	"sufikitchen/pkg/notify"
	"sufikitchen/pkg/order"
	ordermem "sufikitchen/pkg/order/memory"
)

type cannedModel struct{ reply string }

func (m cannedModel) GenerateContent(context.Context, []llms.MessageContent, ...llms.CallOption) (*llms.ContentResponse, error) {
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: m.reply}}}, nil
}

func (m cannedModel) Call(context.Context, string, ...llms.CallOption) (string, error) {
	return m.reply, nil
}

type testEnv struct {
	server   *httptest.Server
	client   *http.Client
	storage  *cartmem.Storage
	orders   *ordermem.Repository
	sessions *cart.Sessions
}

func newTestEnv(t *testing.T, gen *content.Generator) *testEnv {
	t.Helper()
	log := zap.NewNop()
	env := &testEnv{storage: cartmem.New(), orders: ordermem.New()}
	m := metrics.New(func() int { return env.sessions.Len() })
	env.sessions = cart.NewSessions(env.storage, log, cart.WithObserver(m))

	srv := &Server{
		menu:     catalog.Default(),
		sessions: env.sessions,
		orders:   order.NewService(env.orders, notify.LogNotifier{Log: log}, log, order.WithRecorder(m)),
		content:  gen,
		metrics:  m.Handler(),
		tracer:   noop.NewTracerProvider().Tracer("test"),
		log:      log,
	}
	env.server = httptest.NewServer(srv.Router())
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	env.client = &http.Client{Jar: jar, Timeout: 5 * time.Second}
	t.Cleanup(func() {
		env.server.Close()
		env.sessions.Close(context.Background())
	})
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := e.client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeState(t *testing.T, resp *http.Response) cart.State {
	t.Helper()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var st cart.State
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	return st
}

func TestMenu(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := env.do(t, http.MethodGet, "/menu", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cats []catalog.Category
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cats))
	require.NotEmpty(t, cats)

	slug := cats[0].Dishes[0].Slug
	resp = env.do(t, http.MethodGet, "/menu/"+slug, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/menu/no-such-dish", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCartLifecycle(t *testing.T) {
	env := newTestEnv(t, nil)

	st := decodeState(t, env.do(t, http.MethodPost, "/cart/items", addItemRequest{DishID: 1}))
	assert.Equal(t, 1, st.TotalItems)
	st = decodeState(t, env.do(t, http.MethodPost, "/cart/items", addItemRequest{DishID: 1}))
	st = decodeState(t, env.do(t, http.MethodPost, "/cart/items", addItemRequest{DishID: 3}))
	assert.Equal(t, 3, st.TotalItems)
	assert.Equal(t, "2950", st.TotalPrice.String())

	st = decodeState(t, env.do(t, http.MethodPut, "/cart/items/1", quantityRequest{Quantity: 5}))
	assert.Equal(t, 6, st.TotalItems)

	st = decodeState(t, env.do(t, http.MethodDelete, "/cart/items/3", nil))
	require.Len(t, st.Items, 1)
	assert.Equal(t, "6250", st.TotalPrice.String())

	st = decodeState(t, env.do(t, http.MethodGet, "/cart", nil))
	assert.Equal(t, 5, st.TotalItems)

	resp := env.do(t, http.MethodDelete, "/cart", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	st = decodeState(t, env.do(t, http.MethodGet, "/cart", nil))
	assert.Empty(t, st.Items)
	assert.Equal(t, 1, env.sessions.Len())
}

func TestCartRejectsUnknownDish(t *testing.T) {
	env := newTestEnv(t, nil)
	resp := env.do(t, http.MethodPost, "/cart/items", addItemRequest{DishID: 999})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(t, http.MethodPut, "/cart/items/abc", quantityRequest{Quantity: 1})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSessionsAreIsolated(t *testing.T) {
	env := newTestEnv(t, nil)
	decodeState(t, env.do(t, http.MethodPost, "/cart/items", addItemRequest{DishID: 2}))

	resp, err := http.Get(env.server.URL + "/cart")
	require.NoError(t, err)
	defer resp.Body.Close()
	st := decodeState(t, resp)
	assert.Empty(t, st.Items)
	assert.Equal(t, 2, env.sessions.Len())
}

func TestCartPersistedUnderSessionKey(t *testing.T) {
	env := newTestEnv(t, nil)
	decodeState(t, env.do(t, http.MethodPost, "/cart/items", addItemRequest{DishID: 4}))

	u, _ := http.NewRequest(http.MethodGet, env.server.URL, nil)
	var sid string
	for _, c := range env.client.Jar.Cookies(u.URL) {
		if c.Name == sessionCookie {
			sid = c.Value
		}
	}
	require.NotEmpty(t, sid)

	require.NoError(t, env.sessions.Get(context.Background(), sid).Flush(context.Background()))
	data, err := env.storage.Load(context.Background(), cart.Key(sid))
	require.NoError(t, err)
	st, err := cart.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, 1, st.TotalItems)
}

func TestCheckout(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := env.do(t, http.MethodPost, "/checkout", checkoutRequest{
		Customer:      order.Customer{Name: "Ali", Phone: "0300", Address: "Model Town"},
		PaymentMethod: order.CashOnDelivery,
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "empty cart")

	decodeState(t, env.do(t, http.MethodPost, "/cart/items", addItemRequest{DishID: 2}))

	resp = env.do(t, http.MethodPost, "/checkout", checkoutRequest{
		Customer:      order.Customer{Name: "Ali", Phone: "0300"},
		PaymentMethod: order.CashOnDelivery,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "missing address")

	resp = env.do(t, http.MethodPost, "/checkout", checkoutRequest{
		Customer:      order.Customer{Name: "Ali", Phone: "0300", Address: "Model Town"},
		PaymentMethod: order.MobileWallet,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var conf order.Confirmation
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&conf))
	assert.True(t, conf.Success)
	assert.True(t, strings.HasPrefix(conf.OrderID, "SUFI-"))
	assert.Contains(t, conf.ConfirmationMessage, "WhatsApp")

	st := decodeState(t, env.do(t, http.MethodGet, "/cart", nil))
	assert.Empty(t, st.Items)

	stored, err := env.orders.List(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "1500", stored[0].TotalPrice.String())
}

func TestAIDisabled(t *testing.T) {
	env := newTestEnv(t, nil)
	resp := env.do(t, http.MethodPost, "/ai/poem", poemRequest{Topic: "bread"})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestAIPoem(t *testing.T) {
	gen := content.New(cannedModel{reply: `{"poem":"Knead the dough,\nknead the heart."}`}, zap.NewNop())
	env := newTestEnv(t, gen)

	resp := env.do(t, http.MethodPost, "/ai/poem", poemRequest{Topic: "bread"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out poemResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Contains(t, out.Poem, "knead the heart")

	resp = env.do(t, http.MethodPost, "/ai/poem", poemRequest{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	decodeState(t, env.do(t, http.MethodPost, "/cart/items", addItemRequest{DishID: 1}))

	resp := env.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var buf bytes.Buffer
	_, err := buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `cart_mutations_total{op="add_item"} 1`)
	assert.Contains(t, buf.String(), "cart_open_sessions 1")
}

func TestCartSocket(t *testing.T) {
	env := newTestEnv(t, nil)
	decodeState(t, env.do(t, http.MethodPost, "/cart/items", addItemRequest{DishID: 3}))

	wsURL := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/cart/ws"
	u, _ := http.NewRequest(http.MethodGet, env.server.URL, nil)
	header := http.Header{}
	for _, c := range env.client.Jar.Cookies(u.URL) {
		header.Add("Cookie", c.String())
	}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var st cart.State
	require.NoError(t, conn.ReadJSON(&st))
	assert.Equal(t, 1, st.TotalItems)

	decodeState(t, env.do(t, http.MethodPost, "/cart/items", addItemRequest{DishID: 3}))
	require.NoError(t, conn.ReadJSON(&st))
	assert.Equal(t, 2, st.TotalItems)
}

func TestUpdateQuantityRejectsFraction(t *testing.T) {
	env := newTestEnv(t, nil)
	decodeState(t, env.do(t, http.MethodPost, "/cart/items", addItemRequest{DishID: 1}))

	resp := env.do(t, http.MethodPut, "/cart/items/1", json.RawMessage(`{"quantity": 2.5}`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	st := decodeState(t, env.do(t, http.MethodGet, "/cart", nil))
	assert.Equal(t, 1, st.TotalItems)
}

func TestUpdateQuantityRejectsOversized(t *testing.T) {
	env := newTestEnv(t, nil)
	decodeState(t, env.do(t, http.MethodPost, "/cart/items", addItemRequest{DishID: 1}))

	resp := env.do(t, http.MethodPut, "/cart/items/1", json.RawMessage(`{"quantity": 9223372036854775807}`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	st := decodeState(t, env.do(t, http.MethodPost, "/cart/items", addItemRequest{DishID: 1}))
	require.Len(t, st.Items, 1)
	assert.Equal(t, 2, st.TotalItems)
}
