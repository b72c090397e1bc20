package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/hongminglow/smartcard/internal/auth"
	"github.com/hongminglow/smartcard/internal/events"
	"github.com/hongminglow/smartcard/internal/models"
	"github.com/hongminglow/smartcard/internal/ratelimit"
	"github.com/hongminglow/smartcard/internal/storage"
)

// memStore is an in-memory storage.Store for handler tests.
type memStore struct {
	mu     sync.Mutex
	nextID int64
	users  map[string]models.User
	cards  []models.GiftCard

	paymentCards []models.PaymentCard
}

func newMemStore() *memStore {
	return &memStore{users: map[string]models.User{}}
}

func (s *memStore) CreateUser(_ context.Context, u models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.Email]; ok {
		return models.User{}, storage.ErrAlreadyExists
	}
	s.nextID++
	u.ID = s.nextID
	u.CreatedAt = time.Now()
	s.users[u.Email] = u
	return u, nil
}

func (s *memStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return u, nil
}

func (s *memStore) FindByID(_ context.Context, id int64) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return models.User{}, storage.ErrNotFound
}

func (s *memStore) SetLocationEnabled(_ context.Context, id int64, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for email, u := range s.users {
		if u.ID == id {
			u.LocationEnabled = enabled
			s.users[email] = u
			return nil
		}
	}
	return storage.ErrNotFound
}

func (s *memStore) ListGiftCards(_ context.Context, userID int64) ([]models.GiftCard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.GiftCard{}
	for _, c := range s.cards {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *memStore) AddGiftCard(_ context.Context, c models.GiftCard) (models.GiftCard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.AddedDate = time.Now()
	s.cards = append(s.cards, c)
	return c, nil
}

func (s *memStore) UpdateGiftCard(_ context.Context, c models.GiftCard) (models.GiftCard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.cards {
		if existing.ID == c.ID && existing.UserID == c.UserID {
			c.AddedDate = existing.AddedDate
			s.cards[i] = c
			return c, nil
		}
	}
	return models.GiftCard{}, storage.ErrNotFound
}

func (s *memStore) DeleteGiftCard(_ context.Context, userID int64, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.cards[:0]
	for _, c := range s.cards {
		if !(c.ID == id && c.UserID == userID) {
			kept = append(kept, c)
		}
	}
	s.cards = kept
	return nil
}

func (s *memStore) ListPaymentCards(_ context.Context, userID int64) ([]models.PaymentCard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.PaymentCard{}
	for _, c := range s.paymentCards {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *memStore) AddPaymentCard(_ context.Context, c models.PaymentCard) (models.PaymentCard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.AddedDate = time.Now()
	s.paymentCards = append(s.paymentCards, c)
	return c, nil
}

func (s *memStore) UpdatePaymentCard(_ context.Context, c models.PaymentCard) (models.PaymentCard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.paymentCards {
		if existing.ID == c.ID && existing.UserID == c.UserID {
			c.AddedDate = existing.AddedDate
			s.paymentCards[i] = c
			return c, nil
		}
	}
	return models.PaymentCard{}, storage.ErrNotFound
}

func (s *memStore) DeletePaymentCard(_ context.Context, userID int64, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.paymentCards[:0]
	for _, c := range s.paymentCards {
		if !(c.ID == id && c.UserID == userID) {
			kept = append(kept, c)
		}
	}
	s.paymentCards = kept
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type stubFinder struct {
	stores []models.StoreResult
	got    models.Coordinates
}

func (f *stubFinder) Find(_ context.Context, point models.Coordinates) []models.StoreResult {
	f.got = point
	return f.stores
}

type stubRecommender struct {
	rec    *models.Recommendation
	err    error
	userID int64
	got    models.Coordinates
}

func (s *stubRecommender) Recommend(_ context.Context, userID int64, point models.Coordinates) (*models.Recommendation, error) {
	s.userID = userID
	s.got = point
	return s.rec, s.err
}

type testEnv struct {
	server      *httptest.Server
	client      *http.Client
	store       *memStore
	finder      *stubFinder
	recommender *stubRecommender
	publisher   *recordingPublisher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := newMemStore()
	tokens := auth.NewTokenManager("test-secret", "smartcard-test", time.Hour)
	guard := NewGuard(tokens)
	limiter := ratelimit.New(100, time.Minute)
	finder := &stubFinder{stores: []models.StoreResult{}}
	recommender := &stubRecommender{}
	pub := &recordingPublisher{}

	mux := http.NewServeMux()
	NewAuthHandler(store, tokens, limiter, limiter).Register(mux)
	NewGiftCardHandler(store, pub, guard, limiter).Register(mux)
	NewDealsHandler(finder, pub, guard, limiter).Register(mux)
	NewRateLimitHandler(guard, limiter).Register(mux)
	NewCardHandler(store, store, pub, guard, limiter).Register(mux)
	NewLocationHandler(store, recommender, pub, guard, limiter).Register(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return &testEnv{
		server:      srv,
		client:      &http.Client{Jar: jar},
		store:       store,
		finder:      finder,
		recommender: recommender,
		publisher:   pub,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			r = bytes.NewReader([]byte(b))
		default:
			raw, err := json.Marshal(b)
			if err != nil {
				t.Fatalf("marshal body: %v", err)
			}
			r = bytes.NewReader(raw)
		}
	}
	req, err := http.NewRequest(method, e.server.URL+path, r)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := e.client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, raw
}

func (e *testEnv) signIn(t *testing.T) {
	t.Helper()
	creds := map[string]string{"name": "Ada Lovelace", "email": "ada@example.com", "password": "correct horse"}
	if status, body := e.do(t, http.MethodPost, "/api/auth/register", creds); status != http.StatusOK {
		t.Fatalf("register status = %d body=%s", status, body)
	}
	if status, body := e.do(t, http.MethodPost, "/api/auth/login", creds); status != http.StatusOK {
		t.Fatalf("login status = %d body=%s", status, body)
	}
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return out
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)
	tests := []struct {
		name string
		body any
		want int
	}{
		{name: "bad json", body: "{", want: http.StatusBadRequest},
		{name: "missing name", body: map[string]string{"email": "a@b.c", "password": "longenough"}, want: http.StatusBadRequest},
		{name: "short password", body: map[string]string{"name": "A", "email": "a@b.c", "password": "short"}, want: http.StatusBadRequest},
		{name: "ok", body: map[string]string{"name": "A", "email": "a@b.c", "password": "longenough"}, want: http.StatusOK},
		{name: "duplicate", body: map[string]string{"name": "A", "email": "A@B.C ", "password": "longenough"}, want: http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if status, body := env.do(t, http.MethodPost, "/api/auth/register", tt.body); status != tt.want {
				t.Errorf("status = %d, want %d (body %s)", status, tt.want, body)
			}
		})
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	env := newTestEnv(t)
	env.signIn(t)
	status, body := env.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": "ada@example.com", "password": "wrong password"})
	if status != http.StatusUnauthorized {
		t.Fatalf("status = %d", status)
	}
	if got := decode[map[string]any](t, body)["error"]; got != "Invalid email or password" {
		t.Errorf("error = %v", got)
	}
}

func TestProtectedRoutesNeedSession(t *testing.T) {
	env := newTestEnv(t)
	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/get-gift-cards"},
		{http.MethodPost, "/add-gift-card"},
		{http.MethodPost, "/api/deals/find"},
		{http.MethodPost, "/api/auth/logout"},
		{http.MethodGet, "/api/rate-limit/status"},
		{http.MethodGet, "/api/cards"},
		{http.MethodPost, "/api/location/check"},
	} {
		if status, _ := env.do(t, route.method, route.path, nil); status != http.StatusUnauthorized {
			t.Errorf("%s %s status = %d, want 401", route.method, route.path, status)
		}
	}
}

func TestGiftCardLifecycle(t *testing.T) {
	env := newTestEnv(t)
	env.signIn(t)

	status, body := env.do(t, http.MethodGet, "/get-gift-cards", nil)
	if status != http.StatusOK || string(bytes.TrimSpace(body)) != `{"gift_cards":[]}` {
		t.Fatalf("empty list: status=%d body=%s", status, body)
	}

	// The form posts the raw input value, so the balance arrives as a string.
	status, body = env.do(t, http.MethodPost, "/add-gift-card", `{"brand":" Starbucks ","balance":"12.5","notes":""}`)
	if status != http.StatusOK {
		t.Fatalf("add status = %d body=%s", status, body)
	}
	added := decode[map[string]any](t, body)
	card := added["gift_card"].(map[string]any)
	if card["brand"] != "Starbucks" || card["balance"] != 12.5 {
		t.Errorf("added card = %v", card)
	}
	id := card["id"].(string)

	status, body = env.do(t, http.MethodGet, "/api/gift-cards", nil)
	list := decode[map[string][]map[string]any](t, body)
	if status != http.StatusOK || len(list["gift_cards"]) != 1 {
		t.Fatalf("list after add: status=%d body=%s", status, body)
	}

	status, body = env.do(t, http.MethodPut, "/api/gift-cards/"+id, map[string]any{"brand": "Starbucks", "balance": 3.25, "notes": "half used"})
	if status != http.StatusOK {
		t.Fatalf("update status = %d body=%s", status, body)
	}
	if got := decode[map[string]any](t, body)["gift_card"].(map[string]any)["balance"]; got != 3.25 {
		t.Errorf("updated balance = %v", got)
	}

	if status, _ := env.do(t, http.MethodPut, "/api/gift-cards/"+"00000000-0000-0000-0000-000000000000", map[string]any{"brand": "X", "balance": 1}); status != http.StatusNotFound {
		t.Errorf("update missing status = %d", status)
	}

	if status, _ := env.do(t, http.MethodDelete, "/api/gift-cards/"+id, nil); status != http.StatusOK {
		t.Errorf("delete status = %d", status)
	}
	if _, body := env.do(t, http.MethodGet, "/get-gift-cards", nil); string(bytes.TrimSpace(body)) != `{"gift_cards":[]}` {
		t.Errorf("list after delete = %s", body)
	}

	want := fmt.Sprint([]string{events.GiftCardAdded, events.GiftCardUpdated, events.GiftCardDeleted})
	if got := fmt.Sprint(env.publisher.types()); got != want {
		t.Errorf("events = %s, want %s", got, want)
	}
}

func TestAddGiftCardValidation(t *testing.T) {
	env := newTestEnv(t)
	env.signIn(t)
	tests := []struct {
		name string
		body string
	}{
		{name: "missing brand", body: `{"brand":"  ","balance":5}`},
		{name: "missing balance", body: `{"brand":"Target"}`},
		{name: "negative balance", body: `{"brand":"Target","balance":-1}`},
		{name: "non numeric balance", body: `{"brand":"Target","balance":"lots"}`},
		{name: "empty balance string", body: `{"brand":"Target","balance":""}`},
		{name: "balance too large", body: `{"brand":"Target","balance":10000000000}`},
		{name: "balance rounds up past limit", body: `{"brand":"Target","balance":"9999999999.999"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if status, body := env.do(t, http.MethodPost, "/add-gift-card", tt.body); status != http.StatusBadRequest {
				t.Errorf("status = %d body=%s", status, body)
			}
		})
	}
}

func TestFindDeals(t *testing.T) {
	env := newTestEnv(t)
	env.signIn(t)

	if status, body := env.do(t, http.MethodPost, "/api/deals/find", `{"latitude":41.8}`); status != http.StatusBadRequest {
		t.Errorf("missing longitude status = %d body=%s", status, body)
	}
	if status, _ := env.do(t, http.MethodPost, "/api/deals/find", `{"latitude":141.8,"longitude":0}`); status != http.StatusBadRequest {
		t.Errorf("out of range status = %d", status)
	}

	status, body := env.do(t, http.MethodPost, "/api/deals/find", `{"latitude":41.8781,"longitude":-87.6298}`)
	if status != http.StatusOK || string(bytes.TrimSpace(body)) != `{"success":true,"stores":[]}` {
		t.Fatalf("empty result: status=%d body=%s", status, body)
	}
	if env.finder.got.Latitude != 41.8781 {
		t.Errorf("finder got %+v", env.finder.got)
	}

	env.finder.stores = []models.StoreResult{{Store: "Target", Deals: []string{"**1.** 20% off"}}, {Store: "CVS", Error: "down"}}
	_, body = env.do(t, http.MethodPost, "/api/deals/find", `{"latitude":41.8781,"longitude":-87.6298}`)
	resp := decode[struct {
		Success bool                 `json:"success"`
		Stores  []models.StoreResult `json:"stores"`
	}](t, body)
	if !resp.Success || len(resp.Stores) != 2 || resp.Stores[1].Error != "down" {
		t.Errorf("response = %+v", resp)
	}
}

func TestLogoutClearsSession(t *testing.T) {
	env := newTestEnv(t)
	env.signIn(t)
	if status, _ := env.do(t, http.MethodPost, "/api/auth/logout", nil); status != http.StatusOK {
		t.Fatalf("logout status = %d", status)
	}
	if status, _ := env.do(t, http.MethodGet, "/get-gift-cards", nil); status != http.StatusUnauthorized {
		t.Errorf("after logout status = %d", status)
	}
}

func TestUserInfoAndRateLimitStatus(t *testing.T) {
	env := newTestEnv(t)
	env.signIn(t)

	_, body := env.do(t, http.MethodGet, "/api/user/info", nil)
	info := decode[map[string]any](t, body)
	if info["name"] != "Ada Lovelace" || info["first_name"] != "Ada" || info["email"] != "ada@example.com" {
		t.Errorf("user info = %v", info)
	}

	_, body = env.do(t, http.MethodGet, "/api/rate-limit/status", nil)
	status := decode[struct {
		RateLimit struct {
			Remaining int `json:"remaining"`
			Limit     int `json:"limit"`
			Window    int `json:"window"`
		} `json:"rate_limit"`
	}](t, body)
	if status.RateLimit.Limit != 100 || status.RateLimit.Window != 60 || status.RateLimit.Remaining != 99 {
		t.Errorf("rate limit status = %+v", status.RateLimit)
	}
}

func TestAddGiftCardAcceptsLargestBalance(t *testing.T) {
	env := newTestEnv(t)
	env.signIn(t)
	status, body := env.do(t, http.MethodPost, "/add-gift-card", `{"brand":"Target","balance":"9999999999.99"}`)
	if status != http.StatusOK {
		t.Fatalf("status = %d body=%s", status, body)
	}
	if got := decode[map[string]any](t, body)["gift_card"].(map[string]any)["balance"]; got != 9999999999.99 {
		t.Errorf("balance = %v", got)
	}
}

func TestPaymentCardLifecycle(t *testing.T) {
	env := newTestEnv(t)
	env.signIn(t)

	status, body := env.do(t, http.MethodGet, "/api/cards", nil)
	if status != http.StatusOK || string(bytes.TrimSpace(body)) != `{"cards":[],"location_enabled":false}` {
		t.Fatalf("empty list: status=%d body=%s", status, body)
	}

	status, body = env.do(t, http.MethodPost, "/api/cards", map[string]any{
		"name":             " Dining Rewards ",
		"base_rate":        1,
		"category_bonuses": []map[string]any{{"category": "restaurant", "rate": 4}, {"category": " ", "rate": 9}},
	})
	if status != http.StatusOK {
		t.Fatalf("add status = %d body=%s", status, body)
	}
	added := decode[struct {
		Success bool               `json:"success"`
		Card    models.PaymentCard `json:"card"`
	}](t, body)
	if !added.Success || added.Card.Name != "Dining Rewards" || len(added.Card.CategoryBonuses) != 1 || added.Card.BaseRate != 1 {
		t.Fatalf("added = %+v", added)
	}
	id := added.Card.ID

	status, body = env.do(t, http.MethodPut, "/api/cards/"+id, map[string]any{"name": "Flat Cash", "base_rate": 2})
	if status != http.StatusOK {
		t.Fatalf("update status = %d body=%s", status, body)
	}
	updated := decode[map[string]map[string]any](t, body)["card"]
	if updated["name"] != "Flat Cash" || updated["base_rate"] != 2.0 || len(updated["category_bonuses"].([]any)) != 0 {
		t.Errorf("updated = %v", updated)
	}

	if status, _ := env.do(t, http.MethodPut, "/api/cards/00000000-0000-0000-0000-000000000000", map[string]any{"name": "X"}); status != http.StatusNotFound {
		t.Errorf("update missing status = %d", status)
	}
	if status, _ := env.do(t, http.MethodPut, "/api/cards/not-a-uuid", map[string]any{"name": "X"}); status != http.StatusNotFound {
		t.Errorf("update bad id status = %d", status)
	}

	if status, _ := env.do(t, http.MethodDelete, "/api/cards/"+id, nil); status != http.StatusOK {
		t.Errorf("delete status = %d", status)
	}
	if _, body := env.do(t, http.MethodGet, "/api/cards", nil); len(decode[cardList](t, body).Cards) != 0 {
		t.Errorf("list after delete = %s", body)
	}

	want := fmt.Sprint([]string{events.PaymentCardAdded, events.PaymentCardUpdated, events.PaymentCardDeleted})
	if got := fmt.Sprint(env.publisher.types()); got != want {
		t.Errorf("events = %s, want %s", got, want)
	}
}

type cardList struct {
	Cards           []models.PaymentCard `json:"cards"`
	LocationEnabled bool                 `json:"location_enabled"`
}

func TestAddPaymentCardValidation(t *testing.T) {
	env := newTestEnv(t)
	env.signIn(t)
	tests := []struct {
		name string
		body string
	}{
		{name: "bad json", body: `{`},
		{name: "missing name", body: `{"name":"  ","base_rate":1}`},
		{name: "negative base rate", body: `{"name":"Card","base_rate":-1}`},
		{name: "negative bonus", body: `{"name":"Card","category_bonuses":[{"category":"gas","rate":-2}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if status, body := env.do(t, http.MethodPost, "/api/cards", tt.body); status != http.StatusBadRequest {
				t.Errorf("status = %d body=%s", status, body)
			}
		})
	}
}

func TestEnableLocationShowsInCardList(t *testing.T) {
	env := newTestEnv(t)
	env.signIn(t)

	status, body := env.do(t, http.MethodPost, "/api/location/enable", nil)
	if status != http.StatusOK || string(bytes.TrimSpace(body)) != `{"success":true}` {
		t.Fatalf("enable: status=%d body=%s", status, body)
	}
	_, body = env.do(t, http.MethodGet, "/api/cards", nil)
	if list := decode[cardList](t, body); !list.LocationEnabled || list.Cards == nil {
		t.Errorf("list = %s", body)
	}
}

func TestLocationCheck(t *testing.T) {
	env := newTestEnv(t)
	env.signIn(t)

	for _, body := range []string{`{"latitude":41.8}`, `{"latitude":41.8,"longitude":200}`} {
		status, raw := env.do(t, http.MethodPost, "/api/location/check", body)
		if status != http.StatusBadRequest || decode[map[string]any](t, raw)["error"] != "Invalid location" {
			t.Errorf("%s: status=%d body=%s", body, status, raw)
		}
	}

	status, body := env.do(t, http.MethodPost, "/api/location/check", `{"latitude":41.8781,"longitude":-87.6298}`)
	if status != http.StatusOK || string(bytes.TrimSpace(body)) != `{"success":true,"recommendation":null}` {
		t.Fatalf("no recommendation: status=%d body=%s", status, body)
	}
	if env.recommender.got.Longitude != -87.6298 || env.recommender.userID == 0 {
		t.Errorf("recommender got user %d at %+v", env.recommender.userID, env.recommender.got)
	}

	env.recommender.rec = &models.Recommendation{
		Type:     models.RecommendCreditCard,
		Card:     &models.PaymentCard{ID: "c1", Name: "Dining Rewards"},
		Rate:     4,
		Merchant: models.NearbyMerchant{Merchant: models.Merchant{Name: "Corner Deli", Category: "restaurant"}},
	}
	_, body = env.do(t, http.MethodPost, "/api/location/check", `{"latitude":41.8781,"longitude":-87.6298}`)
	resp := decode[struct {
		Success        bool                   `json:"success"`
		Recommendation *models.Recommendation `json:"recommendation"`
	}](t, body)
	if !resp.Success || resp.Recommendation == nil || resp.Recommendation.Card.Name != "Dining Rewards" || resp.Recommendation.Rate != 4 {
		t.Errorf("response = %s", body)
	}

	env.recommender.err = fmt.Errorf("db down")
	if status, _ := env.do(t, http.MethodPost, "/api/location/check", `{"latitude":41.8781,"longitude":-87.6298}`); status != http.StatusInternalServerError {
		t.Errorf("recommender error status = %d", status)
	}
}
