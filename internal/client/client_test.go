package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hongminglow/smartcard/internal/models"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestLoginKeepsSessionCookie(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			http.SetCookie(w, &http.Cookie{Name: "smartcard_session", Value: "tok", Path: "/"})
			w.Write([]byte(`{"success":true}`))
		case "/get-gift-cards":
			if c, err := r.Cookie("smartcard_session"); err != nil || c.Value != "tok" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Write([]byte(`{"gift_cards":[{"id":"a","brand":"Starbucks","balance":12.5,"notes":""}]}`))
		}
	})

	ctx := context.Background()
	if err := c.Login(ctx, "ada@example.com", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}
	cards, err := c.GiftCards(ctx)
	if err != nil {
		t.Fatalf("gift cards: %v", err)
	}
	if len(cards) != 1 || cards[0].Brand != "Starbucks" || cards[0].Balance.Display() != "$12.50" {
		t.Errorf("cards = %+v", cards)
	}
}

func TestGiftCardsNon2xx(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	_, err := c.GiftCards(context.Background())
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusInternalServerError {
		t.Fatalf("err = %v", err)
	}
}

func TestAddGiftCardSendsBalanceAsTyped(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/add-gift-card" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"success":true}`))
	})
	if err := c.AddGiftCard(context.Background(), "Target", "25.00", "birthday"); err != nil {
		t.Fatal(err)
	}
	if got["brand"] != "Target" || got["balance"] != "25.00" || got["notes"] != "birthday" {
		t.Errorf("body = %v", got)
	}
}

func TestFindDealsDecodesErrorEnvelope(t *testing.T) {
	var got map[string]float64
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"success":false,"error":"rate limited"}`))
	})
	resp, err := c.FindDeals(context.Background(), models.Coordinates{Latitude: 41.5, Longitude: -87.25})
	if err != nil {
		t.Fatalf("FindDeals: %v", err)
	}
	if resp.Success || resp.Error != "rate limited" || resp.Stores != nil {
		t.Errorf("resp = %+v", resp)
	}
	if got["latitude"] != 41.5 || got["longitude"] != -87.25 {
		t.Errorf("request body = %v", got)
	}
}

func TestFindDealsNonJSONIsAnError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>bad gateway</html>"))
	})
	if _, err := c.FindDeals(context.Background(), models.Coordinates{}); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestLogoutAlwaysReturnsLoginPath(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	dest, err := c.Logout(context.Background())
	if dest != LoginPath {
		t.Errorf("dest = %q", dest)
	}
	if err == nil {
		t.Error("expected the 401 to be reported")
	}

	unreachable := NewWithHTTPClient("http://127.0.0.1:1", http.DefaultClient)
	if dest, _ := unreachable.Logout(context.Background()); dest != LoginPath {
		t.Errorf("dest after transport failure = %q", dest)
	}
}
