package kds

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

type handlerFixture struct {
	handler *Handler
	session *StationSession
	feed    *MockOrderFeed
	player  *MockPlayer
	store   *MockSettingsStore
	router  chi.Router
}

func newHandlerFixture(t *testing.T, orders ...Order) *handlerFixture {
	t.Helper()

	feed := NewMockOrderFeed(orders...)
	store := NewMockSettingsStore()
	player := &MockPlayer{}
	engine := NewAlertEngine(DefaultAlertSettings(), store, nil)
	sounds := NewSoundDispatcher("expo", DefaultSoundSettings(), player, nil, store, nil)
	session := NewStationSession("expo", feed, engine, sounds, SessionConfig{}, nil)
	if err := session.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	handler := NewHandler(session, nil, nil)
	router := chi.NewRouter()
	handler.RegisterRoutes(router)

	return &handlerFixture{
		handler: handler,
		session: session,
		feed:    feed,
		player:  player,
		store:   store,
		router:  router,
	}
}

func (f *handlerFixture) do(method, path string, body []byte) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestHandlerGetBoard(t *testing.T) {
	f := newHandlerFixture(t, testOrder("T1", "pending"))

	rec := f.do(http.MethodGet, "/station/board", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if rec.Body.Len() == 0 {
		t.Error("board response has empty body")
	}
}

func TestHandlerBumpEndpoints(t *testing.T) {
	f := newHandlerFixture(t, testOrder("T1", "pending", "preparing"))

	rec := f.do(http.MethodPatch, "/station/bump", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("bump status = %d, want %d", rec.Code, http.StatusOK)
	}
	if len(f.feed.SetStatusCalls) != 1 {
		t.Errorf("write-back count = %d, want 1", len(f.feed.SetStatusCalls))
	}

	rec = f.do(http.MethodPatch, "/station/bump-all", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("bump-all status = %d, want %d", rec.Code, http.StatusOK)
	}
	if len(f.feed.CompleteCalls) != 1 {
		t.Errorf("CompleteOrder calls = %d, want 1", len(f.feed.CompleteCalls))
	}
}

func TestHandlerRecallEndpoints(t *testing.T) {
	f := newHandlerFixture(t, testOrder("T1", "pending"))

	f.do(http.MethodPatch, "/station/bump", nil)
	if entries := f.session.RecallEntries(); len(entries) != 1 {
		t.Fatalf("recall depth = %d, want 1", len(entries))
	}

	rec := f.do(http.MethodPatch, "/station/recall", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("recall status = %d, want %d", rec.Code, http.StatusOK)
	}
	if entries := f.session.RecallEntries(); len(entries) != 0 {
		t.Errorf("recall depth after undo = %d, want 0", len(entries))
	}

	f.do(http.MethodPatch, "/station/bump", nil)
	rec = f.do(http.MethodPatch, "/station/recall/clear", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("clear status = %d, want %d", rec.Code, http.StatusOK)
	}
	if entries := f.session.RecallEntries(); len(entries) != 0 {
		t.Errorf("recall depth after clear = %d, want 0", len(entries))
	}
}

func TestHandlerSelectionEndpoints(t *testing.T) {
	f := newHandlerFixture(t,
		testOrder("T1", "pending", "pending"),
		testOrder("T2", "pending"),
	)

	if rec := f.do(http.MethodPatch, "/station/selection/card/next", nil); rec.Code != http.StatusOK {
		t.Fatalf("card/next status = %d, want %d", rec.Code, http.StatusOK)
	}
	if sel := f.session.Selection(); sel.OrderIndex != 1 {
		t.Errorf("OrderIndex = %d, want 1", sel.OrderIndex)
	}

	f.do(http.MethodPatch, "/station/selection/card/prev", nil)
	f.do(http.MethodPatch, "/station/selection/item/next", nil)
	if sel := f.session.Selection(); sel != (Selection{OrderIndex: 0, ItemIndex: 1}) {
		t.Errorf("selection = %+v, want {0 1}", sel)
	}

	f.do(http.MethodPatch, "/station/selection/item/prev", nil)
	if sel := f.session.Selection(); sel.ItemIndex != 0 {
		t.Errorf("ItemIndex = %d, want 0", sel.ItemIndex)
	}
}

func TestHandlerAlertEndpoints(t *testing.T) {
	order := testOrder("T1", "preparing")
	order.Items[0].ThresholdOverride = intPtr(10)
	order.Items[0].PrepStartedAt = minutesAgo(15)
	f := newHandlerFixture(t, order)
	f.session.ScanNow(context.Background())

	alerts := f.session.Alerts()
	if len(alerts) != 1 {
		t.Fatalf("live alerts = %d, want 1", len(alerts))
	}

	if rec := f.do(http.MethodGet, "/station/alerts", nil); rec.Code != http.StatusOK {
		t.Errorf("list status = %d, want %d", rec.Code, http.StatusOK)
	}

	rec := f.do(http.MethodPatch, "/station/alerts/"+alerts[0].ID+"/dismiss", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("dismiss status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := f.session.Alerts(); len(got) != 0 {
		t.Errorf("live alerts after dismiss = %d, want 0", len(got))
	}

	if rec := f.do(http.MethodPatch, "/station/alerts/dismiss-all", nil); rec.Code != http.StatusOK {
		t.Errorf("dismiss-all status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestHandlerKeyInput(t *testing.T) {
	f := newHandlerFixture(t, testOrder("T1", "pending"))

	rec := f.do(http.MethodPost, "/station/keys", []byte(`{"key":" "}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("keys status = %d, want %d", rec.Code, http.StatusOK)
	}
	if len(f.feed.SetStatusCalls) != 1 {
		t.Errorf("write-back count = %d, want 1", len(f.feed.SetStatusCalls))
	}

	tests := []struct {
		name string
		body []byte
		want int
	}{
		{name: "invalidJSON", body: []byte(`{key`), want: http.StatusBadRequest},
		{name: "missingKey", body: []byte(`{"editing":false}`), want: http.StatusBadRequest},
		{name: "editingIgnored", body: []byte(`{"key":" ","editing":true}`), want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := f.do(http.MethodPost, "/station/keys", tt.body); rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}

	// Only the first, valid key press reached the feed.
	if len(f.feed.SetStatusCalls) != 1 {
		t.Errorf("write-back count = %d, want 1", len(f.feed.SetStatusCalls))
	}
}

func TestHandlerAlertSettings(t *testing.T) {
	f := newHandlerFixture(t)

	if rec := f.do(http.MethodGet, "/station/settings/alerts", nil); rec.Code != http.StatusOK {
		t.Errorf("get status = %d, want %d", rec.Code, http.StatusOK)
	}

	rec := f.do(http.MethodPatch, "/station/settings/alerts", []byte(`{"kitchen":7}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("patch status = %d, want %d", rec.Code, http.StatusOK)
	}
	got := f.session.AlertSettings()
	if got.Kitchen != 7 {
		t.Errorf("Kitchen = %d, want 7", got.Kitchen)
	}
	if got.Bar != DefaultBarThreshold {
		t.Errorf("Bar = %d, want untouched default %d", got.Bar, DefaultBarThreshold)
	}
	if f.store.AlertSaves != 1 {
		t.Errorf("settings persisted %d times, want 1", f.store.AlertSaves)
	}

	if rec := f.do(http.MethodPatch, "/station/settings/alerts", []byte(`{bad`)); rec.Code != http.StatusBadRequest {
		t.Errorf("malformed patch status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandlerSoundSettings(t *testing.T) {
	f := newHandlerFixture(t)

	if rec := f.do(http.MethodGet, "/station/settings/sounds", nil); rec.Code != http.StatusOK {
		t.Errorf("get status = %d, want %d", rec.Code, http.StatusOK)
	}

	rec := f.do(http.MethodPatch, "/station/settings/sounds", []byte(`{"bar":{"enabled":false,"volume":0.5}}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("patch status = %d, want %d", rec.Code, http.StatusOK)
	}
	if cfg := f.session.SoundSettings()[CategoryBar]; cfg.Enabled || cfg.Volume != 0.5 {
		t.Errorf("bar config = %+v, want disabled at 0.5", cfg)
	}

	rec = f.do(http.MethodPost, "/station/settings/sounds/rush/test", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("test status = %d, want %d", rec.Code, http.StatusOK)
	}
	if len(f.player.Played) != 1 || f.player.Played[0] != CategoryRush {
		t.Errorf("Played = %v, want [%s]", f.player.Played, CategoryRush)
	}
}

func TestHandlerUnknownRoute(t *testing.T) {
	f := newHandlerFixture(t)
	if rec := f.do(http.MethodGet, "/station/nope", nil); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestHandlerBoardReflectsBumps(t *testing.T) {
	f := newHandlerFixture(t, testOrder("T1", "pending"))

	f.do(http.MethodPatch, "/station/bump", nil)

	board := f.session.Board()
	if board.RecallDepth != 1 {
		t.Errorf("RecallDepth = %d, want 1", board.RecallDepth)
	}
	if board.RecallTop == nil || time.Since(board.RecallTop.CreatedAt) > time.Minute {
		t.Errorf("RecallTop = %+v, want a fresh entry", board.RecallTop)
	}
}
