package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/angelmondragon/storefront-cart/api/middleware"
	"github.com/angelmondragon/storefront-cart/internal/cart"
	"github.com/angelmondragon/storefront-cart/internal/session"
	pkgAuth "github.com/angelmondragon/storefront-cart/pkg/auth"
	"github.com/angelmondragon/storefront-cart/pkg/config"
	"github.com/angelmondragon/storefront-cart/pkg/enums"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(ctx context.Context) error {
	return s.err
}

type stubSession struct {
	synced []pkgAuth.Identity
	ended  []pkgAuth.Identity
}

func (s *stubSession) Sync(ctx context.Context, identity pkgAuth.Identity) session.Outcome {
	s.synced = append(s.synced, identity)
	return session.OutcomeInitialized
}

func (s *stubSession) End(ctx context.Context, identity pkgAuth.Identity) session.Outcome {
	s.ended = append(s.ended, identity)
	return session.OutcomeReset
}

func (s *stubSession) Do(ctx context.Context, identity pkgAuth.Identity, fn func(cart.Service) error) error {
	return nil
}

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "dev"}}

	handler := HealthReady(cfg, nil, map[string]Pinger{"store": stubPinger{}})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if resp.Header().Get(envHeader) != "dev" {
		t.Fatalf("expected env header")
	}

	handler = HealthReady(cfg, nil, map[string]Pinger{"store": stubPinger{err: errors.New("down")}})
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}

func TestHealthLive(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "prod"}}
	resp := httptest.NewRecorder()
	HealthLive(cfg).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestSessionSync(t *testing.T) {
	svc := &stubSession{}
	identity := pkgAuth.Identity{UserID: "u1", CustomerID: "c1", Role: enums.MemberRoleAdmin}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/session", nil)
	req = req.WithContext(middleware.WithIdentity(req.Context(), identity))
	resp := httptest.NewRecorder()
	SessionSync(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data sessionResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.Outcome != session.OutcomeInitialized || envelope.Data.Role != "admin" {
		t.Fatalf("unexpected response %+v", envelope.Data)
	}
	if len(svc.synced) != 1 {
		t.Fatalf("expected one sync, got %d", len(svc.synced))
	}
}

func TestSessionSyncRequiresIdentity(t *testing.T) {
	resp := httptest.NewRecorder()
	SessionSync(&stubSession{}, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/session", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestSessionEnd(t *testing.T) {
	svc := &stubSession{}
	identity := pkgAuth.Identity{UserID: "u1", CustomerID: "c1", Role: enums.MemberRoleCustomer}

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/session", nil)
	req = req.WithContext(middleware.WithIdentity(req.Context(), identity))
	resp := httptest.NewRecorder()
	SessionEnd(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data sessionResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.Outcome != session.OutcomeReset {
		t.Fatalf("unexpected response %+v", envelope.Data)
	}
	if len(svc.ended) != 1 || svc.ended[0].CustomerID != "c1" {
		t.Fatalf("expected end for c1, got %+v", svc.ended)
	}
}

func TestSessionEndRequiresIdentity(t *testing.T) {
	svc := &stubSession{}
	resp := httptest.NewRecorder()
	SessionEnd(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodDelete, "/api/v1/session", nil))
	if resp.Code != http.StatusUnauthorized || len(svc.ended) != 0 {
		t.Fatalf("expected 401 without end, code=%d ended=%d", resp.Code, len(svc.ended))
	}
}
