package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/velora-social/boostd/boost"
	"github.com/velora-social/boostd/common"
	"github.com/velora-social/boostd/model"
	"github.com/velora-social/boostd/payments"
	"github.com/velora-social/boostd/supermind"
)

type fakeBoosts struct {
	addErr    error
	added     *model.Boost
	getErr    error
	boost     *model.Boost
	revokeErr error
}

func (f *fakeBoosts) Add(ctx context.Context, args boost.CreateArgs) (*model.Boost, error) {
	if f.addErr != nil {
		return nil, f.addErr
	}
	return f.added, nil
}

func (f *fakeBoosts) GetBoostByGuid(ctx context.Context, guid uint64) (*model.Boost, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.boost, nil
}

func (f *fakeBoosts) Revoke(ctx context.Context, guid, actorGuid uint64) error { return f.revokeErr }
func (f *fakeBoosts) Approve(ctx context.Context, guid uint64) error           { return nil }
func (f *fakeBoosts) Reject(ctx context.Context, guid uint64) error            { return nil }

func (f *fakeBoosts) ReviewQueue(ctx context.Context, limit int) ([]*model.Boost, error) {
	if f.boost != nil {
		return []*model.Boost{f.boost}, nil
	}
	return nil, nil
}

func (f *fakeBoosts) ListByOwner(ctx context.Context, ownerGuid uint64, limit int) ([]*model.Boost, error) {
	if f.boost != nil {
		return []*model.Boost{f.boost}, nil
	}
	return nil, nil
}

type fakeSuperminds struct{}

func (f *fakeSuperminds) Create(ctx context.Context, args supermind.CreateArgs) (*model.SupermindRequest, error) {
	return nil, common.ErrMethodNotSupported
}

func (f *fakeSuperminds) GetRequest(ctx context.Context, guid uint64) (*model.SupermindRequest, error) {
	return nil, common.ErrSupermindNotFound
}

func (f *fakeSuperminds) Accept(ctx context.Context, guid, actorGuid uint64) error { return nil }
func (f *fakeSuperminds) Reject(ctx context.Context, guid, actorGuid uint64) error { return nil }
func (f *fakeSuperminds) Revoke(ctx context.Context, guid, actorGuid uint64) error { return nil }

type fakeRates struct{}

func (f *fakeRates) Snapshot(ctx context.Context) payments.RatesSnapshot {
	return payments.RatesSnapshot{
		USDRate:    decimal.NewFromInt(1000),
		TokensRate: decimal.NewFromInt(1000),
		Min:        100,
		Max:        5000,
		Priority:   decimal.RequireFromString("1.0"),
	}
}

type fakeAdmins struct {
	admins map[uint64]bool
}

func (f *fakeAdmins) GetUserByGuid(ctx context.Context, guid uint64) (*model.User, error) {
	return &model.User{Guid: guid, Admin: f.admins[guid]}, nil
}

func newTestServer(boosts *fakeBoosts) http.Handler {
	srv := NewServer(":0", boosts, &fakeSuperminds{}, &fakeRates{}, &fakeAdmins{admins: map[uint64]bool{9: true}})
	return srv.srv.Handler
}

func do(t *testing.T, h http.Handler, method, path, userGuid, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, path, reader)
	if userGuid != "" {
		req.Header.Set("X-User-Guid", userGuid)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	payload := make(map[string]interface{})
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("non-json response: %s", rec.Body.String())
	}
	return rec, payload
}

func TestGetRates(t *testing.T) {
	h := newTestServer(&fakeBoosts{})

	rec, payload := do(t, h, http.MethodGet, "/api/v2/boost/rates", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if payload["status"] != "success" {
		t.Fatalf("unexpected payload %v", payload)
	}
	if payload["min"] != float64(100) || payload["max"] != float64(5000) {
		t.Fatalf("unexpected bounds %v", payload)
	}
}

func TestCreateBoostValidationError(t *testing.T) {
	h := newTestServer(&fakeBoosts{
		addErr: common.Validation("You must boost between 100 and 5000 impressions"),
	})

	rec, payload := do(t, h, http.MethodPost, "/api/v2/boost/newsfeed/2002", "1001",
		`{"impressions": 50, "bidType": "tokens", "paymentMethod": "offchain"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d", rec.Code)
	}
	if payload["status"] != "error" {
		t.Fatalf("unexpected payload %v", payload)
	}
	if payload["message"] != "You must boost between 100 and 5000 impressions" {
		t.Fatalf("unexpected message %v", payload["message"])
	}
}

func TestCreateBoostUnauthorized(t *testing.T) {
	h := newTestServer(&fakeBoosts{})

	rec, _ := do(t, h, http.MethodPost, "/api/v2/boost/newsfeed/2002", "", `{"impressions": 1000}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestCreateBoost(t *testing.T) {
	h := newTestServer(&fakeBoosts{
		added: &model.Boost{
			Guid:        7,
			EntityGuid:  2002,
			OwnerGuid:   1001,
			Bid:         decimal.NewFromInt(1),
			BidType:     "tokens",
			Impressions: 1000,
			Status:      int(common.BoostStatusCreated),
		},
	})

	rec, payload := do(t, h, http.MethodPost, "/api/v2/boost/newsfeed/2002", "1001",
		`{"impressions": 1000, "bidType": "tokens", "paymentMethod": "offchain"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %v", rec.Code, payload)
	}

	view := payload["boost"].(map[string]interface{})
	if view["guid"] != "7" || view["status"] != "created" {
		t.Fatalf("unexpected view %v", view)
	}
}

func TestGetBoostNotFound(t *testing.T) {
	h := newTestServer(&fakeBoosts{getErr: common.ErrBoostNotFound})

	rec, payload := do(t, h, http.MethodGet, "/api/v2/boost/newsfeed/7", "", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status %d", rec.Code)
	}
	if payload["status"] != "error" {
		t.Fatalf("unexpected payload %v", payload)
	}
}

func TestRevokeForbidden(t *testing.T) {
	h := newTestServer(&fakeBoosts{revokeErr: common.ErrForbidden})

	rec, _ := do(t, h, http.MethodDelete, "/api/v2/boost/newsfeed/7/revoke", "1001", "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestApproveRequiresAdmin(t *testing.T) {
	h := newTestServer(&fakeBoosts{})

	rec, _ := do(t, h, http.MethodPost, "/api/v2/boost/newsfeed/7/approve", "1001", "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status %d", rec.Code)
	}

	rec, _ = do(t, h, http.MethodPost, "/api/v2/boost/newsfeed/7/approve", "9", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestInternalErrorsAreGeneric(t *testing.T) {
	h := newTestServer(&fakeBoosts{getErr: context.DeadlineExceeded})

	rec, payload := do(t, h, http.MethodGet, "/api/v2/boost/newsfeed/7", "", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status %d", rec.Code)
	}
	if payload["message"] != "Internal error" {
		t.Fatalf("internal detail leaked: %v", payload["message"])
	}
}
