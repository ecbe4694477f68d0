package andamento

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/prevhub/processync/internal/auth"
	"github.com/prevhub/processync/internal/domain"
)

func TestListReturnsPage(t *testing.T) {
	tenantID := uuid.New()
	store := newFakeAndamentoStore(tenantID)
	store.add("Em Análise", "Exigência", false)
	store.add("Exigência", "Concluída", true)

	rec := serve(t, store, tenantID, http.MethodGet, "/?limit=10", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result PagedResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if result.Total != 2 || len(result.Items) != 2 {
		t.Fatalf("expected 2 items, got total=%d len=%d", result.Total, len(result.Items))
	}
	if result.Limit != 10 {
		t.Fatalf("expected limit 10, got %d", result.Limit)
	}
}

func TestListFiltersUnseen(t *testing.T) {
	tenantID := uuid.New()
	store := newFakeAndamentoStore(tenantID)
	store.add("Em Análise", "Exigência", false)
	store.add("Exigência", "Concluída", true)

	rec := serve(t, store, tenantID, http.MethodGet, "/?seen=unseen", "")

	var result PagedResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if len(result.Items) != 1 {
		t.Fatalf("expected 1 unseen item, got %d", len(result.Items))
	}
	if result.Items[0].Entry.Seen {
		t.Fatal("expected the unseen entry")
	}
}

func TestListRejectsBadFilter(t *testing.T) {
	tenantID := uuid.New()
	store := newFakeAndamentoStore(tenantID)

	if rec := serve(t, store, tenantID, http.MethodGet, "/?seen=viewed", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad seen value, got %d", rec.Code)
	}
	if rec := serve(t, store, tenantID, http.MethodGet, "/?period=year", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad period value, got %d", rec.Code)
	}
}

func TestListWithoutTenantIsUnauthorized(t *testing.T) {
	store := newFakeAndamentoStore(uuid.New())
	handler := NewHTTPHandler(NewService(store, zap.NewNop()))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestMarkSeenIsIdempotent(t *testing.T) {
	tenantID := uuid.New()
	store := newFakeAndamentoStore(tenantID)
	entryID := store.add("Em Análise", "Exigência", false)

	rec := serve(t, store, tenantID, http.MethodPost, "/"+entryID.String()+"/seen", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var first domain.StatusHistoryEntry
	if err := json.NewDecoder(rec.Body).Decode(&first); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if !first.Seen || first.SeenAt == nil {
		t.Fatalf("expected entry to be seen with a timestamp, got %+v", first)
	}

	rec = serve(t, store, tenantID, http.MethodPost, "/"+entryID.String()+"/seen", "")
	var second domain.StatusHistoryEntry
	if err := json.NewDecoder(rec.Body).Decode(&second); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if !second.SeenAt.Equal(*first.SeenAt) {
		t.Fatal("marking an already-seen entry must not move seen_at")
	}
}

func TestMarkSeenUnknownEntryIs404(t *testing.T) {
	tenantID := uuid.New()
	store := newFakeAndamentoStore(tenantID)

	rec := serve(t, store, tenantID, http.MethodPost, "/"+uuid.NewString()+"/seen", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestMarkSeenRejectsBadID(t *testing.T) {
	tenantID := uuid.New()
	store := newFakeAndamentoStore(tenantID)

	rec := serve(t, store, tenantID, http.MethodPost, "/not-a-uuid/seen", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestMarkAllSeenReportsUpdatedCount(t *testing.T) {
	tenantID := uuid.New()
	store := newFakeAndamentoStore(tenantID)
	store.add("Em Análise", "Exigência", false)
	store.add("Exigência", "Concluída", false)
	store.add("Em Análise", "Concluída", true)

	rec := serve(t, store, tenantID, http.MethodPost, "/seen", `{"seen":"unseen"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body map[string]int64
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["updated"] != 2 {
		t.Fatalf("expected 2 updated, got %d", body["updated"])
	}

	rec = serve(t, store, tenantID, http.MethodPost, "/seen", "")
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["updated"] != 0 {
		t.Fatalf("expected nothing left to update, got %d", body["updated"])
	}
}

func TestStats(t *testing.T) {
	tenantID := uuid.New()
	store := newFakeAndamentoStore(tenantID)
	store.add("Em Análise", "Exigência", false)
	store.add("Exigência", "Concluída", true)

	rec := serve(t, store, tenantID, http.MethodGet, "/stats", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var stats domain.AndamentoStats
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if stats.Total != 2 || stats.Unseen != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func serve(t *testing.T, store *fakeAndamentoStore, tenantID uuid.UUID, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	handler := NewHTTPHandler(NewService(store, zap.NewNop()))

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req = req.WithContext(auth.ContextWithTenantID(req.Context(), tenantID))

	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, req)
	return rec
}

// fakeAndamentoStore keeps entries in memory, applies the seen-state part
// of the filter and honors pagination the way the real store does.
type fakeAndamentoStore struct {
	tenantID  uuid.UUID
	entries   []*domain.StatusHistoryEntry
	processes map[uuid.UUID]domain.Process
	despachos map[uuid.UUID]*domain.Despacho
}

func newFakeAndamentoStore(tenantID uuid.UUID) *fakeAndamentoStore {
	return &fakeAndamentoStore{
		tenantID:  tenantID,
		processes: make(map[uuid.UUID]domain.Process),
		despachos: make(map[uuid.UUID]*domain.Despacho),
	}
}

func (f *fakeAndamentoStore) add(before, after string, seen bool) uuid.UUID {
	return f.addDetailed(before, after, seen, domain.Process{
		ID:       uuid.New(),
		TenantID: f.tenantID,
	}, nil)
}

func (f *fakeAndamentoStore) addDetailed(before, after string, seen bool, process domain.Process, despacho *domain.Despacho) uuid.UUID {
	entry := &domain.StatusHistoryEntry{
		ID:           uuid.New(),
		ProcessID:    process.ID,
		TenantID:     f.tenantID,
		StatusBefore: before,
		StatusAfter:  after,
		OccurredAt:   time.Now(),
		Seen:         seen,
		CreatedAt:    time.Now(),
	}
	if seen {
		now := time.Now()
		entry.SeenAt = &now
	}
	f.entries = append(f.entries, entry)
	f.processes[entry.ID] = process
	if despacho != nil {
		f.despachos[entry.ID] = despacho
	}
	return entry.ID
}

func (f *fakeAndamentoStore) matches(entry *domain.StatusHistoryEntry, filter domain.AndamentoFilter) bool {
	switch filter.SeenState {
	case domain.SeenStateSeen:
		return entry.Seen
	case domain.SeenStateUnseen:
		return !entry.Seen
	default:
		return true
	}
}

func (f *fakeAndamentoStore) List(ctx context.Context, tenantID uuid.UUID, filter domain.AndamentoFilter, page domain.Page) ([]domain.Andamento, int64, error) {
	var matched []domain.Andamento
	for _, entry := range f.entries {
		if entry.TenantID != tenantID || !f.matches(entry, filter) {
			continue
		}
		matched = append(matched, domain.Andamento{
			Entry:    *entry,
			Process:  f.processes[entry.ID],
			Despacho: f.despachos[entry.ID],
		})
	}

	total := int64(len(matched))
	limit := page.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := page.Offset
	if offset > len(matched) {
		offset = len(matched)
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (f *fakeAndamentoStore) MarkSeen(ctx context.Context, tenantID uuid.UUID, entryID uuid.UUID) (domain.StatusHistoryEntry, error) {
	for _, entry := range f.entries {
		if entry.TenantID != tenantID || entry.ID != entryID {
			continue
		}
		if !entry.Seen {
			entry.Seen = true
			now := time.Now()
			entry.SeenAt = &now
		}
		return *entry, nil
	}
	return domain.StatusHistoryEntry{}, &domain.NotFoundError{Resource: "history entry", ID: entryID.String()}
}

func (f *fakeAndamentoStore) MarkAllSeen(ctx context.Context, tenantID uuid.UUID, filter domain.AndamentoFilter) (int64, error) {
	var updated int64
	for _, entry := range f.entries {
		if entry.TenantID != tenantID || entry.Seen || !f.matches(entry, filter) {
			continue
		}
		entry.Seen = true
		now := time.Now()
		entry.SeenAt = &now
		updated++
	}
	return updated, nil
}

func (f *fakeAndamentoStore) Stats(ctx context.Context, tenantID uuid.UUID) (domain.AndamentoStats, error) {
	stats := domain.AndamentoStats{}
	for _, entry := range f.entries {
		if entry.TenantID != tenantID {
			continue
		}
		stats.Total++
		if !entry.Seen {
			stats.Unseen++
		}
	}
	return stats, nil
}
