package andamento

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/prevhub/processync/internal/domain"
)

func TestExportWritesRows(t *testing.T) {
	tenantID := uuid.New()
	store := newFakeAndamentoStore(tenantID)

	despacho := &domain.Despacho{
		ID:              uuid.New(),
		SourceMessageID: "msg-1",
		Protocol:        "19100000001",
		Content:         "Despacho: compareça à agência.",
		ReceivedAt:      time.Now(),
	}
	store.addDetailed("Em Análise", "Exigência", false, domain.Process{
		ID:              uuid.New(),
		TenantID:        tenantID,
		Protocol:        "19100000001",
		Status:          "Exigência",
		SubjectName:     "Maria Silva",
		SubjectDocument: "12345678901",
		Service:         "Aposentadoria por Idade",
	}, despacho)
	store.addDetailed("Exigência", "Concluída", true, domain.Process{
		ID:              uuid.New(),
		TenantID:        tenantID,
		Protocol:        "19100000002",
		Status:          "Concluída",
		SubjectName:     "João Souza",
		SubjectDocument: "98765432100",
		Service:         "Auxílio-Doença",
	}, nil)

	rec := serve(t, store, tenantID, http.MethodGet, "/export", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Fatalf("unexpected content type %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment; filename=andamentos-") {
		t.Fatalf("unexpected content disposition %q", cd)
	}

	rows := decodeWorkbook(t, rec.Body.Bytes())
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}

	for col, header := range exportHeaders {
		if rows[0][col] != header {
			t.Fatalf("header column %d = %q, want %q", col, rows[0][col], header)
		}
	}

	first := rows[1]
	if first[0] != "19100000001" || first[1] != "Maria Silva" || first[2] != "12345678901" {
		t.Fatalf("unexpected process columns: %v", first)
	}
	if first[4] != "Em Análise" || first[5] != "Exigência" {
		t.Fatalf("unexpected status columns: %v", first)
	}
	if first[7] != "FALSE" {
		t.Fatalf("unexpected seen column: %q", first[7])
	}
	if first[8] != "Despacho: compareça à agência." {
		t.Fatalf("unexpected despacho column: %q", first[8])
	}

	second := rows[2]
	if second[0] != "19100000002" || second[7] != "TRUE" {
		t.Fatalf("unexpected second row: %v", second)
	}
	if len(second) > 8 && second[8] != "" {
		t.Fatalf("expected empty despacho column, got %q", second[8])
	}
}

func TestExportRespectsFilter(t *testing.T) {
	tenantID := uuid.New()
	store := newFakeAndamentoStore(tenantID)
	store.add("Em Análise", "Exigência", false)
	store.add("Exigência", "Concluída", true)

	rec := serve(t, store, tenantID, http.MethodGet, "/export?seen=unseen", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rows := decodeWorkbook(t, rec.Body.Bytes())
	if len(rows) != 2 {
		t.Fatalf("expected header plus 1 filtered row, got %d", len(rows))
	}

	if rec := serve(t, store, tenantID, http.MethodGet, "/export?period=year", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad filter, got %d", rec.Code)
	}
}

func TestExportDrainsAllPages(t *testing.T) {
	tenantID := uuid.New()
	store := newFakeAndamentoStore(tenantID)
	for i := 0; i < exportPageSize*2+50; i++ {
		store.addDetailed("Em Análise", "Exigência", false, domain.Process{
			ID:       uuid.New(),
			TenantID: tenantID,
			Protocol: fmt.Sprintf("191%08d", i),
		}, nil)
	}

	rec := serve(t, store, tenantID, http.MethodGet, "/export", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rows := decodeWorkbook(t, rec.Body.Bytes())
	if got := len(rows) - 1; got != exportPageSize*2+50 {
		t.Fatalf("expected %d data rows, got %d", exportPageSize*2+50, got)
	}
}

func TestExportCapsRowCount(t *testing.T) {
	if testing.Short() {
		t.Skip("builds a workbook at the row cap")
	}

	tenantID := uuid.New()
	store := newFakeAndamentoStore(tenantID)
	for i := 0; i < exportMaxRows+exportPageSize/2; i++ {
		store.add("Em Análise", "Exigência", false)
	}

	rec := serve(t, store, tenantID, http.MethodGet, "/export", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rows := decodeWorkbook(t, rec.Body.Bytes())
	if got := len(rows) - 1; got != exportMaxRows {
		t.Fatalf("expected export capped at %d rows, got %d", exportMaxRows, got)
	}
}

func decodeWorkbook(t *testing.T, payload []byte) [][]string {
	t.Helper()

	file, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("failed to open workbook: %v", err)
	}
	defer func() { _ = file.Close() }()

	rows, err := file.GetRows(file.GetSheetName(0))
	if err != nil {
		t.Fatalf("failed to read rows: %v", err)
	}
	return rows
}
