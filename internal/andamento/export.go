package andamento

import (
	"fmt"
	"net/http"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/prevhub/processync/internal/auth"
	"github.com/prevhub/processync/internal/domain"
)

const exportPageSize = 200
const exportMaxRows = 10000

var exportHeaders = []string{
	"Protocol", "Subject", "Document", "Service",
	"Previous Status", "New Status", "Occurred At", "Seen", "Despacho",
}

// handleExport streams the filtered transition list as an .xlsx workbook.
func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := auth.TenantIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing tenant"})
		return
	}

	filter, err := filterFromQuery(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	file := excelize.NewFile()
	defer func() { _ = file.Close() }()

	sheet := file.GetSheetName(0)
	for col, header := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		_ = file.SetCellValue(sheet, cell, header)
	}

	rowIndex := 2
	offset := 0
	for rowIndex-2 < exportMaxRows {
		page, listErr := h.service.List(r.Context(), tenantID, filter, domain.Page{Limit: exportPageSize, Offset: offset})
		if listErr != nil {
			writeError(w, listErr)
			return
		}
		if len(page.Items) == 0 {
			break
		}

		for _, item := range page.Items {
			if rowIndex-2 >= exportMaxRows {
				break
			}
			writeExportRow(file, sheet, rowIndex, item)
			rowIndex++
		}
		offset += len(page.Items)
		if int64(offset) >= page.Total {
			break
		}
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(
		"attachment; filename=andamentos-%s.xlsx", time.Now().Format("2006-01-02"),
	))
	if err := file.Write(w); err != nil {
		// Headers are already out; nothing sensible left to send.
		return
	}
}

func writeExportRow(file *excelize.File, sheet string, row int, item domain.Andamento) {
	despacho := ""
	if item.Despacho != nil {
		despacho = item.Despacho.Content
	}

	values := []any{
		item.Process.Protocol,
		item.Process.SubjectName,
		item.Process.SubjectDocument,
		item.Process.Service,
		item.Entry.StatusBefore,
		item.Entry.StatusAfter,
		item.Entry.OccurredAt.Format(time.RFC3339),
		item.Entry.Seen,
		despacho,
	}

	for col, value := range values {
		cell, _ := excelize.CoordinatesToCellName(col+1, row)
		_ = file.SetCellValue(sheet, cell, value)
	}
}
