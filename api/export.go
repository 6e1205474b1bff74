package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/juridigo/procpipe/store"
)

var processHeaders = []string{"Número", "Classe", "Assunto", "Juiz", "Partes", "Criado em"}

var partyHeaders = []string{"Processo", "Nome", "Documento", "Categoria"}

// handleExport streams the full process table as an xlsx workbook with a
// processes sheet and a parties sheet.
func (s *Service) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Page through everything; export is unfiltered.
	var procs []*store.Process
	for page := 1; ; page++ {
		batch, _, err := s.store.ListProcesses(ctx, store.ProcessFilter{Page: page, PageSize: 100})
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		procs = append(procs, batch...)
		if len(batch) < 100 {
			break
		}
	}

	f := excelize.NewFile()
	defer f.Close()

	const procSheet = "Processos"
	f.SetSheetName("Sheet1", procSheet)
	if err := writeHeaders(f, procSheet, processHeaders); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	for i, p := range procs {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			f.SetCellValue(procSheet, cell, v)
		}
		write(1, p.Number)
		write(2, p.Class)
		write(3, p.Subject)
		write(4, p.Judge)
		write(5, p.PartiesCount)
		write(6, p.CreatedAt.Format(time.RFC3339))
	}
	f.SetColWidth(procSheet, "A", "A", 28)
	f.SetColWidth(procSheet, "B", "D", 32)

	const partySheet = "Partes"
	if _, err := f.NewSheet(partySheet); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if err := writeHeaders(f, partySheet, partyHeaders); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	row := 2
	for _, p := range procs {
		parties, err := s.store.ListParties(ctx, p.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		for _, party := range parties {
			write := func(col int, v any) {
				cell, _ := excelize.CoordinatesToCellName(col, row)
				f.SetCellValue(partySheet, cell, v)
			}
			write(1, p.Number)
			write(2, party.Name)
			write(3, party.Document)
			write(4, party.Label)
			row++
		}
	}
	f.SetColWidth(partySheet, "A", "B", 32)

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="processes.xlsx"`)
	if err := f.Write(w); err != nil {
		s.logger.Error("xlsx export write failed", "error", err)
	}
}

func writeHeaders(f *excelize.File, sheet string, headers []string) error {
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	return nil
}
