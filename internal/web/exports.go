package web

import (
	"net/http"
	"strconv"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) handleExportICS(w http.ResponseWriter, _ *http.Request) {
	writeAttachment(w, "calendar.ics", "text/calendar; charset=utf-8", []byte(s.planner.ExportICS()))
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, _ *http.Request) {
	data, err := s.planner.ExportXLSX()
	if err != nil {
		writeCalendarError(w, err)
		return
	}
	writeAttachment(w, "calendar.xlsx", xlsxContentType, data)
}

type importResponse struct {
	Imported  int      `json:"imported"`
	Skipped   int      `json:"skipped"`
	Truncated []string `json:"truncated"`
	Total     int      `json:"total"`
}

// handleImportICS loads events from an iCalendar body. ?replace=true swaps
// the calendar; otherwise events are merged by id.
func (s *Server) handleImportICS(w http.ResponseWriter, r *http.Request) {
	replace, _ := strconv.ParseBool(r.URL.Query().Get("replace"))
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)

	res, err := s.planner.ImportICS(body, replace)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	truncated := res.Truncated
	if truncated == nil {
		truncated = []string{}
	}
	writeJSON(w, http.StatusOK, importResponse{
		Imported:  len(res.Events),
		Skipped:   res.Skipped,
		Truncated: truncated,
		Total:     s.planner.Calendar().Len(),
	})
}

func writeAttachment(w http.ResponseWriter, name, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
