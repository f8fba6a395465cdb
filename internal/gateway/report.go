package gateway

import (
	"net/http"
	"strconv"

	"github.com/sal-retail/backoffice/internal/domain/directory"
	"github.com/sal-retail/backoffice/internal/domain/order"
)

func (g *Gateway) handleSalesReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := order.Filter{
		SalesID:   parseInt64(q.Get("sales_id")),
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
		Month:     int(parseInt64(q.Get("month"))),
		Year:      int(parseInt64(q.Get("year"))),
	}

	report, err := g.reports.SalesReport(r.Context(), filter)
	if err != nil {
		g.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (g *Gateway) handleOutletsScreen(w http.ResponseWriter, r *http.Request) {
	outlets, err := g.dir.Outlets(r.Context())
	if err != nil {
		g.writeError(r.Context(), w, err)
		return
	}

	if segment := r.URL.Query().Get("segment"); segment != "" {
		outlets = directory.FilterOutlets(outlets, directory.Segment(segment))
	}
	writeJSON(w, http.StatusOK, map[string]any{"outlets": outlets})
}

// parseInt64 reads a numeric query parameter, treating anything malformed
// as absent.
func parseInt64(s string) int64 {
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
