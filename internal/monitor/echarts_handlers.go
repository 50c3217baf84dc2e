package monitor

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// handleTimelineChart renders a quick line chart (HTML) of recent sector
// distances and urgency using go-echarts. This is a debugging-only endpoint
// to eyeball a session without pulling the data into a notebook.
// Query params:
//   - session (optional; empty selects across all sessions)
//   - limit (optional; default 500)
func (ws *WebServer) handleTimelineChart(w http.ResponseWriter, r *http.Request) {
	if ws.store == nil {
		ws.writeJSONError(w, http.StatusInternalServerError, "no database configured")
		return
	}

	limit := 500
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 5000 {
			limit = v
		}
	}
	sessionID := r.URL.Query().Get("session")

	records, err := ws.store.RecentFrames(sessionID, limit)
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to query records: %v", err))
		return
	}
	if len(records) == 0 {
		ws.writeJSONError(w, http.StatusNotFound, "no records available")
		return
	}

	// RecentFrames is newest-first; the chart reads left to right in time.
	xAxis := make([]string, len(records))
	left := make([]opts.LineData, len(records))
	center := make([]opts.LineData, len(records))
	right := make([]opts.LineData, len(records))
	urgency := make([]opts.LineData, len(records))
	for i := range records {
		rec := records[len(records)-1-i]
		xAxis[i] = rec.Timestamp.Format("15:04:05.000")
		left[i] = opts.LineData{Value: rec.Left}
		center[i] = opts.LineData{Value: rec.Center}
		right[i] = opts.LineData{Value: rec.Right}
		urgency[i] = opts.LineData{Value: rec.Urgency}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Guidance Timeline", Theme: "dark", Width: "1400px", Height: "700px"}),
		charts.WithTitleOpts(opts.Title{Title: "Sector Distances", Subtitle: fmt.Sprintf("session=%s frames=%d", sessionID, len(records))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Distance (m)"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	line.SetXAxis(xAxis).
		AddSeries("left", left).
		AddSeries("center", center).
		AddSeries("right", right).
		AddSeries("urgency", urgency)

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
