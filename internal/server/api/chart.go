package api

import (
	"bytes"
	"net/http"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/ayusman/mudra/internal/ingest"
	"github.com/ayusman/mudra/internal/visual"
)

// ChartHandler renders the gesture log counts as an HTML bar chart, one bar
// per gesture in the color that gesture gives the object.
type ChartHandler struct {
	log   GestureLog
	theme func() visual.Theme
}

// NewChartHandler creates a ChartHandler. theme may be nil, meaning dark.
func NewChartHandler(log GestureLog, theme func() visual.Theme) *ChartHandler {
	return &ChartHandler{log: log, theme: theme}
}

func (h *ChartHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		allowMethods(w, http.MethodGet)
		return
	}

	counts, err := h.log.CountByGesture()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "count gestures: %v", err)
		return
	}

	theme := visual.ThemeDark
	if h.theme != nil {
		theme = h.theme()
	}

	var (
		names []string
		bars  []opts.BarData
	)
	for _, g := range ingest.Gestures {
		if g == ingest.GestureNone {
			continue
		}
		names = append(names, string(g))
		bars = append(bars, opts.BarData{
			Name:      string(g),
			Value:     counts[string(g)],
			ItemStyle: &opts.ItemStyle{Color: visual.MapGesture(g, theme).Color.Hex()},
		})
	}

	chartTheme := "light"
	if theme == visual.ThemeDark {
		chartTheme = "dark"
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "mudra gestures",
			Theme:     chartTheme,
			Width:     "100%",
			Height:    "480px",
		}),
		charts.WithTitleOpts(opts.Title{Title: "Recognized gestures", Subtitle: time.Now().Format(time.RFC3339)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(names).AddSeries("count", bars,
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
	)

	var buf bytes.Buffer
	if err := bar.Render(&buf); err != nil {
		writeError(w, http.StatusInternalServerError, "render chart: %v", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
