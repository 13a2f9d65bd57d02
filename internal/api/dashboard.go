package api

import (
	"encoding/json"
	"html/template"
	"net/http"
	"sort"

	"go.uber.org/zap"

	"github.com/tmasselin/fuelwatch/internal/store"
)

// chartPoint is one (day, price) sample on the dashboard chart.
type chartPoint struct {
	X string  `json:"x"`
	Y float64 `json:"y"`
}

// dashboardView is the data handed to the dashboard template.
type dashboardView struct {
	HasData  bool
	Latest   store.PriceEntry
	Min      float64
	Max      float64
	Count    int
	Stations []string
	Rows     []store.PriceEntry
	// ChartData is a JSON object mapping station name to its samples,
	// embedded verbatim into the page script.
	ChartData template.JS
}

func (s *Server) dashboard(w http.ResponseWriter, _ *http.Request) {
	h, err := s.open()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to open price store")
		return
	}
	view, err := buildDashboardView(h.GetHistory())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to build dashboard")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := dashboardTmpl.Execute(w, view); err != nil {
		s.logger.Error("Failed to render dashboard", zap.Error(err))
	}
}

func buildDashboardView(history []store.PriceEntry) (dashboardView, error) {
	view := dashboardView{
		HasData: len(history) > 0,
		Count:   len(history),
	}
	if !view.HasData {
		view.ChartData = "{}"
		return view, nil
	}

	view.Latest = history[len(history)-1]
	view.Min = history[0].Price
	view.Max = history[0].Price

	byStation := make(map[string][]chartPoint)
	for _, e := range history {
		if e.Price < view.Min {
			view.Min = e.Price
		}
		if e.Price > view.Max {
			view.Max = e.Price
		}
		byStation[e.Station] = append(byStation[e.Station], chartPoint{X: e.Day(), Y: e.Price})
	}

	for station := range byStation {
		view.Stations = append(view.Stations, station)
	}
	sort.Strings(view.Stations)

	// Newest first in the table.
	view.Rows = make([]store.PriceEntry, 0, len(history))
	for i := len(history) - 1; i >= 0; i-- {
		view.Rows = append(view.Rows, history[i])
	}

	payload, err := json.Marshal(byStation)
	if err != nil {
		return dashboardView{}, err
	}
	view.ChartData = template.JS(payload) // #nosec G203 -- payload is marshaled server-side from store data.
	return view, nil
}

var dashboardTmpl = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Fuelwatch</title>
<script src="https://cdn.jsdelivr.net/npm/chart.js@3.9.1/dist/chart.min.js"></script>
<style>
body { font-family: -apple-system, 'Segoe UI', Roboto, sans-serif; margin: 0; background: #f4f5f7; }
header { background: #2c3e50; color: white; padding: 24px; text-align: center; }
.content { max-width: 1100px; margin: 0 auto; padding: 24px; }
.stats { display: grid; grid-template-columns: repeat(auto-fit, minmax(180px, 1fr)); gap: 16px; margin-bottom: 24px; }
.stat { background: white; border-radius: 8px; padding: 16px; border-left: 4px solid #667eea; }
.stat .label { font-size: 11px; color: #666; text-transform: uppercase; }
.stat .value { font-size: 22px; font-weight: bold; color: #2c3e50; }
.filters label { margin-right: 16px; cursor: pointer; }
.chart-wrap { background: white; border-radius: 8px; padding: 16px; height: 380px; margin-bottom: 24px; }
table { width: 100%; border-collapse: collapse; background: white; border-radius: 8px; }
th, td { padding: 10px; text-align: left; border-bottom: 1px solid #e0e0e0; }
tr.hidden { display: none; }
.price { font-weight: bold; color: #27ae60; }
.no-data { text-align: center; color: #7f8c8d; padding: 40px; }
</style>
</head>
<body>
<header><h1>&#9981; Fuelwatch</h1><p>Station price history</p></header>
<div class="content">
{{if .HasData}}
<div class="stats">
  <div class="stat"><div class="label">Current Price</div><div class="value">&euro;{{printf "%.3f" .Latest.Price}}</div></div>
  <div class="stat"><div class="label">Last Updated</div><div class="value">{{.Latest.Day}}</div></div>
  <div class="stat"><div class="label">Total Records</div><div class="value">{{.Count}}</div></div>
  <div class="stat"><div class="label">Min / Max</div><div class="value">&euro;{{printf "%.3f" .Min}} / &euro;{{printf "%.3f" .Max}}</div></div>
</div>
<div class="filters">
{{range .Stations}}<label><input type="checkbox" class="station-filter" value="{{.}}" checked> {{.}}</label>{{end}}
</div>
<div class="chart-wrap"><canvas id="priceChart"></canvas></div>
<table>
<thead><tr><th>Station</th><th>Date</th><th>Price</th><th>Fuel</th><th>Postal</th></tr></thead>
<tbody>
{{range .Rows}}<tr class="row" data-station="{{.Station}}"><td>{{.Station}}</td><td>{{.Date.Format "2006-01-02 15:04"}}</td><td class="price">&euro;{{printf "%.3f" .Price}}</td><td>{{.Fuel}}</td><td>{{.Postal}}</td></tr>
{{end}}
</tbody>
</table>
<script>
const stationData = {{.ChartData}};
const colors = ['#667eea', '#764ba2', '#f093fb', '#4facfe', '#43e97b', '#fa709a'];
let chart = null;

function selectedStations() {
  return Array.from(document.querySelectorAll('.station-filter:checked')).map(cb => cb.value);
}

function update() {
  const selected = selectedStations();
  const labels = [];
  const datasets = [];
  Object.keys(stationData).sort().forEach((station, idx) => {
    if (!selected.includes(station)) return;
    stationData[station].forEach(p => { if (!labels.includes(p.x)) labels.push(p.x); });
    const color = colors[idx % colors.length];
    datasets.push({
      label: station,
      data: stationData[station].map(p => ({x: p.x, y: p.y})),
      borderColor: color,
      backgroundColor: color + '1a',
      borderWidth: 2,
      tension: 0.4,
      fill: false
    });
  });
  labels.sort();
  if (chart) {
    chart.data.labels = labels;
    chart.data.datasets = datasets;
    chart.update();
  } else {
    chart = new Chart(document.getElementById('priceChart').getContext('2d'), {
      type: 'line',
      data: {labels: labels, datasets: datasets},
      options: {
        responsive: true,
        maintainAspectRatio: false,
        scales: {y: {beginAtZero: false, ticks: {callback: v => '€' + v.toFixed(2)}}}
      }
    });
  }
  document.querySelectorAll('tr.row').forEach(row => {
    row.classList.toggle('hidden', !selected.includes(row.getAttribute('data-station')));
  });
}

document.querySelectorAll('.station-filter').forEach(cb => cb.addEventListener('change', update));
update();
</script>
{{else}}
<div class="no-data">No price data yet. Run: fuelwatch fetch</div>
{{end}}
</div>
</body>
</html>
`))
