// Package webui provides the dashboard and audit API for the freight
// delivery audit backend. This file renders the operator dashboard.
package webui

import (
	"net/http"
)

const dashboardPageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Freight Audit</title>
<style>
body { font-family: -apple-system, "Segoe UI", sans-serif; background: #1e2430; color: #e6e9ef; margin: 0; }
header { background: #2a3242; padding: 0.8rem 1.5rem; display: flex; justify-content: space-between; }
header a { color: #9bb4d4; text-decoration: none; }
main { max-width: 960px; margin: 1.5rem auto; padding: 0 1rem; }
section { background: #2a3242; border-radius: 8px; padding: 1.2rem 1.5rem; margin-bottom: 1.5rem; }
h2 { font-size: 1rem; margin: 0 0 1rem; color: #9bb4d4; }
.counters { display: flex; gap: 2rem; flex-wrap: wrap; }
.counter b { display: block; font-size: 1.6rem; }
table { width: 100%; border-collapse: collapse; font-size: 0.85rem; }
th, td { text-align: left; padding: 0.4rem 0.6rem; border-bottom: 1px solid #3d485c; }
.outcome-passed { color: #81c784; }
.outcome-retake_requested { color: #e57373; }
.outcome-overridden { color: #ffb74d; }
.outcome-fail_open { color: #9bb4d4; }
button { padding: 0.5rem 1rem; border: 0; border-radius: 4px; background: #4a7dbd; color: #fff; cursor: pointer; }
#result { white-space: pre-wrap; font-family: monospace; font-size: 0.8rem; margin-top: 1rem; }
</style>
</head>
<body>
<header>
<span>Freight Audit Dashboard</span>
<span><a href="/api/audits/export.csv">Export CSV</a> &nbsp; <a href="/logout">Logout</a></span>
</header>
<main>
<section>
<h2>Submit audit</h2>
<form id="audit-form">
<p>Goods photo: <input type="file" name="goods" accept="image/*" required></p>
<p>Delivery document: <input type="file" name="document" accept="image/*,.pdf" required></p>
<p><label><input type="checkbox" name="force" value="true"> Force (override blur gate)</label></p>
<button type="submit">Run audit</button>
</form>
<div id="result"></div>
</section>
<section>
<h2>Gate counters</h2>
<div class="counters" id="counters">loading...</div>
</section>
<section>
<h2>Recent audits</h2>
<table>
<thead><tr><th>Time</th><th>Outcome</th><th>Goods</th><th>Doc</th><th>Oracle</th><th>Duration</th></tr></thead>
<tbody id="history"></tbody>
</table>
</section>
</main>
<script>
async function refresh() {
  const metrics = await (await fetch('/api/metrics')).json();
  const gate = metrics.gate;
  document.getElementById('counters').innerHTML =
    '<div class="counter"><b>' + gate.total_audits + '</b>total</div>' +
    '<div class="counter"><b>' + gate.passed + '</b>passed</div>' +
    '<div class="counter"><b>' + gate.retake_requested + '</b>retakes</div>' +
    '<div class="counter"><b>' + gate.overridden + '</b>overridden</div>' +
    '<div class="counter"><b>' + gate.fail_open + '</b>fail-open</div>' +
    '<div class="counter"><b>' + gate.retake_rate.toFixed(1) + '%</b>retake rate</div>';

  const audits = await (await fetch('/api/audits?limit=20')).json();
  document.getElementById('history').innerHTML = audits.audits.map(a =>
    '<tr><td>' + new Date(a.created_at).toLocaleString() + '</td>' +
    '<td class="outcome-' + a.gate_outcome + '">' + a.gate_outcome + '</td>' +
    '<td>' + a.goods_score + '</td>' +
    '<td>' + (a.doc_is_pdf ? 'PDF' : a.doc_score) + '</td>' +
    '<td>' + (a.oracle_status || '-') + '</td>' +
    '<td>' + a.duration_ms + 'ms</td></tr>').join('');
}

document.getElementById('audit-form').addEventListener('submit', async e => {
  e.preventDefault();
  const out = document.getElementById('result');
  out.textContent = 'auditing...';
  const resp = await fetch('/api/audits', { method: 'POST', body: new FormData(e.target) });
  out.textContent = JSON.stringify(await resp.json(), null, 2);
  refresh();
});

refresh();
setInterval(refresh, 10000);
</script>
</body>
</html>
`

// HandleDashboardPage renders the single-page operator dashboard. All data
// comes from the JSON API; the page itself is static.
func HandleDashboardPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(dashboardPageHTML))
}
