package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
	"go.uber.org/zap"

	"github.com/Labhund/CompChemJobServer/core/registry"
)

// DashboardHandler serves the informational HTML overview at /.
type DashboardHandler struct {
	reg *registry.Registry
	log *zap.Logger
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(reg *registry.Registry, log *zap.Logger) *DashboardHandler {
	return &DashboardHandler{reg: reg, log: log}
}

// Dashboard handles GET /.
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	counts := h.reg.Counts()

	hostLine := ""
	if vm, err := mem.VirtualMemory(); err == nil {
		hostLine = fmt.Sprintf("<li>Host Memory: %.1f%% used of %.1f GB</li>",
			vm.UsedPercent, float64(vm.Total)/(1<<30))
	}
	if avg, err := load.Avg(); err == nil {
		hostLine += fmt.Sprintf("<li>Load Average: %.2f %.2f %.2f</li>",
			avg.Load1, avg.Load5, avg.Load15)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, `<html>
<head>
    <title>Computational Chemistry Job Server</title>
    <style> body { font-family: sans-serif; margin: 20px; } h1, h2 { color: #333; } ul { list-style-type: none; padding: 0; } li { margin-bottom: 5px; } code { background-color: #f4f4f4; padding: 2px 4px; border-radius: 3px; } </style>
</head>
<body>
    <h1>Computational Chemistry Job Server</h1>
    <h2>Server Status</h2>
    <ul>
        <li>Running Jobs: %d / %d</li>
        <li>Queued Jobs: %d</li>
        <li>Total Jobs Processed: %d</li>
        %s
    </ul>
    <h2>API Endpoints</h2>
    <ul>
        <li><code>POST /api/submit</code> - Submit job (JSON: {"name": "my_job", "program": "qchem/orca", "input_content": "..."})</li>
        <li><code>GET /api/status/&lt;job_id&gt;</code> - Get job status</li>
        <li><code>GET /api/output/&lt;job_id&gt;/&lt;filename&gt;</code> - Download output file</li>
        <li><code>GET /api/jobs</code> - List all jobs</li>
        <li><code>GET /api/health</code> - Health check</li>
    </ul>
    <p><small>Server time: %s</small></p>
</body>
</html>
`,
		counts.Running, counts.MaxConcurrent, counts.Queued, counts.Total,
		hostLine, time.Now().Format(time.RFC3339))
}
