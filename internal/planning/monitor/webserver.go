package monitor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/pathtunnel/internal/httputil"
	"github.com/banshee-data/pathtunnel/internal/monitoring"
	"github.com/banshee-data/pathtunnel/internal/planning/dppath"
	"github.com/banshee-data/pathtunnel/internal/planning/frenet"
	"github.com/banshee-data/pathtunnel/internal/planning/obstacle"
	"github.com/banshee-data/pathtunnel/internal/planning/storage/sqlite"
	"github.com/banshee-data/pathtunnel/internal/version"
)

// CycleStore is the subset of the sqlite store the web server reads.
type CycleStore interface {
	GetCycle(cycleID string) (*sqlite.CycleRecord, error)
	ListRecentCycles(limit int) ([]*sqlite.CycleRecord, error)
}

// ObstacleView is an obstacle footprint as served to the debug page.
type ObstacleView struct {
	ID      string       `json:"id"`
	Static  bool         `json:"static"`
	Outline [][2]float64 `json:"outline"`
}

// Snapshot is the most recently published cycle.
type Snapshot struct {
	Cycle     *sqlite.CycleRecord `json:"cycle"`
	Obstacles []ObstacleView      `json:"obstacles"`
}

// WebServer serves the debug view of planning cycles.
type WebServer struct {
	address string
	store   CycleStore
	server  *http.Server

	mu     sync.RWMutex
	latest *Snapshot
}

// WebServerConfig contains configuration options for the web server.
type WebServerConfig struct {
	Address string
	// Store is optional; without it only the latest cycle is served.
	Store CycleStore
}

// NewWebServer creates a new web server with the provided configuration.
func NewWebServer(config WebServerConfig) *WebServer {
	ws := &WebServer{
		address: config.Address,
		store:   config.Store,
	}
	ws.server = &http.Server{
		Addr:              ws.address,
		Handler:           ws.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return ws
}

// Publish records the outcome of a cycle as the latest snapshot.
func (ws *WebServer) Publish(res *dppath.Result, obstacles []*obstacle.Obstacle, planErr error) {
	snap := &Snapshot{Cycle: sqlite.RecordFromResult(res, obstacles, planErr)}
	for _, o := range obstacles {
		view := ObstacleView{ID: o.ID, Static: o.IsStatic()}
		for _, xy := range boxOutline(o.PerceptionBoundingBox()) {
			view.Outline = append(view.Outline, [2]float64{xy.X, xy.Y})
		}
		snap.Obstacles = append(snap.Obstacles, view)
	}

	ws.mu.Lock()
	ws.latest = snap
	ws.mu.Unlock()
}

// Latest returns the most recently published snapshot, or nil.
func (ws *WebServer) Latest() *Snapshot {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return ws.latest
}

// Start serves until ctx is cancelled, then shuts down.
func (ws *WebServer) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		monitoring.Logf("Starting HTTP server on %s", ws.address)
		if err := ws.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	monitoring.Logf("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()
	if err := ws.server.Shutdown(shutdownCtx); err != nil {
		monitoring.Logf("HTTP server shutdown error: %v", err)
		if err := ws.server.Close(); err != nil {
			monitoring.Logf("HTTP server force close error: %v", err)
		}
	}
	monitoring.Logf("HTTP server routine stopped")
	return nil
}

// Handler returns the route table.
func (ws *WebServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", ws.handleHealth)
	mux.HandleFunc("/api/cycles/latest", ws.handleLatest)
	mux.HandleFunc("/api/cycles/{id}", ws.handleCycle)
	mux.HandleFunc("/api/cycles", ws.handleCycles)
	mux.HandleFunc("/debug/path", ws.handlePathChart)
	return mux
}

func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string]string{"status": "ok", "version": version.String()})
}

func (ws *WebServer) handleLatest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	snap := ws.Latest()
	if snap == nil {
		httputil.NotFound(w, "no cycle published yet")
		return
	}
	httputil.WriteJSONOK(w, snap)
}

func (ws *WebServer) handleCycles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if ws.store == nil {
		httputil.ServiceUnavailable(w, "cycle store not configured")
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 1000 {
			httputil.BadRequest(w, "limit must be between 1 and 1000")
			return
		}
		limit = n
	}
	cycles, err := ws.store.ListRecentCycles(limit)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, map[string]interface{}{"cycles": cycles, "count": len(cycles)})
}

func (ws *WebServer) handleCycle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if ws.store == nil {
		httputil.ServiceUnavailable(w, "cycle store not configured")
		return
	}
	c, err := ws.store.GetCycle(r.PathValue("id"))
	if errors.Is(err, sqlite.ErrCycleNotFound) {
		httputil.NotFound(w, err.Error())
		return
	}
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, c)
}

// handlePathChart renders the latest cycle as an HTML scatter chart: lattice
// samples and the resolved path in the Frenet frame. ?cycle_id= renders a
// stored cycle instead.
func (ws *WebServer) handlePathChart(w http.ResponseWriter, r *http.Request) {
	var cycle *sqlite.CycleRecord
	if id := r.URL.Query().Get("cycle_id"); id != "" {
		if ws.store == nil {
			httputil.ServiceUnavailable(w, "cycle store not configured")
			return
		}
		c, err := ws.store.GetCycle(id)
		if errors.Is(err, sqlite.ErrCycleNotFound) {
			httputil.NotFound(w, err.Error())
			return
		}
		if err != nil {
			httputil.InternalServerError(w, err.Error())
			return
		}
		cycle = c
	} else if snap := ws.Latest(); snap != nil {
		cycle = snap.Cycle
	}
	if cycle == nil {
		httputil.NotFound(w, "no cycle published yet")
		return
	}

	var lattice [][]frenet.SLPoint
	if len(cycle.LatticeJSON) > 0 {
		if err := json.Unmarshal(cycle.LatticeJSON, &lattice); err != nil {
			httputil.InternalServerError(w, fmt.Sprintf("decode lattice: %v", err))
			return
		}
	}
	latticeData := make([]opts.ScatterData, 0)
	for _, level := range lattice {
		for _, p := range level {
			latticeData = append(latticeData, opts.ScatterData{Value: []interface{}{p.S, p.L}})
		}
	}
	pathData := make([]opts.ScatterData, 0, len(cycle.Points))
	for _, p := range cycle.Points {
		pathData = append(pathData, opts.ScatterData{Value: []interface{}{p.S, p.L}})
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "DP path", Theme: "dark", Width: "1200px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "DP path lattice",
			Subtitle: fmt.Sprintf("cycle=%s status=%s cost=%.3f length=%.1fm", cycle.CycleID, cycle.Status, cycle.TotalCost, cycle.PathLength),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "s (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "l (m)", NameLocation: "middle", NameGap: 30}),
	)
	scatter.AddSeries("lattice", latticeData, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}), charts.WithItemStyleOpts(opts.ItemStyle{Color: "#9e9e9e"}))
	scatter.AddSeries("path", pathData, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 2}), charts.WithItemStyleOpts(opts.ItemStyle{Color: "#2196f3"}))

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
		return
	}
	httputil.WriteHTML(w, buf.Bytes())
}
