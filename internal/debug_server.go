package internal

import (
	"context"
	"embed"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"html/template"
	"line-chat/contract"
	"line-chat/observability"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/samber/lo"
)

//go:embed debug.html
var templatesFS embed.FS

// SessionView is one registered participant as exposed on /sessions.
type SessionView struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	RemoteAddr string    `json:"remote_addr"`
	JoinedAt   time.Time `json:"joined_at"`
}

type PageData struct {
	Sessions []SessionView
	Stats    observability.MonitoringStats
}

// DebugServer is a read-only HTTP view over the registry and the counters.
// It runs as a supervised worker.
type DebugServer struct {
	log        *slog.Logger
	addr       string
	registry   contract.IRegistry
	monitoring *observability.MonitoringManager
	tmpl       *template.Template
}

func NewDebugServer(log *slog.Logger, addr string, registry contract.IRegistry, monitoring *observability.MonitoringManager) *DebugServer {
	return &DebugServer{
		log:        log,
		addr:       addr,
		registry:   registry,
		monitoring: monitoring,
		tmpl:       template.Must(template.ParseFS(templatesFS, "debug.html")),
	}
}

func (d *DebugServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		data := PageData{Sessions: d.sessions(), Stats: d.monitoring.GetLatest(d.registry.Len())}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := d.tmpl.Execute(w, data); err != nil {
			d.log.Error("Debug page rendering failed", "error", err)
		}
	})
	mux.HandleFunc("GET /sessions", func(w http.ResponseWriter, r *http.Request) {
		d.writeJSON(w, d.sessions())
	})
	mux.HandleFunc("GET /stats", func(w http.ResponseWriter, r *http.Request) {
		d.writeJSON(w, d.monitoring.GetLatest(d.registry.Len()))
	})
	return mux
}

// Run serves until ctx is cancelled.
func (d *DebugServer) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", d.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", d.addr, err)
	}
	server := &http.Server{Handler: d.Handler(), ReadHeaderTimeout: 5 * time.Second}

	errChan := make(chan error, 1)
	go func() {
		d.log.Info("Starting debug server", "address", listener.Addr().String())
		if err := server.Serve(listener); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("debug server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		return nil
	case err := <-errChan:
		return err
	}
}

func (d *DebugServer) sessions() []SessionView {
	return lo.Map(d.registry.Snapshot(), func(m contract.Member, _ int) SessionView {
		return SessionView{
			ID:         m.Peer.ID(),
			Name:       m.Name,
			RemoteAddr: m.Peer.RemoteAddr(),
			JoinedAt:   m.JoinedAt,
		}
	})
}

func (d *DebugServer) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		d.log.Error("Debug response encoding failed", "error", err)
	}
}
