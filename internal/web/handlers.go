package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"whereiam/internal/eventlog"
	"whereiam/internal/globe"
	"whereiam/internal/ledger"
	"whereiam/models"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

//go:embed templates
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

const recentEventLogs = 5

// Resolver runs one resolution of the requested key
type Resolver interface {
	Resolve(ctx context.Context, key *string) (ledger.Resolution, error)
}

// KeyStore holds the currently requested key, nil for home
type KeyStore interface {
	Key() *string
	Set(key string)
}

// Links are the outbound links of the top bar, empty ones are hidden
type Links struct {
	Author string
	Repo   string
}

type WebHandler struct {
	resolver        Resolver
	keys            KeyStore
	eventLogService *eventlog.EventLogService
	templates       *template.Template
	clock           clockwork.Clock
	logger          *zap.Logger
	links           Links
}

type PageData struct {
	Title     string
	Links     Links
	View      *globe.View
	Error     string
	EventLogs []*models.EventLog
}

type updateLocationRequest struct {
	Location *string `json:"location"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewWebHandler(
	resolver Resolver,
	keys KeyStore,
	eventLogService *eventlog.EventLogService,
	clock clockwork.Clock,
	logger *zap.Logger,
) (*WebHandler, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	tmpl, err := parseTemplates(clock)
	if err != nil {
		return nil, err
	}

	return &WebHandler{
		resolver:        resolver,
		keys:            keys,
		eventLogService: eventLogService,
		templates:       tmpl,
		clock:           clock,
		logger:          logger,
	}, nil
}

// SetLinks sets the top bar links
func (h *WebHandler) SetLinks(links Links) {
	h.links = links
}

func parseTemplates(clock clockwork.Clock) (*template.Template, error) {
	funcMap := template.FuncMap{
		"formatTimeAgo": func(t time.Time) string {
			if t.IsZero() {
				return "Never"
			}
			duration := clock.Since(t)
			switch {
			case duration < time.Minute:
				return fmt.Sprintf("%ds ago", int(duration.Seconds()))
			case duration < time.Hour:
				return fmt.Sprintf("%dm ago", int(duration.Minutes()))
			case duration < 24*time.Hour:
				return fmt.Sprintf("%dh ago", int(duration.Hours()))
			default:
				return fmt.Sprintf("%dd ago", int(duration.Hours()/24))
			}
		},
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templateFS, "templates/*.html", "templates/components/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return tmpl, nil
}

// StaticFiles serves the embedded assets
func StaticFiles() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(fmt.Sprintf("static assets: %v", err))
	}
	return http.FileServer(http.FS(sub))
}

// Index renders the globe page. Failures render the placeholder with a 500.
func (h *WebHandler) Index(w http.ResponseWriter, r *http.Request) {
	data := PageData{Title: "Where I'm", Links: h.links}

	res, err := h.resolver.Resolve(r.Context(), h.keys.Key())
	if err != nil {
		h.logger.Error("Index: resolution failed", zap.Error(err))
		data.Error = publicError(err)
		w.WriteHeader(http.StatusInternalServerError)
	} else {
		view := globe.Build(res, h.clock.Now())
		data.View = &view
		data.EventLogs = h.recentEventLogs(r.Context())
	}

	if err := h.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		h.logger.Error("Index: template execution error", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// APILocation returns the raw resolution
func (h *WebHandler) APILocation(w http.ResponseWriter, r *http.Request) {
	res, err := h.resolver.Resolve(r.Context(), h.keys.Key())
	if err != nil {
		h.logger.Error("APILocation: resolution failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: publicError(err)})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// APIUpdateLocation changes the requested key and resolves it right away
func (h *WebHandler) APIUpdateLocation(w http.ResponseWriter, r *http.Request) {
	var req updateLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	key := ledger.NormalizeKey(req.Location)
	if key == nil {
		h.keys.Set("")
	} else {
		h.keys.Set(*key)
	}
	h.logger.Info("Requested location updated", zap.Stringp("location", key))

	res, err := h.resolver.Resolve(r.Context(), key)
	if err != nil {
		h.logger.Error("APIUpdateLocation: resolution failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: publicError(err)})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// APIGlobe returns the globe view model
func (h *WebHandler) APIGlobe(w http.ResponseWriter, r *http.Request) {
	res, err := h.resolver.Resolve(r.Context(), h.keys.Key())
	if err != nil {
		h.logger.Error("APIGlobe: resolution failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: publicError(err)})
		return
	}
	writeJSON(w, http.StatusOK, globe.Build(res, h.clock.Now()))
}

// APIEventLogsTable renders the recent moves fragment
func (h *WebHandler) APIEventLogsTable(w http.ResponseWriter, r *http.Request) {
	data := struct {
		EventLogs []*models.EventLog
	}{
		EventLogs: h.recentEventLogs(r.Context()),
	}

	if err := h.templates.ExecuteTemplate(w, "event-logs.html", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *WebHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}

func (h *WebHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
}

func (h *WebHandler) recentEventLogs(ctx context.Context) []*models.EventLog {
	if h.eventLogService == nil {
		return nil
	}
	logs, err := h.eventLogService.GetLatest(ctx, recentEventLogs)
	if err != nil {
		h.logger.Warn("Failed to load event logs", zap.Error(err))
		return nil
	}
	return logs
}

// publicError maps resolution failures to a message safe to show visitors
func publicError(err error) string {
	switch {
	case errors.Is(err, ledger.ErrStoreCorrupt):
		return "location history is unreadable"
	case errors.Is(err, ledger.ErrGenerationFailure):
		return "could not find out where I am"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "request cancelled"
	default:
		return "something went wrong"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
