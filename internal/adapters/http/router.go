package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/cors"

	"github.com/kirillkom/document-classifier-client/internal/core/domain"
	"github.com/kirillkom/document-classifier-client/internal/core/usecase"
	"github.com/kirillkom/document-classifier-client/internal/infrastructure/notify"
)

const defaultMaxUploadBytes = 32 << 20

type NotificationFeed interface {
	Recent() []notify.Notification
}

type MetricsProvider interface {
	Handler() http.Handler
	Middleware(next http.Handler) http.Handler
}

type Options struct {
	CORSOrigins    []string
	MaxUploadBytes int64
	Metrics        MetricsProvider
	Logger         *slog.Logger
}

// Router exposes the dashboard state as JSON for a browser UI.
type Router struct {
	dashboard     *usecase.Dashboard
	notifications NotificationFeed
	options       Options
	logger        *slog.Logger
}

func NewRouter(dashboard *usecase.Dashboard, notifications NotificationFeed, options Options) *Router {
	if options.MaxUploadBytes <= 0 {
		options.MaxUploadBytes = defaultMaxUploadBytes
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		dashboard:     dashboard,
		notifications: notifications,
		options:       options,
		logger:        logger.With("component", "dashboard_http"),
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	mux.HandleFunc("GET /api/history", rt.history)
	mux.HandleFunc("POST /api/history/retry", rt.retryHistory)
	mux.HandleFunc("GET /api/stats", rt.stats)
	mux.HandleFunc("POST /api/stats/retry", rt.retryStats)
	mux.HandleFunc("GET /api/categories", rt.categories)
	mux.HandleFunc("POST /api/classify", rt.classify)
	mux.HandleFunc("GET /api/result", rt.result)
	mux.HandleFunc("GET /api/documents/{id}/download", rt.download)
	mux.HandleFunc("GET /api/notifications", rt.notificationsList)
	if rt.options.Metrics != nil {
		mux.Handle("GET /metrics", rt.options.Metrics.Handler())
	}

	var handler http.Handler = mux
	handler = cors.New(cors.Options{
		AllowedOrigins: rt.options.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Origin", "Content-Type", "Accept", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
	}).Handler(handler)
	if rt.options.Metrics != nil {
		handler = rt.options.Metrics.Middleware(handler)
	}
	handler = accessLogMiddleware(rt.logger, handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type historyResponse struct {
	Page  domain.PageState                       `json:"page"`
	State domain.FetchState[domain.DocumentPage] `json:"state"`
}

// history returns the current page. ?page=N navigates first; an out of range
// page is rejected and the current page is left as it was.
func (rt *Router) history(w http.ResponseWriter, r *http.Request) {
	history := rt.dashboard.History
	if raw := strings.TrimSpace(r.URL.Query().Get("page")); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "page must be an integer"})
			return
		}
		if page != history.Page().CurrentPage || history.State().Status == domain.FetchIdle {
			if err := history.RequestPage(viewContext(r), page); err != nil && domain.IsKind(err, domain.ErrPageOutOfRange) {
				writeError(w, err)
				return
			}
		}
	}
	writeJSON(w, http.StatusOK, historyResponse{Page: history.Page(), State: history.State()})
}

func (rt *Router) retryHistory(w http.ResponseWriter, r *http.Request) {
	history := rt.dashboard.History
	_ = history.Retry(viewContext(r))
	writeJSON(w, http.StatusOK, historyResponse{Page: history.Page(), State: history.State()})
}

type statsResponse struct {
	State   domain.FetchState[[]domain.StatEntry] `json:"state"`
	Summary domain.StatsSummary                   `json:"summary"`
}

func (rt *Router) stats(w http.ResponseWriter, _ *http.Request) {
	stats := rt.dashboard.Stats
	writeJSON(w, http.StatusOK, statsResponse{State: stats.State(), Summary: stats.Summary()})
}

func (rt *Router) retryStats(w http.ResponseWriter, r *http.Request) {
	stats := rt.dashboard.Stats
	_ = stats.Retry(viewContext(r))
	writeJSON(w, http.StatusOK, statsResponse{State: stats.State(), Summary: stats.Summary()})
}

func (rt *Router) categories(w http.ResponseWriter, r *http.Request) {
	catalog := rt.dashboard.Categories
	if catalog.State().Status == domain.FetchIdle {
		_, _ = catalog.Load(viewContext(r))
	}
	writeJSON(w, http.StatusOK, catalog.State())
}

type classifyResponse struct {
	Outcome usecase.ClassifyOutcome      `json:"outcome"`
	Result  *domain.ClassificationResult `json:"result,omitempty"`
	Scores  []usecase.ScoreRow           `json:"scores,omitempty"`
}

func (rt *Router) classify(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, rt.options.MaxUploadBytes)
	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "file is too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cannot read uploaded file"})
		return
	}

	workflow := rt.dashboard.Classify
	outcome, err := workflow.ClassifyFile(r.Context(), domain.PendingFile{
		Name: filepath.Base(fileHeader.Filename),
		Size: int64(len(content)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(content)), nil
		},
	})
	switch {
	case err != nil:
		writeError(w, err)
		return
	case outcome == usecase.ClassifySkippedBusy:
		writeJSON(w, http.StatusConflict, classifyResponse{Outcome: outcome})
		return
	}

	resp := classifyResponse{Outcome: outcome}
	if result, ok := workflow.Result(); ok {
		resp.Result = &result
		resp.Scores = usecase.RankScores(rt.dashboard.Categories.Categories(), result.AllScores)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (rt *Router) result(w http.ResponseWriter, _ *http.Request) {
	snap := rt.dashboard.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"busy":          snap.Busy,
		"result":        snap.Result,
		"scores":        snap.Scores,
		"refresh_token": snap.RefreshToken,
	})
}

func (rt *Router) download(w http.ResponseWriter, r *http.Request) {
	link, err := rt.dashboard.Downloads.Link(r.Context(), domain.DocumentID(r.PathValue("id")))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"download_url": link})
}

func (rt *Router) notificationsList(w http.ResponseWriter, _ *http.Request) {
	if rt.notifications == nil {
		writeJSON(w, http.StatusOK, []notify.Notification{})
		return
	}
	writeJSON(w, http.StatusOK, rt.notifications.Recent())
}

// viewContext detaches shared view fetches from the request. The views are
// shared by every client, so one disconnect must not abandon a cycle the
// others are waiting on.
func viewContext(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
