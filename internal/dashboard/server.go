// Package dashboard serves a read-only view of the tracker's reports,
// performance summary and charts.
package dashboard

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/eddiefleurent/fno_tracker/internal/config"
	"github.com/eddiefleurent/fno_tracker/internal/report"
	"github.com/eddiefleurent/fno_tracker/internal/storage"
)

//go:embed web/templates/*
var templateFS embed.FS

//go:embed web/static/*
var staticFS embed.FS

var reportName = regexp.MustCompile(`^fno_(evening|morning)_report_(\d{4}-\d{2}-\d{2})\.md$`)

// Served chart images; anything else under performance/ stays private.
var chartFiles = map[string]bool{
	report.HistogramFile:  true,
	report.OutcomePieFile: true,
}

type Server struct {
	router    *chi.Mux
	server    *http.Server
	store     storage.PerformanceLog
	dirs      config.RunContext
	md        goldmark.Markdown
	pages     *template.Template
	logger    *logrus.Logger
	port      int
	authToken string
}

type Config struct {
	Port      int
	AuthToken string
	BaseDir   string
}

// ReportInfo describes one report file.
type ReportInfo struct {
	Name string `json:"name"`
	Mode string `json:"mode"`
	Date string `json:"date"`
}

type indexData struct {
	Reports    []ReportInfo
	Summary    report.Summary
	LastUpdate time.Time
}

type pageData struct {
	Title string
	Body  template.HTML
}

func NewServer(cfg Config, store storage.PerformanceLog, logger *logrus.Logger) (*Server, error) {
	pages, err := template.ParseFS(templateFS, "web/templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		store:  store,
		dirs:   config.RunContext{BaseDir: cfg.BaseDir},
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(
				html.WithHardWraps(),
				html.WithXHTML(),
			),
		),
		pages:     pages,
		logger:    logger,
		port:      cfg.Port,
		authToken: cfg.AuthToken,
	}

	s.setupRoutes()
	return s, nil
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) setupRoutes() {
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))

	if s.authToken != "" {
		s.router.Use(s.authMiddleware)
	}

	static, _ := fs.Sub(staticFS, "web/static")
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	s.router.Get("/", s.handleIndex)
	s.router.Get("/reports/{name}", s.handleReport)
	// The summary links its charts relatively, so both share a prefix.
	s.router.Get("/performance/", s.handleSummary)
	s.router.Get("/performance/{name}", s.handleChart)
	s.router.Get("/api/reports", s.handleListReports)
	s.router.Get("/api/stats", s.handleGetStats)
	s.router.Get("/health", s.handleHealth)
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		token := r.Header.Get("X-Auth-Token")
		if token == "" {
			token = r.URL.Query().Get("token")
		}

		if token != s.authToken {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Infof("Starting dashboard server on port %d", s.port)
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	reports, err := s.listReports()
	if err != nil {
		s.logger.WithError(err).Error("Failed to list reports")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	summary, err := s.summary()
	if err != nil {
		s.logger.WithError(err).Error("Failed to load performance log")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	data := indexData{Reports: reports, Summary: summary, LastUpdate: time.Now()}
	s.execute(w, "index.html", data)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !reportName.MatchString(name) {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	s.renderMarkdown(w, filepath.Join(s.dirs.ReportDir(), name), name)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	s.renderMarkdown(w, filepath.Join(s.dirs.PerformanceDir(), report.SummaryFile), "Performance Summary")
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !chartFiles[name] {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	data, err := os.ReadFile(filepath.Join(s.dirs.PerformanceDir(), name)) // #nosec G304 -- name is whitelisted
	if err != nil {
		s.notFoundOrError(w, err, "Failed to read chart")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if _, err := w.Write(data); err != nil {
		s.logger.WithError(err).Error("Failed to write chart")
	}
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	reports, err := s.listReports()
	if err != nil {
		s.logger.WithError(err).Error("Failed to list reports")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, reports)
}

func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	summary, err := s.summary()
	if err != nil {
		s.logger.WithError(err).Error("Failed to load performance log")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, summary)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
	})
}

func (s *Server) renderMarkdown(w http.ResponseWriter, path, title string) {
	src, err := os.ReadFile(path) // #nosec G304 -- path is built from a validated name
	if err != nil {
		s.notFoundOrError(w, err, "Failed to read markdown")
		return
	}

	var buf bytes.Buffer
	if err := s.md.Convert(src, &buf); err != nil {
		s.logger.WithError(err).WithField("path", path).Error("Failed to convert markdown")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	// #nosec G203 -- goldmark output of files this system wrote; raw HTML is not enabled
	s.execute(w, "page.html", pageData{Title: title, Body: template.HTML(buf.String())})
}

func (s *Server) execute(w http.ResponseWriter, name string, data interface{}) {
	var buf bytes.Buffer
	if err := s.pages.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.WithError(err).WithField("template", name).Error("Failed to execute template")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.WithError(err).Error("Failed to write response")
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithError(err).Error("Failed to encode response")
	}
}

func (s *Server) notFoundOrError(w http.ResponseWriter, err error, msg string) {
	if errors.Is(err, fs.ErrNotExist) {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	s.logger.WithError(err).Error(msg)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func (s *Server) summary() (report.Summary, error) {
	entries, err := s.store.LoadPerformance()
	if err != nil {
		return report.Summary{}, err
	}
	return report.Summarize(entries), nil
}

// listReports returns the report files newest first; evening before morning
// on the same session date.
func (s *Server) listReports() ([]ReportInfo, error) {
	entries, err := os.ReadDir(s.dirs.ReportDir())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []ReportInfo{}, nil
		}
		return nil, err
	}

	reports := make([]ReportInfo, 0, len(entries))
	for _, e := range entries {
		m := reportName.FindStringSubmatch(e.Name())
		if e.IsDir() || m == nil {
			continue
		}
		reports = append(reports, ReportInfo{Name: e.Name(), Mode: m[1], Date: m[2]})
	}

	sort.Slice(reports, func(i, j int) bool {
		if reports[i].Date != reports[j].Date {
			return reports[i].Date > reports[j].Date
		}
		return reports[i].Mode < reports[j].Mode
	})
	return reports, nil
}
