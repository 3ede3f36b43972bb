// Package ui exposes the analysis pipeline over HTTP.
package ui

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"vendalytics/adapters/ingest"
	"vendalytics/app"
	"vendalytics/domain/core"
	"vendalytics/internal"
	"vendalytics/internal/report"
	"vendalytics/ports"

	"github.com/gin-gonic/gin"
)

// Server wires the HTTP surface around the orchestrator
type Server struct {
	router       *gin.Engine
	orchestrator *app.Orchestrator
	runs         ports.RunRepository // nil disables persistence endpoints
	log          *internal.Logger
}

// NewServer builds the router. runs may be nil when persistence is not
// configured.
func NewServer(orchestrator *app.Orchestrator, runs ports.RunRepository, log *internal.Logger, ginMode string) *Server {
	gin.SetMode(ginMode)
	s := &Server{
		router:       gin.Default(),
		orchestrator: orchestrator,
		runs:         runs,
		log:          log,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.router.POST("/api/analyze", s.handleAnalyze)
	if s.runs != nil {
		s.router.GET("/api/runs", s.handleListRuns)
		s.router.GET("/api/runs/:id", s.handleGetRun)
		s.router.GET("/api/runs/:id/report", s.handleRunReport)
	}
}

// Run starts the HTTP listener
func (s *Server) Run(port string) error {
	s.log.Info("servidor ouvindo na porta %s", port)
	return s.router.Run(":" + port)
}

// handleAnalyze ingests an uploaded spreadsheet and runs the full
// analysis, persisting the result when a repository is configured
func (s *Server) handleAnalyze(c *gin.Context) {
	upload, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "arquivo não enviado"})
		return
	}

	tmp := filepath.Join(os.TempDir(), upload.Filename)
	if err := c.SaveUploadedFile(upload, tmp); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "falha ao receber arquivo"})
		return
	}
	defer os.Remove(tmp)

	loaded, err := ingest.Load(tmp)
	if err != nil {
		s.log.Warn("falha na ingestão de %s: %v", upload.Filename, err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	result := s.orchestrator.RunAll(c.Request.Context(), loaded.Dataset, loaded.Columns)

	if s.runs != nil {
		payload, err := json.Marshal(result)
		if err == nil {
			err = s.runs.Save(c.Request.Context(), ports.StoredRun{
				ID:        result.RunID.String(),
				Source:    loaded.Source,
				Payload:   payload,
				CreatedAt: time.Now(),
			})
		}
		if err != nil {
			// Persistence is best-effort; the analysis itself succeeded
			s.log.Warn("falha ao persistir análise %s: %v", result.RunID, err)
		}
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) handleListRuns(c *gin.Context) {
	runs, err := s.runs.List(c.Request.Context(), 50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, runs)
}

func (s *Server) handleGetRun(c *gin.Context) {
	id, err := core.ParseRunID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	run, err := s.runs.Get(c.Request.Context(), id.String())
	if err != nil {
		c.JSON(runStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, run)
}

// handleRunReport renders the stored run as an HTML executive summary
func (s *Server) handleRunReport(c *gin.Context) {
	id, err := core.ParseRunID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	run, err := s.runs.Get(c.Request.Context(), id.String())
	if err != nil {
		c.JSON(runStatus(err), gin.H{"error": err.Error()})
		return
	}

	var result app.DashboardResult
	if err := json.Unmarshal(run.Payload, &result); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "análise armazenada ilegível"})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", report.HTML(result))
}

func runStatus(err error) int {
	if errors.Is(err, core.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
