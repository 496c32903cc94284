package ui

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"ttlearn/adapters/excel"
	"ttlearn/app"
	"ttlearn/domain/core"
	"ttlearn/domain/run"
	"ttlearn/internal/errors"
	"ttlearn/internal/worker"
)

// handleCreateRun validates the request, records the run and queues it on the
// background worker. Without a worker the run executes in the request.
func (s *Server) handleCreateRun(c *gin.Context) {
	var req app.AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	s.applyDefaults(&req)

	// Setup failures log their friendly line before Begin returns; capture
	// those lines for the error response since no stream exists yet.
	var setupLog []string
	req.LogFn = func(line string) { setupLog = append(setupLog, line) }

	rn, err := s.analysis.Begin(c.Request.Context(), req)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error(), "log": setupLog})
		return
	}

	if s.events != nil {
		req.LogFn = s.events.LogSink(rn.ID.String())
	} else {
		req.LogFn = nil
	}
	s.metrics.RunStarted()

	if s.worker == nil {
		// The run reaches a terminal status either way; the DTO carries it.
		_ = s.analysis.Execute(c.Request.Context(), rn, req)
		c.JSON(http.StatusOK, gin.H{"run": newRunDTO(*rn), "status": rn.Status})
		return
	}

	if err := s.worker.Submit(worker.Job{Run: rn, Req: req}); err != nil {
		s.analysis.Abort(c.Request.Context(), rn, "analysis queue is full")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "analysis queue is full"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"run":    newRunDTO(*rn),
		"status": "accepted",
		"events": "/events?run_id=" + rn.ID.String(),
	})
}

// applyDefaults fills request fields the body left unset from the server's
// configured analysis defaults.
func (s *Server) applyDefaults(req *app.AnalysisRequest) {
	if req.Mode == "" {
		req.Mode = s.defaults.Mode
	}
	if req.DataRoot == "" {
		req.DataRoot = s.defaults.DataRoot
	}
	if req.TimelineDir == "" {
		req.TimelineDir = s.defaults.TimelineDir
	}
	if req.Outcome == "" {
		req.Outcome = s.defaults.Outcome
	}
	if req.NTrials == 0 {
		req.NTrials = s.defaults.NTrials
	}
}

func (s *Server) handleListRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	runs, err := s.history.List(c.Request.Context(), limit)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	dtos := make([]RunDTO, 0, len(runs))
	for _, rn := range runs {
		dtos = append(dtos, newRunDTO(rn))
	}
	c.JSON(http.StatusOK, gin.H{"runs": dtos, "count": len(dtos)})
}

func (s *Server) handleGetRun(c *gin.Context) {
	rn, ok := s.lookupRun(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newRunDTO(*rn))
}

func (s *Server) handleLatestRun(c *gin.Context) {
	rn, err := s.history.Latest(c.Request.Context())
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, newRunDTO(*rn))
}

// handleExportRun streams the run's result table as a CSV or XLSX download.
func (s *Server) handleExportRun(c *gin.Context) {
	rn, ok := s.lookupRun(c)
	if !ok {
		return
	}
	if len(rn.Rows) == 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "there are no results to export"})
		return
	}

	switch c.DefaultQuery("format", "xlsx") {
	case "csv":
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=results_%s.csv", rn.ID))
		c.Header("Content-Type", "text/csv; charset=utf-8")
		if err := excel.WriteResultsCSV(c.Writer, rn.Rows); err != nil {
			s.logger.Error("failed to stream CSV export for run %s: %v", rn.ID, err)
		}
	case "xlsx":
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=results_%s.xlsx", rn.ID))
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		if err := excel.WriteResultsXLSX(c.Writer, rn.Rows); err != nil {
			s.logger.Error("failed to stream XLSX export for run %s: %v", rn.ID, err)
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be csv or xlsx"})
	}
}

// handleRunReport renders the run report, as HTML by default or as raw
// Markdown with ?format=md.
func (s *Server) handleRunReport(c *gin.Context) {
	rn, ok := s.lookupRun(c)
	if !ok {
		return
	}

	md := app.BuildMarkdownReport(*rn)
	if c.Query("format") == "md" {
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(md))
		return
	}

	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags})
	html := markdown.ToHTML([]byte(md), p, renderer)
	c.Data(http.StatusOK, "text/html; charset=utf-8", html)
}

func (s *Server) lookupRun(c *gin.Context) (*run.Run, bool) {
	id, err := core.ParseRunID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	rn, err := s.history.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return nil, false
	}
	return rn, true
}

func statusForError(err error) int {
	switch errors.GetCode(err) {
	case errors.CodeNotFound:
		return http.StatusNotFound
	case errors.CodeInvalidInput, errors.CodeValidationError:
		return http.StatusBadRequest
	case errors.CodeConfigInvalid:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
