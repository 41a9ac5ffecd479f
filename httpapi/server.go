// Package httpapi exposes the §6.2 facade API as a thin gin transport.
package httpapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"legisrag/facade"
	"legisrag/hydrate"
	"legisrag/legislation"
	"legisrag/search"
	"legisrag/store"
)

// Server wraps the facade behind an HTTP transport, grounded on the
// teacher's gin.New + Recovery + logger-injection + graceful-shutdown
// pattern (web/server.go).
type Server struct {
	router *gin.Engine
	facade *facade.Facade
	logger *zap.Logger
}

func NewServer(f *facade.Facade, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(func(c *gin.Context) {
		c.Set("logger", logger)
		c.Next()
	})

	s := &Server{router: router, facade: f, logger: logger}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/search", s.handleSearch)
	s.router.GET("/search/acts", s.handleSearchActs)
	s.router.GET("/search/regulations", s.handleSearchRegulations)
	s.router.GET("/search/defined-terms", s.handleSearchDefinedTerms)
	s.router.GET("/search/with-definitions", s.handleSearchWithDefinitions)
	s.router.GET("/search/metadata", s.handleSearchByMetadata)
	s.router.GET("/context", s.handleGetContext)
	s.router.GET("/acts/:actId/markdown", s.handleActMarkdown)
	s.router.GET("/regulations/:regulationId/markdown", s.handleRegulationMarkdown)
}

func (s *Server) Start(ctx context.Context, addr string) error {
	s.logger.Info("starting legisrag HTTP API", zap.String("address", addr))

	srv := &http.Server{Addr: addr, Handler: s.router}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server failed to start", zap.Error(err))
		}
	}()

	<-ctx.Done()
	s.logger.Info("shutting down legisrag HTTP API")
	return srv.Shutdown(context.Background())
}

func parseOptions(c *gin.Context) search.Options {
	opts := search.Options{
		Language:     legislation.Language(c.Query("language")),
		SourceType:   legislation.SourceType(c.Query("sourceType")),
		ActID:        c.Query("actId"),
		RegulationID: c.Query("regulationId"),
		ScopeType:    legislation.ScopeType(c.Query("scopeType")),
		SectionScope: c.Query("sectionScope"),
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil {
		opts.Limit = limit
	}
	if threshold, err := strconv.ParseFloat(c.Query("similarityThreshold"), 64); err == nil {
		opts.SimilarityThreshold = threshold
	}
	return opts
}

func (s *Server) handleSearch(c *gin.Context) {
	query := c.Query("q")
	results, err := s.facade.SearchLegislation(c.Request.Context(), query, parseOptions(c))
	respondResults(c, results, err)
}

func (s *Server) handleSearchActs(c *gin.Context) {
	results, err := s.facade.SearchActs(c.Request.Context(), c.Query("q"), parseOptions(c))
	respondResults(c, results, err)
}

func (s *Server) handleSearchRegulations(c *gin.Context) {
	results, err := s.facade.SearchRegulations(c.Request.Context(), c.Query("q"), parseOptions(c))
	respondResults(c, results, err)
}

func (s *Server) handleSearchDefinedTerms(c *gin.Context) {
	results, err := s.facade.SearchDefinedTerms(c.Request.Context(), c.Query("q"), parseOptions(c))
	respondResults(c, results, err)
}

func (s *Server) handleSearchWithDefinitions(c *gin.Context) {
	results, err := s.facade.SearchWithDefinitions(c.Request.Context(), c.Query("q"), parseOptions(c))
	respondResults(c, results, err)
}

func (s *Server) handleSearchByMetadata(c *gin.Context) {
	q := store.MetadataQuery{
		Language:     legislation.Language(c.Query("language")),
		SourceType:   legislation.SourceType(c.Query("sourceType")),
		ActID:        c.Query("actId"),
		RegulationID: c.Query("regulationId"),
		Status:       legislation.Status(c.Query("status")),
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil {
		q.Limit = limit
	}
	resources, err := s.facade.SearchByMetadata(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": resources})
}

func (s *Server) handleGetContext(c *gin.Context) {
	limit := 10
	if v, err := strconv.Atoi(c.Query("limit")); err == nil {
		limit = v
	}
	ctxResult, err := s.facade.GetContext(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, ctxResult)
}

func (s *Server) handleActMarkdown(c *gin.Context) {
	lang := legislation.Language(c.DefaultQuery("language", "en"))
	hyd, err := s.facade.GetHydratedActMarkdown(c.Request.Context(), c.Param("actId"), lang)
	respondHydrated(c, hyd, err)
}

func (s *Server) handleRegulationMarkdown(c *gin.Context) {
	lang := legislation.Language(c.DefaultQuery("language", "en"))
	hyd, err := s.facade.GetHydratedRegulationMarkdown(c.Request.Context(), c.Param("regulationId"), lang)
	respondHydrated(c, hyd, err)
}

func respondResults(c *gin.Context, results []search.Result, err error) {
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func respondHydrated(c *gin.Context, hyd *hydrate.Hydrated, err error) {
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if hyd == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"markdown": hyd.Markdown, "html": hyd.HTML, "note": hyd.Note})
}
