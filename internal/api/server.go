package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/forPelevin/streamclip/internal/domain/events"
	"github.com/forPelevin/streamclip/internal/domain/lexicon"
	"github.com/forPelevin/streamclip/internal/domain/tracks"
	"github.com/forPelevin/streamclip/internal/preset"
	"github.com/forPelevin/streamclip/internal/store"
	"github.com/forPelevin/streamclip/internal/types"
	"github.com/forPelevin/streamclip/internal/usecase"
)

// Server exposes the analysis engine and the lane allocator over HTTP.
// History is optional.
type Server struct {
	Usecase usecase.Usecase
	Presets *preset.Catalog
	Lexicon lexicon.Lexicon
	History *store.Store
	Logf    func(format string, args ...any)
}

// NewRouter constructs a Gin engine with registered routes.
func NewRouter(s Server) *gin.Engine {
	if s.Presets == nil {
		s.Presets = preset.Builtin()
	}
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", handleHealth)
	v1 := r.Group("/v1")
	v1.GET("/presets", s.handlePresets)
	v1.POST("/analyze", s.handleAnalyze)
	v1.POST("/tracks", handleTracks)
	v1.GET("/runs", s.handleRuns)
	v1.GET("/runs/:id/clips", s.handleRunClips)
	return r
}

func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s Server) handlePresets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"presets": s.Presets.List()})
}

type analyzeRequest struct {
	Comments   []types.TimedComment    `json:"comments"`
	Transcript []types.TranscriptEntry `json:"transcript"`
	Preset     string                  `json:"preset"`
	Window     float64                 `json:"window"`
	Top        int                     `json:"top"`
	AITitles   bool                    `json:"ai_titles"`
}

// skippedRecords counts request records dropped by the same checks the file
// parsers apply.
type skippedRecords struct {
	Comments   int `json:"comments"`
	Transcript int `json:"transcript"`
}

type analyzeResponse struct {
	Preset          string                `json:"preset"`
	Skipped         skippedRecords        `json:"skipped"`
	Density         types.DensityResult   `json:"density"`
	Segments        types.SegmentResult   `json:"segments"`
	Recommendations types.Recommendations `json:"recommendations"`
}

func (s Server) handleAnalyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Window < 0 || req.Top < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "window and top must not be negative"})
		return
	}
	p, err := s.Presets.Resolve(req.Preset)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comments, cst := events.NormalizeComments(req.Comments)
	transcript, tst := events.NormalizeTranscript(req.Transcript)
	a, err := s.Usecase.Analyze(c.Request.Context(), usecase.AnalyzeInput{
		Comments:     comments,
		Transcript:   transcript,
		Preset:       p,
		Lexicon:      s.Lexicon,
		WindowSize:   req.Window,
		TopN:         req.Top,
		RefineTitles: req.AITitles,
		Logf:         s.Logf,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, analyzeResponse{
		Preset:          p.Key,
		Skipped:         skippedRecords{Comments: cst.Skipped, Transcript: tst.Skipped},
		Density:         a.Density,
		Segments:        a.Segments,
		Recommendations: a.Recommendations,
	})
}

type tracksRequest struct {
	Comments []types.TimedComment `json:"comments"`
	Start    float64              `json:"start"`
	End      *float64             `json:"end"`
	Lanes    int                  `json:"lanes"`
	Display  float64              `json:"display"`
	Overflow string               `json:"overflow"`
	Seed     uint64               `json:"seed"`
}

type tracksResponse struct {
	tracks.Result
	Skipped int `json:"skipped"`
}

// handleTracks allocates lanes for the comments inside [start, end],
// re-based to the clip start. Without end the whole list is used.
func handleTracks(c *gin.Context) {
	var req tracksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cfg := tracks.Config{Lanes: req.Lanes, Display: req.Display, Overflow: tracks.OverflowPolicy(req.Overflow)}
	if req.Seed != 0 {
		cfg.Rand = tracks.SeededRand(req.Seed)
	}
	if err := cfg.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cs, st := events.NormalizeComments(req.Comments)
	if req.End != nil {
		if *req.End < req.Start {
			c.JSON(http.StatusBadRequest, gin.H{"error": "end must not be before start"})
			return
		}
		cs = events.Between(cs, req.Start, *req.End)
	}
	res := tracks.Allocate(cs, cfg)
	if res.Placements == nil {
		res.Placements = []tracks.Placement{}
	}
	c.JSON(http.StatusOK, tracksResponse{Result: res, Skipped: st.Skipped})
}

func (s Server) handleRuns(c *gin.Context) {
	if s.History == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "history is disabled"})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
		return
	}
	runs, err := s.History.ListRuns(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if runs == nil {
		runs = []store.Run{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (s Server) handleRunClips(c *gin.Context) {
	if s.History == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "history is disabled"})
		return
	}
	clips, err := s.History.RunClips(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrRunNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"clips": clips})
}
