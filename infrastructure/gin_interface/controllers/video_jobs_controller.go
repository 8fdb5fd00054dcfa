package controllers

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lirigzong/Ai-Video-Create/application/ports/inbound"
	"github.com/lirigzong/Ai-Video-Create/application/ports/outbound"
	"github.com/lirigzong/Ai-Video-Create/domain"
	"github.com/lirigzong/Ai-Video-Create/infrastructure/gin_interface/dto"
)

type VideoJobsController interface {
	RegisterRoutes(g *gin.Engine)
}

type videoJobsController struct {
	logger       outbound.LoggerPort
	orchestrator inbound.PipelineOrchestratorPort
	videosDir    string
}

func NewVideoJobsController(logger outbound.LoggerPort, orchestrator inbound.PipelineOrchestratorPort,
	videosDir string) VideoJobsController {
	return &videoJobsController{
		logger:       logger,
		orchestrator: orchestrator,
		videosDir:    videosDir,
	}
}

func (v *videoJobsController) RegisterRoutes(g *gin.Engine) {
	api := g.Group("/api")
	api.POST("/generate-video", v.generateVideo)
	api.GET("/video-status/:id", v.videoStatus)
	api.GET("/videos", v.listVideos)
	api.GET("/videos/:file", v.serveVideo)
	api.POST("/cancel/:id", v.cancelVideo)
}

func (v *videoJobsController) generateVideo(c *gin.Context) {
	var req dto.GenerateVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.ApplyDefaults()

	job, err := v.orchestrator.Submit(c.Request.Context(), inbound.SubmitRequest{
		Prompt:          req.Prompt,
		DurationSeconds: req.Duration,
		SegmentCount:    req.Segments,
	})
	if err != nil {
		v.respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, dto.FromJob(job))
}

func (v *videoJobsController) videoStatus(c *gin.Context) {
	job, err := v.orchestrator.GetStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		v.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromJob(job))
}

func (v *videoJobsController) listVideos(c *gin.Context) {
	jobs, err := v.orchestrator.List(c.Request.Context())
	if err != nil {
		v.respondError(c, err)
		return
	}

	summaries := make([]dto.JobSummaryResponse, 0, len(jobs))
	for _, job := range jobs {
		summaries = append(summaries, dto.SummaryFromJob(job))
	}
	c.JSON(http.StatusOK, summaries)
}

func (v *videoJobsController) serveVideo(c *gin.Context) {
	file := c.Param("file")
	jobID := strings.TrimSuffix(file, ".mp4")
	// The ID is a path component of the served file; anything that is not a
	// plain name is rejected.
	if jobID == "" || jobID != filepath.Base(jobID) || strings.ContainsAny(jobID, "/\\.") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid video name"})
		return
	}

	path := filepath.Join(v.videosDir, jobID+".mp4")
	c.Header("Content-Type", "video/mp4")
	c.File(path)
}

func (v *videoJobsController) cancelVideo(c *gin.Context) {
	if err := v.orchestrator.Cancel(c.Request.Context(), c.Param("id")); err != nil {
		v.respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "cancelling"})
}

func (v *videoJobsController) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		v.logger.Error(err, "request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
