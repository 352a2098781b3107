package apihandlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"dubber/internal/models"
	"dubber/internal/services"
)

// JobAPI is the job service surface the handlers call.
type JobAPI interface {
	Submit(ctx context.Context, params services.UploadParams) (*models.Job, error)
	Get(ctx context.Context, id string) (*models.Job, error)
	ListByStatus(ctx context.Context, statuses []models.JobStatus) ([]*models.Job, error)
	ApplyUpdate(ctx context.Context, id string, upd models.JobUpdate) (*models.Job, error)
	DownloadURL(ctx context.Context, id string) (string, error)
}

// HealthFunc reports the health of each dependency by name; a nil error
// means healthy.
type HealthFunc func(ctx context.Context) map[string]error

type APIHandler struct {
	Jobs   JobAPI
	Health HealthFunc
}

func NewAPIHandler(jobs JobAPI, health HealthFunc) *APIHandler {
	return &APIHandler{Jobs: jobs, Health: health}
}

// UploadResponse is returned by a successful upload.
type UploadResponse struct {
	Status  models.JobStatus `json:"status"`
	JobID   string           `json:"jobId"`
	Message string           `json:"message"`
}

// UploadHandler accepts a multipart upload (file, targetLang, options) and
// creates a job for it.
func (h *APIHandler) UploadHandler(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, models.CodeFileEmpty, "File is empty")
		return
	}
	file, err := header.Open()
	if err != nil {
		WriteError(c, models.DependencyError(models.CodeUploadError, "read upload", err))
		return
	}
	defer file.Close()

	job, err := h.Jobs.Submit(c.Request.Context(), services.UploadParams{
		FileName:       header.Filename,
		ContentType:    header.Header.Get("Content-Type"),
		Size:           header.Size,
		Body:           file,
		TargetLanguage: c.PostForm("targetLang"),
		OptionsJSON:    c.PostForm("options"),
	})
	if err != nil {
		WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, UploadResponse{
		Status:  job.Status,
		JobID:   job.ID.String(),
		Message: "File uploaded successfully",
	})
}

func (h *APIHandler) GetJobHandler(c *gin.Context) {
	job, err := h.Jobs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// UpdateJobHandler applies a sparse status report from a worker.
func (h *APIHandler) UpdateJobHandler(c *gin.Context) {
	var upd models.JobUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		BadRequest(c, models.CodeInvalidRequest, "Invalid request body: "+err.Error())
		return
	}
	job, err := h.Jobs.ApplyUpdate(c.Request.Context(), c.Param("id"), upd)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *APIHandler) DownloadHandler(c *gin.Context) {
	url, err := h.Jobs.DownloadURL(c.Request.Context(), c.Param("id"))
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// ListJobsHandler lists jobs filtered by ?status=A,B (default: active jobs).
func (h *APIHandler) ListJobsHandler(c *gin.Context) {
	statuses, err := parseStatuses(c.Query("status"))
	if err != nil {
		BadRequest(c, models.CodeInvalidStatus, err.Error())
		return
	}
	jobs, err := h.Jobs.ListByStatus(c.Request.Context(), statuses)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": jobs})
}

func parseStatuses(raw string) ([]models.JobStatus, error) {
	if strings.TrimSpace(raw) == "" {
		return models.ActiveStatuses, nil
	}
	var out []models.JobStatus
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		st, err := models.ParseJobStatus(part)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

// HealthHandler reports per-dependency status; any failure yields 503.
func (h *APIHandler) HealthHandler(c *gin.Context) {
	checks := gin.H{}
	status := http.StatusOK
	if h.Health != nil {
		for name, err := range h.Health(c.Request.Context()) {
			if err != nil {
				checks[name] = err.Error()
				status = http.StatusServiceUnavailable
				log.WithFields(log.Fields{"check": name, "error": err}).Warn("Health check failed")
				continue
			}
			checks[name] = "ok"
		}
	}
	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	c.JSON(status, gin.H{"status": overall, "checks": checks})
}
