package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"classgen-server-go/db"
	"classgen-server-go/exporter"
	"classgen-server-go/importer"
	"classgen-server-go/models"
)

const (
	csvContentType  = "text/csv; charset=utf-8"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// AllocationRunner is the service behind the API.
type AllocationRunner interface {
	Run(ctx context.Context, source string, students []models.Student, seed *int64) (*models.Run, error)
	Get(ctx context.Context, id string) (*models.Run, error)
	List(ctx context.Context, limit int) ([]models.RunSummary, error)
}

// APIHandler holds the dependencies for API handlers, like the allocation service
type APIHandler struct {
	Service AllocationRunner
	logger  *zap.Logger
}

// NewAPIHandler creates a new APIHandler
func NewAPIHandler(service AllocationRunner, logger *zap.Logger) *APIHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APIHandler{
		Service: service,
		logger:  logger,
	}
}

// allocationRequest is the JSON body of POST /api/allocations/json
type allocationRequest struct {
	Source   string           `json:"source"`
	Seed     *int64           `json:"seed"`
	Students []models.Student `json:"students" binding:"required"`
}

// statusFor maps service errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, db.ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, importer.ErrMissingName),
		errors.Is(err, importer.ErrDuplicateName),
		errors.Is(err, importer.ErrInvalidStudent),
		errors.Is(err, importer.ErrNoNameColumn),
		errors.Is(err, importer.ErrNoHeader),
		errors.Is(err, importer.ErrNoSheets),
		errors.Is(err, importer.ErrUnsupportedFormat):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func tooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

func parseSeed(raw string) (*int64, error) {
	if raw == "" {
		return nil, nil
	}
	seed, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid seed %q", raw)
	}
	return &seed, nil
}

// --- Allocation Handlers ---

// CreateAllocation handles POST /api/allocations (multipart: file, optional seed)
func (h *APIHandler) CreateAllocation(c *gin.Context) {
	seed, err := parseSeed(c.PostForm("seed"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	header, err := c.FormFile("file")
	if tooLarge(err) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Uploaded file is too large"})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error retrieving uploaded file: " + err.Error()})
		return
	}
	file, err := header.Open()
	if err != nil {
		h.logger.Error("opening upload failed", zap.String("file", header.Filename), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read uploaded file"})
		return
	}
	defer file.Close()

	h.logger.Info("received survey upload", zap.String("file", header.Filename), zap.Int64("bytes", header.Size))

	students, err := importer.Parse(header.Filename, file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to import students: " + err.Error()})
		return
	}

	h.runAllocation(c, header.Filename, students, seed)
}

// CreateAllocationFromJSON handles POST /api/allocations/json
func (h *APIHandler) CreateAllocationFromJSON(c *gin.Context) {
	var req allocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if tooLarge(err) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Request body is too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	source := req.Source
	if source == "" {
		source = "api"
	}
	h.runAllocation(c, source, req.Students, req.Seed)
}

func (h *APIHandler) runAllocation(c *gin.Context, source string, students []models.Student, seed *int64) {
	run, err := h.Service.Run(c.Request.Context(), source, students, seed)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("allocation failed", zap.String("source", source), zap.Error(err))
			c.JSON(status, gin.H{"error": "Failed to allocate students"})
			return
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, run)
}

// ListAllocations handles GET /api/allocations?limit=N
func (h *APIHandler) ListAllocations(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
		return
	}

	runs, err := h.Service.List(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("listing runs failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve allocations"})
		return
	}
	if runs == nil {
		// Return empty list instead of null for JSON consistency
		runs = []models.RunSummary{}
	}
	c.JSON(http.StatusOK, runs)
}

// loadRun fetches the run named by :runId, writing the error response itself.
func (h *APIHandler) loadRun(c *gin.Context) (*models.Run, bool) {
	runID := c.Param("runId")
	if runID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Run ID is required"})
		return nil, false
	}

	run, err := h.Service.Get(c.Request.Context(), runID)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusNotFound {
			c.JSON(status, gin.H{"error": "Allocation not found"})
			return nil, false
		}
		h.logger.Error("loading run failed", zap.String("run", runID), zap.Error(err))
		c.JSON(status, gin.H{"error": "Failed to retrieve allocation"})
		return nil, false
	}
	return run, true
}

// GetAllocation handles GET /api/allocations/:runId
func (h *APIHandler) GetAllocation(c *gin.Context) {
	run, ok := h.loadRun(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, run)
}

// --- Download Handlers ---

type reportWriter func(*bytes.Buffer, models.Report) error

func (h *APIHandler) download(c *gin.Context, name, contentType string, write reportWriter) {
	run, ok := h.loadRun(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := write(&buf, run.Report); err != nil {
		h.logger.Error("rendering download failed", zap.String("run", run.ID), zap.String("file", name), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render " + name})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

// DownloadAssignmentsCSV handles GET /api/allocations/:runId/assignments.csv
func (h *APIHandler) DownloadAssignmentsCSV(c *gin.Context) {
	h.download(c, "assignments.csv", csvContentType, func(b *bytes.Buffer, r models.Report) error {
		return exporter.WriteCSV(b, r)
	})
}

// DownloadAssignmentsExcel handles GET /api/allocations/:runId/assignments.xlsx
func (h *APIHandler) DownloadAssignmentsExcel(c *gin.Context) {
	h.download(c, "assignments.xlsx", xlsxContentType, func(b *bytes.Buffer, r models.Report) error {
		return exporter.WriteExcel(b, r)
	})
}

// DownloadFriendshipsCSV handles GET /api/allocations/:runId/friendships.csv
func (h *APIHandler) DownloadFriendshipsCSV(c *gin.Context) {
	h.download(c, "friendships.csv", csvContentType, func(b *bytes.Buffer, r models.Report) error {
		return exporter.WriteFriendshipCSV(b, r)
	})
}

// --- Ping Handler ---
func PingHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Pong!"})
}
