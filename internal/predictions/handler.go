package predictions

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/renalworks/nephroscan/internal/inference"
	"github.com/renalworks/nephroscan/internal/reports"
	"github.com/renalworks/nephroscan/pkg/handlers"
	"github.com/renalworks/nephroscan/pkg/middleware"
	"github.com/renalworks/nephroscan/pkg/pagination"
	"github.com/renalworks/nephroscan/pkg/routes"
)

// Handler provides HTTP endpoints for prediction history operations.
// Every endpoint resolves the authenticated subject from the request context
// and enforces ownership before touching a record's image or report.
type Handler struct {
	sys           System
	logger        *slog.Logger
	pagination    pagination.Config
	maxUploadSize int64
}

// NewHandler creates a Handler with the given system, logger, pagination
// config, and upload size limit.
func NewHandler(
	sys System,
	logger *slog.Logger,
	pagination pagination.Config,
	maxUploadSize int64,
) *Handler {
	return &Handler{
		sys:           sys,
		logger:        logger.With("handler", "predictions"),
		pagination:    pagination,
		maxUploadSize: maxUploadSize,
	}
}

// Routes returns the route group definition for prediction endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/predictions",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: h.Classify},
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "GET", Pattern: "/{id}/image", Handler: h.Image},
			{Method: "GET", Pattern: "/{id}/report", Handler: h.Report},
		},
	}
}

// Classify accepts a multipart scan upload under the "file" field, runs the
// classification pipeline, and returns the recorded prediction together with
// the full confidence table.
func (h *Handler) Classify(w http.ResponseWriter, r *http.Request) {
	subject, ok := middleware.SubjectFrom(r.Context())
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, middleware.ErrNoSubject)
		return
	}

	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge, ErrFileTooLarge)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, inference.ErrInvalidImage)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, inference.ErrInvalidImage)
		return
	}

	cmd := ClassifyCommand{
		Data:        data,
		Filename:    header.Filename,
		ContentType: detectContentType(header.Header.Get("Content-Type"), data),
	}

	result, err := h.sys.Classify(r.Context(), subject, cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, result)
}

// List returns the caller's prediction history, most recent first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	subject, ok := middleware.SubjectFrom(r.Context())
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, middleware.ErrNoSubject)
		return
	}

	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.ListFor(r.Context(), subject, page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Find returns a single prediction by its UUID path parameter.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	p, ok := h.authorize(w, r)
	if !ok {
		return
	}

	handlers.RespondJSON(w, http.StatusOK, p)
}

// Image streams the stored source scan for a prediction.
func (h *Handler) Image(w http.ResponseWriter, r *http.Request) {
	p, ok := h.authorize(w, r)
	if !ok {
		return
	}

	dl, err := h.sys.OpenImage(r.Context(), p)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	defer dl.Body.Close()

	w.Header().Set("Content-Type", dl.ContentType)
	w.WriteHeader(http.StatusOK)
	io.Copy(w, dl.Body)
}

// Report regenerates the printable PDF report for a prediction. The stored
// image must still exist: a broken reference fails the request rather than
// producing a report for evidence that is gone.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	p, ok := h.authorize(w, r)
	if !ok {
		return
	}

	if err := h.sys.VerifyImage(r.Context(), p); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	doc, err := reports.Render(reports.Record{
		Label:      string(p.Label),
		Confidence: p.Confidence,
		CreatedAt:  p.CreatedAt,
		ImageRef:   p.ImageKey,
	})
	if err != nil {
		handlers.RespondError(w, h.logger, reports.MapHTTPStatus(err), err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set(
		"Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", reportFilename(p.ID)),
	)
	w.WriteHeader(http.StatusOK)
	w.Write(doc)
}

// authorize parses the id, loads the record, and checks ownership. On any
// failure it writes the error response and returns false.
func (h *Handler) authorize(w http.ResponseWriter, r *http.Request) (*Prediction, bool) {
	subject, ok := middleware.SubjectFrom(r.Context())
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, middleware.ErrNoSubject)
		return nil, false
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errors.New("invalid prediction id"))
		return nil, false
	}

	p, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return nil, false
	}

	if p.Subject != subject {
		handlers.RespondError(w, h.logger, MapHTTPStatus(ErrForbidden), ErrForbidden)
		return nil, false
	}

	return p, true
}

func reportFilename(id uuid.UUID) string {
	return fmt.Sprintf("prediction-%s.pdf", id)
}

func detectContentType(header string, data []byte) string {
	if header != "" && header != "application/octet-stream" {
		return header
	}
	return http.DetectContentType(data)
}
