package handler

import (
	"encoding/base64"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"complaintdesk/internal/errors"
	"complaintdesk/internal/media"
	"complaintdesk/internal/model"
	"complaintdesk/internal/service"
)

// mediaField is the multipart field carrying attachments.
const mediaField = "media"

// ComplaintHandler handles complaint endpoints.
type ComplaintHandler struct {
	complaintService service.ComplaintService
	maxMediaBytes    int64
}

// NewComplaintHandler creates a new complaint handler. Attachments larger than
// maxMediaBytes are rejected before they are read; maxMediaBytes <= 0 disables
// the check.
func NewComplaintHandler(complaintService service.ComplaintService, maxMediaBytes int) *ComplaintHandler {
	return &ComplaintHandler{complaintService: complaintService, maxMediaBytes: int64(maxMediaBytes)}
}

// MediaUpload is one attachment in a JSON submission.
type MediaUpload struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Data        string `json:"data"` // base64
}

// SubmitComplaintRequest represents a JSON complaint submission.
type SubmitComplaintRequest struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Category    string        `json:"category"`
	Priority    string        `json:"priority"`
	Location    string        `json:"location"`
	Media       []MediaUpload `json:"media"`
}

// UpdateStatusRequest represents a status change.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,status"`
}

// Submit godoc
// @Summary Submit a complaint
// @Description Accepts JSON with base64 media, or multipart/form-data with files under "media".
// @Tags complaints
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param request body SubmitComplaintRequest true "Complaint"
// @Success 201 {object} model.Complaint
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 413 {object} map[string]string
// @Failure 500 {object} errors.ErrorResponse
// @Router /complaints [post]
func (h *ComplaintHandler) Submit(c echo.Context) error {
	var (
		in  service.SubmitInput
		err error
	)
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		in, err = h.multipartInput(c)
	} else {
		in, err = h.jsonInput(c)
	}
	if err != nil {
		return err
	}

	complaint, err := h.complaintService.Submit(c.Request().Context(), in)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusCreated, complaint)
}

func (h *ComplaintHandler) jsonInput(c echo.Context) (service.SubmitInput, error) {
	var req SubmitComplaintRequest
	if err := c.Bind(&req); err != nil {
		return service.SubmitInput{}, invalidBody()
	}

	in := service.SubmitInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
		Location:    req.Location,
		Attachments: make([]media.Attachment, 0, len(req.Media)),
	}
	for i, m := range req.Media {
		if h.tooLarge(decodedSize(m.Data)) {
			return service.SubmitInput{}, respondError(&errors.EncodingError{Index: i, Name: m.Name, Err: media.ErrTooLarge})
		}
		data, err := base64.StdEncoding.DecodeString(m.Data)
		if err != nil {
			return service.SubmitInput{}, respondError(&errors.EncodingError{Index: i, Name: m.Name, Err: err})
		}
		in.Attachments = append(in.Attachments, media.Attachment{
			Name:        m.Name,
			ContentType: m.ContentType,
			Data:        data,
		})
	}
	return in, nil
}

func (h *ComplaintHandler) multipartInput(c echo.Context) (service.SubmitInput, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return service.SubmitInput{}, invalidBody()
	}

	in := service.SubmitInput{
		Title:       c.FormValue("title"),
		Description: c.FormValue("description"),
		Category:    c.FormValue("category"),
		Priority:    c.FormValue("priority"),
		Location:    c.FormValue("location"),
	}
	for i, fh := range form.File[mediaField] {
		data, err := h.readFormFile(fh)
		if err != nil {
			return service.SubmitInput{}, respondError(&errors.EncodingError{Index: i, Name: fh.Filename, Err: err})
		}
		in.Attachments = append(in.Attachments, media.Attachment{
			Name:        fh.Filename,
			ContentType: fh.Header.Get(echo.HeaderContentType),
			Data:        data,
		})
	}
	return in, nil
}

func (h *ComplaintHandler) readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	if h.tooLarge(fh.Size) {
		return nil, media.ErrTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := io.Reader(f)
	if h.maxMediaBytes > 0 {
		r = io.LimitReader(f, h.maxMediaBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if h.tooLarge(int64(len(data))) {
		return nil, media.ErrTooLarge
	}
	return data, nil
}

func (h *ComplaintHandler) tooLarge(n int64) bool {
	return h.maxMediaBytes > 0 && n > h.maxMediaBytes
}

// decodedSize is the byte length of padded standard base64 s, computed
// without decoding it.
func decodedSize(s string) int64 {
	padding := len(s) - len(strings.TrimRight(s, "="))
	return int64(base64.StdEncoding.DecodedLen(len(s)) - padding)
}

// List godoc
// @Summary List complaints
// @Description The caller's own complaints by default; scope=all is the feed of every user's complaints.
// @Tags complaints
// @Produce json
// @Security BearerAuth
// @Param status query string false "pending, in-progress or resolved"
// @Param scope query string false "mine (default) or all"
// @Success 200 {array} model.Complaint
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /complaints [get]
func (h *ComplaintHandler) List(c echo.Context) error {
	var everyone bool
	switch c.QueryParam("scope") {
	case "", "mine":
	case "all":
		everyone = true
	default:
		return respondError(&errors.ValidationError{Fields: []string{"scope"}})
	}

	var status model.ComplaintStatus
	if raw := c.QueryParam("status"); raw != "" {
		parsed, ok := model.ParseStatus(raw)
		if !ok {
			return respondError(&errors.ValidationError{Fields: []string{"status"}})
		}
		status = parsed
	}

	complaints, err := h.complaintService.List(c.Request().Context(), status, everyone)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, complaints)
}

// Get godoc
// @Summary Get a complaint
// @Tags complaints
// @Produce json
// @Security BearerAuth
// @Param id path string true "Complaint ID"
// @Success 200 {object} model.Complaint
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /complaints/{id} [get]
func (h *ComplaintHandler) Get(c echo.Context) error {
	complaint, err := h.complaintService.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, complaint)
}

// Resolve godoc
// @Summary Mark a complaint resolved
// @Tags complaints
// @Produce json
// @Security BearerAuth
// @Param id path string true "Complaint ID"
// @Success 200 {object} model.Complaint
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /complaints/{id}/resolve [post]
func (h *ComplaintHandler) Resolve(c echo.Context) error {
	complaint, err := h.complaintService.Resolve(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, complaint)
}

// UpdateStatus godoc
// @Summary Change a complaint's status
// @Tags complaints
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Complaint ID"
// @Param request body UpdateStatusRequest true "New status"
// @Success 200 {object} model.Complaint
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /complaints/{id}/status [patch]
func (h *ComplaintHandler) UpdateStatus(c echo.Context) error {
	var req UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}
	if parsed, ok := model.ParseStatus(req.Status); ok {
		req.Status = string(parsed)
	}
	if err := c.Validate(&req); err != nil {
		return respondError(err)
	}

	complaint, err := h.complaintService.UpdateStatus(c.Request().Context(), c.Param("id"), model.ComplaintStatus(req.Status))
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, complaint)
}

// Media godoc
// @Summary Download an attachment
// @Tags complaints
// @Produce octet-stream
// @Security BearerAuth
// @Param id path string true "Complaint ID"
// @Param index path int true "Attachment position"
// @Success 200 {file} binary
// @Failure 404 {object} errors.ErrorResponse
// @Router /complaints/{id}/media/{index} [get]
func (h *ComplaintHandler) Media(c echo.Context) error {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return respondError(fmt.Errorf("index %q: %w", c.Param("index"), errors.ErrMediaNotFound))
	}

	mediaType, data, err := h.complaintService.Attachment(c.Request().Context(), c.Param("id"), index)
	if err != nil {
		return respondError(err)
	}
	return c.Blob(http.StatusOK, mediaType, data)
}

// Stats godoc
// @Summary Complaint counts per status
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Param scope query string false "all (default) or mine"
// @Success 200 {object} model.Stats
// @Failure 400 {object} errors.ErrorResponse
// @Router /stats [get]
func (h *ComplaintHandler) Stats(c echo.Context) error {
	var everyone bool
	switch c.QueryParam("scope") {
	case "", "all":
		everyone = true
	case "mine":
	default:
		return respondError(&errors.ValidationError{Fields: []string{"scope"}})
	}

	stats, err := h.complaintService.Stats(c.Request().Context(), everyone)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, stats)
}

// Notifications godoc
// @Summary The caller's status-change notifications, newest first
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Notification
// @Router /notifications [get]
func (h *ComplaintHandler) Notifications(c echo.Context) error {
	notifications, err := h.complaintService.Notifications(c.Request().Context())
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, notifications)
}

// MarkNotificationsRead godoc
// @Summary Mark every notification read
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]int
// @Router /notifications/read [post]
func (h *ComplaintHandler) MarkNotificationsRead(c echo.Context) error {
	n, err := h.complaintService.MarkNotificationsRead(c.Request().Context())
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, map[string]int{"updated": n})
}
