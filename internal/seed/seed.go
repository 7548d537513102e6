// Package seed loads demo complaints from a JSON file or URL.
package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "complaintdesk/internal/errors"
	"complaintdesk/internal/model"
	"complaintdesk/internal/repository"
)

// Record is one complaint in a seed document. Missing ids get a UUID,
// since timestamp ids would collide when many records land in the same
// millisecond.
type Record struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Priority    string    `json:"priority"`
	Status      string    `json:"status"`
	Location    string    `json:"location"`
	Media       []string  `json:"media"`
	UserID      string    `json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Result summarizes a seed run.
type Result struct {
	Created  int
	Existing int
	Skipped  int
}

// Loader appends seed records through the complaint repository.
type Loader struct {
	complaints repository.ComplaintRepository
	client     *http.Client
	logger     *zap.Logger
}

// NewLoader creates a loader.
func NewLoader(complaints repository.ComplaintRepository, logger *zap.Logger) *Loader {
	return &Loader{
		complaints: complaints,
		client:     &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

// Fetch reads records from source, an http(s) URL or a file path.
func (l *Loader) Fetch(ctx context.Context, source string) ([]Record, error) {
	var (
		body []byte
		err  error
	)
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		body, err = l.fetchURL(ctx, source)
	} else {
		body, err = os.ReadFile(source)
	}
	if err != nil {
		return nil, err
	}

	var records []Record
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return records, nil
}

func (l *Loader) fetchURL(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch seed data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("seed source returned status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}

// Load appends every record whose id is not stored yet. Records without an
// owner get defaultUserID; if that is empty too they are skipped. Invalid
// records are skipped and logged; storage failures abort the run.
func (l *Loader) Load(ctx context.Context, records []Record, defaultUserID string) (Result, error) {
	var res Result
	for i, rec := range records {
		if rec.ID == "" {
			rec.ID = uuid.New().String()
		} else {
			_, err := l.complaints.FindByID(ctx, rec.ID)
			if err == nil {
				res.Existing++
				continue
			}
			if !errors.Is(err, apperrors.ErrComplaintNotFound) {
				return res, fmt.Errorf("error checking complaint %s: %w", rec.ID, err)
			}
		}

		complaint, ok := l.toComplaint(i, rec, defaultUserID)
		if !ok {
			res.Skipped++
			continue
		}
		target := complaint.Status

		if err := l.complaints.Append(ctx, complaint); err != nil {
			var verr *apperrors.ValidationError
			if errors.As(err, &verr) {
				l.logger.Warn("skipping invalid seed record", zap.Int("index", i), zap.Strings("fields", verr.Fields))
				res.Skipped++
				continue
			}
			return res, fmt.Errorf("error creating complaint %s: %w", rec.ID, err)
		}
		if target != model.StatusPending {
			if _, err := l.complaints.UpdateStatus(ctx, complaint.ID, target); err != nil {
				return res, fmt.Errorf("error setting status of %s: %w", rec.ID, err)
			}
		}
		res.Created++
	}
	return res, nil
}

func (l *Loader) toComplaint(i int, rec Record, defaultUserID string) (*model.Complaint, bool) {
	userID := rec.UserID
	if userID == "" {
		userID = defaultUserID
	}
	if userID == "" {
		l.logger.Warn("skipping seed record without owner", zap.Int("index", i), zap.String("id", rec.ID))
		return nil, false
	}

	status := model.StatusPending
	if rec.Status != "" {
		parsed, ok := model.ParseStatus(rec.Status)
		if !ok {
			l.logger.Warn("skipping seed record with unknown status", zap.Int("index", i), zap.String("status", rec.Status))
			return nil, false
		}
		status = parsed
	}

	c := &model.Complaint{
		ID:          rec.ID,
		Title:       rec.Title,
		Description: rec.Description,
		Category:    model.Category(rec.Category),
		Priority:    model.Priority(rec.Priority),
		Status:      status,
		Location:    rec.Location,
		Media:       rec.Media,
		UserID:      userID,
		CreatedAt:   rec.CreatedAt.UTC(),
	}
	if cat, ok := model.ParseCategory(rec.Category); ok {
		c.Category = cat
	}
	if p, ok := model.ParsePriority(rec.Priority); ok {
		c.Priority = p
	}
	return c, true
}
