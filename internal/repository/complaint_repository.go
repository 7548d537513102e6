package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "complaintdesk/internal/errors"
	"complaintdesk/internal/kvstore"
	"complaintdesk/internal/model"
)

// ComplaintsKey is where the complaint list is persisted.
const ComplaintsKey = "complaints"

// ComplaintRepository defines complaint persistence operations.
type ComplaintRepository interface {
	ListAll(ctx context.Context) ([]model.Complaint, error)
	ListForUser(ctx context.Context, userID string) ([]model.Complaint, error)
	FindByID(ctx context.Context, id string) (*model.Complaint, error)
	Append(ctx context.Context, complaint *model.Complaint) error
	MarkResolved(ctx context.Context, id string) error
	UpdateStatus(ctx context.Context, id string, status model.ComplaintStatus) (model.ComplaintStatus, error)
	Stats(ctx context.Context, userID string) (model.Stats, error)
}

// IDGenerator produces ids for new complaints.
type IDGenerator func(now time.Time) string

// TimestampIDs derives the id from the creation time in milliseconds. Two
// complaints created within the same millisecond get the same id.
func TimestampIDs(now time.Time) string {
	return strconv.FormatInt(now.UnixMilli(), 10)
}

// UUIDIDs returns a random UUID.
func UUIDIDs(time.Time) string {
	return uuid.New().String()
}

// IDGeneratorByName maps the ID_STRATEGY setting to a generator.
func IDGeneratorByName(name string) (IDGenerator, error) {
	switch name {
	case "", "timestamp":
		return TimestampIDs, nil
	case "uuid":
		return UUIDIDs, nil
	default:
		return nil, fmt.Errorf("unknown id strategy %q", name)
	}
}

// Option configures a complaint repository.
type Option func(*complaintRepository)

// WithIDGenerator replaces the default timestamp ids.
func WithIDGenerator(gen IDGenerator) Option {
	return func(r *complaintRepository) { r.newID = gen }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *complaintRepository) { r.now = now }
}

// WithPolicy replaces the ForwardOnly transition policy.
func WithPolicy(p TransitionPolicy) Option {
	return func(r *complaintRepository) { r.policy = p }
}

type complaintRepository struct {
	list      documentList
	validator *validator.Validate
	logger    *zap.Logger
	newID     IDGenerator
	now       func() time.Time
	policy    TransitionPolicy

	// mu serializes read-modify-write cycles within this process. Other
	// processes sharing the store still race; the last writer wins.
	mu sync.Mutex
}

// NewComplaintRepository builds a repository over the "complaints" key of kv.
func NewComplaintRepository(kv kvstore.Store, logger *zap.Logger, opts ...Option) ComplaintRepository {
	r := &complaintRepository{
		list:      documentList{kv: kv, key: ComplaintsKey, logger: logger},
		validator: model.NewValidator(),
		logger:    logger,
		newID:     TimestampIDs,
		now:       time.Now,
		policy:    ForwardOnly{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ListAll returns every complaint in storage order. Elements that do not
// decode as complaints are skipped.
func (r *complaintRepository) ListAll(ctx context.Context) ([]model.Complaint, error) {
	items, err := r.list.load(ctx)
	if err != nil {
		return nil, err
	}
	complaints := make([]model.Complaint, 0, len(items))
	for i, item := range items {
		var c model.Complaint
		if err := json.Unmarshal(item, &c); err != nil {
			r.logger.Warn("skipping malformed complaint", zap.Int("index", i), zap.Error(err))
			continue
		}
		complaints = append(complaints, c)
	}
	return complaints, nil
}

// ListForUser filters ListAll by owner. It is recomputed on every call.
func (r *complaintRepository) ListForUser(ctx context.Context, userID string) ([]model.Complaint, error) {
	all, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	owned := make([]model.Complaint, 0, len(all))
	for _, c := range all {
		if c.OwnedBy(userID) {
			owned = append(owned, c)
		}
	}
	return owned, nil
}

// FindByID returns the first complaint with id.
func (r *complaintRepository) FindByID(ctx context.Context, id string) (*model.Complaint, error) {
	all, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
			return &all[i], nil
		}
	}
	return nil, apperrors.ErrComplaintNotFound
}

// Append validates complaint, fills id, createdAt and the initial status, and
// persists the extended list with one write. On error nothing is written.
func (r *complaintRepository) Append(ctx context.Context, complaint *model.Complaint) error {
	complaint.Status = model.StatusPending
	if err := validateComplaint(r.validator, complaint); err != nil {
		return err
	}

	now := r.now().UTC().Truncate(time.Millisecond)
	if complaint.CreatedAt.IsZero() {
		complaint.CreatedAt = now
	}
	if complaint.ID == "" {
		complaint.ID = r.newID(now)
	}

	payload, err := json.Marshal(complaint)
	if err != nil {
		return fmt.Errorf("marshal complaint: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	items, err := r.list.load(ctx)
	if err != nil {
		return err
	}
	return r.list.save(ctx, append(items, payload))
}

// MarkResolved moves the complaint to resolved. An unknown id is a no-op.
func (r *complaintRepository) MarkResolved(ctx context.Context, id string) error {
	_, err := r.UpdateStatus(ctx, id, model.StatusResolved)
	if errors.Is(err, apperrors.ErrComplaintNotFound) {
		return nil
	}
	return err
}

// UpdateStatus changes the status of complaint id under the transition policy
// and returns the status it had before. Setting the current status again is a
// no-op that writes nothing.
func (r *complaintRepository) UpdateStatus(ctx context.Context, id string, status model.ComplaintStatus) (model.ComplaintStatus, error) {
	if !status.Valid() {
		return "", &apperrors.ValidationError{Fields: []string{"status"}}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	items, err := r.list.load(ctx)
	if err != nil {
		return "", err
	}

	for i, item := range items {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(item, &fields); err != nil {
			continue
		}
		var itemID string
		if err := json.Unmarshal(fields["id"], &itemID); err != nil || itemID != id {
			continue
		}

		var previous model.ComplaintStatus
		_ = json.Unmarshal(fields["status"], &previous)
		if previous == status {
			return previous, nil
		}
		if !r.policy.Allow(previous, status) {
			return previous, fmt.Errorf("%w: %s to %s", apperrors.ErrInvalidTransition, previous, status)
		}

		encoded, err := json.Marshal(status)
		if err != nil {
			return previous, fmt.Errorf("marshal status: %w", err)
		}
		fields["status"] = encoded
		updated, err := json.Marshal(fields)
		if err != nil {
			return previous, fmt.Errorf("marshal complaint %s: %w", id, err)
		}
		items[i] = updated
		return previous, r.list.save(ctx, items)
	}
	return "", apperrors.ErrComplaintNotFound
}

// Stats counts complaints per status. An empty userID counts everyone's.
func (r *complaintRepository) Stats(ctx context.Context, userID string) (model.Stats, error) {
	var (
		complaints []model.Complaint
		err        error
	)
	if userID == "" {
		complaints, err = r.ListAll(ctx)
	} else {
		complaints, err = r.ListForUser(ctx, userID)
	}
	if err != nil {
		return model.Stats{}, err
	}

	var stats model.Stats
	for _, c := range complaints {
		stats.Add(c.Status)
	}
	return stats, nil
}

// ValidateComplaint checks the fields a submission must carry and reports
// every offending field in an *errors.ValidationError.
func ValidateComplaint(complaint *model.Complaint) error {
	return validateComplaint(model.NewValidator(), complaint)
}

func validateComplaint(v *validator.Validate, complaint *model.Complaint) error {
	err := v.Struct(complaint)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate complaint: %w", err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return &apperrors.ValidationError{Fields: fields}
}
