package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"complaintdesk/internal/auth"
	apperrors "complaintdesk/internal/errors"
	"complaintdesk/internal/media"
	"complaintdesk/internal/model"
	"complaintdesk/internal/repository"
)

// SubmitInput is a complaint as entered by the user, before normalization.
type SubmitInput struct {
	Title       string
	Description string
	Category    string
	Priority    string
	Location    string
	Attachments []media.Attachment
}

// ComplaintService handles complaint operations on behalf of the current user.
type ComplaintService interface {
	Submit(ctx context.Context, in SubmitInput) (*model.Complaint, error)
	List(ctx context.Context, status model.ComplaintStatus, everyone bool) ([]model.Complaint, error)
	Get(ctx context.Context, id string) (*model.Complaint, error)
	Resolve(ctx context.Context, id string) (*model.Complaint, error)
	UpdateStatus(ctx context.Context, id string, status model.ComplaintStatus) (*model.Complaint, error)
	Attachment(ctx context.Context, id string, index int) (mediaType string, data []byte, err error)
	Stats(ctx context.Context, everyone bool) (model.Stats, error)
	Notifications(ctx context.Context) ([]model.Notification, error)
	MarkNotificationsRead(ctx context.Context) (int, error)
}

// Access decides what a user may do with complaints they do not own.
type Access string

const (
	// SharedAccess is the community board: every signed-in user may read the
	// feed of all complaints, open any of them, and resolve any of them.
	// Arbitrary status changes stay with the owner.
	SharedAccess Access = "shared"
	// OwnerAccess confines reads, resolution and status changes to the owner.
	// The all-users feed is refused; aggregate stats stay available.
	OwnerAccess Access = "owner"
)

// AccessByName maps the COMPLAINT_ACCESS setting to an Access.
func AccessByName(name string) (Access, error) {
	switch Access(name) {
	case "", SharedAccess:
		return SharedAccess, nil
	case OwnerAccess:
		return OwnerAccess, nil
	default:
		return "", fmt.Errorf("unknown complaint access %q", name)
	}
}

// Option configures a complaint service.
type Option func(*complaintService)

// WithAccess replaces the default SharedAccess.
func WithAccess(a Access) Option {
	return func(s *complaintService) { s.access = a }
}

// Delay runs between encoding and persisting a submission.
type Delay func(ctx context.Context) error

// NoDelay is the default Delay.
func NoDelay(context.Context) error { return nil }

// SleepDelay waits d, or until ctx is done.
func SleepDelay(d time.Duration) Delay {
	if d <= 0 {
		return NoDelay
	}
	return func(ctx context.Context) error {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-timer.C:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

type complaintService struct {
	authn         auth.Authenticator
	complaints    repository.ComplaintRepository
	notifications repository.NotificationRepository
	encoder       *media.Encoder
	delay         Delay
	access        Access
	logger        *zap.Logger
	now           func() time.Time
}

// NewComplaintService creates a new complaint service. A nil delay means none.
func NewComplaintService(
	authn auth.Authenticator,
	complaints repository.ComplaintRepository,
	notifications repository.NotificationRepository,
	encoder *media.Encoder,
	delay Delay,
	logger *zap.Logger,
	opts ...Option,
) ComplaintService {
	if delay == nil {
		delay = NoDelay
	}
	s := &complaintService{
		authn:         authn,
		complaints:    complaints,
		notifications: notifications,
		encoder:       encoder,
		delay:         delay,
		access:        SharedAccess,
		logger:        logger,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *complaintService) currentUser(ctx context.Context) (*model.User, error) {
	user, ok := s.authn.CurrentUser(ctx)
	if !ok {
		return nil, apperrors.ErrUnauthenticated
	}
	return user, nil
}

// Submit validates the input, encodes every attachment, and appends the
// complaint for the current user. Validation runs before encoding so a bad
// form never pays for the uploads; an encoding failure aborts the submission.
func (s *complaintService) Submit(ctx context.Context, in SubmitInput) (*model.Complaint, error) {
	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	complaint := &model.Complaint{
		Title:       in.Title,
		Description: in.Description,
		Category:    model.Category(in.Category),
		Priority:    model.Priority(in.Priority),
		Status:      model.StatusPending,
		Location:    in.Location,
		UserID:      user.ID,
	}
	if c, ok := model.ParseCategory(in.Category); ok {
		complaint.Category = c
	}
	if p, ok := model.ParsePriority(in.Priority); ok {
		complaint.Priority = p
	}
	if err := repository.ValidateComplaint(complaint); err != nil {
		return nil, err
	}

	urls, err := s.encoder.Encode(ctx, in.Attachments)
	if err != nil {
		s.logger.Warn("media encoding failed", zap.String("user_id", user.ID), zap.Error(err))
		return nil, err
	}
	complaint.Media = urls

	if err := s.delay(ctx); err != nil {
		return nil, fmt.Errorf("submit complaint: %w", err)
	}

	if err := s.complaints.Append(ctx, complaint); err != nil {
		return nil, err
	}
	s.logger.Info("complaint submitted",
		zap.String("complaint_id", complaint.ID),
		zap.String("user_id", user.ID),
		zap.Int("attachments", len(urls)))
	return complaint, nil
}

// List returns the current user's complaints, or everyone's when everyone is
// set and access is shared. A non-empty status keeps only complaints in that
// status.
func (s *complaintService) List(ctx context.Context, status model.ComplaintStatus, everyone bool) ([]model.Complaint, error) {
	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	var complaints []model.Complaint
	if everyone {
		if s.access != SharedAccess {
			return nil, apperrors.ErrForbidden
		}
		complaints, err = s.complaints.ListAll(ctx)
	} else {
		complaints, err = s.complaints.ListForUser(ctx, user.ID)
	}
	if err != nil {
		return nil, err
	}
	if status == "" {
		return complaints, nil
	}
	filtered := complaints[:0]
	for _, c := range complaints {
		if c.Status == status {
			filtered = append(filtered, c)
		}
	}
	return filtered, nil
}

// Get returns a complaint the current user may read.
func (s *complaintService) Get(ctx context.Context, id string) (*model.Complaint, error) {
	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	return s.find(ctx, user, id, true)
}

// find loads complaint id for user. Non-owners get ErrForbidden unless
// shareable is set and access is shared.
func (s *complaintService) find(ctx context.Context, user *model.User, id string, shareable bool) (*model.Complaint, error) {
	complaint, err := s.complaints.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if complaint.OwnedBy(user.ID) || (shareable && s.access == SharedAccess) {
		return complaint, nil
	}
	return nil, apperrors.ErrForbidden
}

// Resolve marks a complaint resolved. The owner is notified even when someone
// else resolved it.
func (s *complaintService) Resolve(ctx context.Context, id string) (*model.Complaint, error) {
	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	complaint, err := s.find(ctx, user, id, true)
	if err != nil {
		return nil, err
	}
	if complaint.Status == model.StatusResolved {
		return complaint, nil
	}

	if err := s.complaints.MarkResolved(ctx, id); err != nil {
		return nil, err
	}
	previous := complaint.Status
	complaint.Status = model.StatusResolved
	s.notify(ctx, complaint, previous)
	s.logger.Info("complaint resolved",
		zap.String("complaint_id", id),
		zap.String("by", user.ID),
		zap.String("owner", complaint.UserID))
	return complaint, nil
}

// UpdateStatus moves one of the current user's complaints to status under the
// repository's transition policy.
func (s *complaintService) UpdateStatus(ctx context.Context, id string, status model.ComplaintStatus) (*model.Complaint, error) {
	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	complaint, err := s.find(ctx, user, id, false)
	if err != nil {
		return nil, err
	}

	previous, err := s.complaints.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	complaint.Status = status
	if previous != status {
		s.notify(ctx, complaint, previous)
	}
	return complaint, nil
}

// Attachment decodes the index-th media entry of a complaint the user may read.
func (s *complaintService) Attachment(ctx context.Context, id string, index int) (string, []byte, error) {
	complaint, err := s.Get(ctx, id)
	if err != nil {
		return "", nil, err
	}
	if index < 0 || index >= len(complaint.Media) {
		return "", nil, apperrors.ErrMediaNotFound
	}
	mediaType, data, err := media.Decode(complaint.Media[index])
	if err != nil {
		return "", nil, fmt.Errorf("decode attachment %d of %s: %w", index, id, err)
	}
	return mediaType, data, nil
}

// Stats counts the current user's complaints, or everyone's.
func (s *complaintService) Stats(ctx context.Context, everyone bool) (model.Stats, error) {
	user, err := s.currentUser(ctx)
	if err != nil {
		return model.Stats{}, err
	}
	if everyone {
		return s.complaints.Stats(ctx, "")
	}
	return s.complaints.Stats(ctx, user.ID)
}

func (s *complaintService) Notifications(ctx context.Context) ([]model.Notification, error) {
	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	return s.notifications.ListForUser(ctx, user.ID)
}

func (s *complaintService) MarkNotificationsRead(ctx context.Context) (int, error) {
	user, err := s.currentUser(ctx)
	if err != nil {
		return 0, err
	}
	return s.notifications.MarkAllRead(ctx, user.ID)
}

// notify records a status change. The change is already persisted, so a
// failure here is logged and not returned.
func (s *complaintService) notify(ctx context.Context, complaint *model.Complaint, previous model.ComplaintStatus) {
	n := &model.Notification{
		ID:          uuid.New().String(),
		UserID:      complaint.UserID,
		ComplaintID: complaint.ID,
		Status:      complaint.Status,
		Message:     fmt.Sprintf("%q moved from %s to %s", complaint.Title, previous, complaint.Status),
		CreatedAt:   s.now().UTC().Truncate(time.Millisecond),
	}
	if err := s.notifications.Append(ctx, n); err != nil {
		s.logger.Warn("failed to record notification",
			zap.String("complaint_id", complaint.ID), zap.Error(err))
	}
}
