package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "complaintdesk/internal/errors"
	"complaintdesk/internal/media"
	"complaintdesk/internal/model"
)

// MockComplaintRepository is a mock implementation of ComplaintRepository.
type MockComplaintRepository struct {
	mock.Mock
}

func (m *MockComplaintRepository) ListAll(ctx context.Context) ([]model.Complaint, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Complaint), args.Error(1)
}

func (m *MockComplaintRepository) ListForUser(ctx context.Context, userID string) ([]model.Complaint, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Complaint), args.Error(1)
}

func (m *MockComplaintRepository) FindByID(ctx context.Context, id string) (*model.Complaint, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Complaint), args.Error(1)
}

func (m *MockComplaintRepository) Append(ctx context.Context, complaint *model.Complaint) error {
	args := m.Called(ctx, complaint)
	return args.Error(0)
}

func (m *MockComplaintRepository) MarkResolved(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockComplaintRepository) UpdateStatus(ctx context.Context, id string, status model.ComplaintStatus) (model.ComplaintStatus, error) {
	args := m.Called(ctx, id, status)
	return args.Get(0).(model.ComplaintStatus), args.Error(1)
}

func (m *MockComplaintRepository) Stats(ctx context.Context, userID string) (model.Stats, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(model.Stats), args.Error(1)
}

// MockNotificationRepository is a mock implementation of NotificationRepository.
type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) Append(ctx context.Context, n *model.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *MockNotificationRepository) ListForUser(ctx context.Context, userID string) ([]model.Notification, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Notification), args.Error(1)
}

func (m *MockNotificationRepository) MarkAllRead(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

type staticAuthenticator struct {
	user *model.User
}

func (a staticAuthenticator) CurrentUser(context.Context) (*model.User, bool) {
	return a.user, a.user != nil
}

var alice = &model.User{ID: "u1", Name: "Alice", Email: "alice@example.com"}

func newTestComplaintService(user *model.User, repo *MockComplaintRepository, notes *MockNotificationRepository, delay Delay, opts ...Option) ComplaintService {
	return NewComplaintService(staticAuthenticator{user: user}, repo, notes, media.NewEncoder(1024), delay, zap.NewNop(), opts...)
}

func validInput() SubmitInput {
	return SubmitInput{
		Title:       "Pothole on Main St",
		Description: "Large pothole near the bus stop",
		Category:    "path holes",
		Priority:    "high",
		Location:    "Main St & 3rd",
	}
}

func TestComplaintService_Submit(t *testing.T) {
	repo := new(MockComplaintRepository)
	notes := new(MockNotificationRepository)
	repo.On("Append", mock.Anything, mock.MatchedBy(func(c *model.Complaint) bool {
		return c.UserID == "u1" &&
			c.Category == model.CategoryPathHoles &&
			c.Status == model.StatusPending &&
			len(c.Media) == 2 &&
			c.Media[0] == "data:image/png;base64,AQI=" &&
			c.Media[1] == "data:video/mp4;base64,AwQ="
	})).Return(nil)

	svc := newTestComplaintService(alice, repo, notes, nil)
	in := validInput()
	in.Attachments = []media.Attachment{
		{Name: "a.png", ContentType: "image/png", Data: []byte{1, 2}},
		{Name: "b.mp4", ContentType: "video/mp4", Data: []byte{3, 4}},
	}

	complaint, err := svc.Submit(context.Background(), in)

	require.NoError(t, err)
	assert.Equal(t, "u1", complaint.UserID)
	repo.AssertExpectations(t)
}

func TestComplaintService_SubmitErrors(t *testing.T) {
	tests := []struct {
		name   string
		user   *model.User
		mutate func(*SubmitInput)
		check  func(*testing.T, error)
	}{
		{
			name:   "no session",
			user:   nil,
			mutate: func(*SubmitInput) {},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
			},
		},
		{
			name: "missing fields",
			user: alice,
			mutate: func(in *SubmitInput) {
				in.Title = ""
				in.Location = ""
			},
			check: func(t *testing.T, err error) {
				var verr *apperrors.ValidationError
				require.ErrorAs(t, err, &verr)
				assert.ElementsMatch(t, []string{"title", "location"}, verr.Fields)
			},
		},
		{
			name: "unknown priority",
			user: alice,
			mutate: func(in *SubmitInput) {
				in.Priority = "whenever"
			},
			check: func(t *testing.T, err error) {
				var verr *apperrors.ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, []string{"priority"}, verr.Fields)
			},
		},
		{
			name: "unsupported attachment",
			user: alice,
			mutate: func(in *SubmitInput) {
				in.Attachments = []media.Attachment{
					{Name: "ok.png", ContentType: "image/png", Data: []byte{1}},
					{Name: "notes.txt", ContentType: "text/plain", Data: []byte("hi")},
				}
			},
			check: func(t *testing.T, err error) {
				var eerr *apperrors.EncodingError
				require.ErrorAs(t, err, &eerr)
				assert.Equal(t, 1, eerr.Index)
				assert.ErrorIs(t, err, media.ErrUnsupportedType)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockComplaintRepository)
			notes := new(MockNotificationRepository)
			svc := newTestComplaintService(tt.user, repo, notes, nil)

			in := validInput()
			tt.mutate(&in)
			complaint, err := svc.Submit(context.Background(), in)

			assert.Nil(t, complaint)
			tt.check(t, err)
			repo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
		})
	}
}

func TestComplaintService_SubmitDelayCancelled(t *testing.T) {
	repo := new(MockComplaintRepository)
	notes := new(MockNotificationRepository)
	svc := newTestComplaintService(alice, repo, notes, SleepDelay(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Submit(ctx, validInput())

	assert.ErrorIs(t, err, context.Canceled)
	repo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestComplaintService_ListFiltersByStatus(t *testing.T) {
	repo := new(MockComplaintRepository)
	notes := new(MockNotificationRepository)
	repo.On("ListForUser", mock.Anything, "u1").Return([]model.Complaint{
		{ID: "1", Status: model.StatusPending, UserID: "u1"},
		{ID: "2", Status: model.StatusResolved, UserID: "u1"},
		{ID: "3", Status: model.StatusPending, UserID: "u1"},
	}, nil)

	svc := newTestComplaintService(alice, repo, notes, nil)
	complaints, err := svc.List(context.Background(), model.StatusPending, false)

	require.NoError(t, err)
	require.Len(t, complaints, 2)
	assert.Equal(t, "1", complaints[0].ID)
	assert.Equal(t, "3", complaints[1].ID)
}

func TestComplaintService_ListEveryone(t *testing.T) {
	all := []model.Complaint{
		{ID: "1", Status: model.StatusPending, UserID: "u1"},
		{ID: "2", Status: model.StatusPending, UserID: "u2"},
	}

	t.Run("shared", func(t *testing.T) {
		repo := new(MockComplaintRepository)
		repo.On("ListAll", mock.Anything).Return(all, nil)

		svc := newTestComplaintService(alice, repo, new(MockNotificationRepository), nil)
		complaints, err := svc.List(context.Background(), "", true)

		require.NoError(t, err)
		assert.Len(t, complaints, 2)
		repo.AssertNotCalled(t, "ListForUser", mock.Anything, mock.Anything)
	})

	t.Run("owner", func(t *testing.T) {
		repo := new(MockComplaintRepository)

		svc := newTestComplaintService(alice, repo, new(MockNotificationRepository), nil, WithAccess(OwnerAccess))
		_, err := svc.List(context.Background(), "", true)

		assert.ErrorIs(t, err, apperrors.ErrForbidden)
		repo.AssertNotCalled(t, "ListAll", mock.Anything)
	})
}

func TestComplaintService_AccessToOtherUsersComplaints(t *testing.T) {
	tests := []struct {
		name        string
		access      Access
		wantGet     error
		wantResolve error
	}{
		{name: "shared", access: SharedAccess},
		{name: "owner", access: OwnerAccess, wantGet: apperrors.ErrForbidden, wantResolve: apperrors.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockComplaintRepository)
			notes := new(MockNotificationRepository)
			repo.On("FindByID", mock.Anything, "7").Return(&model.Complaint{
				ID: "7", Title: "Leak", UserID: "u2", Status: model.StatusPending,
			}, nil)
			repo.On("MarkResolved", mock.Anything, "7").Return(nil).Maybe()
			notes.On("Append", mock.Anything, mock.MatchedBy(func(n *model.Notification) bool {
				return n.UserID == "u2"
			})).Return(nil).Maybe()

			svc := newTestComplaintService(alice, repo, notes, nil, WithAccess(tt.access))

			_, err := svc.Get(context.Background(), "7")
			assert.ErrorIs(t, err, tt.wantGet)

			_, err = svc.UpdateStatus(context.Background(), "7", model.StatusInProgress)
			assert.ErrorIs(t, err, apperrors.ErrForbidden, "status changes stay with the owner")

			_, err = svc.Resolve(context.Background(), "7")
			assert.ErrorIs(t, err, tt.wantResolve)
			if tt.wantResolve == nil {
				repo.AssertCalled(t, "MarkResolved", mock.Anything, "7")
				notes.AssertNumberOfCalls(t, "Append", 1)
			} else {
				repo.AssertNotCalled(t, "MarkResolved", mock.Anything, mock.Anything)
			}
			repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestAccessByName(t *testing.T) {
	a, err := AccessByName("")
	require.NoError(t, err)
	assert.Equal(t, SharedAccess, a)

	a, err = AccessByName("owner")
	require.NoError(t, err)
	assert.Equal(t, OwnerAccess, a)

	_, err = AccessByName("public")
	assert.Error(t, err)
}

func TestComplaintService_Resolve(t *testing.T) {
	repo := new(MockComplaintRepository)
	notes := new(MockNotificationRepository)
	repo.On("FindByID", mock.Anything, "7").Return(&model.Complaint{
		ID: "7", Title: "Leak", UserID: "u1", Status: model.StatusInProgress,
	}, nil)
	repo.On("MarkResolved", mock.Anything, "7").Return(nil)
	notes.On("Append", mock.Anything, mock.MatchedBy(func(n *model.Notification) bool {
		return n.ComplaintID == "7" && n.UserID == "u1" && n.Status == model.StatusResolved && !n.Read
	})).Return(nil)

	svc := newTestComplaintService(alice, repo, notes, nil)
	complaint, err := svc.Resolve(context.Background(), "7")

	require.NoError(t, err)
	assert.Equal(t, model.StatusResolved, complaint.Status)
	repo.AssertExpectations(t)
	notes.AssertExpectations(t)
}

func TestComplaintService_ResolveAlreadyResolved(t *testing.T) {
	repo := new(MockComplaintRepository)
	notes := new(MockNotificationRepository)
	repo.On("FindByID", mock.Anything, "7").Return(&model.Complaint{
		ID: "7", UserID: "u1", Status: model.StatusResolved,
	}, nil)

	svc := newTestComplaintService(alice, repo, notes, nil)
	_, err := svc.Resolve(context.Background(), "7")

	require.NoError(t, err)
	repo.AssertNotCalled(t, "MarkResolved", mock.Anything, mock.Anything)
	notes.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestComplaintService_ResolveNotificationFailureIsLogged(t *testing.T) {
	repo := new(MockComplaintRepository)
	notes := new(MockNotificationRepository)
	repo.On("FindByID", mock.Anything, "7").Return(&model.Complaint{ID: "7", UserID: "u1", Status: model.StatusPending}, nil)
	repo.On("MarkResolved", mock.Anything, "7").Return(nil)
	notes.On("Append", mock.Anything, mock.Anything).Return(errors.New("store down"))

	svc := newTestComplaintService(alice, repo, notes, nil)
	_, err := svc.Resolve(context.Background(), "7")

	assert.NoError(t, err)
}

func TestComplaintService_UpdateStatus(t *testing.T) {
	tests := []struct {
		name       string
		previous   model.ComplaintStatus
		repoErr    error
		wantErr    error
		wantNotify bool
	}{
		{name: "forward", previous: model.StatusPending, wantNotify: true},
		{name: "identity", previous: model.StatusInProgress},
		{name: "rejected", previous: model.StatusResolved, repoErr: apperrors.ErrInvalidTransition, wantErr: apperrors.ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockComplaintRepository)
			notes := new(MockNotificationRepository)
			repo.On("FindByID", mock.Anything, "7").Return(&model.Complaint{ID: "7", UserID: "u1", Status: tt.previous}, nil)
			repo.On("UpdateStatus", mock.Anything, "7", model.StatusInProgress).Return(tt.previous, tt.repoErr)
			if tt.wantNotify {
				notes.On("Append", mock.Anything, mock.Anything).Return(nil)
			}

			svc := newTestComplaintService(alice, repo, notes, nil)
			complaint, err := svc.UpdateStatus(context.Background(), "7", model.StatusInProgress)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, complaint)
			} else {
				require.NoError(t, err)
				assert.Equal(t, model.StatusInProgress, complaint.Status)
			}
			if tt.wantNotify {
				notes.AssertExpectations(t)
			} else {
				notes.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestComplaintService_Attachment(t *testing.T) {
	repo := new(MockComplaintRepository)
	notes := new(MockNotificationRepository)
	repo.On("FindByID", mock.Anything, "7").Return(&model.Complaint{
		ID: "7", UserID: "u1", Media: []string{"data:image/png;base64,AQI="},
	}, nil)

	svc := newTestComplaintService(alice, repo, notes, nil)

	mediaType, data, err := svc.Attachment(context.Background(), "7", 0)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mediaType)
	assert.Equal(t, []byte{1, 2}, data)

	_, _, err = svc.Attachment(context.Background(), "7", 1)
	assert.ErrorIs(t, err, apperrors.ErrMediaNotFound)
}

func TestComplaintService_Stats(t *testing.T) {
	repo := new(MockComplaintRepository)
	notes := new(MockNotificationRepository)
	repo.On("Stats", mock.Anything, "").Return(model.Stats{Total: 5, Pending: 5}, nil)
	repo.On("Stats", mock.Anything, "u1").Return(model.Stats{Total: 1, Resolved: 1}, nil)

	svc := newTestComplaintService(alice, repo, notes, nil)

	all, err := svc.Stats(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 5, all.Total)

	mine, err := svc.Stats(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, mine.Resolved)
}

func TestComplaintService_Notifications(t *testing.T) {
	repo := new(MockComplaintRepository)
	notes := new(MockNotificationRepository)
	notes.On("ListForUser", mock.Anything, "u1").Return([]model.Notification{{ID: "n1"}}, nil)
	notes.On("MarkAllRead", mock.Anything, "u1").Return(1, nil)

	svc := newTestComplaintService(alice, repo, notes, nil)

	list, err := svc.Notifications(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)

	n, err := svc.MarkNotificationsRead(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
