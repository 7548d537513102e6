package model_test

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"complaintdesk/internal/model"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in   string
		want model.Category
		ok   bool
	}{
		{"Garbage", model.CategoryGarbage, true},
		{"path holes", model.CategoryPathHoles, true},
		{"other", model.CategoryOther, true},
		{" Water Pipeline ", model.CategoryWaterPipeline, true},
		{"Noise", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := model.ParseCategory(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePriorityAndStatus(t *testing.T) {
	p, ok := model.ParsePriority("URGENT")
	assert.True(t, ok)
	assert.Equal(t, model.PriorityUrgent, p)

	_, ok = model.ParsePriority("critical")
	assert.False(t, ok)

	s, ok := model.ParseStatus("In-Progress")
	assert.True(t, ok)
	assert.Equal(t, model.StatusInProgress, s)

	_, ok = model.ParseStatus("closed")
	assert.False(t, ok)
}

func TestComplaintStatusRank(t *testing.T) {
	assert.Less(t, model.StatusPending.Rank(), model.StatusInProgress.Rank())
	assert.Less(t, model.StatusInProgress.Rank(), model.StatusResolved.Rank())
	assert.Equal(t, -1, model.ComplaintStatus("closed").Rank())
	assert.False(t, model.ComplaintStatus("").Valid())
}

func TestStatsAdd(t *testing.T) {
	var s model.Stats
	s.Add(model.StatusPending)
	s.Add(model.StatusPending)
	s.Add(model.StatusResolved)
	s.Add(model.StatusInProgress)

	assert.Equal(t, model.Stats{Total: 4, Pending: 2, InProgress: 1, Resolved: 1}, s)
}

func TestValidatorReportsJSONFieldNames(t *testing.T) {
	v := model.NewValidator()

	err := v.Struct(&model.Complaint{
		Title:    "Pothole",
		Category: "Noise",
		Priority: model.PriorityHigh,
	})
	require.Error(t, err)

	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	assert.ElementsMatch(t, []string{"description", "category", "location"}, fields)
}

func TestValidatorAcceptsCompleteComplaint(t *testing.T) {
	v := model.NewValidator()

	err := v.Struct(&model.Complaint{
		Title:       "Pothole",
		Description: "Large pothole on Main St",
		Category:    model.CategoryPathHoles,
		Priority:    model.PriorityHigh,
		Status:      model.StatusPending,
		Location:    "Main St",
	})
	assert.NoError(t, err)
}
