package challan

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitestock/internal/core/apperror"
	"sitestock/internal/core/id"
	"sitestock/internal/core/types"
)

func TestStatusCanTransitionTo(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		want bool
	}{
		{StatusDraft, StatusApproved, true},
		{StatusApproved, StatusAccepted, true},
		{StatusDraft, StatusAccepted, false},
		{StatusApproved, StatusDraft, false},
		{StatusAccepted, StatusDraft, false},
		{StatusAccepted, StatusApproved, false},
		{StatusDraft, StatusDraft, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestStatusIsTerminal(t *testing.T) {
	assert.False(t, StatusDraft.IsTerminal())
	assert.False(t, StatusApproved.IsTerminal())
	assert.True(t, StatusAccepted.IsTerminal())
}

func TestOutwardChallanValidate(t *testing.T) {
	from, to := id.New(), id.New()
	itemID := id.New()
	ctx := context.Background()

	newValid := func() *OutwardChallan {
		doc := NewOutwardChallan(from, to)
		doc.AddLine(itemID, types.NewQuantityFromFloat64(10))
		return doc
	}

	t.Run("valid draft passes", func(t *testing.T) {
		require.NoError(t, newValid().Validate(ctx))
	})

	t.Run("same source and destination", func(t *testing.T) {
		doc := NewOutwardChallan(from, from)
		doc.AddLine(itemID, types.NewQuantityFromFloat64(10))
		assert.Error(t, doc.Validate(ctx))
	})

	t.Run("no lines", func(t *testing.T) {
		doc := NewOutwardChallan(from, to)
		assert.Error(t, doc.Validate(ctx))
	})

	t.Run("duplicate item", func(t *testing.T) {
		doc := newValid()
		doc.AddLine(itemID, types.NewQuantityFromFloat64(5))
		assert.Error(t, doc.Validate(ctx))
	})

	t.Run("non-positive quantity", func(t *testing.T) {
		doc := NewOutwardChallan(from, to)
		doc.AddLine(itemID, 0)
		assert.Error(t, doc.Validate(ctx))
	})
}

func TestOutwardChallanCanModify(t *testing.T) {
	doc := NewOutwardChallan(id.New(), id.New())
	require.NoError(t, doc.CanModify())

	doc.Status = StatusApproved
	err := doc.CanModify()
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidState, appErr.Code)
}

func TestOutwardChallanLines(t *testing.T) {
	doc := NewOutwardChallan(id.New(), id.New())
	doc.AddLine(id.New(), types.NewQuantityFromFloat64(10))
	doc.AddLine(id.New(), types.NewQuantityFromFloat64(2.5))

	assert.Equal(t, 1, doc.Lines[0].LineNo)
	assert.Equal(t, 2, doc.Lines[1].LineNo)
	assert.Equal(t, types.NewQuantityFromFloat64(12.5), doc.TotalQuantity())

	line := doc.LineByID(doc.Lines[1].LineID)
	require.NotNil(t, line)
	assert.Equal(t, doc.Lines[1].ItemID, line.ItemID)

	assert.Nil(t, doc.LineByID(id.New()))
}
