package budget

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitestock/internal/core/apperror"
	"sitestock/internal/core/id"
	"sitestock/internal/core/types"
)

func qty(v float64) types.Quantity {
	return types.NewQuantityFromFloat64(v)
}

func errCode(t *testing.T, err error) string {
	t.Helper()
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	return appErr.Code
}

func TestLineRecalculate(t *testing.T) {
	line := SiteBudgetLine{
		BudgetQty:  qty(120),
		BudgetRate: types.MustMoney("350.50"),
		OrderedQty: qty(45),
		AvgRate:    types.MustMoney("349"),
	}
	line.Recalculate()

	assert.True(t, line.BudgetValue.Equal(types.MustMoney("42060")), "budget value = %s", line.BudgetValue)
	assert.True(t, line.OrderedValue.Equal(types.MustMoney("15705")), "ordered value = %s", line.OrderedValue)
}

func TestLineRecalculateRounding(t *testing.T) {
	line := SiteBudgetLine{
		BudgetQty:  qty(3.3333),
		BudgetRate: types.MustMoney("3.3333"),
		AvgRate:    types.ZeroMoney(),
	}
	line.Recalculate()

	// 3.3333 * 3.3333 = 11.11088889, rounded to four places
	assert.True(t, line.BudgetValue.Equal(types.MustMoney("11.1109")), "budget value = %s", line.BudgetValue)
}

func TestBudgetAddLine(t *testing.T) {
	b := NewSiteBudget("FY 26-27 civil works")
	siteID, itemID := id.New(), id.New()
	b.AddLine(siteID, itemID, qty(100), types.MustMoney("350"))

	require.Len(t, b.Lines, 1)
	line := b.Lines[0]
	assert.Equal(t, b.ID, line.BudgetID)
	assert.Equal(t, siteID, line.SiteID)
	assert.Equal(t, itemID, line.ItemID)
	assert.True(t, line.BudgetValue.Equal(types.MustMoney("35000")))
	assert.True(t, line.OrderedValue.IsZero())
}

func TestBudgetValidate(t *testing.T) {
	siteA, siteB := id.New(), id.New()
	itemX := id.New()

	t.Run("valid", func(t *testing.T) {
		b := NewSiteBudget("FY 26-27 civil works")
		b.AddLine(siteA, itemX, qty(100), types.MustMoney("350"))
		b.AddLine(siteB, itemX, qty(50), types.MustMoney("350"))
		assert.NoError(t, b.Validate(context.Background()))
	})

	t.Run("name required", func(t *testing.T) {
		b := NewSiteBudget("")
		err := b.Validate(context.Background())
		assert.Equal(t, apperror.CodeValidation, errCode(t, err))
	})

	t.Run("same item twice for one site", func(t *testing.T) {
		b := NewSiteBudget("FY 26-27 civil works")
		b.AddLine(siteA, itemX, qty(100), types.MustMoney("350"))
		b.AddLine(siteA, itemX, qty(50), types.MustMoney("360"))
		err := b.Validate(context.Background())
		assert.Equal(t, apperror.CodeDuplicateBudgetItem, errCode(t, err))
	})

	t.Run("negative quantity", func(t *testing.T) {
		b := NewSiteBudget("FY 26-27 civil works")
		b.AddLine(siteA, itemX, qty(-1), types.MustMoney("350"))
		err := b.Validate(context.Background())
		assert.Equal(t, apperror.CodeValidation, errCode(t, err))
	})

	t.Run("negative rate", func(t *testing.T) {
		b := NewSiteBudget("FY 26-27 civil works")
		b.AddLine(siteA, itemX, qty(1), types.MustMoney("-350"))
		err := b.Validate(context.Background())
		assert.Equal(t, apperror.CodeValidation, errCode(t, err))
	})

	t.Run("zero quantity placeholder line is allowed", func(t *testing.T) {
		b := NewSiteBudget("FY 26-27 civil works")
		b.AddLine(siteA, itemX, 0, types.MustMoney("350"))
		assert.NoError(t, b.Validate(context.Background()))
	})
}
