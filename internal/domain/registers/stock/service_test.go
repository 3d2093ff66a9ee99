package stock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitestock/internal/core/apperror"
	"sitestock/internal/core/entity"
	"sitestock/internal/core/id"
	"sitestock/internal/core/types"
)

func qty(v float64) types.Quantity {
	return types.NewQuantityFromFloat64(v)
}

type memRepo struct {
	entries  []entity.StockEntry
	balances map[string]entity.SiteItemBalance
	batches  map[string]entity.SiteItemBatchBalance
}

func newMemRepo() *memRepo {
	return &memRepo{
		balances: make(map[string]entity.SiteItemBalance),
		batches:  make(map[string]entity.SiteItemBatchBalance),
	}
}

func balanceKey(siteID, itemID id.ID) string {
	return siteID.String() + "/" + itemID.String()
}

func batchKey(siteID, itemID id.ID, batchNumber string) string {
	return balanceKey(siteID, itemID) + "/" + batchNumber
}

func (r *memRepo) AppendEntries(_ context.Context, entries []entity.StockEntry) error {
	r.entries = append(r.entries, entries...)
	return nil
}

func (r *memRepo) GetEntriesByDocument(_ context.Context, documentID id.ID) ([]entity.StockEntry, error) {
	var out []entity.StockEntry
	for _, e := range r.entries {
		if e.DocumentID == documentID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memRepo) GetEntryHistory(_ context.Context, itemID id.ID, _ EntryFilter) ([]entity.StockEntry, error) {
	var out []entity.StockEntry
	for _, e := range r.entries {
		if e.ItemID == itemID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memRepo) GetBalance(_ context.Context, siteID, itemID id.ID) (entity.SiteItemBalance, error) {
	if b, ok := r.balances[balanceKey(siteID, itemID)]; ok {
		return b, nil
	}
	return entity.NewSiteItemBalance(siteID, itemID), nil
}

func (r *memRepo) GetBalanceForUpdate(_ context.Context, siteID, itemID id.ID) (entity.SiteItemBalance, bool, error) {
	b, ok := r.balances[balanceKey(siteID, itemID)]
	return b, ok, nil
}

func (r *memRepo) SaveBalance(_ context.Context, balance entity.SiteItemBalance) error {
	r.balances[balanceKey(balance.SiteID, balance.ItemID)] = balance
	return nil
}

func (r *memRepo) GetBalancesBySite(_ context.Context, siteID id.ID, filter BalanceFilter) ([]entity.SiteItemBalance, error) {
	var out []entity.SiteItemBalance
	for _, b := range r.balances {
		if b.SiteID != siteID {
			continue
		}
		if filter.ExcludeZero && b.ClosingStock == 0 {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (r *memRepo) GetBalancesByItem(_ context.Context, itemID id.ID) ([]entity.SiteItemBalance, error) {
	var out []entity.SiteItemBalance
	for _, b := range r.balances {
		if b.ItemID == itemID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *memRepo) GetBatchForUpdate(_ context.Context, siteID, itemID id.ID, batchNumber string) (entity.SiteItemBatchBalance, bool, error) {
	b, ok := r.batches[batchKey(siteID, itemID, batchNumber)]
	return b, ok, nil
}

func (r *memRepo) SaveBatch(_ context.Context, batch entity.SiteItemBatchBalance) error {
	r.batches[batchKey(batch.SiteID, batch.ItemID, batch.BatchNumber)] = batch
	return nil
}

func (r *memRepo) GetBatches(_ context.Context, siteID, itemID id.ID) ([]entity.SiteItemBatchBalance, error) {
	var out []entity.SiteItemBatchBalance
	for _, b := range r.batches {
		if b.SiteID == siteID && b.ItemID == itemID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *memRepo) GetTurnover(_ context.Context, _ TurnoverFilter) (Turnover, error) {
	return Turnover{}, nil
}

func errCode(t *testing.T, err error) string {
	t.Helper()
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	return appErr.Code
}

func movement(siteID, itemID id.ID, q types.Quantity, rate string) Movement {
	return Movement{
		SiteID:       siteID,
		ItemID:       itemID,
		DocumentID:   id.New(),
		DocumentType: "GRN",
		Date:         time.Date(2026, time.May, 10, 0, 0, 0, 0, time.UTC),
		Quantity:     q,
		Rate:         types.MustMoney(rate),
	}
}

func TestReceive(t *testing.T) {
	t.Run("writes the ledger and the balance", func(t *testing.T) {
		repo := newMemRepo()
		svc := NewService(repo)
		siteID, itemID := id.New(), id.New()

		m := movement(siteID, itemID, qty(100), "350")
		balance, err := svc.Receive(context.Background(), m)
		require.NoError(t, err)

		assert.Equal(t, qty(100), balance.ClosingStock)
		assert.True(t, balance.UnitRate.Equal(types.MustMoney("350")))
		assert.Equal(t, m.Date, balance.LastEntryAt)

		require.Len(t, repo.entries, 1)
		entry := repo.entries[0]
		assert.Equal(t, entity.EntryTypeReceipt, entry.EntryType)
		assert.Equal(t, m.DocumentID, entry.DocumentID)
		assert.Equal(t, qty(100), entry.Quantity)
	})

	t.Run("second receipt blends the rate", func(t *testing.T) {
		repo := newMemRepo()
		svc := NewService(repo)
		siteID, itemID := id.New(), id.New()

		_, err := svc.Receive(context.Background(), movement(siteID, itemID, qty(10), "5"))
		require.NoError(t, err)
		balance, err := svc.Receive(context.Background(), movement(siteID, itemID, qty(10), "7"))
		require.NoError(t, err)

		assert.Equal(t, qty(20), balance.ClosingStock)
		assert.True(t, balance.UnitRate.Equal(types.MustMoney("6")), "rate = %s", balance.UnitRate)
	})

	t.Run("negative rate rejected", func(t *testing.T) {
		svc := NewService(newMemRepo())

		_, err := svc.Receive(context.Background(), movement(id.New(), id.New(), qty(10), "-1"))
		assert.Equal(t, apperror.CodeValidation, errCode(t, err))
	})

	t.Run("zero quantity rejected", func(t *testing.T) {
		svc := NewService(newMemRepo())

		_, err := svc.Receive(context.Background(), movement(id.New(), id.New(), 0, "350"))
		assert.Equal(t, apperror.CodeValidation, errCode(t, err))
	})
}

func TestIssue(t *testing.T) {
	t.Run("decrements quantity and keeps the rate", func(t *testing.T) {
		repo := newMemRepo()
		svc := NewService(repo)
		siteID, itemID := id.New(), id.New()

		_, err := svc.Receive(context.Background(), movement(siteID, itemID, qty(100), "350"))
		require.NoError(t, err)

		m := movement(siteID, itemID, qty(40), "0")
		balance, err := svc.Issue(context.Background(), m)
		require.NoError(t, err)

		assert.Equal(t, qty(60), balance.ClosingStock)
		assert.True(t, balance.UnitRate.Equal(types.MustMoney("350")))

		// the issue entry is valued at the balance rate, not the movement rate
		require.Len(t, repo.entries, 2)
		assert.Equal(t, entity.EntryTypeIssue, repo.entries[1].EntryType)
		assert.True(t, repo.entries[1].UnitRate.Equal(types.MustMoney("350")))
	})

	t.Run("over-issue clamps the balance at zero", func(t *testing.T) {
		repo := newMemRepo()
		svc := NewService(repo)
		siteID, itemID := id.New(), id.New()

		_, err := svc.Receive(context.Background(), movement(siteID, itemID, qty(10), "350"))
		require.NoError(t, err)

		balance, err := svc.Issue(context.Background(), movement(siteID, itemID, qty(15), "0"))
		require.NoError(t, err)
		assert.Equal(t, types.Quantity(0), balance.ClosingStock)
	})
}

func TestCheckAvailability(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	siteID, itemID := id.New(), id.New()

	_, err := svc.Receive(context.Background(), movement(siteID, itemID, qty(30), "350"))
	require.NoError(t, err)

	assert.NoError(t, svc.CheckAvailability(context.Background(), siteID, itemID, qty(30)))

	err = svc.CheckAvailability(context.Background(), siteID, itemID, qty(31))
	assert.Equal(t, apperror.CodeInsufficientStock, errCode(t, err))

	// no stock at all
	err = svc.CheckAvailability(context.Background(), siteID, id.New(), qty(1))
	assert.Equal(t, apperror.CodeInsufficientStock, errCode(t, err))
}

func TestBatchMovements(t *testing.T) {
	expiry := time.Date(2026, time.December, 31, 0, 0, 0, 0, time.UTC)

	batchMovement := func(siteID, itemID id.ID, q types.Quantity, rate, batchNumber string, exp time.Time) Movement {
		m := movement(siteID, itemID, q, rate)
		m.BatchNumber = batchNumber
		m.ExpiryDate = exp
		return m
	}

	t.Run("batch receipt mirrors the site balance", func(t *testing.T) {
		repo := newMemRepo()
		svc := NewService(repo)
		siteID, itemID := id.New(), id.New()

		_, err := svc.Receive(context.Background(), batchMovement(siteID, itemID, qty(20), "120", "LOT-A", expiry))
		require.NoError(t, err)

		batch, found, _ := repo.GetBatchForUpdate(context.Background(), siteID, itemID, "LOT-A")
		require.True(t, found)
		assert.Equal(t, qty(20), batch.ClosingQty)
		assert.True(t, batch.ExpiryDate.Equal(expiry))
	})

	t.Run("same batch number with another expiry is rejected", func(t *testing.T) {
		repo := newMemRepo()
		svc := NewService(repo)
		siteID, itemID := id.New(), id.New()

		_, err := svc.Receive(context.Background(), batchMovement(siteID, itemID, qty(20), "120", "LOT-A", expiry))
		require.NoError(t, err)

		_, err = svc.Receive(context.Background(),
			batchMovement(siteID, itemID, qty(5), "120", "LOT-A", expiry.AddDate(0, 1, 0)))
		assert.Equal(t, apperror.CodeBatchExpiryConflict, errCode(t, err))
	})

	t.Run("same day different clock time is the same expiry", func(t *testing.T) {
		repo := newMemRepo()
		svc := NewService(repo)
		siteID, itemID := id.New(), id.New()

		_, err := svc.Receive(context.Background(), batchMovement(siteID, itemID, qty(20), "120", "LOT-A", expiry))
		require.NoError(t, err)

		_, err = svc.Receive(context.Background(),
			batchMovement(siteID, itemID, qty(5), "120", "LOT-A", expiry.Add(6*time.Hour)))
		require.NoError(t, err)

		batch, _, _ := repo.GetBatchForUpdate(context.Background(), siteID, itemID, "LOT-A")
		assert.Equal(t, qty(25), batch.ClosingQty)
	})

	t.Run("issue from an unknown batch", func(t *testing.T) {
		repo := newMemRepo()
		svc := NewService(repo)
		siteID, itemID := id.New(), id.New()

		_, err := svc.Receive(context.Background(), movement(siteID, itemID, qty(20), "120"))
		require.NoError(t, err)

		_, err = svc.Issue(context.Background(), batchMovement(siteID, itemID, qty(5), "0", "LOT-X", expiry))
		assert.Equal(t, apperror.CodeValidation, errCode(t, err))
	})

	t.Run("issue beyond the batch quantity", func(t *testing.T) {
		repo := newMemRepo()
		svc := NewService(repo)
		siteID, itemID := id.New(), id.New()

		_, err := svc.Receive(context.Background(), batchMovement(siteID, itemID, qty(20), "120", "LOT-A", expiry))
		require.NoError(t, err)
		// the site balance is bigger than the batch
		_, err = svc.Receive(context.Background(), movement(siteID, itemID, qty(50), "120"))
		require.NoError(t, err)

		_, err = svc.Issue(context.Background(), batchMovement(siteID, itemID, qty(25), "0", "LOT-A", expiry))
		assert.Equal(t, apperror.CodeInsufficientStock, errCode(t, err))
	})
}

func TestItemAvailability(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	itemID := id.New()

	_, err := svc.Receive(context.Background(), movement(id.New(), itemID, qty(30), "350"))
	require.NoError(t, err)
	_, err = svc.Receive(context.Background(), movement(id.New(), itemID, qty(20), "360"))
	require.NoError(t, err)

	total, err := svc.GetItemAvailability(context.Background(), itemID)
	require.NoError(t, err)
	assert.Equal(t, qty(50), total)
}

func TestGetSiteStock(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	siteID := id.New()

	itemA, itemB := id.New(), id.New()
	_, err := svc.Receive(context.Background(), movement(siteID, itemA, qty(30), "350"))
	require.NoError(t, err)
	_, err = svc.Receive(context.Background(), movement(siteID, itemB, qty(10), "40"))
	require.NoError(t, err)
	// itemB fully issued, drops out of the site view
	_, err = svc.Issue(context.Background(), movement(siteID, itemB, qty(10), "0"))
	require.NoError(t, err)

	balances, err := svc.GetSiteStock(context.Background(), siteID)
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.Equal(t, itemA, balances[0].ItemID)
}
