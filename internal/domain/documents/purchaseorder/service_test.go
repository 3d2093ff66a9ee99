package purchaseorder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitestock/internal/core/apperror"
	"sitestock/internal/core/appctx"
	"sitestock/internal/core/id"
	"sitestock/internal/core/types"
	"sitestock/internal/domain"
	"sitestock/internal/domain/catalogs/site"
	"sitestock/pkg/numerator"
)

func qty(v float64) types.Quantity {
	return types.NewQuantityFromFloat64(v)
}

type stubTx struct{}

func (stubTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memRepo struct {
	docs  map[id.ID]PurchaseOrder
	lines map[id.ID][]PurchaseOrderLine

	// conflictsLeft makes the next N Create calls fail the way the unique
	// index on number would.
	conflictsLeft int
	createCalls   int
}

func newMemRepo() *memRepo {
	return &memRepo{
		docs:  make(map[id.ID]PurchaseOrder),
		lines: make(map[id.ID][]PurchaseOrderLine),
	}
}

func (r *memRepo) Create(_ context.Context, doc *PurchaseOrder) error {
	r.createCalls++
	if r.conflictsLeft > 0 {
		r.conflictsLeft--
		return apperror.NewConflict("duplicate document number").
			WithDetail("number", doc.Number)
	}
	stored := *doc
	stored.Lines = nil
	r.docs[doc.ID] = stored
	return nil
}

func (r *memRepo) GetByID(_ context.Context, docID id.ID) (*PurchaseOrder, error) {
	stored, ok := r.docs[docID]
	if !ok || stored.DeletionMark {
		return nil, apperror.NewNotFound("purchase order", docID)
	}
	doc := stored
	return &doc, nil
}

func (r *memRepo) GetByNumber(_ context.Context, number string) (*PurchaseOrder, error) {
	for _, stored := range r.docs {
		if stored.Number == number && !stored.DeletionMark {
			doc := stored
			return &doc, nil
		}
	}
	return nil, apperror.NewNotFound("purchase order", number)
}

func (r *memRepo) Update(_ context.Context, doc *PurchaseOrder) error {
	if _, ok := r.docs[doc.ID]; !ok {
		return apperror.NewNotFound("purchase order", doc.ID)
	}
	stored := *doc
	stored.Lines = nil
	r.docs[doc.ID] = stored
	return nil
}

func (r *memRepo) Delete(_ context.Context, docID id.ID) error {
	stored, ok := r.docs[docID]
	if !ok {
		return apperror.NewNotFound("purchase order", docID)
	}
	stored.DeletionMark = true
	r.docs[docID] = stored
	return nil
}

func (r *memRepo) GetLines(_ context.Context, docID id.ID) ([]PurchaseOrderLine, error) {
	return append([]PurchaseOrderLine(nil), r.lines[docID]...), nil
}

func (r *memRepo) SaveLines(_ context.Context, docID id.ID, lines []PurchaseOrderLine) error {
	r.lines[docID] = append([]PurchaseOrderLine(nil), lines...)
	return nil
}

func (r *memRepo) List(_ context.Context, _ ListFilter) (domain.ListResult[*PurchaseOrder], error) {
	return domain.ListResult[*PurchaseOrder]{}, nil
}

func (r *memRepo) GetForUpdate(ctx context.Context, docID id.ID) (*PurchaseOrder, error) {
	return r.GetByID(ctx, docID)
}

type linkCall struct {
	indentID     id.ID
	indentItemID id.ID
	orderLineID  id.ID
}

type memIndentRepo struct {
	items map[id.ID][]IndentItem
	calls []linkCall
}

func newMemIndentRepo() *memIndentRepo {
	return &memIndentRepo{items: make(map[id.ID][]IndentItem)}
}

func (r *memIndentRepo) GetItems(_ context.Context, indentID id.ID) ([]IndentItem, error) {
	return r.items[indentID], nil
}

func (r *memIndentRepo) LinkToOrderLine(_ context.Context, indentID, indentItemID, orderLineID id.ID) (bool, error) {
	r.calls = append(r.calls, linkCall{indentID, indentItemID, orderLineID})
	for i := range r.items[indentID] {
		if r.items[indentID][i].ID == indentItemID {
			r.items[indentID][i].PurchaseOrderLineID = &orderLineID
			return true, nil
		}
	}
	return false, nil
}

type memSiteRepo struct {
	sites map[id.ID]*site.Site
}

func (r *memSiteRepo) Create(_ context.Context, s *site.Site) error {
	r.sites[s.ID] = s
	return nil
}

func (r *memSiteRepo) GetByID(_ context.Context, siteID id.ID) (*site.Site, error) {
	if s, ok := r.sites[siteID]; ok {
		return s, nil
	}
	return nil, apperror.NewNotFound("site", siteID)
}

func (r *memSiteRepo) GetByCode(_ context.Context, code string) (*site.Site, error) {
	for _, s := range r.sites {
		if s.Code == code {
			return s, nil
		}
	}
	return nil, apperror.NewNotFound("site", code)
}

func (r *memSiteRepo) Update(_ context.Context, s *site.Site) error {
	r.sites[s.ID] = s
	return nil
}

func (r *memSiteRepo) Delete(_ context.Context, siteID id.ID) error {
	delete(r.sites, siteID)
	return nil
}

func (r *memSiteRepo) List(_ context.Context, _ domain.ListFilter) (domain.ListResult[*site.Site], error) {
	return domain.ListResult[*site.Site]{}, nil
}

func (r *memSiteRepo) ExistsByCode(_ context.Context, code string) (bool, error) {
	for _, s := range r.sites {
		if s.Code == code {
			return true, nil
		}
	}
	return false, nil
}

type fixture struct {
	svc     *Service
	repo    *memRepo
	indents *memIndentRepo
	site    *site.Site
}

func newFixture() *fixture {
	st := site.NewSite("MUM01", "Mumbai Site")
	repo := newMemRepo()
	indents := newMemIndentRepo()
	sites := &memSiteRepo{sites: map[id.ID]*site.Site{st.ID: st}}

	svc := NewService(repo, indents, sites, numerator.NewMock(), stubTx{}, "DCTPL")
	return &fixture{svc: svc, repo: repo, indents: indents, site: st}
}

func userCtx(userID string) context.Context {
	return appctx.WithUser(context.Background(), &appctx.UserContext{UserID: userID})
}

func errCode(t *testing.T, err error) string {
	t.Helper()
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	return appErr.Code
}

func draftOrder(siteID id.ID) *PurchaseOrder {
	doc := NewPurchaseOrder(siteID, "ACC Cement Distributors")
	doc.Lines = append(doc.Lines, PurchaseOrderLine{
		ItemID:   id.New(),
		Quantity: qty(100),
		Rate:     types.MustMoney("350"),
		Amount:   types.MustMoney("35000"),
	})
	return doc
}

func TestServiceCreate(t *testing.T) {
	t.Run("numbers and persists the order", func(t *testing.T) {
		f := newFixture()
		doc := draftOrder(f.site.ID)
		doc.Lines = append(doc.Lines, PurchaseOrderLine{
			ItemID:   id.New(),
			Quantity: qty(20),
			Rate:     types.MustMoney("1200"),
			Amount:   types.MustMoney("24000"),
		})

		require.NoError(t, f.svc.Create(userCtx("alice"), doc))

		assert.Equal(t, StatusDraft, doc.ApprovalStatus)
		assert.Equal(t, "alice", doc.CreatedBy)
		assert.Equal(t, int64(1), numerator.ParseSequence(doc.Number))
		assert.Contains(t, doc.Number, "/MUM01/")

		assert.Equal(t, 1, doc.Lines[0].SerialNo)
		assert.Equal(t, 2, doc.Lines[1].SerialNo)
		assert.False(t, id.IsNil(doc.Lines[0].LineID))

		saved, err := f.svc.GetByID(context.Background(), doc.ID)
		require.NoError(t, err)
		assert.Len(t, saved.Lines, 2)
	})

	t.Run("sequential numbers per site", func(t *testing.T) {
		f := newFixture()

		first := draftOrder(f.site.ID)
		require.NoError(t, f.svc.Create(userCtx("alice"), first))
		second := draftOrder(f.site.ID)
		require.NoError(t, f.svc.Create(userCtx("alice"), second))

		assert.Equal(t, int64(1), numerator.ParseSequence(first.Number))
		assert.Equal(t, int64(2), numerator.ParseSequence(second.Number))
	})

	t.Run("site without code", func(t *testing.T) {
		f := newFixture()
		f.site.Code = ""

		err := f.svc.Create(userCtx("alice"), draftOrder(f.site.ID))
		assert.Equal(t, apperror.CodeSiteCodeMissing, errCode(t, err))
	})

	t.Run("supplier required", func(t *testing.T) {
		f := newFixture()
		doc := draftOrder(f.site.ID)
		doc.SupplierName = ""

		err := f.svc.Create(userCtx("alice"), doc)
		assert.Equal(t, apperror.CodeValidation, errCode(t, err))
	})

	t.Run("number collision retried once", func(t *testing.T) {
		f := newFixture()
		f.repo.conflictsLeft = 1

		doc := draftOrder(f.site.ID)
		require.NoError(t, f.svc.Create(userCtx("alice"), doc))

		// the retry drew a fresh number
		assert.Equal(t, int64(2), numerator.ParseSequence(doc.Number))
		assert.Equal(t, 2, f.repo.createCalls)
	})

	t.Run("persistent collision surfaces as conflict", func(t *testing.T) {
		f := newFixture()
		f.repo.conflictsLeft = 2

		err := f.svc.Create(userCtx("alice"), draftOrder(f.site.ID))
		assert.Equal(t, apperror.CodeConflict, errCode(t, err))
		assert.Equal(t, 2, f.repo.createCalls)
	})
}

func TestServiceCreateIndentLinks(t *testing.T) {
	t.Run("back-links fulfilled requisition lines", func(t *testing.T) {
		f := newFixture()
		indentID := id.New()
		indentItem := IndentItem{ID: id.New(), IndentID: indentID, ItemID: id.New(), Quantity: qty(100)}
		f.indents.items[indentID] = []IndentItem{indentItem}

		doc := NewPurchaseOrder(f.site.ID, "ACC Cement Distributors")
		doc.IndentID = &indentID
		doc.Lines = append(doc.Lines, PurchaseOrderLine{
			ItemID:       indentItem.ItemID,
			Quantity:     qty(100),
			Rate:         types.MustMoney("350"),
			IndentItemID: &indentItem.ID,
		})

		require.NoError(t, f.svc.Create(userCtx("alice"), doc))

		require.Len(t, f.indents.calls, 1)
		assert.Equal(t, indentID, f.indents.calls[0].indentID)
		assert.Equal(t, doc.Lines[0].LineID, f.indents.calls[0].orderLineID)

		items, _ := f.indents.GetItems(context.Background(), indentID)
		require.NotNil(t, items[0].PurchaseOrderLineID)
		assert.Equal(t, doc.Lines[0].LineID, *items[0].PurchaseOrderLineID)
	})

	t.Run("stale reference does not fail the order", func(t *testing.T) {
		f := newFixture()
		indentID := id.New()
		staleItemID := id.New()

		doc := NewPurchaseOrder(f.site.ID, "ACC Cement Distributors")
		doc.IndentID = &indentID
		doc.Lines = append(doc.Lines, PurchaseOrderLine{
			ItemID:       id.New(),
			Quantity:     qty(10),
			Rate:         types.MustMoney("500"),
			IndentItemID: &staleItemID,
		})

		require.NoError(t, f.svc.Create(userCtx("alice"), doc))
		assert.Len(t, f.indents.calls, 1)
	})

	t.Run("indent item reference requires an indent", func(t *testing.T) {
		f := newFixture()
		orphan := id.New()

		doc := NewPurchaseOrder(f.site.ID, "ACC Cement Distributors")
		doc.Lines = append(doc.Lines, PurchaseOrderLine{
			ItemID:       id.New(),
			Quantity:     qty(10),
			Rate:         types.MustMoney("500"),
			IndentItemID: &orphan,
		})

		err := f.svc.Create(userCtx("alice"), doc)
		assert.Equal(t, apperror.CodeValidation, errCode(t, err))
	})
}

func TestServiceApprove(t *testing.T) {
	t.Run("second user approves", func(t *testing.T) {
		f := newFixture()
		doc := draftOrder(f.site.ID)
		require.NoError(t, f.svc.Create(userCtx("alice"), doc))

		approved, err := f.svc.Approve(userCtx("bob"), doc.ID)
		require.NoError(t, err)

		assert.Equal(t, StatusApproved, approved.ApprovalStatus)
		assert.Equal(t, "bob", approved.ApprovedBy)
		require.NotNil(t, approved.ApprovedAt)
	})

	t.Run("creator cannot approve", func(t *testing.T) {
		f := newFixture()
		doc := draftOrder(f.site.ID)
		require.NoError(t, f.svc.Create(userCtx("alice"), doc))

		_, err := f.svc.Approve(userCtx("alice"), doc.ID)
		assert.Equal(t, apperror.CodeForbidden, errCode(t, err))
	})

	t.Run("anonymous cannot approve", func(t *testing.T) {
		f := newFixture()
		doc := draftOrder(f.site.ID)
		require.NoError(t, f.svc.Create(userCtx("alice"), doc))

		_, err := f.svc.Approve(context.Background(), doc.ID)
		assert.Equal(t, apperror.CodeUnauthorized, errCode(t, err))
	})

	t.Run("approved order cannot be approved again", func(t *testing.T) {
		f := newFixture()
		doc := draftOrder(f.site.ID)
		require.NoError(t, f.svc.Create(userCtx("alice"), doc))

		_, err := f.svc.Approve(userCtx("bob"), doc.ID)
		require.NoError(t, err)

		_, err = f.svc.Approve(userCtx("carol"), doc.ID)
		assert.Equal(t, apperror.CodeInvalidState, errCode(t, err))
	})
}

func TestServiceDelete(t *testing.T) {
	t.Run("draft can be deleted", func(t *testing.T) {
		f := newFixture()
		doc := draftOrder(f.site.ID)
		require.NoError(t, f.svc.Create(userCtx("alice"), doc))

		require.NoError(t, f.svc.Delete(userCtx("alice"), doc.ID))

		_, err := f.svc.GetByID(context.Background(), doc.ID)
		assert.Equal(t, apperror.CodeNotFound, errCode(t, err))
	})

	t.Run("approved order is kept", func(t *testing.T) {
		f := newFixture()
		doc := draftOrder(f.site.ID)
		require.NoError(t, f.svc.Create(userCtx("alice"), doc))
		_, err := f.svc.Approve(userCtx("bob"), doc.ID)
		require.NoError(t, err)

		err = f.svc.Delete(userCtx("alice"), doc.ID)
		assert.Equal(t, apperror.CodeInvalidState, errCode(t, err))
	})
}
