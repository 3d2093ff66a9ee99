// Package challan provides the OutwardChallan document: an inter-site
// stock transfer that moves through draft, approved and accepted states.
package challan

import (
	"context"
	"time"

	"sitestock/internal/core/apperror"
	"sitestock/internal/core/entity"
	"sitestock/internal/core/id"
	"sitestock/internal/core/types"
)

// Status is the lifecycle state of an outward challan.
type Status string

const (
	// StatusDraft is the initial state. Quantities are editable,
	// no stock has moved.
	StatusDraft Status = "draft"

	// StatusApproved means an approver confirmed the quantities.
	// Still no stock movement.
	StatusApproved Status = "approved"

	// StatusAccepted is terminal. Stock has been issued at the source
	// site and received at the destination site.
	StatusAccepted Status = "accepted"
)

// CanTransitionTo reports whether the status machine allows moving
// from s to target. The machine is strictly linear:
// draft -> approved -> accepted.
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusDraft:
		return target == StatusApproved
	case StatusApproved:
		return target == StatusAccepted
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return s == StatusAccepted
}

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusApproved, StatusAccepted:
		return true
	}
	return false
}

// OutwardChallan represents an outward delivery challan document.
// It transfers stock from one site to another; the transfer only hits
// the stock register when the receiving side accepts.
type OutwardChallan struct {
	entity.Document

	// FromSiteID is the issuing (source) site
	FromSiteID id.ID `db:"from_site_id" json:"fromSiteId"`

	// ToSiteID is the receiving (destination) site
	ToSiteID id.ID `db:"to_site_id" json:"toSiteId"`

	// VehicleNumber is the dispatch vehicle, free text
	VehicleNumber string `db:"vehicle_number" json:"vehicleNumber,omitempty"`

	Status Status `db:"status" json:"status"`

	ApprovedBy string     `db:"approved_by" json:"approvedBy,omitempty"`
	ApprovedAt *time.Time `db:"approved_at" json:"approvedAt,omitempty"`
	AcceptedBy string     `db:"accepted_by" json:"acceptedBy,omitempty"`
	AcceptedAt *time.Time `db:"accepted_at" json:"acceptedAt,omitempty"`

	// Table part: transferred items
	Lines []ChallanLine `db:"-" json:"lines"`
}

// ChallanLine represents one transferred item on a challan.
// Quantity is the canonical quantity for the line's current stage:
// it equals ChallanQty in draft, ApprovedQty after approval and
// ReceivedQty after acceptance.
type ChallanLine struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ItemID id.ID `db:"item_id" json:"itemId"`

	ChallanQty  types.Quantity `db:"challan_qty" json:"challanQty"`
	ApprovedQty types.Quantity `db:"approved_qty" json:"approvedQty"`
	ReceivedQty types.Quantity `db:"received_qty" json:"receivedQty"`
	Quantity    types.Quantity `db:"quantity" json:"quantity"`

	// ExpiryTracked is copied from the item catalog at creation time so
	// acceptance can enforce batch detail without a catalog round trip.
	ExpiryTracked bool `db:"expiry_tracked" json:"expiryTracked"`

	// Batches hold the batch split recorded at acceptance. Only populated
	// for expiry-tracked items.
	Batches []ChallanLineBatch `db:"-" json:"batches,omitempty"`
}

// ChallanLineBatch is one batch split of an accepted challan line.
type ChallanLineBatch struct {
	BatchID id.ID `db:"batch_id" json:"batchId"`
	LineID  id.ID `db:"line_id" json:"lineId"`

	BatchNumber string         `db:"batch_number" json:"batchNumber"`
	ExpiryDate  time.Time      `db:"expiry_date" json:"expiryDate"`
	Quantity    types.Quantity `db:"quantity" json:"quantity"`
}

// NewOutwardChallan creates a draft challan between two sites.
func NewOutwardChallan(fromSiteID, toSiteID id.ID) *OutwardChallan {
	return &OutwardChallan{
		Document:   entity.NewDocument(),
		FromSiteID: fromSiteID,
		ToSiteID:   toSiteID,
		Status:     StatusDraft,
		Lines:      make([]ChallanLine, 0),
	}
}

// AddLine appends a line with the requested dispatch quantity.
func (c *OutwardChallan) AddLine(itemID id.ID, qty types.Quantity) {
	c.Lines = append(c.Lines, ChallanLine{
		LineID:     id.New(),
		LineNo:     len(c.Lines) + 1,
		ItemID:     itemID,
		ChallanQty: qty,
		Quantity:   qty,
	})
}

// LineByID returns a pointer into Lines for the given line id.
func (c *OutwardChallan) LineByID(lineID id.ID) *ChallanLine {
	for i := range c.Lines {
		if c.Lines[i].LineID == lineID {
			return &c.Lines[i]
		}
	}
	return nil
}

// TotalQuantity sums the canonical quantity over all lines.
func (c *OutwardChallan) TotalQuantity() types.Quantity {
	var total types.Quantity
	for _, line := range c.Lines {
		total += line.Quantity
	}
	return total
}

// CanModify returns an error unless the challan is still a draft.
func (c *OutwardChallan) CanModify() error {
	if c.Status != StatusDraft {
		return apperror.NewInvalidState(string(c.Status), "modify").
			WithDetail("challan_id", c.ID)
	}
	return nil
}

// Validate implements entity.Validatable.
func (c *OutwardChallan) Validate(ctx context.Context) error {
	if err := c.Document.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(c.FromSiteID) {
		return apperror.NewValidation("source site is required").
			WithDetail("field", "fromSiteId")
	}
	if id.IsNil(c.ToSiteID) {
		return apperror.NewValidation("destination site is required").
			WithDetail("field", "toSiteId")
	}
	if c.FromSiteID == c.ToSiteID {
		return apperror.NewValidation("source and destination sites must differ").
			WithDetail("site_id", c.FromSiteID)
	}

	if !c.Status.Valid() {
		return apperror.NewValidation("unknown challan status").
			WithDetail("status", string(c.Status))
	}

	if len(c.Lines) == 0 {
		return apperror.NewValidation("challan requires at least one line")
	}

	seen := make(map[id.ID]bool, len(c.Lines))
	for _, line := range c.Lines {
		if id.IsNil(line.ItemID) {
			return apperror.NewValidation("line item is required").
				WithDetail("line_no", line.LineNo)
		}
		if seen[line.ItemID] {
			return apperror.NewValidation("duplicate item on challan").
				WithDetail("item_id", line.ItemID)
		}
		seen[line.ItemID] = true

		if !line.ChallanQty.IsPositive() {
			return apperror.NewValidation("line quantity must be positive").
				WithDetail("line_no", line.LineNo)
		}
	}

	return nil
}
