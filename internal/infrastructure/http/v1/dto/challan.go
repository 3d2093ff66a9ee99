package dto

import (
	"time"

	"sitestock/internal/core/id"
	"sitestock/internal/core/types"
	"sitestock/internal/domain/documents/challan"
)

// --- Outward Delivery Challan ---

// ChallanLineRequest is a single requested line.
type ChallanLineRequest struct {
	ItemID   id.ID          `json:"itemId" binding:"required"`
	Quantity types.Quantity `json:"quantity"`
}

// CreateChallanRequest for creating delivery challans.
type CreateChallanRequest struct {
	FromSiteID    id.ID                `json:"fromSiteId" binding:"required"`
	ToSiteID      id.ID                `json:"toSiteId" binding:"required"`
	VehicleNumber string               `json:"vehicleNumber"`
	Date          *time.Time           `json:"date"`
	Comment       string               `json:"comment"`
	Lines         []ChallanLineRequest `json:"lines" binding:"required,min=1"`
}

// ToEntity converts the request to an OutwardChallan draft.
func (r CreateChallanRequest) ToEntity() *challan.OutwardChallan {
	doc := challan.NewOutwardChallan(r.FromSiteID, r.ToSiteID)
	doc.VehicleNumber = r.VehicleNumber
	doc.Comment = r.Comment
	if r.Date != nil {
		doc.Date = *r.Date
	}
	for _, l := range r.Lines {
		doc.AddLine(l.ItemID, l.Quantity)
	}
	return doc
}

// UpdateChallanRequest for updating draft challans.
type UpdateChallanRequest struct {
	VehicleNumber *string              `json:"vehicleNumber"`
	Date          *time.Time           `json:"date"`
	Comment       *string              `json:"comment"`
	Lines         []ChallanLineRequest `json:"lines"`
	Version       int                  `json:"version" binding:"required,min=1"`
}

// ApplyTo merges the request into an existing draft.
func (r UpdateChallanRequest) ApplyTo(doc *challan.OutwardChallan) {
	if r.VehicleNumber != nil {
		doc.VehicleNumber = *r.VehicleNumber
	}
	if r.Date != nil {
		doc.Date = *r.Date
	}
	if r.Comment != nil {
		doc.Comment = *r.Comment
	}
	if r.Lines != nil {
		doc.Lines = nil
		for _, l := range r.Lines {
			doc.AddLine(l.ItemID, l.Quantity)
		}
	}
	doc.Version = r.Version
}

// --- Approve ---

// ApproveLineRequest carries the approved quantity for one line.
type ApproveLineRequest struct {
	LineID   id.ID          `json:"lineId" binding:"required"`
	Quantity types.Quantity `json:"quantity"`
}

// ApproveChallanRequest for the draft to approved transition.
type ApproveChallanRequest struct {
	Lines []ApproveLineRequest `json:"lines" binding:"required,min=1"`
}

// ToApprovals converts the request to service input.
func (r ApproveChallanRequest) ToApprovals() []challan.LineApproval {
	approvals := make([]challan.LineApproval, 0, len(r.Lines))
	for _, l := range r.Lines {
		approvals = append(approvals, challan.LineApproval{
			LineID:   l.LineID,
			Quantity: l.Quantity,
		})
	}
	return approvals
}

// --- Accept ---

// BatchReceiptRequest identifies one received batch.
type BatchReceiptRequest struct {
	BatchNumber string         `json:"batchNumber" binding:"required"`
	ExpiryDate  time.Time      `json:"expiryDate" binding:"required"`
	Quantity    types.Quantity `json:"quantity"`
}

// AcceptLineRequest carries the received quantity and batch split for one line.
type AcceptLineRequest struct {
	LineID   id.ID                 `json:"lineId" binding:"required"`
	Quantity types.Quantity        `json:"quantity"`
	Batches  []BatchReceiptRequest `json:"batches"`
}

// AcceptChallanRequest for the approved to accepted transition.
type AcceptChallanRequest struct {
	Lines []AcceptLineRequest `json:"lines" binding:"required,min=1"`
}

// ToAcceptances converts the request to service input.
func (r AcceptChallanRequest) ToAcceptances() []challan.LineAcceptance {
	acceptances := make([]challan.LineAcceptance, 0, len(r.Lines))
	for _, l := range r.Lines {
		a := challan.LineAcceptance{
			LineID:   l.LineID,
			Quantity: l.Quantity,
		}
		for _, b := range l.Batches {
			a.Batches = append(a.Batches, challan.BatchReceipt{
				BatchNumber: b.BatchNumber,
				ExpiryDate:  b.ExpiryDate,
				Quantity:    b.Quantity,
			})
		}
		acceptances = append(acceptances, a)
	}
	return acceptances
}
