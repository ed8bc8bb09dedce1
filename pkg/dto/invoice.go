package dto

import "github.com/shopspring/decimal"

type CreateInvoiceRequest struct {
	ClientID string           `json:"client_id" validate:"required,uuid"`
	DueDate  string           `json:"due_date" validate:"required,datetime=2006-01-02"`
	TaxRate  *decimal.Decimal `json:"tax_rate"`
	Currency string           `json:"currency" validate:"omitempty,len=3,alpha"`
}

type AddInvoiceItemRequest struct {
	Description string           `json:"description" validate:"required,max=500"`
	Quantity    *decimal.Decimal `json:"quantity" validate:"required"`
	UnitPrice   *decimal.Decimal `json:"unit_price" validate:"required"`
}

type AddTimeEntriesRequest struct {
	TimeEntryIDs []string `json:"time_entry_ids" validate:"required,min=1,dive,uuid"`
}

type UpdateInvoiceStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=DRAFT SENT PAID OVERDUE CANCELLED"`
}
