package ledger

import (
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/grantledger/internal/budget"
	"github.com/MrJamesThe3rd/grantledger/internal/category"
)

type itemResponse struct {
	ID          uuid.UUID         `json:"id"`
	GrantID     uuid.UUID         `json:"grant_id"`
	Description string            `json:"description"`
	Category    category.Category `json:"category"`
	Price       int64             `json:"price"`
	Status      budget.Status     `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   *time.Time        `json:"updated_at,omitempty"`
}

type transactionResponse struct {
	ID           uuid.UUID `json:"id"`
	BudgetItemID uuid.UUID `json:"budget_item_id"`
	GrantID      uuid.UUID `json:"grant_id"`
	Amount       int64     `json:"amount"`
	Description  string    `json:"description"`
	HasProof     bool      `json:"has_proof"`
	SubmittedBy  string    `json:"submitted_by,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type warningResponse struct {
	Allocated int64  `json:"allocated"`
	Spent     int64  `json:"spent"`
	Over      int64  `json:"over"`
	Message   string `json:"message"`
}

type recordResponse struct {
	Transaction transactionResponse `json:"transaction"`
	Item        itemResponse        `json:"item"`
	Warning     *warningResponse    `json:"warning,omitempty"`
}

type checkResponse struct {
	WouldExceed bool             `json:"would_exceed"`
	Warning     *warningResponse `json:"warning,omitempty"`
}

type reconcileResponse struct {
	Item    itemResponse `json:"item"`
	Changed bool         `json:"changed"`
}

type categoryResponse struct {
	Category  category.Category `json:"category"`
	Planned   int64             `json:"planned"`
	Spent     int64             `json:"spent"`
	Remaining int64             `json:"remaining"`
	Items     int               `json:"items"`
}

type balanceResponse struct {
	Item      itemResponse `json:"item"`
	Spent     int64        `json:"spent"`
	Remaining int64        `json:"remaining"`
}

type summaryResponse struct {
	GrantID    uuid.UUID             `json:"grant_id"`
	Planned    int64                 `json:"planned"`
	Spent      int64                 `json:"spent"`
	Remaining  int64                 `json:"remaining"`
	Categories []categoryResponse    `json:"categories"`
	Items      []balanceResponse     `json:"items"`
	ByStatus   map[budget.Status]int `json:"by_status"`
}

func toItemResponse(item *budget.Item) itemResponse {
	return itemResponse{
		ID:          item.ID,
		GrantID:     item.GrantID,
		Description: item.Description,
		Category:    item.Category,
		Price:       item.Price,
		Status:      item.Status,
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}
}

func toItemResponseList(items []*budget.Item) []itemResponse {
	resp := make([]itemResponse, len(items))
	for i, item := range items {
		resp[i] = toItemResponse(item)
	}

	return resp
}

func toTransactionResponse(tx *budget.Transaction) transactionResponse {
	return transactionResponse{
		ID:           tx.ID,
		BudgetItemID: tx.BudgetItemID,
		GrantID:      tx.GrantID,
		Amount:       tx.Amount,
		Description:  tx.Description,
		HasProof:     tx.ProofRef != "",
		SubmittedBy:  tx.SubmittedBy,
		CreatedAt:    tx.CreatedAt,
	}
}

func toTransactionResponseList(txs []*budget.Transaction) []transactionResponse {
	resp := make([]transactionResponse, len(txs))
	for i, tx := range txs {
		resp[i] = toTransactionResponse(tx)
	}

	return resp
}

func toWarningResponse(w *budget.OverspendWarning) *warningResponse {
	if w == nil {
		return nil
	}

	return &warningResponse{
		Allocated: w.Allocated,
		Spent:     w.Spent,
		Over:      w.Over(),
		Message:   w.String(),
	}
}

func toSummaryResponse(s *budget.GrantSummary) summaryResponse {
	resp := summaryResponse{
		GrantID:    s.GrantID,
		Planned:    s.Planned,
		Spent:      s.Spent,
		Remaining:  s.Remaining,
		Categories: make([]categoryResponse, 0, len(s.Categories)),
		Items:      make([]balanceResponse, 0, len(s.Items)),
		ByStatus:   s.ByStatus,
	}

	for _, c := range s.Categories {
		resp.Categories = append(resp.Categories, categoryResponse{
			Category:  c.Category,
			Planned:   c.Planned,
			Spent:     c.Spent,
			Remaining: c.Remaining,
			Items:     c.Items,
		})
	}

	for _, b := range s.Items {
		resp.Items = append(resp.Items, balanceResponse{
			Item:      toItemResponse(b.Item),
			Spent:     b.Spent,
			Remaining: b.Remaining,
		})
	}

	return resp
}
