package domain

import (
	"time"

	"github.com/google/uuid"
)

// LeadSource — метка источника заявки для CRM.
const LeadSource = "telegram_bot"

// LeadRecord — заявка, которая уходит в CRM. После отправки нигде не хранится.
type LeadRecord struct {
	ID               uuid.UUID
	UserID           int64
	Phone            PhoneNumber
	Source           string
	RecommendedItems []CatalogItem
	CreatedAt        time.Time
}

// NewLeadRecord копирует рекомендации, чтобы заявку можно было отдавать в другие горутины.
func NewLeadRecord(userID int64, phone PhoneNumber, items []CatalogItem, now time.Time) LeadRecord {
	cp := make([]CatalogItem, len(items))
	copy(cp, items)
	return LeadRecord{
		ID:               uuid.New(),
		UserID:           userID,
		Phone:            phone,
		Source:           LeadSource,
		RecommendedItems: cp,
		CreatedAt:        now,
	}
}

func (l LeadRecord) ItemNames() []string {
	names := make([]string, 0, len(l.RecommendedItems))
	for _, it := range l.RecommendedItems {
		names = append(names, it.Name)
	}
	return names
}

type DispatchStatus int

const (
	DispatchFailed DispatchStatus = iota
	DispatchDelivered
)

// DispatchResult — итог отправки заявки: доставлена или нет (с причиной).
type DispatchResult struct {
	Status DispatchStatus
	Reason string
}

func Delivered() DispatchResult {
	return DispatchResult{Status: DispatchDelivered}
}

func Failed(reason string) DispatchResult {
	return DispatchResult{Status: DispatchFailed, Reason: reason}
}

func (r DispatchResult) OK() bool { return r.Status == DispatchDelivered }

func (r DispatchResult) String() string {
	if r.OK() {
		return "delivered"
	}
	return "failed: " + r.Reason
}
