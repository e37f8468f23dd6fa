package ports

import (
	"context"

	"github.com/larriantoniy/tg_sales_bot/internal/domain"
)

// LeadDispatcher отправляет заявку во внешнюю CRM. Повторов не делает.
type LeadDispatcher interface {
	Dispatch(ctx context.Context, lead domain.LeadRecord) domain.DispatchResult
}

// OwnerNotifier сообщает менеджеру о новой заявке
type OwnerNotifier interface {
	NotifyLead(ctx context.Context, lead domain.LeadRecord) error
}
