package bookings

import (
	"time"

	"github.com/glossly/booking-service/internal/domain"
	"github.com/glossly/booking-service/internal/integrations/providerconfig"
)

// refundForCancellation вычисляет сумму возврата по политике отмены
// провайдера.
//
// Отмена провайдером всегда возвращает все собранные деньги. Отмена
// клиентом возвращает все, если до записи осталось не меньше
// freeCancelHours; иначе возвращается lateCancelRefundPercent от
// депозита, комиссия платформы не возвращается.
func refundForCancellation(b *domain.Booking, actor domain.Actor, policy providerconfig.CancellationPolicy, now time.Time) float64 {
	paid := b.AmountPaid()
	if paid == 0 {
		return 0
	}

	if actor.Role != domain.RoleClient {
		return paid
	}

	startAt, err := b.StartAt()
	if err != nil {
		// Время записи не парсится - отдаем полный возврат, чтобы
		// ошибка данных не била по клиенту
		return paid
	}

	freeCancelDeadline := startAt.Add(-time.Duration(policy.FreeCancelHours) * time.Hour)
	if !now.After(freeCancelDeadline) {
		return paid
	}

	return b.DepositAmount * float64(policy.LateCancelRefundPercent) / 100
}
