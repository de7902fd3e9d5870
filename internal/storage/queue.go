package storage

import (
	"go.uber.org/zap"

	"github.com/shibapc/gadalka/internal/models"
)

// AddParams — поля новой заявки, собранные машиной состояний записи.
type AddParams struct {
	UserID        int64
	ServiceID     string
	BirthDate     string
	Name          string
	Problem       string
	UserUsername  *string
	UserFullname  *string
	IsUrgent      bool
	Price         *int
	Phone         *string
	PaymentStatus models.PaymentStatus
}

// AddRequest добавляет заявку в очередь и возвращает её позицию
// после пересчёта (срочная заявка встаёт впереди обычных).
// Выдача order_id и запись файла происходят в одной критической
// секции, поэтому конкурирующие добавления не получат один id.
func (s *Storage) AddRequest(p AddParams) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	queue := s.readQueueLocked()
	history := s.readHistoryLocked()

	status := p.PaymentStatus
	if status == "" {
		status = models.PaymentStatusPending
	}

	item := models.Request{
		OrderID:       s.nextOrderIDLocked(queue, history),
		UserID:        p.UserID,
		ServiceID:     p.ServiceID,
		BirthDate:     p.BirthDate,
		Name:          p.Name,
		Problem:       p.Problem,
		UserUsername:  p.UserUsername,
		UserFullname:  p.UserFullname,
		IsUrgent:      p.IsUrgent,
		Price:         p.Price,
		Phone:         p.Phone,
		PaymentStatus: status,
		SessionStatus: models.SessionStatusPending,
		CreatedAt:     s.now(),
		Schema:        models.SchemaVersion,
	}

	queue = append(queue, item)
	derivePositions(queue)

	if err := s.writeQueueLocked(queue); err != nil {
		return 0, err
	}

	for i := range queue {
		if queue[i].OrderID == item.OrderID {
			s.logger.Info("заявка добавлена в очередь",
				zap.Int("order_id", item.OrderID),
				zap.Int64("user_id", p.UserID),
				zap.String("service_id", p.ServiceID),
				zap.Bool("is_urgent", p.IsUrgent),
				zap.Int("position", queue[i].Position),
			)
			return queue[i].Position, nil
		}
	}
	return len(queue), nil
}

// GetByPosition возвращает заявку по позиции в актуальном порядке
// или nil. Отсутствие записи — штатный исход, не ошибка.
func (s *Storage) GetByPosition(position int) *models.Request {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, item := range s.readQueueLocked() {
		if item.Position == position {
			return &item
		}
	}
	return nil
}

// GetByOrderID возвращает живую заявку по сквозному номеру или nil.
func (s *Storage) GetByOrderID(orderID int) *models.Request {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, item := range s.readQueueLocked() {
		if item.OrderID == orderID {
			return &item
		}
	}
	return nil
}

// ListAll возвращает очередь в актуальном порядке.
func (s *Storage) ListAll() []models.Request {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.readQueueLocked()
}

// ListByPaymentStatus возвращает заявки с одним из статусов оплаты.
func (s *Storage) ListByPaymentStatus(statuses ...models.PaymentStatus) []models.Request {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []models.Request
	for _, item := range s.readQueueLocked() {
		for _, st := range statuses {
			if item.PaymentStatus == st {
				result = append(result, item)
				break
			}
		}
	}
	return result
}

// ListUserRequests возвращает заявки конкретного клиента.
func (s *Storage) ListUserRequests(userID int64) []models.Request {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []models.Request
	for _, item := range s.readQueueLocked() {
		if item.UserID == userID {
			result = append(result, item)
		}
	}
	return result
}

// UpdatePaymentStatus меняет статус оплаты заявки по позиции.
// Граф переходов сознательно не проверяется: модерация ручная,
// и админ должен уметь выставить любой статус.
func (s *Storage) UpdatePaymentStatus(position int, status models.PaymentStatus) (bool, error) {
	return s.mutateByPosition(position, func(item *models.Request) {
		item.PaymentStatus = status
	})
}

// UpdateSessionStatus меняет статус сеанса заявки по позиции.
func (s *Storage) UpdateSessionStatus(position int, status models.SessionStatus) (bool, error) {
	return s.mutateByPosition(position, func(item *models.Request) {
		item.SessionStatus = status
	})
}

// SetPaymentProof сохраняет чек клиента и переводит оплату в
// awaiting_review (ручная политика подтверждения).
func (s *Storage) SetPaymentProof(position int, proof models.PaymentProof) (bool, error) {
	return s.mutateByPosition(position, func(item *models.Request) {
		item.PaymentProof = &proof
		item.PaymentStatus = models.PaymentStatusAwaitingReview
	})
}

func (s *Storage) mutateByPosition(position int, mutate func(*models.Request)) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	queue := s.readQueueLocked()
	for i := range queue {
		if queue[i].Position == position {
			mutate(&queue[i])
			if err := s.writeQueueLocked(queue); err != nil {
				return false, err
			}
			return true, nil
		}
	}
	return false, nil
}

// SetResultSent отмечает, что результат по заказу отправлен клиенту.
// Сначала ищем в живой очереди, затем в архиве: к моменту отправки
// заявка уже может быть архивирована.
func (s *Storage) SetResultSent(orderID int, payload models.ResultPayload) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	queue := s.readQueueLocked()
	for i := range queue {
		if queue[i].OrderID == orderID {
			queue[i].ResultSent = true
			queue[i].ResultPayload = &payload
			if err := s.writeQueueLocked(queue); err != nil {
				return false, err
			}
			return true, nil
		}
	}

	history := s.readHistoryLocked()
	for i := range history {
		if history[i].OrderID == orderID {
			history[i].ResultSent = true
			history[i].ResultPayload = &payload
			if err := s.writeHistoryLocked(history); err != nil {
				return false, err
			}
			return true, nil
		}
	}

	return false, nil
}

// DeleteAndArchive атомарно переносит заявку из очереди в архив:
// запись получает следующий archive_id и штамп archived_at, очередь
// перенумеровывается без дыр. Архивный файл пишется первым: падение
// процесса между двумя записями оставляет заявку в обоих файлах —
// восстановимый дубликат вместо потери заявки.
func (s *Storage) DeleteAndArchive(position int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	queue := s.readQueueLocked()
	var target *models.Request
	rest := make([]models.Request, 0, len(queue))
	for i := range queue {
		if queue[i].Position == position {
			target = &queue[i]
		} else {
			rest = append(rest, queue[i])
		}
	}
	if target == nil {
		return false, nil
	}

	history := s.readHistoryLocked()
	archived := models.ArchivedRequest{
		Request:    *target,
		ArchiveID:  len(history) + 1,
		ArchivedAt: s.now(),
	}
	history = append(history, archived)
	if err := s.writeHistoryLocked(history); err != nil {
		// Очередь ещё не тронута, наблюдаемое состояние не изменилось
		return false, err
	}

	derivePositions(rest)
	if err := s.writeQueueLocked(rest); err != nil {
		// Убираем добавленную архивную запись, чтобы не оставить
		// заявку в обоих файлах
		if rollbackErr := s.writeHistoryLocked(history[:len(history)-1]); rollbackErr != nil {
			s.logger.Error("не удалось убрать заявку из архива после сбоя записи очереди",
				zap.Error(rollbackErr),
				zap.Int("order_id", target.OrderID),
			)
		}
		return false, err
	}

	s.logger.Info("заявка перенесена в архив",
		zap.Int("order_id", target.OrderID),
		zap.Int("archive_id", archived.ArchiveID),
		zap.Int("position", position),
	)
	return true, nil
}
