package storage

import (
	"go.uber.org/zap"

	"github.com/shibapc/gadalka/internal/models"
)

// ListHistory возвращает последние limit записей архива,
// самые свежие первыми. limit <= 0 — весь архив.
func (s *Storage) ListHistory(limit int) []models.ArchivedRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.readHistoryLocked()
	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}

	result := make([]models.ArchivedRequest, 0, len(history))
	for i := len(history) - 1; i >= 0; i-- {
		result = append(result, history[i])
	}
	return result
}

// GetHistoryByArchiveID возвращает архивную запись по её номеру или nil.
func (s *Storage) GetHistoryByArchiveID(archiveID int) *models.ArchivedRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, item := range s.readHistoryLocked() {
		if item.ArchiveID == archiveID {
			return &item
		}
	}
	return nil
}

// GetHistoryByOrderID возвращает архивную запись по сквозному номеру
// заказа или nil.
func (s *Storage) GetHistoryByOrderID(orderID int) *models.ArchivedRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, item := range s.readHistoryLocked() {
		if item.OrderID == orderID {
			return &item
		}
	}
	return nil
}

// ClearHistory необратимо очищает архив. Нумерация archive_id после
// очистки начинается заново с единицы, исторические ссылки на старые
// номера перестают действовать — вызывающая сторона обязана
// предупредить об этом администратора.
func (s *Storage) ClearHistory() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writeHistoryLocked(nil); err != nil {
		return err
	}
	s.logger.Warn("архив очищен администратором")
	return nil
}

// HistoryStats — статистика продаж по архиву: количество заказов и
// сумма. Для заявок без зафиксированной цены сумма не угадывается.
func (s *Storage) HistoryStats() (int, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.readHistoryLocked()
	total := 0
	for _, item := range history {
		if item.Price != nil {
			total += *item.Price
		}
	}
	if len(history) > 0 {
		s.logger.Debug("подсчитана статистика архива",
			zap.Int("orders", len(history)),
			zap.Int("sum", total),
		)
	}
	return len(history), total
}
