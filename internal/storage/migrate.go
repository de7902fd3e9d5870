package storage

import (
	"go.uber.org/zap"

	"github.com/shibapc/gadalka/internal/models"
)

// NormalizeReport — итог разовой нормализации файлов данных.
type NormalizeReport struct {
	QueueTotal   int
	HistoryTotal int
	ReviewsTotal int
}

// Normalize перечитывает все три файла, прогоняет миграцию схемы,
// пересчитывает позиции очереди, archive_id и review_id и записывает
// результат обратно. Обычные чтения нормализуют данные только в
// памяти; этот метод закрепляет нормализацию на диске.
func (s *Storage) Normalize() (NormalizeReport, error) {
	var report NormalizeReport

	s.mu.Lock()
	queue := s.readQueueLocked()
	history := s.readHistoryLocked()
	for i := range history {
		history[i].ArchiveID = i + 1
	}
	if err := s.writeQueueLocked(queue); err != nil {
		s.mu.Unlock()
		return report, err
	}
	if err := s.writeHistoryLocked(history); err != nil {
		s.mu.Unlock()
		return report, err
	}
	s.mu.Unlock()

	s.reviewsMu.Lock()
	reviews := readList[models.Review](s.reviewsPath, s.logger)
	for i := range reviews {
		reviews[i].ReviewID = i + 1
	}
	err := writeList(s.reviewsPath, reviews)
	s.reviewsMu.Unlock()
	if err != nil {
		return report, err
	}

	report.QueueTotal = len(queue)
	report.HistoryTotal = len(history)
	report.ReviewsTotal = len(reviews)
	s.logger.Info("файлы данных нормализованы",
		zap.Int("queue", report.QueueTotal),
		zap.Int("history", report.HistoryTotal),
		zap.Int("reviews", report.ReviewsTotal),
	)
	return report, nil
}
