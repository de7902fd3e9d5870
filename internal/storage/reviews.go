package storage

import (
	"go.uber.org/zap"

	"github.com/shibapc/gadalka/internal/models"
)

// AddReview добавляет отзыв и возвращает его номер. Номера плотные,
// в порядке добавления, и пересчитываются при каждой записи — по той
// же схеме, что позиции очереди.
func (s *Storage) AddReview(review models.Review) (int, error) {
	s.reviewsMu.Lock()
	defer s.reviewsMu.Unlock()

	reviews := readList[models.Review](s.reviewsPath, s.logger)
	review.CreatedAt = s.now()
	reviews = append(reviews, review)
	for i := range reviews {
		reviews[i].ReviewID = i + 1
	}

	if err := writeList(s.reviewsPath, reviews); err != nil {
		return 0, err
	}

	s.logger.Info("отзыв сохранён",
		zap.Int("review_id", len(reviews)),
		zap.Int64("user_id", review.UserID),
		zap.String("service_id", review.ServiceID),
	)
	return len(reviews), nil
}

// ListReviews возвращает отзывы, самые свежие первыми. Непустой
// serviceID ограничивает выборку одной услугой.
func (s *Storage) ListReviews(serviceID string) []models.Review {
	s.reviewsMu.RLock()
	defer s.reviewsMu.RUnlock()

	reviews := readList[models.Review](s.reviewsPath, s.logger)
	result := make([]models.Review, 0, len(reviews))
	for i := len(reviews) - 1; i >= 0; i-- {
		if serviceID != "" && reviews[i].ServiceID != serviceID {
			continue
		}
		result = append(result, reviews[i])
	}
	return result
}

// GetReviewByID возвращает отзыв по номеру или nil.
func (s *Storage) GetReviewByID(reviewID int) *models.Review {
	s.reviewsMu.RLock()
	defer s.reviewsMu.RUnlock()

	for _, review := range readList[models.Review](s.reviewsPath, s.logger) {
		if review.ReviewID == reviewID {
			return &review
		}
	}
	return nil
}

// GetReviewForOrder возвращает первый отзыв, привязанный к заказу,
// или nil. Больше одного отзыва на заказ — дисциплина вызывающей
// стороны, хранилище этого не запрещает.
func (s *Storage) GetReviewForOrder(orderID int) *models.Review {
	s.reviewsMu.RLock()
	defer s.reviewsMu.RUnlock()

	for _, review := range readList[models.Review](s.reviewsPath, s.logger) {
		if review.OrderID != nil && *review.OrderID == orderID {
			return &review
		}
	}
	return nil
}

// SetReviewSkipped отмечает на заявке (живой или архивной), что
// клиент отказался оставлять отзыв.
func (s *Storage) SetReviewSkipped(orderID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	skippedAt := s.now()

	queue := s.readQueueLocked()
	for i := range queue {
		if queue[i].OrderID == orderID {
			queue[i].ReviewSkipped = &skippedAt
			return s.writeQueueLocked(queue)
		}
	}

	history := s.readHistoryLocked()
	for i := range history {
		if history[i].OrderID == orderID {
			history[i].ReviewSkipped = &skippedAt
			return s.writeHistoryLocked(history)
		}
	}

	return ErrOrderNotFound
}
