package bot

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/shibapc/gadalka/internal/booking"
	"github.com/shibapc/gadalka/internal/models"
)

// handleAdminCommand разбирает текстовые админ-команды. Модераторам
// доступен просмотр, мутации — только высшему уровню.
func (s *Service) handleAdminCommand(msg models.Message) {
	fields := strings.Fields(msg.Text)
	command := fields[0]
	args := ""
	if len(fields) > 1 {
		args = fields[1]
	}

	switch command {
	case "/admin", "/admin_show":
		if !s.requireModerator(msg.ChatID) {
			return
		}
		s.sendServiceSelect(msg.ChatID, "all")

	case "/admin_paid":
		if !s.requireModerator(msg.ChatID) {
			return
		}
		s.sendServiceSelect(msg.ChatID, "paid")

	case "/admin_history":
		if !s.requireModerator(msg.ChatID) {
			return
		}
		s.sendServiceSelect(msg.ChatID, "arch")

	case "/admin_pay":
		s.adminSetPayment(msg.ChatID, args, models.PaymentStatusPaid)

	case "/admin_unpay":
		s.adminSetPayment(msg.ChatID, args, models.PaymentStatusPending)

	case "/admin_done":
		s.adminSetSession(msg.ChatID, args, models.SessionStatusDone)

	case "/admin_undone":
		s.adminSetSession(msg.ChatID, args, models.SessionStatusPending)

	case "/admin_delete":
		if !s.requireAdmin(msg.ChatID) {
			return
		}
		pos, ok := parsePosition(args)
		if !ok {
			s.telegram.SendMessage(msg.ChatID, "Укажите позицию: /admin_delete <номер>")
			return
		}
		deleted, err := s.store.DeleteAndArchive(pos)
		if err != nil {
			s.telegram.SendMessage(msg.ChatID, "Не удалось архивировать заявку, попробуйте ещё раз.")
			return
		}
		if deleted {
			s.telegram.SendMessage(msg.ChatID, fmt.Sprintf("Заявка №%d архивирована и удалена из очереди. Позиции пересчитаны.", pos))
		} else {
			s.telegram.SendMessage(msg.ChatID, positionNotFoundText())
		}

	case "/admin_send":
		if !s.requireAdmin(msg.ChatID) {
			return
		}
		pos, ok := parsePosition(args)
		if !ok {
			s.telegram.SendMessage(msg.ChatID, "Укажите позицию: /admin_send <номер>")
			return
		}
		s.startSendResult(msg.ChatID, pos)

	case "/admin_send_cancel":
		if !s.requireAdmin(msg.ChatID) {
			return
		}
		if s.clearSendTarget(msg.ChatID) {
			s.telegram.SendMessage(msg.ChatID, "Отправка отменена.")
		} else {
			s.telegram.SendMessage(msg.ChatID, "Нет активной отправки.")
		}

	default:
		if s.cfg.IsModerator(msg.ChatID) {
			s.sendServiceSelect(msg.ChatID, "all")
		} else {
			s.telegram.SendMessage(msg.ChatID, accessDeniedText())
		}
	}
}

func (s *Service) requireAdmin(userID int64) bool {
	if s.cfg.IsAdmin(userID) {
		return true
	}
	s.telegram.SendMessage(userID, accessDeniedText())
	return false
}

func (s *Service) requireModerator(userID int64) bool {
	if s.cfg.IsModerator(userID) {
		return true
	}
	s.telegram.SendMessage(userID, accessDeniedText())
	return false
}

func parsePosition(args string) (int, bool) {
	pos, err := strconv.Atoi(strings.TrimSpace(args))
	if err != nil || pos < 1 {
		return 0, false
	}
	return pos, true
}

func (s *Service) adminSetPayment(adminID int64, args string, status models.PaymentStatus) {
	if !s.requireAdmin(adminID) {
		return
	}
	pos, ok := parsePosition(args)
	if !ok {
		s.telegram.SendMessage(adminID, "Укажите позицию: /admin_pay <номер>")
		return
	}
	found, err := s.store.UpdatePaymentStatus(pos, status)
	if err != nil {
		s.telegram.SendMessage(adminID, "Не удалось обновить статус, попробуйте ещё раз.")
		return
	}
	if found {
		s.logger.Info("статус оплаты изменён администратором",
			zap.Int64("admin_id", adminID),
			zap.Int("position", pos),
			zap.String("status", string(status)),
		)
		s.telegram.SendMessage(adminID, fmt.Sprintf("Оплата для №%d установлена: %s", pos, status))
	} else {
		s.telegram.SendMessage(adminID, positionNotFoundText())
	}
}

func (s *Service) adminSetSession(adminID int64, args string, status models.SessionStatus) {
	if !s.requireAdmin(adminID) {
		return
	}
	pos, ok := parsePosition(args)
	if !ok {
		s.telegram.SendMessage(adminID, "Укажите позицию: /admin_done <номер>")
		return
	}
	found, err := s.store.UpdateSessionStatus(pos, status)
	if err != nil {
		s.telegram.SendMessage(adminID, "Не удалось обновить статус, попробуйте ещё раз.")
		return
	}
	if found {
		s.logger.Info("статус сеанса изменён администратором",
			zap.Int64("admin_id", adminID),
			zap.Int("position", pos),
			zap.String("status", string(status)),
		)
		s.telegram.SendMessage(adminID, fmt.Sprintf("Сеанс для №%d установлен: %s", pos, status))
	} else {
		s.telegram.SendMessage(adminID, positionNotFoundText())
	}
}

// startSendResult запоминает цель отправки: следующее сообщение
// администратора уйдёт клиенту этой заявки.
func (s *Service) startSendResult(adminID int64, position int) {
	item := s.store.GetByPosition(position)
	if item == nil || item.ServiceID != expressServiceID {
		s.telegram.SendMessage(adminID, "Заявка не найдена или не относится к экспресс-раскладу.")
		return
	}
	if item.PaymentStatus != models.PaymentStatusPaid {
		s.telegram.SendMessage(adminID, "Нельзя отправить расклад до оплаты.")
		return
	}

	s.setSendTarget(adminID, &sendTarget{
		UserID:         item.UserID,
		Position:       position,
		ServiceID:      item.ServiceID,
		OrderID:        item.OrderID,
		Name:           item.Name,
		BirthDate:      item.BirthDate,
		OrderCreatedAt: item.CreatedAt,
	})
	s.telegram.SendMessage(adminID, "Отправьте текст/фото/документ пользователю. Для отмены: /admin_send_cancel")
}

// handleAdminSendResult пересылает расклад клиенту, фиксирует
// result_payload на заявке (живой или архивной) и открывает клиенту
// шаг отзыва. Это единственное место, где достижим StepReview.
func (s *Service) handleAdminSendResult(msg models.Message) {
	if !s.cfg.IsAdmin(msg.ChatID) {
		return
	}
	target := s.currentSendTarget(msg.ChatID)
	if target == nil {
		return
	}

	var payload models.ResultPayload
	switch {
	case msg.PhotoFileID != "":
		if err := s.telegram.SendPhoto(target.UserID, msg.PhotoFileID, msg.Caption); err != nil {
			s.telegram.SendMessage(msg.ChatID, "Не удалось отправить фото клиенту.")
			return
		}
		payload = models.ResultPayload{Type: "photo", FileID: msg.PhotoFileID, Caption: msg.Caption}
	case msg.DocumentFileID != "":
		if err := s.telegram.SendDocument(target.UserID, msg.DocumentFileID, msg.Caption); err != nil {
			s.telegram.SendMessage(msg.ChatID, "Не удалось отправить документ клиенту.")
			return
		}
		payload = models.ResultPayload{Type: "document", FileID: msg.DocumentFileID, Caption: msg.Caption}
	case msg.Text != "":
		if err := s.telegram.SendMessage(target.UserID, msg.Text); err != nil {
			s.telegram.SendMessage(msg.ChatID, "Не удалось отправить сообщение клиенту.")
			return
		}
		payload = models.ResultPayload{Type: "text", Text: msg.Text}
	default:
		s.telegram.SendMessage(msg.ChatID, "Отправьте текст, фото или документ.")
		return
	}

	found, err := s.store.SetResultSent(target.OrderID, payload)
	if err != nil {
		s.logger.Error("не удалось записать отправленный результат",
			zap.Error(err),
			zap.Int("order_id", target.OrderID),
		)
	}
	if !found {
		// Клиент уже получил сообщение, но заявки больше нет ни в
		// очереди, ни в архиве — отметка не записана, шаг отзыва
		// привязывать не к чему
		s.clearSendTarget(msg.ChatID)
		s.telegram.SendMessage(msg.ChatID, fmt.Sprintf(
			"Сообщение доставлено, но заявка №%d не найдена ни в очереди, ни в архиве — отметка об отправке не записана.",
			target.Position,
		))
		s.logger.Warn("заказ для отметки результата не найден",
			zap.Int64("admin_id", msg.ChatID),
			zap.Int("order_id", target.OrderID),
		)
		return
	}

	// Открываем клиенту шаг отзыва с денормализованными полями заявки.
	// Сессию клиента мутируем под его мьютексом: его собственные
	// сообщения обрабатываются параллельно под другим локом
	if target.UserID != msg.ChatID {
		clientLock := s.lockUser(target.UserID)
		clientLock.Lock()
		defer clientLock.Unlock()
	}
	session := s.sessions.Get(target.UserID)
	session.Step = booking.StepReview
	session.ServiceID = target.ServiceID
	orderID := target.OrderID
	session.ReviewOrderID = &orderID
	session.ReviewName = strPtr(target.Name)
	session.ReviewBirthDate = strPtr(target.BirthDate)
	createdAt := target.OrderCreatedAt
	session.ReviewOrderCreatedAt = &createdAt

	s.telegram.SendMessageWithInlineKeyboard(target.UserID, askReviewText(), reviewSkipKeyboard())

	s.clearSendTarget(msg.ChatID)
	s.telegram.SendMessage(msg.ChatID, fmt.Sprintf("Расклад отправлен пользователю (заявка №%d).", target.Position))
	s.logger.Info("результат отправлен клиенту",
		zap.Int64("admin_id", msg.ChatID),
		zap.Int("order_id", target.OrderID),
		zap.String("payload_type", payload.Type),
	)
}

func (s *Service) serviceLabel(serviceID string) string {
	if service := s.cfg.ServiceByID(serviceID); service != nil {
		return service.Title
	}
	return serviceID
}

func (s *Service) sendServiceSelect(chatID int64, filterKey string) {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, service := range s.cfg.Services {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(service.Title, "adm:service:"+service.ID+":"+filterKey),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("📊 Статистика продаж", "adm:stats"),
	))
	s.telegram.SendMessageWithInlineKeyboard(chatID, "Выберите раздел:", tgbotapi.NewInlineKeyboardMarkup(rows...))
}
