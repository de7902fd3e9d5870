package bot

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/shibapc/gadalka/internal/booking"
	"github.com/shibapc/gadalka/internal/models"
	"github.com/shibapc/gadalka/internal/storage"
)

// Экспресс-услуга идёт по сокращённой ветке анкеты: без выбора
// приоритета, с шагом интуитивной цифры.
const expressServiceID = "express"

func (s *Service) handleStart(msg models.Message) {
	s.sessions.Reset(msg.ChatID)
	s.telegram.SendMessageWithInlineKeyboard(msg.ChatID, startText(), mainMenuKeyboard())
}

func (s *Service) handleStartBooking(cb models.CallbackQuery) {
	session := s.sessions.Reset(cb.UserID)
	keyboard := servicesKeyboard(s.cfg.Services, session.ServiceID)
	if err := s.telegram.EditMessageText(cb.ChatID, cb.MessageID, bookingPromptText(), &keyboard); err != nil {
		s.telegram.SendMessageWithInlineKeyboard(cb.ChatID, bookingPromptText(), keyboard)
	}
	s.telegram.AnswerCallback(cb.ID, "", false)
}

func (s *Service) handleServiceSelect(cb models.CallbackQuery) {
	serviceID := strings.TrimPrefix(cb.Data, "service:")
	service := s.cfg.ServiceByID(serviceID)
	if service == nil {
		s.telegram.AnswerCallback(cb.ID, "Услуга не найдена", true)
		return
	}

	session := s.sessions.Get(cb.UserID)
	session.ServiceID = serviceID
	s.telegram.EditMessageText(cb.ChatID, cb.MessageID, serviceSelectedText(service), nil)

	if serviceID == expressServiceID {
		// Экспресс всегда в общей очереди, приоритет не спрашиваем
		session.IsUrgent = false
		price := service.Price
		session.Price = &price
		session.Step = booking.StepBirthDate
		s.telegram.SendMessage(cb.ChatID, askBirthDateText())
		s.telegram.AnswerCallback(cb.ID, "Услуга выбрана", false)
		return
	}

	session.Step = booking.StepPriority
	s.telegram.SendMessageWithInlineKeyboard(cb.ChatID, priorityPromptText(), priorityKeyboard())
	s.telegram.AnswerCallback(cb.ID, "Услуга выбрана", false)
}

func (s *Service) handlePrioritySelect(cb models.CallbackQuery) {
	choice := strings.TrimPrefix(cb.Data, "priority:")
	if choice != "normal" && choice != "urgent" {
		s.telegram.AnswerCallback(cb.ID, "", false)
		return
	}

	session := s.sessions.Get(cb.UserID)
	if session.Step != booking.StepPriority {
		s.telegram.AnswerCallback(cb.ID, "", false)
		return
	}

	session.IsUrgent = choice == "urgent"
	price := s.cfg.ServicePrice(session.ServiceID)
	session.Price = &price
	session.Step = booking.StepBirthDate
	s.telegram.SendMessage(cb.ChatID, askBirthDateText())
	s.telegram.AnswerCallback(cb.ID, "Тип выбран", false)
}

func (s *Service) handleBackHome(cb models.CallbackQuery) {
	s.sessions.Reset(cb.UserID)
	keyboard := mainMenuKeyboard()
	if err := s.telegram.EditMessageText(cb.ChatID, cb.MessageID, startText(), &keyboard); err != nil {
		s.telegram.SendMessageWithInlineKeyboard(cb.ChatID, startText(), keyboard)
	}
	s.telegram.AnswerCallback(cb.ID, "", false)
}

func (s *Service) handleMyBookings(cb models.CallbackQuery) {
	s.telegram.AnswerCallback(cb.ID, "", false)

	requests := s.store.ListUserRequests(cb.UserID)
	if len(requests) == 0 {
		s.telegram.SendMessage(cb.UserID, "У вас пока нет заявок. Оформите новую через «Записаться».")
		return
	}

	lines := []string{"Ваши заявки:"}
	for _, item := range requests {
		title := item.ServiceID
		if service := s.cfg.ServiceByID(item.ServiceID); service != nil {
			title = service.Title
		}
		payText := "на проверке"
		if item.PaymentStatus == models.PaymentStatusPaid {
			payText = "оплачено"
		}
		lines = append(lines, fmt.Sprintf("• %s, %s, %s", title, item.CreatedAt.Format("2006-01-02"), payText))
	}
	s.telegram.SendMessage(cb.UserID, strings.Join(lines, "\n"))
}

// handleSteps продвигает анкету по текстовым шагам. Любой
// нераспознанный ввод переспрашивает и не двигает состояние.
func (s *Service) handleSteps(msg models.Message) {
	session := s.sessions.Get(msg.ChatID)
	if session.Step == booking.StepNone {
		return
	}

	text := strings.TrimSpace(msg.Text)

	switch session.Step {
	case booking.StepReview:
		s.handleReviewText(msg, text)

	case booking.StepBirthDate:
		birthDate, err := booking.ValidateBirthDate(text, time.Now())
		if err != nil {
			s.telegram.SendMessage(msg.ChatID, err.Error())
			return
		}
		session.BirthDate = birthDate
		session.Step = booking.StepName
		if session.ServiceID == expressServiceID {
			s.telegram.SendMessage(msg.ChatID, askFullNameText())
		} else {
			s.telegram.SendMessage(msg.ChatID, askNameText())
		}

	case booking.StepName:
		session.Name = text
		if session.ServiceID == expressServiceID {
			session.Step = booking.StepIntuitiveNumber
			s.telegram.SendMessage(msg.ChatID, askIntuitiveNumberText(s.cfg.Booking.IntuitiveMax))
		} else {
			session.Step = booking.StepProblem
			s.telegram.SendMessage(msg.ChatID, askProblemText())
		}

	case booking.StepIntuitiveNumber:
		number, err := booking.ParseIntuitiveNumber(text, s.cfg.Booking.IntuitiveMax)
		if err != nil {
			s.telegram.SendMessage(msg.ChatID, err.Error())
			return
		}
		session.IntuitiveNumber = &number
		session.Step = booking.StepProblem
		s.telegram.SendMessage(msg.ChatID, askProblemBriefText())

	case booking.StepProblem:
		if session.ServiceID == expressServiceID && session.IntuitiveNumber != nil {
			session.Problem = booking.JoinProblem(*session.IntuitiveNumber, text)
		} else {
			session.Problem = text
		}
		session.Step = booking.StepPhone
		s.telegram.SendMessageWithKeyboard(msg.ChatID, askPhoneText(), contactKeyboard())
	}
}

// handleContact принимает телефон через кнопку контакта и запускает
// оплату по сконфигурированной политике.
func (s *Service) handleContact(msg models.Message) {
	session := s.sessions.Get(msg.ChatID)
	if session.Step != booking.StepPhone {
		return
	}

	session.Phone = msg.ContactPhone
	s.logger.Info("получен телефон клиента",
		zap.Int64("user_id", msg.ChatID),
		zap.String("phone", msg.ContactPhone),
	)
	s.telegram.SendMessageRemoveKeyboard(msg.ChatID, "Спасибо! Телефон сохранён.")

	switch s.cfg.Payment.Mode {
	case "invoice":
		s.startInvoicePayment(msg, session)
	default:
		s.startManualPayment(msg, session)
	}
}

// startInvoicePayment выставляет счёт провайдера; заявка будет
// создана только после события успешной оплаты.
func (s *Service) startInvoicePayment(msg models.Message, session *booking.Session) {
	if s.cfg.Payment.ProviderToken == "" {
		s.telegram.SendMessage(msg.ChatID, "Платёжный токен не задан, обратитесь к администратору.")
		return
	}

	session.Step = booking.StepWaitingPayment

	price := s.cfg.ServicePrice(session.ServiceID)
	if session.Price != nil {
		price = *session.Price
	}
	title := session.ServiceID
	if service := s.cfg.ServiceByID(session.ServiceID); service != nil {
		title = service.Title
	}

	err := s.telegram.SendInvoice(
		msg.ChatID,
		"Оплата: "+title,
		fmt.Sprintf("Оплата %d₽ за запись.", price),
		s.cfg.Payment.ProviderToken,
		price,
	)
	if err != nil {
		s.logger.Error("ошибка при выставлении счёта",
			zap.Error(err),
			zap.Int64("user_id", msg.ChatID),
		)
		s.telegram.SendMessage(msg.ChatID, "Не удалось выставить счёт. Попробуйте /start и начните заново.")
	}
}

// startManualPayment сразу ставит заявку в очередь со статусом
// pending и ждёт чек; оплату подтверждает администратор.
func (s *Service) startManualPayment(msg models.Message, session *booking.Session) {
	position, err := s.addRequestFromSession(msg, session, models.PaymentStatusPending)
	if err != nil {
		s.telegram.SendMessage(msg.ChatID, "Не удалось сохранить заявку. Попробуйте /start и начните заново.")
		return
	}

	session.LastPosition = position
	session.Step = booking.StepPaymentProof

	price := s.cfg.ServicePrice(session.ServiceID)
	if session.Price != nil {
		price = *session.Price
	}
	s.telegram.SendMessage(msg.ChatID, paymentPromptText(price))
}

// handleSuccessfulPayment — завершение политики invoice: событие
// оплаты от провайдера создаёт заявку со статусом paid.
func (s *Service) handleSuccessfulPayment(msg models.Message) {
	session := s.sessions.Get(msg.ChatID)
	if session.Step != booking.StepWaitingPayment {
		s.telegram.SendMessage(msg.ChatID, "Не удалось связать оплату с заявкой. Начните заново через /start.")
		return
	}
	if session.ServiceID == "" || session.BirthDate == "" || session.Name == "" || session.Problem == "" {
		s.telegram.SendMessage(msg.ChatID, "Не хватает данных для записи. Начните заново через /start.")
		s.sessions.Reset(msg.ChatID)
		return
	}

	position, err := s.addRequestFromSession(msg, session, models.PaymentStatusPaid)
	if err != nil {
		s.telegram.SendMessage(msg.ChatID, "Оплата получена, но заявку сохранить не удалось. Напишите администратору.")
		return
	}

	s.logger.Info("заявка оплачена и поставлена в очередь",
		zap.Int64("user_id", msg.ChatID),
		zap.String("service_id", session.ServiceID),
		zap.Int("position", position),
	)
	s.telegram.SendMarkdownMessage(msg.ChatID, queueConfirmationText(s.cfg, session, true))
	s.telegram.SendMessageWithInlineKeyboard(msg.ChatID, startText(), mainMenuKeyboard())
	s.sessions.Reset(msg.ChatID)
}

// handlePaymentProof — завершение политики manual: чек прикладывается
// к уже созданной заявке, статус оплаты переходит в awaiting_review.
func (s *Service) handlePaymentProof(msg models.Message) {
	session := s.sessions.Get(msg.ChatID)
	if session.Step != booking.StepPaymentProof || session.LastPosition == 0 {
		return
	}

	proof := models.PaymentProof{Type: "unknown"}
	switch {
	case msg.PhotoFileID != "":
		proof = models.PaymentProof{Type: "photo", FileID: msg.PhotoFileID}
	case msg.DocumentFileID != "":
		proof = models.PaymentProof{Type: "document", FileID: msg.DocumentFileID}
	default:
		s.telegram.SendMessage(msg.ChatID, "Отправьте фото или документ с чеком.")
		return
	}

	found, err := s.store.SetPaymentProof(session.LastPosition, proof)
	if err != nil || !found {
		s.telegram.SendMessage(msg.ChatID, "Не удалось сохранить чек. Попробуйте /start и отправить снова.")
	} else {
		s.logger.Info("чек об оплате сохранён",
			zap.Int("position", session.LastPosition),
			zap.Int64("user_id", msg.ChatID),
		)
		s.telegram.SendMessageWithInlineKeyboard(msg.ChatID, paymentProofReceivedText(), mainMenuKeyboard())
	}
	s.sessions.Reset(msg.ChatID)
}

// handleReviewText принимает текст отзыва. Шаг review достижим только
// после отправки результата администратором (см. handleAdminSendResult).
func (s *Service) handleReviewText(msg models.Message, text string) {
	session := s.sessions.Get(msg.ChatID)
	if len([]rune(text)) < 100 {
		s.telegram.SendMessage(msg.ChatID, reviewTooShortText())
		return
	}

	review := models.Review{
		OrderID:        session.ReviewOrderID,
		UserID:         msg.ChatID,
		ServiceID:      session.ServiceID,
		Text:           text,
		UserUsername:   strPtr(msg.Username),
		UserFullname:   strPtr(msg.FullName),
		Name:           session.ReviewName,
		BirthDate:      session.ReviewBirthDate,
		OrderCreatedAt: session.ReviewOrderCreatedAt,
	}
	if _, err := s.store.AddReview(review); err != nil {
		s.telegram.SendMessage(msg.ChatID, "Не удалось сохранить отзыв. Попробуйте ещё раз.")
		return
	}

	s.telegram.SendMessageWithInlineKeyboard(msg.ChatID, "Спасибо за отзыв!", mainMenuKeyboard())
	s.sessions.Reset(msg.ChatID)
}

func (s *Service) handleReviewSkip(cb models.CallbackQuery) {
	session := s.sessions.Get(cb.UserID)
	if session.Step != booking.StepReview {
		s.telegram.AnswerCallback(cb.ID, "", false)
		return
	}

	if session.ReviewOrderID != nil {
		if err := s.store.SetReviewSkipped(*session.ReviewOrderID); err != nil {
			s.logger.Warn("не удалось отметить отказ от отзыва",
				zap.Error(err),
				zap.Int("order_id", *session.ReviewOrderID),
			)
		}
	}
	s.sessions.Reset(cb.UserID)
	s.telegram.SendMessageWithInlineKeyboard(cb.UserID, "Спасибо! Возвращаю в меню.", mainMenuKeyboard())
	s.telegram.AnswerCallback(cb.ID, "", false)
}

func (s *Service) addRequestFromSession(msg models.Message, session *booking.Session, status models.PaymentStatus) (int, error) {
	price := session.Price
	if price == nil {
		p := s.cfg.ServicePrice(session.ServiceID)
		price = &p
	}

	position, err := s.store.AddRequest(storage.AddParams{
		UserID:        msg.ChatID,
		ServiceID:     session.ServiceID,
		BirthDate:     session.BirthDate,
		Name:          session.Name,
		Problem:       session.Problem,
		UserUsername:  strPtr(msg.Username),
		UserFullname:  strPtr(msg.FullName),
		IsUrgent:      session.IsUrgent,
		Price:         price,
		Phone:         strPtr(session.Phone),
		PaymentStatus: status,
	})
	if err != nil {
		s.logger.Error("ошибка при добавлении заявки в очередь",
			zap.Error(err),
			zap.Int64("user_id", msg.ChatID),
		)
		return 0, err
	}
	return position, nil
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
