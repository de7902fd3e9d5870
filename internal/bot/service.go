package bot

import (
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/shibapc/gadalka/internal/booking"
	"github.com/shibapc/gadalka/internal/config"
	"github.com/shibapc/gadalka/internal/models"
	"github.com/shibapc/gadalka/internal/storage"
)

// TelegramClient - интерфейс для взаимодействия с Telegram API
type TelegramClient interface {
	SendMessage(chatID int64, text string) error
	SendMarkdownMessage(chatID int64, text string) error
	SendMessageWithKeyboard(chatID int64, text string, keyboard tgbotapi.ReplyKeyboardMarkup) error
	SendMessageWithInlineKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) error
	SendMessageRemoveKeyboard(chatID int64, text string) error
	EditMessageText(chatID int64, messageID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) error
	SendPhoto(chatID int64, fileID string, caption string) error
	SendDocument(chatID int64, fileID string, caption string) error
	SendInvoice(chatID int64, title, description, providerToken string, amount int) error
	AnswerCallback(callbackID string, text string, alert bool) error
	StartBot() (chan models.Message, chan models.CallbackQuery, error)
}

// sendTarget — активная отправка результата: администратор выбрал
// заявку и следующее его сообщение уйдёт клиенту.
type sendTarget struct {
	UserID         int64
	Position       int
	ServiceID      string
	OrderID        int
	Name           string
	BirthDate      string
	OrderCreatedAt time.Time
}

// Service - основной сервис бота
type Service struct {
	telegram TelegramClient
	logger   *zap.Logger
	cfg      *config.AppConfig
	store    *storage.Storage
	sessions *booking.Sessions

	targetsMu   sync.Mutex
	sendTargets map[int64]*sendTarget

	locksMu   sync.Mutex
	userLocks map[int64]*sync.Mutex
}

// NewService - создает новый экземпляр основного сервиса бота
func NewService(telegram TelegramClient, logger *zap.Logger, cfg *config.AppConfig, store *storage.Storage, sessions *booking.Sessions) *Service {
	return &Service{
		telegram:    telegram,
		logger:      logger,
		cfg:         cfg,
		store:       store,
		sessions:    sessions,
		sendTargets: make(map[int64]*sendTarget),
		userLocks:   make(map[int64]*sync.Mutex),
	}
}

// lockUser возвращает мьютекс клиента. Сообщения и callback-запросы
// обрабатываются разными горутинами, а оба пути мутируют одну сессию,
// поэтому обработка событий одного клиента сериализуется.
func (s *Service) lockUser(userID int64) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	lock, ok := s.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.userLocks[userID] = lock
	}
	return lock
}

// Start - запускает обработку сообщений и callback-запросов
func (s *Service) Start() error {
	messagesChan, callbacksChan, err := s.telegram.StartBot()
	if err != nil {
		s.logger.Error("ошибка при запуске бота", zap.Error(err))
		return err
	}

	// Обрабатываем callback-запросы (нажатия на кнопки) в отдельной горутине
	go func() {
		for callback := range callbacksChan {
			s.logger.Info("получен callback-запрос",
				zap.String("data", callback.Data),
				zap.Int64("user_id", callback.UserID),
			)
			s.HandleCallback(callback)
		}
	}()

	// Обрабатываем сообщения от пользователей
	for message := range messagesChan {
		s.logger.Debug("получено сообщение",
			zap.Int64("chat_id", message.ChatID),
			zap.String("text", message.Text),
		)
		s.HandleMessage(message)
	}

	return nil
}

// HandleMessage - основной обработчик входящих сообщений
func (s *Service) HandleMessage(msg models.Message) {
	lock := s.lockUser(msg.ChatID)
	lock.Lock()
	defer lock.Unlock()

	s.dispatchMessage(msg)
}

func (s *Service) dispatchMessage(msg models.Message) {
	if strings.HasPrefix(msg.Text, "/start") {
		s.handleStart(msg)
		return
	}

	if strings.HasPrefix(msg.Text, "/admin") {
		s.handleAdminCommand(msg)
		return
	}

	// Активная отправка результата: следующее сообщение администратора
	// (текст/фото/документ) уходит клиенту выбранной заявки
	if s.currentSendTarget(msg.ChatID) != nil {
		s.handleAdminSendResult(msg)
		return
	}

	if msg.PaymentReceived {
		s.handleSuccessfulPayment(msg)
		return
	}

	if msg.ContactPhone != "" {
		s.handleContact(msg)
		return
	}

	if msg.PhotoFileID != "" || msg.DocumentFileID != "" {
		s.handlePaymentProof(msg)
		return
	}

	if msg.Text != "" {
		s.handleSteps(msg)
	}
}

// HandleCallback - основной обработчик нажатий на инлайн-кнопки
func (s *Service) HandleCallback(cb models.CallbackQuery) {
	lock := s.lockUser(cb.UserID)
	lock.Lock()
	defer lock.Unlock()

	s.dispatchCallback(cb)
}

func (s *Service) dispatchCallback(cb models.CallbackQuery) {
	if strings.HasPrefix(cb.Data, "adm:") {
		s.handleAdminCallback(cb)
		return
	}

	switch {
	case cb.Data == "start_booking":
		s.handleStartBooking(cb)
	case strings.HasPrefix(cb.Data, "service:"):
		s.handleServiceSelect(cb)
	case strings.HasPrefix(cb.Data, "priority:"):
		s.handlePrioritySelect(cb)
	case cb.Data == "my_bookings":
		s.handleMyBookings(cb)
	case cb.Data == "review_skip":
		s.handleReviewSkip(cb)
	case cb.Data == "back:home":
		s.handleBackHome(cb)
	default:
		s.telegram.AnswerCallback(cb.ID, "", false)
	}
}

func (s *Service) currentSendTarget(adminID int64) *sendTarget {
	s.targetsMu.Lock()
	defer s.targetsMu.Unlock()
	return s.sendTargets[adminID]
}

func (s *Service) setSendTarget(adminID int64, target *sendTarget) {
	s.targetsMu.Lock()
	defer s.targetsMu.Unlock()
	s.sendTargets[adminID] = target
}

func (s *Service) clearSendTarget(adminID int64) bool {
	s.targetsMu.Lock()
	defer s.targetsMu.Unlock()
	_, ok := s.sendTargets[adminID]
	delete(s.sendTargets, adminID)
	return ok
}
