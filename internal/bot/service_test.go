package bot

import (
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shibapc/gadalka/internal/booking"
	"github.com/shibapc/gadalka/internal/config"
	"github.com/shibapc/gadalka/internal/models"
	"github.com/shibapc/gadalka/internal/storage"
)

const (
	clientID    = int64(10)
	adminID     = int64(900)
	moderatorID = int64(901)
	strangerID  = int64(55)
)

type sentMessage struct {
	ChatID int64
	Text   string
}

type sentInvoice struct {
	ChatID int64
	Title  string
	Amount int
}

// fakeTelegram пишет исходящие вызовы в журнал вместо сети.
type fakeTelegram struct {
	mu       sync.Mutex
	messages []sentMessage
	invoices []sentInvoice
	photos   []sentMessage
	edits    []sentMessage
}

func (f *fakeTelegram) record(chatID int64, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, sentMessage{ChatID: chatID, Text: text})
}

func (f *fakeTelegram) SendMessage(chatID int64, text string) error {
	f.record(chatID, text)
	return nil
}

func (f *fakeTelegram) SendMarkdownMessage(chatID int64, text string) error {
	f.record(chatID, text)
	return nil
}

func (f *fakeTelegram) SendMessageWithKeyboard(chatID int64, text string, _ tgbotapi.ReplyKeyboardMarkup) error {
	f.record(chatID, text)
	return nil
}

func (f *fakeTelegram) SendMessageWithInlineKeyboard(chatID int64, text string, _ tgbotapi.InlineKeyboardMarkup) error {
	f.record(chatID, text)
	return nil
}

func (f *fakeTelegram) SendMessageRemoveKeyboard(chatID int64, text string) error {
	f.record(chatID, text)
	return nil
}

func (f *fakeTelegram) EditMessageText(chatID int64, _ int, text string, _ *tgbotapi.InlineKeyboardMarkup) error {
	f.record(chatID, text)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, sentMessage{ChatID: chatID, Text: text})
	return nil
}

func (f *fakeTelegram) SendPhoto(chatID int64, fileID string, caption string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.photos = append(f.photos, sentMessage{ChatID: chatID, Text: fileID + "|" + caption})
	return nil
}

func (f *fakeTelegram) SendDocument(chatID int64, fileID string, caption string) error {
	return f.SendPhoto(chatID, fileID, caption)
}

func (f *fakeTelegram) SendInvoice(chatID int64, title, _, _ string, amount int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invoices = append(f.invoices, sentInvoice{ChatID: chatID, Title: title, Amount: amount})
	return nil
}

func (f *fakeTelegram) AnswerCallback(_ string, _ string, _ bool) error {
	return nil
}

func (f *fakeTelegram) StartBot() (chan models.Message, chan models.CallbackQuery, error) {
	return nil, nil, nil
}

// lastTo возвращает последнее сообщение, отправленное в чат.
func (f *fakeTelegram) lastTo(chatID int64) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.messages) - 1; i >= 0; i-- {
		if f.messages[i].ChatID == chatID {
			return f.messages[i].Text
		}
	}
	return ""
}

func (f *fakeTelegram) received(chatID int64, text string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.messages {
		if m.ChatID == chatID && m.Text == text {
			return true
		}
	}
	return false
}

func newTestService(t *testing.T, paymentMode string) (*Service, *fakeTelegram) {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.AppConfig{
		Payment: config.Payment{Mode: paymentMode, ProviderToken: "test-provider-token"},
		Storage: config.Storage{
			QueuePath:   filepath.Join(dir, "queue.json"),
			HistoryPath: filepath.Join(dir, "history.json"),
			ReviewsPath: filepath.Join(dir, "reviews.json"),
		},
		Booking: config.Booking{Timezone: "UTC", IntuitiveMax: 22},
		Admin:   config.Admin{AdminIDs: []int64{adminID}, ModeratorIDs: []int64{moderatorID}, PageSize: 5},
		Services: []config.Service{
			{ID: "consult", Title: "Сеанс гадания", Price: 2500},
			{ID: "express", Title: "Личный экспресс-прогноз", Price: 1393},
		},
	}

	store, err := storage.New(cfg.Storage, time.UTC, zap.NewNop())
	require.NoError(t, err)

	tg := &fakeTelegram{}
	return NewService(tg, zap.NewNop(), cfg, store, booking.NewSessions()), tg
}

func clientCallback(data string) models.CallbackQuery {
	return models.CallbackQuery{ID: "cb", UserID: clientID, ChatID: clientID, MessageID: 1, Data: data}
}

func clientText(text string) models.Message {
	return models.Message{ChatID: clientID, Text: text, Username: "anna", FullName: "Анна И."}
}

func TestExpressManualFlow(t *testing.T) {
	s, tg := newTestService(t, "manual")

	// Экспресс минует выбор приоритета и сразу спрашивает дату рождения
	s.HandleCallback(clientCallback("service:express"))
	assert.Equal(t, booking.StepBirthDate, s.sessions.Get(clientID).Step)
	assert.Equal(t, askBirthDateText(), tg.lastTo(clientID))

	// Невалидная дата переспрашивает и не двигает состояние
	s.HandleMessage(clientText("31.13.2000"))
	assert.Equal(t, booking.StepBirthDate, s.sessions.Get(clientID).Step)
	assert.Equal(t, "Некорректный месяц: допустимо 01-12. Введите дату ещё раз.", tg.lastTo(clientID))

	s.HandleMessage(clientText("12.03.1990"))
	assert.Equal(t, askFullNameText(), tg.lastTo(clientID))

	s.HandleMessage(clientText("Иванова Анна Петровна"))
	assert.Equal(t, booking.StepIntuitiveNumber, s.sessions.Get(clientID).Step)

	// Цифра вне диапазона переспрашивает
	s.HandleMessage(clientText("99"))
	assert.Equal(t, booking.StepIntuitiveNumber, s.sessions.Get(clientID).Step)
	s.HandleMessage(clientText("7"))

	s.HandleMessage(clientText("хочу понять, куда двигаться"))
	assert.Equal(t, booking.StepPhone, s.sessions.Get(clientID).Step)

	// До телефона заявки в очереди нет
	assert.Empty(t, s.store.ListAll())

	// Контакт создаёт заявку со статусом pending и просит чек
	s.HandleMessage(models.Message{ChatID: clientID, ContactPhone: "+79001234567"})
	items := s.store.ListAll()
	require.Len(t, items, 1)
	assert.Equal(t, models.PaymentStatusPending, items[0].PaymentStatus)
	assert.Equal(t, "Интуитивная цифра: 7\nЗапрос: хочу понять, куда двигаться", items[0].Problem)
	require.NotNil(t, items[0].Phone)
	assert.Equal(t, "+79001234567", *items[0].Phone)
	require.NotNil(t, items[0].Price)
	assert.Equal(t, 1393, *items[0].Price)
	assert.Equal(t, booking.StepPaymentProof, s.sessions.Get(clientID).Step)

	// Чек переводит оплату в awaiting_review и завершает анкету
	s.HandleMessage(models.Message{ChatID: clientID, PhotoFileID: "receipt_1"})
	item := s.store.GetByPosition(1)
	require.NotNil(t, item)
	assert.Equal(t, models.PaymentStatusAwaitingReview, item.PaymentStatus)
	require.NotNil(t, item.PaymentProof)
	assert.Equal(t, "receipt_1", item.PaymentProof.FileID)
	assert.False(t, s.sessions.InProgress(clientID))
}

func TestConsultInvoiceFlow(t *testing.T) {
	s, tg := newTestService(t, "invoice")

	s.HandleCallback(clientCallback("service:consult"))
	assert.Equal(t, booking.StepPriority, s.sessions.Get(clientID).Step)

	s.HandleCallback(clientCallback("priority:urgent"))
	assert.Equal(t, booking.StepBirthDate, s.sessions.Get(clientID).Step)
	assert.True(t, s.sessions.Get(clientID).IsUrgent)

	s.HandleMessage(clientText("12.03.1990"))
	s.HandleMessage(clientText("Анна"))
	s.HandleMessage(clientText("вопрос про отношения"))
	s.HandleMessage(models.Message{ChatID: clientID, ContactPhone: "+79001234567"})

	// Счёт выставлен, заявка появится только после события оплаты
	require.Len(t, tg.invoices, 1)
	assert.Equal(t, 2500, tg.invoices[0].Amount)
	assert.Equal(t, booking.StepWaitingPayment, s.sessions.Get(clientID).Step)
	assert.Empty(t, s.store.ListAll())

	s.HandleMessage(models.Message{ChatID: clientID, PaymentReceived: true, PaymentAmount: 2500})
	items := s.store.ListAll()
	require.Len(t, items, 1)
	assert.Equal(t, models.PaymentStatusPaid, items[0].PaymentStatus)
	assert.True(t, items[0].IsUrgent)
	assert.Equal(t, 1, items[0].Position)
	assert.False(t, s.sessions.InProgress(clientID))
}

func TestPaymentEventWithoutSessionIsRejected(t *testing.T) {
	s, tg := newTestService(t, "invoice")

	s.HandleMessage(models.Message{ChatID: clientID, PaymentReceived: true, PaymentAmount: 2500})
	assert.Empty(t, s.store.ListAll())
	assert.Equal(t, "Не удалось связать оплату с заявкой. Начните заново через /start.", tg.lastTo(clientID))
}

// deliverResult прогоняет отправку результата администратором по
// оплаченной экспресс-заявке на позиции 1.
func deliverResult(t *testing.T, s *Service) {
	t.Helper()
	s.HandleMessage(models.Message{ChatID: adminID, Text: "/admin_send 1"})
	s.HandleMessage(models.Message{ChatID: adminID, Text: "Ваш расклад: всё сложится."})
}

func addPaidExpressRequest(t *testing.T, s *Service) {
	t.Helper()
	price := 1393
	phone := "+79001234567"
	_, err := s.store.AddRequest(storage.AddParams{
		UserID:        clientID,
		ServiceID:     "express",
		BirthDate:     "12.03.1990",
		Name:          "Анна",
		Problem:       "Интуитивная цифра: 7\nЗапрос: тест",
		Price:         &price,
		Phone:         &phone,
		PaymentStatus: models.PaymentStatusPaid,
	})
	require.NoError(t, err)
}

func TestResultDeliveryOpensReviewStep(t *testing.T) {
	s, tg := newTestService(t, "manual")
	addPaidExpressRequest(t, s)

	// Без доставленного результата текст клиента не считается отзывом
	longText := strings.Repeat("отлично ", 15)
	s.HandleMessage(clientText(longText))
	assert.Empty(t, s.store.ListReviews(""))

	deliverResult(t, s)

	// Клиент получил расклад и приглашение оставить отзыв
	assert.True(t, tg.received(clientID, "Ваш расклад: всё сложится."))
	assert.True(t, tg.received(clientID, askReviewText()))
	assert.Equal(t, booking.StepReview, s.sessions.Get(clientID).Step)

	item := s.store.GetByOrderID(1)
	require.NotNil(t, item)
	assert.True(t, item.ResultSent)
	require.NotNil(t, item.ResultPayload)
	assert.Equal(t, "text", item.ResultPayload.Type)

	// Короткий отзыв переспрашивает, состояние не двигается
	s.HandleMessage(clientText("коротко"))
	assert.Equal(t, reviewTooShortText(), tg.lastTo(clientID))
	assert.Equal(t, booking.StepReview, s.sessions.Get(clientID).Step)

	s.HandleMessage(clientText(longText))
	reviews := s.store.ListReviews("")
	require.Len(t, reviews, 1)
	require.NotNil(t, reviews[0].OrderID)
	assert.Equal(t, 1, *reviews[0].OrderID)
	assert.Equal(t, "express", reviews[0].ServiceID)
	require.NotNil(t, reviews[0].Name)
	assert.Equal(t, "Анна", *reviews[0].Name)
	assert.False(t, s.sessions.InProgress(clientID))
}

func TestReviewSkip(t *testing.T) {
	s, _ := newTestService(t, "manual")
	addPaidExpressRequest(t, s)
	deliverResult(t, s)

	s.HandleCallback(clientCallback("review_skip"))

	item := s.store.GetByOrderID(1)
	require.NotNil(t, item)
	assert.NotNil(t, item.ReviewSkipped)
	assert.Empty(t, s.store.ListReviews(""))
	assert.False(t, s.sessions.InProgress(clientID))
}

// TestConcurrentCallbackAndMessage гоняет нажатие кнопки и текстовое
// сообщение одного клиента из двух горутин, как их разносит боевой
// цикл обработки. Под -race проверяет, что сессия не мутируется
// без синхронизации, и что шаг анкеты остаётся согласованным.
func TestConcurrentCallbackAndMessage(t *testing.T) {
	s, _ := newTestService(t, "manual")

	for i := 0; i < 50; i++ {
		s.sessions.Reset(clientID)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.HandleCallback(clientCallback("service:express"))
		}()
		go func() {
			defer wg.Done()
			s.HandleMessage(clientText("12.03.1990"))
		}()
		wg.Wait()

		// Кнопка ставит шаг даты рождения; сообщение либо пришло
		// раньше (проигнорировано), либо позже (продвинуло к имени)
		step := s.sessions.Get(clientID).Step
		assert.Contains(t, []booking.Step{booking.StepBirthDate, booking.StepName}, step)
	}
}

func TestSendResultWarnsWhenOrderVanished(t *testing.T) {
	s, tg := newTestService(t, "manual")
	addPaidExpressRequest(t, s)
	s.HandleMessage(models.Message{ChatID: adminID, Text: "/admin_send 1"})

	// Заявка исчезает из обоих хранилищ до отправки результата
	deleted, err := s.store.DeleteAndArchive(1)
	require.NoError(t, err)
	require.True(t, deleted)
	require.NoError(t, s.store.ClearHistory())

	s.HandleMessage(models.Message{ChatID: adminID, Text: "Ваш расклад готов."})

	// Клиент сообщение получил, но отметка не записана — админ
	// предупреждён, а не введён в заблуждение
	assert.True(t, tg.received(clientID, "Ваш расклад готов."))
	assert.Contains(t, tg.lastTo(adminID), "не найдена")
	assert.False(t, tg.received(adminID, "Расклад отправлен пользователю (заявка №1)."))

	// Шаг отзыва не открывается: привязывать его не к чему
	assert.NotEqual(t, booking.StepReview, s.sessions.Get(clientID).Step)
	assert.Nil(t, s.currentSendTarget(adminID))
}

func TestSendResultRequiresPaidExpress(t *testing.T) {
	s, tg := newTestService(t, "manual")

	price := 1393
	_, err := s.store.AddRequest(storage.AddParams{
		UserID:    clientID,
		ServiceID: "express",
		Name:      "Анна",
		Price:     &price,
	})
	require.NoError(t, err)

	s.HandleMessage(models.Message{ChatID: adminID, Text: "/admin_send 1"})
	assert.Equal(t, "Нельзя отправить расклад до оплаты.", tg.lastTo(adminID))
	assert.Nil(t, s.currentSendTarget(adminID))
}

func TestAdminAccessControl(t *testing.T) {
	s, tg := newTestService(t, "manual")
	addPaidExpressRequest(t, s)

	// Посторонний не имеет доступа к админ-командам
	s.HandleMessage(models.Message{ChatID: strangerID, Text: "/admin_pay 1"})
	assert.Equal(t, accessDeniedText(), tg.lastTo(strangerID))
	item := s.store.GetByPosition(1)
	require.NotNil(t, item)
	assert.Equal(t, models.PaymentStatusPaid, item.PaymentStatus)

	// Модератору доступен просмотр, но не мутации
	s.HandleMessage(models.Message{ChatID: moderatorID, Text: "/admin"})
	assert.Equal(t, "Выберите раздел:", tg.lastTo(moderatorID))
	s.HandleMessage(models.Message{ChatID: moderatorID, Text: "/admin_delete 1"})
	assert.Equal(t, accessDeniedText(), tg.lastTo(moderatorID))
	require.Len(t, s.store.ListAll(), 1)

	// Администратор меняет статусы
	s.HandleMessage(models.Message{ChatID: adminID, Text: "/admin_done 1"})
	item = s.store.GetByPosition(1)
	require.NotNil(t, item)
	assert.Equal(t, models.SessionStatusDone, item.SessionStatus)
}

func TestAdminDeleteCommand(t *testing.T) {
	s, tg := newTestService(t, "manual")
	addPaidExpressRequest(t, s)

	s.HandleMessage(models.Message{ChatID: adminID, Text: "/admin_delete 1"})
	assert.Empty(t, s.store.ListAll())
	require.Len(t, s.store.ListHistory(0), 1)

	s.HandleMessage(models.Message{ChatID: adminID, Text: "/admin_delete 1"})
	assert.Equal(t, positionNotFoundText(), tg.lastTo(adminID))
}
