package telegram

import (
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/shibapc/gadalka/internal/models"
)

// Client — обёртка над Bot API: превращает long polling в типизированные
// каналы событий и прячет детали отправки сообщений от остального кода.
type Client struct {
	bot *tgbotapi.BotAPI
}

func NewClient(token string) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("error creating telegram client: %w", err)
	}

	return &Client{bot: bot}, nil
}

func (t *Client) SendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := t.bot.Send(msg)
	return err
}

func (t *Client) SendMarkdownMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	_, err := t.bot.Send(msg)
	return err
}

func (t *Client) SendMessageWithKeyboard(chatID int64, text string, keyboard tgbotapi.ReplyKeyboardMarkup) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboard
	_, err := t.bot.Send(msg)
	return err
}

func (t *Client) SendMessageWithInlineKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboard
	_, err := t.bot.Send(msg)
	return err
}

// SendMessageRemoveKeyboard отправляет текст и убирает reply-клавиатуру
// (например, кнопку "поделиться телефоном").
func (t *Client) SendMessageRemoveKeyboard(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	_, err := t.bot.Send(msg)
	return err
}

// EditMessageText редактирует текст и клавиатуру существующего
// сообщения. Telegram отклоняет правку слишком старых сообщений,
// поэтому вызывающая сторона при ошибке шлёт новое сообщение.
func (t *Client) EditMessageText(chatID int64, messageID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) error {
	editMsg := tgbotapi.NewEditMessageText(chatID, messageID, text)
	editMsg.ReplyMarkup = keyboard
	_, err := t.bot.Send(editMsg)
	return err
}

func (t *Client) SendPhoto(chatID int64, fileID string, caption string) error {
	msg := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(fileID))
	msg.Caption = caption
	_, err := t.bot.Send(msg)
	return err
}

func (t *Client) SendDocument(chatID int64, fileID string, caption string) error {
	msg := tgbotapi.NewDocument(chatID, tgbotapi.FileID(fileID))
	msg.Caption = caption
	_, err := t.bot.Send(msg)
	return err
}

// SendInvoice выставляет счёт платёжного провайдера. Сумма — в рублях,
// Bot API принимает копейки.
func (t *Client) SendInvoice(chatID int64, title, description, providerToken string, amount int) error {
	invoice := tgbotapi.NewInvoice(
		chatID,
		title,
		description,
		"prepay",
		providerToken,
		"",
		"RUB",
		[]tgbotapi.LabeledPrice{{Label: title, Amount: amount * 100}},
	)
	_, err := t.bot.Request(invoice)
	return err
}

// AnswerCallback снимает индикатор загрузки с кнопки; alert показывает
// всплывающее окно вместо тоста.
func (t *Client) AnswerCallback(callbackID string, text string, alert bool) error {
	callback := tgbotapi.NewCallback(callbackID, text)
	if alert {
		callback = tgbotapi.NewCallbackWithAlert(callbackID, text)
	}
	_, err := t.bot.Request(callback)
	return err
}

// StartBot запускает long polling и раскладывает обновления по двум
// каналам: сообщения и callback-запросы. Pre-checkout подтверждается
// здесь же — без ответа Telegram показывает клиенту ошибку оплаты.
func (t *Client) StartBot() (chan models.Message, chan models.CallbackQuery, error) {
	// Удаляем вебхук перед запуском Long Polling
	_, err := t.bot.Request(tgbotapi.DeleteWebhookConfig{})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to delete webhook: %v", err)
	}

	// Пауза для стабилизации соединения
	time.Sleep(1 * time.Second)

	messages := make(chan models.Message)
	callbacks := make(chan models.CallbackQuery)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := t.bot.GetUpdatesChan(u)

	go func() {
		for update := range updates {
			if update.PreCheckoutQuery != nil {
				// Обязательный ответ, иначе клиент видит ошибку оплаты
				t.bot.Request(tgbotapi.PreCheckoutConfig{
					PreCheckoutQueryID: update.PreCheckoutQuery.ID,
					OK:                 true,
				})
			}

			if update.Message != nil {
				messages <- convertMessage(update.Message)
			}

			if update.CallbackQuery != nil {
				cb := update.CallbackQuery
				userName := cb.From.FirstName
				if cb.From.LastName != "" {
					userName += " " + cb.From.LastName
				}

				callbacks <- models.CallbackQuery{
					ID:        cb.ID,
					UserID:    cb.From.ID,
					UserName:  userName,
					UserLogin: cb.From.UserName,
					MessageID: cb.Message.MessageID,
					ChatID:    cb.Message.Chat.ID,
					Data:      cb.Data,
				}
			}
		}
	}()

	return messages, callbacks, nil
}

func convertMessage(m *tgbotapi.Message) models.Message {
	fullName := m.From.FirstName
	if m.From.LastName != "" {
		fullName += " " + m.From.LastName
	}

	msg := models.Message{
		ChatID:   m.Chat.ID,
		Text:     m.Text,
		Username: m.From.UserName,
		FullName: fullName,
		Caption:  m.Caption,
	}

	if m.Contact != nil {
		msg.ContactPhone = m.Contact.PhoneNumber
	}
	if len(m.Photo) > 0 {
		// Последний элемент — самое большое разрешение
		msg.PhotoFileID = m.Photo[len(m.Photo)-1].FileID
	}
	if m.Document != nil {
		msg.DocumentFileID = m.Document.FileID
	}
	if m.SuccessfulPayment != nil {
		msg.PaymentReceived = true
		msg.PaymentAmount = m.SuccessfulPayment.TotalAmount / 100
	}

	return msg
}
