package models

import "time"

type PaymentStatus string

const (
	PaymentStatusPending        PaymentStatus = "pending"         // оплата не подтверждена
	PaymentStatusAwaitingReview PaymentStatus = "awaiting_review" // чек загружен, ждёт проверки администратором
	PaymentStatusPaid           PaymentStatus = "paid"            // оплачено
)

type SessionStatus string

const (
	SessionStatusPending SessionStatus = "pending" // сеанс ещё не проведён
	SessionStatusDone    SessionStatus = "done"    // сеанс проведён
)

// SchemaVersion — текущая версия записи заявки в файлах хранилища.
// Записи более старых версий дополняются значениями по умолчанию
// один раз при загрузке (см. storage.MigrateRequest).
const SchemaVersion = 2

// PaymentProof — ссылка на чек об оплате, присланный клиентом.
type PaymentProof struct {
	Type   string `json:"type"` // photo / document / unknown
	FileID string `json:"file_id"`
}

// ResultPayload — результат работы (расклад), отправленный клиенту.
// Хранится как непрозрачный дескриптор: текст либо ссылка на файл в Telegram.
type ResultPayload struct {
	Type    string `json:"type"` // text / photo / document
	FileID  string `json:"file_id,omitempty"`
	Caption string `json:"caption,omitempty"`
	Text    string `json:"text,omitempty"`
}

// Request — заявка в живой очереди.
//
// OrderID выдаётся аллокатором и уникален сквозь очередь и архив.
// Position — производное поле: пересчитывается при каждом чтении
// (срочные впереди, внутри класса — по дате создания) и не является
// истиной в файле.
type Request struct {
	OrderID       int            `json:"order_id"`
	UserID        int64          `json:"user_id"`
	ServiceID     string         `json:"service_id"`
	BirthDate     string         `json:"birth_date"`
	Name          string         `json:"name"`
	Problem       string         `json:"problem"`
	UserUsername  *string        `json:"user_username"`
	UserFullname  *string        `json:"user_fullname"`
	Phone         *string        `json:"phone"`
	IsUrgent      bool           `json:"is_urgent"`
	Price         *int           `json:"price"`
	PaymentStatus PaymentStatus  `json:"payment_status"`
	SessionStatus SessionStatus  `json:"session_status"`
	PaymentProof  *PaymentProof  `json:"payment_proof"`
	ResultSent    bool           `json:"result_sent"`
	ResultPayload *ResultPayload `json:"result_payload,omitempty"`
	ReviewSkipped *time.Time     `json:"review_skipped_at,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	Position      int            `json:"position"`
	Schema        int            `json:"schema_version"`
}

// ArchivedRequest — заявка, перенесённая из очереди в архив.
// Все поля заявки замораживаются как есть; добавляются только
// номер в архиве и момент архивации.
type ArchivedRequest struct {
	Request
	ArchiveID  int       `json:"archive_id"`
	ArchivedAt time.Time `json:"archived_at"`
}

// Review — отзыв клиента. Живёт независимо от заявки: поля
// Name/BirthDate/OrderCreatedAt денормализованы, чтобы отзыв
// отображался и после архивации исходной заявки.
type Review struct {
	ReviewID       int        `json:"review_id"`
	OrderID        *int       `json:"order_id"`
	UserID         int64      `json:"user_id"`
	ServiceID      string     `json:"service_id"`
	Text           string     `json:"text"`
	UserUsername   *string    `json:"user_username"`
	UserFullname   *string    `json:"user_fullname"`
	Name           *string    `json:"name"`
	BirthDate      *string    `json:"birth_date"`
	OrderCreatedAt *time.Time `json:"order_created_at"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Message — входящее сообщение пользователя, как его отдаёт транспорт.
type Message struct {
	ChatID   int64
	Text     string
	Username string
	FullName string

	// Контакт, переданный кнопкой "поделиться телефоном"
	ContactPhone string

	// Вложение (фото или документ), если есть
	PhotoFileID    string
	DocumentFileID string
	Caption        string

	// Успешная оплата счёта провайдера
	PaymentReceived bool
	PaymentAmount   int
}

// CallbackQuery — нажатие на инлайн-кнопку.
type CallbackQuery struct {
	ID        string
	UserID    int64
	UserName  string
	UserLogin string
	MessageID int
	ChatID    int64
	Data      string
}
