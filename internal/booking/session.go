package booking

import (
	"sync"
	"time"
)

// Step — шаг машины состояний записи.
type Step string

const (
	StepNone            Step = ""                 // нет активного диалога
	StepPriority        Step = "priority"         // выбор типа записи (обычная/срочная)
	StepBirthDate       Step = "birth_date"       // ввод даты рождения
	StepName            Step = "name"             // ввод имени / ФИО
	StepIntuitiveNumber Step = "intuition_number" // интуитивная цифра (экспресс)
	StepProblem         Step = "problem"          // описание запроса
	StepPhone           Step = "phone"            // телефон через кнопку контакта
	StepWaitingPayment  Step = "waiting_payment"  // ждём событие оплаты от провайдера
	StepPaymentProof    Step = "payment_proof"    // ждём фото/документ с чеком
	StepReview          Step = "review"           // ждём текст отзыва
)

// Session — черновик заявки одного клиента. Живёт только в памяти:
// рестарт процесса теряет незавершённые анкеты, это принятое
// ограничение. Поля Review* заполняются при отправке результата
// администратором и связывают отзыв с уже (возможно) архивной заявкой.
type Session struct {
	Step            Step
	ServiceID       string
	IsUrgent        bool
	Price           *int
	BirthDate       string
	Name            string
	IntuitiveNumber *int
	Problem         string
	Phone           string
	LastPosition    int

	ReviewOrderID        *int
	ReviewName           *string
	ReviewBirthDate      *string
	ReviewOrderCreatedAt *time.Time
}

// Sessions — потокобезопасное хранилище сессий по id клиента.
// Сессия создаётся лениво при первом обращении и перезаписывается
// по /start; срока жизни у неё нет.
type Sessions struct {
	mu       sync.Mutex
	sessions map[int64]*Session
}

func NewSessions() *Sessions {
	return &Sessions{
		sessions: make(map[int64]*Session),
	}
}

// Get возвращает сессию клиента, создавая пустую при первом обращении.
func (s *Sessions) Get(userID int64) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[userID]
	if !ok {
		session = &Session{}
		s.sessions[userID] = session
	}
	return session
}

// Reset сбрасывает сессию клиента в начальное состояние.
func (s *Sessions) Reset(userID int64) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := &Session{}
	s.sessions[userID] = session
	return session
}

// InProgress сообщает, есть ли у клиента активный шаг анкеты.
func (s *Sessions) InProgress(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[userID]
	return ok && session.Step != StepNone
}
