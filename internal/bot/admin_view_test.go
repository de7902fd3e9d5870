package bot

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shibapc/gadalka/internal/models"
	"github.com/shibapc/gadalka/internal/storage"
)

func adminCallback(data string) models.CallbackQuery {
	return models.CallbackQuery{ID: "cb", UserID: adminID, ChatID: adminID, MessageID: 7, Data: data}
}

func TestListViewShowsOnlyPaidEntries(t *testing.T) {
	s, _ := newTestService(t, "manual")
	addPaidExpressRequest(t, s)
	_, err := s.store.AddRequest(storage.AddParams{UserID: 11, ServiceID: "express", Name: "Борис"})
	require.NoError(t, err)

	text, _ := s.buildListView("all", 1, "")
	assert.Contains(t, text, "Анна")
	assert.NotContains(t, text, "Борис")
	assert.Contains(t, text, "всего 1")
}

func TestListViewPagination(t *testing.T) {
	s, _ := newTestService(t, "manual")
	names := []string{"Анна", "Борис", "Вера", "Галина", "Дарья", "Елена", "Жанна"}
	for _, name := range names {
		_, err := s.store.AddRequest(storage.AddParams{
			UserID:        clientID,
			ServiceID:     "consult",
			Name:          name,
			PaymentStatus: models.PaymentStatusPaid,
		})
		require.NoError(t, err)
	}

	// Страница 1 — первые пять, страница 2 — остаток
	text, _ := s.buildListView("all", 1, "")
	assert.Contains(t, text, "Анна")
	assert.Contains(t, text, "Дарья")
	assert.NotContains(t, text, "Елена")

	text, _ = s.buildListView("all", 2, "")
	assert.Contains(t, text, "Елена")
	assert.Contains(t, text, "Жанна")
	assert.NotContains(t, text, "Анна")
}

func TestListViewServiceFilter(t *testing.T) {
	s, _ := newTestService(t, "manual")
	addPaidExpressRequest(t, s)
	_, err := s.store.AddRequest(storage.AddParams{
		UserID:        11,
		ServiceID:     "consult",
		Name:          "Борис",
		PaymentStatus: models.PaymentStatusPaid,
	})
	require.NoError(t, err)

	text, _ := s.buildListView("all", 1, "consult")
	assert.Contains(t, text, "Борис")
	assert.NotContains(t, text, "Анна")
	assert.Contains(t, text, "Сеанс гадания")
}

func TestStatsView(t *testing.T) {
	s, _ := newTestService(t, "manual")
	addPaidExpressRequest(t, s)
	deleted, err := s.store.DeleteAndArchive(1)
	require.NoError(t, err)
	require.True(t, deleted)

	text, _ := s.buildListView("stats", 1, "")
	assert.Contains(t, text, "Всего заказов: 1")
	assert.Contains(t, text, "Сумма: 1393₽")
}

func TestAdminCallbackDeniedForStranger(t *testing.T) {
	s, tg := newTestService(t, "manual")

	s.HandleCallback(models.CallbackQuery{ID: "cb", UserID: strangerID, ChatID: strangerID, Data: "adm:stats"})
	// Никаких сообщений постороннему, только отказ в callback
	assert.Equal(t, "", tg.lastTo(strangerID))
}

func TestClearHistoryConfirmFlow(t *testing.T) {
	s, tg := newTestService(t, "manual")
	addPaidExpressRequest(t, s)
	deleted, err := s.store.DeleteAndArchive(1)
	require.NoError(t, err)
	require.True(t, deleted)

	s.HandleCallback(adminCallback("adm:clear_history"))
	assert.True(t, strings.Contains(tg.lastTo(adminID), "нельзя отменить"))
	require.Len(t, s.store.ListHistory(0), 1)

	s.HandleCallback(adminCallback("adm:clear_history_confirm"))
	assert.Empty(t, s.store.ListHistory(0))
}

func TestPayCallbackUpdatesStatus(t *testing.T) {
	s, _ := newTestService(t, "manual")
	_, err := s.store.AddRequest(storage.AddParams{UserID: clientID, ServiceID: "express", Name: "Анна"})
	require.NoError(t, err)

	s.HandleCallback(adminCallback("adm:pay:1:paid"))
	item := s.store.GetByPosition(1)
	require.NotNil(t, item)
	assert.Equal(t, models.PaymentStatusPaid, item.PaymentStatus)

	s.HandleCallback(adminCallback("adm:pay:1:pending"))
	item = s.store.GetByPosition(1)
	require.NotNil(t, item)
	assert.Equal(t, models.PaymentStatusPending, item.PaymentStatus)
}

func TestSessionCallbackEditsCardInPlace(t *testing.T) {
	s, tg := newTestService(t, "manual")
	addPaidExpressRequest(t, s)

	s.HandleCallback(adminCallback("adm:session:1:done"))

	item := s.store.GetByPosition(1)
	require.NotNil(t, item)
	assert.Equal(t, models.SessionStatusDone, item.SessionStatus)

	// Карточка обновляется правкой существующего сообщения,
	// как и остальные виды, а не новым сообщением
	require.NotEmpty(t, tg.edits)
	last := tg.edits[len(tg.edits)-1]
	assert.Equal(t, adminID, last.ChatID)
	assert.Contains(t, last.Text, "Сеанс: проведён")
}

func TestResultCallbackReplaysStoredPayload(t *testing.T) {
	s, tg := newTestService(t, "manual")
	addPaidExpressRequest(t, s)
	deliverResult(t, s)

	// Результат доступен и после архивации заявки
	deleted, err := s.store.DeleteAndArchive(1)
	require.NoError(t, err)
	require.True(t, deleted)

	s.HandleCallback(adminCallback("adm:result:1"))
	assert.True(t, tg.received(adminID, "Расклад по заявке №1:\n\nВаш расклад: всё сложится."))
}
