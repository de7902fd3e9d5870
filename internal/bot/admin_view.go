package bot

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/shibapc/gadalka/internal/booking"
	"github.com/shibapc/gadalka/internal/models"
)

// handleAdminCallback — инлайн-меню администратора: фильтры,
// пагинация, карточки заявок, архив, отзывы, статистика.
func (s *Service) handleAdminCallback(cb models.CallbackQuery) {
	if !s.cfg.IsModerator(cb.UserID) {
		s.telegram.AnswerCallback(cb.ID, accessDeniedText(), true)
		return
	}

	switch {
	case strings.HasPrefix(cb.Data, "adm:service:"):
		s.cbAdminService(cb)
	case cb.Data == "adm:stats":
		s.cbAdminStats(cb)
	case strings.HasPrefix(cb.Data, "adm:menu:"):
		s.sendServiceSelect(cb.ChatID, "all")
		s.telegram.AnswerCallback(cb.ID, "", false)
	case strings.HasPrefix(cb.Data, "adm:list:"):
		s.cbAdminList(cb)
	case strings.HasPrefix(cb.Data, "adm:item:"):
		s.cbAdminItem(cb)
	case strings.HasPrefix(cb.Data, "adm:pay:"):
		s.cbAdminPay(cb)
	case strings.HasPrefix(cb.Data, "adm:session:"):
		s.cbAdminSession(cb)
	case strings.HasPrefix(cb.Data, "adm:delete:"):
		s.cbAdminDelete(cb)
	case strings.HasPrefix(cb.Data, "adm:send:"):
		s.cbAdminSend(cb)
	case strings.HasPrefix(cb.Data, "adm:review:"):
		s.cbAdminReview(cb)
	case strings.HasPrefix(cb.Data, "adm:result:"):
		s.cbAdminResult(cb)
	case cb.Data == "adm:clear_history":
		s.cbClearHistory(cb)
	case cb.Data == "adm:clear_history_confirm":
		s.cbClearHistoryConfirm(cb)
	case cb.Data == "adm:clear_history_cancel":
		s.cbClearHistoryCancel(cb)
	case strings.HasPrefix(cb.Data, "adm:architem:"):
		// Карточки архивных заявок не раскрываем
		s.telegram.AnswerCallback(cb.ID, "Просмотр архивной заявки отключен", true)
	default:
		s.telegram.AnswerCallback(cb.ID, "", false)
	}
}

// parseListCallback разбирает adm:list:<фильтр>:<услуга>:<страница>.
// Старый формат без услуги (4 части) тоже принимается: такие кнопки
// ещё живут в переписке.
func parseListCallback(data string) (filterKey, serviceID string, page int) {
	parts := strings.Split(data, ":")
	if len(parts) == 4 {
		filterKey = parts[2]
		page, _ = strconv.Atoi(parts[3])
	} else if len(parts) >= 5 {
		filterKey = parts[2]
		serviceID = parts[3]
		page, _ = strconv.Atoi(parts[4])
	}
	if serviceID == "all" {
		serviceID = ""
	}
	if page < 1 {
		page = 1
	}
	return filterKey, serviceID, page
}

func parseItemCallback(data string) (filterKey, serviceID string, pos int) {
	filterKey, serviceID, pos = "", "", 0
	parts := strings.Split(data, ":")
	if len(parts) == 4 {
		filterKey = parts[2]
		pos, _ = strconv.Atoi(parts[3])
	} else if len(parts) >= 5 {
		filterKey = parts[2]
		serviceID = parts[3]
		pos, _ = strconv.Atoi(parts[4])
	}
	if serviceID == "all" {
		serviceID = ""
	}
	return filterKey, serviceID, pos
}

func serviceCode(serviceID string) string {
	if serviceID == "" {
		return "all"
	}
	return serviceID
}

// loadItems собирает заявки для списочного вида. Инлайн-меню работает
// только с оплаченными заявками; архив показывается как есть.
func (s *Service) loadItems(filterKey, serviceID string) []models.Request {
	var items []models.Request
	switch filterKey {
	case "paid":
		items = s.store.ListByPaymentStatus(models.PaymentStatusPaid)
	case "done":
		for _, item := range s.store.ListAll() {
			if item.SessionStatus == models.SessionStatusDone {
				items = append(items, item)
			}
		}
	case "notdone":
		for _, item := range s.store.ListAll() {
			if item.SessionStatus != models.SessionStatusDone {
				items = append(items, item)
			}
		}
	default:
		items = s.store.ListAll()
	}

	filtered := items[:0]
	for _, item := range items {
		if serviceID != "" && item.ServiceID != serviceID {
			continue
		}
		if item.PaymentStatus != models.PaymentStatusPaid {
			continue
		}
		filtered = append(filtered, item)
	}
	return filtered
}

var filterTitles = map[string]string{
	"all":     "Все",
	"paid":    "Оплачено",
	"done":    "Проведено",
	"notdone": "Не проведено",
	"arch":    "Архив",
	"reviews": "Отзывы",
}

func sessionStatusLabel(status models.SessionStatus) string {
	if status == models.SessionStatusDone {
		return "проведён"
	}
	return "не проведён"
}

func paymentStatusLabel(status models.PaymentStatus) string {
	switch status {
	case models.PaymentStatusPaid:
		return "оплачено"
	case models.PaymentStatusAwaitingReview:
		return "чек на проверке"
	default:
		return "неоплачено"
	}
}

func (s *Service) buildFilterButtons(current, serviceID string) [][]tgbotapi.InlineKeyboardButton {
	if current == "reviews" || current == "arch" {
		return nil
	}
	code := serviceCode(serviceID)
	items := []struct{ key, label string }{
		{"all", "Все"},
		{"done", "✅ Проведено"},
		{"notdone", "❌ Не проведено"},
		{"arch", "🗑 Архив"},
		{"reviews", "💬 Отзывы"},
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, item := range items {
		label := item.label
		if item.key == current {
			label = "✓ " + label
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("adm:list:%s:%s:1", item.key, code)),
		))
	}
	return rows
}

// reviewEntry — строка списка отзывов: заявка (живая или архивная)
// плюс признак наличия отзыва.
type reviewEntry struct {
	OrderID   int
	Name      string
	BirthDate string
	CreatedAt time.Time
}

func (s *Service) loadReviewEntries(serviceID string) []reviewEntry {
	var entries []reviewEntry
	appendEntry := func(item models.Request) {
		if serviceID != "" && item.ServiceID != serviceID {
			return
		}
		name := item.Name
		if name == "" && item.UserFullname != nil {
			name = *item.UserFullname
		}
		if name == "" {
			name = fmt.Sprintf("id:%d", item.UserID)
		}
		birthDate := item.BirthDate
		if birthDate == "" {
			birthDate = "—"
		}
		entries = append(entries, reviewEntry{
			OrderID:   item.OrderID,
			Name:      name,
			BirthDate: birthDate,
			CreatedAt: item.CreatedAt,
		})
	}

	for _, item := range s.store.ListAll() {
		appendEntry(item)
	}
	for _, item := range s.store.ListHistory(0) {
		appendEntry(item.Request)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	return entries
}

// buildListView строит текст и клавиатуру списочного вида для фильтра
// и страницы. Пагинация идёт по актуальному (пересчитанному) порядку.
func (s *Service) buildListView(filterKey string, page int, serviceID string) (string, tgbotapi.InlineKeyboardMarkup) {
	if filterKey == "stats" {
		totalOrders, totalSum := s.store.HistoryStats()
		text := fmt.Sprintf("Статистика продаж\nВсего заказов: %d\nСумма: %d₽", totalOrders, totalSum)
		keyboard := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("⬅️ В меню", "adm:menu:all")),
		)
		return text, keyboard
	}

	pageSize := s.cfg.Admin.PageSize
	start := (page - 1) * pageSize
	code := serviceCode(serviceID)

	var lines []string
	var rows [][]tgbotapi.InlineKeyboardButton
	var total int

	switch filterKey {
	case "reviews":
		entries := s.loadReviewEntries(serviceID)
		total = len(entries)
		lines = append(lines, fmt.Sprintf("Отзывы (страница %d). Выбери отзыв:", page))
		if serviceID != "" {
			lines = append(lines, "Раздел: "+s.serviceLabel(serviceID))
		}
		chunk := pageSlice(entries, start, pageSize)
		if len(chunk) == 0 {
			lines = append(lines, "Записей нет.")
		}
		for i, entry := range chunk {
			mark := "❌"
			if s.store.GetReviewForOrder(entry.OrderID) != nil {
				mark = "✅"
			}
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(
					fmt.Sprintf("№%d %s | %s %s", total-(start+i), entry.Name, entry.BirthDate, mark),
					fmt.Sprintf("adm:review:%s:%d", code, entry.OrderID),
				),
			))
		}

	case "arch":
		archive := s.store.ListHistory(100)
		var entries []models.ArchivedRequest
		for _, item := range archive {
			if serviceID != "" && item.ServiceID != serviceID {
				continue
			}
			entries = append(entries, item)
		}
		total = len(entries)
		lines = append(lines, fmt.Sprintf("Фильтр: %s, страница %d, всего %d", filterTitles["arch"], page, total))
		if serviceID != "" {
			lines = append(lines, "Раздел: "+s.serviceLabel(serviceID))
		}
		chunk := pageSlice(entries, start, pageSize)
		if len(chunk) == 0 {
			lines = append(lines, "Записей нет.")
		}
		for _, item := range chunk {
			lines = append(lines, fmt.Sprintf("№%d – %s (%s)", item.ArchiveID, item.Name, sessionStatusLabel(item.SessionStatus)))
		}

	default:
		items := s.loadItems(filterKey, serviceID)
		total = len(items)
		title := filterTitles[filterKey]
		if title == "" {
			title = filterKey
		}
		lines = append(lines, fmt.Sprintf("Фильтр: %s, страница %d, всего %d", title, page, total))
		if serviceID != "" {
			lines = append(lines, "Раздел: "+s.serviceLabel(serviceID))
		}
		chunk := pageSlice(items, start, pageSize)
		if len(chunk) == 0 {
			lines = append(lines, "Записей нет.")
		}
		for _, item := range chunk {
			lines = append(lines, fmt.Sprintf("№%d – %s (%s)", item.Position, item.Name, sessionStatusLabel(item.SessionStatus)))
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(
					fmt.Sprintf("№%d", item.Position),
					fmt.Sprintf("adm:item:%s:%s:%d", filterKey, code, item.Position),
				),
			))
		}
	}

	rows = append(rows, s.buildFilterButtons(filterKey, serviceID)...)
	if start > 0 {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Назад", fmt.Sprintf("adm:list:%s:%s:%d", filterKey, code, page-1)),
		))
	}
	if start+pageSize < total {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➡️ Далее", fmt.Sprintf("adm:list:%s:%s:%d", filterKey, code, page+1)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬅️ В меню", "adm:menu:all"),
	))

	return strings.Join(lines, "\n"), tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func pageSlice[T any](items []T, start, size int) []T {
	if start >= len(items) {
		return nil
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// showListView редактирует сообщение под новый вид; если Telegram
// отказал в правке, отправляет новое сообщение.
func (s *Service) showListView(cb models.CallbackQuery, filterKey string, page int, serviceID string) {
	text, keyboard := s.buildListView(filterKey, page, serviceID)
	if filterKey == "arch" {
		keyboard.InlineKeyboard = append(keyboard.InlineKeyboard, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 Очистить архив", "adm:clear_history"),
		))
	}
	if err := s.telegram.EditMessageText(cb.ChatID, cb.MessageID, text, &keyboard); err != nil {
		s.telegram.SendMessageWithInlineKeyboard(cb.ChatID, text, keyboard)
	}
	s.telegram.AnswerCallback(cb.ID, "", false)
}

func (s *Service) cbAdminService(cb models.CallbackQuery) {
	parts := strings.SplitN(cb.Data, ":", 4)
	if len(parts) < 4 {
		s.telegram.AnswerCallback(cb.ID, "", false)
		return
	}
	serviceID, filterKey := parts[2], parts[3]
	s.showListView(cb, filterKey, 1, serviceID)
}

func (s *Service) cbAdminStats(cb models.CallbackQuery) {
	text, keyboard := s.buildListView("stats", 1, "")
	if err := s.telegram.EditMessageText(cb.ChatID, cb.MessageID, text, &keyboard); err != nil {
		s.telegram.SendMessageWithInlineKeyboard(cb.ChatID, text, keyboard)
	}
	s.telegram.AnswerCallback(cb.ID, "", false)
}

func (s *Service) cbAdminList(cb models.CallbackQuery) {
	filterKey, serviceID, page := parseListCallback(cb.Data)
	s.showListView(cb, filterKey, page, serviceID)
}

func (s *Service) formatItemCard(item *models.Request) string {
	contact := fmt.Sprintf("id:%d", item.UserID)
	if item.UserFullname != nil {
		contact = *item.UserFullname
	}
	if item.UserUsername != nil {
		contact = "@" + *item.UserUsername
	}
	phone := "—"
	if item.Phone != nil {
		phone = *item.Phone
	}
	price := s.cfg.ServicePrice(item.ServiceID)
	if item.Price != nil {
		price = *item.Price
	}
	urgent := ""
	if item.IsUrgent {
		urgent = "срочно "
	}
	resultMark := "не отправлен ❌"
	if item.ResultSent {
		resultMark = "отправлен ✅"
	}
	number, problem := booking.SplitProblem(item.Problem)
	if number == "" {
		number = "—"
	}
	if problem == "" {
		problem = "—"
	}

	lines := []string{
		fmt.Sprintf("Заявка №%d", item.Position),
		"Имя: " + item.Name,
		"ДР: " + item.BirthDate,
		fmt.Sprintf("Услуга: %s (%s%d₽)", item.ServiceID, urgent, price),
		"Оплата: " + paymentStatusLabel(item.PaymentStatus),
		"Сеанс: " + sessionStatusLabel(item.SessionStatus),
		"Расклад: " + resultMark,
		"Интуитивная цифра: " + number,
		"Описание: " + problem,
		"Создано: " + item.CreatedAt.Format("02.01.2006 15:04"),
		"Контакт: " + contact,
		"Телефон: " + phone,
	}
	return strings.Join(lines, "\n")
}

func (s *Service) buildItemActions(item *models.Request, superAdmin bool, filterKey, serviceID string) tgbotapi.InlineKeyboardMarkup {
	code := serviceCode(serviceID)
	var rows [][]tgbotapi.InlineKeyboardButton

	if superAdmin {
		if item.ResultSent && item.OrderID != 0 {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("📨 Посмотреть расклад", fmt.Sprintf("adm:result:%d", item.OrderID)),
			))
		} else if item.ServiceID == expressServiceID && item.PaymentStatus == models.PaymentStatusPaid {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("📨 Отправить расклад", fmt.Sprintf("adm:send:%s:%d", code, item.Position)),
			))
		}

		doneLabel, pendingLabel := "Сеанс проведён", "Сеанс не проведён"
		if item.SessionStatus == models.SessionStatusDone {
			doneLabel = "✅ " + doneLabel
		} else {
			pendingLabel = "✅ " + pendingLabel
		}
		rows = append(rows,
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(doneLabel, fmt.Sprintf("adm:session:%d:done", item.Position)),
			),
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(pendingLabel, fmt.Sprintf("adm:session:%d:pending", item.Position)),
			),
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("🗑 Удалить в архив", fmt.Sprintf("adm:delete:%s:%d", code, item.Position)),
			),
		)
	}

	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬅️ К списку", fmt.Sprintf("adm:list:%s:%s:1", filterKey, code)),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (s *Service) cbAdminItem(cb models.CallbackQuery) {
	filterKey, serviceID, pos := parseItemCallback(cb.Data)
	item := s.store.GetByPosition(pos)
	if item == nil {
		s.telegram.AnswerCallback(cb.ID, "Не найдено", true)
		return
	}

	keyboard := s.buildItemActions(item, s.cfg.IsAdmin(cb.UserID), filterKey, serviceID)
	if err := s.telegram.EditMessageText(cb.ChatID, cb.MessageID, s.formatItemCard(item), &keyboard); err != nil {
		s.telegram.SendMessageWithInlineKeyboard(cb.ChatID, s.formatItemCard(item), keyboard)
	}
	s.telegram.AnswerCallback(cb.ID, "", false)
}

func (s *Service) cbAdminPay(cb models.CallbackQuery) {
	if !s.cfg.IsAdmin(cb.UserID) {
		s.telegram.AnswerCallback(cb.ID, accessDeniedText(), true)
		return
	}
	parts := strings.Split(cb.Data, ":")
	if len(parts) != 4 {
		s.telegram.AnswerCallback(cb.ID, "", false)
		return
	}
	pos, _ := strconv.Atoi(parts[2])
	found, err := s.store.UpdatePaymentStatus(pos, models.PaymentStatus(parts[3]))
	if err != nil || !found {
		s.telegram.AnswerCallback(cb.ID, "Не найдено", true)
		return
	}
	s.telegram.AnswerCallback(cb.ID, "Обновлено", false)
}

func (s *Service) cbAdminSession(cb models.CallbackQuery) {
	if !s.cfg.IsAdmin(cb.UserID) {
		s.telegram.AnswerCallback(cb.ID, accessDeniedText(), true)
		return
	}
	parts := strings.Split(cb.Data, ":")
	if len(parts) != 4 {
		s.telegram.AnswerCallback(cb.ID, "", false)
		return
	}
	pos, _ := strconv.Atoi(parts[2])
	found, err := s.store.UpdateSessionStatus(pos, models.SessionStatus(parts[3]))
	if err != nil || !found {
		s.telegram.AnswerCallback(cb.ID, "Не найдено", true)
		return
	}

	item := s.store.GetByPosition(pos)
	if item == nil {
		s.telegram.AnswerCallback(cb.ID, "Не найдено", true)
		return
	}
	keyboard := s.buildItemActions(item, true, "all", item.ServiceID)
	if err := s.telegram.EditMessageText(cb.ChatID, cb.MessageID, s.formatItemCard(item), &keyboard); err != nil {
		s.telegram.SendMessageWithInlineKeyboard(cb.ChatID, s.formatItemCard(item), keyboard)
	}
	s.telegram.AnswerCallback(cb.ID, "Обновлено", false)
}

func (s *Service) cbAdminDelete(cb models.CallbackQuery) {
	if !s.cfg.IsAdmin(cb.UserID) {
		s.telegram.AnswerCallback(cb.ID, accessDeniedText(), true)
		return
	}
	// Формат: adm:delete:<услуга>:<позиция>
	parts := strings.Split(cb.Data, ":")
	if len(parts) != 4 {
		s.telegram.AnswerCallback(cb.ID, "", false)
		return
	}
	serviceID := parts[2]
	if serviceID == "all" {
		serviceID = ""
	}
	pos, _ := strconv.Atoi(parts[3])
	deleted, err := s.store.DeleteAndArchive(pos)
	if err != nil || !deleted {
		s.telegram.AnswerCallback(cb.ID, "Не найдено", true)
		return
	}
	text, keyboard := s.buildListView("all", 1, serviceID)
	if err := s.telegram.EditMessageText(cb.ChatID, cb.MessageID, text, &keyboard); err != nil {
		s.telegram.SendMessageWithInlineKeyboard(cb.ChatID, text, keyboard)
	}
	s.telegram.AnswerCallback(cb.ID, "Удалено и обновлено", false)
}

func (s *Service) cbAdminSend(cb models.CallbackQuery) {
	if !s.cfg.IsAdmin(cb.UserID) {
		s.telegram.AnswerCallback(cb.ID, accessDeniedText(), true)
		return
	}
	_, _, pos := parseItemCallback(cb.Data)
	item := s.store.GetByPosition(pos)
	if item == nil || item.ServiceID != expressServiceID {
		s.telegram.AnswerCallback(cb.ID, "Заявка не найдена", true)
		return
	}
	if item.PaymentStatus != models.PaymentStatusPaid {
		s.telegram.AnswerCallback(cb.ID, "Сначала нужна оплата", true)
		return
	}

	s.setSendTarget(cb.UserID, &sendTarget{
		UserID:         item.UserID,
		Position:       pos,
		ServiceID:      item.ServiceID,
		OrderID:        item.OrderID,
		Name:           item.Name,
		BirthDate:      item.BirthDate,
		OrderCreatedAt: item.CreatedAt,
	})
	s.telegram.SendMessage(cb.ChatID, "Отправьте текст/фото/документ пользователю. Для отмены: /admin_send_cancel")
	s.telegram.AnswerCallback(cb.ID, "Готово", false)
}

func (s *Service) cbAdminReview(cb models.CallbackQuery) {
	// Формат: adm:review:<услуга>:<номер заказа>
	parts := strings.Split(cb.Data, ":")
	if len(parts) != 4 {
		s.telegram.AnswerCallback(cb.ID, "", false)
		return
	}
	serviceID := parts[2]
	if serviceID == "all" {
		serviceID = ""
	}
	orderID, _ := strconv.Atoi(parts[3])

	var (
		name, birthDate string
		reviewSkippedAt *time.Time
	)
	if item := s.store.GetByOrderID(orderID); item != nil {
		name, birthDate = item.Name, item.BirthDate
		reviewSkippedAt = item.ReviewSkipped
	} else if archived := s.store.GetHistoryByOrderID(orderID); archived != nil {
		name, birthDate = archived.Name, archived.BirthDate
		reviewSkippedAt = archived.ReviewSkipped
	} else {
		s.telegram.AnswerCallback(cb.ID, "Заказ не найден", true)
		return
	}
	if birthDate == "" {
		birthDate = "—"
	}

	created, text := "—", "—"
	if review := s.store.GetReviewForOrder(orderID); review != nil {
		created = review.CreatedAt.Format("02.01.2006 15:04")
		text = review.Text
	} else if reviewSkippedAt != nil {
		created = reviewSkippedAt.Format("02.01.2006 15:04")
	}

	header := fmt.Sprintf("Отзыв по заявке №%d\nФИО: %s\nДР: %s\nДата: %s\n\nОтзыв:\n%s",
		orderID, name, birthDate, created, text)
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("К отзывам", fmt.Sprintf("adm:list:reviews:%s:1", serviceCode(serviceID))),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ В меню", "adm:menu:all"),
		),
	)
	if err := s.telegram.EditMessageText(cb.ChatID, cb.MessageID, header, &keyboard); err != nil {
		s.telegram.SendMessageWithInlineKeyboard(cb.ChatID, header, keyboard)
	}
	s.telegram.AnswerCallback(cb.ID, "", false)
}

// cbAdminResult показывает сохранённый расклад по заявке — из живой
// очереди либо из архива.
func (s *Service) cbAdminResult(cb models.CallbackQuery) {
	parts := strings.Split(cb.Data, ":")
	if len(parts) != 3 {
		s.telegram.AnswerCallback(cb.ID, "", false)
		return
	}
	orderID, _ := strconv.Atoi(parts[2])

	var payload *models.ResultPayload
	if item := s.store.GetByOrderID(orderID); item != nil {
		payload = item.ResultPayload
	} else if archived := s.store.GetHistoryByOrderID(orderID); archived != nil {
		payload = archived.ResultPayload
	} else {
		s.telegram.AnswerCallback(cb.ID, "Заказ не найден", true)
		return
	}
	if payload == nil {
		s.telegram.AnswerCallback(cb.ID, "Расклад не найден", true)
		return
	}

	caption := payload.Caption
	if caption == "" {
		caption = fmt.Sprintf("Расклад по заявке №%d", orderID)
	}
	switch payload.Type {
	case "photo":
		s.telegram.SendPhoto(cb.ChatID, payload.FileID, caption)
	case "document":
		s.telegram.SendDocument(cb.ChatID, payload.FileID, caption)
	case "text":
		s.telegram.SendMessage(cb.ChatID, fmt.Sprintf("Расклад по заявке №%d:\n\n%s", orderID, payload.Text))
	default:
		s.telegram.AnswerCallback(cb.ID, "Расклад не найден", true)
		return
	}
	s.telegram.AnswerCallback(cb.ID, "Отправлено", false)
}

func (s *Service) cbClearHistory(cb models.CallbackQuery) {
	if !s.cfg.IsAdmin(cb.UserID) {
		s.telegram.AnswerCallback(cb.ID, accessDeniedText(), true)
		return
	}
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Да, очистить", "adm:clear_history_confirm"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Нет, назад", "adm:clear_history_cancel"),
		),
	)
	// Нумерация архива начнётся заново — старые ссылки на archive_id
	// перестанут действовать, предупреждаем явно
	s.telegram.SendMessageWithInlineKeyboard(cb.ChatID,
		"Очистить архив? Это действие нельзя отменить, нумерация архива начнётся заново.", keyboard)
	s.telegram.AnswerCallback(cb.ID, "", false)
}

func (s *Service) cbClearHistoryConfirm(cb models.CallbackQuery) {
	if !s.cfg.IsAdmin(cb.UserID) {
		s.telegram.AnswerCallback(cb.ID, accessDeniedText(), true)
		return
	}
	if err := s.store.ClearHistory(); err != nil {
		s.telegram.AnswerCallback(cb.ID, "Не удалось очистить архив", true)
		return
	}
	if err := s.telegram.EditMessageText(cb.ChatID, cb.MessageID, "Архив очищен.", nil); err != nil {
		s.telegram.SendMessage(cb.ChatID, "Архив очищен.")
	}
	s.telegram.AnswerCallback(cb.ID, "Очищено", false)
}

func (s *Service) cbClearHistoryCancel(cb models.CallbackQuery) {
	if err := s.telegram.EditMessageText(cb.ChatID, cb.MessageID, "Очистка архива отменена.", nil); err != nil {
		s.telegram.SendMessage(cb.ChatID, "Очистка архива отменена.")
	}
	s.telegram.AnswerCallback(cb.ID, "Отменено", false)
}
