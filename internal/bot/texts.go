package bot

import (
	"fmt"

	"github.com/shibapc/gadalka/internal/booking"
	"github.com/shibapc/gadalka/internal/config"
)

func startText() string {
	return "Запись к Ксении на гадание.\n\n" +
		"Работаем в порядке очереди: выбирайте услугу, отвечайте на вопросы – и мы свяжемся.\n" +
		"Запись подтверждается только после предоплаты\n" +
		"Подсказка: отправьте /start чтобы начать заново."
}

func bookingPromptText() string {
	return "Выберите услугу 👇"
}

func serviceSelectedText(service *config.Service) string {
	return fmt.Sprintf("Вы выбрали: «%s».", service.Title)
}

func priorityPromptText() string {
	return "Выберите тип записи:\n- Обычная — в общей очереди\n- Срочная — в начало очереди (без доплаты)\n"
}

func askBirthDateText() string {
	return "Введите дату рождения в формате ДД.ММ.ГГГГ (например, 19.09.2005)"
}

func askNameText() string {
	return "Введите ваше имя"
}

func askFullNameText() string {
	return "Введите ФИО"
}

func askIntuitiveNumberText(max int) string {
	return fmt.Sprintf("Введите вашу интуитивную цифру от 0 до %d.", max)
}

func askProblemText() string {
	return "Опишите вашу проблему максимально подробно."
}

func askProblemBriefText() string {
	return "Кратко опишите сердце вашего запроса (1-2 предложения)."
}

func askPhoneText() string {
	return "Поделитесь номером телефона, чтобы мы могли связаться. Нажмите кнопку ниже."
}

func paymentPromptText(price int) string {
	return fmt.Sprintf(
		"Для подтверждения записи нужна предоплата %d₽.\n"+
			"Реквизиты:\n"+
			"СБП: 4100 0000 0000 0000\n"+
			"Комментарий к платежу: Ваше имя + дата рождения\n"+
			"После оплаты отправьте фото или скан чека сюда.",
		price,
	)
}

func paymentProofReceivedText() string {
	return "Чек получен. Администратор проверит оплату и подтвердит запись. С вами свяжутся."
}

func queueConfirmationText(cfg *config.AppConfig, session *booking.Session, paid bool) string {
	service := cfg.ServiceByID(session.ServiceID)
	title := session.ServiceID
	if service != nil {
		title = service.Title
	}
	price := cfg.ServicePrice(session.ServiceID)
	if session.Price != nil {
		price = *session.Price
	}
	urgency := "Обычная"
	if session.IsUrgent {
		urgency = "Срочная (в начале очереди)"
	}
	tail := "С вами свяжутся."
	if paid {
		tail = "С вами свяжутся. Оплата получена автоматически."
	}
	return fmt.Sprintf(
		"Заявка принята ✅\n\n"+
			"*Услуга:* %s\n"+
			"*Тип записи:* %s\n"+
			"*Стоимость:* %d₽\n"+
			"*Дата рождения:* %s\n"+
			"*Имя:* %s\n"+
			"*Описание:*\n%s\n\n%s",
		title, urgency, price, session.BirthDate, session.Name, session.Problem, tail,
	)
}

func askReviewText() string {
	return "Хочешь помочь нам исправить какие-то недостатки или пожелать чего-то нового? " +
		"Напиши отзыв (минимум 100 символов)."
}

func reviewTooShortText() string {
	return "Отзыв должен быть минимум 100 символов. Попробуйте ещё раз."
}

func accessDeniedText() string {
	return "Нет доступа."
}

func positionNotFoundText() string {
	return "Позиция не найдена"
}
