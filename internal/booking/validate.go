package booking

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// minBirthYear — нижняя граница года рождения в анкете.
const minBirthYear = 1929

// ValidateBirthDate проверяет дату формата ДД.ММ.ГГГГ: день 1-31,
// месяц 1-12, год 1929..текущий. Возвращает нормализованную строку
// либо ошибку с текстом подсказки для повторного запроса — текст
// называет конкретное поле, чтобы клиент понял, что исправить.
// Дата никогда не коэрсится молча: либо принята как есть, либо
// отклонена целиком.
func ValidateBirthDate(text string, now time.Time) (string, error) {
	text = strings.TrimSpace(text)
	if len(text) != 10 || text[2] != '.' || text[5] != '.' {
		return "", errors.New("Формат даты должен быть ДД.ММ.ГГГГ (например, 12.03.1990)")
	}

	day, errDay := strconv.Atoi(text[0:2])
	month, errMonth := strconv.Atoi(text[3:5])
	year, errYear := strconv.Atoi(text[6:10])
	if errDay != nil || errMonth != nil || errYear != nil {
		return "", errors.New("Используйте только цифры в формате ДД.ММ.ГГГГ")
	}

	if day < 1 || day > 31 {
		return "", errors.New("Некорректный день: допустимо 01-31. Введите дату ещё раз.")
	}
	if month < 1 || month > 12 {
		return "", errors.New("Некорректный месяц: допустимо 01-12. Введите дату ещё раз.")
	}
	if year < minBirthYear || year > now.Year() {
		return "", errors.New("Некорректный год, введите дату ещё раз.")
	}
	return text, nil
}

// ParseIntuitiveNumber проверяет интуитивную цифру: целое в
// диапазоне [0, max]. Граница задаётся конфигурацией деплоя.
func ParseIntuitiveNumber(text string, max int) (int, error) {
	number, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || number < 0 || number > max {
		return 0, fmt.Errorf("Введите число от 0 до %d.", max)
	}
	return number, nil
}
