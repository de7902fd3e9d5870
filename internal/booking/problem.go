package booking

import (
	"strconv"
	"strings"
)

// Формат поля problem для экспресс-услуги: интуитивная цифра и текст
// запроса склеиваются в одну строку со стабильными маркерами. Это
// wire-формат: SplitProblem обязан разбирать всё, что собрал
// JoinProblem, поэтому маркеры менять нельзя.
const (
	problemNumberPrefix = "Интуитивная цифра: "
	problemTextMarker   = "\nЗапрос: "
)

// JoinProblem собирает поле problem из интуитивной цифры и текста запроса.
func JoinProblem(number int, text string) string {
	return problemNumberPrefix + strconv.Itoa(number) + problemTextMarker + text
}

// SplitProblem разбирает поле problem обратно на цифру и текст.
// Для заявок без префикса (обычная услуга) цифра пустая, текст —
// всё поле целиком.
func SplitProblem(problem string) (number string, text string) {
	if problem == "" {
		return "", ""
	}
	rest, ok := strings.CutPrefix(problem, problemNumberPrefix)
	if !ok {
		return "", problem
	}
	numberPart, textPart, ok := strings.Cut(rest, problemTextMarker)
	if !ok {
		return "", problem
	}
	return strings.TrimSpace(numberPart), strings.TrimSpace(textPart)
}
