package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateBirthDate(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr string
	}{
		{name: "корректная дата", input: "12.03.1990", want: "12.03.1990"},
		{name: "пробелы по краям", input: "  12.03.1990  ", want: "12.03.1990"},
		{name: "текущий год допустим", input: "01.01.2026", want: "01.01.2026"},
		{name: "граница дня", input: "31.12.2000", want: "31.12.2000"},
		{
			name:    "дефисы вместо точек",
			input:   "12-03-1990",
			wantErr: "Формат даты должен быть ДД.ММ.ГГГГ (например, 12.03.1990)",
		},
		{
			name:    "слишком короткая строка",
			input:   "1.3.1990",
			wantErr: "Формат даты должен быть ДД.ММ.ГГГГ (например, 12.03.1990)",
		},
		{
			name:    "буквы вместо цифр",
			input:   "аб.03.1990",
			wantErr: "Используйте только цифры в формате ДД.ММ.ГГГГ",
		},
		{
			name:    "нулевой день",
			input:   "00.01.2000",
			wantErr: "Некорректный день: допустимо 01-31. Введите дату ещё раз.",
		},
		{
			name:    "тринадцатый месяц",
			input:   "31.13.2000",
			wantErr: "Некорректный месяц: допустимо 01-12. Введите дату ещё раз.",
		},
		{
			name:    "год раньше нижней границы",
			input:   "12.03.1928",
			wantErr: "Некорректный год, введите дату ещё раз.",
		},
		{
			name:    "год из будущего",
			input:   "12.03.2027",
			wantErr: "Некорректный год, введите дату ещё раз.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateBirthDate(tt.input, now)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantErr, err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseIntuitiveNumber(t *testing.T) {
	n, err := ParseIntuitiveNumber("7", 22)
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	n, err = ParseIntuitiveNumber(" 0 ", 22)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = ParseIntuitiveNumber("22", 22)
	require.NoError(t, err)
	assert.Equal(t, 22, n)

	for _, input := range []string{"23", "-1", "семь", ""} {
		_, err := ParseIntuitiveNumber(input, 22)
		require.Error(t, err, "вход %q", input)
		assert.Equal(t, "Введите число от 0 до 22.", err.Error())
	}
}

func TestJoinSplitProblem(t *testing.T) {
	problem := JoinProblem(7, "хочу узнать про работу")
	assert.Equal(t, "Интуитивная цифра: 7\nЗапрос: хочу узнать про работу", problem)

	number, text := SplitProblem(problem)
	assert.Equal(t, "7", number)
	assert.Equal(t, "хочу узнать про работу", text)

	// Заявка обычной услуги: поле без префикса отдаётся как есть
	number, text = SplitProblem("просто текст запроса")
	assert.Equal(t, "", number)
	assert.Equal(t, "просто текст запроса", text)

	number, text = SplitProblem("")
	assert.Equal(t, "", number)
	assert.Equal(t, "", text)
}

func TestSessions(t *testing.T) {
	sessions := NewSessions()

	assert.False(t, sessions.InProgress(1))

	// Get создаёт сессию лениво и возвращает тот же экземпляр
	session := sessions.Get(1)
	session.Step = StepBirthDate
	session.ServiceID = "express"
	assert.True(t, sessions.InProgress(1))
	assert.Same(t, session, sessions.Get(1))

	// Reset возвращает чистую сессию
	fresh := sessions.Reset(1)
	assert.Equal(t, StepNone, fresh.Step)
	assert.Empty(t, fresh.ServiceID)
	assert.False(t, sessions.InProgress(1))
	assert.Same(t, fresh, sessions.Get(1))

	// Сессии разных клиентов независимы
	sessions.Get(2).Step = StepReview
	assert.True(t, sessions.InProgress(2))
	assert.False(t, sessions.InProgress(1))
}
