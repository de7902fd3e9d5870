package app

import (
	"time"

	"go.uber.org/zap"

	"github.com/shibapc/gadalka/internal/booking"
	"github.com/shibapc/gadalka/internal/bot"
	"github.com/shibapc/gadalka/internal/config"
	"github.com/shibapc/gadalka/internal/logger"
	"github.com/shibapc/gadalka/internal/storage"
	"github.com/shibapc/gadalka/internal/telegram"
)

func Run(configPath string) error {
	// Загружаем конфигурацию
	cfg, err := config.NewConfig(configPath)
	if err != nil {
		return err
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logger)
	if err != nil {
		zap.L().Error("не удалось создать логгер", zap.Error(err))
		return err
	}

	// Часовой пояс для меток времени заявок
	loc, err := time.LoadLocation(cfg.Booking.Timezone)
	if err != nil {
		log.Error("не удалось загрузить часовой пояс", zap.String("timezone", cfg.Booking.Timezone), zap.Error(err))
		return err
	}

	// Инициализируем файловое хранилище очереди, архива и отзывов
	store, err := storage.New(cfg.Storage, loc, log)
	if err != nil {
		log.Error("не удалось инициализировать хранилище", zap.Error(err))
		return err
	}

	// Инициализируем Telegram клиент
	tgClient, err := telegram.NewClient(cfg.Telegram.Token)
	if err != nil {
		log.Error("не удалось создать telegram клиент", zap.Error(err))
		return err
	}

	// Сессии записи живут в памяти и сбрасываются при рестарте
	sessions := booking.NewSessions()

	// Запускаем основной сервис бота
	botService := bot.NewService(tgClient, log, cfg, store, sessions)
	if err := botService.Start(); err != nil {
		log.Error("ошибка запуска бота", zap.Error(err))
		return err
	}

	return nil
}
