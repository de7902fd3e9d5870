package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/shibapc/gadalka/internal/config"
	"github.com/shibapc/gadalka/internal/logger"
	"github.com/shibapc/gadalka/internal/storage"
)

// Разовая нормализация файлов данных: миграция записей старой схемы,
// пересчёт позиций очереди и плотная перенумерация архива и отзывов.
func main() {
	configPath := flag.String("config", "./config/config.yaml", "Путь к файлу конфигурации")
	flag.Parse()

	cfg, err := config.NewConfig(*configPath)
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	zlog, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("Ошибка создания логгера: %v", err)
	}

	loc, err := time.LoadLocation(cfg.Booking.Timezone)
	if err != nil {
		log.Fatalf("Ошибка загрузки часового пояса %s: %v", cfg.Booking.Timezone, err)
	}

	store, err := storage.New(cfg.Storage, loc, zlog)
	if err != nil {
		log.Fatalf("Ошибка инициализации хранилища: %v", err)
	}

	report, err := store.Normalize()
	if err != nil {
		log.Fatalf("Ошибка нормализации: %v", err)
	}

	fmt.Printf("Миграция успешно выполнена: очередь %d, архив %d, отзывы %d\n",
		report.QueueTotal, report.HistoryTotal, report.ReviewsTotal)
}
