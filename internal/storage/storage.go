package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/shibapc/gadalka/internal/config"
	"github.com/shibapc/gadalka/internal/models"
)

// ErrOrderNotFound возвращается мутациями, адресованными по order_id,
// когда заказа нет ни в очереди, ни в архиве.
var ErrOrderNotFound = errors.New("заказ не найден ни в очереди, ни в архиве")

const filePermissions = 0o644

// Storage — файловое хранилище очереди, архива и отзывов.
//
// Каждая коллекция — JSON-файл со списком записей. Файлы могут
// редактироваться извне, поэтому ни позиции, ни счётчики не
// кешируются: порядок и следующий order_id пересчитываются по
// свежему снимку при каждом обращении.
//
// Очередь и архив защищены одним мьютексом: выдача order_id и
// перенос заявки в архив затрагивают оба файла и должны быть
// единой критической секцией. Отзывы живут отдельно.
type Storage struct {
	queuePath   string
	historyPath string
	reviewsPath string

	mu        sync.RWMutex // очередь + архив
	reviewsMu sync.RWMutex

	loc    *time.Location
	logger *zap.Logger
}

// New создает хранилище и гарантирует существование файлов данных.
func New(cfg config.Storage, loc *time.Location, logger *zap.Logger) (*Storage, error) {
	s := &Storage{
		queuePath:   cfg.QueuePath,
		historyPath: cfg.HistoryPath,
		reviewsPath: cfg.ReviewsPath,
		loc:         loc,
		logger:      logger,
	}

	for _, path := range []string{cfg.QueuePath, cfg.HistoryPath, cfg.ReviewsPath} {
		if err := ensureFile(path); err != nil {
			return nil, fmt.Errorf("ошибка подготовки файла данных %s: %w", path, err)
		}
	}

	return s, nil
}

func (s *Storage) now() time.Time {
	return time.Now().In(s.loc)
}

func ensureFile(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.WriteFile(path, []byte("[]"), filePermissions)
	}
	return nil
}

// readList читает JSON-список из файла. Нечитаемый или битый файл
// трактуется как пустая коллекция: система остаётся доступной,
// а следующая мутация перезапишет файл консистентным содержимым.
func readList[T any](path string, logger *zap.Logger) []T {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("файл данных не читается, использую пустую коллекцию",
				zap.Error(err),
				zap.String("path", path),
			)
		}
		return nil
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		logger.Warn("файл данных повреждён, использую пустую коллекцию",
			zap.Error(err),
			zap.String("path", path),
		)
		return nil
	}
	return items
}

func writeList[T any](path string, items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("ошибка сериализации %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, filePermissions); err != nil {
		return fmt.Errorf("ошибка записи %s: %w", path, err)
	}
	return nil
}

// MigrateRequest дополняет запись старой схемы значениями по
// умолчанию. Возвращает true, если запись была изменена.
func MigrateRequest(r *models.Request) bool {
	if r.Schema >= models.SchemaVersion {
		return false
	}
	if r.PaymentStatus == "" {
		r.PaymentStatus = models.PaymentStatusPending
	}
	if r.SessionStatus == "" {
		r.SessionStatus = models.SessionStatusPending
	}
	r.Schema = models.SchemaVersion
	return true
}

// derivePositions — чистая функция пересчёта позиций: срочные заявки
// впереди, внутри класса — по возрастанию даты создания. Сортировка
// стабильная, поэтому записи с равным ключом сохраняют порядок файла.
// O(N log N) на каждое чтение — осознанная цена самовосстановления.
func derivePositions(items []models.Request) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].IsUrgent != items[j].IsUrgent {
			return items[i].IsUrgent
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	for i := range items {
		items[i].Position = i + 1
	}
}

// readQueueLocked читает очередь, прогоняет миграцию схемы и
// пересчитывает позиции. Вызывается только под s.mu.
func (s *Storage) readQueueLocked() []models.Request {
	items := readList[models.Request](s.queuePath, s.logger)
	for i := range items {
		MigrateRequest(&items[i])
	}
	derivePositions(items)
	return items
}

// readHistoryLocked читает архив и мигрирует записи. Archive_id
// дописывается по порядку добавления, если запись его потеряла.
func (s *Storage) readHistoryLocked() []models.ArchivedRequest {
	items := readList[models.ArchivedRequest](s.historyPath, s.logger)
	for i := range items {
		MigrateRequest(&items[i].Request)
		if items[i].ArchiveID == 0 {
			items[i].ArchiveID = i + 1
		}
	}
	return items
}

func (s *Storage) writeQueueLocked(items []models.Request) error {
	return writeList(s.queuePath, items)
}

func (s *Storage) writeHistoryLocked(items []models.ArchivedRequest) error {
	return writeList(s.historyPath, items)
}

// nextOrderIDLocked выдаёт следующий order_id: максимум по очереди
// и архиву плюс один. Пересчитывается при каждом вызове, чтобы
// переживать правки файлов извне и рестарты процесса. Вызывается
// только под write-блокировкой s.mu — в той же критической секции,
// что и запись, иначе возможна выдача дубликата.
func (s *Storage) nextOrderIDLocked(queue []models.Request, history []models.ArchivedRequest) int {
	maxID := 0
	for i := range queue {
		if queue[i].OrderID > maxID {
			maxID = queue[i].OrderID
		}
	}
	for i := range history {
		if history[i].OrderID > maxID {
			maxID = history[i].OrderID
		}
	}
	return maxID + 1
}
