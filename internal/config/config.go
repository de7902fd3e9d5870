// internal/config/config.go
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Service — услуга из каталога. Цена используется как значение
// по умолчанию, когда у заявки не зафиксирована своя.
type Service struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title"`
	Price int    `yaml:"price"`
}

type Logger struct {
	Level string `yaml:"level"`
	Sink  string `yaml:"sink"`
}

type Telegram struct {
	Token string `yaml:"token"`
}

// Payment — политика подтверждения оплаты.
// mode: "invoice" — счёт платёжного провайдера Telegram, заявка
// создаётся после успешной оплаты со статусом paid;
// mode: "manual" — заявка создаётся сразу, клиент прикладывает чек,
// администратор подтверждает оплату вручную.
type Payment struct {
	Mode          string `yaml:"mode"`
	ProviderToken string `yaml:"provider_token"`
}

type Storage struct {
	QueuePath   string `yaml:"queue_path"`
	HistoryPath string `yaml:"history_path"`
	ReviewsPath string `yaml:"reviews_path"`
}

// Booking — продуктовые параметры анкеты. Разные деплои расходятся
// в границе интуитивной цифры и наборе услуг, поэтому это конфигурация,
// а не код.
type Booking struct {
	Timezone     string `yaml:"timezone"`
	IntuitiveMax int    `yaml:"intuitive_max"`
}

type Admin struct {
	AdminIDs     []int64 `yaml:"admin_ids"`
	ModeratorIDs []int64 `yaml:"moderator_ids"`
	PageSize     int     `yaml:"page_size"`
}

type AppConfig struct {
	Logger   Logger    `yaml:"log"`
	Telegram Telegram  `yaml:"telegram"`
	Payment  Payment   `yaml:"payment"`
	Storage  Storage   `yaml:"storage"`
	Booking  Booking   `yaml:"booking"`
	Admin    Admin     `yaml:"admin"`
	Services []Service `yaml:"services"`
}

func NewConfig(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %v", err)
	}

	var appConfig AppConfig
	if err := yaml.Unmarshal(data, &appConfig); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %v", err)
	}
	appConfig.applyDefaults()

	if appConfig.Telegram.Token == "" {
		return nil, fmt.Errorf("telegram.token is missing in %s", path)
	}

	return &appConfig, nil
}

func (c *AppConfig) applyDefaults() {
	if c.Storage.QueuePath == "" {
		c.Storage.QueuePath = "data/queue.json"
	}
	if c.Storage.HistoryPath == "" {
		c.Storage.HistoryPath = "data/history.json"
	}
	if c.Storage.ReviewsPath == "" {
		c.Storage.ReviewsPath = "data/reviews.json"
	}
	if c.Booking.Timezone == "" {
		c.Booking.Timezone = "Asia/Yekaterinburg"
	}
	if c.Booking.IntuitiveMax == 0 {
		c.Booking.IntuitiveMax = 22
	}
	if c.Admin.PageSize == 0 {
		c.Admin.PageSize = 5
	}
	if c.Payment.Mode == "" {
		if c.Payment.ProviderToken != "" {
			c.Payment.Mode = "invoice"
		} else {
			c.Payment.Mode = "manual"
		}
	}
	if len(c.Services) == 0 {
		c.Services = []Service{
			{ID: "consult", Title: "Сеанс гадания", Price: 2500},
			{ID: "express", Title: "Личный экспресс-прогноз", Price: 1393},
		}
	}
}

// ServiceByID возвращает услугу из каталога или nil, если её нет.
func (c *AppConfig) ServiceByID(id string) *Service {
	for i := range c.Services {
		if c.Services[i].ID == id {
			return &c.Services[i]
		}
	}
	return nil
}

// ServicePrice возвращает цену услуги или 0 для неизвестной услуги.
func (c *AppConfig) ServicePrice(id string) int {
	if s := c.ServiceByID(id); s != nil {
		return s.Price
	}
	return 0
}

// IsAdmin — высший уровень доступа.
func (c *AppConfig) IsAdmin(userID int64) bool {
	for _, id := range c.Admin.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// IsModerator — модератор либо администратор (просмотр очереди и архива).
func (c *AppConfig) IsModerator(userID int64) bool {
	for _, id := range c.Admin.ModeratorIDs {
		if id == userID {
			return true
		}
	}
	return c.IsAdmin(userID)
}
