package providerconfig

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Client клиент для чтения настроек провайдеров.
// Движок бронирований использует его строго read-only.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        Logger
}

// NewClient создает новый экземпляр клиента сервиса настроек
func NewClient(baseURL string, timeout time.Duration, log Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// GetProvider получает настройки провайдера: таймзону, недельное расписание,
// заблокированные даты, буферы, окна бронирования, политику отмены и команду
func (c *Client) GetProvider(ctx context.Context, providerID int64) (*Provider, error) {
	url := fmt.Sprintf("%s/internal/providers/%d", c.baseURL, providerID)

	var provider Provider
	if err := c.getJSON(ctx, url, &provider, ErrProviderNotFound); err != nil {
		return nil, err
	}

	// Дефолты для незаполненных настроек
	if provider.SlotGranularityMinutes <= 0 {
		provider.SlotGranularityMinutes = 30
	}
	if provider.Timezone == "" {
		provider.Timezone = "UTC"
	}

	return &provider, nil
}

// GetService получает услугу провайдера
func (c *Client) GetService(ctx context.Context, providerID, serviceID int64) (*Service, error) {
	url := fmt.Sprintf("%s/internal/providers/%d/services/%d", c.baseURL, providerID, serviceID)

	var service Service
	if err := c.getJSON(ctx, url, &service, ErrServiceNotFound); err != nil {
		return nil, err
	}

	return &service, nil
}

// GetAddons получает дополнения к услуге по списку ID.
// Если хотя бы одно дополнение не найдено - возвращает ErrAddonNotFound.
func (c *Client) GetAddons(ctx context.Context, providerID, serviceID int64, addonIDs []int64) ([]Addon, error) {
	if len(addonIDs) == 0 {
		return nil, nil
	}

	ids := make([]string, len(addonIDs))
	for i, id := range addonIDs {
		ids[i] = fmt.Sprintf("%d", id)
	}
	url := fmt.Sprintf("%s/internal/providers/%d/services/%d/addons?ids=%s",
		c.baseURL, providerID, serviceID, strings.Join(ids, ","))

	var addons []Addon
	if err := c.getJSON(ctx, url, &addons, ErrAddonNotFound); err != nil {
		return nil, err
	}

	if len(addons) != len(addonIDs) {
		return nil, fmt.Errorf("%w: requested %d addons, got %d", ErrAddonNotFound, len(addonIDs), len(addons))
	}

	return addons, nil
}

// getJSON выполняет GET запрос и декодирует JSON ответ.
// notFoundErr возвращается на 404.
func (c *Client) getJSON(ctx context.Context, url string, dst interface{}, notFoundErr error) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: failed to execute request: %v", ErrInternal, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// Продолжаем обработку
	case http.StatusNotFound:
		return notFoundErr
	default:
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", ErrInvalidResponse, err)
	}

	return nil
}
