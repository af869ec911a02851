package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// PaymentHandle ссылка на платежную операцию у провайдера платежей
type PaymentHandle struct {
	Reference string `json:"reference"`
}

// Client абстрактный клиент платежного коллаборатора.
// Движок бронирований решает только "сколько списать" и "сколько вернуть";
// комиссии платежных систем и конкретные SDK (Stripe/Paystack) живут за
// этим API и движок о них не знает.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        Logger
}

// NewClient создает новый экземпляр платежного клиента
func NewClient(baseURL string, timeout time.Duration, log Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

type chargeRequest struct {
	BookingID int64   `json:"bookingId"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
}

type refundRequest struct {
	BookingID int64   `json:"bookingId"`
	Amount    float64 `json:"amount"`
}

// ChargeDeposit инициирует списание депозита за бронь.
// Фактическое подтверждение оплаты приходит асинхронно вебхуком
// (depositConfirmed), здесь возвращается только handle операции.
func (c *Client) ChargeDeposit(ctx context.Context, bookingID int64, amount float64, currency string) (*PaymentHandle, error) {
	c.log.Info("ChargeDeposit: booking=%d amount=%.2f %s", bookingID, amount, currency)

	var handle PaymentHandle
	err := c.postJSON(ctx, c.baseURL+"/internal/charges/deposit",
		chargeRequest{BookingID: bookingID, Amount: amount, Currency: currency},
		&handle, ErrChargeDeclined,
		idempotencyKey("deposit", bookingID, amount))
	if err != nil {
		return nil, err
	}

	return &handle, nil
}

// Refund запрашивает возврат указанной суммы по брони
func (c *Client) Refund(ctx context.Context, bookingID int64, amount float64) error {
	c.log.Info("Refund: booking=%d amount=%.2f", bookingID, amount)

	err := c.postJSON(ctx, c.baseURL+"/internal/refunds",
		refundRequest{BookingID: bookingID, Amount: amount}, nil, ErrRefundFailed,
		idempotencyKey("refund", bookingID, amount))
	if err != nil {
		return err
	}

	return nil
}

// idempotencyKey детерминированный ключ логической операции.
// Повтор той же операции (откат транзакции, следующий проход sweeper'а)
// приходит к коллаборатору с тем же ключом и дедуплицируется на его
// стороне - случайный ключ на каждый HTTP-вызов этого не дает.
func idempotencyKey(operation string, bookingID int64, amount float64) string {
	name := fmt.Sprintf("%s:%d:%.2f", operation, bookingID, amount)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}

// postJSON выполняет POST с JSON телом и идемпотентным ключом.
// declinedErr возвращается на 422 (провайдер отклонил операцию).
func (c *Client) postJSON(ctx context.Context, url string, payload interface{}, dst interface{}, declinedErr error, key string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: failed to marshal request: %v", ErrInternal, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", key)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: failed to execute request: %v", ErrInternal, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted:
		// Продолжаем обработку
	case http.StatusNotFound:
		return ErrBookingUnknown
	case http.StatusUnprocessableEntity:
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: %s", declinedErr, string(respBody))
	default:
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode, string(respBody))
	}

	if dst != nil {
		if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
			return fmt.Errorf("%w: failed to decode response: %v", ErrInvalidResponse, err)
		}
	}

	return nil
}
