// internal/app/notify/whatsapp.go
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// WhatsAppConfig configures the WhatsApp gateway client.
type WhatsAppConfig struct {
	APIURL   string
	APIToken string
	Timeout  time.Duration
}

// WhatsApp sends messages through an HTTP messaging gateway. One POST
// per recipient; a recipient-level rejection marks that recipient
// failed without aborting the rest of the batch.
type WhatsApp struct {
	cfg    WhatsAppConfig
	client *http.Client
	log    *zap.Logger
}

func NewWhatsApp(cfg WhatsAppConfig, logger *zap.Logger) *WhatsApp {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &WhatsApp{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    logger,
	}
}

type sendPayload struct {
	To             string `json:"to"`
	Body           string `json:"body"`
	IdempotencyKey string `json:"idempotency_key"`
}

type gatewayResponse struct {
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`
}

// Dispatch sends each message in turn. It returns an error only for
// batch-level failures (context cancelled before anything went out);
// per-recipient outcomes live in the Result.
func (w *WhatsApp) Dispatch(ctx context.Context, msgs []Message) (Result, error) {
	var res Result
	for _, m := range msgs {
		if err := ctx.Err(); err != nil {
			if len(res.Results) == 0 {
				return Result{}, err
			}
			res.FailCount += len(msgs) - len(res.Results)
			return res, nil
		}

		sr := SendResult{Recipient: m.Recipient}
		if err := w.send(ctx, m); err != nil {
			sr.Detail = err.Error()
			res.FailCount++
			w.log.Warn("whatsapp send failed",
				zap.String("recipient", m.Recipient),
				zap.Error(err))
		} else {
			sr.OK = true
			res.SuccessCount++
		}
		res.Results = append(res.Results, sr)
	}
	return res, nil
}

func (w *WhatsApp) send(ctx context.Context, m Message) error {
	body, err := json.Marshal(sendPayload{
		To:             m.Recipient,
		Body:           m.Body,
		IdempotencyKey: m.IdempotencyKey,
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+w.cfg.APIToken)

	resp, err := w.client.Do(req)
	if err != nil {
		return &GatewayError{Status: 0, Detail: err.Error(), Retryable: true}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return &GatewayError{Status: resp.StatusCode, Detail: err.Error(), Retryable: true}
	}

	if resp.StatusCode >= 300 {
		return &GatewayError{
			Status:    resp.StatusCode,
			Detail:    string(raw),
			Retryable: resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500,
		}
	}

	var gr gatewayResponse
	if err := json.Unmarshal(raw, &gr); err == nil && !gr.OK {
		return &GatewayError{Status: resp.StatusCode, Detail: gr.Detail, Retryable: false}
	}
	return nil
}
