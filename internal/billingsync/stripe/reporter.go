package stripe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/zenpay/zenpay/internal/billingsync/domain"
	"go.uber.org/zap"
)

const meterEventsPath = "/v1/billing/meter_events"

type Reporter struct {
	apiKey  string
	baseURL string
	client  *http.Client
	log     *zap.Logger
}

func NewReporter(apiKey, baseURL string, log *zap.Logger) *Reporter {
	return &Reporter{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     log.Named("billingsync.stripe"),
	}
}

// Report posts one meter event. The event ID doubles as the Stripe
// identifier, so replays after a crashed run dedupe on their side.
func (r *Reporter) Report(ctx context.Context, req domain.ReportRequest) error {
	form := url.Values{}
	form.Set("event_name", req.ItemCode)
	form.Set("identifier", req.EventID)
	form.Set("timestamp", strconv.FormatInt(req.RecordedAt.Unix(), 10))
	form.Set("payload[value]", req.Quantity.String())
	form.Set("payload[customer_id]", req.CustomerID)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+meterEventsPath, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrIntegration, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		r.log.Warn("stripe meter event rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("event_id", req.EventID),
			zap.ByteString("body", body),
		)
		return fmt.Errorf("%w: stripe status %d", domain.ErrIntegration, resp.StatusCode)
	}
	return nil
}
