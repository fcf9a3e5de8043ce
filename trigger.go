package renewip

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/go-cleanhttp"
	"go.uber.org/zap"
)

// DefaultRenewEndpoint is the customer-area action that makes the router reconnect with a new address.
// {contract_id} and {device_id} are replaced with the path-escaped values from the Configuration.
const DefaultRenewEndpoint = "https://sso-f.orange.fr/ecd_wp/configEquipement/v2.0/users/current/contracts/{contract_id}/equipments/devices/{device_id}/actions/renewIp"

const renewBody = "{}"

// renewHeaders identify the request as coming from the customer-area web client.
// The endpoint rejects requests that do not look like they came from a browser session.
var renewHeaders = map[string]string{
	"User-Agent":         "Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/115.0",
	"Accept":             "application/json",
	"Accept-Language":    "en-US,en;q=0.5",
	"X-Orange-Origin-Id": "ECQ",
	"X-Orange-Caller-Id": "ECQ",
	"X-App-Device-Type":  "desktop",
	"Content-Type":       "application/json",
	"Origin":             "https://espace-client.orange.fr",
	"Referer":            "https://espace-client.orange.fr/",
}

// LiveboxTrigger constructs a Trigger which calls the ISP's renewIp action for the configured contract and device.
func LiveboxTrigger(options ...triggerOption) (Trigger, error) {
	t := &liveboxTrigger{
		endpoint: DefaultRenewEndpoint,
		logger:   zap.NewNop(),
	}
	for i, opt := range options {
		if err := opt(t); err != nil {
			return nil, fmt.Errorf("renewip.LiveboxTrigger: option %d returned an error: %s", i, err)
		}
	}
	return t, nil
}

type triggerOption func(*liveboxTrigger) error

// WithEndpoint overrides the renewal URL template.
// The template must contain the {contract_id} and {device_id} placeholders.
func WithEndpoint(template string) triggerOption {
	return func(t *liveboxTrigger) error {
		if !strings.Contains(template, "{contract_id}") || !strings.Contains(template, "{device_id}") {
			return fmt.Errorf("endpoint template %q is missing {contract_id} or {device_id}", template)
		}
		if _, err := url.Parse(template); err != nil {
			return fmt.Errorf("error parsing endpoint template: %w", err)
		}
		t.endpoint = template
		return nil
	}
}

// WithTriggerHTTPClient sends the renewal request through c instead of a non-pooled default client.
func WithTriggerHTTPClient(c *http.Client) triggerOption {
	return func(t *liveboxTrigger) error {
		if c == nil {
			return fmt.Errorf("http client cannot be nil")
		}
		t.httpClient = c
		return nil
	}
}

type liveboxTrigger struct {
	httpClient *http.Client
	endpoint   string
	logger     *zap.Logger
}

func (t *liveboxTrigger) SetHTTPClient(c *http.Client) { t.httpClient = c }
func (t *liveboxTrigger) SetLogger(l *zap.Logger)      { t.logger = l }

func (t *liveboxTrigger) renewURL(cfg Configuration) string {
	return strings.NewReplacer(
		"{contract_id}", url.PathEscape(cfg.ContractID),
		"{device_id}", url.PathEscape(cfg.DeviceID),
	).Replace(t.endpoint)
}

// Renew implements renewip.Trigger.
//
// It sends exactly one request and never retries:
// a second renewal may reconnect the router again.
func (t *liveboxTrigger) Renew(ctx context.Context, cfg Configuration) error {
	u := t.renewURL(cfg)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, strings.NewReader(renewBody))
	if err != nil {
		return &RequestFailedError{Err: fmt.Errorf("error creating request: %w", err)}
	}
	for k, v := range renewHeaders {
		req.Header.Set(k, v)
	}
	req.Header.Set("Cookie", cfg.Cookie)

	httpclient := t.httpClient
	if httpclient == nil {
		httpclient = cleanhttp.DefaultClient()
	}

	t.logger.Debug("sending renewal request", zap.String("url", u))
	resp, err := httpclient.Do(req)
	if err != nil {
		return &RequestFailedError{Err: fmt.Errorf("http request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.logger.Warn("renewal request rejected", zap.Int("status", resp.StatusCode))
		return &RequestFailedError{StatusCode: resp.StatusCode, Status: resp.Status}
	}
	t.logger.Debug("renewal request accepted")
	return nil
}
