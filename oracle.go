package renewip

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"go.uber.org/zap"

	"github.com/Travis-Britz/renewip/internal/version"
)

// DefaultOracleURL answers with the caller's public address as plain text.
const DefaultOracleURL = "https://api.ipify.org"

// maxAddressLength bounds how much of the response body is read.
// Anything longer is not an address.
const maxAddressLength = 64

var userAgent = "renewip/" + version.Version

// WebOracle constructs an Oracle which uses an external web service to look up the public IP address.
//
// The service must speak http and return status "200 OK",
// with the address as the first line of the response body.
// All other responses are reported as Unreachable.
// The address text is not validated beyond that; it is compared verbatim.
func WebOracle(serviceURL string) (Oracle, error) {
	u, err := url.Parse(serviceURL)
	if err != nil {
		return nil, fmt.Errorf("error parsing URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported oracle URL scheme %q", u.Scheme)
	}
	return &webOracle{serviceURL: u, timeout: 15 * time.Second, logger: zap.NewNop()}, nil
}

type webOracle struct {
	httpClient *http.Client
	serviceURL *url.URL
	timeout    time.Duration
	logger     *zap.Logger
}

func (wo *webOracle) SetHTTPClient(c *http.Client) { wo.httpClient = c }
func (wo *webOracle) SetLogger(l *zap.Logger)      { wo.logger = l }

// Observe implements renewip.Oracle.
func (wo *webOracle) Observe(ctx context.Context) Observation {
	addr, err := wo.lookup(ctx)
	if err != nil {
		wo.logger.Debug("IP oracle unreachable", zap.Stringer("url", wo.serviceURL), zap.Error(err))
		return Unreachable(err)
	}
	wo.logger.Debug("IP oracle answered", zap.Stringer("url", wo.serviceURL), zap.String("address", addr.String()))
	return Observed(addr)
}

func (wo *webOracle) lookup(ctx context.Context) (Address, error) {
	// bounds every lookup, even when ctx has no deadline
	ctx, cancel := context.WithTimeout(ctx, wo.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, wo.serviceURL.String(), nil)
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Accept", "text/plain")
	req.Header.Set("User-Agent", userAgent)

	httpclient := wo.httpClient
	if httpclient == nil {
		httpclient = cleanhttp.DefaultClient()
	}

	resp, err := httpclient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("http request returned %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxAddressLength+1))
	if err != nil {
		return "", fmt.Errorf("error reading response body: %w", err)
	}
	if len(body) > maxAddressLength {
		return "", errors.New("response body is too long to be an address")
	}
	line, _, _ := strings.Cut(string(body), "\n")
	addr := strings.TrimSpace(line)
	if addr == "" {
		return "", errors.New("response body is empty")
	}
	return Address(addr), nil
}
