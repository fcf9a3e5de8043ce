package renewip

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/netip"
	"strings"

	"github.com/cloudflare/cloudflare-go"
	"go.uber.org/zap"
)

// UsingCloudflare constructs a Publisher which points the DNS record named domain at each accepted address.
// token must be a Cloudflare API token with DNS edit permission for the zone containing domain.
// options are passed to the cloudflare client, e.g. cloudflare.BaseURL.
func UsingCloudflare(token, domain string, options ...cloudflare.Option) (Publisher, error) {
	if domain == "" {
		return nil, errors.New("renewip.UsingCloudflare: domain cannot be empty")
	}
	if !strings.Contains(domain, ".") {
		return nil, errors.New("renewip.UsingCloudflare: domain must have at least one dot")
	}
	api, err := cloudflare.NewWithAPIToken(token, options...)
	if err != nil {
		return nil, fmt.Errorf("renewip.UsingCloudflare: error creating cloudflare api client: %w", err)
	}
	return &cloudflarePublisher{
		api:     api,
		domain:  domain,
		logger:  zap.NewNop(),
		comment: "managed by renewip",
	}, nil
}

// cloudflarePublisher implements renewip.Publisher.
type cloudflarePublisher struct {
	api     *cloudflare.API
	domain  string
	logger  *zap.Logger
	comment string // attached to each record we create
}

func (cf *cloudflarePublisher) SetLogger(l *zap.Logger) { cf.logger = l }

func (cf *cloudflarePublisher) SetHTTPClient(c *http.Client) {
	if err := cloudflare.HTTPClient(c)(cf.api); err != nil {
		cf.logger.Warn("unable to set cloudflare http client", zap.Error(err))
	}
}

// Publish replaces the records of the address's family (A or AAAA) with a single record for addr.
// Records of the other family are left alone.
func (cf *cloudflarePublisher) Publish(ctx context.Context, addr Address) error {
	a, err := netip.ParseAddr(addr.String())
	if err != nil {
		return fmt.Errorf("cannot publish %q: %w", addr, err)
	}
	a = a.Unmap()
	rtype := recordType(a)

	zid, err := cf.getZoneIDFromDomain(ctx, cf.domain)
	if err != nil {
		return fmt.Errorf("unable to get zone ID for %s: %w", cf.domain, err)
	}
	cf.logger.Debug("got zone ID", zap.String("zone_id", zid))

	records, _, err := cf.api.ListDNSRecords(ctx, cloudflare.ZoneIdentifier(zid), cloudflare.ListDNSRecordsParams{
		Type: rtype,
		Name: cf.domain,
	})
	if err != nil {
		return fmt.Errorf("unable to list %s records for %s: %w", rtype, cf.domain, err)
	}
	cf.logger.Debug("found existing records", zap.Int("count", len(records)))

	found := false
	for _, r := range records {
		if r.Content == a.String() {
			found = true
			continue
		}
		cf.logger.Debug("deleting stale DNS record", zap.String("content", r.Content))
		if err := cf.api.DeleteDNSRecord(ctx, cloudflare.ZoneIdentifier(zid), r.ID); err != nil {
			return fmt.Errorf("unable to delete DNS record %s: %w", r.ID, err)
		}
	}
	if found {
		cf.logger.Info("DNS record already up to date", zap.String("domain", cf.domain), zap.Stringer("address", a))
		return nil
	}

	_, err = cf.api.CreateDNSRecord(ctx, cloudflare.ZoneIdentifier(zid), cloudflare.CreateDNSRecordParams{
		Type:    rtype,
		Name:    cf.domain,
		Content: a.String(),
		ZoneID:  zid,
		TTL:     60,
		Comment: cf.comment,
	})
	if err != nil {
		return fmt.Errorf("error creating DNS record: %w", err)
	}
	cf.logger.Info("published DNS record", zap.String("domain", cf.domain), zap.Stringer("address", a))
	return nil
}

func (cf *cloudflarePublisher) getZoneIDFromDomain(ctx context.Context, domain string) (zid string, err error) {
	zones, err := cf.api.ListZones(ctx)
	if err != nil {
		return "", fmt.Errorf("error listing zones: %w", err)
	}
	return longestZoneMatch(zones, domain)
}

// longestZoneMatch picks the most specific zone that domain belongs to.
func longestZoneMatch(zones []cloudflare.Zone, domain string) (string, error) {
	max, zid := 0, ""
	for _, z := range zones {
		if (domain == z.Name || strings.HasSuffix(domain, "."+z.Name)) && len(z.Name) > max {
			max, zid = len(z.Name), z.ID
		}
	}
	if max == 0 {
		return "", fmt.Errorf("unable to find a zone matching \"%s\"", domain)
	}
	return zid, nil
}

func recordType(a netip.Addr) string {
	if a.Is4() {
		return "A"
	}
	return "AAAA"
}
