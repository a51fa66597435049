package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"
)

const (
	// DefaultEndpoint serves the public AWS bulk price list.
	DefaultEndpoint = "https://pricing.us-east-1.amazonaws.com"

	// OfferIndexPath lists every service's offer files.
	OfferIndexPath = "/offers/v1.0/aws/index.json"

	ec2OfferCode = "AmazonEC2"
)

// Client downloads the EC2 bulk offer file.
type Client struct {
	endpoint   string
	httpClient *http.Client
	now        func() time.Time
}

// NewClient creates a client for the public price list.
func NewClient() *Client {
	return NewClientWithEndpoint(DefaultEndpoint)
}

// NewClientWithEndpoint creates a client with a custom endpoint (for testing).
func NewClientWithEndpoint(endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		// Offer files are large, so only the header wait is bounded here.
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				ResponseHeaderTimeout: 30 * time.Second,
			},
		},
		now: time.Now,
	}
}

type offerIndex struct {
	Offers map[string]struct {
		CurrentVersionURL     string `json:"currentVersionUrl"`
		CurrentRegionIndexURL string `json:"currentRegionIndexUrl"`
	} `json:"offers"`
}

type regionIndex struct {
	Regions map[string]struct {
		RegionCode        string `json:"regionCode"`
		CurrentVersionURL string `json:"currentVersionUrl"`
	} `json:"regions"`
}

// FetchCatalog downloads the current EC2 offer and extracts on-demand Linux
// prices. With regions given, the per-region offer files are used when the
// index provides them; otherwise the full offer file is read.
func (c *Client) FetchCatalog(ctx context.Context, regions ...string) (*Catalog, error) {
	var index offerIndex
	if err := c.getJSON(ctx, OfferIndexPath, &index); err != nil {
		return nil, fmt.Errorf("failed to fetch offer index: %w", err)
	}
	offer, ok := index.Offers[ec2OfferCode]
	if !ok || offer.CurrentVersionURL == "" {
		return nil, fmt.Errorf("offer index has no %s entry", ec2OfferCode)
	}

	cat := NewCatalog()
	if len(regions) > 0 && offer.CurrentRegionIndexURL != "" {
		var ri regionIndex
		if err := c.getJSON(ctx, offer.CurrentRegionIndexURL, &ri); err != nil {
			return nil, fmt.Errorf("failed to fetch region index: %w", err)
		}
		for _, region := range regions {
			entry, ok := ri.Regions[region]
			if !ok {
				return nil, fmt.Errorf("%w: %s not in offer region index", ErrUnknownRegion, region)
			}
			if err := c.streamOffer(ctx, entry.CurrentVersionURL, cat); err != nil {
				return nil, err
			}
		}
		cat.Regions = append([]string(nil), regions...)
	} else if err := c.streamOffer(ctx, offer.CurrentVersionURL, cat); err != nil {
		return nil, err
	}

	if len(cat.Prices) == 0 {
		return nil, fmt.Errorf("%w: offer file has no Linux compute prices", ErrPricingDataUnavailable)
	}
	cat.FetchedAt = c.now().UTC()
	return cat, nil
}

// FetchOrLoad reuses the snapshot at cachePath when it covers every region,
// otherwise downloads a fresh catalog and saves it there. An empty cachePath
// always downloads.
func (c *Client) FetchOrLoad(ctx context.Context, cachePath string, regions ...string) (*Catalog, bool, error) {
	if cachePath != "" {
		if cat, err := LoadCatalog(cachePath); err == nil && coversAll(cat, regions) {
			return cat, true, nil
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			// An unreadable cache is replaced below.
			_ = os.Remove(cachePath)
		}
	}

	cat, err := c.FetchCatalog(ctx, regions...)
	if err != nil {
		return nil, false, err
	}
	if cachePath != "" {
		if err := cat.Save(cachePath); err != nil {
			return cat, false, err
		}
	}
	return cat, false, nil
}

func coversAll(cat *Catalog, regions []string) bool {
	for _, r := range regions {
		if !cat.Covers(r) {
			return false
		}
	}
	return true
}

func (c *Client) get(ctx context.Context, path string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("price list returned status %d for %s", resp.StatusCode, path)
	}
	return resp.Body, nil
}

func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	body, err := c.get(ctx, path)
	if err != nil {
		return err
	}
	defer func() { _ = body.Close() }()

	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func (c *Client) streamOffer(ctx context.Context, path string, cat *Catalog) error {
	body, err := c.get(ctx, path)
	if err != nil {
		return fmt.Errorf("failed to fetch offer file: %w", err)
	}
	defer func() { _ = body.Close() }()

	if err := decodeOffer(body, cat); err != nil {
		return fmt.Errorf("failed to parse offer file %s: %w", path, err)
	}
	return nil
}

// Offer file structures. Only the fields needed for on-demand prices.

type offerProduct struct {
	ProductFamily string            `json:"productFamily"`
	Attributes    map[string]string `json:"attributes"`
}

type productKey struct {
	instanceType string
	tenancy      string
	location     string
}

type offerTerm struct {
	PriceDimensions map[string]struct {
		Unit         string            `json:"unit"`
		PricePerUnit map[string]string `json:"pricePerUnit"`
	} `json:"priceDimensions"`
}

// key returns the catalog key of a Linux compute product.
func (p offerProduct) key() (productKey, bool) {
	a := p.Attributes
	if p.ProductFamily != "Compute Instance" || a["operatingSystem"] != "Linux" {
		return productKey{}, false
	}
	if a["tenancy"] == "" || a["tenancy"] == "Host" || a["instanceType"] == "" || a["location"] == "" {
		return productKey{}, false
	}
	if sw, ok := a["preInstalledSw"]; ok && sw != "NA" {
		return productKey{}, false
	}
	if cs, ok := a["capacitystatus"]; ok && cs != "Used" {
		return productKey{}, false
	}
	return productKey{instanceType: a["instanceType"], tenancy: a["tenancy"], location: a["location"]}, true
}

// hourlyUSD returns the lowest positive hourly USD rate in a sku's terms.
func hourlyUSD(terms map[string]offerTerm) (float64, bool) {
	best, found := 0.0, false
	for _, term := range terms {
		for _, dim := range term.PriceDimensions {
			if dim.Unit != "Hrs" {
				continue
			}
			price, err := strconv.ParseFloat(dim.PricePerUnit["USD"], 64)
			if err != nil || price <= 0 {
				continue
			}
			if !found || price < best {
				best, found = price, true
			}
		}
	}
	return best, found
}

// decodeOffer walks an offer file token by token so that the multi-gigabyte
// reserved-term section is never held in memory.
func decodeOffer(r io.Reader, cat *Catalog) error {
	dec := json.NewDecoder(r)
	products := make(map[string]productKey)
	prices := make(map[string]float64)
	productsSeen := false

	err := walkObject(dec, func(key string) error {
		switch key {
		case "version":
			return dec.Decode(&cat.Version)
		case "publicationDate":
			return dec.Decode(&cat.PublicationDate)
		case "products":
			productsSeen = true
			return walkObject(dec, func(sku string) error {
				var p offerProduct
				if err := dec.Decode(&p); err != nil {
					return err
				}
				if k, ok := p.key(); ok {
					products[sku] = k
				}
				return nil
			})
		case "terms":
			return walkObject(dec, func(termType string) error {
				if termType != "OnDemand" {
					return skipValue(dec)
				}
				return walkObject(dec, func(sku string) error {
					if productsSeen {
						if _, ok := products[sku]; !ok {
							return skipValue(dec)
						}
					}
					var terms map[string]offerTerm
					if err := dec.Decode(&terms); err != nil {
						return err
					}
					if price, ok := hourlyUSD(terms); ok {
						prices[sku] = price
					}
					return nil
				})
			})
		default:
			return skipValue(dec)
		}
	})
	if err != nil {
		return err
	}

	for sku, k := range products {
		if price, ok := prices[sku]; ok {
			cat.Add(k.instanceType, k.tenancy, k.location, price)
		}
	}
	return nil
}

// walkObject consumes a JSON object, calling fn with the decoder positioned
// on each value. fn must consume the value.
func walkObject(dec *json.Decoder, fn func(key string) error) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", tok)
		}
		if err := fn(key); err != nil {
			return err
		}
	}
	_, err = dec.Token()
	return err
}

// skipValue consumes one JSON value of any shape.
func skipValue(dec *json.Decoder) error {
	depth := 0
	for {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch tok {
		case json.Delim('{'), json.Delim('['):
			depth++
		case json.Delim('}'), json.Delim(']'):
			depth--
		}
		if depth == 0 {
			return nil
		}
	}
}
