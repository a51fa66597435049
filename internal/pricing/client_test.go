package pricing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testOfferFile = `{
  "formatVersion": "v1.0",
  "disclaimer": "test",
  "offerCode": "AmazonEC2",
  "version": "20240301000000",
  "publicationDate": "2024-03-01T00:00:00Z",
  "products": {
    "SKU1": {"sku": "SKU1", "productFamily": "Compute Instance", "attributes": {
      "instanceType": "c4.large", "location": "US East (N. Virginia)", "operatingSystem": "Linux",
      "tenancy": "Shared", "preInstalledSw": "NA", "capacitystatus": "Used"}},
    "SKU2": {"sku": "SKU2", "productFamily": "Compute Instance", "attributes": {
      "instanceType": "c4.large", "location": "US East (N. Virginia)", "operatingSystem": "Linux",
      "tenancy": "Dedicated", "preInstalledSw": "NA", "capacitystatus": "Used"}},
    "SKU3": {"sku": "SKU3", "productFamily": "Compute Instance", "attributes": {
      "instanceType": "c4.large", "location": "US East (N. Virginia)", "operatingSystem": "Windows",
      "tenancy": "Shared"}},
    "SKU4": {"sku": "SKU4", "productFamily": "Compute Instance", "attributes": {
      "instanceType": "c4.large", "location": "US East (N. Virginia)", "operatingSystem": "Linux",
      "tenancy": "Host"}},
    "SKU5": {"sku": "SKU5", "productFamily": "Compute Instance", "attributes": {
      "instanceType": "c4.large", "location": "US East (N. Virginia)", "operatingSystem": "Linux",
      "tenancy": "Shared", "preInstalledSw": "SQL Std", "capacitystatus": "Used"}},
    "SKU6": {"sku": "SKU6", "productFamily": "Compute Instance", "attributes": {
      "instanceType": "c4.xlarge", "location": "Canada (Central)", "operatingSystem": "Linux",
      "tenancy": "Shared", "preInstalledSw": "NA", "capacitystatus": "Used"}},
    "SKU7": {"sku": "SKU7", "productFamily": "Storage", "attributes": {"location": "US East (N. Virginia)"}},
    "SKU8": {"sku": "SKU8", "productFamily": "Compute Instance", "attributes": {
      "instanceType": "c4.large", "location": "US East (N. Virginia)", "operatingSystem": "Linux",
      "tenancy": "Shared", "preInstalledSw": "NA", "capacitystatus": "UnusedCapacityReservation"}}
  },
  "terms": {
    "OnDemand": {
      "SKU1": {"SKU1.JRTCKXETXF": {"priceDimensions": {"SKU1.JRTCKXETXF.6YS6EN2CT7": {"unit": "Hrs", "pricePerUnit": {"USD": "0.1000000000"}}}}},
      "SKU2": {"SKU2.JRTCKXETXF": {"priceDimensions": {"SKU2.JRTCKXETXF.6YS6EN2CT7": {"unit": "Hrs", "pricePerUnit": {"USD": "0.1100000000"}}}}},
      "SKU3": {"SKU3.JRTCKXETXF": {"priceDimensions": {"d": {"unit": "Hrs", "pricePerUnit": {"USD": "0.1900000000"}}}}},
      "SKU5": {"SKU5.JRTCKXETXF": {"priceDimensions": {"d": {"unit": "Hrs", "pricePerUnit": {"USD": "0.9000000000"}}}}},
      "SKU6": {"SKU6.JRTCKXETXF": {"priceDimensions": {"d": {"unit": "Hrs", "pricePerUnit": {"USD": "0.2200000000"}}}}},
      "SKU8": {"SKU8.JRTCKXETXF": {"priceDimensions": {"d": {"unit": "Hrs", "pricePerUnit": {"USD": "0.0000000000"}}}}}
    },
    "Reserved": {
      "SKU1": {"SKU1.4NA7Y494T4": {"priceDimensions": {"d": {"unit": "Quantity", "pricePerUnit": {"USD": "500"}}}}}
    }
  },
  "attributesList": {}
}`

func offerServer(t *testing.T, withRegionIndex bool) (*httptest.Server, *int32) {
	t.Helper()
	var offerHits int32
	mux := http.NewServeMux()
	mux.HandleFunc(OfferIndexPath, func(w http.ResponseWriter, _ *http.Request) {
		regionIndex := ""
		if withRegionIndex {
			regionIndex = `, "currentRegionIndexUrl": "/offers/v1.0/aws/AmazonEC2/current/region_index.json"`
		}
		_, _ = w.Write([]byte(`{"offers": {"AmazonEC2": {"offerCode": "AmazonEC2",
			"currentVersionUrl": "/offers/v1.0/aws/AmazonEC2/current/index.json"` + regionIndex + `}}}`))
	})
	mux.HandleFunc("/offers/v1.0/aws/AmazonEC2/current/region_index.json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"regions": {"us-east-1": {"regionCode": "us-east-1",
			"currentVersionUrl": "/offers/v1.0/aws/AmazonEC2/20240301/us-east-1/index.json"}}}`))
	})
	serveOffer := func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&offerHits, 1)
		_, _ = w.Write([]byte(testOfferFile))
	}
	mux.HandleFunc("/offers/v1.0/aws/AmazonEC2/current/index.json", serveOffer)
	mux.HandleFunc("/offers/v1.0/aws/AmazonEC2/20240301/us-east-1/index.json", serveOffer)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &offerHits
}

func TestClient_FetchCatalog(t *testing.T) {
	server, _ := offerServer(t, false)

	cat, err := NewClientWithEndpoint(server.URL).FetchCatalog(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "20240301000000", cat.Version)
	assert.False(t, cat.FetchedAt.IsZero())

	price, ok := cat.OnDemand("c4.large", "us-east-1")
	require.True(t, ok)
	assert.Equal(t, 0.10, price, "shared tenancy without pre-installed software")

	assert.Equal(t, 0.11, cat.Prices["c4.large"][TenancyDedicated]["US East (N. Virginia)"])
	_, hostTenancy := cat.Prices["c4.large"]["Host"]
	assert.False(t, hostTenancy)

	price, ok = cat.OnDemand("c4.xlarge", "ca-central-1")
	require.True(t, ok)
	assert.Equal(t, 0.22, price)

	_, ok = cat.OnDemand("c4.xlarge", "us-east-1")
	assert.False(t, ok)
	assert.Equal(t, []string{"c4.large", "c4.xlarge"}, cat.InstanceTypes())
}

func TestClient_FetchCatalogRegional(t *testing.T) {
	server, _ := offerServer(t, true)

	cat, err := NewClientWithEndpoint(server.URL).FetchCatalog(context.Background(), "us-east-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"us-east-1"}, cat.Regions)
	assert.True(t, cat.Covers("us-east-1"))
	assert.False(t, cat.Covers("eu-west-1"))

	_, err = NewClientWithEndpoint(server.URL).FetchCatalog(context.Background(), "eu-west-1")
	assert.ErrorIs(t, err, ErrUnknownRegion)
}

func TestClient_FetchCatalogErrors(t *testing.T) {
	t.Run("index status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		_, err := NewClientWithEndpoint(server.URL).FetchCatalog(context.Background())
		assert.ErrorContains(t, err, "status 503")
	})

	t.Run("no ec2 offer", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"offers": {"AmazonS3": {"currentVersionUrl": "/x"}}}`))
		}))
		defer server.Close()

		_, err := NewClientWithEndpoint(server.URL).FetchCatalog(context.Background())
		assert.ErrorContains(t, err, "AmazonEC2")
	})

	t.Run("truncated offer", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc(OfferIndexPath, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"offers": {"AmazonEC2": {"currentVersionUrl": "/offer.json"}}}`))
		})
		mux.HandleFunc("/offer.json", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"products": {"SKU1": {`))
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		_, err := NewClientWithEndpoint(server.URL).FetchCatalog(context.Background())
		assert.ErrorContains(t, err, "failed to parse offer file")
	})
}

func TestClient_FetchOrLoad(t *testing.T) {
	server, hits := offerServer(t, true)
	client := NewClientWithEndpoint(server.URL)
	cache := filepath.Join(t.TempDir(), "cache", "ec2-offers.json")
	ctx := context.Background()

	cat, cached, err := client.FetchOrLoad(ctx, cache, "us-east-1")
	require.NoError(t, err)
	assert.False(t, cached)
	assert.FileExists(t, cache)

	again, cached, err := client.FetchOrLoad(ctx, cache, "us-east-1")
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, cat.Prices, again.Prices)
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))

	// A corrupt cache is replaced.
	require.NoError(t, os.WriteFile(cache, []byte("{"), 0o644))
	_, cached, err = client.FetchOrLoad(ctx, cache, "us-east-1")
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, int32(2), atomic.LoadInt32(hits))
}
