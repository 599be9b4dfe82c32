package salesforce

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gosf "github.com/k-capehart/go-salesforce/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestSFClient creates an sfClient backed by an httptest server.
func newTestSFClient(t *testing.T, handler http.Handler, opts ...ClientOption) Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	sf, err := gosf.Init(gosf.Creds{
		AccessToken: "test-token",
		Domain:      ts.URL,
	},
		gosf.WithValidateAuthentication(false),
		gosf.WithRoundTripper(http.DefaultTransport),
	)
	require.NoError(t, err)
	return NewClient(sf, opts...)
}

func TestSFClient_QueryLeads(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/query")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"totalSize": 2,
			"done":      true,
			"records": []map[string]any{
				{
					"attributes":        map[string]any{"type": "Lead"},
					"Id":                "00Q1",
					"Name":              "Ana",
					"Phone":             "6.28524E+12",
					"Branch__c":         "SEFT Corp - Bekasi",
					"Payment_Status__c": "Paid",
					"CreatedDate":       "2025-03-01T10:00:00.000+0000",
				},
				{
					"attributes":  map[string]any{"type": "Lead"},
					"Id":          "00Q2",
					"Name":        "Budi",
					"MobilePhone": "0812 3456 7890",
					"Branch__c":   "SEFT Corp - Jogja",
				},
			},
		})
	})

	client := newTestSFClient(t, handler)
	leads, err := FetchLeads(context.Background(), client, "")
	require.NoError(t, err)
	require.Len(t, leads, 2)
	assert.Equal(t, "sf:00Q1", leads[0].ID)
	assert.Equal(t, "paid", string(leads[0].PaymentStatus))
	assert.True(t, leads[0].OccurredAt.Equal(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)))
	assert.Equal(t, "0812 3456 7890", leads[1].RawPhone, "falls back to MobilePhone")
	assert.Equal(t, "salesforce", leads[1].Source)
}

func TestSFClient_Query_Error(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"message": "invalid SOQL", "errorCode": "MALFORMED_QUERY"},
		})
	})

	client := newTestSFClient(t, handler)
	var leads []Lead
	err := client.Query(context.Background(), "INVALID SOQL", &leads)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sf: query")
}

func TestSFClient_RateLimitHonoursContext(t *testing.T) {
	client := newTestSFClient(t, http.NotFoundHandler(), WithRateLimit(0.001))
	sc := client.(*sfClient)
	require.NotNil(t, sc.limiter)
	require.True(t, sc.limiter.Allow(), "drain the single burst token")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := client.Query(ctx, "SELECT Id FROM Lead", &[]Lead{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sf: rate limit")
}

func TestConnect_RequiresCreds(t *testing.T) {
	_, err := Connect(Creds{Domain: "https://example.my.salesforce.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required")
}
