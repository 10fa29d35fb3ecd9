package dnsprovider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestUpdateRecordContent tests a successful partial update
func TestUpdateRecordContent(t *testing.T) {
	var gotMethod, gotPath, gotAuth string
	var gotBody map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode(updateResponse{
			Success: true,
			Result: Record{
				ID:      "rec-1",
				Name:    "vpn.example.com",
				Content: gotBody["content"],
				TTL:     300,
			},
		})
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	rec, err := c.UpdateRecordContent(context.Background(), "tok-123", "zone-1", "rec-1", "203.0.113.7")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPatch, gotMethod)
	assert.Equal(t, "/zones/zone-1/dns_records/rec-1", gotPath)
	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.Equal(t, map[string]string{"content": "203.0.113.7"}, gotBody)
	assert.Equal(t, "vpn.example.com", rec.Name)
	assert.Equal(t, "203.0.113.7", rec.Content)
}

// TestUpdateRecordContentHTTPError tests the non-2xx path with a provider payload
func TestUpdateRecordContentHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(updateResponse{
			Success: false,
			Errors:  []APIError{{Code: 9109, Message: "Invalid access token"}},
		})
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	_, err := c.UpdateRecordContent(context.Background(), "bad-token", "zone-1", "rec-1", "203.0.113.7")
	require.Error(t, err)

	var pErr *ProviderError
	require.ErrorAs(t, err, &pErr)
	assert.Equal(t, http.StatusForbidden, pErr.StatusCode)
	require.Len(t, pErr.Errors, 1)
	assert.Equal(t, 9109, pErr.Errors[0].Code)
	// The provider's message survives verbatim into the error text
	assert.Contains(t, pErr.Error(), "Invalid access token")
}

// TestUpdateRecordContentSuccessFalse tests a 200 whose envelope reports failure
func TestUpdateRecordContentSuccessFalse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(updateResponse{
			Success: false,
			Errors:  []APIError{{Code: 81044, Message: "Record not found"}},
		})
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	_, err := c.UpdateRecordContent(context.Background(), "tok", "zone-1", "rec-gone", "203.0.113.7")
	require.Error(t, err)

	var pErr *ProviderError
	require.ErrorAs(t, err, &pErr)
	assert.Equal(t, http.StatusOK, pErr.StatusCode)
	assert.Contains(t, pErr.Error(), "Record not found")
}

// TestUpdateRecordContentNonJSONBody tests that an opaque body still surfaces
func TestUpdateRecordContentNonJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>upstream error</html>"))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	_, err := c.UpdateRecordContent(context.Background(), "tok", "zone-1", "rec-1", "203.0.113.7")
	require.Error(t, err)

	var pErr *ProviderError
	require.ErrorAs(t, err, &pErr)
	assert.Contains(t, pErr.Error(), "upstream error")
}
