package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMOTClientFetchVehicle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/registration/AB12CDE", r.URL.Path)
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		assert.Equal(t, "key", r.Header.Get("X-API-Key"))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"registration": "AB12CDE", "engineSize": 1596, "motTests": []}`)
	}))
	defer server.Close()

	client := NewMOTClient(server.URL+"/registration/", "key", "token", time.Second)
	payload, err := client.FetchVehicle(context.Background(), "AB12CDE")
	require.NoError(t, err)

	assert.Equal(t, "AB12CDE", payload["registration"])
	assert.Equal(t, json.Number("1596"), payload["engineSize"])
}

func TestVESClientFetchVehicle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "key", r.Header.Get("x-api-key"))

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "AB12CDE", body["registrationNumber"])

		io.WriteString(w, `{"registrationNumber": "AB12CDE", "colour": "RED"}`)
	}))
	defer server.Close()

	client := NewVESClient(server.URL, "key", time.Second)
	payload, err := client.FetchVehicle(context.Background(), "AB12CDE")
	require.NoError(t, err)
	assert.Equal(t, "RED", payload["colour"])
}

func TestClientRejectsClientErrors(t *testing.T) {
	tests := []struct {
		name     string
		provider Provider
		status   int
		body     string
		code     string
		message  string
		notFound bool
	}{
		{"VES error list", ProviderVES, http.StatusNotFound, `{"errors": [{"status": "404", "code": "404", "title": "Vehicle Not Found"}]}`, "404", "Vehicle Not Found", true},
		{"MOT error marker", ProviderMOT, http.StatusNotFound, `{"errorCode": "MOTH-NP-01", "errorMessage": "No data found"}`, "MOTH-NP-01", "No data found", true},
		{"MOT gateway refusal", ProviderMOT, http.StatusForbidden, `{"message": "Forbidden"}`, "403", "Forbidden", false},
		{"MOT empty object", ProviderMOT, http.StatusUnauthorized, `{}`, "401", "Unauthorized", false},
		{"VES plain text", ProviderVES, http.StatusBadRequest, `bad request`, "400", "Bad Request", false},
		{"MOT bare not found", ProviderMOT, http.StatusNotFound, ``, "404", "Not Found", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer server.Close()

			var fetcher VehicleFetcher
			if tt.provider == ProviderMOT {
				fetcher = NewMOTClient(server.URL+"/", "key", "token", time.Second)
			} else {
				fetcher = NewVESClient(server.URL, "key", time.Second)
			}

			payload, err := fetcher.FetchVehicle(context.Background(), "AB12CDE")
			assert.Nil(t, payload)

			var upErr *UpstreamError
			require.ErrorAs(t, err, &upErr)
			assert.Equal(t, tt.provider, upErr.Provider)
			assert.Equal(t, tt.code, upErr.Code)
			assert.Equal(t, tt.message, upErr.Message)
			assert.Equal(t, tt.notFound, upErr.NotFound())
		})
	}
}

func TestClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, `{"registration": "AB12CDE"}`)
	}))
	defer server.Close()

	client := NewMOTClient(server.URL+"/", "key", "token", time.Second)
	client.backoff = time.Millisecond

	payload, err := client.FetchVehicle(context.Background(), "AB12CDE")
	require.NoError(t, err)
	assert.Equal(t, "AB12CDE", payload["registration"])
	assert.Equal(t, int32(3), calls.Load())
}

func TestClientGivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewVESClient(server.URL, "key", time.Second)
	client.backoff = time.Millisecond

	_, err := client.FetchVehicle(context.Background(), "AB12CDE")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
	assert.Equal(t, int32(maxRetries), calls.Load())
}

func TestClientRejectsUndecodableSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[1, 2, 3]`)
	}))
	defer server.Close()

	client := NewVESClient(server.URL, "key", time.Second)
	_, err := client.FetchVehicle(context.Background(), "AB12CDE")

	var missing *MissingDataError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, ProviderVES, missing.Provider)
}

func TestClientHonoursCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewVESClient(server.URL, "key", time.Second)
	client.backoff = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.FetchVehicle(ctx, "AB12CDE")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
