package service

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/jjenkins/motreport/internal/model"
)

// DefaultMOTEndpoint is the MOT history trade API registration lookup
const DefaultMOTEndpoint = "https://history.mot.api.gov.uk/v1/trade/vehicles/registration/"

// MOTClient fetches test history from the MOT history API (provider A)
type MOTClient struct {
	providerClient
	endpoint         string
	apiKey           string
	authorizationKey string
}

// NewMOTClient creates a new MOT history API client
func NewMOTClient(endpoint, apiKey, authorizationKey string, timeout time.Duration) *MOTClient {
	if endpoint == "" {
		endpoint = DefaultMOTEndpoint
	}
	return &MOTClient{
		providerClient:   newProviderClient(ProviderMOT, timeout),
		endpoint:         endpoint,
		apiKey:           apiKey,
		authorizationKey: authorizationKey,
	}
}

// FetchVehicle retrieves the raw history payload for a registration
func (c *MOTClient) FetchVehicle(ctx context.Context, registration string) (model.Payload, error) {
	target := c.endpoint + url.PathEscape(registration)

	return c.fetchWithRetry(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.authorizationKey)
		req.Header.Set("X-API-Key", c.apiKey)
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
}
