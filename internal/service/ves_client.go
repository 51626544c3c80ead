package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jjenkins/motreport/internal/model"
)

// DefaultVESEndpoint is the DVLA vehicle enquiry endpoint
const DefaultVESEndpoint = "https://driver-vehicle-licensing.api.gov.uk/vehicle-enquiry/v1/vehicles"

// VESClient fetches registration data from the Vehicle Enquiry Service (provider B)
type VESClient struct {
	providerClient
	endpoint string
	apiKey   string
}

// NewVESClient creates a new Vehicle Enquiry Service client
func NewVESClient(endpoint, apiKey string, timeout time.Duration) *VESClient {
	if endpoint == "" {
		endpoint = DefaultVESEndpoint
	}
	return &VESClient{
		providerClient: newProviderClient(ProviderVES, timeout),
		endpoint:       endpoint,
		apiKey:         apiKey,
	}
}

// enquiryRequest is the VES request body
type enquiryRequest struct {
	RegistrationNumber string `json:"registrationNumber"`
}

// FetchVehicle retrieves the raw enquiry payload for a registration
func (c *VESClient) FetchVehicle(ctx context.Context, registration string) (model.Payload, error) {
	body, err := json.Marshal(enquiryRequest{RegistrationNumber: registration})
	if err != nil {
		return nil, fmt.Errorf("failed to encode enquiry: %w", err)
	}

	return c.fetchWithRetry(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("x-api-key", c.apiKey)
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
}
