package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/marior032001/jwt-pizza-service/config"
	"github.com/marior032001/jwt-pizza-service/models"
	"github.com/marior032001/jwt-pizza-service/utils"
	"github.com/sirupsen/logrus"
)

const fulfillmentFailedMessage = "Failed to fulfill order at factory"

// FactoryClient sends committed orders to the pizza factory.
type FactoryClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// FactoryReceipt is the factory's answer to a fulfilled order.
type FactoryReceipt struct {
	JWT       string `json:"jwt"`
	ReportURL string `json:"reportUrl"`
}

type factoryDiner struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type factoryRequest struct {
	Diner factoryDiner `json:"diner"`
	Order models.Order `json:"order"`
}

type factoryFailure struct {
	Message   string `json:"message"`
	ReportURL string `json:"reportUrl"`
}

func NewFactoryClient(cfg config.FactoryConfig) *FactoryClient {
	return &FactoryClient{
		baseURL:    cfg.URL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Fulfill posts the order. Any failure comes back as a FulfillmentFailed
// error carrying the factory's report link when it sent one.
func (fc *FactoryClient) Fulfill(ctx context.Context, diner models.AuthUser, order models.Order) (*FactoryReceipt, error) {
	payload, err := json.Marshal(factoryRequest{
		Diner: factoryDiner{ID: diner.ID, Name: diner.Name, Email: diner.Email},
		Order: order,
	})
	if err != nil {
		return nil, fulfillmentFailed("", fmt.Errorf("error marshaling request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fc.baseURL+"/api/order", bytes.NewReader(payload))
	if err != nil {
		return nil, fulfillmentFailed("", fmt.Errorf("error creating request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+fc.apiKey)

	resp, err := fc.httpClient.Do(req)
	if err != nil {
		return nil, fulfillmentFailed("", fmt.Errorf("error making request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fulfillmentFailed("", fmt.Errorf("error reading response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var failure factoryFailure
		_ = json.Unmarshal(body, &failure)
		utils.ErrorLogger.WithFields(logrus.Fields{
			"order_id": order.ID,
			"status":   resp.StatusCode,
			"message":  failure.Message,
		}).Warn("factory rejected order")
		return nil, fulfillmentFailed(failure.ReportURL, fmt.Errorf("factory status %d", resp.StatusCode))
	}

	var receipt FactoryReceipt
	if err := json.Unmarshal(body, &receipt); err != nil {
		return nil, fulfillmentFailed("", fmt.Errorf("error unmarshaling response: %w", err))
	}
	return &receipt, nil
}

func fulfillmentFailed(reportURL string, err error) error {
	return &utils.AppError{
		Kind:      utils.KindFulfillmentFailed,
		Message:   fulfillmentFailedMessage,
		Err:       err,
		ReportURL: reportURL,
	}
}
