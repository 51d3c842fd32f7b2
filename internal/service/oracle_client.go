package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/careloop/scheduling-api/internal/models"
	appErrors "github.com/careloop/scheduling-api/pkg/errors"
)

// OracleClientConfig configures the prediction-service client.
type OracleClientConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// OracleClient calls the external no-show prediction service over HTTP. It
// implements RiskPredictor; RiskService degrades to the heuristic whenever
// a call fails, so errors here never reach the scheduling caller.
type OracleClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewOracleClient constructs the client with sane defaults.
func NewOracleClient(cfg OracleClientConfig) *OracleClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &OracleClient{
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// Predict posts the feature vector to the prediction endpoint and decodes
// the service's answer.
func (c *OracleClient) Predict(ctx context.Context, features models.PredictionFeatures) (*models.RiskPrediction, error) {
	if c == nil || c.baseURL == "" {
		return nil, appErrors.Clone(appErrors.ErrOracleUnavailable, "prediction service not configured")
	}

	body, err := json.Marshal(features)
	if err != nil {
		return nil, fmt.Errorf("encode prediction features: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/predictions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build prediction request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrOracleUnavailable.Code, appErrors.ErrOracleUnavailable.Status, "prediction service unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, appErrors.Clone(appErrors.ErrOracleUnavailable,
			fmt.Sprintf("prediction service returned status %d", resp.StatusCode))
	}

	var prediction models.RiskPrediction
	if err := json.NewDecoder(resp.Body).Decode(&prediction); err != nil {
		return nil, fmt.Errorf("decode prediction response: %w", err)
	}
	return &prediction, nil
}
