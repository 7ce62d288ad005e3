package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/tankintel/internal/artifacts"
	"github.com/aristath/tankintel/internal/config"
	"github.com/aristath/tankintel/internal/inference"
	"github.com/aristath/tankintel/internal/models"
	"github.com/aristath/tankintel/internal/pipeline"
)

func newTestServer(t *testing.T) (*Server, *artifacts.Store) {
	t.Helper()

	country := &config.Country{
		Name:        "India",
		DatasetPath: "india.csv",
		ColumnMapping: map[string]string{
			"industry":   "Industry",
			"ask_amount": "Original Ask Amount",
		},
		Investors: []config.Investor{
			{Name: "Namita", PresentColumn: "Namita Present"},
			{Name: "Aman", PresentColumn: "Aman Present"},
		},
		ArtifactPaths: map[string]string{
			"deal":       "india/deal.msgpack",
			"valuation":  "india/valuation.msgpack",
			"investors":  "india/investors.msgpack",
			"similarity": "india/similarity.msgpack",
		},
	}
	countries, err := config.NewRegistry(country)
	require.NoError(t, err)

	store := artifacts.NewStore(t.TempDir())
	svc := inference.NewService(countries, store, zerolog.Nop())

	srv := New(Config{
		Port:      0,
		Log:       zerolog.Nop(),
		Inference: svc,
		Events:    NewEventsHub(zerolog.Nop()),
	})
	return srv, store
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	srv.router.ServeHTTP(rr, req)

	var decoded map[string]any
	if rr.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &decoded))
	}
	return rr, decoded
}

func TestHandleHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	rr, body := doJSON(t, srv, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "tankintel", body["service"])
}

func TestHandleCountries(t *testing.T) {
	srv, _ := newTestServer(t)

	rr, body := doJSON(t, srv, http.MethodGet, "/api/countries", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []any{"India"}, body["countries"])
}

func TestHandleCountryConfig(t *testing.T) {
	srv, _ := newTestServer(t)

	rr, body := doJSON(t, srv, http.MethodGet, "/api/countries/india/config", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	assert.Equal(t, "India", body["country"])
	assert.Equal(t, []any{"Namita", "Aman"}, body["sharks"])

	currency, ok := body["currency"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "₹", currency["symbol"])
	assert.Equal(t, "Lakhs", currency["unit"])

	rr, _ = doJSON(t, srv, http.MethodGet, "/api/countries/atlantis/config", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCurrencyForCountry(t *testing.T) {
	assert.Equal(t, map[string]string{"symbol": "₹", "unit": "Lakhs"}, currencyForCountry("India"))
	assert.Equal(t, map[string]string{"symbol": "$", "unit": "AUD"}, currencyForCountry("australia"))
	assert.Equal(t, map[string]string{"symbol": "$", "unit": "USD"}, currencyForCountry("US"))
	assert.Equal(t, map[string]string{"symbol": "$", "unit": "USD"}, currencyForCountry("Testland"))
}

func TestHandlePredictDeal(t *testing.T) {
	srv, store := newTestServer(t)

	t.Run("untrained model returns 404", func(t *testing.T) {
		rr, _ := doJSON(t, srv, http.MethodPost, "/api/predict/deal", map[string]any{
			"country":    "India",
			"input_data": map[string]any{"ask_amount": 100},
		})
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("missing country returns 400", func(t *testing.T) {
		rr, _ := doJSON(t, srv, http.MethodPost, "/api/predict/deal", map[string]any{
			"input_data": map[string]any{"ask_amount": 100},
		})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("trained model predicts", func(t *testing.T) {
		env, err := models.Wrap(&models.LogisticRegression{Weights: []float64{0}, Bias: 3})
		require.NoError(t, err)
		require.NoError(t, store.Save("india/deal.msgpack", &artifacts.DealBundle{
			Model:        env,
			Encoder:      &pipeline.Encoder{},
			Scaler:       &pipeline.Scaler{},
			FeatureNames: []string{"ask_amount"},
			Country:      "India",
		}))

		rr, body := doJSON(t, srv, http.MethodPost, "/api/predict/deal", map[string]any{
			"country":    "India",
			"input_data": map[string]any{"ask_amount": 100},
		})
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "DEAL", body["prediction_label"])
		assert.Equal(t, float64(1), body["prediction"])
	})
}

func TestHandleFindSimilar_RequiresDescription(t *testing.T) {
	srv, _ := newTestServer(t)

	rr, _ := doJSON(t, srv, http.MethodPost, "/api/predict/similar", map[string]any{
		"country":    "India",
		"input_data": map[string]any{},
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleTrainingRun_Validation(t *testing.T) {
	srv, _ := newTestServer(t)

	rr, _ := doJSON(t, srv, http.MethodPost, "/api/training/run", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr, _ = doJSON(t, srv, http.MethodPost, "/api/training/run", map[string]any{
		"country": "Atlantis",
	})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr, _ = doJSON(t, srv, http.MethodPost, "/api/training/run", map[string]any{
		"country": "India",
		"kind":    "sentiment",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleTrainingRuns_WithoutLedger(t *testing.T) {
	srv, _ := newTestServer(t)

	rr, _ := doJSON(t, srv, http.MethodGet, "/api/training/runs", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestBackupRoutesAbsentWhenUnconfigured(t *testing.T) {
	srv, _ := newTestServer(t)

	rr, _ := doJSON(t, srv, http.MethodPost, "/api/system/backup", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
