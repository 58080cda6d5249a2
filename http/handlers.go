package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"go.uber.org/zap"
)

const (
	predictFailureMessage     = "Prediction failed. Please check input data and server logs."
	invocationsFailureMessage = "Prediction failed. Check input format or server logs."
)

var errModelNotLoaded = errors.New("model not loaded")

// Predictor scores one feature vector.
type Predictor interface {
	Predict(features []float64) (float64, error)
}

var (
	predictorMu sync.RWMutex
	predictor   Predictor
)

// SetPredictor installs the model used by the prediction handlers.
func SetPredictor(p Predictor) {
	predictorMu.Lock()
	defer predictorMu.Unlock()
	predictor = p
}

func predict(features []float64) (float64, error) {
	predictorMu.RLock()
	p := predictor
	predictorMu.RUnlock()
	if p == nil {
		return 0, errModelNotLoaded
	}
	return p.Predict(features)
}

type pingResponse struct {
	Message string `json:"message"`
}

type predictionResponse struct {
	PredictedTotalUPDRS float64 `json:"predicted_total_UPDRS"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("GET /ping", handlePing)
	mux.HandleFunc("POST /predict", handlePredict)
	mux.HandleFunc("POST /invocations", handleInvocations)
}

func handlePing(w http.ResponseWriter, r *http.Request) {
	zap.L().Info("Health check endpoint called.")
	respondJSON(w, http.StatusOK, pingResponse{Message: "pong"})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Error("Failed to encode JSON", zap.Error(err))
	}
}
