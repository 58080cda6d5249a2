package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"updrsserve/ml"
)

// handleInvocations is the model-serving platform route. The body is not
// schema checked; any failure collapses into the generic error body.
func handleInvocations(w http.ResponseWriter, r *http.Request) {
	value, err := invoke(r)
	if err != nil {
		zap.L().Error("Error during /invocations prediction.", zap.Error(err))
		respondJSON(w, http.StatusOK, errorResponse{Error: invocationsFailureMessage})
		return
	}

	zap.L().Info("Prediction successful (invocations)", zap.Float64("predicted_total_UPDRS", value))
	respondJSON(w, http.StatusOK, predictionResponse{PredictedTotalUPDRS: value})
}

func invoke(r *http.Request) (float64, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return 0, fmt.Errorf("read body: %w", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return 0, fmt.Errorf("decode payload: %w", err)
	}
	zap.L().Info("Received /invocations request", zap.Any("payload", payload))

	record, err := ml.RecordFromMap(payload)
	if err != nil {
		return 0, err
	}
	return predict(record.Vector())
}
