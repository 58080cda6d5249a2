package ml

import "errors"

var (
	ErrUnsupportedModel = errors.New("unsupported model type")
	ErrInvalidModel     = errors.New("invalid model artifact")
	ErrNonFinite        = errors.New("prediction is not a finite number")
)

const (
	ModelLinear           = "linear"
	ModelDecisionTree     = "decision_tree"
	ModelRandomForest     = "random_forest"
	ModelGradientBoosting = "gradient_boosting"
)

// Predictor maps rows of FeatureCount values to one prediction per row.
// Implementations are immutable after loading and safe for concurrent use.
type Predictor interface {
	Predict(rows [][]float64) ([]float64, error)
}

func checkRows(rows [][]float64) error {
	if len(rows) == 0 {
		return errors.New("no rows to predict")
	}
	for _, row := range rows {
		if len(row) != FeatureCount {
			return ErrFeatureCount
		}
	}
	return nil
}
