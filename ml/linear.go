package ml

import "fmt"

// LinearRegression computes intercept + coef·x.
type LinearRegression struct {
	Coef      []float64 `json:"coef"`
	Intercept float64   `json:"intercept"`
}

func (lr *LinearRegression) Predict(rows [][]float64) ([]float64, error) {
	if err := checkRows(rows); err != nil {
		return nil, err
	}
	if err := lr.validate(); err != nil {
		return nil, err
	}
	out := make([]float64, len(rows))
	for i, row := range rows {
		sum := lr.Intercept
		for j, x := range row {
			sum += lr.Coef[j] * x
		}
		out[i] = sum
	}
	return out, nil
}

func (lr *LinearRegression) validate() error {
	if len(lr.Coef) != FeatureCount {
		return fmt.Errorf("%w: linear model has %d coefficients, want %d", ErrInvalidModel, len(lr.Coef), FeatureCount)
	}
	return nil
}
