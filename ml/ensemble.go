package ml

import "fmt"

// TreeEnsemble scores rows with several regression trees. A random forest
// averages the trees; gradient boosting adds the scaled sum to BaseScore.
type TreeEnsemble struct {
	trees        []*DecisionTree
	boosted      bool
	baseScore    float64
	learningRate float64
}

func NewRandomForest(trees []*DecisionTree) (*TreeEnsemble, error) {
	if len(trees) == 0 {
		return nil, fmt.Errorf("%w: random forest has no trees", ErrInvalidModel)
	}
	return &TreeEnsemble{trees: trees}, nil
}

func NewGradientBoosting(trees []*DecisionTree, baseScore, learningRate float64) (*TreeEnsemble, error) {
	if len(trees) == 0 {
		return nil, fmt.Errorf("%w: gradient boosting has no trees", ErrInvalidModel)
	}
	if learningRate == 0 {
		learningRate = 1
	}
	return &TreeEnsemble{
		trees:        trees,
		boosted:      true,
		baseScore:    baseScore,
		learningRate: learningRate,
	}, nil
}

func (te *TreeEnsemble) Predict(rows [][]float64) ([]float64, error) {
	if err := checkRows(rows); err != nil {
		return nil, err
	}
	out := make([]float64, len(rows))
	for i, row := range rows {
		sum := 0.0
		for _, tree := range te.trees {
			value, err := tree.predictRow(row)
			if err != nil {
				return nil, err
			}
			sum += value
		}
		if te.boosted {
			out[i] = te.baseScore + te.learningRate*sum
		} else {
			out[i] = sum / float64(len(te.trees))
		}
	}
	return out, nil
}
