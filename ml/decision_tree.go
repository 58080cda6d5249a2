package ml

import (
	"errors"
	"fmt"
)

// DecisionTree is a regression tree stored as a flat node array in
// pre-order: node 0 is the root and children always follow their parent.
type DecisionTree struct {
	nodes []TreeNode
}

type TreeNode struct {
	FeatureIdx int     `json:"feature_idx"`
	Threshold  float64 `json:"threshold"`
	LeftChild  int     `json:"left_child"`
	RightChild int     `json:"right_child"`
	Value      float64 `json:"value"`
	IsLeaf     bool    `json:"is_leaf"`
}

func NewDecisionTree(nodes []TreeNode) (*DecisionTree, error) {
	dt := &DecisionTree{nodes: nodes}
	if err := dt.validate(); err != nil {
		return nil, err
	}
	return dt, nil
}

func (dt *DecisionTree) Predict(rows [][]float64) ([]float64, error) {
	if err := checkRows(rows); err != nil {
		return nil, err
	}
	out := make([]float64, len(rows))
	for i, row := range rows {
		value, err := dt.predictRow(row)
		if err != nil {
			return nil, err
		}
		out[i] = value
	}
	return out, nil
}

func (dt *DecisionTree) predictRow(features []float64) (float64, error) {
	if len(dt.nodes) == 0 {
		return 0, errors.New("empty tree")
	}
	idx := 0
	for {
		node := dt.nodes[idx]
		if node.IsLeaf {
			return node.Value, nil
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= len(features) {
			return 0, errors.New("feature index out of range")
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx < 0 || idx >= len(dt.nodes) {
			return 0, errors.New("invalid tree state")
		}
	}
}

// validate rejects trees that could index out of range or loop.
func (dt *DecisionTree) validate() error {
	if len(dt.nodes) == 0 {
		return fmt.Errorf("%w: empty tree", ErrInvalidModel)
	}
	for i, node := range dt.nodes {
		if node.IsLeaf {
			continue
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= FeatureCount {
			return fmt.Errorf("%w: node %d splits on feature %d", ErrInvalidModel, i, node.FeatureIdx)
		}
		for _, child := range []int{node.LeftChild, node.RightChild} {
			if child <= i || child >= len(dt.nodes) {
				return fmt.Errorf("%w: node %d has child %d", ErrInvalidModel, i, child)
			}
		}
	}
	return nil
}
