package ml

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	ModelDir      = "model"
	ModelFileName = "model.json"
)

type artifact struct {
	ModelType    string            `json:"model_type"`
	Target       string            `json:"target"`
	FeatureNames []string          `json:"feature_names"`
	Linear       *LinearRegression `json:"linear"`
	Trees        [][]TreeNode      `json:"trees"`
	BaseScore    float64           `json:"base_score"`
	LearningRate float64           `json:"learning_rate"`
}

// DefaultModelPath resolves model/model.json next to the running executable.
func DefaultModelPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Abs(filepath.Join(filepath.Dir(exe), ModelDir, ModelFileName))
}

// LoadModel reads and validates a model artifact. It returns the model type
// alongside the predictor so callers can report what was loaded.
func LoadModel(path string) (Predictor, string, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read model artifact: %w", err)
	}
	var a artifact
	if err := json.Unmarshal(payload, &a); err != nil {
		return nil, "", fmt.Errorf("%w: decode %s: %v", ErrInvalidModel, path, err)
	}
	if err := checkFeatureNames(a.FeatureNames); err != nil {
		return nil, "", err
	}
	model, err := buildModel(a)
	if err != nil {
		return nil, "", err
	}
	return model, a.ModelType, nil
}

func buildModel(a artifact) (Predictor, error) {
	switch a.ModelType {
	case ModelLinear:
		if a.Linear == nil {
			return nil, fmt.Errorf("%w: linear model without coefficients", ErrInvalidModel)
		}
		if err := a.Linear.validate(); err != nil {
			return nil, err
		}
		return a.Linear, nil
	case ModelDecisionTree:
		if len(a.Trees) != 1 {
			return nil, fmt.Errorf("%w: decision tree needs exactly one tree, got %d", ErrInvalidModel, len(a.Trees))
		}
		return NewDecisionTree(a.Trees[0])
	case ModelRandomForest, ModelGradientBoosting:
		trees := make([]*DecisionTree, 0, len(a.Trees))
		for i, nodes := range a.Trees {
			tree, err := NewDecisionTree(nodes)
			if err != nil {
				return nil, fmt.Errorf("tree %d: %w", i, err)
			}
			trees = append(trees, tree)
		}
		if a.ModelType == ModelRandomForest {
			return NewRandomForest(trees)
		}
		return NewGradientBoosting(trees, a.BaseScore, a.LearningRate)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedModel, a.ModelType)
	}
}

// checkFeatureNames guards the training column order when the artifact
// records it.
func checkFeatureNames(names []string) error {
	if len(names) == 0 {
		return nil
	}
	want := FeatureNames()
	if len(names) != len(want) {
		return fmt.Errorf("%w: artifact lists %d features, want %d", ErrInvalidModel, len(names), len(want))
	}
	for i := range want {
		if names[i] != want[i] {
			return fmt.Errorf("%w: feature %d is %q, want %q", ErrInvalidModel, i, names[i], want[i])
		}
	}
	return nil
}
