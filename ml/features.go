package ml

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// FeatureCount is the width of every row handed to a Predictor.
const FeatureCount = 19

var (
	ErrMissingFeature = errors.New("missing feature")
	ErrInvalidFeature = errors.New("invalid feature value")
	ErrFeatureCount   = errors.New("unexpected feature count")
)

// FeatureRecord is one patient visit. Field order matches the order the
// model was trained on and must not change.
type FeatureRecord struct {
	Age           float64 `json:"age"`
	Sex           float64 `json:"sex"`
	TestTime      float64 `json:"test_time"`
	JitterPercent float64 `json:"Jitter_percent"`
	JitterAbs     float64 `json:"Jitter_Abs"`
	JitterRAP     float64 `json:"Jitter_RAP"`
	JitterPPQ     float64 `json:"Jitter_PPQ"`
	JitterDDP     float64 `json:"Jitter_DDP"`
	Shimmer       float64 `json:"Shimmer"`
	ShimmerDB     float64 `json:"Shimmer_dB"`
	ShimmerAPQ3   float64 `json:"Shimmer_APQ3"`
	ShimmerAPQ5   float64 `json:"Shimmer_APQ5"`
	ShimmerAPQ11  float64 `json:"Shimmer_APQ11"`
	ShimmerDDA    float64 `json:"Shimmer_DDA"`
	NHR           float64 `json:"NHR"`
	HNR           float64 `json:"HNR"`
	RPDE          float64 `json:"RPDE"`
	DFA           float64 `json:"DFA"`
	PPE           float64 `json:"PPE"`
}

func FeatureNames() []string {
	return []string{
		"age",
		"sex",
		"test_time",
		"Jitter_percent",
		"Jitter_Abs",
		"Jitter_RAP",
		"Jitter_PPQ",
		"Jitter_DDP",
		"Shimmer",
		"Shimmer_dB",
		"Shimmer_APQ3",
		"Shimmer_APQ5",
		"Shimmer_APQ11",
		"Shimmer_DDA",
		"NHR",
		"HNR",
		"RPDE",
		"DFA",
		"PPE",
	}
}

// fields lists pointers in FeatureNames order.
func (r *FeatureRecord) fields() []*float64 {
	return []*float64{
		&r.Age, &r.Sex, &r.TestTime,
		&r.JitterPercent, &r.JitterAbs, &r.JitterRAP, &r.JitterPPQ, &r.JitterDDP,
		&r.Shimmer, &r.ShimmerDB, &r.ShimmerAPQ3, &r.ShimmerAPQ5, &r.ShimmerAPQ11, &r.ShimmerDDA,
		&r.NHR, &r.HNR, &r.RPDE, &r.DFA, &r.PPE,
	}
}

// Vector returns the record as a model input row.
func (r FeatureRecord) Vector() []float64 {
	ptrs := r.fields()
	vector := make([]float64, len(ptrs))
	for i, p := range ptrs {
		vector[i] = *p
	}
	return vector
}

func RecordFromVector(vector []float64) (FeatureRecord, error) {
	var record FeatureRecord
	if len(vector) != FeatureCount {
		return record, fmt.Errorf("%w: got %d, want %d", ErrFeatureCount, len(vector), FeatureCount)
	}
	for i, p := range record.fields() {
		*p = vector[i]
	}
	return record, nil
}

// RecordFromMap looks up every feature by name in a loosely typed payload,
// as produced by decoding a JSON object into map[string]any.
func RecordFromMap(payload map[string]any) (FeatureRecord, error) {
	vector := make([]float64, 0, FeatureCount)
	for _, name := range FeatureNames() {
		raw, ok := payload[name]
		if !ok {
			return FeatureRecord{}, fmt.Errorf("%w: %s", ErrMissingFeature, name)
		}
		value, err := toFloat(raw)
		if err != nil {
			return FeatureRecord{}, fmt.Errorf("%w: %s: %v", ErrInvalidFeature, name, err)
		}
		vector = append(vector, value)
	}
	return RecordFromVector(vector)
}

func toFloat(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case interface{ Float64() (float64, error) }:
		return t.Float64()
	case string:
		return strconv.ParseFloat(strings.TrimSpace(t), 64)
	case bool:
		if t {
			return 1, nil
		}
		return 0, nil
	case nil:
		return 0, errors.New("value is null")
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}
