package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"updrsserve/ml"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// flexFloat accepts a JSON number, a string holding one, or a boolean.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexFloat(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if n, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			*f = flexFloat(n)
			return nil
		}
	}
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		if b {
			*f = 1
		} else {
			*f = 0
		}
		return nil
	}
	return &json.UnmarshalTypeError{Value: string(data), Type: reflect.TypeOf(float64(0))}
}

// PredictRequest is the /predict body. Every field is required.
type PredictRequest struct {
	Age           *flexFloat `json:"age" validate:"required"`
	Sex           *flexFloat `json:"sex" validate:"required"`
	TestTime      *flexFloat `json:"test_time" validate:"required"`
	JitterPercent *flexFloat `json:"Jitter_percent" validate:"required"`
	JitterAbs     *flexFloat `json:"Jitter_Abs" validate:"required"`
	JitterRAP     *flexFloat `json:"Jitter_RAP" validate:"required"`
	JitterPPQ     *flexFloat `json:"Jitter_PPQ" validate:"required"`
	JitterDDP     *flexFloat `json:"Jitter_DDP" validate:"required"`
	Shimmer       *flexFloat `json:"Shimmer" validate:"required"`
	ShimmerDB     *flexFloat `json:"Shimmer_dB" validate:"required"`
	ShimmerAPQ3   *flexFloat `json:"Shimmer_APQ3" validate:"required"`
	ShimmerAPQ5   *flexFloat `json:"Shimmer_APQ5" validate:"required"`
	ShimmerAPQ11  *flexFloat `json:"Shimmer_APQ11" validate:"required"`
	ShimmerDDA    *flexFloat `json:"Shimmer_DDA" validate:"required"`
	NHR           *flexFloat `json:"NHR" validate:"required"`
	HNR           *flexFloat `json:"HNR" validate:"required"`
	RPDE          *flexFloat `json:"RPDE" validate:"required"`
	DFA           *flexFloat `json:"DFA" validate:"required"`
	PPE           *flexFloat `json:"PPE" validate:"required"`
}

// Record must only be called after validation.
func (p PredictRequest) Record() ml.FeatureRecord {
	return ml.FeatureRecord{
		Age:           float64(*p.Age),
		Sex:           float64(*p.Sex),
		TestTime:      float64(*p.TestTime),
		JitterPercent: float64(*p.JitterPercent),
		JitterAbs:     float64(*p.JitterAbs),
		JitterRAP:     float64(*p.JitterRAP),
		JitterPPQ:     float64(*p.JitterPPQ),
		JitterDDP:     float64(*p.JitterDDP),
		Shimmer:       float64(*p.Shimmer),
		ShimmerDB:     float64(*p.ShimmerDB),
		ShimmerAPQ3:   float64(*p.ShimmerAPQ3),
		ShimmerAPQ5:   float64(*p.ShimmerAPQ5),
		ShimmerAPQ11:  float64(*p.ShimmerAPQ11),
		ShimmerDDA:    float64(*p.ShimmerDDA),
		NHR:           float64(*p.NHR),
		HNR:           float64(*p.HNR),
		RPDE:          float64(*p.RPDE),
		DFA:           float64(*p.DFA),
		PPE:           float64(*p.PPE),
	}
}

// ValidationIssue is one entry of a 422 response detail list.
type ValidationIssue struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

type validationResponse struct {
	Detail []ValidationIssue `json:"detail"`
}

func handlePredict(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large"})
			return
		}
		respondValidation(w, []ValidationIssue{{Loc: []string{"body"}, Msg: err.Error(), Type: "value_error"}})
		return
	}

	req, issues := decodePredictRequest(body)
	if len(issues) > 0 {
		zap.L().Info("Rejected prediction request", zap.Any("detail", issues))
		respondValidation(w, issues)
		return
	}

	record := req.Record()
	zap.L().Info("Received prediction request", zap.Any("request", record))

	value, err := predict(record.Vector())
	if err != nil {
		zap.L().Error("Error during prediction.", zap.Error(err), zap.Any("request", record))
		// Failures keep status 200; existing clients read the error field.
		respondJSON(w, http.StatusOK, errorResponse{Error: predictFailureMessage})
		return
	}

	zap.L().Info("Prediction successful", zap.Float64("predicted_total_UPDRS", value))
	respondJSON(w, http.StatusOK, predictionResponse{PredictedTotalUPDRS: value})
}

// decodePredictRequest only honours exact key matches; encoding/json alone
// would bind "AGE" to age.
func decodePredictRequest(body []byte) (PredictRequest, []ValidationIssue) {
	var req PredictRequest
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return req, []ValidationIssue{decodeIssue(err)}
	}
	exact := make(map[string]json.RawMessage, ml.FeatureCount)
	for _, name := range ml.FeatureNames() {
		if v, ok := raw[name]; ok {
			exact[name] = v
		}
	}
	filtered, err := json.Marshal(exact)
	if err != nil {
		return req, []ValidationIssue{{Loc: []string{"body"}, Msg: err.Error(), Type: "value_error"}}
	}
	if err := json.Unmarshal(filtered, &req); err != nil {
		return req, []ValidationIssue{decodeIssue(err)}
	}
	if err := validate.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return req, []ValidationIssue{{Loc: []string{"body"}, Msg: err.Error(), Type: "value_error"}}
		}
		issues := make([]ValidationIssue, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			issues = append(issues, ValidationIssue{
				Loc:  []string{"body", fe.Field()},
				Msg:  "field required",
				Type: "value_error.missing",
			})
		}
		return req, issues
	}
	return req, nil
}

func decodeIssue(err error) ValidationIssue {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		if typeErr.Field == "" {
			return ValidationIssue{Loc: []string{"body"}, Msg: "value is not a valid dict", Type: "type_error.dict"}
		}
		return ValidationIssue{Loc: []string{"body", typeErr.Field}, Msg: "value is not a valid float", Type: "type_error.float"}
	}
	return ValidationIssue{Loc: []string{"body"}, Msg: err.Error(), Type: "value_error.jsondecode"}
}

func respondValidation(w http.ResponseWriter, issues []ValidationIssue) {
	respondJSON(w, http.StatusUnprocessableEntity, validationResponse{Detail: issues})
}
