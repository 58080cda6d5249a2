package ml

import (
	"encoding/binary"
	"fmt"
	"math"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Service scores single records against a loaded Predictor. When cacheSize
// is positive, results are memoized per exact feature vector.
type Service struct {
	model Predictor
	cache *lru.Cache[string, float64]
}

func NewService(model Predictor, cacheSize int) (*Service, error) {
	s := &Service{model: model}
	if cacheSize > 0 {
		cache, err := lru.New[string, float64](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("create prediction cache: %w", err)
		}
		s.cache = cache
	}
	return s, nil
}

func (s *Service) Predict(features []float64) (float64, error) {
	if len(features) != FeatureCount {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrFeatureCount, len(features), FeatureCount)
	}

	var key string
	if s.cache != nil {
		key = cacheKey(features)
		if value, ok := s.cache.Get(key); ok {
			return value, nil
		}
	}

	out, err := s.model.Predict([][]float64{features})
	if err != nil {
		return 0, err
	}
	if len(out) != 1 {
		return 0, fmt.Errorf("model returned %d values for one row", len(out))
	}
	value := out[0]
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("%w: %v", ErrNonFinite, value)
	}

	if s.cache != nil {
		s.cache.Add(key, value)
	}
	return value, nil
}

// CacheLen reports how many vectors are memoized.
func (s *Service) CacheLen() int {
	if s.cache == nil {
		return 0
	}
	return s.cache.Len()
}

func cacheKey(features []float64) string {
	buf := make([]byte, 8*len(features))
	for i, f := range features {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(f))
	}
	return string(buf)
}
