package store

import (
	"encoding/json"
	"math"
	"math/big"
	"strconv"
	"time"

	"github.com/roach88/genq/internal/schema"
)

// NormalizeValue converts a driver value to the canonical Go value for a
// declared type:
//   - TagString: string
//   - TagInt64: int64
//   - TagFloat64: float64
//   - TagBool: bool
//   - TagTime: time.Time (strings are kept as stored)
//   - TagJSON: map[string]any, []any or a scalar decoded from the stored text
//   - TagBytes: []byte
//
// Values that do not fit the declared type are returned in their closest
// plain form instead of failing the query. NULL stays nil.
func NormalizeValue(tag schema.TypeTag, v any) any {
	if v == nil {
		return nil
	}

	switch tag {
	case schema.TagJSON:
		return normalizeJSON(v)
	case schema.TagBytes:
		if s, ok := v.(string); ok {
			return []byte(s)
		}
		return v
	case schema.TagBool:
		return normalizeBool(v)
	case schema.TagInt64:
		return normalizeInt(v)
	case schema.TagFloat64:
		return normalizeFloat(v)
	case schema.TagTime:
		if t, ok := v.(time.Time); ok {
			return t.UTC()
		}
		return plain(v)
	default:
		return plain(v)
	}
}

// plain turns driver-specific representations into JSON-friendly values.
func plain(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case *big.Int:
		if x.IsInt64() {
			return x.Int64()
		}
		return x.String()
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		if x <= math.MaxInt64 {
			return int64(x)
		}
		return strconv.FormatUint(x, 10)
	case float32:
		return float64(x)
	case interface{ Float64() float64 }:
		return x.Float64()
	default:
		return v
	}
}

func normalizeJSON(v any) any {
	var raw []byte
	switch x := v.(type) {
	case string:
		raw = []byte(x)
	case []byte:
		raw = x
	default:
		return plain(v)
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return string(raw)
	}
	return decoded
}

func normalizeBool(v any) any {
	switch x := plain(v).(type) {
	case bool:
		return x
	case int64:
		return x != 0
	case float64:
		return x != 0
	case string:
		if b, err := strconv.ParseBool(x); err == nil {
			return b
		}
		return x
	default:
		return x
	}
}

func normalizeInt(v any) any {
	switch x := plain(v).(type) {
	case int64:
		return x
	case float64:
		if x == math.Trunc(x) && x >= math.MinInt64 && x < math.MaxInt64 {
			return int64(x)
		}
		return x
	case string:
		if n, err := strconv.ParseInt(x, 10, 64); err == nil {
			return n
		}
		return x
	default:
		return x
	}
}

func normalizeFloat(v any) any {
	switch x := plain(v).(type) {
	case float64:
		return x
	case int64:
		return float64(x)
	case string:
		if f, err := strconv.ParseFloat(x, 64); err == nil {
			return f
		}
		return x
	default:
		return x
	}
}
