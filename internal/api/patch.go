package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	genqerrors "github.com/roach88/genq/internal/errors"
)

// DecodePatchValues reads a flat JSON object of column values. Integral
// numbers bind as int64, other numbers as float64, and nested objects or
// arrays as their JSON text.
func DecodePatchValues(body []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, genqerrors.New(genqerrors.ErrTypeValidation, "patch body is empty").WithFields("body")
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, genqerrors.Wrap(err, genqerrors.ErrTypeValidation, "patch body must be a JSON object").WithFields("body")
	}
	if len(raw) == 0 {
		return nil, genqerrors.New(genqerrors.ErrTypeValidation, "patch body is empty").WithFields("body")
	}

	values := make(map[string]any, len(raw))
	for k, v := range raw {
		bound, err := bindValue(v)
		if err != nil {
			return nil, genqerrors.Wrapf(err, genqerrors.ErrTypeValidation, "invalid value for %s", k).WithFields(k)
		}
		values[k] = bound
	}
	return values, nil
}

func bindValue(v any) (any, error) {
	switch x := v.(type) {
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n, nil
		}
		f, err := x.Float64()
		if err != nil {
			return nil, fmt.Errorf("number %s out of range", x)
		}
		return f, nil
	case map[string]any, []any:
		data, err := json.Marshal(x)
		if err != nil {
			return nil, err
		}
		return string(data), nil
	default:
		return v, nil
	}
}

// KeyValue binds an integral key as int64 and anything else as text.
func KeyValue(s string) any {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	return s
}
