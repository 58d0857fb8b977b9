// Package rpcstruct reads request fields from, and builds responses as,
// google.protobuf.Struct documents.
package rpcstruct

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func String(req *structpb.Struct, key string) string {
	return req.GetFields()[key].GetStringValue()
}

// Number reports whether key was present as a number.
func Number(req *structpb.Struct, key string) (float64, bool) {
	v, ok := req.GetFields()[key]
	if !ok {
		return 0, false
	}
	if _, isNum := v.GetKind().(*structpb.Value_NumberValue); !isNum {
		return 0, false
	}
	return v.GetNumberValue(), true
}

// Bool returns the value of key and whether it was present as a bool.
func Bool(req *structpb.Struct, key string) (bool, bool) {
	v, ok := req.GetFields()[key]
	if !ok {
		return false, false
	}
	b, isBool := v.GetKind().(*structpb.Value_BoolValue)
	if !isBool {
		return false, false
	}
	return b.BoolValue, true
}

// Int reads a required integral field.
func Int(req *structpb.Struct, key string) (int64, error) {
	v, ok := Number(req, key)
	if !ok {
		return 0, status.Errorf(codes.InvalidArgument, "%s is required", key)
	}
	if v != math.Trunc(v) || math.IsInf(v, 0) {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be an integer", key)
	}
	// float64(MaxInt64) rounds up to 2^63, which int64 cannot hold.
	if v >= math.MaxInt64 || v < math.MinInt64 {
		return 0, status.Errorf(codes.InvalidArgument, "%s is out of range", key)
	}
	return int64(v), nil
}

// Time parses an optional RFC 3339 field.
func Time(req *structpb.Struct, key string) (*time.Time, error) {
	raw := String(req, key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "%s must be an RFC 3339 timestamp", key)
	}
	return &t, nil
}

// New converts any JSON-marshalable value into a Struct.
func New(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, fmt.Errorf("build response: %w", err)
	}
	return s, nil
}
