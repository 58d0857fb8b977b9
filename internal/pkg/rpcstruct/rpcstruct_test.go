package rpcstruct

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestInt(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want int64
		code codes.Code
	}{
		{name: "integer", in: 42.0, want: 42},
		{name: "negative", in: -7.0, want: -7},
		{name: "smallest int64", in: float64(math.MinInt64), want: math.MinInt64},
		{name: "fraction", in: 1.5, code: codes.InvalidArgument},
		{name: "two to the 63", in: math.Pow(2, 63), code: codes.InvalidArgument},
		{name: "1e19", in: 1e19, code: codes.InvalidArgument},
		{name: "-1e19", in: -1e19, code: codes.InvalidArgument},
		{name: "infinite", in: math.Inf(1), code: codes.InvalidArgument},
		{name: "string", in: "42", code: codes.InvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := structpb.NewValue(tt.in)
			require.NoError(t, err)
			req := &structpb.Struct{Fields: map[string]*structpb.Value{"order_id": v}}

			got, err := Int(req, "order_id")
			if tt.code != codes.OK {
				assert.Equal(t, tt.code, status.Code(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
