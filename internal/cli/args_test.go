package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/trasco/internal/ir"
)

func TestParseArgumentFlag(t *testing.T) {
	tests := []struct {
		flag  string
		name  string
		kind  ir.ParameterKind
		value string
		want  any
	}{
		{"owner=string:app", "owner", ir.KindString, "app", nil},
		{"owner=string:", "owner", ir.KindString, "", nil},
		{"dsn=string:a=b:c", "dsn", ir.KindString, "a=b:c", nil},
		{"n=int32:7", "n", ir.KindNumeric, "7", ir.Int32(7)},
		{"n=INT64:-9", "n", ir.KindNumeric, "-9", ir.Int64(-9)},
		{"n=float64:2", "n", ir.KindNumeric, "2.0", ir.Float64(2)},
		{"n=numeric:5", "n", ir.KindNumeric, "5", ir.Int32(5)},
		{"n=numeric:5000000000", "n", ir.KindNumeric, "5000000000", ir.Int64(5000000000)},
	}

	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			arg, err := parseArgumentFlag(tt.flag)
			require.NoError(t, err)
			assert.Equal(t, tt.name, arg.Name())
			assert.Equal(t, tt.kind, arg.Kind())

			switch a := arg.(type) {
			case ir.StringArgument:
				assert.Equal(t, tt.value, a.Value())
			case ir.NumericArgument:
				assert.Equal(t, tt.want, a.Value())
				assert.Equal(t, tt.value, a.Value().String())
			}
		})
	}
}

func TestParseArgumentFlag_Decimal(t *testing.T) {
	for _, flag := range []string{"n=decimal:12.50", "n=numeric:12.50"} {
		arg, err := parseArgumentFlag(flag)
		require.NoError(t, err)
		num, ok := arg.(ir.NumericArgument)
		require.True(t, ok)
		assert.IsType(t, ir.Decimal{}, num.Value())
		assert.Equal(t, "12.50", num.Value().String())
	}
}

func TestParseArgumentFlag_Errors(t *testing.T) {
	tests := []struct {
		flag string
		want string
	}{
		{"owner", "expected name=kind:value"},
		{"=string:x", "expected name=kind:value"},
		{"owner=app", "expected kind:value"},
		{"n=int32:3000000000", `argument "n"`},
		{"n=int64:ten", `argument "n"`},
		{"n=float64:", `argument "n"`},
		{"n=decimal:1..2", `argument "n"`},
		{"n=bool:true", "unknown kind"},
	}

	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			_, err := parseArgumentFlag(tt.flag)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestBuildArguments_FlagsOverrideConfig(t *testing.T) {
	args, err := buildArguments(
		map[string]string{"owner": "string:config", "limit": "int32:1"},
		[]string{"owner=string:flag", "extra=int64:2"},
	)
	require.NoError(t, err)
	assert.Equal(t, 3, args.Len())

	owner, ok := args.Get("owner")
	require.True(t, ok)
	assert.Equal(t, "flag", owner.(ir.StringArgument).Value())

	limit, ok := args.Get("limit")
	require.True(t, ok)
	assert.Equal(t, ir.Int32(1), limit.(ir.NumericArgument).Value())
}

func TestBuildArguments_Empty(t *testing.T) {
	args, err := buildArguments(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, args.Len())
}

func TestBuildArguments_BadConfigValue(t *testing.T) {
	_, err := buildArguments(map[string]string{"limit": "lots"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `argument "limit"`)
}
