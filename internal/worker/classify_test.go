package worker

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		payload string
		want    PayloadKind
	}{
		"json object":               {`{"message":"boot","logLevel":"INFO"}`, KindObject},
		"json object with padding":  {"  {\"message\":\"boot\"}\n", KindObject},
		"raw bracket line":          {`[2025-01-01T00:00:00Z] [ERROR] [t1] disk full`, KindRawLine},
		"quoted bracket line":       {`"[2025-01-01T00:00:00Z] [ERROR] [t1] disk full"`, KindRawLine},
		"quoted json object":        {`"{\"message\":\"boot\"}"`, KindObject},
		"quoted garbage":            {`"not a log line"`, KindInvalid},
		"plain garbage":             {`total garbage with no structure`, KindInvalid},
		"empty payload":             {``, KindInvalid},
		"whitespace only":           {"   \n\t", KindInvalid},
		"json array is not object":  {`[1, 2, 3]`, KindInvalid},
		"json number is not object": {`42`, KindInvalid},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got := Classify([]byte(tc.payload))
			require.Equal(t, tc.want, got.Kind)
			switch got.Kind {
			case KindObject:
				require.NotNil(t, got.Object)
				require.Nil(t, got.Line)
			case KindRawLine:
				require.NotNil(t, got.Line)
				require.Nil(t, got.Object)
			default:
				require.Nil(t, got.Object)
				require.Nil(t, got.Line)
			}
		})
	}
}
