package availability

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateTimeRange(t *testing.T) {
	cases := []struct {
		name       string
		start, end string
		want       error
	}{
		{"valid", "09:00", "17:00", nil},
		{"midnight to last minute", "00:00", "23:59", nil},
		{"equal times", "09:00", "09:00", ErrTimeOrder},
		{"reversed", "17:00", "09:00", ErrTimeOrder},
		{"unpadded hour", "9:00", "17:00", ErrInvalidTime},
		{"hour out of range", "09:00", "25:00", ErrInvalidTime},
		{"minute out of range", "09:60", "17:00", ErrInvalidTime},
		{"wrong separator", "09-00", "17:00", ErrInvalidTime},
		{"empty", "", "17:00", ErrInvalidTime},
		{"trailing seconds", "09:00:00", "17:00", ErrInvalidTime},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateTimeRange(tc.start, tc.end)
			if tc.want == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestParseKind(t *testing.T) {
	for _, v := range []string{"AVAILABLE", "UNAVAILABLE", "PREFERRED"} {
		kind, err := ParseKind(v)
		require.NoError(t, err)
		require.Equal(t, Kind(v), kind)
	}

	for _, v := range []string{"", "available", "MAYBE", "Preferred"} {
		_, err := ParseKind(v)
		require.ErrorIs(t, err, ErrInvalidKind)
	}
}
