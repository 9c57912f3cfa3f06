package supervisor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveTaskID(t *testing.T) {
	tests := []struct {
		name     string
		prefix   string
		start    string
		end      string
		expected string
		wantErr  bool
	}{
		{
			name:     "single day collapses to one date",
			prefix:   "briefing",
			start:    "2025-01-10",
			end:      "2025-01-10",
			expected: "briefing_20250110",
		},
		{
			name:     "date range encodes both bounds",
			prefix:   "briefing",
			start:    "2025-01-10",
			end:      "2025-01-12",
			expected: "briefing_20250110_20250112",
		},
		{
			name:    "malformed start date",
			prefix:  "briefing",
			start:   "10/01/2025",
			end:     "2025-01-10",
			wantErr: true,
		},
		{
			name:    "malformed end date",
			prefix:  "briefing",
			start:   "2025-01-10",
			end:     "not-a-date",
			wantErr: true,
		},
		{
			name:    "end before start",
			prefix:  "briefing",
			start:   "2025-01-12",
			end:     "2025-01-10",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := ResolveTaskID(tt.prefix, tt.start, tt.end)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidParameters)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, id)
		})
	}
}

func TestResolveTaskID_Deterministic(t *testing.T) {
	first, err := ResolveTaskID("briefing", "2025-03-01", "2025-03-05")
	require.NoError(t, err)

	second, err := ResolveTaskID("briefing", "2025-03-01", "2025-03-05")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestResolveTaskID_DistinctBoundsDiffer(t *testing.T) {
	single, err := ResolveTaskID("briefing", "2025-03-01", "2025-03-01")
	require.NoError(t, err)

	ranged, err := ResolveTaskID("briefing", "2025-03-01", "2025-03-02")
	require.NoError(t, err)

	assert.NotEqual(t, single, ranged)
}
