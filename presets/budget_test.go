package presets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallBudget(t *testing.T) {
	tests := []struct {
		name    string
		level   int
		method  string
		initial []int
		want    *int
	}{
		{name: "level 1", level: 1, want: intPtr(50_000)},
		{name: "level 2", level: 2, want: intPtr(5_000_000)},
		{name: "level 3", level: 3, want: intPtr(30_000_000)},
		{name: "level 0", level: 0},
		{name: "level 4", level: 4},
		{name: "layout method", level: 1, method: "trivial"},
		{name: "initial layout", level: 3, initial: []int{0, 1}},
		{name: "empty initial layout", level: 2, initial: []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CallBudget(tt.level, tt.method, tt.initial)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func TestCallBudgetReturnsFreshValue(t *testing.T) {
	a := CallBudget(1, "", nil)
	*a = 1
	assert.Equal(t, Level1CallLimit, *CallBudget(1, "", nil))
}

func intPtr(v int) *int {
	return &v
}
