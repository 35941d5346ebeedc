package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummaryStateTerminal(t *testing.T) {
	tests := []struct {
		status SummaryStatus
		want   bool
	}{
		{SummaryIdle, false},
		{SummaryPending, false},
		{SummarySucceeded, true},
		{SummaryFailed, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, SummaryState{Status: tt.status}.Terminal())
		})
	}
}

func TestSummaryResultInfo(t *testing.T) {
	var none *SummaryResult
	assert.Nil(t, none.Info())
	assert.Nil(t, (&SummaryResult{Keywords: "a"}).Info())

	info := (&SummaryResult{Summary: "text", Keywords: "a, b"}).Info()
	require.NotNil(t, info)
	assert.Equal(t, []string{"a", "b"}, info.KeywordList())
}
