package locale_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/PabloGalante/fable-engine/internal/app/locale"
)

func TestForResolvesTags(t *testing.T) {
	tests := []struct {
		tag     string
		summary string
	}{
		{"en", "PREVIOUS SUMMARY (may be empty)"},
		{"en-GB", "PREVIOUS SUMMARY (may be empty)"},
		{"nl", "VORIGE SAMENVATTING (kan leeg zijn)"},
		{"nl-BE", "VORIGE SAMENVATTING (kan leeg zijn)"},
		{"", "PREVIOUS SUMMARY (may be empty)"},
		{"zz-not-a-tag", "PREVIOUS SUMMARY (may be empty)"},
		{"fr", "PREVIOUS SUMMARY (may be empty)"},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			assert.Equal(t, tt.summary, locale.For(tt.tag).SummaryPrevious)
		})
	}
}
