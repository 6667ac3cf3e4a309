package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   Page
		want Page
	}{
		{"zero value gets default limit", Page{}, Page{Offset: 0, Limit: DefaultLimit}},
		{"negative offset clamps to zero", Page{Offset: -5, Limit: 10}, Page{Offset: 0, Limit: 10}},
		{"limit above cap clamps", Page{Limit: 5000}, Page{Offset: 0, Limit: MaxLimit}},
		{"valid page untouched", Page{Offset: 200, Limit: 50}, Page{Offset: 200, Limit: 50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalize())
		})
	}
}
