package ddb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyConstruction(t *testing.T) {
	assert.Equal(t, "PRESENTATION#abc", PresentationPK("abc"))
	assert.Equal(t, "METADATA", MetadataSK())
	assert.Equal(t, "USER#a@x.com", UserGSIPK("a@x.com"))
}

func TestSlideSKPadding(t *testing.T) {
	tests := []struct {
		index int
		want  string
	}{
		{0, "SLIDE#000"},
		{7, "SLIDE#007"},
		{42, "SLIDE#042"},
		{999, "SLIDE#999"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, SlideSK(tc.index))
	}
}
