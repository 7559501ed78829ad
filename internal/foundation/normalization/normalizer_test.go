package normalization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mode string

const (
	modeStrict  mode = "strict"
	modeLenient mode = "lenient"
)

func newModes() *Normalizer[mode] {
	return NewNormalizer(map[string]mode{
		"strict":  modeStrict,
		"lenient": modeLenient,
	}, modeStrict)
}

func TestNormalizer_Normalize(t *testing.T) {
	n := newModes()
	tests := []struct {
		input    string
		expected mode
	}{
		{"strict", modeStrict},
		{"  LENIENT ", modeLenient},
		{"unknown", modeStrict},
		{"", modeStrict},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, n.Normalize(tt.input), tt.input)
	}
}

func TestNormalizer_NormalizeWithError(t *testing.T) {
	n := newModes()

	v, err := n.NormalizeWithError("Lenient")
	require.NoError(t, err)
	assert.Equal(t, modeLenient, v)

	v, err = n.NormalizeWithError("")
	require.NoError(t, err)
	assert.Equal(t, modeStrict, v)

	_, err = n.NormalizeWithError("sloppy")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lenient")
	assert.Equal(t, []string{"lenient", "strict"}, n.ValidKeys())
}
