package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorBlobRoundTrip(t *testing.T) {
	vector := []float32{0.25, -1.5, 0, 3.14159, -0.0001}

	decoded, err := blobToVector(vectorToBlob(vector))
	require.NoError(t, err)
	assert.Equal(t, vector, decoded)
}

func TestVectorBlobEmpty(t *testing.T) {
	decoded, err := blobToVector(vectorToBlob(nil))
	require.NoError(t, err)
	assert.Empty(t, decoded)
}

func TestBlobToVectorRejectsTruncatedBlob(t *testing.T) {
	blob := vectorToBlob([]float32{1, 2, 3})

	_, err := blobToVector(blob[:len(blob)-2])
	assert.Error(t, err)
}

func TestCosineSimilarity(t *testing.T) {
	a := []float32{1, 0, 0}

	assert.InDelta(t, 1.0, cosineSimilarity(a, []float32{2, 0, 0}), 1e-6)
	assert.InDelta(t, 0.0, cosineSimilarity(a, []float32{0, 1, 0}), 1e-6)
	assert.InDelta(t, -1.0, cosineSimilarity(a, []float32{-1, 0, 0}), 1e-6)

	// Mismatched dimensions and zero vectors score zero instead of erroring,
	// so rows written with a different embedding model are inert.
	assert.Equal(t, float32(0), cosineSimilarity(a, []float32{1, 0}))
	assert.Equal(t, float32(0), cosineSimilarity(a, []float32{0, 0, 0}))
	assert.Equal(t, float32(0), cosineSimilarity(nil, nil))
}
