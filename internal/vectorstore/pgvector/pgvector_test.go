package pgvector

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLiteral(t *testing.T) {
	assert.Equal(t, "[0.1,-2,300000]", Literal([]float64{0.1, -2, 3e5}))
	assert.Equal(t, "[]", Literal(nil))
}
