package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStockFlag(t *testing.T) {
	tests := []struct {
		in   any
		want StockFlag
	}{
		{true, InStock},
		{false, OutOfStock},
		{float64(0), OutOfStock},
		{float64(4), InStock},
		{int64(0), OutOfStock},
		{json.Number("1"), InStock},
		{"0", OutOfStock},
		{"true", InStock},
		{"متوفر", StockUnknown},
		{nil, StockUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseStockFlag(tt.in), "input %#v", tt.in)
	}
}

func TestStockFlag_Available(t *testing.T) {
	assert.True(t, InStock.Available())
	assert.True(t, StockUnknown.Available())
	assert.False(t, OutOfStock.Available())
}

func TestMetadataFromMap_RoundTrip(t *testing.T) {
	m := Metadata{
		ID:                 "abc",
		NameAR:             "لينوفو",
		NameEN:             "Lenovo",
		Price:              21999.5,
		Quantity:           2,
		InStock:            OutOfStock,
		AdditionalFeatures: "16GB RAM",
	}
	// Simulate a JSON hop through a vector store payload.
	data, err := json.Marshal(m.Map())
	assert.NoError(t, err)
	var payload map[string]any
	assert.NoError(t, json.Unmarshal(data, &payload))

	assert.Equal(t, m, MetadataFromMap(payload))
}

func TestMetadataFromMap_MissingStockIsUnknown(t *testing.T) {
	m := MetadataFromMap(map[string]any{"name_en": "Dell"})
	assert.Equal(t, StockUnknown, m.InStock)
	_, ok := m.Map()["in_stock"]
	assert.False(t, ok)
}

func TestKind(t *testing.T) {
	assert.Equal(t, "", Kind(nil))
	assert.Equal(t, "embedding", Kind(ErrEmbedding))
	assert.Equal(t, "unknown", Kind(assert.AnError))
}
