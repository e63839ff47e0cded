package domain

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single message in a conversation.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// StockFlag records listing availability. The zero value means out of stock;
// StockUnknown is used when the source record carries no availability at all.
type StockFlag int8

const (
	StockUnknown StockFlag = -1
	OutOfStock   StockFlag = 0
	InStock      StockFlag = 1
)

// Available reports whether a listing may be offered. Only an explicit
// out-of-stock flag excludes it.
func (f StockFlag) Available() bool { return f != OutOfStock }

func (f StockFlag) String() string {
	switch f {
	case StockUnknown:
		return "unknown"
	case OutOfStock:
		return "false"
	default:
		return "true"
	}
}

// ParseStockFlag accepts the encodings seen in catalog data: bool, number,
// or a numeric/boolean string. Anything else is unknown.
func ParseStockFlag(v any) StockFlag {
	switch t := v.(type) {
	case bool:
		if t {
			return InStock
		}
		return OutOfStock
	case string:
		s := strings.TrimSpace(strings.ToLower(t))
		if b, err := strconv.ParseBool(s); err == nil {
			return ParseStockFlag(b)
		}
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return ParseStockFlag(n)
		}
		return StockUnknown
	default:
		n, ok := toFloat(v)
		if !ok {
			return StockUnknown
		}
		if n == 0 {
			return OutOfStock
		}
		return InStock
	}
}

// Metadata describes a laptop listing. It is a comparable value so that two
// documents can be compared structurally.
type Metadata struct {
	ID                 string    `json:"id,omitempty"`
	NameAR             string    `json:"name_ar"`
	NameEN             string    `json:"name_en"`
	Price              float64   `json:"price"`
	Quantity           int       `json:"quantity"`
	InStock            StockFlag `json:"in_stock"`
	AdditionalFeatures string    `json:"additional_features"`
}

// Map flattens the metadata into a payload suitable for vector store backends.
// Unknown availability is omitted.
func (m Metadata) Map() map[string]any {
	out := map[string]any{
		"id":                  m.ID,
		"name_ar":             m.NameAR,
		"name_en":             m.NameEN,
		"price":               m.Price,
		"quantity":            m.Quantity,
		"additional_features": m.AdditionalFeatures,
	}
	if m.InStock != StockUnknown {
		out["in_stock"] = int(m.InStock)
	}
	return out
}

// MetadataFromMap is the inverse of Map and tolerates loosely typed payloads
// (JSON numbers, YAML ints, strings).
func MetadataFromMap(p map[string]any) Metadata {
	m := Metadata{InStock: StockUnknown}
	m.ID = toString(p["id"])
	m.NameAR = toString(p["name_ar"])
	m.NameEN = toString(p["name_en"])
	if v, ok := toFloat(p["price"]); ok {
		m.Price = v
	}
	if v, ok := toFloat(p["quantity"]); ok {
		m.Quantity = int(v)
	}
	if v, ok := p["in_stock"]; ok && v != nil {
		m.InStock = ParseStockFlag(v)
	}
	switch f := p["additional_features"].(type) {
	case []any:
		parts := make([]string, 0, len(f))
		for _, x := range f {
			parts = append(parts, toString(x))
		}
		m.AdditionalFeatures = strings.Join(parts, ", ")
	default:
		m.AdditionalFeatures = toString(f)
	}
	return m
}

// RetrievedDocument is a search hit returned by a vector index.
type RetrievedDocument struct {
	Content  string   `json:"pageContent"`
	Metadata Metadata `json:"metadata"`
	Score    float64  `json:"score"`
}

// Record is the unit written to a vector index.
type Record struct {
	ID       string
	Content  string
	Metadata Metadata
	Vector   []float64
}

func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case int32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
