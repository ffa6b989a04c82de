package scoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Snapshot is a point-in-time market data record for one stock,
// normalized from the upstream API's schema-flexible JSON. Numeric
// fields are optional: a nil pointer means the upstream omitted the
// field (or sent something unparseable, in which case Err is set).
type Snapshot struct {
	ChangePercent *decimal.Decimal
	Volume        *decimal.Decimal
	AvgVolume     *decimal.Decimal
	CurrentPrice  *decimal.Decimal
	Sector        string

	// Err records a field-parsing problem. It is carried into the
	// score breakdown instead of aborting the calculation.
	Err string
}

// Accepted upstream key aliases, in lookup order. The upstream API
// mixes naming conventions freely, so each logical field is resolved
// against an ordered list and the first present key wins.
var (
	changeAliases = []string{"change_percent", "changePercent", "percent_change", "pChange"}
	volumeAliases = []string{"volume", "tradedVolume"}
	avgVolAliases = []string{"avgVolume", "averageVolume"}
	sectorAliases = []string{"sector", "industry"}
	priceAliases  = []string{"currentPrice", "current_price"}
)

// ParseSnapshot extracts a Snapshot from a raw upstream JSON object.
// Missing fields stay nil; present-but-unparseable fields record an
// error on the snapshot and are treated as absent. A nil or
// non-object payload yields an empty snapshot.
func ParseSnapshot(raw json.RawMessage) Snapshot {
	var snap Snapshot
	if len(raw) == 0 {
		return snap
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var data map[string]any
	if err := dec.Decode(&data); err != nil {
		return snap
	}

	snap.ChangePercent = extractNumber(data, changeAliases, &snap)
	snap.Volume = extractNumber(data, volumeAliases, &snap)
	snap.AvgVolume = extractNumber(data, avgVolAliases, &snap)
	snap.CurrentPrice = extractNumber(data, priceAliases, &snap)

	for _, key := range sectorAliases {
		if v, ok := data[key]; ok {
			if s, ok := v.(string); ok && s != "" {
				snap.Sector = s
				break
			}
		}
	}

	return snap
}

// extractNumber resolves the first present alias and normalizes its
// value to a decimal. Parse failures are recorded on the snapshot.
func extractNumber(data map[string]any, aliases []string, snap *Snapshot) *decimal.Decimal {
	for _, key := range aliases {
		v, ok := data[key]
		if !ok || v == nil {
			continue
		}
		d, err := normalizeNumber(v)
		if err != nil {
			if snap.Err == "" {
				snap.Err = fmt.Sprintf("parse %s: %v", key, err)
			}
			return nil
		}
		return &d
	}
	return nil
}

// normalizeNumber converts an upstream JSON value to a decimal.
// Strings may carry a leading "+", a trailing "%", thousands commas,
// and surrounding whitespace ("+2.5%", "1,234,567").
func normalizeNumber(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case json.Number:
		return decimal.NewFromString(n.String())
	case float64:
		return decimal.NewFromFloat(n), nil
	case string:
		s := strings.TrimSpace(n)
		s = strings.TrimSuffix(s, "%")
		s = strings.TrimPrefix(s, "+")
		s = strings.ReplaceAll(s, ",", "")
		s = strings.TrimSpace(s)
		if s == "" {
			return decimal.Decimal{}, fmt.Errorf("empty numeric string")
		}
		return decimal.NewFromString(s)
	default:
		return decimal.Decimal{}, fmt.Errorf("unsupported type %T", v)
	}
}
