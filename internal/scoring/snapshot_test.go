package scoring_test

import (
	"encoding/json"
	"testing"

	"github.com/stockfantasy/contest-engine/internal/scoring"
)

func TestParseSnapshot_StringAndNumberAgree(t *testing.T) {
	fromString := scoring.ParseSnapshot(json.RawMessage(`{"change_percent": "+2.5%"}`))
	fromNumber := scoring.ParseSnapshot(json.RawMessage(`{"change_percent": 2.5}`))

	if fromString.ChangePercent == nil || fromNumber.ChangePercent == nil {
		t.Fatal("change percent missing")
	}
	if !fromString.ChangePercent.Equal(*fromNumber.ChangePercent) {
		t.Errorf("string parse %s != number parse %s",
			fromString.ChangePercent, fromNumber.ChangePercent)
	}
}

func TestParseSnapshot_AliasOrder(t *testing.T) {
	// Both aliases present: the first in lookup order wins.
	snap := scoring.ParseSnapshot(json.RawMessage(`{"change_percent": 1.1, "pChange": 9.9}`))
	if snap.ChangePercent == nil || snap.ChangePercent.String() != "1.1" {
		t.Errorf("change = %v, want 1.1 from change_percent", snap.ChangePercent)
	}

	// Only the last alias present: fallback still resolves.
	snap = scoring.ParseSnapshot(json.RawMessage(`{"pChange": "3.2"}`))
	if snap.ChangePercent == nil || snap.ChangePercent.String() != "3.2" {
		t.Errorf("change = %v, want 3.2 from pChange", snap.ChangePercent)
	}
}

func TestParseSnapshot_Fields(t *testing.T) {
	raw := json.RawMessage(`{
		"pChange": "-1.75%",
		"tradedVolume": "1,234,567",
		"averageVolume": 900000,
		"industry": "Banking",
		"currentPrice": "3,456.50"
	}`)
	snap := scoring.ParseSnapshot(raw)

	if snap.ChangePercent == nil || snap.ChangePercent.String() != "-1.75" {
		t.Errorf("change = %v, want -1.75", snap.ChangePercent)
	}
	if snap.Volume == nil || snap.Volume.String() != "1234567" {
		t.Errorf("volume = %v, want 1234567", snap.Volume)
	}
	if snap.AvgVolume == nil || snap.AvgVolume.String() != "900000" {
		t.Errorf("avg volume = %v, want 900000", snap.AvgVolume)
	}
	if snap.Sector != "Banking" {
		t.Errorf("sector = %q, want Banking", snap.Sector)
	}
	if snap.CurrentPrice == nil || snap.CurrentPrice.String() != "3456.5" {
		t.Errorf("price = %v, want 3456.5", snap.CurrentPrice)
	}
	if snap.Err != "" {
		t.Errorf("unexpected parse error %q", snap.Err)
	}
}

func TestParseSnapshot_UnparseableFieldRecordsError(t *testing.T) {
	snap := scoring.ParseSnapshot(json.RawMessage(`{"change_percent": "N/A", "volume": 500}`))

	if snap.ChangePercent != nil {
		t.Errorf("change = %v, want nil for unparseable value", snap.ChangePercent)
	}
	if snap.Err == "" {
		t.Error("expected parse error recorded")
	}
	// Other fields still parse.
	if snap.Volume == nil || snap.Volume.String() != "500" {
		t.Errorf("volume = %v, want 500", snap.Volume)
	}
}

func TestParseSnapshot_DegenerateInputs(t *testing.T) {
	for _, raw := range []json.RawMessage{nil, json.RawMessage(``), json.RawMessage(`[]`), json.RawMessage(`"text"`)} {
		snap := scoring.ParseSnapshot(raw)
		if snap.ChangePercent != nil || snap.Volume != nil || snap.Sector != "" {
			t.Errorf("ParseSnapshot(%q) = %+v, want empty", raw, snap)
		}
	}
}
