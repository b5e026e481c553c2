package gsc

import (
	"encoding/json"
	"testing"
)

func TestRowMarshalFlattens(t *testing.T) {
	row := Row{
		Dimensions:  map[string]string{"query": "zapatos", "page": "https://example.com/tienda"},
		Clicks:      12,
		Impressions: 340,
		CTR:         0.035,
		Position:    4.2,
	}

	raw, err := json.Marshal(row)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var flat map[string]interface{}
	if err := json.Unmarshal(raw, &flat); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if flat["query"] != "zapatos" {
		t.Errorf("expected query key at top level, got %v", flat)
	}
	if flat["clicks"].(float64) != 12 {
		t.Errorf("expected clicks 12, got %v", flat["clicks"])
	}
	if _, nested := flat["Dimensions"]; nested {
		t.Error("dimensions must be flattened, not nested")
	}
}

func TestValidEnums(t *testing.T) {
	if !ValidSearchType("") || !ValidSearchType("googleNews") {
		t.Error("empty and googleNews must be accepted search types")
	}
	if ValidSearchType("maps") {
		t.Error("maps is not a valid search type")
	}
	if !ValidAggregationType("byNewsShowcasePanel") {
		t.Error("byNewsShowcasePanel must be accepted")
	}
	if ValidAggregationType("byCountry") {
		t.Error("byCountry is not a valid aggregation type")
	}
}
