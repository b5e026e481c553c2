package assistant

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"searchlens-mcp-server/internal/gsc"
)

func TestCommandSystemPromptContract(t *testing.T) {
	prompt := CommandSystemPrompt()

	// The model must be steered toward the exact CLI flag vocabulary.
	for _, fragment := range []string{
		"list-sites",
		"search-analytics",
		"--site-url",
		"--start-date",
		"--end-date",
		"--dimensions",
		"--aggregation-type",
		"--row-limit",
	} {
		if !strings.Contains(prompt, fragment) {
			t.Errorf("system prompt must mention %q", fragment)
		}
	}
	if !strings.Contains(prompt, "tusitio.com") {
		t.Error("system prompt must forbid the generic placeholder domain")
	}
}

func TestSiteContextPrefix(t *testing.T) {
	if SiteContextPrefix("") != "" {
		t.Error("no site, no prefix")
	}
	prefix := SiteContextPrefix("sc-domain:tienda.es")
	if !strings.Contains(prefix, "sc-domain:tienda.es") {
		t.Errorf("prefix must carry the property: %q", prefix)
	}
}

func TestFollowUpPromptCarriesContext(t *testing.T) {
	prompt := FollowUpPrompt("cuántos clicks tuve", `{"rows":[]}`, "y las impresiones?")
	if !strings.Contains(prompt, "Pregunta anterior: cuántos clicks tuve") {
		t.Error("follow-up must include the previous question")
	}
	if !strings.Contains(prompt, `{"rows":[]}`) {
		t.Error("follow-up must include the previous payload")
	}
	if !strings.Contains(prompt, "Nueva pregunta: y las impresiones?") {
		t.Error("follow-up must include the new question")
	}
}

func TestTrimResultJSON(t *testing.T) {
	t.Run("nil result", func(t *testing.T) {
		if got := TrimResultJSON(nil, 10); got != "{}" {
			t.Errorf("expected empty object, got %q", got)
		}
	})

	t.Run("trims to top rows and keeps total", func(t *testing.T) {
		result := &gsc.Result{AggregationType: "auto"}
		for i := 0; i < 25; i++ {
			result.Rows = append(result.Rows, gsc.Row{
				Dimensions: map[string]string{"query": fmt.Sprintf("q%d", i)},
				Clicks:     i,
			})
		}

		raw := TrimResultJSON(result, ExplanationTopRows)
		var decoded struct {
			Rows      []map[string]interface{} `json:"rows"`
			TotalRows int                      `json:"totalRows"`
		}
		if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
			t.Fatalf("trimmed payload is not valid JSON: %v", err)
		}
		if len(decoded.Rows) != ExplanationTopRows {
			t.Errorf("expected %d rows, got %d", ExplanationTopRows, len(decoded.Rows))
		}
		if decoded.TotalRows != 25 {
			t.Errorf("expected totalRows 25, got %d", decoded.TotalRows)
		}
		// Rows marshal flattened, dimensions next to metrics.
		if decoded.Rows[0]["query"] != "q0" {
			t.Errorf("expected flattened dimension, got %v", decoded.Rows[0])
		}
	})

	t.Run("short result survives untouched", func(t *testing.T) {
		result := &gsc.Result{Rows: []gsc.Row{{Clicks: 3}}}
		raw := TrimResultJSON(result, ExplanationTopRows)
		var decoded struct {
			Rows []map[string]interface{} `json:"rows"`
		}
		if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
			t.Fatal(err)
		}
		if len(decoded.Rows) != 1 {
			t.Errorf("expected 1 row, got %d", len(decoded.Rows))
		}
	})
}
