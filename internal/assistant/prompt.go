package assistant

import (
	"encoding/json"
	"fmt"

	"searchlens-mcp-server/internal/gsc"
)

// ExplanationTopRows caps how many result rows travel inside an explanation
// prompt; full payloads blow the token budget without improving the answer.
const ExplanationTopRows = 10

// CommandSystemPrompt instructs the model to answer with an exact CLI
// command. User-facing text stays in Spanish, matching the product locale.
func CommandSystemPrompt() string {
	return "Eres un asistente experto en Google Search Console. " +
		"Cuando el usuario pida datos, responde SOLO con el comando CLI exacto que debe ejecutarse, usando la siguiente sintaxis:\n" +
		"Para listar sitios:\n" +
		"list-sites\n" +
		"Para analytics:\n" +
		"search-analytics --site-url <URL de la propiedad seleccionada por el usuario> --start-date 2025-02-01 --end-date 2025-08-22 --dimensions query,page --type web\n" +
		"Nunca uses 'https://tusitio.com/' ni ningún dominio genérico. Siempre usa la propiedad seleccionada por el usuario.\n" +
		"No compares ni mezcles propiedades, solo responde sobre la propiedad seleccionada.\n" +
		"Siempre usa los argumentos exactos: --site-url, --start-date, --end-date, --dimensions, --type, --aggregation-type, --row-limit.\n" +
		"No uses --site ni --date-range. Si no tienes fechas, usa los últimos 6 meses calculando las fechas en formato YYYY-MM-DD.\n" +
		"No expliques, solo responde con el comando CLI exacto."
}

// SiteContextPrefix reminds the model which property the session is bound
// to; it is prepended to every user turn once a site is active.
func SiteContextPrefix(siteURL string) string {
	if siteURL == "" {
		return ""
	}
	return fmt.Sprintf("La propiedad seleccionada es: %s. ", siteURL)
}

// ExplainPrompt asks the model to narrate a fresh result.
func ExplainPrompt(resultJSON string) string {
	return "Eres un experto en Google Search Console. Explica en español de forma clara y útil el siguiente resultado JSON de una consulta, " +
		"resalta insights, tendencias, posibles canibalizaciones y responde a la intención del usuario. Si no hay datos, indícalo de forma amable.\n\n" +
		resultJSON
}

// FollowUpPrompt carries the previous question and payload so the model can
// answer a follow-up without a new fetch.
func FollowUpPrompt(prevQuestion, prevJSON, newQuestion string) string {
	return fmt.Sprintf(
		"Pregunta anterior: %s\nRespuesta anterior (JSON): %s\nNueva pregunta: %s\n"+
			"Responde SOLO sobre la propiedad seleccionada. Explica en español de forma clara y útil, "+
			"resalta insights, tendencias, posibles canibalizaciones y responde a la intención del usuario. "+
			"Si no hay datos, indícalo de forma amable.",
		prevQuestion, prevJSON, newQuestion,
	)
}

// TrimResultJSON renders a result with at most top rows for prompt use. The
// trimmed form notes the original row count so the model does not present a
// truncated list as exhaustive.
func TrimResultJSON(result *gsc.Result, top int) string {
	if result == nil {
		return "{}"
	}
	trimmed := struct {
		Rows            []gsc.Row `json:"rows"`
		AggregationType string    `json:"responseAggregationType"`
		TotalRows       int       `json:"totalRows"`
	}{
		Rows:            result.Rows,
		AggregationType: result.AggregationType,
		TotalRows:       len(result.Rows),
	}
	if top > 0 && len(trimmed.Rows) > top {
		trimmed.Rows = trimmed.Rows[:top]
	}
	raw, err := json.Marshal(trimmed)
	if err != nil {
		return "{}"
	}
	return string(raw)
}
