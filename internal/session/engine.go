package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"searchlens-mcp-server/internal/assistant"
	"searchlens-mcp-server/internal/gsc"
	"searchlens-mcp-server/internal/resolve"
)

// OutcomeKind tags what a turn produced.
type OutcomeKind string

const (
	// OutcomeAnswer carries an explanation and/or result payload.
	OutcomeAnswer OutcomeKind = "answer"
	// OutcomeSiteList is the property list for a list-sites turn.
	OutcomeSiteList OutcomeKind = "site_list"
	// OutcomeInteraction suspends the turn: the caller must get a site
	// choice from the user and call SelectSite before retrying.
	OutcomeInteraction OutcomeKind = "interaction"
	// OutcomeModeChanged confirms a presentation-mode switch.
	OutcomeModeChanged OutcomeKind = "mode_changed"
	// OutcomeExit means an exit keyword ended the session.
	OutcomeExit OutcomeKind = "exit"
	// OutcomeError is a local-turn failure; session state stays valid.
	OutcomeError OutcomeKind = "error"
)

// Outcome is what the shell renders after a turn. The core computes what
// must be shown or asked; the shell performs the actual I/O.
type Outcome struct {
	Kind       OutcomeKind
	Text       string
	Result     *gsc.Result
	Sites      []gsc.Site
	Resolution *resolve.SiteResolution
	Note       string
	TurnID     string
}

// TurnRecorder receives trace events; nil disables tracing.
type TurnRecorder interface {
	Log(eventType, turnID string, data interface{})
}

// Options tunes the engine.
type Options struct {
	DefaultRowLimit  int
	FetchAll         bool
	CommandMaxTokens int
	ExplainMaxTokens int
	Recorder         TurnRecorder
}

func (o Options) withDefaults() Options {
	if o.DefaultRowLimit <= 0 {
		o.DefaultRowLimit = 1000
	}
	if o.CommandMaxTokens <= 0 {
		o.CommandMaxTokens = 100
	}
	if o.ExplainMaxTokens <= 0 {
		o.ExplainMaxTokens = 300
	}
	return o
}

// Engine drives one user turn through oracle, resolution and fetch. Turns
// are strictly sequential; the engine holds no per-turn mutable state of its
// own, everything lives in the State values passed through it.
type Engine struct {
	oracle    assistant.Oracle
	fetcher   *gsc.Fetcher
	assembler *resolve.Assembler
	known     []gsc.Site
	opts      Options
}

// NewEngine builds an engine over an already-fetched authoritative site
// list; the list is read-only for the session's lifetime.
func NewEngine(oracle assistant.Oracle, fetcher *gsc.Fetcher, assembler *resolve.Assembler, known []gsc.Site, opts Options) *Engine {
	return &Engine{
		oracle:    oracle,
		fetcher:   fetcher,
		assembler: assembler,
		known:     known,
		opts:      opts.withDefaults(),
	}
}

// Sites returns the session's authoritative property list.
func (e *Engine) Sites() []gsc.Site { return e.known }

// SelectSite answers a pending site selection. The choice may be a 1-based
// index into the known list or any form the site resolver accepts; only an
// unambiguous resolution binds. The bool reports success.
func (e *Engine) SelectSite(s State, choice string) (State, bool) {
	choice = strings.TrimSpace(choice)
	if idx, err := parseIndex(choice); err == nil && idx >= 1 && idx <= len(e.known) {
		return bindSite(s, e.known[idx-1]), true
	}
	res := resolve.ResolveSite(choice, e.known)
	if res.Kind != resolve.SiteResolved {
		return s, false
	}
	return bindSite(s, res.Site), true
}

func parseIndex(s string) (int, error) {
	var n int
	_, err := fmt.Sscanf(s, "%d", &n)
	return n, err
}

func bindSite(s State, site gsc.Site) State {
	if s.ActiveSite != nil && s.ActiveSite.URL == site.URL {
		return s
	}
	bound := site
	s.ActiveSite = &bound
	s.LastResult = nil
	s.LastRange = nil
	return s
}

// Turn processes one user input and returns the next state plus the outcome
// to render. Provider and assistant failures never corrupt the state: the
// returned State keeps its previous consistent values on any error path.
func (e *Engine) Turn(ctx context.Context, s State, input string) (State, Outcome) {
	turnID := uuid.NewString()
	input = strings.TrimSpace(input)
	e.record("turn", turnID, map[string]interface{}{"input": input, "mode": s.Mode})

	if IsExit(input) {
		return s, Outcome{Kind: OutcomeExit, TurnID: turnID}
	}

	if mode, isCmd, err := ParseModeCommand(input); isCmd {
		if err != nil {
			return s, Outcome{Kind: OutcomeError, Text: err.Error(), TurnID: turnID}
		}
		s = s.WithMode(mode)
		e.record("mode", turnID, string(mode))
		return s, Outcome{
			Kind:   OutcomeModeChanged,
			Text:   fmt.Sprintf("Modo de respuesta cambiado a: %s", mode),
			TurnID: turnID,
		}
	}

	s, siteChanged := DetectSiteMention(s, input, e.known)

	if s.ActiveSite == nil {
		// No scope to query against; suspend and let the shell prompt.
		return s, Outcome{
			Kind:       OutcomeInteraction,
			Resolution: &resolve.SiteResolution{Kind: resolve.SiteSelectionRequired, Matches: e.known},
			TurnID:     turnID,
		}
	}

	prevQuestion := s.LastQuestion
	prompt := assistant.SiteContextPrefix(s.ActiveSite.URL) + input
	proposed, err := e.oracle.Propose(ctx, assistant.CommandSystemPrompt(), prompt, e.opts.CommandMaxTokens)
	if err != nil {
		return s, Outcome{Kind: OutcomeError, Text: fmt.Sprintf("el asistente no está disponible: %v", err), TurnID: turnID}
	}
	e.record("proposed", turnID, proposed)

	asm := e.assembler.Assemble(resolve.AssembleInput{
		Proposed:        proposed,
		UserText:        input,
		Known:           e.known,
		ActiveSiteURL:   s.ActiveSite.URL,
		DefaultRowLimit: e.opts.DefaultRowLimit,
	})

	switch asm.Kind {
	case resolve.AssemblySiteList:
		return s, Outcome{Kind: OutcomeSiteList, Sites: e.known, TurnID: turnID}

	case resolve.AssemblyNonActionable:
		return e.answerFollowUp(ctx, s, input, proposed, turnID)

	case resolve.AssemblyInteraction:
		res := asm.Resolution
		return s, Outcome{Kind: OutcomeInteraction, Resolution: &res, TurnID: turnID}

	case resolve.AssemblyRejected:
		return s, Outcome{Kind: OutcomeError, Text: asm.Reason, TurnID: turnID}
	}

	// The command may carry a different (verified) property than the
	// session; the explicit token wins and invalidates the cache.
	if s.ActiveSite.URL != asm.Query.SiteURL {
		for _, site := range e.known {
			if site.URL == asm.Query.SiteURL {
				s = bindSite(s, site)
				break
			}
		}
		siteChanged = true
	}

	if s.NeedsFetch(siteChanged, asm.Range) {
		result, err := e.fetcher.Fetch(ctx, *asm.Query, e.opts.FetchAll)
		if err != nil {
			// Local-turn failure: prior result and range stay valid.
			return s, Outcome{Kind: OutcomeError, Text: fmt.Sprintf("la consulta falló: %v", err), TurnID: turnID}
		}
		e.record("fetch", turnID, map[string]interface{}{
			"site":  asm.Query.SiteURL,
			"range": []string{asm.Query.StartDate, asm.Query.EndDate},
			"rows":  len(result.Rows),
		})
		s = s.WithResult(input, result, asm.Range)
	} else {
		s.LastQuestion = input
	}

	return e.present(ctx, s, input, prevQuestion, asm.Note, turnID)
}

// present renders the cached result according to the session mode, asking
// the oracle for a narration in text/both modes.
func (e *Engine) present(ctx context.Context, s State, input, prevQuestion, note, turnID string) (State, Outcome) {
	out := Outcome{Kind: OutcomeAnswer, Note: note, TurnID: turnID}
	if s.Mode == ModeJSON || s.Mode == ModeBoth {
		out.Result = s.LastResult
	}
	if s.Mode == ModeJSON {
		return s, out
	}

	trimmed := assistant.TrimResultJSON(s.LastResult, assistant.ExplanationTopRows)
	var prompt string
	if prevQuestion != "" {
		prompt = assistant.FollowUpPrompt(prevQuestion, trimmed, input)
	} else {
		prompt = assistant.ExplainPrompt(trimmed)
	}
	explanation, err := e.oracle.Propose(ctx, "", prompt, e.opts.ExplainMaxTokens)
	if err != nil {
		// Degrade rather than fail the turn; the data itself is fine.
		explanation = fmt.Sprintf("No se pudo obtener explicación: %v", err)
	}
	out.Text = explanation
	return s, out
}

// answerFollowUp handles non-actionable assistant prose. With cached
// context it becomes a follow-up explanation over the last payload; without
// context the prose is relayed verbatim.
func (e *Engine) answerFollowUp(ctx context.Context, s State, input, proposed, turnID string) (State, Outcome) {
	if s.LastResult == nil {
		return s, Outcome{Kind: OutcomeAnswer, Text: proposed, TurnID: turnID}
	}

	trimmed := assistant.TrimResultJSON(s.LastResult, assistant.ExplanationTopRows)
	prompt := assistant.FollowUpPrompt(s.LastQuestion, trimmed, input)
	explanation, err := e.oracle.Propose(ctx, "", prompt, e.opts.ExplainMaxTokens)
	if err != nil {
		explanation = fmt.Sprintf("No se pudo obtener explicación: %v", err)
	}
	s.LastQuestion = input
	out := Outcome{Kind: OutcomeAnswer, Text: explanation, TurnID: turnID}
	if s.Mode == ModeJSON || s.Mode == ModeBoth {
		out.Result = s.LastResult
	}
	return s, out
}

func (e *Engine) record(eventType, turnID string, data interface{}) {
	if e.opts.Recorder != nil {
		e.opts.Recorder.Log(eventType, turnID, data)
	}
}
