package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"searchlens-mcp-server/internal/assistant"
	"searchlens-mcp-server/internal/config"
	"searchlens-mcp-server/internal/gsc"
	"searchlens-mcp-server/internal/recorder"
	"searchlens-mcp-server/internal/resolve"
	"searchlens-mcp-server/internal/session"
)

func main() {
	configPath := flag.String("config", "", "Path to an explicit SearchLens config file")
	workspaceDir := flag.String("workspace-dir", "", "Workspace root instead of walking up from cwd")
	noWorkspace := flag.Bool("no-workspace", false, "Skip workspace discovery")
	flag.Parse()

	// Local development convenience; missing .env files are not an error.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, _, err := config.LoadWithWorkspace(*configPath, config.WorkspaceOptions{
		Disable:     *noWorkspace,
		ExplicitDir: *workspaceDir,
	})
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	client, err := gsc.NewClient(ctx, cfg.GSC.CredentialsPath())
	if err != nil {
		log.Fatalf("failed to initialize Search Console client: %v", err)
	}

	oracle, err := assistant.NewClient(os.Getenv("ANTHROPIC_API_KEY"), cfg.Assistant.Model)
	if err != nil {
		log.Fatalf("failed to initialize assistant: %v", err)
	}

	sites, err := client.ListSites(ctx)
	if err != nil {
		log.Fatalf("failed to list Search Console properties: %v", err)
	}
	if len(sites) == 0 {
		log.Fatal("the credentials have no Search Console properties")
	}

	opts := session.Options{
		DefaultRowLimit:  cfg.Analytics.RowLimit,
		FetchAll:         cfg.Analytics.IsFetchAll(),
		CommandMaxTokens: cfg.Assistant.GetCommandMaxTokens(),
		ExplainMaxTokens: cfg.Assistant.GetExplainMaxTokens(),
	}

	if cfg.Trace.Enable {
		rec, err := recorder.NewRecorder(cfg.Trace.Dir)
		if err != nil {
			log.Fatalf("failed to initialize trace recorder: %v", err)
		}
		if err := rec.Start(uuid.NewString()); err != nil {
			log.Fatalf("failed to start trace: %v", err)
		}
		defer rec.Close()
		opts.Recorder = rec
	}

	engine := session.NewEngine(
		oracle,
		gsc.NewFetcher(client),
		resolve.NewAssembler(resolve.NewDateRangeResolver(nil)),
		sites,
		opts,
	)

	runShell(ctx, engine)
}

// runShell owns all terminal I/O; the engine never prints or reads.
func runShell(ctx context.Context, engine *session.Engine) {
	in := bufio.NewScanner(os.Stdin)
	state := session.NewState()

	fmt.Println("SearchLens: asistente de Search Console. Escribe 'salir' para terminar.")
	state = promptSiteSelection(in, engine, state)

	for {
		fmt.Print("\n> ")
		if !in.Scan() {
			return
		}
		input := strings.TrimSpace(in.Text())
		if input == "" {
			continue
		}

		var out session.Outcome
		state, out = engine.Turn(ctx, state, input)
		switch out.Kind {
		case session.OutcomeExit:
			fmt.Println("Hasta luego.")
			return

		case session.OutcomeModeChanged:
			fmt.Println(out.Text)
			// The mode switch dropped the active property; ask again.
			state = promptSiteSelection(in, engine, state)

		case session.OutcomeInteraction:
			printResolution(out.Resolution)
			state = promptSiteSelection(in, engine, state)

		case session.OutcomeSiteList:
			printSites(out.Sites)

		case session.OutcomeAnswer:
			if out.Note != "" {
				fmt.Println(out.Note)
			}
			if out.Text != "" {
				fmt.Println(out.Text)
			}
			if out.Result != nil {
				printResultJSON(out.Result)
			}

		case session.OutcomeError:
			fmt.Println(out.Text)
		}
	}
}

// promptSiteSelection loops until the user picks a property or ends input.
func promptSiteSelection(in *bufio.Scanner, engine *session.Engine, state session.State) session.State {
	if state.ActiveSite != nil {
		return state
	}

	printSites(engine.Sites())
	for {
		fmt.Print("Elige una propiedad (número o URL): ")
		if !in.Scan() {
			return state
		}
		choice := strings.TrimSpace(in.Text())
		if choice == "" {
			continue
		}
		next, ok := engine.SelectSite(state, choice)
		if !ok {
			fmt.Println("No se reconoce esa propiedad. Prueba con el número de la lista.")
			continue
		}
		fmt.Printf("Propiedad seleccionada: %s\n", next.ActiveSite.URL)
		return next
	}
}

func printResolution(res *resolve.SiteResolution) {
	if res == nil {
		return
	}
	switch res.Kind {
	case resolve.SiteAmbiguous:
		fmt.Printf("El término %q coincide con varias propiedades:\n", res.Candidate)
	case resolve.SiteNotFound:
		fmt.Printf("No hay ninguna propiedad que coincida con %q.\n", res.Candidate)
	}
}

func printSites(sites []gsc.Site) {
	fmt.Println("Propiedades disponibles:")
	for i, site := range sites {
		fmt.Printf("  %d. %s (%s)\n", i+1, site.URL, site.PermissionLevel)
	}
}

func printResultJSON(result *gsc.Result) {
	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Printf("no se pudo serializar el resultado: %v\n", err)
		return
	}
	fmt.Println(string(payload))
}
