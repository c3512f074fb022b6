package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	contractx "github.com/praveenkd/worklog-agent/agent/contract"
	orchestratorx "github.com/praveenkd/worklog-agent/agent/orchestrator"
	promptx "github.com/praveenkd/worklog-agent/agent/prompt"
	routerx "github.com/praveenkd/worklog-agent/agent/router"
	statex "github.com/praveenkd/worklog-agent/agent/state"
	toolx "github.com/praveenkd/worklog-agent/agent/tool"
	workersx "github.com/praveenkd/worklog-agent/agent/workers"
	configx "github.com/praveenkd/worklog-agent/pkg/config"
	_ "github.com/praveenkd/worklog-agent/pkg/logger/autoload"
	mailerx "github.com/praveenkd/worklog-agent/pkg/mailer"
	openrouterx "github.com/praveenkd/worklog-agent/pkg/openrouter"
)

type AppConfig struct {
	Listen      string `envconfig:"LISTEN" split_words:"true" default:":8080"`
	PostgresDSN string `envconfig:"POSTGRES_DSN" split_words:"true"`
}

type chatRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
}

type chatResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
}

func main() {
	appCfg := configx.MustNew[AppConfig]("")
	llmCfg := configx.MustNew[workersx.Config]("OPENROUTER")
	toolCfg := configx.MustNew[toolx.Config]("TOOLS")
	mailCfg := configx.MustNew[mailerx.Config]("SENDGRID")
	orchCfg := configx.MustNew[orchestratorx.Config]("ORCHESTRATOR")

	ctx := context.Background()

	store := newStore(ctx, appCfg.PostgresDSN)

	completer, err := openrouterCompleter(*llmCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize router model client")
	}
	rt, err := routerx.New(completer, promptx.LoadPromptSet().Router)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize router")
	}

	registry, err := workersx.NewRegistry(ctx, *llmCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize workers")
	}

	gateway := toolx.NewGateway(*toolCfg, *mailCfg, mailerx.NewClient(*mailCfg))

	orch, err := orchestratorx.New(store, rt, registry, gateway, *orchCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize orchestrator")
	}

	// One persistent thread per process unless the caller supplies its own.
	defaultSession := uuid.NewString()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat", func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		sessionID := strings.TrimSpace(req.SessionID)
		if sessionID == "" {
			sessionID = defaultSession
		}

		reply, err := orch.HandleMessage(r.Context(), sessionID, req.Message)
		if err != nil {
			log.Error().Err(err).Str("session", sessionID).Msg("message handling failed")
			status := http.StatusBadGateway
			if err == orchestratorx.ErrInvalidMessage || err == orchestratorx.ErrInvalidSession {
				status = http.StatusBadRequest
			}
			http.Error(w, err.Error(), status)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(chatResponse{SessionID: sessionID, Reply: reply}); err != nil {
			log.Error().Err(err).Msg("failed to write chat response")
		}
	})

	log.Info().Str("listen", appCfg.Listen).Msg("chat surface ready")
	if err := http.ListenAndServe(appCfg.Listen, mux); err != nil {
		log.Fatal().Err(err).Msg("http server stopped")
	}
}

func newStore(ctx context.Context, dsn string) statex.Store {
	if strings.TrimSpace(dsn) == "" {
		log.Info().Msg("no postgres dsn configured, using in-memory conversation store")
		return statex.NewMemoryStore()
	}

	pg, err := statex.NewPostgresStore(statex.PostgresConfig{DSN: dsn})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open postgres conversation store")
	}
	if err := pg.EnsureSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to prepare conversation schema")
	}
	return pg
}

func openrouterCompleter(cfg workersx.Config) (contractx.Completer, error) {
	return openrouterx.NewChatCompleter(cfg.RouterConfig())
}
