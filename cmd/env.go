package main

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/crm-autosync/internal/config"
	"github.com/sells-group/crm-autosync/internal/pipeline"
	"github.com/sells-group/crm-autosync/internal/store"
	"github.com/sells-group/crm-autosync/pkg/agent"
	"github.com/sells-group/crm-autosync/pkg/anthropic"
)

// initStore opens and migrates the configured state backend.
func initStore(ctx context.Context, c *config.Config) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch c.Store.Driver {
	case "sqlite":
		if dir := filepath.Dir(c.Store.DatabaseURL); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, eris.Wrap(err, "create data dir")
			}
		}
		st, err = store.NewSQLite(c.Store.DatabaseURL)
	case "postgres":
		st, err = store.NewPostgres(ctx, c.Store.DatabaseURL, nil)
	case "memory":
		st = store.NewMemory()
	default:
		return nil, eris.Errorf("unsupported store driver: %s", c.Store.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

// initGateway builds the agent gateway selected by agent.driver.
func initGateway(c *config.Config) (agent.Gateway, error) {
	switch c.Agent.Driver {
	case "http":
		return agent.NewClient(
			agent.WithBaseURL(c.Agent.BaseURL),
			agent.WithAPIKey(c.Agent.APIKey),
			agent.WithUserID(c.Agent.UserID),
			agent.WithTimeout(time.Duration(c.Agent.TimeoutSecs)*time.Second),
			agent.WithRateLimit(c.Agent.RatePerSec),
		), nil
	case "anthropic":
		client := anthropic.NewClient(c.Anthropic.Key)
		return anthropic.NewGateway(client, anthropic.GatewayConfig{
			Model:             c.Anthropic.Model,
			MaxTokens:         c.Anthropic.MaxTokens,
			ExtractionAgentID: c.Agent.ExtractionAgentID,
			PushAgentID:       c.Agent.PushAgentID,
		}), nil
	default:
		return nil, eris.Errorf("unsupported agent driver: %s", c.Agent.Driver)
	}
}

// appEnv holds the resources shared by every command.
type appEnv struct {
	Store store.Store
	Orch  *pipeline.Orchestrator
}

// Close releases the store.
func (e *appEnv) Close() {
	if err := e.Store.Close(); err != nil {
		zap.L().Warn("close store", zap.Error(err))
	}
}

// initEnv validates config for mode, opens the store and loads persisted
// state into a fresh orchestrator. Local mode gets a gateway that refuses
// every call.
func initEnv(ctx context.Context, mode string) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	var gw agent.Gateway = offlineGateway{}
	if mode != "local" {
		g, err := initGateway(cfg)
		if err != nil {
			return nil, err
		}
		gw = g
	}

	st, err := initStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	orch := pipeline.New(gw, st, pipeline.Agents{
		ExtractionID: cfg.Agent.ExtractionAgentID,
		PushID:       cfg.Agent.PushAgentID,
	})
	orch.Load(ctx)

	return &appEnv{Store: st, Orch: orch}, nil
}

type offlineGateway struct{}

func (offlineGateway) Invoke(context.Context, string, string) (*agent.Envelope, error) {
	return nil, eris.New("agent gateway not configured for local commands")
}
