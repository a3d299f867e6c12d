package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/atlassify/internal/auth"
	"github.com/nhle/atlassify/internal/credential"
	"github.com/nhle/atlassify/internal/logging"
	"github.com/nhle/atlassify/internal/model"
	"github.com/nhle/atlassify/internal/source/atlassian"
	"github.com/nhle/atlassify/internal/store"
)

// env holds the services a command needs. The keyring and API client are
// opened on demand so commands that only touch the store never prompt
// for keyring access.
type env struct {
	cfgPath string
	cfg     *model.AppConfig
	store   *store.SQLiteStore
	vault   *credential.Vault
	client  *atlassian.Client
}

func openEnv(cmd *cobra.Command, console bool) (*env, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	cfg, err := model.LoadConfig(path)
	if err != nil {
		return nil, err
	}

	if err := logging.Init(cfg.Log, console); err != nil {
		return nil, fmt.Errorf("initializing logging: %w", err)
	}

	st, err := store.NewSQLiteStore(cfg.Storage.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	return &env{cfgPath: path, cfg: cfg, store: st}, nil
}

// remote opens the keyring and the API client.
func (e *env) remote() error {
	if e.client != nil {
		return nil
	}
	vault, err := credential.Open(e.cfg.Storage.CredentialsDir)
	if err != nil {
		return err
	}
	e.vault = vault
	e.client = atlassian.NewClient(e.cfg.API.URL, vault, time.Duration(e.cfg.API.TimeoutSec)*time.Second)
	return nil
}

// authService returns an auth.Service. Only Accounts works until remote
// has been called.
func (e *env) authService() *auth.Service {
	if e.client == nil {
		return auth.NewService(e.store, nil, nil)
	}
	return auth.NewService(e.store, e.vault, e.client)
}

func (e *env) pollInterval() time.Duration {
	return time.Duration(e.cfg.Poll.IntervalSec) * time.Second
}

func (e *env) Close() {
	if err := e.store.Close(); err != nil {
		logging.Logger().WithError(err).Warn("closing store")
	}
	_ = logging.Close()
}
