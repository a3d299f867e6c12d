package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/atlassify/internal/cli"
	"github.com/nhle/atlassify/internal/model"
	"github.com/nhle/atlassify/internal/store"
)

// writeConfig points storage and logs at a temp dir and returns the
// config path.
func writeConfig(t *testing.T) (string, string) {
	t.Helper()

	dir := t.TempDir()
	cfg := "storage:\n" +
		"  db_path: " + filepath.Join(dir, "atlassify.db") + "\n" +
		"  credentials_dir: " + filepath.Join(dir, "credentials") + "\n" +
		"log:\n" +
		"  level: error\n" +
		"  file: \"\"\n"

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return path, filepath.Join(dir, "atlassify.db")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	root := cli.NewRootCmdForTest()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "atlassify dev")
}

func TestSettingsCmd_ShowDefaults(t *testing.T) {
	cfg, _ := writeConfig(t)

	out, err := execute(t, "settings", "--config", cfg)
	require.NoError(t, err)

	var got model.Settings
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, model.DefaultSettings(), got)
}

func TestSettingsCmd_SetPersists(t *testing.T) {
	cfg, db := writeConfig(t)

	_, err := execute(t, "settings", "set", "--config", cfg,
		"system.openLinks=background", "notifications.delayNotificationState=true")
	require.NoError(t, err)

	st, err := store.NewSQLiteStore(db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	saved, err := st.LoadState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.OpenBackground, saved.Settings.System.OpenLinks)
	assert.True(t, saved.Settings.Notifications.DelayNotificationState)
}

func TestSettingsCmd_SetRejectsBadInput(t *testing.T) {
	cfg, _ := writeConfig(t)

	_, err := execute(t, "settings", "set", "--config", cfg, "system.openLinks")
	assert.ErrorContains(t, err, "expected key=value")

	_, err = execute(t, "settings", "set", "--config", cfg, "system.notificationVolume=150")
	assert.ErrorContains(t, err, "out of range")

	out, err := execute(t, "settings", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, `"notificationVolume": 20`)
}

func TestSettingsCmd_Reset(t *testing.T) {
	cfg, _ := writeConfig(t)

	_, err := execute(t, "settings", "set", "--config", cfg, "tray.useUnreadActiveIcon=false")
	require.NoError(t, err)

	out, err := execute(t, "settings", "reset", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, `"useUnreadActiveIcon": true`)
}

func TestSettingsCmd_ImportReplacesState(t *testing.T) {
	cfg, db := writeConfig(t)

	file := filepath.Join(t.TempDir(), "state.json")
	raw := `{"auth":{"accounts":[{"id":"acc-1","username":"jane@example.com","token":"keyring:abc"}]},` +
		`"settings":{"system":{"openLinks":"background"}}}`
	require.NoError(t, os.WriteFile(file, []byte(raw), 0o600))

	out, err := execute(t, "settings", "import", "--config", cfg, file)
	require.NoError(t, err)
	assert.Contains(t, out, `"openLinks": "background"`)
	assert.Contains(t, out, `"notificationVolume": 20`)

	st, err := store.NewSQLiteStore(db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	saved, err := st.LoadState(context.Background())
	require.NoError(t, err)
	require.Len(t, saved.Auth.Accounts, 1)
	assert.Equal(t, "jane@example.com", saved.Auth.Accounts[0].Username)
	assert.Equal(t, model.OpenBackground, saved.Settings.System.OpenLinks)
}

func TestSettingsCmd_ImportRejectsInvalidJSON(t *testing.T) {
	cfg, _ := writeConfig(t)

	file := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(file, []byte("{nope"), 0o600))

	_, err := execute(t, "settings", "import", "--config", cfg, file)
	assert.ErrorContains(t, err, "invalid JSON")

	_, err = execute(t, "settings", "import", "--config", cfg, filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "reading")
}

func TestAccountsCmd_Empty(t *testing.T) {
	cfg, _ := writeConfig(t)

	out, err := execute(t, "accounts", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "No accounts")
}

func TestAccountsCmd_ListsStoredAccounts(t *testing.T) {
	cfg, db := writeConfig(t)

	st, err := store.NewSQLiteStore(db)
	require.NoError(t, err)
	require.NoError(t, st.SaveState(context.Background(), store.State{
		Auth: model.AuthState{Accounts: []model.Account{
			{ID: "acc-1", Username: "ada@example.com", DisplayName: "Ada Lovelace"},
		}},
		Settings: model.DefaultSettings(),
	}))
	require.NoError(t, st.Close())

	out, err := execute(t, "accounts", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "acc-1")
	assert.Contains(t, out, "Ada Lovelace")
}

func TestLogoutCmd_UnknownAccount(t *testing.T) {
	cfg, _ := writeConfig(t)

	_, err := execute(t, "logout", "--config", cfg, "nobody@example.com")
	assert.ErrorContains(t, err, "nobody@example.com")
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	out, err := execute(t, "config", "init", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Created")

	cfg, err := model.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultAPIURL, cfg.API.URL)
	assert.Equal(t, 60, cfg.Poll.IntervalSec)

	_, err = execute(t, "config", "init", "--config", path)
	assert.ErrorContains(t, err, "already exists")

	_, err = execute(t, "config", "init", "--config", path, "--force")
	assert.NoError(t, err)
}
