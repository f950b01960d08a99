package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, PolicyFirstUnseen, cfg.Selection.Policy)
	assert.Equal(t, "file", cfg.History.Backend)
	assert.Equal(t, "state.json", cfg.History.Path)
	assert.Equal(t, 587, cfg.Mail.Port)
	assert.NotEmpty(t, cfg.Keywords.Include)
	assert.NotEmpty(t, cfg.Sites)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv(emailSenderEnv, "bot@example.com")
	t.Setenv(emailReceiverEnv, "a@example.com, b@example.com")
	t.Setenv(smtpPortEnv, "2525")
	t.Setenv(openAIKeyEnv, "sk-test")
	t.Setenv(selectionPolicyEnv, PolicyWeekdayIndexed)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "bot@example.com", cfg.Mail.Sender)
	assert.Equal(t, 2525, cfg.Mail.Port)
	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
	assert.Equal(t, PolicyWeekdayIndexed, cfg.Selection.Policy)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.Mail.RecipientList())
}

func TestLoadRejectsNonNumericPort(t *testing.T) {
	t.Setenv(smtpPortEnv, "not-a-port")

	_, err := Load()
	require.Error(t, err)

	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, smtpPortEnv, cfgErr.Setting)
}

func TestLoadRejectsUnknownPolicy(t *testing.T) {
	t.Setenv(selectionPolicyEnv, "coin_flip")

	_, err := Load()
	require.Error(t, err)

	var cfgErr *ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestLoadMissingCredentialsIsNotAnError(t *testing.T) {
	t.Setenv(openAIKeyEnv, "")
	t.Setenv(emailSenderEnv, "")

	// Credentials degrade the owning step at run time; startup succeeds.
	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.OpenAI.APIKey)
	assert.Empty(t, cfg.Mail.Sender)
}

func TestLoadYAMLFileMerge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
logging:
  level: debug
mail:
  subject: Weekly glow report
selection:
  policy: weekday_indexed
sites:
  - name: custom-feed
    scanner: rss
    url: https://example.com/feed.xml
    limit: 5
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))
	t.Setenv(configPathEnv, path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "Weekly glow report", cfg.Mail.Subject)
	assert.Equal(t, PolicyWeekdayIndexed, cfg.Selection.Policy)
	require.Len(t, cfg.Sites, 1)
	assert.Equal(t, "custom-feed", cfg.Sites[0].Name)
	// File settings do not clobber untouched defaults.
	assert.Equal(t, 587, cfg.Mail.Port)
}

func TestLoadUnreadableFileFallsBack(t *testing.T) {
	t.Setenv(configPathEnv, filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, PolicyFirstUnseen, cfg.Selection.Policy)
}
