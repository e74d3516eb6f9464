package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setLocal(t *testing.T) {
	t.Setenv("STORE", "memory")
	t.Setenv("LEDGER_MODE", "local")
}

func TestLoadDefaults(t *testing.T) {
	setLocal(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, ":3000", cfg.HTTPAddr)
	assert.Equal(t, 15*time.Second, cfg.LedgerTimeout)
	assert.Equal(t, uint64(3), cfg.LedgerWaitRounds)
	assert.Equal(t, uint64(2), cfg.LedgerReadRetries)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes)
	assert.Equal(t, 2*time.Minute, cfg.ClaimTTL)
	assert.False(t, cfg.NotificationsEnabled())
}

func TestLoadPostgresRequiresDSN(t *testing.T) {
	t.Setenv("STORE", "postgres")
	t.Setenv("LEDGER_MODE", "local")
	t.Setenv("DB_DSN", "")

	_, err := Load()
	assert.ErrorContains(t, err, "DB_DSN")
}

func TestLoadAlgodRequiresSigner(t *testing.T) {
	t.Setenv("STORE", "memory")
	t.Setenv("LEDGER_MODE", "algod")
	t.Setenv("APP_ID", "1234")
	t.Setenv("SIGNER_MNEMONIC", "")

	_, err := Load()
	assert.ErrorContains(t, err, "SIGNER_MNEMONIC")
}

func TestLoadRejectsBadNumbers(t *testing.T) {
	setLocal(t)
	t.Setenv("LEDGER_TIMEOUT", "soon")
	t.Setenv("MAX_UPLOAD_BYTES", "-1")

	_, err := Load()
	require.Error(t, err)
	assert.ErrorContains(t, err, "LEDGER_TIMEOUT")
	assert.ErrorContains(t, err, "MAX_UPLOAD_BYTES")
}

func TestLoadClaimTTLMustExceedLedgerTimeout(t *testing.T) {
	setLocal(t)
	t.Setenv("LEDGER_TIMEOUT", "30s")
	t.Setenv("CLAIM_TTL", "20s")

	_, err := Load()
	assert.ErrorContains(t, err, "CLAIM_TTL")
}

func TestLoadTelegramPair(t *testing.T) {
	setLocal(t)
	t.Setenv("TELEGRAM_TOKEN", "123:abc")

	_, err := Load()
	assert.ErrorContains(t, err, "TELEGRAM_CHAT_ID")

	t.Setenv("TELEGRAM_CHAT_ID", "42")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.NotificationsEnabled())
	assert.Equal(t, int64(42), cfg.TelegramChatID)
}

func TestAlgodAddress(t *testing.T) {
	cfg := &Config{AlgodServer: "http://localhost/", AlgodPort: "4001"}
	assert.Equal(t, "http://localhost:4001", cfg.AlgodAddress())

	cfg.AlgodPort = ""
	assert.Equal(t, "http://localhost/", cfg.AlgodAddress())
}
