package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadMergesFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yml := `
server:
  port: "9090"
wallet:
  min_deposit: 50
  max_deposit: "5000.50"
  retry_delay: 25ms
referral:
  deposit_bonus_percentage: 5
worker:
  bonus_retry_interval: 30s
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("REFERRAL_REGISTRATION_BONUS", "250")
	t.Setenv("JWT_EXPIRES_IN", "2h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.True(t, cfg.Wallet.MinDeposit.Equal(decimal.NewFromInt(50)))
	assert.True(t, cfg.Wallet.MaxDeposit.Equal(decimal.RequireFromString("5000.50")))
	assert.Equal(t, 25*time.Millisecond, cfg.Wallet.RetryDelay)
	assert.True(t, cfg.Referral.DepositBonusPercentage.Equal(decimal.NewFromInt(5)))
	assert.True(t, cfg.Referral.RegistrationBonus.Equal(decimal.NewFromInt(250)))
	assert.Equal(t, 30*time.Second, cfg.Worker.BonusRetryInterval)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	// untouched keys keep their defaults
	assert.Equal(t, 50, cfg.Worker.BonusRetryBatch)
	assert.True(t, cfg.Wallet.MinWithdrawal.Equal(decimal.NewFromInt(1)))
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Wallet.MinDeposit.Equal(decimal.NewFromInt(100)))
	assert.True(t, cfg.Wallet.MaxDeposit.Equal(decimal.NewFromInt(100000)))
	assert.True(t, cfg.Referral.RegistrationBonus.Equal(decimal.NewFromInt(100)))
	assert.True(t, cfg.Referral.DepositBonusPercentage.Equal(decimal.NewFromInt(10)))
}

func TestLoadRejectsShortSecret(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("JWT_SECRET", "short")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt_secret")
}

func TestLoadRejectsBadEnvDecimal(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("MIN_DEPOSIT", "lots")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MIN_DEPOSIT")
}

func TestWalletPolicyValidate(t *testing.T) {
	p := DefaultWalletPolicy()
	require.NoError(t, p.Validate())

	p.MaxDeposit = decimal.NewFromInt(10)
	assert.Error(t, p.Validate())

	p = DefaultWalletPolicy()
	p.MaxRetries = 0
	assert.Error(t, p.Validate())
}

func TestReferralPolicyValidate(t *testing.T) {
	p := DefaultReferralPolicy()
	require.NoError(t, p.Validate())

	p.DepositBonusPercentage = decimal.NewFromInt(101)
	assert.Error(t, p.Validate())

	p = DefaultReferralPolicy()
	p.RegistrationBonus = decimal.NewFromInt(-1)
	assert.Error(t, p.Validate())

	p = DefaultReferralPolicy()
	p.RegistrationBonus = decimal.RequireFromString("10.005")
	assert.Error(t, p.Validate())
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("DB_DRIVER", "sqlite")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqlite")
}

func TestLoadSelectsMemoryDriver(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("DB_DRIVER", DriverMemory)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
}
