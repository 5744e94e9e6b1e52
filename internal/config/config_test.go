package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"
)

func TestLoadConfig_Defaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	unsetEnvWithCleanup(t, "SERVER_PORT")
	unsetEnvWithCleanup(t, "BRANCH_CODES")
	unsetEnvWithCleanup(t, "DORMANCY_THRESHOLD_DAYS")
	unsetEnvWithCleanup(t, "DORMANCY_SWEEP_SCHEDULE")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ServerPort != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.ServerPort)
	}
	if cfg.DormancyThresholdDays != 90 {
		t.Fatalf("expected default dormancy threshold of 90 days, got %d", cfg.DormancyThresholdDays)
	}
	if cfg.DormancySweepSchedule != "@daily" {
		t.Fatalf("expected default sweep schedule @daily, got %q", cfg.DormancySweepSchedule)
	}
	if len(cfg.BranchCodes) != 1 || cfg.BranchCodes[0] != "001" {
		t.Fatalf("expected default branch codes [001], got %v", cfg.BranchCodes)
	}
}

func TestLoadConfig_ParsesCommaSeparatedCodes(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "BRANCH_CODES", "100, 200,300")
	setEnvWithCleanup(t, "ACCOUNT_TYPE_CODES", "01,02")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if len(cfg.BranchCodes) != 3 || cfg.BranchCodes[0] != "100" || cfg.BranchCodes[2] != "300" {
		t.Fatalf("expected branch codes [100 200 300], got %v", cfg.BranchCodes)
	}
	if len(cfg.AccountTypeCodes) != 2 {
		t.Fatalf("expected two account type codes, got %v", cfg.AccountTypeCodes)
	}
}

func TestLoadConfig_CoercesNegativeWithdrawalFee(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "WITHDRAWAL_FEE_PERCENT", "-2.5")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.WithdrawalFeePercent != 0 {
		t.Fatalf("expected negative fee to be coerced to zero, got %f", cfg.WithdrawalFeePercent)
	}
}

func TestLoadConfig_InvalidDormancyThresholdFallsBack(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "DORMANCY_THRESHOLD_DAYS", "0")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.DormancyThresholdDays != 90 {
		t.Fatalf("expected zero threshold to fall back to 90, got %d", cfg.DormancyThresholdDays)
	}
}

func setEnvWithCleanup(t *testing.T, key string, value string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			os.Setenv(key, prev)
			return
		}
		os.Unsetenv(key)
	})
}

func unsetEnvWithCleanup(t *testing.T, key string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("failed to unset env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			os.Setenv(key, prev)
		}
	})
}
