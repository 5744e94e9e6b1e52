/**
 * @description
 * This package handles configuration management for the ledger service. It
 * uses the Viper library to read configuration from environment variables
 * (with optional .env file support), providing a centralized way to manage
 * application settings. Institution settings such as the bank code, branch
 * and account type codes, fee rates and the dormancy threshold live here so
 * the core consumes them as plain values.
 *
 * Rates are frozen onto entities at creation time; changing a rate here
 * never reprices an existing loan.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"log/slog"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration variables for the ledger service. Values
// are loaded from environment variables.
type Config struct {
	ServerPort string `mapstructure:"SERVER_PORT"`

	// Persistence: the document database, and the flat-file fallback
	// directory used when the database is unreachable at startup.
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	FileStoreDir string `mapstructure:"FILE_STORE_DIR"`

	// Eventing / notifications.
	RabbitMQURL         string `mapstructure:"RABBITMQ_URL"`
	LedgerEventExchange string `mapstructure:"LEDGER_EVENT_EXCHANGE"`
	NotificationQueue   string `mapstructure:"NOTIFICATION_QUEUE"`

	// Auth layer and approval-code engine secrets.
	JWTSecret          string `mapstructure:"JWT_SECRET"`
	ApprovalCodeSecret string `mapstructure:"APPROVAL_CODE_SECRET"`

	// Institution identity used in account-number minting.
	BankCode         string   `mapstructure:"BANK_CODE"`
	BranchCodes      []string `mapstructure:"-"`
	AccountTypeCodes []string `mapstructure:"-"`

	// Fee and interest rates, in percent.
	WithdrawalFeePercent     float64 `mapstructure:"WITHDRAWAL_FEE_PERCENT"`
	LoanServiceFeePercent    float64 `mapstructure:"LOAN_SERVICE_FEE_PERCENT"`
	LoanAdminFeePercent      float64 `mapstructure:"LOAN_ADMIN_FEE_PERCENT"`
	LoanCommitmentFeePercent float64 `mapstructure:"LOAN_COMMITMENT_FEE_PERCENT"`

	// Dormancy sweep.
	DormancyThresholdDays int    `mapstructure:"DORMANCY_THRESHOLD_DAYS"`
	DormancySweepSchedule string `mapstructure:"DORMANCY_SWEEP_SCHEDULE"`
}

// LoadConfig reads configuration from environment variables from the given
// path. It uses Viper to automatically bind environment variables to the
// Config struct.
func LoadConfig(path string) (config Config, err error) {
	// Tell viper the path to look for the optional .env file.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	// Enable automatic binding of environment variables.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values.
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("FILE_STORE_DIR", "./data")
	viper.SetDefault("LEDGER_EVENT_EXCHANGE", "ledger.events")
	viper.SetDefault("NOTIFICATION_QUEUE", "ledger.notifications")
	viper.SetDefault("BANK_CODE", "01")
	viper.SetDefault("BRANCH_CODES", "001")
	viper.SetDefault("ACCOUNT_TYPE_CODES", "01")
	viper.SetDefault("WITHDRAWAL_FEE_PERCENT", 0.0)
	viper.SetDefault("LOAN_SERVICE_FEE_PERCENT", 0.0)
	viper.SetDefault("LOAN_ADMIN_FEE_PERCENT", 0.0)
	viper.SetDefault("LOAN_COMMITMENT_FEE_PERCENT", 0.0)
	viper.SetDefault("DORMANCY_THRESHOLD_DAYS", 90)
	viper.SetDefault("DORMANCY_SWEEP_SCHEDULE", "@daily")

	// Bind environment variables explicitly to ensure they appear in Unmarshal.
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("FILE_STORE_DIR")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("LEDGER_EVENT_EXCHANGE")
	_ = viper.BindEnv("NOTIFICATION_QUEUE")
	_ = viper.BindEnv("JWT_SECRET")
	_ = viper.BindEnv("APPROVAL_CODE_SECRET")
	_ = viper.BindEnv("BANK_CODE")
	_ = viper.BindEnv("BRANCH_CODES")
	_ = viper.BindEnv("ACCOUNT_TYPE_CODES")
	_ = viper.BindEnv("WITHDRAWAL_FEE_PERCENT")
	_ = viper.BindEnv("LOAN_SERVICE_FEE_PERCENT")
	_ = viper.BindEnv("LOAN_ADMIN_FEE_PERCENT")
	_ = viper.BindEnv("LOAN_COMMITMENT_FEE_PERCENT")
	_ = viper.BindEnv("DORMANCY_THRESHOLD_DAYS")
	_ = viper.BindEnv("DORMANCY_SWEEP_SCHEDULE")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("failed to read config file; using environment values", "error", err)
		}
		err = nil
	}

	// Unmarshal the configuration into the Config struct.
	if err = viper.Unmarshal(&config); err != nil {
		return
	}

	// Branch and account-type codes are comma-separated lists; order matters
	// because the first entry is the default when a requested code does not
	// resolve.
	config.BranchCodes = splitCodes(viper.GetString("BRANCH_CODES"))
	config.AccountTypeCodes = splitCodes(viper.GetString("ACCOUNT_TYPE_CODES"))

	if config.WithdrawalFeePercent < 0 {
		slog.Warn("negative withdrawal fee configured; coercing to zero", "fee_percent", config.WithdrawalFeePercent)
		config.WithdrawalFeePercent = 0
	}
	if config.DormancyThresholdDays <= 0 {
		config.DormancyThresholdDays = 90
	}
	if strings.TrimSpace(config.DormancySweepSchedule) == "" {
		config.DormancySweepSchedule = "@daily"
	}

	return
}

func splitCodes(raw string) []string {
	var codes []string
	for _, part := range strings.Split(raw, ",") {
		if code := strings.TrimSpace(part); code != "" {
			codes = append(codes, code)
		}
	}
	return codes
}
