package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Database   DatabaseConfig
	JWT        JWTConfig
	App        AppConfig
	Storage    StorageConfig
	Attendance AttendanceConfig
	Payroll    PayrollConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port     int
	Env      string
	LogLevel string
}

// StorageConfig holds evidence file storage configuration
type StorageConfig struct {
	BasePath string
	BaseURL  string
}

// AttendanceConfig holds the attendance policy knobs
type AttendanceConfig struct {
	LateToleranceMinutes  int
	EarlyToleranceMinutes int
	NoShowGraceMinutes    int
	ViolationSLADays      int
	ArchiveRetainDays     int
	DetectLookbackDays    int
}

// PayrollConfig holds the pay policy rates
type PayrollConfig struct {
	DeductionPerMinute   decimal.Decimal
	OvertimePayPerMinute decimal.Decimal
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("No .env file found, using environment variables")
	}

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "classboard-backoffice"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:     appPort,
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret: getEnv("JWT_SECRET_KEY", ""),
	}

	// Storage configuration
	config.Storage = StorageConfig{
		BasePath: getEnv("STORAGE_BASE_PATH", "./uploads"),
		BaseURL:  getEnv("STORAGE_BASE_URL", "http://localhost:8080/uploads"),
	}

	// Attendance policy
	attendance, err := loadAttendance()
	if err != nil {
		return nil, err
	}
	config.Attendance = attendance

	// Payroll rates
	payroll, err := loadPayroll()
	if err != nil {
		return nil, err
	}
	config.Payroll = payroll

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

func loadAttendance() (AttendanceConfig, error) {
	var cfg AttendanceConfig
	var err error

	if cfg.LateToleranceMinutes, err = getEnvInt("LATE_TOLERANCE_MINUTES", 10); err != nil {
		return cfg, err
	}
	if cfg.EarlyToleranceMinutes, err = getEnvInt("EARLY_TOLERANCE_MINUTES", 10); err != nil {
		return cfg, err
	}
	if cfg.NoShowGraceMinutes, err = getEnvInt("NO_SHOW_GRACE_MINUTES", 120); err != nil {
		return cfg, err
	}
	if cfg.ViolationSLADays, err = getEnvInt("VIOLATION_SLA_DAYS", 3); err != nil {
		return cfg, err
	}
	if cfg.ArchiveRetainDays, err = getEnvInt("ARCHIVE_RETAIN_DAYS", 30); err != nil {
		return cfg, err
	}
	if cfg.DetectLookbackDays, err = getEnvInt("DETECT_LOOKBACK_DAYS", 7); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func loadPayroll() (PayrollConfig, error) {
	var cfg PayrollConfig

	deduction, err := decimal.NewFromString(getEnv("DEDUCTION_PER_MINUTE", "500"))
	if err != nil {
		return cfg, fmt.Errorf("invalid DEDUCTION_PER_MINUTE: %w", err)
	}
	overtime, err := decimal.NewFromString(getEnv("OVERTIME_PAY_PER_MINUTE", "750"))
	if err != nil {
		return cfg, fmt.Errorf("invalid OVERTIME_PAY_PER_MINUTE: %w", err)
	}

	cfg.DeductionPerMinute = deduction
	cfg.OvertimePayPerMinute = overtime
	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.Attendance.NoShowGraceMinutes < 0 {
		return fmt.Errorf("NO_SHOW_GRACE_MINUTES must not be negative")
	}
	if c.Payroll.DeductionPerMinute.IsNegative() {
		return fmt.Errorf("DEDUCTION_PER_MINUTE must not be negative")
	}
	if c.Payroll.OvertimePayPerMinute.IsNegative() {
		return fmt.Errorf("OVERTIME_PAY_PER_MINUTE must not be negative")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
