package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_PORT", "TIMEZONE", "CURRENCY", "STORAGE_BACKEND", "STORAGE_DIR",
		"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "REDIS_KEY_PREFIX",
		"MONGODB_URI", "MONGODB_DB_NAME", "POSTGRES_DSN", "GOTENBERG_URL",
		"REPORT_CRON_SCHEDULE", "REPORT_ARCHIVE",
		"GOOGLE_SHEETS_CREDENTIALS_PATH", "GOOGLE_SHEET_DATABASE_ID",
		"KAFKA_BROKERS", "KAFKA_TOPIC",
		"WHATSAPP_TOKEN", "WHATSAPP_PHONE_NUMBER_ID", "META_VERIFY_TOKEN",
		"WHATSAPP_BASE_URL", "WHATSAPP_API_VERSION", "WHATSAPP_REPORT_RECIPIENT",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Server.Port)
	require.Equal(t, BackendFile, cfg.Storage.Backend)
	require.Equal(t, ".shopledger", cfg.Storage.Dir)
	require.Equal(t, "shopledger:", cfg.Redis.KeyPrefix)
	require.Equal(t, "0 21 * * *", cfg.Reporting.CronSchedule)
	require.Equal(t, "USD", cfg.Reporting.Currency)
	require.Empty(t, cfg.Reporting.Archives)
	require.Empty(t, cfg.Kafka.Brokers)
	require.Equal(t, "ledger.transactions", cfg.Kafka.Topic)
	require.Equal(t, time.UTC, cfg.Location())
	require.False(t, cfg.WhatsApp.Enabled())
	require.Equal(t, "v20.0", cfg.WhatsApp.APIVersion)
}

func TestLoadFromEnvFile(t *testing.T) {
	clearEnv(t)
	envFile := filepath.Join(t.TempDir(), ".env")
	content := "STORAGE_BACKEND=Redis\nREDIS_ADDR=cache:6379\nREDIS_DB=2\nCURRENCY=eur\nTIMEZONE=Europe/Paris\nKAFKA_BROKERS=k1:9092, k2:9092\nREPORT_ARCHIVE=none\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o600))

	cfg, err := Load(envFile)
	require.NoError(t, err)
	require.Equal(t, BackendRedis, cfg.Storage.Backend)
	require.Equal(t, "cache:6379", cfg.Redis.Addr)
	require.Equal(t, 2, cfg.Redis.DB)
	require.Equal(t, "EUR", cfg.Reporting.Currency)
	require.Equal(t, "Europe/Paris", cfg.Location().String())
	require.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	require.Empty(t, cfg.Reporting.Archives)
}

func TestLoadRejectsBadRedisDB(t *testing.T) {
	clearEnv(t)
	t.Setenv("REDIS_DB", "two")
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
}

func validConfig() Config {
	return Config{
		Server:    ServerConfig{Port: "8080"},
		Storage:   StorageConfig{Backend: BackendFile, Dir: ".shopledger"},
		Reporting: ReportingConfig{CronSchedule: "0 21 * * *", Timezone: "UTC", Currency: "USD"},
		Kafka:     KafkaConfig{Topic: "ledger.transactions"},
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"missing port":         func(c *Config) { c.Server.Port = "" },
		"unknown backend":      func(c *Config) { c.Storage.Backend = "floppy" },
		"file without dir":     func(c *Config) { c.Storage.Dir = "" },
		"mongodb without uri":  func(c *Config) { c.Storage.Backend = BackendMongoDB },
		"postgres without dsn": func(c *Config) { c.Storage.Backend = BackendPostgres },
		"sheets without creds": func(c *Config) { c.Reporting.Archives = []string{ArchiveSheets} },
		"mongo archive no uri": func(c *Config) { c.Reporting.Archives = []string{ArchiveMongoDB} },
		"unknown archive":      func(c *Config) { c.Reporting.Archives = []string{"fax"} },
		"bad timezone":         func(c *Config) { c.Reporting.Timezone = "Mars/Olympus" },
		"bad currency":         func(c *Config) { c.Reporting.Currency = "DOLLARS" },
		"empty schedule":       func(c *Config) { c.Reporting.CronSchedule = "" },
		"whatsapp without phone": func(c *Config) {
			c.WhatsApp.AccessToken = "token"
			c.WhatsApp.VerifyToken = "verify"
		},
		"whatsapp without verify token": func(c *Config) {
			c.WhatsApp.AccessToken = "token"
			c.WhatsApp.PhoneNumberID = "123"
		},
		"whatsapp archive disabled": func(c *Config) { c.Reporting.Archives = []string{ArchiveWhatsApp} },
		"whatsapp archive without recipient": func(c *Config) {
			c.WhatsApp = WhatsAppConfig{AccessToken: "token", PhoneNumberID: "123", VerifyToken: "verify", BaseURL: "https://graph.facebook.com", APIVersion: "v20.0"}
			c.Reporting.Archives = []string{ArchiveWhatsApp}
		},
		"kafka without topic": func(c *Config) {
			c.Kafka.Brokers = []string{"k1:9092"}
			c.Kafka.Topic = ""
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := validConfig()
			mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}

	cfg := validConfig()
	require.NoError(t, cfg.Validate())

	cfg.WhatsApp = WhatsAppConfig{
		AccessToken:     "token",
		PhoneNumberID:   "123",
		VerifyToken:     "verify",
		BaseURL:         "https://graph.facebook.com",
		APIVersion:      "v20.0",
		ReportRecipient: "224600000000",
	}
	cfg.Reporting.Archives = []string{ArchiveWhatsApp}
	require.NoError(t, cfg.Validate())

	var nilCfg *Config
	require.Error(t, nilCfg.Validate())
}
