package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server ServerConfig
	Log    LogConfig
	CORS   CORSConfig
	Sheets SheetsConfig
	Store  StoreConfig
	Relay  RelayConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	logCfg, err := loadLogConfig()
	if err != nil {
		return nil, err
	}

	sheets, err := loadSheetsConfig()
	if err != nil {
		return nil, err
	}

	store, err := loadStoreConfig()
	if err != nil {
		return nil, err
	}

	relay, err := loadRelayConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server: server,
		Log:    logCfg,
		CORS:   loadCORSConfig(),
		Sheets: sheets,
		Store:  store,
		Relay:  relay,
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "5002"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":5002" 或 "127.0.0.1:5002"。
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// LogConfig 描述日志级别与输出格式。
type LogConfig struct {
	Level  string
	Format string
}

func loadLogConfig() (LogConfig, error) {
	level := strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info"))
	switch level {
	case "debug", "info", "warn", "error":
	default:
		return LogConfig{}, fmt.Errorf("invalid LOG_LEVEL value %q", level)
	}

	format := strings.ToLower(getEnvOrDefault("LOG_FORMAT", "json"))
	if format != "json" && format != "console" {
		return LogConfig{}, fmt.Errorf("invalid LOG_FORMAT value %q", format)
	}

	return LogConfig{Level: level, Format: format}, nil
}

// CORSConfig 描述跨域配置。
type CORSConfig struct {
	AllowedOrigins []string
}

func loadCORSConfig() CORSConfig {
	raw := getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*")
	var origins []string
	for _, origin := range strings.Split(raw, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return CORSConfig{AllowedOrigins: origins}
}

// SheetsConfig 描述 Google Sheets 目录数据源。
type SheetsConfig struct {
	SpreadsheetID   string
	Range           string
	CredentialsFile string
	TokenFile       string
	Timeout         time.Duration
}

// Enabled 表示是否配置了表格 ID。
func (c SheetsConfig) Enabled() bool {
	return c.SpreadsheetID != ""
}

func loadSheetsConfig() (SheetsConfig, error) {
	timeout, err := parseOptionalIntEnv("SHEETS_TIMEOUT")
	if err != nil {
		return SheetsConfig{}, err
	}
	timeoutSeconds := 15
	if timeout != nil {
		timeoutSeconds = *timeout
	}

	return SheetsConfig{
		SpreadsheetID:   strings.TrimSpace(os.Getenv("SHEETS_SPREADSHEET_ID")),
		Range:           getEnvOrDefault("SHEETS_RANGE", "Sheet1!A2:I"),
		CredentialsFile: getEnvOrDefault("SHEETS_CREDENTIALS_FILE", "service_account.json"),
		TokenFile:       getEnvOrDefault("SHEETS_TOKEN_FILE", "token.json"),
		Timeout:         time.Duration(timeoutSeconds) * time.Second,
	}, nil
}

// Supported chat store drivers.
const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
	StoreMemory   = "memory"
)

// StoreConfig 描述聊天消息存储。
type StoreConfig struct {
	Driver          string
	MongoURI        string
	MongoDatabase   string
	MongoCollection string
	DatabaseURL     string
	SQLitePath      string
	ConnectTimeout  time.Duration
}

func loadStoreConfig() (StoreConfig, error) {
	driver := strings.ToLower(getEnvOrDefault("CHAT_STORE", StoreMongo))
	switch driver {
	case StoreMongo, StorePostgres, StoreSQLite, StoreMemory:
	default:
		return StoreConfig{}, fmt.Errorf("invalid CHAT_STORE value %q", driver)
	}

	databaseURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if driver == StorePostgres && databaseURL == "" {
		return StoreConfig{}, fmt.Errorf("DATABASE_URL is required when CHAT_STORE=%s", StorePostgres)
	}

	timeout, err := parseOptionalIntEnv("CHAT_STORE_TIMEOUT")
	if err != nil {
		return StoreConfig{}, err
	}
	timeoutSeconds := 10
	if timeout != nil {
		timeoutSeconds = *timeout
	}

	return StoreConfig{
		Driver:          driver,
		MongoURI:        getEnvOrDefault("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:   getEnvOrDefault("MONGO_DATABASE", "directory"),
		MongoCollection: getEnvOrDefault("MONGO_COLLECTION", "messages"),
		DatabaseURL:     databaseURL,
		SQLitePath:      getEnvOrDefault("SQLITE_PATH", "chat.db"),
		ConnectTimeout:  time.Duration(timeoutSeconds) * time.Second,
	}, nil
}

// RelayConfig 描述实时聊天通道参数。
type RelayConfig struct {
	SendBuffer   int
	PingInterval time.Duration
	ReadTimeout  time.Duration
}

func loadRelayConfig() (RelayConfig, error) {
	buffer, err := parsePositiveIntEnv("RELAY_SEND_BUFFER", 32)
	if err != nil {
		return RelayConfig{}, err
	}
	ping, err := parsePositiveIntEnv("RELAY_PING_SECONDS", 54)
	if err != nil {
		return RelayConfig{}, err
	}
	readTimeout, err := parsePositiveIntEnv("RELAY_READ_TIMEOUT_SECONDS", 60)
	if err != nil {
		return RelayConfig{}, err
	}
	if ping >= readTimeout {
		return RelayConfig{}, fmt.Errorf("RELAY_PING_SECONDS (%d) must be lower than RELAY_READ_TIMEOUT_SECONDS (%d)", ping, readTimeout)
	}

	return RelayConfig{
		SendBuffer:   buffer,
		PingInterval: time.Duration(ping) * time.Second,
		ReadTimeout:  time.Duration(readTimeout) * time.Second,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parsePositiveIntEnv(key string, defaultValue int) (int, error) {
	val, err := parseOptionalIntEnv(key)
	if err != nil {
		return 0, err
	}
	if val == nil {
		return defaultValue, nil
	}
	if *val <= 0 {
		return 0, fmt.Errorf("invalid %s value %d: must be positive", key, *val)
	}
	return *val, nil
}
