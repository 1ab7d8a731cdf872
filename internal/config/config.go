package config

import (
	"log"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

type RelayConfig struct {
	Env          string `yaml:"env"`
	HTTPServer   `yaml:"http_server"`
	PaymentDB    `yaml:"payment_db"`
	Redis        `yaml:"redis"`
	Chain        `yaml:"chain"`
	Relayer      `yaml:"relayer"`
	KafkaService `yaml:"kafka-service"`
	LogConfig    `yaml:"log_config"`
}

type HTTPServer struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
}

type PaymentDB struct {
	Dsn string `yaml:"dsn"`
}

type Redis struct {
	Addr       string `yaml:"addr"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	TTLSeconds int64  `yaml:"ttl_seconds"`
}

type Chain struct {
	RpcURL               string `yaml:"rpc_url"`
	ChainID              int64  `yaml:"chain_id"`
	ForwarderAddress     string `yaml:"forwarder_address"`
	SettlementAddress    string `yaml:"settlement_address"`
	ConfirmationDelaySec int64  `yaml:"confirmation_delay_sec"`
	PollIntervalMs       int64  `yaml:"poll_interval_ms"`
	ReceiptTimeoutMs     int64  `yaml:"receipt_timeout_ms"`
	DefaultGasLimit      uint64 `yaml:"default_gas_limit"`
}

type Relayer struct {
	PrivateKey string `yaml:"private_key" env:"RELAYER_PRIVATE_KEY"`
	RelayURL   string `yaml:"relay_url"`
	APIKey     string `yaml:"api_key" env:"RELAY_API_KEY"`
}

type KafkaService struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
}

type LogConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	LogOutput string `yaml:"log_output"`
}

func MustLoad() *RelayConfig {

	// Processing env config variable and file
	configPath := os.Getenv("RELAY_CONFIG_PATH")

	if configPath == "" {
		log.Fatalf("RELAY_CONFIG_PATH was not found\n")
	}

	if _, err := os.Stat(configPath); err != nil {
		log.Fatalf("failed to find config file: %v\n", err)
	}

	// YAML to struct object
	var cfg RelayConfig
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("failed to read config file: %v", err)
	}

	return &cfg
}
