package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"gopkg.in/yaml.v2"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"relay-bot/backend"
)

type Config struct {
	Signal   SignalConfig   `yaml:"signal"`
	Telegram TelegramConfig `yaml:"telegram"`
	Provider string         `yaml:"provider"`
	Gemini   GeminiConfig   `yaml:"gemini"`
	DeepSeek DeepSeekConfig `yaml:"deepseek"`
	Relay    RelayConfig    `yaml:"relay"`
	Httpd    HttpdConfig    `yaml:"httpd"`
}

type TelegramConfig struct {
	Debug     bool   `yaml:"debug"`
	ApiToken  string `yaml:"apiToken"`
	ParseMode string `yaml:"parseMode"`
}
type SignalConfig struct {
	Sources []string `yaml:"sources"`
	Socket  string   `yaml:"socket"`
}
type GeminiConfig struct {
	ApiKey string `yaml:"apiKey"`
	Model  string `yaml:"model"`
}
type DeepSeekConfig struct {
	ApiKey  string        `yaml:"apiKey"`
	Url     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}
type RelayConfig struct {
	DefaultMode  string `yaml:"defaultMode"`
	ReplyOnError bool   `yaml:"replyOnError"`
}
type HttpdConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Addr      string `yaml:"addr"`
	AuthToken string `yaml:"authToken"`
}

func (c *Config) applyDefaults() {
	if c.Provider == "" {
		c.Provider = "telegram"
	}
	if c.Relay.DefaultMode == "" {
		c.Relay.DefaultMode = string(backend.DefaultMode)
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = backend.DefaultGeminiModel
	}
	if c.DeepSeek.Url == "" {
		c.DeepSeek.Url = backend.DefaultDeepSeekURL
	}
	if c.Httpd.Addr == "" {
		c.Httpd.Addr = ":8080"
	}
}

// NewConfig returns a new decoded Config struct. An empty path yields the
// defaults, secrets then come from the environment only.
func NewConfig(configPath string) (*Config, error) {
	// Create config structure
	config := &Config{}

	if configPath == "" {
		config.applyDefaults()
		return config, nil
	}

	// Open config file
	file, err := os.Open(configPath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			log.Printf("error closing file: %v", err)
		}
	}()

	// Init new YAML decode
	d := yaml.NewDecoder(file)

	// Start YAML decoding from file
	if err := d.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	config.applyDefaults()
	if _, err := backend.ParseMode(config.Relay.DefaultMode); err != nil {
		return nil, fmt.Errorf("relay.defaultMode: %w", err)
	}

	return config, nil
}

// ValidateConfigPath just makes sure, that the path provided is a file,
// that can be read
func ValidateConfigPath(path string) error {
	s, err := os.Stat(path)
	if err != nil {
		return err
	}
	if s.IsDir() {
		return fmt.Errorf("'%s' is a directory, not a normal file", path)
	}
	return nil
}

// ParseFlags will create and parse the CLI flags
// and return the path to be used elsewhere
func ParseFlags() (string, error) {
	// String that contains the configured configuration path
	var configPath string

	// Set up a CLI flag called "-config" to allow users
	// to supply the configuration file
	flag.StringVar(&configPath, "config", "", "path to config file (optional)")

	// Actually parse the flags
	flag.Parse()

	if configPath == "" {
		return "", nil
	}

	// Validate the path first
	if err := ValidateConfigPath(configPath); err != nil {
		return "", err
	}

	// Return the configuration path
	return configPath, nil
}

// Return a secret found in an ENV var or in config.yaml. ENV var has precedence
func GetSecret(envVar string, cfgSetting string) (string, bool) {
	var secret string

	secret, exists := os.LookupEnv(envVar)
	if exists {
		return secret, true
	}

	if cfgSetting != "" {
		return cfgSetting, true
	}

	return "", false

}

func main() {
	cfgPath, err := ParseFlags()
	if err != nil {
		log.Fatal(err)
	}

	cfg, err := NewConfig(cfgPath)
	if err != nil {
		log.Fatal(err)
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-sigs
		log.Println("Signal received. Terminating")
		cancel()
	}()

	backends, err := BackendsFactory(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}

	sr, err := MessagingFactory(cfg)
	if err != nil {
		log.Fatal(err)
	}

	mode, _ := backend.ParseMode(cfg.Relay.DefaultMode)
	relay := NewRelay(backend.NewSelector(mode), backends, cfg.Relay.ReplyOnError)

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Httpd.Enabled {
		g.Go(func() error {
			return HttpServer(gctx, cfg, relay)
		})
	}
	if sr != nil {
		g.Go(func() error {
			MessagingPoller(gctx, sr, relay)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatal(err)
	}

}
