package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/madmis/kuna-bot/internal/domain"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Supported platforms.
const (
	PlatformBinance = "binance"
	PlatformBybit   = "bybit"
	PlatformPaper   = "paper"
)

// Supported strategies.
const (
	StrategySimple   = "simple"
	StrategyShorting = "shorting"
)

const (
	defaultIterationTimeout = 30 * time.Second
	defaultRetryDelay       = 10 * time.Second
	defaultPaperStateDir    = "./wal/paper"
)

// Config typed configuration of a single bot.
type Config struct {
	Platform  string
	Strategy  string
	Pair      domain.Pair
	PublicKey string
	SecretKey string

	MinAmounts      domain.MinTradeAmounts
	ShowMemoryUsage bool
	// IterationTimeout steady delay between two cycles.
	IterationTimeout time.Duration
	// RetryDelay delay attached to retryable gateway failures.
	RetryDelay          time.Duration
	BelowBoundaryPolicy domain.TruncationPolicy

	// simple strategy
	BaseCurrency  domain.SideConfig
	QuoteCurrency domain.SideConfig

	// shorting strategy
	Margin       decimal.Decimal
	IncreaseUnit decimal.Decimal

	LogLevel zapcore.Level
	LogFile  string

	Paper PaperConfig
}

// PaperConfig settings of the paper trading platform.
type PaperConfig struct {
	StateDir string
	// Market platform providing public market data.
	Market   string
	Balances map[string]decimal.Decimal
}

// ConfigTmp raw YAML representation of Config. Numbers are kept as strings so
// decimals are parsed without going through float64.
type ConfigTmp struct {
	Platform            string             `yaml:"platform,omitempty"`
	Strategy            string             `yaml:"strategy"`
	Pair                string             `yaml:"pair"`
	PublicKey           string             `yaml:"public_key,omitempty"`
	SecretKey           string             `yaml:"secret_key,omitempty"`
	MinAmounts          map[string]string  `yaml:"min_amounts,omitempty"`
	ShowMemoryUsage     bool               `yaml:"show_memory_usage,omitempty"`
	IterationTimeout    string             `yaml:"iteration_timeout,omitempty"`
	RetryDelay          string             `yaml:"retry_delay,omitempty"`
	BelowBoundaryPolicy string             `yaml:"below_boundary_policy,omitempty"`
	Pairs               map[string]PairTmp `yaml:"pairs,omitempty"`
	BaseCurrency        *SideTmp           `yaml:"base_currency,omitempty"`
	QuoteCurrency       *SideTmp           `yaml:"quote_currency,omitempty"`
	Margin              string             `yaml:"margin,omitempty"`
	IncreaseUnit        string             `yaml:"increase_unit,omitempty"`
	LogLevel            string             `yaml:"log_level,omitempty"`
	LogFile             string             `yaml:"log_file,omitempty"`
	Paper               *PaperTmp          `yaml:"paper,omitempty"`
}

// SideTmp raw ladder settings of one side of the pair.
type SideTmp struct {
	Boundary string   `yaml:"boundary"`
	Margin   []string `yaml:"margin"`
}

// PairTmp raw pair registry entry.
type PairTmp struct {
	Base  string `yaml:"base"`
	Quote string `yaml:"quote"`
}

// PaperTmp raw paper trading settings.
type PaperTmp struct {
	StateDir string            `yaml:"state_dir,omitempty"`
	Market   string            `yaml:"market,omitempty"`
	Balances map[string]string `yaml:"balances,omitempty"`
}

// Load reads bot configurations from a YAML file. When pairID is not empty only
// the bot trading that pair is returned.
func Load(path, pairID string) ([]Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config %s", path)
	}

	return Parse(data, pairID)
}

// Parse decodes either a single bot configuration or a list of them.
func Parse(data []byte, pairID string) ([]Config, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "invalid bot configuration")
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, errors.New("invalid bot configuration: empty document")
	}

	var raws []ConfigTmp
	root := doc.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&raws); err != nil {
			return nil, errors.Wrap(err, "invalid bot configuration")
		}
	case yaml.MappingNode:
		var raw ConfigTmp
		if err := root.Decode(&raw); err != nil {
			return nil, errors.Wrap(err, "invalid bot configuration")
		}
		raws = append(raws, raw)
	default:
		return nil, errors.New("invalid bot configuration: expected a mapping or a list")
	}

	configs := make([]Config, 0, len(raws))
	for i, raw := range raws {
		if pairID != "" {
			if !strings.EqualFold(strings.TrimSpace(raw.Pair), strings.TrimSpace(pairID)) {
				// a single configuration runs whatever pair was requested
				if len(raws) > 1 {
					continue
				}
				raw.Pair = pairID
			}
		}

		conf, err := raw.ToConfig()
		if err != nil {
			return nil, errors.Wrapf(err, "bot #%d", i+1)
		}
		configs = append(configs, conf)
	}

	if len(configs) == 0 {
		return nil, errors.Errorf("no bot configured for pair %q", pairID)
	}

	return configs, nil
}

// ToConfig validates the raw configuration and converts it to Config.
func (c ConfigTmp) ToConfig() (Config, error) {
	conf := Config{
		Platform:        strings.ToLower(strings.TrimSpace(c.Platform)),
		Strategy:        strings.ToLower(strings.TrimSpace(c.Strategy)),
		PublicKey:       c.PublicKey,
		SecretKey:       c.SecretKey,
		ShowMemoryUsage: c.ShowMemoryUsage,
		LogFile:         c.LogFile,
	}

	if conf.Platform == "" {
		conf.Platform = PlatformPaper
	}
	switch conf.Platform {
	case PlatformBinance, PlatformBybit, PlatformPaper:
	default:
		return Config{}, fmt.Errorf("unsupported platform: %s", c.Platform)
	}

	extra := make(map[string]domain.Pair, len(c.Pairs))
	for id, p := range c.Pairs {
		extra[id] = domain.Pair{Base: p.Base, Quote: p.Quote}
	}
	registry, err := domain.NewPairRegistry(extra)
	if err != nil {
		return Config{}, errors.Wrap(err, "incorrect 'pairs' param")
	}
	if strings.TrimSpace(c.Pair) == "" {
		return Config{}, errors.New("'pair' param is required")
	}
	conf.Pair, err = registry.Split(c.Pair)
	if err != nil {
		return Config{}, err
	}

	if conf.MinAmounts, err = parseMinAmounts(c.MinAmounts); err != nil {
		return Config{}, err
	}

	if conf.IterationTimeout, err = parseDuration(c.IterationTimeout, defaultIterationTimeout); err != nil {
		return Config{}, errors.Wrap(err, "incorrect 'iteration_timeout' param")
	}
	if conf.RetryDelay, err = parseDuration(c.RetryDelay, defaultRetryDelay); err != nil {
		return Config{}, errors.Wrap(err, "incorrect 'retry_delay' param")
	}

	if conf.BelowBoundaryPolicy, err = domain.ParseTruncationPolicy(c.BelowBoundaryPolicy); err != nil {
		return Config{}, errors.Wrap(err, "incorrect 'below_boundary_policy' param")
	}

	switch conf.Strategy {
	case StrategySimple:
		if conf.BaseCurrency, err = parseSide("base_currency", c.BaseCurrency); err != nil {
			return Config{}, err
		}
		if conf.QuoteCurrency, err = parseSide("quote_currency", c.QuoteCurrency); err != nil {
			return Config{}, err
		}
	case StrategyShorting:
		if conf.Margin, err = parseRequiredDecimal("margin", c.Margin); err != nil {
			return Config{}, err
		}
		if conf.IncreaseUnit, err = parseRequiredDecimal("increase_unit", c.IncreaseUnit); err != nil {
			return Config{}, err
		}
	default:
		return Config{}, fmt.Errorf("unsupported strategy type: %s", c.Strategy)
	}

	conf.LogLevel = zapcore.InfoLevel
	if c.LogLevel != "" {
		if conf.LogLevel, err = zapcore.ParseLevel(c.LogLevel); err != nil {
			return Config{}, errors.Wrap(err, "incorrect 'log_level' param")
		}
	}

	if conf.Paper, err = parsePaper(c.Paper); err != nil {
		return Config{}, err
	}

	if conf.Platform != PlatformPaper {
		conf.PublicKey, conf.SecretKey = credentials(conf.Platform, conf.PublicKey, conf.SecretKey)
		if conf.PublicKey == "" || conf.SecretKey == "" {
			return Config{}, fmt.Errorf("'public_key' and 'secret_key' params (or %s and %s environment variables) must be set",
				envKey(conf.Platform), envSecret(conf.Platform))
		}
	}

	return conf, nil
}

func parseMinAmounts(raw map[string]string) (domain.MinTradeAmounts, error) {
	overrides := make(map[string]decimal.Decimal, len(raw))
	for currency, value := range raw {
		amount, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			return domain.MinTradeAmounts{}, errors.Wrapf(err, "incorrect 'min_amounts.%s' param", currency)
		}
		if amount.IsNegative() {
			return domain.MinTradeAmounts{}, fmt.Errorf("incorrect 'min_amounts.%s' param: must not be negative", currency)
		}
		overrides[currency] = amount
	}

	return domain.NewMinTradeAmounts(overrides), nil
}

// parseDuration accepts Go durations and bare integers meaning seconds.
func parseDuration(value string, def time.Duration) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return def, nil
	}

	var d time.Duration
	if seconds, err := strconv.ParseInt(value, 10, 64); err == nil {
		d = time.Duration(seconds) * time.Second
	} else {
		d, err = time.ParseDuration(value)
		if err != nil {
			return 0, err
		}
	}

	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", value)
	}

	return d, nil
}

func parseSide(name string, raw *SideTmp) (domain.SideConfig, error) {
	if raw == nil {
		return domain.SideConfig{}, fmt.Errorf("'%s' param is required", name)
	}

	boundary, err := parseRequiredDecimal(name+".boundary", raw.Boundary)
	if err != nil {
		return domain.SideConfig{}, err
	}

	if len(raw.Margin) == 0 {
		return domain.SideConfig{}, fmt.Errorf("'%s.margin' param must contain at least one value", name)
	}

	margins := make([]decimal.Decimal, 0, len(raw.Margin))
	for i, value := range raw.Margin {
		margin, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			return domain.SideConfig{}, errors.Wrapf(err, "incorrect '%s.margin[%d]' param", name, i)
		}
		margins = append(margins, margin)
	}

	return domain.SideConfig{Boundary: boundary, Margins: margins}, nil
}

func parseRequiredDecimal(name, value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, fmt.Errorf("'%s' param is required", name)
	}

	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "incorrect '%s' param", name)
	}

	return d, nil
}

func parsePaper(raw *PaperTmp) (PaperConfig, error) {
	conf := PaperConfig{
		StateDir: defaultPaperStateDir,
		Market:   PlatformBinance,
		Balances: make(map[string]decimal.Decimal),
	}
	if raw == nil {
		return conf, nil
	}

	if raw.StateDir != "" {
		conf.StateDir = raw.StateDir
	}

	if raw.Market != "" {
		conf.Market = strings.ToLower(raw.Market)
	}
	if conf.Market != PlatformBinance && conf.Market != PlatformBybit {
		return PaperConfig{}, fmt.Errorf("unsupported 'paper.market' param: %s", raw.Market)
	}

	for currency, value := range raw.Balances {
		amount, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			return PaperConfig{}, errors.Wrapf(err, "incorrect 'paper.balances.%s' param", currency)
		}
		conf.Balances[strings.ToLower(currency)] = amount
	}

	return conf, nil
}

func credentials(platform, key, secret string) (string, string) {
	if key == "" {
		key = os.Getenv(envKey(platform))
	}
	if secret == "" {
		secret = os.Getenv(envSecret(platform))
	}

	return key, secret
}

func envKey(platform string) string {
	return strings.ToUpper(platform) + "_API_KEY"
}

func envSecret(platform string) string {
	return strings.ToUpper(platform) + "_API_SECRET"
}
