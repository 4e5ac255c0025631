// Package setup implements the interactive configuration wizard.
package setup

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/madmis/kuna-bot/config"
	"github.com/madmis/kuna-bot/internal/domain"
)

// GeneratedConfigPath file written by the wizard.
const GeneratedConfigPath = "config.gen.yaml"

const (
	wizardTitle       = "KUNA-BOT CONFIG WIZARD"
	paperQuoteBalance = "10000"
	// customPair pair option that asks for base and quote currencies.
	customPair = "custom"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

// answers values collected by the wizard.
type answers struct {
	strategy         string
	platform         string
	pair             string
	pairBase         string
	pairQuote        string
	iterationTimeout string

	baseBoundary  string
	baseMargins   string
	quoteBoundary string
	quoteMargins  string

	margin       string
	increaseUnit string
}

func defaultAnswers() answers {
	return answers{
		strategy:         config.StrategySimple,
		platform:         config.PlatformPaper,
		pair:             customPair,
		pairBase:         "btc",
		pairQuote:        "usdt",
		iterationTimeout: "30s",
		baseBoundary:     "0.05",
		baseMargins:      "100, 200, 300",
		quoteBoundary:    "2000",
		quoteMargins:     "-300, -200, -100",
		margin:           "1000",
		increaseUnit:     "1",
	}
}

// RunTUI launches the terminal configuration wizard and returns the path of the written config.
func RunTUI() (string, error) {
	a := defaultAnswers()

	clearScreen()
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Let's configure your market maker.\n"))

	fmt.Println(stepStyle.Render("STEP 1: STRATEGY"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Choose your trading strategy").
				Options(
					huh.NewOption("Simple (order ladders on both sides)", config.StrategySimple),
					huh.NewOption("Shorting (sell above the last buy)", config.StrategyShorting),
				).
				Value(&a.strategy),
		),
	).Run()
	if err != nil {
		return "", err
	}

	clearScreen()
	fmt.Println(stepStyle.Render("STEP 2: PLATFORM"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Select Exchange Platform").
				Options(
					huh.NewOption("Paper trading", config.PlatformPaper),
					huh.NewOption("Binance", config.PlatformBinance),
					huh.NewOption("Bybit", config.PlatformBybit),
				).
				Value(&a.platform),
		),
	).Run()
	if err != nil {
		return "", err
	}

	registry, err := domain.NewPairRegistry(nil)
	if err != nil {
		return "", err
	}
	pairOptions := make([]huh.Option[string], 0, len(registry.IDs())+1)
	pairOptions = append(pairOptions, huh.NewOption("Custom (enter base and quote)", customPair))
	for _, id := range registry.IDs() {
		pairOptions = append(pairOptions, huh.NewOption(id, id))
	}

	clearScreen()
	fmt.Println(stepStyle.Render("STEP 3: PAIR AND TIMING"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Trading Pair").
				Options(pairOptions...).
				Value(&a.pair),
			huh.NewInput().
				Title("Iteration Timeout").
				Description("Pause between two iterations (e.g. 30s, 1m)").
				Value(&a.iterationTimeout).
				Validate(validateDuration),
		),
	).Run()
	if err != nil {
		return "", err
	}

	if a.pair == customPair {
		err = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Base Currency").
					Description("Currency the bot sells, e.g. btc").
					Value(&a.pairBase).
					Validate(validateCurrency),
				huh.NewInput().
					Title("Quote Currency").
					Description("Currency the bot buys with, e.g. usdt").
					Value(&a.pairQuote).
					Validate(validateCurrency),
			),
		).Run()
		if err != nil {
			return "", err
		}
	}

	clearScreen()
	if a.strategy == config.StrategyShorting {
		fmt.Println(stepStyle.Render("STEP 4: SHORTING SETTINGS"))
		err = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Margin").
					Description("Added to the last buy price to get the sell price").
					Value(&a.margin).
					Validate(validateDecimal),
				huh.NewInput().
					Title("Increase Unit").
					Description("Added to the best bid to get the buy price").
					Value(&a.increaseUnit).
					Validate(validateDecimal),
			),
		).Run()
	} else {
		fmt.Println(stepStyle.Render("STEP 4: LADDERS"))
		err = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Base Currency Boundary").
					Description("Below this balance a single sell order is placed").
					Value(&a.baseBoundary).
					Validate(validateDecimal),
				huh.NewInput().
					Title("Base Currency Margins").
					Description("Comma separated offsets added to the best ask").
					Value(&a.baseMargins).
					Validate(validateMargins),
				huh.NewInput().
					Title("Quote Currency Boundary").
					Description("Below this balance a single buy order is placed").
					Value(&a.quoteBoundary).
					Validate(validateDecimal),
				huh.NewInput().
					Title("Quote Currency Margins").
					Description("Comma separated offsets added to the best bid").
					Value(&a.quoteMargins).
					Validate(validateMargins),
			),
		).Run()
	}
	if err != nil {
		return "", err
	}

	clearScreen()
	fmt.Println(stepStyle.Render("FINAL CONFIRMATION"))
	fmt.Println(lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1).Render(a.summary()))

	var confirm bool
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save Configuration?").
				Affirmative("Yes, save and start").
				Negative("No, exit").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return "", err
	}
	if !confirm {
		return "", errors.New("setup cancelled by user")
	}

	if err := writeConfig(GeneratedConfigPath, a); err != nil {
		return "", err
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render(fmt.Sprintf("\n✓ Configuration saved to %s\nStarting bot...", GeneratedConfigPath)))
	time.Sleep(1500 * time.Millisecond) // small pause to read success message

	return GeneratedConfigPath, nil
}

func clearScreen() {
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render(wizardTitle))
}

func (a answers) summary() string {
	pairID, pair := a.resolvePair()
	return fmt.Sprintf("Strategy: %s\nPlatform: %s\nPair: %s (%s)\nInterval: %s\n",
		a.strategy, a.platform, pairID, pair, a.iterationTimeout)
}

// resolvePair returns the pair id and its split. A custom pair is returned with
// an empty split when a currency is missing.
func (a answers) resolvePair() (string, domain.Pair) {
	if a.pair != customPair {
		pair, _ := domain.SplitPair(a.pair)
		return a.pair, pair
	}

	pair := domain.Pair{
		Base:  strings.ToLower(strings.TrimSpace(a.pairBase)),
		Quote: strings.ToLower(strings.TrimSpace(a.pairQuote)),
	}
	if pair.Base == "" || pair.Quote == "" {
		return "", domain.Pair{}
	}

	return pair.ID(), pair
}

// toConfig converts the answers into the raw config representation.
func (a answers) toConfig() config.ConfigTmp {
	pairID, pair := a.resolvePair()
	cfg := config.ConfigTmp{
		Platform:         a.platform,
		Strategy:         a.strategy,
		Pair:             pairID,
		IterationTimeout: a.iterationTimeout,
	}

	if a.pair == customPair && pairID != "" {
		cfg.Pairs = map[string]config.PairTmp{pairID: {Base: pair.Base, Quote: pair.Quote}}
	}

	if a.platform == config.PlatformPaper && pair.Quote != "" {
		cfg.Paper = &config.PaperTmp{Balances: map[string]string{pair.Quote: paperQuoteBalance}}
	}

	if a.strategy == config.StrategyShorting {
		cfg.Margin = strings.TrimSpace(a.margin)
		cfg.IncreaseUnit = strings.TrimSpace(a.increaseUnit)
		return cfg
	}

	cfg.BaseCurrency = &config.SideTmp{Boundary: strings.TrimSpace(a.baseBoundary), Margin: splitMargins(a.baseMargins)}
	cfg.QuoteCurrency = &config.SideTmp{Boundary: strings.TrimSpace(a.quoteBoundary), Margin: splitMargins(a.quoteMargins)}

	return cfg
}

// writeConfig validates the answers through the config parser and saves them as a bot list.
// Exchange credentials are read from the environment when the bot starts.
func writeConfig(path string, a answers) error {
	cfg := a.toConfig()

	check := cfg
	check.Platform = config.PlatformPaper
	if _, err := check.ToConfig(); err != nil {
		return errors.Wrap(err, "generated configuration is invalid")
	}

	data, err := yaml.Marshal([]config.ConfigTmp{cfg})
	if err != nil {
		return errors.Wrap(err, "failed to generate yaml")
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to save config file")
	}

	return nil
}

func splitMargins(s string) []string {
	var margins []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			margins = append(margins, part)
		}
	}
	return margins
}

func validateCurrency(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("currency is required")
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return errors.New("must contain letters and digits only")
		}
	}
	return nil
}

func validateDuration(s string) error {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return errors.New("must be a duration like 30s or 1m")
	}
	if d <= 0 {
		return errors.New("must be positive")
	}
	return nil
}

func validateDecimal(s string) error {
	if _, err := decimal.NewFromString(strings.TrimSpace(s)); err != nil {
		return errors.New("must be a valid number")
	}
	return nil
}

func validateMargins(s string) error {
	margins := splitMargins(s)
	if len(margins) == 0 {
		return errors.New("at least one margin is required")
	}
	for _, m := range margins {
		if err := validateDecimal(m); err != nil {
			return errors.Errorf("margin %q: %v", m, err)
		}
	}
	return nil
}
