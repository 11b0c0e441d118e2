package setup

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/okulov/paperbook/config"
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

// RunTUI launches the terminal configuration wizard and writes the result
// to config.gen.yaml.
func RunTUI() error {
	var (
		exchange string
		symbol   string
		addr     string
		depthStr string
		seedStr  string
		stateDir string
		confirm  bool
	)

	// defaults
	symbol = config.DefaultSymbol
	addr = config.DefaultListenAddr
	depthStr = strconv.Itoa(config.DefaultBookDepth)
	seedStr = "100000"
	stateDir = "data"

	fmt.Print("\033[H\033[2J") // Clear screen
	fmt.Println(headerStyle.Render("PAPERBOOK CONFIG WIZARD"))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Let's set up your paper-trading explorer.\n"))

	fmt.Println(stepStyle.Render("STEP 1: EXCHANGE"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Default Exchange").
				Options(
					huh.NewOption("Binance", "binance"),
					huh.NewOption("Bybit", "bybit"),
					huh.NewOption("Hyperliquid", "hyperliquid"),
				).
				Value(&exchange),
		),
	).Run()
	if err != nil {
		return err
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("PAPERBOOK CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 2: MARKET"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Default Symbol").
				Description("Must contain a slash (e.g. BTC/USDT)").
				Value(&symbol).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("symbol cannot be empty")
					}
					if !strings.Contains(s, "/") {
						return fmt.Errorf("invalid format: must be BASE/QUOTE (e.g. BTC/USDT)")
					}
					return nil
				}),
			huh.NewInput().
				Title("Order Book Depth").
				Description("Levels per side (e.g. 20)").
				Value(&depthStr).
				Validate(func(s string) error {
					d, err := strconv.Atoi(s)
					if err != nil || d <= 0 {
						return fmt.Errorf("must be a positive integer")
					}
					return nil
				}),
		),
	).Run()
	if err != nil {
		return err
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("PAPERBOOK CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 3: PAPER ACCOUNT"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Starting Balance").
				Description("Quote currency to seed the paper account (e.g. 100000)").
				Value(&seedStr).
				Validate(func(s string) error {
					d, err := decimal.NewFromString(s)
					if err != nil {
						return fmt.Errorf("must be a valid number")
					}
					if !d.IsPositive() {
						return fmt.Errorf("must be positive")
					}
					return nil
				}),
			huh.NewInput().
				Title("State Directory").
				Description("Where holdings and trade history persist (empty disables persistence)").
				Value(&stateDir),
		),
	).Run()
	if err != nil {
		return err
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("PAPERBOOK CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 4: SERVER"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Listen Address").
				Description("host:port (e.g. :8787)").
				Value(&addr),
		),
	).Run()
	if err != nil {
		return err
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("PAPERBOOK CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("FINAL CONFIRMATION"))

	summary := fmt.Sprintf(
		"Exchange: %s\nSymbol: %s\nDepth: %s\nSeed Balance: %s\nState Dir: %s\nListen: %s\n",
		exchange, symbol, depthStr, seedStr, stateDir, addr,
	)
	fmt.Println(lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1).Render(summary))

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
		return err
	}

	if !confirm {
		return fmt.Errorf("setup cancelled by user")
	}

	depth, _ := strconv.Atoi(depthStr)
	cfgTmp := config.ConfigTmp{
		ListenAddr:      addr,
		DefaultExchange: exchange,
		DefaultSymbol:   symbol,
		BookDepth:       depth,
		SeedBalance:     seedStr,
		StateDir:        stateDir,
	}

	data, err := yaml.Marshal(cfgTmp)
	if err != nil {
		return fmt.Errorf("failed to generate yaml: %w", err)
	}

	filename := "config.gen.yaml"
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to save config file: %w", err)
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render(fmt.Sprintf("\n✓ Configuration saved to %s\nStarting server...", filename)))
	time.Sleep(1500 * time.Millisecond) // small pause to read success message
	return nil
}
