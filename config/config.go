package config

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	DefaultListenAddr = ":8787"
	DefaultExchange   = "binance"
	DefaultSymbol     = "BTC/USDT"
	DefaultBookDepth  = 20
)

type Config struct {
	ListenAddr      string
	DefaultExchange string
	DefaultSymbol   string
	BookDepth       int
	SeedBalance     decimal.Decimal
	StateDir        string
	TLSDomains      []string
	CertCacheDir    string
}

type ConfigTmp struct {
	ListenAddr      string `yaml:"listen_addr"`
	DefaultExchange string `yaml:"default_exchange"`
	DefaultSymbol   string `yaml:"default_symbol"`
	BookDepth       int    `yaml:"book_depth"`
	SeedBalance     string `yaml:"seed_balance"`
	StateDir        string `yaml:"state_dir"`
	TLSDomains      string `yaml:"tls_domains"`
	CertCacheDir    string `yaml:"cert_cache_dir"`
}

// Get loads configuration from the yaml file named by --config, falling back
// to plain CLI flags when no file is given.
func Get() (Config, error) {
	configPath := flag.String("config", "", "path to yaml config")
	addr := flag.String("addr", DefaultListenAddr, "http listen address")
	exchange := flag.String("exchange", DefaultExchange, "default exchange")
	symbol := flag.String("symbol", DefaultSymbol, "default symbol, example: BTC/USDT")
	depth := flag.Int("depth", DefaultBookDepth, "default order book depth")
	seed := flag.String("seed", "100000", "starting paper balance in quote currency")
	stateDir := flag.String("statedir", "", "directory for persisted session state (empty disables persistence)")
	flag.Parse()

	if *configPath != "" {
		return getYaml(*configPath)
	}

	seedBalance, err := decimal.NewFromString(*seed)
	if err != nil || !seedBalance.IsPositive() {
		return Config{}, fmt.Errorf("invalid --seed provided, --seed=%s", *seed)
	}
	if *depth <= 0 {
		return Config{}, fmt.Errorf("invalid --depth provided, --depth=%d", *depth)
	}
	if !strings.Contains(*symbol, "/") {
		return Config{}, fmt.Errorf("invalid --symbol provided, --symbol=%s", *symbol)
	}

	return Config{
		ListenAddr:      *addr,
		DefaultExchange: *exchange,
		DefaultSymbol:   *symbol,
		BookDepth:       *depth,
		SeedBalance:     seedBalance,
		StateDir:        *stateDir,
	}, nil
}

func getYaml(path string) (Config, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var tmp ConfigTmp
	if err := yaml.Unmarshal(f, &tmp); err != nil {
		return Config{}, err
	}

	cfg := Config{
		ListenAddr:      tmp.ListenAddr,
		DefaultExchange: tmp.DefaultExchange,
		DefaultSymbol:   tmp.DefaultSymbol,
		BookDepth:       tmp.BookDepth,
		StateDir:        tmp.StateDir,
		CertCacheDir:    tmp.CertCacheDir,
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}
	if cfg.DefaultExchange == "" {
		cfg.DefaultExchange = DefaultExchange
	}
	if cfg.DefaultSymbol == "" {
		cfg.DefaultSymbol = DefaultSymbol
	}
	if !strings.Contains(cfg.DefaultSymbol, "/") {
		return Config{}, fmt.Errorf("incorrect 'default_symbol' param in yaml config: %s", cfg.DefaultSymbol)
	}
	if cfg.BookDepth == 0 {
		cfg.BookDepth = DefaultBookDepth
	}
	if cfg.BookDepth < 0 {
		return Config{}, fmt.Errorf("incorrect 'book_depth' param in yaml config: %d", cfg.BookDepth)
	}

	if tmp.SeedBalance == "" {
		cfg.SeedBalance = decimal.NewFromInt(100000)
	} else {
		cfg.SeedBalance, err = decimal.NewFromString(tmp.SeedBalance)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'seed_balance' param in yaml config (must be a decimal), error: %w", err)
		}
		if !cfg.SeedBalance.IsPositive() {
			return Config{}, fmt.Errorf("incorrect 'seed_balance' param in yaml config: %s", tmp.SeedBalance)
		}
	}

	if tmp.TLSDomains != "" {
		for _, d := range strings.Split(tmp.TLSDomains, ",") {
			d = strings.TrimSpace(d)
			if d != "" {
				cfg.TLSDomains = append(cfg.TLSDomains, d)
			}
		}
	}

	return cfg, nil
}
