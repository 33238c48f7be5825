package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"onre/config"
	"onre/core/events"
	"onre/core/state"
	"onre/gateway"
	"onre/native/governance"
	"onre/native/redemption"
	"onre/native/token"
	"onre/native/vault"
	"onre/observability/logging"
	"onre/storage"
)

const envKey = "ONRE_ENV"

func main() {
	configFile := flag.String("config", "./onred.toml", "Path to the configuration file")
	genesisFlag := flag.String("genesis", "", "Path to a genesis YAML file (overrides config GenesisFile)")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv(envKey))

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger := logging.Setup("onred", env, logging.Options{
		File:      cfg.LogFile,
		MaxSizeMB: cfg.LogFileMaxSizeMB,
	})

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		panic(fmt.Sprintf("Failed to prepare data directory: %v", err))
	}
	db, err := storage.OpenBolt(filepath.Join(cfg.DataDir, "state.db"), nil)
	if err != nil {
		panic(fmt.Sprintf("Failed to open database: %v", err))
	}
	defer db.Close()

	manager := state.NewManager(db)
	book := token.NewBook(manager)

	gov := governance.NewEngine()
	gov.SetState(manager)
	gov.SetMintConfigurer(book)

	genesisPath := strings.TrimSpace(*genesisFlag)
	if genesisPath == "" {
		genesisPath = strings.TrimSpace(cfg.GenesisFile)
	}
	accounts, err := bootstrap(manager, gov, book, genesisPath, logger)
	if err != nil {
		logger.Error("Failed to bootstrap venue state", slog.Any("error", err))
		os.Exit(1)
	}

	halts := governance.HaltView{Engine: gov}
	emitter := events.LogEmitter{Logger: logger}
	gov.SetEmitter(emitter)

	vaultEngine := vault.NewEngine()
	vaultEngine.SetState(manager)
	vaultEngine.SetLedger(book)
	vaultEngine.SetAuthority(gov)
	vaultEngine.SetHaltView(halts)
	vaultEngine.SetEmitter(emitter)
	vaultEngine.SetAccounts(accounts.Authority, accounts.Vault, accounts.Intermediary)

	redemptionEngine := redemption.NewEngine()
	redemptionEngine.SetState(manager)
	redemptionEngine.SetLedger(book)
	redemptionEngine.SetAuthority(gov)
	redemptionEngine.SetHaltView(halts)
	redemptionEngine.SetEmitter(emitter)
	redemptionEngine.SetAccounts(accounts.Authority, accounts.Vault, accounts.RedemptionEscrow)

	auth := gateway.NewAuthenticator(cfg.JWTSecret, cfg.JWTIssuer)
	server := gateway.NewServer(vaultEngine, redemptionEngine, gov, book, logger)

	api := &http.Server{
		Addr:         cfg.ListenAddress,
		Handler:      server.Router(auth),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metrics := &http.Server{Addr: cfg.MetricsAddress, Handler: metricsMux}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("API listening", "addr", cfg.ListenAddress, "network", cfg.NetworkName)
		if err := api.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		logger.Info("Metrics listening", "addr", cfg.MetricsAddress)
		if err := metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		logger.Info("Shutting down", "signal", sig.String())
	case err := <-errCh:
		logger.Error("Server failed", slog.Any("error", err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := api.Shutdown(ctx); err != nil {
		logger.Error("API shutdown failed", slog.Any("error", err))
	}
	if err := metrics.Shutdown(ctx); err != nil {
		logger.Error("Metrics shutdown failed", slog.Any("error", err))
	}
}

// bootstrap applies the genesis document on first boot and returns the
// venue-owned settlement accounts. On restarts the stored governance record
// is authoritative and the genesis file only supplies the account names.
func bootstrap(manager *state.Manager, gov *governance.Engine, book *token.Book, genesisPath string, logger *slog.Logger) (config.GenesisAccounts, error) {
	if genesisPath == "" {
		return config.GenesisAccounts{}, errors.New("a genesis file is required")
	}
	genesis, err := config.LoadGenesis(genesisPath)
	if err != nil {
		return config.GenesisAccounts{}, err
	}

	if _, ok, err := manager.GovernanceGet(); err != nil {
		return config.GenesisAccounts{}, err
	} else if ok {
		return genesis.Accounts, nil
	}

	logger.Info("Applying genesis", "path", genesisPath, "mints", len(genesis.Mints))
	for _, mint := range genesis.Mints {
		err := book.Register(&token.Mint{
			Symbol:    mint.Symbol,
			Decimals:  mint.Decimals,
			Authority: mint.Authority,
			MaxSupply: mint.MaxSupply,
		})
		if err != nil {
			return config.GenesisAccounts{}, fmt.Errorf("register mint %s: %w", mint.Symbol, err)
		}
	}
	for _, balance := range genesis.Balances {
		if err := book.Mint(balance.Account, balance.Mint, balance.Amount); err != nil {
			return config.GenesisAccounts{}, fmt.Errorf("seed balance %s/%s: %w", balance.Account, balance.Mint, err)
		}
	}
	seed := &governance.State{
		Boss:            genesis.Governance.Boss,
		Admins:          genesis.Governance.Admins,
		Approvers:       genesis.Governance.Approvers,
		RedemptionAdmin: genesis.Governance.RedemptionAdmin,
	}
	if err := gov.Bootstrap(seed); err != nil {
		return config.GenesisAccounts{}, err
	}
	return genesis.Accounts, nil
}
