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
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"synthmint/config"
	"synthmint/core/events"
	"synthmint/native/oracle"
	"synthmint/native/synth"
	"synthmint/native/token"
	"synthmint/observability/logging"
	"synthmint/observability/metrics"
	"synthmint/rpc"
	"synthmint/storage"
)

// custodyAddress holds deposited collateral and acts as the stable unit
// authority. It is a well-known address with no key behind it.
var custodyAddress = common.BytesToAddress([]byte("synthmint/custody"))

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	inMemory := flag.Bool("memdb", false, "DEV ONLY: run on an in-memory database")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("SYNTH_ENV"))
	logger := logging.Setup("synthd", env)

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	var db storage.Database
	if *inMemory {
		db = storage.NewMemDB()
	} else {
		ldb, err := storage.NewLevelDB(cfg.DataDir)
		if err != nil {
			panic(fmt.Sprintf("Failed to open database: %v", err))
		}
		db = ldb
	}
	defer db.Close()
	store := storage.NewStateStore(db)

	feed := oracle.NewManualFeed()
	now := time.Now()
	ledgers := make([]*token.Ledger, 0, len(cfg.Collateral))
	assets := make([]synth.CollateralAsset, 0, len(cfg.Collateral))
	for _, entry := range cfg.Collateral {
		if err := feed.SetDecimal(entry.FeedID, entry.GenesisPrice, now); err != nil {
			panic(fmt.Sprintf("Failed to seed price feed %s: %v", entry.FeedID, err))
		}
		ledger := token.NewLedger(entry.Symbol, 18)
		if err := store.LoadLedger(ledger); err != nil {
			panic(fmt.Sprintf("Failed to load %s ledger: %v", entry.Symbol, err))
		}
		ledgers = append(ledgers, ledger)
		assets = append(assets, synth.CollateralAsset{
			Asset:  synth.Asset{Symbol: entry.Symbol, FeedID: entry.FeedID},
			Ledger: ledger,
		})
	}

	stable := token.NewStableUnit(cfg.StableSymbol, custodyAddress)
	if err := store.LoadLedger(&stable.Ledger); err != nil {
		panic(fmt.Sprintf("Failed to load %s ledger: %v", cfg.StableSymbol, err))
	}

	gate := oracle.NewGate(feed, time.Duration(cfg.OracleMaxQuoteAgeSeconds)*time.Second)

	params := synth.DefaultParams()
	params.LiquidationThreshold = cfg.LiquidationThresholdPercent
	params.LiquidationBonus = cfg.LiquidationBonusPercent

	engine, err := synth.NewEngine(custodyAddress, stable, synth.NewValuation(gate), params, assets)
	if err != nil {
		panic(fmt.Sprintf("Failed to construct engine: %v", err))
	}
	engine.SetState(store)
	engine.SetEmitter(&logEmitter{logger: logger})

	server := rpc.NewServer(engine, logger)
	server.SetMetrics(metrics.Synth())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rpcSrv := &http.Server{Addr: cfg.RPCAddress, Handler: server.Handler()}
	go func() {
		logger.Info("rpc server listening", slog.String("address", cfg.RPCAddress))
		if err := rpcSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("rpc server failed", slog.Any("error", err))
			stop()
		}
	}()

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{Addr: cfg.MetricsAddress, Handler: metricsMux}
	go func() {
		logger.Info("metrics server listening", slog.String("address", cfg.MetricsAddress))
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", slog.Any("error", err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := rpcSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("rpc shutdown failed", slog.Any("error", err))
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics shutdown failed", slog.Any("error", err))
	}

	for _, ledger := range ledgers {
		if err := store.SaveLedger(ledger); err != nil {
			logger.Error("failed to persist ledger", slog.String("symbol", ledger.Symbol()), slog.Any("error", err))
		}
	}
	if err := store.SaveLedger(&stable.Ledger); err != nil {
		logger.Error("failed to persist ledger", slog.String("symbol", stable.Symbol()), slog.Any("error", err))
	}
}

// logEmitter writes every engine event to the structured log.
type logEmitter struct {
	logger *slog.Logger
}

func (l *logEmitter) Emit(evt events.Event) {
	l.logger.Info("engine event", slog.String("type", evt.EventType()), slog.Any("event", evt))
}
