package main

import (
	"flag"
	"os"

	"bondvest/config"
	"bondvest/core/state"
	"bondvest/native/bond"
	"bondvest/native/claimnft"
	"bondvest/native/token"
	"bondvest/observability"
	"bondvest/observability/logging"
	"bondvest/rpc"
	"bondvest/storage"
)

func main() {
	configPath := flag.String("config", "./bondd.toml", "path to the bondd configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Setup("bondd", "").Error("failed to load config", "path", *configPath, "error", err)
		os.Exit(1)
	}
	logger := logging.Setup("bondd", cfg.Environment)

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		logger.Error("failed to open database", "dir", cfg.DataDir, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	manager := state.NewManager(db)
	for _, entry := range cfg.Venues {
		addr, err := entry.VenueAddress()
		if err != nil {
			logger.Error("invalid venue address", "venue", entry.Address, "error", err)
			os.Exit(1)
		}
		venue := &bond.Venue{Address: addr, Asset0: entry.Asset0, Asset1: entry.Asset1}
		if err := manager.VenuePut(venue); err != nil {
			logger.Error("failed to register venue", "venue", entry.Address, "error", err)
			os.Exit(1)
		}
		logger.Info("registered venue", "venue", entry.Address, "asset0", entry.Asset0, "asset1", entry.Asset1)
	}

	vaultAddr, err := cfg.Vault()
	if err != nil {
		logger.Error("invalid vault address", "error", err)
		os.Exit(1)
	}
	ledger := token.NewLedger(manager)
	vault := token.NewVault(ledger, vaultAddr)
	claims := claimnft.NewRegistry(manager)
	claims.SetEventSink(manager.AppendEvent)

	engine := bond.NewEngine()
	engine.SetState(manager)
	engine.SetToken(vault)
	engine.SetClaims(claims)
	engine.SetEmitter(observability.NewBondEmitter(logger, manager.AppendEvent))

	server := rpc.NewServer(engine, manager, claims)
	logger.Info("starting bondd", "listen", cfg.ListenAddress, "venues", len(cfg.Venues))
	if err := server.Start(cfg.ListenAddress); err != nil {
		logger.Error("rpc server exited", "error", err)
		os.Exit(1)
	}
}
