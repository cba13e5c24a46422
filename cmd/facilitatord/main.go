// facilitatord hosts the Cascade settlement facilitator: it holds the
// executor key, talks to a Solana RPC endpoint, and serves the
// verify/settle HTTP surface.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/ws"
	"go.uber.org/zap"

	"github.com/cascade-protocol/splits-go/chain"
	"github.com/cascade-protocol/splits-go/facilitator"
	"github.com/cascade-protocol/splits-go/signers"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	log, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer log.Sync()

	cfg, err := facilitator.LoadConfig(*configPath)
	if err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	chainOpts := []chain.Option{
		chain.WithCommitment(rpc.CommitmentType(cfg.Commitment)),
		chain.WithPolling(cfg.PollInterval, cfg.PollRetries),
	}
	if cfg.WSURL != "" {
		wsClient, err := ws.Connect(context.Background(), cfg.WSURL)
		if err != nil {
			log.Fatal("failed to connect websocket", zap.String("url", cfg.WSURL), zap.Error(err))
		}
		chainOpts = append(chainOpts, chain.WithWebsocket(wsClient))
	}
	ledger := chain.New(cfg.RPCURL, chainOpts...)

	executor, err := signers.NewLocal(cfg.ExecutorKey, ledger)
	if err != nil {
		log.Fatal("invalid executor key", zap.Error(err))
	}

	metrics := facilitator.NewMetrics(nil)
	service, err := facilitator.NewService(ledger, executor,
		facilitator.WithLogger(log),
		facilitator.WithMetrics(metrics),
		facilitator.WithComputeUnitLimit(cfg.ComputeUnitLimit),
		facilitator.WithSettlementCache(facilitator.NewSettlementCache(cfg.SettlementTTL)),
	)
	if err != nil {
		log.Fatal("failed to build service", zap.Error(err))
	}

	router := facilitator.NewRouter(service, log, metrics)
	log.Info("facilitator listening",
		zap.String("addr", cfg.ListenAddr),
		zap.String("executor", executor.Address().String()),
	)
	if err := router.Run(cfg.ListenAddr); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
