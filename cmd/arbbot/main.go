// ============================================================================
// cmd/arbbot/main.go - Arbitrage Bot Entrypoint
// ============================================================================
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/arbbot/internal/chain"
	"github.com/aman-zulfiqar/arbbot/internal/config"
	"github.com/aman-zulfiqar/arbbot/internal/errs"
	"github.com/aman-zulfiqar/arbbot/internal/orchestrator"
)

// Exit codes per spec.md §6.
const (
	exitOK            = 0
	exitConfigError   = 1
	exitStreamError   = 2
	exitSubmissionErr = 3
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	if len(args) == 0 {
		logger.Error("usage: arbbot <run|simulate <mint>|dump-pool <addr>>")
		return exitConfigError
	}

	cfg, loadErr := loadConfig()
	if loadErr != nil {
		logger.WithError(loadErr).Error("failed to load configuration")
		return exitConfigError
	}

	orch, err := orchestrator.New(cfg, logger)
	if err != nil {
		logger.WithError(err).Error("failed to construct orchestrator")
		return exitConfigError
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	switch args[0] {
	case "run":
		logger.WithField("wallet", orch.Wallet().Address()).Info("starting arbitrage bot")
		if err := orch.Run(ctx); err != nil && ctx.Err() == nil {
			logger.WithError(err).Error("orchestrator exited with error")
			return classifyExit(err)
		}
		return exitOK

	case "simulate":
		if len(args) < 2 {
			logger.Error("usage: arbbot simulate <mint>")
			return exitConfigError
		}
		mint, err := parseAddr(args[1])
		if err != nil {
			logger.WithError(err).Error("invalid mint address")
			return exitConfigError
		}
		if err := orch.Simulate(ctx, mint); err != nil {
			if errs.Is(err, errs.KindNoOpportunity) {
				fmt.Println("no opportunity found")
				return exitOK
			}
			logger.WithError(err).Error("simulate failed")
			return classifyExit(err)
		}
		return exitOK

	case "dump-pool":
		if len(args) < 2 {
			logger.Error("usage: arbbot dump-pool <addr>")
			return exitConfigError
		}
		addr, err := parseAddr(args[1])
		if err != nil {
			logger.WithError(err).Error("invalid pool address")
			return exitConfigError
		}
		poolCfg, err := orch.DumpPool(ctx, addr)
		if err != nil {
			logger.WithError(err).Error("dump-pool failed")
			return classifyExit(err)
		}
		fmt.Printf("%+v\n", poolCfg)
		return exitOK

	default:
		logger.WithField("command", args[0]).Error("unknown subcommand")
		return exitConfigError
	}
}

func classifyExit(err error) int {
	switch {
	case errs.Is(err, errs.KindStream):
		return exitStreamError
	case errs.Is(err, errs.KindSubmission):
		return exitSubmissionErr
	default:
		return exitConfigError
	}
}

func parseAddr(s string) (chain.Addr, error) {
	return solana.PublicKeyFromBase58(s)
}

// loadConfig recovers config.Load's panic-on-missing-var behavior into an
// error, so main can report exitConfigError instead of crashing.
func loadConfig() (cfg *config.Config, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	cfg = config.Load()
	return cfg, nil
}
