package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"order-matcher/internal/config"
	"order-matcher/internal/engine"
	"order-matcher/internal/engine/feeprovider"
	"order-matcher/internal/listener"
	"order-matcher/internal/scenario"
	"order-matcher/pkg/utils"
)

const depthLevels = 10

func main() {
	configPath := flag.String("config", "", "path to the yaml configuration file")
	scenarioPath := flag.String("scenario", "", "path to the yaml order flow to replay")
	journalPath := flag.String("journal", "", "write binary event frames to this file (overrides config)")
	flag.Parse()

	if err := run(*configPath, *scenarioPath, *journalPath); err != nil {
		utils.LogError(err)
		os.Exit(1)
	}
}

func run(configPath, scenarioPath, journalPath string) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if journalPath != "" {
		cfg.Journal.Path = journalPath
	}
	if err := utils.Configure(cfg.Logging); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	if scenarioPath == "" {
		return errors.New("no scenario given, use -scenario")
	}

	flow, err := scenario.Load(scenarioPath)
	if err != nil {
		return err
	}

	listeners := listener.Multi{listener.NewLogListener(utils.Logger)}
	var journal *listener.Journal
	if cfg.Journal.Path != "" {
		f, err := os.Create(cfg.Journal.Path)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer f.Close()
		journal = listener.NewJournal(f)
		listeners = append(listeners, journal)
	}

	matchingEngine := engine.NewMatchingEngine(listeners, newFeeProvider(cfg.Fees), cfg.Engine.StepSize, cfg.Engine.PricePrecision)
	utils.Logger.WithFields(logrus.Fields{
		"step_size":       cfg.Engine.StepSize.String(),
		"price_precision": cfg.Engine.PricePrecision,
		"steps":           len(flow.Steps),
	}).Info("Replaying order flow")

	_, err = scenario.Run(matchingEngine, flow.Steps, func(o scenario.Outcome) {
		if o.Action == scenario.ActionExpire {
			utils.Logger.WithFields(logrus.Fields{
				"timestamp": o.Timestamp,
				"expired":   o.Expired,
			}).Info("Expired orders cancelled")
			return
		}
		utils.LogOrderResult(uint64(o.OrderID), o.Result.String())
		if journal != nil {
			journal.RecordResult(o.OrderID, o.Result, o.Timestamp)
		}
	})
	if err != nil {
		return err
	}
	if journal != nil && journal.Err() != nil {
		return journal.Err()
	}

	printDepth(matchingEngine)
	return nil
}

func newFeeProvider(cfg config.Fees) *feeprovider.Static {
	tiers := make(map[int16]feeprovider.Fee, len(cfg.Tiers))
	for id, rates := range cfg.Tiers {
		tiers[id] = feeprovider.Fee{MakerFee: rates.Maker, TakerFee: rates.Taker}
	}
	return feeprovider.NewStatic(feeprovider.Fee{MakerFee: cfg.Default.Maker, TakerFee: cfg.Default.Taker}, tiers)
}

func printDepth(e *engine.MatchingEngine) {
	fmt.Printf("market price: %s\n", e.MarketPrice())
	for _, kind := range []engine.SideKind{engine.AskSide, engine.BidSide} {
		fmt.Printf("%s:\n", kind)
		for _, level := range e.Depth(kind, depthLevels) {
			fmt.Printf("  %s x %s (%d orders)\n", level.Price, level.Quantity, level.Orders)
		}
	}
}
