package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/wfunc/noodle-rush/internal/config"
	"github.com/wfunc/noodle-rush/internal/database"
	"github.com/wfunc/noodle-rush/internal/errors"
	"github.com/wfunc/noodle-rush/internal/game"
	"github.com/wfunc/noodle-rush/internal/game/rng"
	"github.com/wfunc/noodle-rush/internal/game/social"
	"github.com/wfunc/noodle-rush/internal/game/state"
	"github.com/wfunc/noodle-rush/internal/repository"
)

type runOptions struct {
	configPath  string
	periods     int
	seed        int64
	eventChance float64
	location    string
	dbPath      string
	verbose     bool
}

func main() {
	root := &cobra.Command{
		Use:          "simulate",
		Short:        "Headless fast-forward runs of the noodle restaurant simulation",
		SilenceUsage: true,
	}

	root.AddCommand(
		newRunCmd(),
		newRanksCmd(),
		newForecastCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRunCmd() *cobra.Command {
	opts := runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Play N periods with the default strategy and print each settlement",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulation(cmd.Context(), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "config file (game and settings sections)")
	flags.IntVar(&opts.periods, "periods", 20, "number of periods to play")
	flags.Int64Var(&opts.seed, "seed", 0, "random seed, 0 uses the config seed or the clock")
	flags.Float64Var(&opts.eventChance, "event-chance", 0, "checkpoint event chance, 0 uses the config value")
	flags.StringVar(&opts.location, "location", string(social.Home), "where to spend personal time each period")
	flags.StringVar(&opts.dbPath, "db", "", "sqlite file to store saves and run history (memory when empty)")
	flags.BoolVar(&opts.verbose, "verbose", false, "print component logs")
	return cmd
}

func newRanksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ranks",
		Short: "Print the rank table tiers",
		RunE: func(cmd *cobra.Command, args []string) error {
			printRanks()
			return nil
		},
	}
}

func newForecastCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forecast",
		Short: "Print the new-game restaurant forecast",
		RunE: func(cmd *cobra.Command, args []string) error {
			printForecast(state.NewDocument(state.DefaultNewGameOptions()))
			return nil
		},
	}
}

// simulation 一次命令行模拟所需的组件
type simulation struct {
	service *game.GameService
	cleanup func()
}

func newSimulation(ctx context.Context, opts runOptions) (*simulation, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad)
	}

	log := zap.NewNop()
	if opts.verbose {
		if log, err = zap.NewDevelopment(); err != nil {
			return nil, err
		}
	}

	seed := opts.seed
	if seed == 0 {
		seed = cfg.Game.Seed
	}
	eventChance := opts.eventChance
	if eventChance == 0 {
		eventChance = cfg.Game.EventChance
	}

	newGame := func() *state.Document {
		return state.NewDocument(state.NewGameOptions{
			StartingFunds:         cfg.Game.StartingFunds,
			InvestorClashInterval: cfg.Game.InvestorClashInterval,
		})
	}

	svcCfg := &game.GameServiceConfig{
		Random:        rng.NewSeededRandomGenerator(seed),
		EventChance:   eventChance,
		ClashInterval: cfg.Game.InvestorClashInterval,
		InterestRate:  cfg.Game.LoanInterestRate,
		LoanLimit:     cfg.Game.LoanLimit,
		Logger:        log,
	}
	cleanup := func() {}

	if opts.dbPath == "" {
		mem := state.NewMemoryPersistence()
		svcCfg.Store = state.NewStore(state.WithPersistence(mem), state.WithNewGame(newGame), state.WithLogger(log))
		svcCfg.Persistence = mem
		svcCfg.Settings = mem
	} else {
		db, err := gorm.Open(sqlite.Open(opts.dbPath), &gorm.Config{
			Logger: database.NewGormLogger(log, gormlogger.Warn),
		})
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrDatabaseConnect)
		}
		if err := database.Migrate(db); err != nil {
			return nil, errors.Wrap(err, errors.ErrDatabaseConnect, "数据库迁移失败")
		}

		repos := repository.NewManager(db)
		persistence := game.NewBlobPersistence(repos.SaveSlot(), state.DefaultSettings(), log)
		svcCfg.Store = state.NewStore(state.WithPersistence(persistence), state.WithNewGame(newGame), state.WithLogger(log))
		svcCfg.Persistence = persistence
		svcCfg.Settings = persistence
		svcCfg.Recorder = game.NewRunRecorder(repos.DeliveryRun())
		svcCfg.Runs = repos.DeliveryRun()
		cleanup = func() {
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close()
			}
		}
	}

	service := game.NewGameService(svcCfg)
	source := service.Recover(ctx)
	printInfo("state: %s (seed %d, event chance %.2f)", source, seed, eventChance)

	return &simulation{
		service: service,
		cleanup: func() {
			service.Close()
			cleanup()
		},
	}, nil
}

func runSimulation(ctx context.Context, opts runOptions) error {
	location := social.Location(opts.location)
	if !location.IsValid() {
		return errors.Newf(errors.ErrInvalidParam, "unknown location %q", opts.location)
	}

	sim, err := newSimulation(ctx, opts)
	if err != nil {
		return err
	}
	defer sim.cleanup()
	svc := sim.service

	for i := 0; i < opts.periods; i++ {
		if svc.State(ctx).IsGameOver() {
			break
		}

		if res, err := svc.SpendPersonalTime(ctx, location); err == nil {
			printPersonalTime(res)
		} else if !errors.Is(err, errors.ErrSocialActionDone) {
			return err
		}

		report, err := svc.RunDelivery(ctx)
		switch {
		case errors.Is(err, errors.ErrGameStateError):
			// 本周期已配送（从存档继续时）
		case err != nil:
			return err
		default:
			outcome, err := svc.ReturnToHub(ctx)
			if err != nil {
				return err
			}
			printSettlement(report, outcome)
		}

		if svc.State(ctx).IsGameOver() {
			break
		}
		started, err := svc.StartPeriod(ctx)
		if err != nil {
			return err
		}
		if started.InvestorMeeting {
			printMeeting(started)
		}
	}

	printSummary(svc.Status(ctx))
	return nil
}
