package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/glowsphere/glowsphere/cli/options"
	"github.com/glowsphere/glowsphere/pkg/config"
	"github.com/glowsphere/glowsphere/pkg/core"
	"github.com/glowsphere/glowsphere/pkg/core/block"
	"github.com/glowsphere/glowsphere/pkg/core/chaindump"
	"github.com/glowsphere/glowsphere/pkg/core/producer"
	"github.com/glowsphere/glowsphere/pkg/core/storage"
	"github.com/glowsphere/glowsphere/pkg/io"
	"github.com/glowsphere/glowsphere/pkg/services/metrics"
	"github.com/glowsphere/glowsphere/pkg/services/rpcsrv"
	"github.com/urfave/cli"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewCommands returns 'node' and 'db' commands.
func NewCommands() []cli.Command {
	cfgFlags := []cli.Flag{options.Config, options.ConfigFile, options.RelativePath}
	cfgWithCountFlags := make([]cli.Flag, len(cfgFlags))
	copy(cfgWithCountFlags, cfgFlags)
	cfgFlags = append(cfgFlags, options.Debug)

	cfgWithCountFlags = append(cfgWithCountFlags,
		cli.UintFlag{
			Name:  "count, c",
			Usage: "number of blocks to be processed (default or 0: all chain)",
		},
	)
	var cfgCountOutFlags = make([]cli.Flag, len(cfgWithCountFlags))
	copy(cfgCountOutFlags, cfgWithCountFlags)
	cfgCountOutFlags = append(cfgCountOutFlags,
		cli.UintFlag{
			Name:  "start, s",
			Usage: "block number to start from (default: 0)",
		},
		cli.StringFlag{
			Name:  "out, o",
			Usage: "Output file (stdout if not given)",
		},
	)
	var cfgCountInFlags = make([]cli.Flag, len(cfgWithCountFlags))
	copy(cfgCountInFlags, cfgWithCountFlags)
	cfgCountInFlags = append(cfgCountInFlags,
		cli.StringFlag{
			Name:  "in, i",
			Usage: "Input file (stdin if not given)",
		},
		cli.UintFlag{
			Name:  "skip",
			Usage: "number of blocks of the dump to skip",
		},
	)
	return []cli.Command{
		{
			Name:      "node",
			Usage:     "start a GlowSphere node",
			UsageText: "glowsphere node [--config-path path] [-d] [--config-file file]",
			Action:    startServer,
			Flags:     cfgFlags,
		},
		{
			Name:  "db",
			Usage: "database manipulations",
			Subcommands: []cli.Command{
				{
					Name:      "dump",
					Usage:     "dump blocks (genesis included) to the file",
					UsageText: "glowsphere db dump [-o file] [-s start] [-c count] [--config-path path] [--config-file file]",
					Action:    dumpDB,
					Flags:     cfgCountOutFlags,
				},
				{
					Name:      "restore",
					Usage:     "restore blocks from the file",
					UsageText: "glowsphere db restore [-i file] [--skip] [-c count] [--config-path path] [--config-file file]",
					Action:    restoreDB,
					Flags:     cfgCountInFlags,
				},
			},
		},
	}
}

func newGraceContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stop
		cancel()
	}()
	return ctx
}

func initBCWithMetrics(cfg config.Config, log *zap.Logger) (*core.Blockchain, *metrics.Service, *metrics.Service, error) {
	chain, err := initBlockChain(cfg, log)
	if err != nil {
		return nil, nil, nil, cli.NewExitError(err, 1)
	}
	prometheus := metrics.NewPrometheusService(cfg.ApplicationConfiguration.Prometheus, log)
	pprof := metrics.NewPprofService(cfg.ApplicationConfiguration.Pprof, log)

	chain.Run()
	err = prometheus.Start()
	if err != nil {
		chain.Close()
		return nil, nil, nil, cli.NewExitError(fmt.Errorf("failed to start Prometheus service: %w", err), 1)
	}
	err = pprof.Start()
	if err != nil {
		prometheus.ShutDown()
		chain.Close()
		return nil, nil, nil, cli.NewExitError(fmt.Errorf("failed to start Pprof service: %w", err), 1)
	}

	return chain, prometheus, pprof, nil
}

// initBlockChain initializes BlockChain with preselected DB.
func initBlockChain(cfg config.Config, log *zap.Logger) (*core.Blockchain, error) {
	store, err := storage.NewStore(cfg.ApplicationConfiguration.DBConfiguration)
	if err != nil {
		return nil, cli.NewExitError(fmt.Errorf("could not initialize storage: %w", err), 1)
	}

	chain, err := core.NewBlockchain(store, cfg.ProtocolConfiguration, log)
	if err != nil {
		errText := "could not initialize blockchain: %w"
		errArgs := []any{err}
		closeErr := store.Close()
		if closeErr != nil {
			errText += "; failed to close the DB: %w"
			errArgs = append(errArgs, closeErr)
		}
		return nil, cli.NewExitError(fmt.Errorf(errText, errArgs...), 1)
	}
	return chain, nil
}

func dumpDB(ctx *cli.Context) error {
	if len(ctx.Args()) != 0 {
		return cli.NewExitError(fmt.Errorf("unexpected arguments: %v", ctx.Args()), 1)
	}
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	log, _, err := options.HandleLoggingParams(false, cfg.ApplicationConfiguration)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer func() { _ = log.Sync() }()

	count := uint32(ctx.Uint("count"))
	start := uint32(ctx.Uint("start"))

	var outStream = os.Stdout
	if out := ctx.String("out"); out != "" {
		outStream, err = os.Create(out)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
	}
	defer outStream.Close()
	writer := io.NewBinWriterFromIO(outStream)

	chain, err := initBlockChain(cfg, log)
	if err != nil {
		return err
	}
	defer chain.Close()

	chainCount := chain.BlockHeight() + 1
	if start >= chainCount {
		return cli.NewExitError(fmt.Errorf("chain is not that high (%d) to dump from %d", chainCount-1, start), 1)
	}
	if count == 0 || start+count > chainCount {
		count = chainCount - start
	}
	writer.WriteU32LE(start)
	writer.WriteU32LE(count)
	err = chaindump.Dump(chain, writer, start, count)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	return nil
}

func restoreDB(ctx *cli.Context) error {
	if len(ctx.Args()) != 0 {
		return cli.NewExitError(fmt.Errorf("unexpected arguments: %v", ctx.Args()), 1)
	}
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	log, _, err := options.HandleLoggingParams(false, cfg.ApplicationConfiguration)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer func() { _ = log.Sync() }()

	count := uint32(ctx.Uint("count"))
	skip := uint32(ctx.Uint("skip"))

	var inStream = os.Stdin
	if in := ctx.String("in"); in != "" {
		inStream, err = os.Open(in)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
	}
	defer inStream.Close()
	reader := io.NewBinReaderFromIO(inStream)

	chain, err := initBlockChain(cfg, log)
	if err != nil {
		return err
	}
	defer chain.Close()

	start := reader.ReadU32LE()
	allBlocks := reader.ReadU32LE()
	if reader.Err != nil {
		return cli.NewExitError(reader.Err, 1)
	}
	if skip+count > allBlocks || skip+count < skip {
		return cli.NewExitError(fmt.Errorf("input file has only %d blocks, can't read %d starting from %d", allBlocks, count, skip), 1)
	}
	if count == 0 {
		count = allBlocks - skip
	}
	log.Info("restoring blocks", zap.Uint32("dump start", start), zap.Uint32("skip", skip), zap.Uint32("count", count))

	var lastIndex uint32
	err = chaindump.Restore(chain, reader, skip, count, func(b *block.Block) error {
		lastIndex = b.Index
		return nil
	})
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	log.Info("blocks restored", zap.Uint32("last index", lastIndex), zap.Uint32("height", chain.BlockHeight()))
	return nil
}

func startServer(ctx *cli.Context) error {
	if len(ctx.Args()) != 0 {
		return cli.NewExitError(fmt.Errorf("unexpected arguments: %v", ctx.Args()), 1)
	}

	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	var logDebug = ctx.Bool("debug")
	log, logLevel, err := options.HandleLoggingParams(logDebug, cfg.ApplicationConfiguration)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer func() { _ = log.Sync() }()

	grace, cancel := context.WithCancel(newGraceContext())
	defer cancel()

	chain, prometheus, pprof, err := initBCWithMetrics(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		pprof.ShutDown()
		prometheus.ShutDown()
		chain.Close()
	}()

	errChan := make(chan error, 2)
	prod := producer.New(chain, cfg.ProtocolConfiguration, log)
	rpcServer := rpcsrv.New(chain, cfg.ApplicationConfiguration.RPC, cfg.GenerateUserAgent(), log, errChan)

	prod.Start()
	rpcServer.Start()
	log.Info("node started",
		zap.String("user agent", cfg.GenerateUserAgent()),
		zap.Uint32("height", chain.BlockHeight()),
		zap.Strings("rpc", rpcServer.Addresses()))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP)

	var shutdownErr error
Main:
	for {
		select {
		case err := <-errChan:
			shutdownErr = fmt.Errorf("server error: %w", err)
			cancel()
		case sig := <-sigCh:
			log.Info("signal received", zap.Stringer("name", sig))
			cfgnew, err := options.GetConfigFromContext(ctx)
			if err != nil {
				log.Warn("can't reread the config file, signal ignored", zap.Error(err))
				break // Continue working.
			}
			if !cfg.ApplicationConfiguration.EqualsButServices(&cfgnew.ApplicationConfiguration) {
				log.Warn("ApplicationConfiguration changed in incompatible way, signal ignored")
				break // Continue working.
			}
			if !logDebug && cfgnew.ApplicationConfiguration.LogLevel != cfg.ApplicationConfiguration.LogLevel {
				newLevel, err := zapcore.ParseLevel(cfgnew.ApplicationConfiguration.LogLevel)
				if err != nil {
					log.Warn("wrong LogLevel in ApplicationConfiguration, ignoring", zap.Error(err))
				} else {
					log.Warn("using new logging level", zap.Stringer("level", newLevel))
					logLevel.SetLevel(newLevel)
				}
			}
			cfg.ApplicationConfiguration.LogLevel = cfgnew.ApplicationConfiguration.LogLevel
		case <-grace.Done():
			signal.Stop(sigCh)
			break Main
		}
	}

	rpcServer.Shutdown()
	prod.Shutdown()

	if shutdownErr != nil {
		return cli.NewExitError(shutdownErr, 1)
	}
	return nil
}
