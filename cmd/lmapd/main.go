package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"lmapd/internal/adapter/lmapio"
	"lmapd/internal/domain"
	"lmapd/internal/infra/logger"
	"lmapd/internal/infra/metrics"
	"lmapd/internal/infra/pidfile"
	"lmapd/internal/infra/settings"
	"lmapd/internal/usecase/runner"
	"lmapd/internal/usecase/workspace"
)

// StatusFileName is the state dump file below the run directory.
const StatusFileName = "status"

const reexecEnv = "LMAPD_DAEMONIZED"

func usage(out *os.File) {
	fmt.Fprintf(out, "usage: %s [-f] [-n] [-s] [-z] [-v] [-h] [-q queue] [-c config] [-r run]\n"+
		"\t-f fork into the background\n"+
		"\t-n parse config and dump config and exit\n"+
		"\t-s parse config and dump state and exit\n"+
		"\t-z zap the queue directory before starting\n"+
		"\t-q path to queue directory\n"+
		"\t-c path to config file or directory\n"+
		"\t-r path to run directory\n"+
		"\t-v show version information and exit\n"+
		"\t-h show brief usage information and exit\n",
		os.Args[0])
}

func main() {
	os.Exit(run())
}

func run() int {
	var (
		daemonize   = flag.Bool("f", false, "fork into the background")
		dumpConfig  = flag.Bool("n", false, "parse config, dump config, exit")
		dumpState   = flag.Bool("s", false, "parse config, dump state, exit")
		zapQueue    = flag.Bool("z", false, "zap the queue directory before starting")
		queuePath   = flag.String("q", "", "path to queue directory")
		configPath  = flag.String("c", "", "path to config file or directory")
		runPath     = flag.String("r", "", "path to run directory")
		showVersion = flag.Bool("v", false, "show version and exit")
	)
	flag.Usage = func() { usage(os.Stderr) }
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s version %s\n", domain.SoftwareName, domain.SoftwareVersion)
		return 0
	}

	cfgst, err := settings.Load(os.Getenv("LMAPD_SETTINGS"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", domain.SoftwareName, err)
		return 1
	}
	if *queuePath != "" {
		cfgst.QueuePath = *queuePath
	}
	if *configPath != "" {
		cfgst.ConfigPath = *configPath
	}
	if *runPath != "" {
		cfgst.RunPath = *runPath
	}

	log, closeLog, err := logger.New(cfgst.Logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", domain.SoftwareName, err)
		return 1
	}
	defer closeLog()

	cfg, err := lmapio.Load(cfgst.ConfigPath)
	if err != nil {
		log.Error("invalid configuration", "error", err)
		return 1
	}

	if *dumpConfig {
		doc, err := lmapio.RenderConfigXML(cfg)
		if err != nil {
			log.Error("failed to render configuration", "error", err)
			return 1
		}
		fmt.Print(doc)
		return 0
	}
	if *dumpState {
		doc, err := lmapio.RenderStateXML(cfg)
		if err != nil {
			log.Error("failed to render state", "error", err)
			return 1
		}
		fmt.Print(doc)
		return 0
	}

	if *daemonize && os.Getenv(reexecEnv) == "" {
		if err := detach(); err != nil {
			log.Error("failed to daemonize", "error", err)
			return 1
		}
		return 0
	}

	if err := pidfile.Write(cfgst.RunPath); err != nil {
		log.Error("failed to write pid file", "error", err)
		return 1
	}
	defer pidfile.Remove(cfgst.RunPath)

	ws := workspace.New(cfgst.QueuePath, log)
	if *zapQueue {
		if err := ws.CleanAll(); err != nil {
			log.Warn("failed to zap queue directory", "error", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var obs *metrics.Metrics
	if cfgst.MetricsAddr != "" {
		obs = metrics.New(log)
		obs.Serve(ctx, cfgst.MetricsAddr)
	}

	for {
		if err := ws.Init(cfg); err != nil {
			log.Error("failed to initialize workspace", "error", err)
			return 1
		}

		r := runner.New(cfg, ws, log)
		if obs != nil {
			r.SetObserver(obs)
		}
		r.SetStatusFunc(statusWriter(cfgst.RunPath))
		r.HandleSignals(ctx)

		restart := r.Run(ctx)
		if !restart {
			return 0
		}

		// Give SIGTERMed children a moment before the reload replaces
		// the configuration tree.
		time.Sleep(time.Second)

		cfg, err = lmapio.Load(cfgst.ConfigPath)
		if err != nil {
			log.Error("invalid configuration on reload", "error", err)
			return 1
		}
		log.Info("configuration reloaded")
	}
}

// statusWriter renders the state document and writes it atomically to
// <run>/status via a temporary file and rename.
func statusWriter(runPath string) runner.StatusFunc {
	return func(cfg *domain.Config) error {
		doc, err := lmapio.RenderStateXML(cfg)
		if err != nil {
			return err
		}
		path := runPath + "/" + StatusFileName
		tmp := path + ".tmp"
		if err := os.WriteFile(tmp, []byte(doc), 0o644); err != nil {
			return err
		}
		return os.Rename(tmp, path)
	}
}

// detach re-executes the daemon in its own session with the standard
// descriptors pointed at /dev/null.
func detach() error {
	null, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return err
	}
	defer null.Close()

	cmd := exec.Command(os.Args[0], os.Args[1:]...)
	cmd.Env = append(os.Environ(), reexecEnv+"=1")
	cmd.Stdin = null
	cmd.Stdout = null
	cmd.Stderr = null
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	return cmd.Start()
}

