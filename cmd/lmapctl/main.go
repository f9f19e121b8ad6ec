package main

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"lmapd/internal/adapter/lmapio"
	"lmapd/internal/domain"
	"lmapd/internal/infra/logger"
	"lmapd/internal/infra/pidfile"
	"lmapd/internal/infra/settings"
	"lmapd/internal/usecase/workspace"
)

// statusSettleDelay is how long the status command waits between
// requesting a state dump and reading the status file.
const statusSettleDelay = 87654 * time.Microsecond

type ctlOptions struct {
	queuePath  string
	configPath string
	runPath    string
	chdir      string
	jsonOut    bool
	xmlOut     bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "lmapctl: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &ctlOptions{}
	defaults := settings.Defaults()

	root := &cobra.Command{
		Use:           "lmapctl",
		Short:         "control tool for the lmapd measurement agent daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.chdir != "" {
				if err := os.Chdir(opts.chdir); err != nil {
					return fmt.Errorf("chdir %s: %w", opts.chdir, err)
				}
			}
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.queuePath, "queue", "q", defaults.QueuePath, "path to queue directory")
	pf.StringVarP(&opts.configPath, "config", "c", defaults.ConfigPath, "path to config file or directory")
	pf.StringVarP(&opts.runPath, "run", "r", defaults.RunPath, "path to run directory")
	pf.StringVarP(&opts.chdir, "chdir", "C", "", "change directory before executing the command")
	pf.BoolVarP(&opts.jsonOut, "json", "j", false, "render output in JSON")
	pf.BoolVarP(&opts.xmlOut, "xml", "x", false, "render output in XML")

	root.AddCommand(
		newCleanCmd(opts),
		newConfigCmd(opts),
		newReloadCmd(opts),
		newReportCmd(opts),
		newRunningCmd(opts),
		newShutdownCmd(opts),
		newStatusCmd(opts),
		newValidateCmd(opts),
		newVersionCmd(),
	)
	return root
}

// signalDaemon delivers sig to the daemon identified by the pid file.
func signalDaemon(opts *ctlOptions, sig syscall.Signal) error {
	pid := pidfile.ReadAlive(opts.runPath)
	if pid == 0 {
		return fmt.Errorf("%s does not seem to be running", domain.SoftwareName)
	}
	if err := syscall.Kill(pid, sig); err != nil {
		return fmt.Errorf("failed to signal pid %d: %w", pid, err)
	}
	return nil
}

func newCleanCmd(opts *ctlOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "clean the workspace queues (keeps the configuration)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return signalDaemon(opts, syscall.SIGUSR2)
		},
	}
}

func newConfigCmd(opts *ctlOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "validate and render the configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := lmapio.Load(opts.configPath)
			if err != nil {
				return err
			}
			var doc string
			if opts.jsonOut {
				doc, err = lmapio.RenderConfigJSON(cfg)
			} else {
				doc, err = lmapio.RenderConfigXML(cfg)
			}
			if err != nil {
				return err
			}
			fmt.Print(doc)
			return nil
		},
	}
}

func newReloadCmd(opts *ctlOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "tell the daemon to reload its configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return signalDaemon(opts, syscall.SIGHUP)
		},
	}
}

func newReportCmd(opts *ctlOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "read results from the current directory and render a report",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := lmapio.Load(opts.configPath)
			if err != nil {
				return err
			}

			log, closeLog, err := logger.New(logger.Config{Output: "stderr"})
			if err != nil {
				return err
			}
			defer closeLog()

			if err := workspace.ReadResults(cfg, ".", log); err != nil {
				log.Warn("some results could not be read", "error", err)
			}

			now := time.Now()
			var doc string
			if opts.jsonOut && !opts.xmlOut {
				doc, err = lmapio.RenderReportJSON(cfg, now)
			} else {
				doc, err = lmapio.RenderReportXML(cfg, now)
			}
			if err != nil {
				return err
			}
			fmt.Print(doc)
			return nil
		},
	}
}

func newRunningCmd(opts *ctlOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "running",
		Short: "exit with success if the daemon is running",
		RunE: func(cmd *cobra.Command, args []string) error {
			if pidfile.ReadAlive(opts.runPath) == 0 {
				return fmt.Errorf("%s does not seem to be running", domain.SoftwareName)
			}
			return nil
		},
	}
}

func newShutdownCmd(opts *ctlOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "shutdown",
		Short: "tell the daemon to shut down",
		RunE: func(cmd *cobra.Command, args []string) error {
			return signalDaemon(opts, syscall.SIGTERM)
		},
	}
}

func newStatusCmd(opts *ctlOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "request and show the daemon state",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := signalDaemon(opts, syscall.SIGUSR1); err != nil {
				return err
			}
			// Give the daemon loop a moment to write the state file.
			time.Sleep(statusSettleDelay)

			raw, err := os.ReadFile(filepath.Join(opts.runPath, "status"))
			if err != nil {
				return fmt.Errorf("failed to read status file: %w", err)
			}
			os.Stdout.Write(raw)
			return nil
		},
	}
}

func newValidateCmd(opts *ctlOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "validate the configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := lmapio.Load(opts.configPath); err != nil {
				return err
			}
			fmt.Println("configuration validates")
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s\n", domain.SoftwareName, domain.SoftwareVersion)
		},
	}
}
