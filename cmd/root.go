// Package cmd implements the sniff command line using cobra.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"firestige.xyz/sniff/internal/config"
	"firestige.xyz/sniff/internal/core"
	"firestige.xyz/sniff/internal/iface"
	"firestige.xyz/sniff/internal/log"
	"firestige.xyz/sniff/internal/metrics"
	"firestige.xyz/sniff/internal/sink"
	"firestige.xyz/sniff/internal/sniffer"
	"firestige.xyz/sniff/internal/source"

	// capture backends
	_ "firestige.xyz/sniff/internal/source/afpacket"
	_ "firestige.xyz/sniff/internal/source/pcap"
	_ "firestige.xyz/sniff/internal/source/socket"

	// output formats
	_ "firestige.xyz/sniff/internal/sink/console"
	_ "firestige.xyz/sniff/internal/sink/jsonl"
	_ "firestige.xyz/sniff/internal/sink/kafka"
)

// configEnv names an explicit configuration file. Without it sniff.yaml is
// looked up in /etc/sniff and the working directory.
const configEnv = "SNIFF_CONFIG"

// newRootCmd builds the sniff command. It takes exactly one argument and no
// flags besides --help; everything else comes from configuration.
func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sniff <interface>",
		Short: "Print a summary line for every frame seen on a network interface",
		Long: `sniff opens a raw capture on the named interface and decodes each frame
through Ethernet, ARP, IPv4, TCP, UDP and ICMP, printing one line per frame.
Frames that are truncated or use protocols sniff does not decode are reported
as malformed or unknown instead of being dropped.

Configuration is read from sniff.yaml (/etc/sniff or the working directory,
or the file named by SNIFF_CONFIG) and SNIFF_* environment variables, e.g.
SNIFF_OUTPUT_FORMAT=json or SNIFF_CAPTURE_SOURCE=pcap.`,
		Example: `  sniff eth0
  SNIFF_OUTPUT_FORMAT=json sniff wlan0`,
		Args:          interfaceArg,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), args[0], cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
}

// Execute runs the root command until it finishes or SIGINT/SIGTERM arrives.
// This is called by main.main().
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newRootCmd().ExecuteContext(ctx)
}

// interfaceArg wraps cobra.ExactArgs(1), printing usage on failure.
func interfaceArg(cmd *cobra.Command, args []string) error {
	if err := cobra.ExactArgs(1)(cmd, args); err != nil {
		fmt.Fprint(cmd.ErrOrStderr(), cmd.UsageString())
		return fmt.Errorf("%w: %v", core.ErrUsage, err)
	}
	return nil
}

func run(ctx context.Context, name string, stdout, stderr io.Writer) error {
	cfg, err := config.Load(os.Getenv(configEnv))
	if err != nil {
		if !errors.Is(err, core.ErrConfigInvalid) {
			err = fmt.Errorf("%w: %w", core.ErrConfigInvalid, err)
		}
		return err
	}

	if err := log.Init(cfg.Log); err != nil {
		return fmt.Errorf("%w: %w", core.ErrConfigInvalid, err)
	}
	logger := log.GetLogger()

	id, ok := iface.Find(name)
	if !ok {
		fmt.Fprintln(stderr, "Failed get Interface!")
		return fmt.Errorf("%w: %q (available: %s)", core.ErrInterfaceNotFound, name, strings.Join(iface.Names(), ", "))
	}
	fmt.Fprintf(stdout, "Selected Interface Name: %s\n", id.Name)

	if cfg.Metrics.Enabled {
		srv := metrics.NewServer(cfg.Metrics.Listen, cfg.Metrics.Path)
		if err := srv.Start(ctx); err != nil {
			return err
		}
		defer func() {
			if err := srv.Stop(context.Background()); err != nil {
				logger.WithError(err).Warn("failed to stop metrics server")
			}
		}()
	}

	out, err := sink.New(cfg.Output)
	if err != nil {
		return err
	}
	defer func() {
		if err := out.Close(); err != nil {
			logger.WithError(err).Warn("failed to close sink")
		}
	}()

	src, err := source.Open(cfg.Capture, id)
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrCaptureFault, err)
	}
	defer func() {
		if err := src.Close(); err != nil {
			logger.WithError(err).Warn("failed to close capture source")
		}
	}()

	logger.WithFields(map[string]interface{}{
		"interface": id.Name,
		"index":     id.Index,
		"source":    cfg.Capture.Source,
		"output":    cfg.Output.Format,
	}).Info("sniffer starting")

	return sniffer.New(sniffer.Config{
		Interface: id,
		Source:    src,
		Sink:      out,
		SinkName:  cfg.Output.Format,
	}).Run(ctx)
}
