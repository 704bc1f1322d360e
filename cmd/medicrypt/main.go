// Command medicrypt is the thin cobra/viper entrypoint around the
// pipeline core: it binds flags to internal/config, builds a
// pipeline.Options, and calls pipeline.Run. Argument parsing and
// process wiring are the only things that live here — every cipher,
// key-file, and video decision stays in pkg/.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/pixelguard/videocrypt/internal/config"
	"github.com/pixelguard/videocrypt/internal/logging"
	"github.com/pixelguard/videocrypt/pkg/entropy"
	"github.com/pixelguard/videocrypt/pkg/keyfile"
	"github.com/pixelguard/videocrypt/pkg/metrics"
	"github.com/pixelguard/videocrypt/pkg/pipeline"
	"github.com/pixelguard/videocrypt/pkg/video"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfg config.Config
	var verbose bool

	root := &cobra.Command{
		Use:           "medicrypt",
		Short:         "Chaotic-map pixel-level video encryption",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug logging")
	if err := cfg.Init(root); err != nil {
		panic(err) // flag registration only fails on a programming error
	}

	root.AddCommand(newEncryptCmd(&cfg, &verbose), newDecryptCmd(&cfg, &verbose))
	return root
}

func newEncryptCmd(cfg *config.Config, verbose *bool) *cobra.Command {
	var input, output, keyPath, password string

	cmd := &cobra.Command{
		Use:   "encrypt",
		Short: "Encrypt a video at the pixel level and seal its key material",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Set()
			return runPipeline(cmd.Context(), *cfg, *verbose, pipeline.DirEncrypt, input, output, keyPath, password)
		},
	}
	addRunFlags(cmd, &input, &output, &keyPath, &password)
	return cmd
}

func newDecryptCmd(cfg *config.Config, verbose *bool) *cobra.Command {
	var input, output, keyPath, password string

	cmd := &cobra.Command{
		Use:   "decrypt",
		Short: "Reverse a pixel-level encrypted video given its sealed key file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Set()
			return runPipeline(cmd.Context(), *cfg, *verbose, pipeline.DirDecrypt, input, output, keyPath, password)
		},
	}
	addRunFlags(cmd, &input, &output, &keyPath, &password)
	return cmd
}

func addRunFlags(cmd *cobra.Command, input, output, keyPath, password *string) {
	cmd.Flags().StringVar(input, "input", "", "path to the source video")
	cmd.Flags().StringVar(output, "output", "", "path to write the resulting video")
	cmd.Flags().StringVar(keyPath, "key-file", "", "path to the key file (written on encrypt, read on decrypt)")
	cmd.Flags().StringVar(password, "password", "", "password protecting the key file's AES-GCM envelope")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")
	_ = cmd.MarkFlagRequired("key-file")
	_ = cmd.MarkFlagRequired("password")
}

func runPipeline(ctx context.Context, cfg config.Config, verbose bool, dir pipeline.Direction, input, output, keyPath, password string) error {
	logger := logging.New(logging.Options{Verbose: verbose})

	scheme, err := parseScheme(cfg.Crypto.Scheme)
	if err != nil {
		return err
	}
	if !cfg.Crypto.MemOnlyKey {
		// The reference implementation's legacy mode rewrites the
		// decrypted key file back to disk in plaintext; spec.md §9
		// calls that deprecated, and pipeline.Run never does it —
		// readSealedKeyFile only ever holds plaintext in memory.
		return fmt.Errorf("medicrypt: --crypto.mem_only_key=false is no longer supported; the key file is only ever decrypted in memory")
	}

	reg := prometheus.NewRegistry()
	rec := metrics.NewRecorder(reg)
	if cfg.Pipeline.MetricsListen != "" {
		stop := serveMetrics(cfg.Pipeline.MetricsListen, reg)
		defer stop()
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	result, err := pipeline.Run(ctx, pipeline.Options{
		Direction:     dir,
		Scheme:        scheme,
		InputPath:     input,
		OutputPath:    output,
		KeyPath:       keyPath,
		Password:      password,
		KDFIterations: cfg.Crypto.KDFIterations,
		MaxFrames:     cfg.Pipeline.MaxFrames,
		Concurrency:   cfg.Pipeline.Concurrency,
		DiskSpillDir:  cfg.Pipeline.DiskSpillDir,
		DecryptCodec:  video.Codec(cfg.Codec.Decrypted),
		Entropy:       entropy.CSPRNG{},
		Metrics:       rec,
		Logger:        &logger,
	})
	if err != nil {
		return err
	}

	logger.Info().Int("frames", result.FramesProcessed).Str("output", result.OutputPath).Msg("done")
	return nil
}

func parseScheme(s string) (keyfile.Scheme, error) {
	switch s {
	case "A", "a":
		return keyfile.SchemeA, nil
	case "B", "b":
		return keyfile.SchemeB, nil
	default:
		return 0, fmt.Errorf("medicrypt: unknown --crypto.scheme %q (want A or B)", s)
	}
}

// serveMetrics starts a background /metrics listener and returns a
// function that shuts it down.
func serveMetrics(addr string, reg *prometheus.Registry) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		_ = srv.ListenAndServe()
	}()

	return func() {
		_ = srv.Close()
	}
}
