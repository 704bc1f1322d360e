// Package config binds the pipeline's cobra flags to viper, the same
// Init/Set split the original DRM configuration used.
package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Crypto configuration selects and parameterises the frame cipher.
type Crypto struct {
	Scheme        string // "A" (fisher-yates) or "B" (cosine3d)
	KDFIterations int    // PBKDF2 iterations for the key-file envelope
	MemOnlyKey    bool   // never rewrite the decrypted key file to disk
}

func (Crypto) Init(cmd *cobra.Command) error {
	cmd.PersistentFlags().String("crypto.scheme", "A", "cipher scheme: A (fisher-yates) or B (cosine3d)")
	if err := viper.BindPFlag("crypto.scheme", cmd.PersistentFlags().Lookup("crypto.scheme")); err != nil {
		return err
	}

	cmd.PersistentFlags().Int("crypto.kdf_iterations", 100, "PBKDF2 iterations for the key-file envelope")
	if err := viper.BindPFlag("crypto.kdf_iterations", cmd.PersistentFlags().Lookup("crypto.kdf_iterations")); err != nil {
		return err
	}

	cmd.PersistentFlags().Bool("crypto.mem_only_key", true, "keep the decrypted key file in memory only, never rewrite it to disk")
	if err := viper.BindPFlag("crypto.mem_only_key", cmd.PersistentFlags().Lookup("crypto.mem_only_key")); err != nil {
		return err
	}

	return nil
}

func (c *Crypto) Set() {
	c.Scheme = viper.GetString("crypto.scheme")
	c.KDFIterations = viper.GetInt("crypto.kdf_iterations")
	c.MemOnlyKey = viper.GetBool("crypto.mem_only_key")
}

// Codec configuration picks the fourcc the decrypted-output video sink
// encodes with. The encrypted-output sink is always lossless HFYU —
// ciphertext bytes must survive container re-encoding exactly — so it
// isn't configurable.
type Codec struct {
	Decrypted string // fourcc for the recovered container; lossy codecs are allowed
}

func (Codec) Init(cmd *cobra.Command) error {
	cmd.PersistentFlags().String("codec.decrypted", "mp4v", "fourcc for the decrypted video container")
	if err := viper.BindPFlag("codec.decrypted", cmd.PersistentFlags().Lookup("codec.decrypted")); err != nil {
		return err
	}

	return nil
}

func (c *Codec) Set() {
	c.Decrypted = viper.GetString("codec.decrypted")
}

// Pipeline configuration bounds and observes a run.
type Pipeline struct {
	MaxFrames     int // 0 means unlimited; a test/debug knob
	DiskSpillDir  string
	Concurrency   int
	MetricsListen string
}

func (Pipeline) Init(cmd *cobra.Command) error {
	cmd.PersistentFlags().Int("pipeline.max_frames", 0, "stop after this many frames (0 = unlimited)")
	if err := viper.BindPFlag("pipeline.max_frames", cmd.PersistentFlags().Lookup("pipeline.max_frames")); err != nil {
		return err
	}

	cmd.PersistentFlags().String("pipeline.disk_spill_dir", "", "directory for Scheme B's optional disk-backed frame buffering (empty = in-memory)")
	if err := viper.BindPFlag("pipeline.disk_spill_dir", cmd.PersistentFlags().Lookup("pipeline.disk_spill_dir")); err != nil {
		return err
	}

	cmd.PersistentFlags().Int("pipeline.concurrency", 1, "number of frames ciphered concurrently")
	if err := viper.BindPFlag("pipeline.concurrency", cmd.PersistentFlags().Lookup("pipeline.concurrency")); err != nil {
		return err
	}

	cmd.PersistentFlags().String("pipeline.metrics_listen", "", "address to serve /metrics on (empty disables it)")
	if err := viper.BindPFlag("pipeline.metrics_listen", cmd.PersistentFlags().Lookup("pipeline.metrics_listen")); err != nil {
		return err
	}

	return nil
}

func (p *Pipeline) Set() {
	p.MaxFrames = viper.GetInt("pipeline.max_frames")
	p.DiskSpillDir = viper.GetString("pipeline.disk_spill_dir")
	p.Concurrency = viper.GetInt("pipeline.concurrency")
	p.MetricsListen = viper.GetString("pipeline.metrics_listen")
}

// Config aggregates every bindable section. cmd/medicrypt wires it up
// once at startup.
type Config struct {
	Crypto   Crypto
	Codec    Codec
	Pipeline Pipeline
}

func (c *Config) Init(cmd *cobra.Command) error {
	if err := c.Crypto.Init(cmd); err != nil {
		return err
	}
	if err := c.Codec.Init(cmd); err != nil {
		return err
	}
	return c.Pipeline.Init(cmd)
}

func (c *Config) Set() {
	c.Crypto.Set()
	c.Codec.Set()
	c.Pipeline.Set()
}
