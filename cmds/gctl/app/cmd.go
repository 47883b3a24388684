package app

import (
	"context"

	"github.com/mandelsoft/vfs/pkg/osfs"
	"github.com/mandelsoft/vfs/pkg/vfs"
	"github.com/spf13/cobra"

	"github.com/mandelsoft/graphstore/pkg/utils"
)

type Options struct {
	graph       string
	persistence string
	strict      bool
	level       string
	fs          vfs.FileSystem
}

func New(fss ...vfs.FileSystem) *cobra.Command {
	opts := &Options{
		fs: utils.OptionalDefaulted(vfs.FileSystem(osfs.OsFs), fss...),
	}

	cfg := GetConfig(opts.fs)
	if cfg.Graph != nil {
		opts.graph = *cfg.Graph
	}
	if cfg.Persistence != nil {
		opts.persistence = *cfg.Persistence
	}
	if cfg.Strict != nil {
		opts.strict = *cfg.Strict
	}

	maincmd := &cobra.Command{
		Use:   "gctl <options> <cmd> <args>",
		Short: "work with labeled graphs",
		Long: `
This command evaluates graph expressions on graph fixtures,
generates random fixtures and replays edit scripts using the
transactional graph engine.

Persistence is configured with fs:<directory> or badger:<directory>.
An empty badger directory uses a transient in-memory database.
`,
		Run:              nil,
		TraverseChildren: true,
		SilenceUsage:     true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return SetLogLevel(opts.level)
		},
	}

	flags := maincmd.PersistentFlags()
	flags.StringVarP(&opts.graph, "graph", "g", opts.graph, "graph fixture")
	flags.StringVarP(&opts.persistence, "persistence", "p", opts.persistence, "persistence (fs:<dir> or badger:<dir>)")
	flags.BoolVarP(&opts.strict, "strict", "S", opts.strict, "report unresolved paths")
	flags.StringVarP(&opts.level, "log-level", "L", "", "log level")

	maincmd.AddCommand(NewEval(opts))
	maincmd.AddCommand(NewSeed(opts))
	maincmd.AddCommand(NewReplay(opts))
	return maincmd
}

func TweakCommand(cmd *cobra.Command) {
	cmd.DisableFlagsInUseLine = true
	cmd.SilenceUsage = true
}

func Context(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
