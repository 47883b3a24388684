package app

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/mandelsoft/graphstore/pkg/fixture"
	"github.com/mandelsoft/graphstore/pkg/fixture/random"
)

type Seed struct {
	cmd *cobra.Command

	mainopts      *Options
	seed          int64
	pages         int
	components    int
	maxComponents int
	output        string
}

func NewSeed(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed <options>",
		Short: "generate a random page tree fixture",
		Args:  cobra.NoArgs,
	}
	TweakCommand(cmd)

	c := &Seed{
		cmd:      cmd,
		mainopts: opts,
	}
	c.cmd.RunE = func(cmd *cobra.Command, args []string) error { return c.Run() }
	flags := cmd.Flags()
	flags.Int64VarP(&c.seed, "seed", "s", time.Now().UnixNano(), "random seed")
	flags.IntVarP(&c.pages, "pages", "P", 10, "number of pages")
	flags.IntVarP(&c.components, "components", "C", 5, "number of components")
	flags.IntVarP(&c.maxComponents, "max-components", "m", 2, "maximum number of components per page")
	flags.StringVarP(&c.output, "output", "O", "", "fixture file")
	return cmd
}

func (c *Seed) Run() error {
	if c.pages < 0 || c.components < 0 || c.maxComponents < 0 {
		return fmt.Errorf("counts must not be negative")
	}
	f := random.New(c.seed).Tree(c.pages, c.components, c.maxComponents)
	log.Debug("generated {{pages}} pages with seed {{seed}}", "pages", c.pages, "seed", c.seed)
	if c.output != "" {
		return fixture.Save(c.output, f, c.mainopts.fs)
	}
	data, err := yaml.Marshal(f)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.cmd.OutOrStdout(), "%s", string(data))
	return nil
}
