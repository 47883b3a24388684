package app

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/mandelsoft/graphstore/pkg/graph"
	"github.com/mandelsoft/graphstore/pkg/query"
)

type Eval struct {
	cmd *cobra.Command

	mainopts  *Options
	output    string
	async     bool
	vertices  []string
	variables []string
}

// Output is the structured form of an evaluation result.
type Output struct {
	State    string     `json:"state"`
	Vertices []graph.Id `json:"vertices,omitempty"`
	Text     string     `json:"text"`
}

func NewEval(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval <expression> <options>",
		Short: "evaluate a graph expression",
		Args:  cobra.ExactArgs(1),
	}
	TweakCommand(cmd)

	c := &Eval{
		cmd:      cmd,
		mainopts: opts,
	}
	c.cmd.RunE = func(cmd *cobra.Command, args []string) error { return c.Run(args) }
	flags := cmd.Flags()
	flags.StringVarP(&c.output, "output", "o", "", "output format (yaml, json)")
	flags.BoolVarP(&c.async, "async", "a", false, "load unknown labels from persistence")
	flags.StringArrayVarP(&c.vertices, "vertex", "v", nil, "current vertex id ($0, $1, ...)")
	flags.StringArrayVarP(&c.variables, "variable", "V", nil, "variable <name>=<value>")
	return cmd
}

func (c *Eval) Run(args []string) error {
	ctx := Context(c.cmd)
	q, err := query.Compile(args[0])
	if err != nil {
		return err
	}

	s, err := c.mainopts.Open(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	qc := s.Context()
	for _, id := range c.vertices {
		v, err := s.Store().GetVertex(graph.Id(id))
		if err != nil {
			return err
		}
		qc.Vertexes = append(qc.Vertexes, v)
	}
	for _, v := range c.variables {
		name, value, ok := strings.Cut(v, "=")
		if !ok {
			return fmt.Errorf("invalid variable %q: <name>=<value> required", v)
		}
		qc = qc.WithVariable(name, value)
	}

	var r query.Result
	if c.async {
		r, err = q.ResultAsync(ctx, qc)
	} else {
		r, err = q.Result(qc)
	}
	if err != nil {
		return err
	}
	if qc.Strict {
		if err := r.Err(); err != nil {
			return fmt.Errorf("%s: %w", q, err)
		}
	}

	out := Output{
		State:    r.State.String(),
		Vertices: r.Vertices.Ids(),
		Text:     query.Display(r.Value),
	}
	switch c.output {
	case "":
		fmt.Fprintf(c.cmd.OutOrStdout(), "%s\n", out.Text)
	case "json":
		data, err := json.Marshal(out)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.cmd.OutOrStdout(), "%s\n", string(data))
	case "yaml":
		data, err := yaml.Marshal(out)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.cmd.OutOrStdout(), "%s", string(data))
	default:
		return fmt.Errorf("invalid output format %q", c.output)
	}
	return nil
}
