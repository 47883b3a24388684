package app

import (
	"context"
	"fmt"

	"github.com/mandelsoft/vfs/pkg/vfs"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/mandelsoft/graphstore/pkg/fixture"
	"github.com/mandelsoft/graphstore/pkg/graph"
	"github.com/mandelsoft/graphstore/pkg/ordering"
	"github.com/mandelsoft/graphstore/pkg/transaction"
	"github.com/mandelsoft/graphstore/pkg/validation"
)

// Script is an edit script. Actions are either store mutations
// (op) or engine operations (do).
type Script struct {
	Transaction int      `json:"transaction,omitempty"`
	Rules       *Rules   `json:"rules,omitempty"`
	Actions     []Action `json:"actions"`
}

type Rules struct {
	Unique     []UniqueRule    `json:"unique,omitempty"`
	References []ReferenceRule `json:"references,omitempty"`
}

type UniqueRule struct {
	Label    string `json:"label"`
	Property string `json:"property"`
}

type ReferenceRule struct {
	Name       string `json:"name"`
	Label      string `json:"label,omitempty"`
	Expression string `json:"expression"`
	Message    string `json:"message"`
}

type Action struct {
	*transaction.Mutation `json:",inline"`

	// Do is one of undo, redo, undoPoint, commit, checkpoint,
	// revert, append, prepend, move, sort or deleteSubtree.
	Do          string   `json:"do,omitempty"`
	Transaction int      `json:"transaction,omitempty"`
	Label       string   `json:"label,omitempty"`
	Parent      graph.Id `json:"parent,omitempty"`
	Child       graph.Id `json:"child,omitempty"`
	Before      graph.Id `json:"before,omitempty"`
	// Index is the step index for revert. If not given, the
	// last checkpoint is used.
	Index *int `json:"index,omitempty"`
}

func (a *Action) String() string {
	if a.Do != "" {
		return a.Do
	}
	if a.Mutation != nil {
		return a.Mutation.String()
	}
	return "<empty>"
}

type Replay struct {
	cmd *cobra.Command

	mainopts  *Options
	output    string
	keepGoing bool
}

func NewReplay(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <script> <options>",
		Short: "replay an edit script on the graph",
		Args:  cobra.ExactArgs(1),
	}
	TweakCommand(cmd)

	c := &Replay{
		cmd:      cmd,
		mainopts: opts,
	}
	c.cmd.RunE = func(cmd *cobra.Command, args []string) error { return c.Run(args) }
	flags := cmd.Flags()
	flags.StringVarP(&c.output, "output", "O", "", "write resulting graph as fixture")
	flags.BoolVarP(&c.keepGoing, "keep-going", "k", false, "continue after failed actions")
	return cmd
}

func ReadScript(fs vfs.FileSystem, path string) (*Script, error) {
	data, err := vfs.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	var s Script
	if err := yaml.UnmarshalStrict(data, &s); err != nil {
		return nil, fmt.Errorf("script %s: %w", path, err)
	}
	if s.Transaction == 0 {
		s.Transaction = 1
	}
	return &s, nil
}

func (r *Rules) Validator() (*validation.Validator, error) {
	v := validation.New()
	if r == nil {
		return v, nil
	}
	for _, u := range r.Unique {
		v.Add(validation.NewUniqueRule(u.Label, u.Property))
	}
	for _, ref := range r.References {
		rule, err := validation.NewReferenceRule(ref.Name, ref.Label, ref.Expression, ref.Message)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", ref.Name, err)
		}
		v.Add(rule)
	}
	return v, nil
}

func (c *Replay) Run(args []string) error {
	ctx := Context(c.cmd)
	script, err := ReadScript(c.mainopts.fs, args[0])
	if err != nil {
		return err
	}
	validator, err := script.Rules.Validator()
	if err != nil {
		return err
	}

	s, err := c.mainopts.Open(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	p := &player{
		engine:      s.Engine,
		layer:       ordering.New(s.Engine),
		validator:   validator,
		checkpoints: map[int]int{},
	}
	for i := range script.Actions {
		a := &script.Actions[i]
		txn := script.Transaction
		if a.Transaction != 0 {
			txn = a.Transaction
		}
		if err := p.play(ctx, txn, a); err != nil {
			err = fmt.Errorf("action %d (%s): %w", i+1, a, err)
			if !c.keepGoing {
				return err
			}
			log.Warn("replay failed", "error", err)
		}
	}

	for _, id := range s.Engine.Transactions() {
		fmt.Fprintf(c.cmd.OutOrStdout(), "txn %d: %s\n", id, s.Engine.Status(id))
	}
	if c.output != "" {
		return fixture.Save(c.output, s.Store().Export(), c.mainopts.fs)
	}
	return nil
}

type player struct {
	engine      *transaction.Engine
	layer       *ordering.Layer
	validator   *validation.Validator
	checkpoints map[int]int
}

func (p *player) play(ctx context.Context, txn int, a *Action) error {
	e := p.engine
	switch a.Do {
	case "":
		if a.Mutation == nil {
			return fmt.Errorf("op or do required")
		}
		switch a.Op {
		case transaction.OpDeleteVertex:
			return p.validator.DeleteVertex(e, txn, a.Id)
		case transaction.OpMergeProperties:
			return p.validator.MergeProperties(e, txn, a.Id, a.Properties)
		}
		return e.Apply(txn, a.Mutation)
	case "undo":
		_, err := e.Undo(txn)
		return err
	case "redo":
		_, err := e.Redo(txn)
		return err
	case "undoPoint":
		return e.SaveUndoPoint(txn)
	case "commit":
		_, err := e.Commit(ctx, txn)
		return err
	case "checkpoint":
		p.checkpoints[txn] = e.Checkpoint(txn)
		return nil
	case "revert":
		index, ok := p.checkpoints[txn]
		if a.Index != nil {
			index, ok = *a.Index, true
		}
		if !ok {
			return fmt.Errorf("no checkpoint for txn %d", txn)
		}
		return e.RevertTransactionUpToIndex(txn, index)
	case "append":
		return p.layer.Append(txn, a.Parent, a.Label, a.Child)
	case "prepend":
		return p.layer.Prepend(txn, a.Parent, a.Label, a.Child)
	case "move":
		return p.layer.Move(txn, a.Label, a.Child, a.Parent, a.Before)
	case "sort":
		_, err := p.layer.SortChildren(txn, a.Parent, a.Label)
		return err
	case "deleteSubtree":
		_, err := e.DeleteSubtree(txn, a.Child, a.Label)
		return err
	}
	return fmt.Errorf("unknown action %q", a.Do)
}
