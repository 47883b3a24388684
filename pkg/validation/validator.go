package validation

import (
	"github.com/mandelsoft/graphstore/pkg/graph"
	"github.com/mandelsoft/graphstore/pkg/query"
	"github.com/mandelsoft/graphstore/pkg/transaction"
)

// Validator aggregates rules. It is used by callers to inspect
// query results before a destructive mutation is issued.
type Validator struct {
	rules []Rule
}

func New(rules ...Rule) *Validator {
	return &Validator{rules: rules}
}

func (v *Validator) Add(rules ...Rule) *Validator {
	v.rules = append(v.rules, rules...)
	return v
}

// Check evaluates all applicable rules for the given vertices.
// All violations are reported with a single *Failure.
func (v *Validator) Check(c *query.Context, ids ...graph.Id) error {
	var reasons []Reason
	for _, id := range ids {
		vtx, err := c.Store.GetVertex(id)
		if err != nil {
			return err
		}
		for _, r := range v.rules {
			if !r.AppliesTo(vtx) {
				continue
			}
			list, err := r.Check(c, vtx)
			if err != nil {
				return err
			}
			reasons = append(reasons, list...)
		}
	}
	if len(reasons) > 0 {
		log.Debug("validation failed with {{count}} reasons", "count", len(reasons))
		return &Failure{Reasons: reasons}
	}
	return nil
}

// DeleteVertex deletes a vertex if it passes all rules.
func (v *Validator) DeleteVertex(e *transaction.Engine, txn int, id graph.Id) error {
	if err := v.Check(query.NewContext(e.Store()), id); err != nil {
		return err
	}
	return e.DeleteVertex(txn, id)
}

// MergeProperties merges properties if the unique rules for the
// vertex accept the new values.
func (v *Validator) MergeProperties(e *transaction.Engine, txn int, id graph.Id, patch graph.Properties) error {
	c := query.NewContext(e.Store())
	vtx, err := c.Store.GetVertex(id)
	if err != nil {
		return err
	}
	var reasons []Reason
	for _, r := range v.rules {
		u, ok := r.(*UniqueRule)
		if !ok || !u.AppliesTo(vtx) {
			continue
		}
		if val, ok := patch.Get(u.property); ok {
			reasons = append(reasons, u.CheckValue(c, id, val.String())...)
		}
	}
	if len(reasons) > 0 {
		return &Failure{Reasons: reasons}
	}
	return e.MergeProperties(txn, id, patch)
}
