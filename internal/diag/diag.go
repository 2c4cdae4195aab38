// Package diag centralizes the reasoner's diagnostic taxonomy: parse,
// validation, capacity, internal-invariant, and callback errors, each
// logged with structured context through logrus rather than ad hoc
// fmt.Printf calls, and aggregated with go-multierror when more than one
// independent problem can legitimately accumulate before a caller reacts.
package diag

import (
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Category classifies a diagnostic per the taxonomy in the error handling
// design: every dropped unit is logged with enough context to reconstruct
// what was rejected and why.
type Category string

const (
	Parse             Category = "parse"
	Validation        Category = "validation"
	Capacity          Category = "capacity"
	InternalInvariant Category = "internal_invariant"
	Callback          Category = "callback"
)

// Logger is the package-wide entry point; callers configure it once at
// startup (e.g. from cmd/kifreasoner) and every package logs through it.
var Logger = logrus.New()

// Fields is the structured-context map every log call carries, mirroring
// the shape kb.Assertion/kb.Rule expose via their own Fields() accessors.
type Fields = logrus.Fields

// Log emits one diagnostic at warn level tagged with its category. Nothing
// in this taxonomy is fatal; Policy is always local recovery.
func Log(category Category, msg string, fields Fields) {
	entry := Logger.WithField("category", string(category))
	if fields != nil {
		entry = entry.WithFields(fields)
	}
	entry.Warn(msg)
}

// Wrap decorates err with msg, preserving it as a cause recoverable via
// errors.Cause/errors.Unwrap, the way the pack's parser-shaped packages
// propagate position-carrying errors.
func Wrap(err error, msg string) error {
	return errors.Wrap(err, msg)
}

// Append accumulates err onto an in-progress *multierror.Error, for sites
// where several independent problems (e.g. several malformed antecedent
// clauses) may need to be reported together before the caller reacts.
func Append(existing error, err error) error {
	return multierror.Append(existing, err)
}
