package sqlgen

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// Fixer applies conservative string-level repairs to SQL that failed a
// fixable validation check. It never repositions anything; it renames whole
// words and appends missing closers.
type Fixer struct {
	logger *zap.Logger
}

// NewFixer creates a fixer.
func NewFixer(logger *zap.Logger) *Fixer {
	return &Fixer{logger: logger.Named("sql-fixer")}
}

// Fix applies every suggested repair in one pass and reports whether the SQL
// changed. The caller must re-validate the result from the first layer.
func (f *Fixer) Fix(sql string, validation *ValidationResult) (string, bool) {
	fixed := sql

	for _, tf := range validation.TableFixes {
		fixed = RenameTable(fixed, tf.Wrong, tf.Right)
	}

	if validation.MissingClosers > 0 {
		fixed = strings.TrimRight(fixed, " \t\n") + strings.Repeat(")", validation.MissingClosers)
	}

	changed := fixed != sql
	if changed {
		f.logger.Debug("applied auto-fix",
			zap.Int("table_renames", len(validation.TableFixes)),
			zap.Int("appended_closers", validation.MissingClosers))
	}
	return fixed, changed
}

// RenameTable replaces whole-word occurrences of wrong with right. Applying
// it again after a successful rename is a no-op.
func RenameTable(sql, wrong, right string) string {
	pattern := regexp.MustCompile(`\b` + regexp.QuoteMeta(wrong) + `\b`)
	return pattern.ReplaceAllString(sql, right)
}
