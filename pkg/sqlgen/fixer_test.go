package sqlgen

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestRenameTable_WholeWordOnly(t *testing.T) {
	sql := "SELECT sale.amount FROM sale JOIN presales ON 1=1"
	fixed := RenameTable(sql, "sale", "sales")

	assert.Equal(t, "SELECT sales.amount FROM sales JOIN presales ON 1=1", fixed)
}

func TestRenameTable_Idempotent(t *testing.T) {
	sql := "SELECT SUM(amount) FROM sale"
	once := RenameTable(sql, "sale", "sales")
	twice := RenameTable(once, "sale", "sales")

	assert.Equal(t, once, twice)
}

func TestFix_AppendsExactlyMissingClosers(t *testing.T) {
	fixer := NewFixer(zap.NewNop())

	for k := 1; k <= 5; k++ {
		t.Run(fmt.Sprintf("k=%d", k), func(t *testing.T) {
			sql := "SELECT SUM" + strings.Repeat("(", k) + "amount FROM sales"
			fixed, changed := fixer.Fix(sql, &ValidationResult{MissingClosers: k})

			assert.True(t, changed)
			opens := strings.Count(fixed, "(")
			closes := strings.Count(fixed, ")")
			assert.Equal(t, opens, closes, "open/close counts must balance")
			assert.True(t, strings.HasSuffix(fixed, strings.Repeat(")", k)),
				"closers are appended at the end, never repositioned")
		})
	}
}

func TestFix_CombinedRepairs(t *testing.T) {
	fixer := NewFixer(zap.NewNop())

	validation := &ValidationResult{
		TableFixes:     []TableFix{{Wrong: "sale", Right: "sales"}},
		MissingClosers: 1,
	}
	fixed, changed := fixer.Fix("SELECT SUM(amount FROM sale", validation)

	assert.True(t, changed)
	assert.Equal(t, "SELECT SUM(amount FROM sales)", fixed)
}

func TestFix_NoRepairsNeeded(t *testing.T) {
	fixer := NewFixer(zap.NewNop())

	sql := "SELECT SUM(amount) FROM sales"
	fixed, changed := fixer.Fix(sql, &ValidationResult{})

	assert.False(t, changed)
	assert.Equal(t, sql, fixed)
}
