// Package reconcile turns the raw wallet ledger into user-facing logical
// transactions by detecting and merging fee-deduction pairs: two SENT rows in
// the same block where the smaller is, within tolerance, 1% of the larger.
package reconcile

import (
	"log"
	"sort"

	"github.com/shopspring/decimal"

	"warungpay/backend/internal/domain"
)

var (
	feeRate   = decimal.RequireFromString("0.01")
	tolerance = decimal.RequireFromString("0.001")
	one       = decimal.NewFromInt(1)
)

// Reconcile maps the full raw ledger of one account, in any order, to
// logical transactions grouped per block height, newest block first.
func Reconcile(raw []domain.RawTransaction) []domain.LogicalTransaction {
	txs := make([]domain.LogicalTransaction, 0, len(raw))
	for _, r := range raw {
		txs = append(txs, domain.LogicalTransaction{RawTransaction: r})
	}
	return ReconcileLogical(txs)
}

// ReconcileLogical is the core pass. It is idempotent: applied to its own
// output (no pairs left to find) it returns that output unchanged.
func ReconcileLogical(txs []domain.LogicalTransaction) []domain.LogicalTransaction {
	blocks := make(map[int64][]domain.LogicalTransaction)
	heights := make([]int64, 0)
	for _, tx := range txs {
		if _, seen := blocks[tx.BlockHeight]; !seen {
			heights = append(heights, tx.BlockHeight)
		}
		blocks[tx.BlockHeight] = append(blocks[tx.BlockHeight], tx)
	}
	sort.Slice(heights, func(i, j int) bool { return heights[i] > heights[j] })

	out := make([]domain.LogicalTransaction, 0, len(heights))
	for _, height := range heights {
		out = append(out, mergeBlock(height, blocks[height])...)
	}
	return out
}

// mergeBlock reduces one block's rows. Exactly two SENT rows are tested as a
// fee pair: merged into one row when the ratio holds, both emitted unmerged
// when it fails. Every other multi-row shape keeps only the first row
// encountered.
func mergeBlock(height int64, rows []domain.LogicalTransaction) []domain.LogicalTransaction {
	sent := make([]domain.LogicalTransaction, 0, len(rows))
	for _, row := range rows {
		if row.Direction == domain.TxSent {
			sent = append(sent, row)
		}
	}

	if len(sent) == 2 {
		if dropped := len(rows) - 2; dropped > 0 {
			log.Printf("[reconcile] block %d has %d non-SENT rows alongside a fee-pair candidate, dropping them", height, dropped)
		}
		main, candidate := sent[0], sent[1]
		if candidate.AmountSats > main.AmountSats {
			main, candidate = candidate, main
		}
		if isFeeOf(main.AmountSats, candidate.AmountSats) {
			main.FeeSats = candidate.AmountSats
			return []domain.LogicalTransaction{main}
		}
		// A failed ratio test means two independent sends landed in one
		// block; both are real and both are kept.
		return sent
	}

	// Fallback: first encountered row wins. This can silently drop a second
	// legitimate transaction sharing a block, so make the drop observable.
	if len(rows) > 1 {
		log.Printf("[reconcile] block %d has %d unmergeable rows, keeping first", height, len(rows))
	}
	return rows[:1]
}

// isFeeOf reports whether candidate is within the relative tolerance band
// around 1% of main: expected*(1-tol) <= candidate <= expected*(1+tol).
func isFeeOf(mainSats, candidateSats int64) bool {
	expected := decimal.NewFromInt(mainSats).Mul(feeRate)
	c := decimal.NewFromInt(candidateSats)
	lo := expected.Mul(one.Sub(tolerance))
	hi := expected.Mul(one.Add(tolerance))
	return c.GreaterThanOrEqual(lo) && c.LessThanOrEqual(hi)
}
