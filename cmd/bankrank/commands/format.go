package commands

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/wonny/bankrank/backend/internal/contracts"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

const doubleSeparator = "═══════════════════════════════════════════════════════════"
const separator = "───────────────────────────────────────────────────────────"

// PrintRanking prints ranked banks as a table, best first
func PrintRanking(w io.Writer, ranked []contracts.RankedBank, showPoints bool) {
	nameWidth := len("Bank")
	for _, b := range ranked {
		if n := utf8.RuneCountInString(b.Name); n > nameWidth {
			nameWidth = n
		}
	}

	fmt.Fprintln(w, doubleSeparator)
	header := fmt.Sprintf("  %-4s  %s  %8s", "Rank", padRight("Bank", nameWidth), "LDR")
	if showPoints {
		header += fmt.Sprintf("  %6s", "Points")
	}
	fmt.Fprintln(w, header)
	fmt.Fprintln(w, separator)

	for _, b := range ranked {
		line := fmt.Sprintf("  %-4d  %s  %7.2f%%", b.Rank, padRight(b.Name, nameWidth), b.LDR)
		if showPoints {
			line += fmt.Sprintf("  %6d", b.TotalPoints)
		}
		fmt.Fprintln(w, line)
	}

	fmt.Fprintln(w, doubleSeparator)
	fmt.Fprintf(w, "  %d banks ranked\n", len(ranked))
}

// PrintPeriods prints reporting periods, newest first
func PrintPeriods(w io.Writer, periods []contracts.Period) {
	fmt.Fprintln(w, doubleSeparator)
	fmt.Fprintf(w, "  %-10s  %5s  %s\n", "Period", "Banks", "Published")
	fmt.Fprintln(w, separator)

	for _, p := range periods {
		published := "-"
		if !p.PublishedAt.IsZero() {
			published = p.PublishedAt.Format("2006-01-02")
		}
		fmt.Fprintf(w, "  %-10s  %5d  %s\n", p.Code, p.BankCount, published)
	}

	fmt.Fprintln(w, doubleSeparator)
}

// padRight pads by rune count so non-ASCII bank names stay aligned
func padRight(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}
