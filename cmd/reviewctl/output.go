package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"

	"ethics-review-be/internal/entity"
	"ethics-review-be/pkg/risk"
)

var tierColors = map[risk.Tier]*color.Color{
	risk.TierUnacceptable: color.New(color.FgHiWhite, color.BgRed, color.Bold),
	risk.TierHigh:         color.New(color.FgBlack, color.BgYellow, color.Bold),
	risk.TierLimited:      color.New(color.FgBlack, color.BgCyan, color.Bold),
	risk.TierMinimal:      color.New(color.FgHiWhite, color.BgGreen, color.Bold),
}

func printSuccess(format string, args ...any) {
	color.New(color.FgGreen).Fprintf(os.Stderr, "✓ "+format+"\n", args...)
}

func printWarning(format string, args ...any) {
	color.New(color.FgYellow).Fprintf(os.Stderr, "! "+format+"\n", args...)
}

func printError(format string, args ...any) {
	color.New(color.FgRed).Fprintf(os.Stderr, "✗ "+format+"\n", args...)
}

func printVerdict(v *entity.RiskVerdict) {
	c, ok := tierColors[risk.Tier(v.Category)]
	if !ok {
		c = color.New(color.FgHiWhite, color.BgHiBlack, color.Bold)
	}
	c.Printf(" %s ", v.Label)
	fmt.Println()
	if v.PreScreened {
		color.New(color.Faint).Println("(matched a prohibited practice before classification)")
	}
	printMarkdown(v.Justification)
	for _, cit := range v.Citations {
		color.New(color.Faint).Printf("[%d] %s\n", cit.Index, cit.Filename)
	}
}

func printEntry(e entity.TranscriptEntry) {
	switch e.Kind {
	case entity.EntryRound:
		color.New(color.FgCyan, color.Bold).Printf("\n── Round %d ──\n", e.Round)
	case entity.EntryVerdict:
		// Printed by printVerdict.
	default:
		color.New(color.FgMagenta, color.Bold).Printf("%s\n", e.Speaker)
		printMarkdown(e.Text)
		for _, cit := range e.Citations {
			color.New(color.Faint).Printf("[%d] %s\n", cit.Index, cit.Filename)
		}
	}
}

// printMarkdown renders text for the terminal, falling back to the raw text.
func printMarkdown(text string) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		fmt.Println(text)
		return
	}
	out, err := r.Render(text)
	if err != nil {
		fmt.Println(text)
		return
	}
	fmt.Print(out)
}
