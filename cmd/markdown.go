package cmd

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/shopspring/decimal"

	"github.com/brickfolio/brickfolio"
)

// printMarkdown renders markdown to the terminal, falling back to the raw
// text when rendering is not possible (e.g. output is piped).
func printMarkdown(md string) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		fmt.Println(md)
		return
	}
	out, err := renderer.Render(md)
	if err != nil {
		fmt.Println(md)
		return
	}
	fmt.Print(out)
}

// parseMoney parses a decimal amount in the app currency.
func parseMoney(s string) (brickfolio.Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return brickfolio.Money{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return brickfolio.M(d, *currencyFlag), nil
}

// parseShares parses a decimal share quantity.
func parseShares(s string) (brickfolio.Shares, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return brickfolio.Shares{}, fmt.Errorf("invalid share quantity %q: %w", s, err)
	}
	return brickfolio.S(d), nil
}
