package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// jsonMode switches all rendering to machine-readable JSON (--json)
var jsonMode bool

var (
	styleSuccess = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	styleError   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	styleWarn    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	styleAccent  = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	styleDim     = lipgloss.NewStyle().Faint(true)
)

// printJSON writes indented JSON to stdout
func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "{\"error\": %q}\n", err.Error())
		return
	}
	fmt.Println(string(data))
}

// printSuccess reports a successful action
func printSuccess(msg string) {
	if jsonMode {
		printJSON(map[string]any{"success": true, "message": msg})
		return
	}
	fmt.Println(styleSuccess.Render("✓"), msg)
}

// printError reports an error on stderr
func printError(msg string) {
	if jsonMode {
		data, _ := json.Marshal(map[string]string{"error": msg})
		fmt.Fprintln(os.Stderr, string(data))
		return
	}
	fmt.Fprintln(os.Stderr, styleError.Render("✗"), msg)
}

// printWarn reports a non-fatal notice; suppressed in JSON mode
func printWarn(msg string) {
	if !jsonMode {
		fmt.Println(styleWarn.Render("!"), msg)
	}
}

// printTable renders rows under headers as aligned columns. In JSON mode
// each row becomes an object keyed by header.
func printTable(headers []string, rows [][]string) {
	if jsonMode {
		objs := make([]map[string]string, 0, len(rows))
		for _, row := range rows {
			obj := make(map[string]string, len(headers))
			for i, h := range headers {
				if i < len(row) {
					obj[h] = row[i]
				}
			}
			objs = append(objs, obj)
		}
		printJSON(objs)
		return
	}
	if len(rows) == 0 {
		fmt.Println(styleDim.Render("No results."))
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}

	var head strings.Builder
	for i, h := range headers {
		head.WriteString(styleAccent.Render(padCell(h, widths[i])))
		head.WriteString("  ")
	}
	fmt.Println(strings.TrimRight(head.String(), " "))

	for _, row := range rows {
		var line strings.Builder
		for i, cell := range row {
			if i < len(widths) {
				line.WriteString(padCell(cell, widths[i]))
				line.WriteString("  ")
			}
		}
		fmt.Println(strings.TrimRight(line.String(), " "))
	}
}

// padCell right-pads a cell to the column width, accounting for ANSI styling
func padCell(s string, width int) string {
	pad := width - lipgloss.Width(s)
	if pad <= 0 {
		return s
	}
	return s + strings.Repeat(" ", pad)
}

// fieldPair is one label/value row of a detail view
type fieldPair struct {
	Label string
	Value string
}

// printFields renders a label/value detail view
func printFields(pairs []fieldPair) {
	width := 0
	for _, p := range pairs {
		if lipgloss.Width(p.Label) > width {
			width = lipgloss.Width(p.Label)
		}
	}
	for _, p := range pairs {
		value := p.Value
		if value == "" {
			value = styleDim.Render("—")
		}
		fmt.Printf("  %s  %s\n", styleAccent.Render(padCell(p.Label, width)), value)
	}
}

// shortenHex abbreviates long identifiers for table display
func shortenHex(s string, head, tail int) string {
	if len(s) <= head+tail+3 {
		return s
	}
	return s[:head] + "..." + s[len(s)-tail:]
}
