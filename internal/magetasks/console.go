package magetasks

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/structra/assignment/internal/console"
)

// Out receives everything the targets print.
var Out io.Writer = os.Stdout

var theme = console.DefaultTheme()

// PrintH1Header prints a top-level header with decoration.
func PrintH1Header(title string) {
	width := 80
	_, _ = fmt.Fprintln(Out)
	_, _ = fmt.Fprintln(Out, strings.Repeat("=", width))
	padding := (width - len(title)) / 2
	_, _ = fmt.Fprintf(Out, "%s%s\n", strings.Repeat(" ", padding), theme.Header.Render(title))
	_, _ = fmt.Fprintln(Out, strings.Repeat("=", width))
	_, _ = fmt.Fprintln(Out)
}

// PrintH2Header prints a section header.
func PrintH2Header(title string) {
	_, _ = fmt.Fprintln(Out)
	_, _ = fmt.Fprintln(Out, theme.Header.Render("=== "+title+" ==="))
	_, _ = fmt.Fprintln(Out)
}

// PrintSuccess prints a success message.
func PrintSuccess(msg string) {
	_, _ = fmt.Fprintln(Out, theme.Success.Render(theme.Icons.Pass+" "+msg))
}

// PrintWarning prints a warning message.
func PrintWarning(msg string) {
	_, _ = fmt.Fprintln(Out, theme.Warning.Render(theme.Icons.Skip+" "+msg))
}

// PrintError prints an error message.
func PrintError(msg string) {
	_, _ = fmt.Fprintln(Out, theme.Error.Render(theme.Icons.Fail+" "+msg))
}

// PrintInfo prints an info message.
func PrintInfo(msg string) {
	_, _ = fmt.Fprintln(Out, theme.Muted.Render(msg))
}
