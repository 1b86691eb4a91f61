package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the infrascope banner to w.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	p := out.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{" _        __                                    ", "#22d3ee"},
		{"(_)_ __  / _|_ __ __ _ ___  ___ ___  _ __   ___ ", "#38bdf8"},
		{"| | '_ \\| |_| '__/ _` / __|/ __/ _ \\| '_ \\ / _ \\", "#60a5fa"},
		{"| | | | |  _| | | (_| \\__ \\ (_| (_) | |_) |  __/", "#818cf8"},
		{"|_|_| |_|_| |_|  \\__,_|___/\\___\\___/| .__/ \\___|", "#a78bfa"},
		{"                                    |_|         ", "#c084fc"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
