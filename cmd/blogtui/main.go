// Command blogtui is a terminal reader for the blog.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"blog-system/cmd/blogtui/ui"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	addr := flag.String("addr", "http://127.0.0.1:8080", "Blog server base URL")
	timeout := flag.Duration("timeout", 10*time.Second, "HTTP request timeout")
	flag.Parse()

	p := tea.NewProgram(ui.NewRootModel(ui.NewClient(*addr, *timeout)), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "blogtui:", err)
		os.Exit(1)
	}
}
