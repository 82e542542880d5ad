// ABOUTME: Interactive question loop: reads questions from stdin and prints Markdown answers.
// ABOUTME: Supports :reset, :export, and :quit commands; saves plot images next to the export.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/calder-research/surveyscope/analyst"
	"github.com/calder-research/surveyscope/render"
)

const replHelp = `Ask any question about the dataset, or use a command:
  :reset          start over with a brand new question (clears conversation memory)
  :export <file>  save the last answer as an HTML report
  :quit           exit`

func runREPL(ctx context.Context, controller *analyst.Controller, outDir string) int {
	fmt.Println("surveyscope: interactive survey data analyst")
	fmt.Println(replHelp)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("\n? ")
		if !scanner.Scan() {
			return 0
		}
		if ctx.Err() != nil {
			return 0
		}

		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == ":quit" || line == ":q":
			return 0

		case line == ":reset":
			controller.Reset()
			fmt.Println("Reset complete. Type a brand new question.")

		case strings.HasPrefix(line, ":export"):
			exportAnswer(controller, outDir, strings.TrimSpace(strings.TrimPrefix(line, ":export")))

		default:
			answer(ctx, controller, line, outDir)
		}
	}
}

func answer(ctx context.Context, controller *analyst.Controller, question, outDir string) {
	record, err := controller.SubmitQuery(ctx, question)
	switch {
	case errors.Is(err, analyst.ErrEmptyQuery):
		fmt.Println("Please enter a non-empty question.")
		return
	case err != nil:
		fmt.Printf("The question could not be processed: %v\nYour conversation is intact; try again.\n", err)
		return
	}

	fmt.Println("\n## Final Response")
	fmt.Println(record.Markdown)

	for _, artifact := range record.Artifacts {
		path := filepath.Join(outDir, artifact.DisplayName)
		if err := os.WriteFile(path, artifact.Bytes, 0o644); err != nil {
			fmt.Printf("Could not save %s: %v\n", artifact.DisplayName, err)
			continue
		}
		fmt.Printf("Saved %s\n", path)
	}
}

func exportAnswer(controller *analyst.Controller, outDir, arg string) {
	record, ok := controller.CurrentAnswer()
	if !ok {
		fmt.Println("No answer to export yet.")
		return
	}

	name := arg
	if name == "" {
		name = "results.html"
	}
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(outDir, name)
	}

	if err := render.SaveReport(path, record); err != nil {
		fmt.Printf("Export failed: %v\n", err)
		return
	}
	fmt.Printf("Saved report %s\n", path)
}
