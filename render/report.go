// ABOUTME: HTML report export for a finished answer: query, Markdown body, and inlined images.
// ABOUTME: Converts the answer Markdown with goldmark and embeds artifacts as base64 data URIs.
package render

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html"
	"io"
	"os"

	"github.com/yuin/goldmark"

	"github.com/calder-research/surveyscope/analyst"
)

const reportStyle = `body { font-family: Helvetica, Arial, sans-serif; max-width: 46em; margin: 2em auto; padding: 0 1em; color: #222; }
h1, h2, h3 { font-family: Helvetica, Arial, sans-serif; }
img { max-width: 100%; }
table { border-collapse: collapse; }
th, td { border: 1px solid #444; padding: 4px 8px; }
th { background: #eee; }
.query { font-weight: bold; margin-bottom: 1em; }
.plot-caption { margin-top: 1.5em; }`

// WriteReport renders the answer as a standalone HTML document: the user's
// query, the final Markdown converted to HTML, then each artifact image in
// order with a caption.
func WriteReport(w io.Writer, record analyst.AnswerRecord) error {
	var body bytes.Buffer
	md := goldmark.New()
	if err := md.Convert([]byte(record.Markdown), &body); err != nil {
		return fmt.Errorf("converting answer markdown: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	buf.WriteString("<title>Analysis Results</title>\n<style>\n" + reportStyle + "\n</style>\n</head>\n<body>\n")
	fmt.Fprintf(&buf, "<p class=\"query\">User Query: %s</p>\n", html.EscapeString(record.Query))
	buf.Write(body.Bytes())

	for i, artifact := range record.Artifacts {
		fmt.Fprintf(&buf, "<p class=\"plot-caption\">Plot/Image %d:</p>\n", i+1)
		fmt.Fprintf(&buf, "<img src=\"data:image/png;base64,%s\" alt=\"%s\">\n",
			base64.StdEncoding.EncodeToString(artifact.Bytes),
			html.EscapeString(artifact.DisplayName),
		)
	}

	buf.WriteString("</body>\n</html>\n")

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

// SaveReport writes the report to a file.
func SaveReport(path string, record analyst.AnswerRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}
	defer f.Close()

	if err := WriteReport(f, record); err != nil {
		return err
	}
	return f.Sync()
}
