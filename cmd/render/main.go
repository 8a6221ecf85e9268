package main

import (
	"bytes"
	"errors"
	"flag"
	"io"
	"log"
	"os"
	"time"

	"proposal-intake-be/internal/pkg/logger"
	"proposal-intake-be/pkg/document"
)

// render converts a proposal markup file to PDF without touching the database,
// e.g. to check a stored proposal_text after a failed generation.
func main() {
	in := flag.String("in", "", "markup file to render (defaults to stdin)")
	out := flag.String("out", "proposal.pdf", "output PDF path")
	company := flag.String("company", "Water Treatment Solutions", "company name for author and footer")
	emergency := flag.Bool("emergency", false, "render the emergency notice instead of the markup")
	client := flag.String("client", "", "client name for the emergency notice")
	flag.Parse()

	sysLogger := logger.NewZapLogger("logs/render.log", false)
	defer sysLogger.Sync()

	renderer := document.NewRenderer(sysLogger,
		document.WithAuthor(*company),
		document.WithFooter(*company),
	)

	var err error
	if *emergency {
		err = writeDocument(*out, func(w io.Writer) error {
			return renderer.RenderEmergency(document.EmergencyNotice{
				CompanyName: *company,
				ClientName:  *client,
				Date:        time.Now(),
			}, w)
		})
	} else {
		text, readErr := readInput(*in)
		if readErr != nil {
			log.Fatalf("Error: cannot read markup: %v", readErr)
		}
		err = writeDocument(*out, func(w io.Writer) error {
			return renderer.Render(string(text), w)
		})
	}
	if err != nil {
		log.Fatalf("Error: render failed: %v", err)
	}

	log.Printf("✅ Wrote %s", *out)
}

// writeDocument renders into memory and only creates path once rendering
// succeeded, so a failed run leaves no empty file behind.
func writeDocument(path string, render func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return err
	}
	if buf.Len() == 0 {
		return errors.New("renderer produced no output")
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func readInput(path string) ([]byte, error) {
	if path == "" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
