// internal/storage/memory/export.go
package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	v1 "github.com/wopr-sim/wopr/internal/storage/memory/export/v1"
)

// exportJSON writes the game to OutputDir as JSON, gzipped if configured.
func (b *Backend) exportJSON() error {
	export := v1.Build(v1.Input{
		Game:     *b.game,
		Result:   b.result,
		Events:   b.events,
		Launches: b.launches,
		Flights:  b.flights,
		Turns:    b.turns,
	})

	outputPath := filepath.Join(b.cfg.OutputDir, b.filename())

	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var err error
	if b.cfg.CompressOutput {
		err = writeGzipJSON(outputPath, export)
	} else {
		err = writeJSON(outputPath, export)
	}
	if err != nil {
		return err
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		return fmt.Errorf("failed to stat export: %w", err)
	}

	b.lastExportPath = outputPath
	b.lastExportSize = info.Size()
	return nil
}

// filename is wopr_<start>_<first 8 of game id>.json[.gz]
func (b *Backend) filename() string {
	id := b.game.ID.String()[:8]
	name := fmt.Sprintf("wopr_%s_%s.json", b.game.StartedAt.UTC().Format("20060102_150405"), id)
	if b.cfg.CompressOutput {
		name += ".gz"
	}
	return name
}

func writeJSON(path string, data v1.Export) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	return json.NewEncoder(f).Encode(data)
}

func writeGzipJSON(path string, data v1.Export) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gzWriter := gzip.NewWriter(f)
	if err := json.NewEncoder(gzWriter).Encode(data); err != nil {
		gzWriter.Close()
		return fmt.Errorf("failed to encode export: %w", err)
	}
	return gzWriter.Close()
}
