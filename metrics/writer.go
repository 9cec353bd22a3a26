package metrics

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type ConfigRecord struct {
	ID       int
	MaxDepth int
	MaxBatch int
	Runs     int
}

type RunRecord struct {
	ID     int
	Config int // ConfigRecord.ID
	RunMetric
}

type TickRecord struct {
	Run int // RunRecord.ID
	TickMetric
}

type Writer struct {
	baseDir string
}

func NewWriter(root, name string) (*Writer, error) {
	// Create a subfolder named by current timestamp
	timestamp := time.Now().UTC().Format("20060102T150405Z")
	baseDir := filepath.Join(root, name, timestamp)
	err := os.MkdirAll(baseDir, 0755)
	if err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	return &Writer{
		baseDir: baseDir,
	}, nil
}

func (w *Writer) Dir() string {
	return w.baseDir
}

func (w *Writer) WriteConfigs(configs []ConfigRecord) error {
	header := []string{"id", "max_depth", "max_batch", "runs"}
	rows := make([][]string, 0, len(configs))
	for _, config := range configs {
		rows = append(rows, []string{
			strconv.Itoa(config.ID),
			strconv.Itoa(config.MaxDepth),
			strconv.Itoa(config.MaxBatch),
			strconv.Itoa(config.Runs),
		})
	}
	return w.write("sweep_configs.csv", header, rows)
}

func (w *Writer) WriteRunRecords(records []RunRecord) error {
	header := []string{"id", "config", "max_depth", "step_delay", "start_time", "duration", "ticks", "generated", "cancellations", "failures", "outcome"}
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, []string{
			strconv.Itoa(record.ID),
			strconv.Itoa(record.Config),
			strconv.Itoa(record.MaxDepth),
			record.StepDelay.String(),
			record.StartTime.Format(time.RFC3339),
			record.Duration.String(),
			strconv.Itoa(record.Ticks),
			strconv.Itoa(record.Generated),
			strconv.Itoa(record.Cancellations),
			strconv.Itoa(record.Failures),
			record.Outcome,
		})
	}
	return w.write("run_records.csv", header, rows)
}

func (w *Writer) WriteTickRecords(records []TickRecord) error {
	header := []string{"run", "tick", "batch_size", "generated", "probing", "tree_size"}
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, []string{
			strconv.Itoa(record.Run),
			strconv.Itoa(record.Tick),
			strconv.Itoa(record.BatchSize),
			strconv.Itoa(record.Generated),
			strconv.FormatBool(record.Probing),
			strconv.Itoa(record.TreeSize),
		})
	}
	return w.write("tick_records.csv", header, rows)
}

func (w *Writer) write(file string, header []string, rows [][]string) error {
	path := filepath.Join(w.baseDir, file)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", file, err)
	}
	return writeCSV(f, file, header, rows)
}

// writeCSV writes header and rows, then closes dst. A close error is returned
// unless an earlier write already failed.
func writeCSV(dst io.WriteCloser, file string, header []string, rows [][]string) (err error) {
	defer func() {
		if cerr := dst.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", file, cerr)
		}
	}()

	writer := csv.NewWriter(dst)

	err = writer.Write(header)
	if err != nil {
		return fmt.Errorf("failed to write %s header: %w", file, err)
	}
	err = writer.WriteAll(rows)
	if err != nil {
		return fmt.Errorf("failed to write %s rows: %w", file, err)
	}

	return nil
}
