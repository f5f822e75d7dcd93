package bundle

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jszwec/csvutil"

	"lotofacil_sync/internal/domain"
)

type drawRow struct {
	Contest int    `csv:"contest"`
	Date    string `csv:"date"`
	Numbers string `csv:"numbers"`
}

// WriteCSV writes one row per draw with the numbers zero-padded and
// space separated.
func WriteCSV(w io.Writer, draws []domain.LocalDraw) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)

	if err := enc.EncodeHeader(drawRow{}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	for _, d := range draws {
		row := drawRow{
			Contest: d.ID,
			Date:    d.Date,
			Numbers: formatNumbers(d.Numbers),
		}
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("encode draw %d: %w", d.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes the draws to path. A failed close is reported,
// since buffered rows may not have reached the disk.
func WriteCSVFile(path string, draws []domain.LocalDraw) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, closeErr)
		}
	}()

	return WriteCSV(f, draws)
}

func formatNumbers(numbers []int) string {
	parts := make([]string, len(numbers))
	for i, n := range numbers {
		parts[i] = fmt.Sprintf("%02d", n)
	}
	return strings.Join(parts, " ")
}
