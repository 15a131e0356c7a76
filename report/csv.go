package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/poiesic/pedagogue/core"
)

// CSVFilename is the conventional name of the course aggregates file.
const CSVFilename = "aggregates.csv"

// WriteCSV writes one row per course: filename, source, evaluated
// sections, the seven rubric means and the overall mean.
func WriteCSV(w io.Writer, agg *Aggregates) error {
	cw := csv.NewWriter(w)

	header := []string{"filename", "source", "sections"}
	for i := range core.RubricCount {
		header = append(header, core.RubricKey(i))
	}
	header = append(header, "overall")
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	for _, c := range agg.Courses {
		row := []string{c.Filename, c.Source, strconv.Itoa(c.Sections)}
		for _, v := range c.Means {
			row = append(row, formatScore(v))
		}
		row = append(row, formatScore(c.Means.Overall()))
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row for %s: %w", c.Filename, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
