package dataprocessing

import (
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	apperrors "github.com/tsmathis/Dilatometry-Analyst/internal/errors"
	"github.com/tsmathis/Dilatometry-Analyst/pkg/contracts/domain"
)

const utf8BOM = "\uFEFF"

// Load reads a tab-delimited instrument export from fsys.
func Load(fsys afero.Fs, path string, opts LoaderOptions) (*domain.RawTable, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, apperrors.NewIOError(StageLoad, path, err)
	}
	defer f.Close()

	return Parse(f, path, opts)
}

// Parse reads an instrument export from r. The first record is the header;
// columns are matched by name so their order does not matter.
func Parse(r io.Reader, source string, opts LoaderOptions) (*domain.RawTable, error) {
	if opts.DisplacementColumn == "" {
		opts.DisplacementColumn = domain.ColumnDisplacement
	}

	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if stderrors.Is(err, io.EOF) {
		return nil, withStage(apperrors.NewSchemaError(source, "", "file has no header row"))
	}
	if err != nil {
		return nil, apperrors.NewIOError(StageLoad, source, err)
	}

	index := headerIndex(header)
	required := []string{
		domain.ColumnCycle,
		opts.DisplacementColumn,
		domain.ColumnTime,
		domain.ColumnPotential,
		domain.ColumnCurrent,
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return nil, withStage(apperrors.NewSchemaError(source, col, ""))
		}
	}
	chargeIdx, hasCharge := index[domain.ColumnCharge]

	table := &domain.RawTable{
		Source:             source,
		DisplacementColumn: opts.DisplacementColumn,
		HasCharge:          hasCharge,
	}
	seen := make(map[int]bool)

	for line := 2; ; line++ {
		record, err := reader.Read()
		if stderrors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.NewIOError(StageLoad, source, err)
		}
		if isBlank(record) {
			continue
		}

		field := func(col string) (float64, error) {
			return parseField(record, index[col], col, source, line)
		}

		var s domain.RawSample
		cycle, err := field(domain.ColumnCycle)
		if err != nil {
			return nil, err
		}
		if cycle < 1 || cycle != math.Trunc(cycle) {
			return nil, withStage(apperrors.NewSchemaError(source, domain.ColumnCycle,
				fmt.Sprintf("line %d: cycle number %v is not a positive integer", line, cycle)))
		}
		s.Cycle = int(cycle)
		if n := len(table.Samples); n > 0 && s.Cycle < table.Samples[n-1].Cycle {
			return nil, withStage(apperrors.NewSchemaError(source, domain.ColumnCycle,
				fmt.Sprintf("line %d: cycle number %d follows cycle %d", line, s.Cycle, table.Samples[n-1].Cycle)))
		}

		if s.DisplacementRaw, err = field(opts.DisplacementColumn); err != nil {
			return nil, err
		}
		if s.Time, err = field(domain.ColumnTime); err != nil {
			return nil, err
		}
		if s.Potential, err = field(domain.ColumnPotential); err != nil {
			return nil, err
		}
		if s.Current, err = field(domain.ColumnCurrent); err != nil {
			return nil, err
		}
		if hasCharge {
			if s.Charge, err = parseField(record, chargeIdx, domain.ColumnCharge, source, line); err != nil {
				return nil, err
			}
		}

		if !seen[s.Cycle] {
			seen[s.Cycle] = true
			table.Cycles = append(table.Cycles, s.Cycle)
		}
		table.Samples = append(table.Samples, s)
	}

	if len(table.Samples) == 0 {
		err := apperrors.NewInsufficientDataError(StageLoad, "file has a header but no data rows")
		err.File = source
		return nil, err
	}
	table.ZeroValue = table.Samples[0].DisplacementRaw
	return table, nil
}

func headerIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, utf8BOM)
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}
	return index
}

func parseField(record []string, idx int, col, source string, line int) (float64, error) {
	if idx >= len(record) {
		return 0, withStage(apperrors.NewSchemaError(source, col,
			fmt.Sprintf("line %d: missing value for column %q", line, col)))
	}
	raw := strings.TrimSpace(record[idx])
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, withStage(apperrors.NewSchemaError(source, col,
			fmt.Sprintf("line %d: invalid number %q in column %q", line, raw, col)))
	}
	return v, nil
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func withStage(err *apperrors.PipelineError) *apperrors.PipelineError {
	err.Stage = StageLoad
	return err
}
