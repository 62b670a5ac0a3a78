package domain

// Column headers of the potentiostat text export.
const (
	ColumnCycle        = "cycle number"
	ColumnDisplacement = "Analog IN 1/V"
	ColumnTime         = "time/s"
	ColumnPotential    = "Ewe/V"
	ColumnCurrent      = "<I>/mA"
	ColumnCharge       = "(Q-Qo)/C"
)

// Column headers added by the pipeline.
const (
	ColumnNormalized         = "Normalized Displacement (um)"
	ColumnPercentTotal       = "Displacement (%)"
	ColumnPercentPerCycle    = "Per Cycle Displacement (%)"
	ColumnMinusBaseline      = "Displacement minus baseline (um)"
	ColumnPercentMinusBase   = "Displacement minus baseline (%)"
	ColumnAvgTime            = "Average Time (s)"
	ColumnAvgPotential       = "Average Potential (V)"
	ColumnAvgCurrent         = "Average Current (mA)"
	ColumnCurrentStdDev      = "Current Stand Dev (mA)"
	ColumnAvgCharge          = "Average Charge (C)"
	ColumnChargeStdDev       = "Charge Stand Dev (C)"
	ColumnAvgDisplacement    = "Average Displacement (um)"
	ColumnDisplacementStdDev = "Displacement Stand Dev (um)"
	ColumnAvgPercent         = "Average Displacement (%)"
	ColumnPercentStdDev      = "Displacement Stand Dev (%)"
	ColumnContributors       = "Contributing Cycles"
	ColumnDisplacementRate   = "dD/dt"
	ColumnChargeRate         = "dQ/dt"
)

// ExperimentType describes the electrochemical technique of a measurement
type ExperimentType string

const (
	ExperimentCV   ExperimentType = "CV"   // Cyclic voltammetry
	ExperimentCCCD ExperimentType = "CCCD" // Constant current charge/discharge
)

// DeviceType describes the cell under test
type DeviceType string

const (
	DeviceSuperCap DeviceType = "SuperCap"
	DeviceBattery  DeviceType = "Battery"
)

// FileMetadata identifies one measurement file inside a batch
type FileMetadata struct {
	Label      string         `json:"label"`
	Path       string         `json:"path"`
	Experiment ExperimentType `json:"experiment,omitempty" validate:"omitempty,oneof=CV CCCD"`
	Device     DeviceType     `json:"device,omitempty" validate:"omitempty,oneof=SuperCap Battery"`
}

// Column is a named series used by exporters.
type Column struct {
	Name   string
	Values []float64
}

// RawSample is one row of the instrument export
type RawSample struct {
	Time            float64 `json:"time"`
	Cycle           int     `json:"cycle"`
	Potential       float64 `json:"potential"`
	Current         float64 `json:"current"`
	Charge          float64 `json:"charge"`
	DisplacementRaw float64 `json:"displacement_raw"`
}

// RawTable holds the rows of one file in acquisition order.
type RawTable struct {
	Source             string      `json:"source"`
	DisplacementColumn string      `json:"displacement_column"`
	Samples            []RawSample `json:"samples"`
	// Cycles lists the distinct cycle numbers in order of first appearance.
	Cycles    []int   `json:"cycles"`
	ZeroValue float64 `json:"zero_value"`
	HasCharge bool    `json:"has_charge"`
}

// Len returns the number of samples
func (t *RawTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Samples)
}

// Columns returns the instrument columns in export order.
func (t *RawTable) Columns() []Column {
	return t.columnsFor(nil)
}

// columnsFor returns the instrument columns for the given rows, or all rows
// when rows is nil.
func (t *RawTable) columnsFor(rows []int) []Column {
	n := len(t.Samples)
	if rows != nil {
		n = len(rows)
	}
	sample := func(i int) RawSample {
		if rows != nil {
			return t.Samples[rows[i]]
		}
		return t.Samples[i]
	}

	cycle := make([]float64, n)
	tm := make([]float64, n)
	ewe := make([]float64, n)
	cur := make([]float64, n)
	disp := make([]float64, n)
	var charge []float64
	if t.HasCharge {
		charge = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		s := sample(i)
		cycle[i] = float64(s.Cycle)
		tm[i] = s.Time
		ewe[i] = s.Potential
		cur[i] = s.Current
		disp[i] = s.DisplacementRaw
		if charge != nil {
			charge[i] = s.Charge
		}
	}

	name := t.DisplacementColumn
	if name == "" {
		name = ColumnDisplacement
	}
	cols := []Column{
		{Name: ColumnCycle, Values: cycle},
		{Name: ColumnTime, Values: tm},
		{Name: ColumnPotential, Values: ewe},
		{Name: ColumnCurrent, Values: cur},
	}
	if charge != nil {
		cols = append(cols, Column{Name: ColumnCharge, Values: charge})
	}
	return append(cols, Column{Name: name, Values: disp})
}

// CycleGroup is the set of row indices belonging to one cycle.
type CycleGroup struct {
	Cycle int   `json:"cycle"`
	Rows  []int `json:"rows"`
}

// NormalizedTable adds zero-referenced displacement columns to a RawTable.
// All slices are parallel to Raw.Samples.
type NormalizedTable struct {
	Raw             *RawTable `json:"-"`
	RefThickness    float64   `json:"ref_thickness"`
	Normalized      []float64 `json:"normalized"`
	PercentTotal    []float64 `json:"percent_total"`
	PercentPerCycle []float64 `json:"percent_per_cycle"`
}

// Len returns the number of rows
func (t *NormalizedTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Normalized)
}

// Columns returns the instrument columns followed by the normalized ones.
func (t *NormalizedTable) Columns() []Column {
	cols := t.Raw.Columns()
	return append(cols,
		Column{Name: ColumnNormalized, Values: t.Normalized},
		Column{Name: ColumnPercentTotal, Values: t.PercentTotal},
		Column{Name: ColumnPercentPerCycle, Values: t.PercentPerCycle},
	)
}

// CorrectedTable is the subset of a NormalizedTable the baseline was fitted
// on, with the baseline removed. Rows indexes into Source.Raw.Samples.
type CorrectedTable struct {
	Source   *NormalizedTable `json:"-"`
	Strategy string           `json:"strategy"`
	// FitOrder is the polynomial order actually used by the estimator.
	FitOrder                  int       `json:"fit_order"`
	Rows                      []int     `json:"rows"`
	DisplacementMinusBaseline []float64 `json:"displacement_minus_baseline"`
	PercentMinusBaseline      []float64 `json:"percent_minus_baseline"`
}

// Len returns the number of retained rows
func (t *CorrectedTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Sample returns the raw sample behind retained row i.
func (t *CorrectedTable) Sample(i int) RawSample {
	return t.Source.Raw.Samples[t.Rows[i]]
}

// Cycles returns the cycle list of the originating file.
func (t *CorrectedTable) Cycles() []int {
	return t.Source.Raw.Cycles
}

// HasCharge reports whether the originating file carries a charge column
func (t *CorrectedTable) HasCharge() bool {
	return t.Source.Raw.HasCharge
}

// Columns returns the retained rows of every upstream column followed by
// the corrected displacement.
func (t *CorrectedTable) Columns() []Column {
	cols := t.Source.Raw.columnsFor(t.Rows)
	pick := func(src []float64) []float64 {
		out := make([]float64, len(t.Rows))
		for i, r := range t.Rows {
			out[i] = src[r]
		}
		return out
	}
	return append(cols,
		Column{Name: ColumnNormalized, Values: pick(t.Source.Normalized)},
		Column{Name: ColumnPercentTotal, Values: pick(t.Source.PercentTotal)},
		Column{Name: ColumnPercentPerCycle, Values: pick(t.Source.PercentPerCycle)},
		Column{Name: ColumnMinusBaseline, Values: t.DisplacementMinusBaseline},
		Column{Name: ColumnPercentMinusBase, Values: t.PercentMinusBaseline},
	)
}

// AveragedResult is the per-position average over the interior cycles of a
// file. Every slice has the same length.
type AveragedResult struct {
	Time               []float64 `json:"time"`
	Potential          []float64 `json:"potential"`
	Current            []float64 `json:"current"`
	CurrentStdDev      []float64 `json:"current_std"`
	Charge             []float64 `json:"charge,omitempty"`
	ChargeStdDev       []float64 `json:"charge_std,omitempty"`
	Displacement       []float64 `json:"displacement"`
	DisplacementStdDev []float64 `json:"displacement_std"`
	Percent            []float64 `json:"percent"`
	PercentStdDev      []float64 `json:"percent_std"`
	// Contributors counts the cycles that reached each position.
	Contributors   []int `json:"contributors"`
	CyclesAveraged []int `json:"cycles_averaged"`
	HasCharge      bool  `json:"has_charge"`

	// Filled in by the derivative stage.
	DisplacementRate []float64 `json:"displacement_rate,omitempty"`
	ChargeRate       []float64 `json:"charge_rate,omitempty"`
}

// Len returns the number of averaged positions
func (r *AveragedResult) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Time)
}

// Columns returns the averaged series in export order.
func (r *AveragedResult) Columns() []Column {
	cols := []Column{
		{Name: ColumnAvgTime, Values: r.Time},
		{Name: ColumnAvgPotential, Values: r.Potential},
		{Name: ColumnAvgCurrent, Values: r.Current},
		{Name: ColumnCurrentStdDev, Values: r.CurrentStdDev},
	}
	if r.HasCharge {
		cols = append(cols,
			Column{Name: ColumnAvgCharge, Values: r.Charge},
			Column{Name: ColumnChargeStdDev, Values: r.ChargeStdDev},
		)
	}
	cols = append(cols,
		Column{Name: ColumnAvgDisplacement, Values: r.Displacement},
		Column{Name: ColumnDisplacementStdDev, Values: r.DisplacementStdDev},
		Column{Name: ColumnAvgPercent, Values: r.Percent},
		Column{Name: ColumnPercentStdDev, Values: r.PercentStdDev},
	)
	if r.DisplacementRate != nil {
		cols = append(cols, Column{Name: ColumnDisplacementRate, Values: r.DisplacementRate})
	}
	if r.ChargeRate != nil {
		cols = append(cols, Column{Name: ColumnChargeRate, Values: r.ChargeRate})
	}
	contributors := make([]float64, len(r.Contributors))
	for i, c := range r.Contributors {
		contributors[i] = float64(c)
	}
	return append(cols, Column{Name: ColumnContributors, Values: contributors})
}

// ProcessedFile bundles every stage output of one measurement file
type ProcessedFile struct {
	FileMetadata
	Raw        *RawTable        `json:"-"`
	Normalized *NormalizedTable `json:"-"`
	Corrected  *CorrectedTable  `json:"-"`
	Averaged   *AveragedResult  `json:"averaged"`
}
