package timeseries

import (
	"fmt"
	"os"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

// trajectorySchema is the long-format layout used for trajectory files:
// one row per (sample, channel, timepoint).
var trajectorySchema = arrow.NewSchema([]arrow.Field{
	{Name: "sample", Type: arrow.PrimitiveTypes.Int32},
	{Name: "channel", Type: arrow.PrimitiveTypes.Int32},
	{Name: "time", Type: arrow.PrimitiveTypes.Float64},
	{Name: "value", Type: arrow.PrimitiveTypes.Float64},
}, nil)

// Save writes the trajectory set to path as an Arrow IPC stream, one record
// batch per trajectory.
func (ts *TimeSeries) Save(path string) error {
	if err := ts.Validate(); err != nil {
		return fmt.Errorf("saving trajectories: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("saving trajectories: %w", err)
	}
	defer f.Close()

	mem := memory.DefaultAllocator
	w := ipc.NewWriter(f, ipc.WithSchema(trajectorySchema), ipc.WithAllocator(mem))
	defer w.Close()

	b := array.NewRecordBuilder(mem, trajectorySchema)
	defer b.Release()

	for i, traj := range ts.States {
		samples := b.Field(0).(*array.Int32Builder)
		channels := b.Field(1).(*array.Int32Builder)
		times := b.Field(2).(*array.Float64Builder)
		values := b.Field(3).(*array.Float64Builder)

		for c, series := range traj {
			for t, v := range series {
				samples.Append(int32(i))
				channels.Append(int32(c))
				times.Append(ts.T[t])
				values.Append(v)
			}
		}

		rec := b.NewRecord()
		err := w.Write(rec)
		rec.Release()
		if err != nil {
			return fmt.Errorf("saving trajectories: write batch %d: %w", i, err)
		}
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("saving trajectories: %w", err)
	}
	return nil
}

// Load reads a trajectory set written by Save.
func Load(path string) (*TimeSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loading trajectories: %w", err)
	}
	defer f.Close()

	r, err := ipc.NewReader(f, ipc.WithAllocator(memory.DefaultAllocator))
	if err != nil {
		return nil, fmt.Errorf("loading trajectories: %w", err)
	}
	defer r.Release()

	var (
		axis   []float64
		states [][][]float64
	)

	for r.Next() {
		rec := r.Record()
		samples := rec.Column(0).(*array.Int32)
		channels := rec.Column(1).(*array.Int32)
		times := rec.Column(2).(*array.Float64)
		values := rec.Column(3).(*array.Float64)

		for row := 0; row < int(rec.NumRows()); row++ {
			i := int(samples.Value(row))
			c := int(channels.Value(row))
			tv := times.Value(row)
			v := values.Value(row)

			for len(states) <= i {
				states = append(states, nil)
			}
			for len(states[i]) <= c {
				states[i] = append(states[i], nil)
			}
			states[i][c] = append(states[i][c], v)

			// The time axis is shared; collect it from the first
			// trajectory's first channel.
			if i == 0 && c == 0 {
				axis = append(axis, tv)
			}
		}
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("loading trajectories: %w", err)
	}

	ts := &TimeSeries{T: axis, States: states}
	if err := ts.Validate(); err != nil {
		return nil, fmt.Errorf("loading trajectories: %w", err)
	}
	return ts, nil
}
