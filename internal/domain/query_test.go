package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeWindow_Query(t *testing.T) {
	w := NewTimeWindow(DefaultStart, 12*time.Second, 30*time.Second)
	q := w.Query()
	require.NoError(t, q.Validate())
	require.Len(t, q, 2)

	assert.Equal(t, InstrumentAIA, q[0].Instrument)
	assert.Empty(t, q[0].Physobs)
	assert.Equal(t, DefaultStart.Add(12*time.Second), q[0].Time.End)

	assert.Equal(t, InstrumentHMI, q[1].Instrument)
	assert.Equal(t, PhysobsLOSMagneticField, q[1].Physobs)
	assert.Equal(t, DefaultStart.Add(30*time.Second), q[1].Time.End)
}

func TestFilter_Validate(t *testing.T) {
	start := DefaultStart
	assert.Error(t, Filter{Time: TimeRange{Start: start, End: start}}.Validate())
	assert.Error(t, Filter{Instrument: "AIA"}.Validate())
	assert.Error(t, Filter{Instrument: "AIA", Time: TimeRange{Start: start, End: start.Add(-time.Second)}}.Validate())
	assert.NoError(t, Filter{Instrument: "AIA", Time: TimeRange{Start: start, End: start}}.Validate())
	assert.Error(t, Query{}.Validate())
}

func TestWavelength_Label(t *testing.T) {
	assert.Equal(t, "17.1 nm", AIA171.Label())
	assert.Equal(t, "9.4 nm", AIA94.Label())
	assert.Equal(t, "170 nm", AIA1700.Label())
	assert.Equal(t, "6173", HMI6173.String())
	assert.True(t, HMI6173.IsMagnetogram())
	assert.False(t, AIA1700.IsMagnetogram())

	w, err := ParseWavelength("6173.0")
	require.NoError(t, err)
	assert.Equal(t, HMI6173, w)
}

func TestResultSet_Providers(t *testing.T) {
	rs := ResultSet{
		{Provider: "JSOC", FileID: "a", SizeKB: 10},
		{Provider: "SDAC", FileID: "b", SizeKB: 5},
		{Provider: "JSOC", FileID: "c"},
	}
	assert.Equal(t, []string{"JSOC", "SDAC"}, rs.Providers())
	assert.Equal(t, []string{"a", "c"}, rs.FileIDs("JSOC"))
	assert.Equal(t, 15.0, rs.TotalSizeKB())
}

func TestScene_Validate(t *testing.T) {
	s := DefaultScene()
	require.NoError(t, s.Validate())

	bad := DefaultScene()
	bad.CropBox.Width = 0
	assert.Error(t, bad.Validate())

	bad = DefaultScene()
	bad.InterpolationOrder = 5
	assert.ErrorIs(t, bad.Validate(), ErrInterpolationOrder)
}
