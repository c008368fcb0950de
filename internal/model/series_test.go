package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScalarForecastableRoundTripsLiteralValue(t *testing.T) {
	sf := NewScalarValue(12.5)
	data, err := json.Marshal(sf)
	require.NoError(t, err)
	assert.Equal(t, "12.5", string(data))

	var decoded ScalarForecastable
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, decoded.IsResolvedValue())
	assert.Equal(t, 12.5, decoded.Value)
}

func TestScalarForecastableRoundTripsForecastRequest(t *testing.T) {
	sf := NewScalarForecast("FMI", "weather")
	data, err := json.Marshal(sf)
	require.NoError(t, err)

	var decoded ScalarForecastable
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.False(t, decoded.IsResolvedValue())
	assert.Equal(t, "FMI", decoded.Forecast.Name)
	assert.Equal(t, "weather", decoded.Forecast.FType)
}

func TestScalarForecastableUnmarshalRejectsGarbage(t *testing.T) {
	var decoded ScalarForecastable
	err := json.Unmarshal([]byte(`"not a number or object"`), &decoded)
	require.Error(t, err)
}

func TestScalarForecastableExpandsLiteralToBroadcastSeries(t *testing.T) {
	line := []time.Time{
		time.Date(2024, 11, 19, 13, 0, 0, 0, time.UTC),
		time.Date(2024, 11, 19, 14, 0, 0, 0, time.UTC),
	}
	sf := NewScalarValue(3.0)
	f := sf.expand(line, []string{"S1"})
	assert.True(t, f.IsResolved())
	require.Len(t, f.Data.TSData, 1)
	assert.Equal(t, 3.0, f.Data.TSData[0].Series[line[0]])
}

func TestScalarForecastableExpandsForecastRequestUnchanged(t *testing.T) {
	sf := NewScalarForecast("ELERING", "electricity")
	f := sf.expand(nil, []string{"S1"})
	assert.False(t, f.IsResolved())
	assert.Equal(t, "ELERING", f.Forecast.Name)
}
