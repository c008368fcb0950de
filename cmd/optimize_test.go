//go:build !integration

package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/hertta/internal/model"
)

func TestJobRequestBodyToRequestDefaultsStartToNow(t *testing.T) {
	body := jobRequestBody{
		TimeLineSettings: model.DefaultTimeLineSettings(),
		Scenarios:        []model.Scenario{{Name: "S1", Weight: 1.0}},
	}
	before := time.Now().UTC()
	req := body.toRequest()
	after := time.Now().UTC()

	assert.False(t, req.Start.Before(before))
	assert.False(t, req.Start.After(after))
	assert.Equal(t, "", req.Country)
	assert.Equal(t, "", req.Place)
}

func TestJobRequestBodyToRequestUsesExplicitStartAndLocation(t *testing.T) {
	start := time.Date(2024, 11, 19, 13, 0, 0, 0, time.UTC)
	body := jobRequestBody{
		TimeLineSettings: model.DefaultTimeLineSettings(),
		Scenarios:        []model.Scenario{{Name: "S1", Weight: 1.0}},
		Start:            &start,
		Location:         &jobLocation{Country: "Finland", Place: "Helsinki"},
	}
	req := body.toRequest()

	assert.True(t, req.Start.Equal(start))
	assert.Equal(t, "Finland", req.Country)
	assert.Equal(t, "Helsinki", req.Place)
}
