package archive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScanOptionalLocationPresent(t *testing.T) {
	loc := scanOptionalLocation(51.5, -0.1, 12.0, "Home")
	if assert.NotNil(t, loc) {
		assert.Equal(t, 51.5, loc.Latitude)
		assert.Equal(t, -0.1, loc.Longitude)
		if assert.NotNil(t, loc.AltitudeM) {
			assert.Equal(t, 12.0, *loc.AltitudeM)
		}
		if assert.NotNil(t, loc.NamedLocation) {
			assert.Equal(t, "Home", *loc.NamedLocation)
		}
	}
}

func TestScanOptionalLocationAbsent(t *testing.T) {
	loc := scanOptionalLocation(nil, nil, nil, nil)
	assert.Nil(t, loc)
}

func TestScanOptionalLocationWithoutAltitudeOrName(t *testing.T) {
	loc := scanOptionalLocation(51.5, -0.1, nil, nil)
	if assert.NotNil(t, loc) {
		assert.Nil(t, loc.AltitudeM)
		assert.Nil(t, loc.NamedLocation)
	}
}
