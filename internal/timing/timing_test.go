package timing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scorewire/telecast/internal/config"
)

func TestResolveByScore(t *testing.T) {
	t.Run("most specific tier wins on overlap", func(t *testing.T) {
		tmpl := Resolve(85, "")
		require.NotNil(t, tmpl)
		assert.Equal(t, "derby", tmpl.Name)
	})

	t.Run("mid-range score picks big_match", func(t *testing.T) {
		tmpl := Resolve(60, "")
		require.NotNil(t, tmpl)
		assert.Equal(t, "big_match", tmpl.Name)
	})

	t.Run("low score picks standard", func(t *testing.T) {
		tmpl := Resolve(25, "")
		require.NotNil(t, tmpl)
		assert.Equal(t, "standard", tmpl.Name)
	})

	t.Run("boundary scores are inclusive", func(t *testing.T) {
		require.NotNil(t, Resolve(80, ""))
		assert.Equal(t, "derby", Resolve(80, "").Name)
		require.NotNil(t, Resolve(50, ""))
		assert.Equal(t, "big_match", Resolve(50, "").Name)
		require.NotNil(t, Resolve(20, ""))
		assert.Equal(t, "standard", Resolve(20, "").Name)
	})

	t.Run("score below every range resolves to nothing", func(t *testing.T) {
		assert.Nil(t, Resolve(10, ""))
		assert.Nil(t, Resolve(0, ""))
	})
}

func TestResolveByName(t *testing.T) {
	t.Run("override ignores the score", func(t *testing.T) {
		tmpl := Resolve(5, "derby")
		require.NotNil(t, tmpl)
		assert.Equal(t, "derby", tmpl.Name)
	})

	t.Run("unknown name resolves to nothing", func(t *testing.T) {
		assert.Nil(t, Resolve(85, "cup_final"))
	})
}

func TestOffsetMinutes(t *testing.T) {
	assert.Equal(t, 0, ContentRule{AtKickoff: true}.OffsetMinutes())
	assert.Equal(t, -180, ContentRule{HoursBeforeKickoff: 3}.OffsetMinutes())
	assert.Equal(t, -90, ContentRule{MinutesBeforeKickoff: 90}.OffsetMinutes())
	assert.Equal(t, 120, ContentRule{HoursAfterKickoff: 2}.OffsetMinutes())

	// AtKickoff wins over any other field.
	assert.Equal(t, 0, ContentRule{AtKickoff: true, HoursBeforeKickoff: 3}.OffsetMinutes())
}

func TestRegistryContentTypesAreKnown(t *testing.T) {
	for _, tmpl := range Registry {
		for _, rule := range tmpl.ContentSchedule {
			assert.True(t, config.KnownContentTypes[rule.ContentType],
				"template %s references unknown content type %s", tmpl.Name, rule.ContentType)
		}
	}
}
