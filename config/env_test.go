package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvAsTimeDuration(t *testing.T) {
	t.Setenv("DT_TEST_SECONDS", "90")
	t.Setenv("DT_TEST_DURATION", "15m")
	t.Setenv("DT_TEST_GARBAGE", "soon")

	assert.Equal(t, 90*time.Second, getEnvAsTimeDuration("DT_TEST_SECONDS", time.Second))
	assert.Equal(t, 15*time.Minute, getEnvAsTimeDuration("DT_TEST_DURATION", time.Second))
	assert.Equal(t, time.Second, getEnvAsTimeDuration("DT_TEST_GARBAGE", time.Second))
	assert.Equal(t, time.Second, getEnvAsTimeDuration("DT_TEST_UNSET", time.Second))
}

func TestGetEnvAsSlice(t *testing.T) {
	t.Setenv("DT_TEST_ORIGINS", " http://a.nl , ,http://b.nl")
	assert.Equal(t, []string{"http://a.nl", "http://b.nl"}, getEnvAsSlice("DT_TEST_ORIGINS", nil))
	assert.Equal(t, []string{"x"}, getEnvAsSlice("DT_TEST_UNSET", []string{"x"}))
}

func TestBlankValuesFallBack(t *testing.T) {
	t.Setenv("DT_TEST_BLANK", "   ")
	assert.Equal(t, "default", getEnvAsString("DT_TEST_BLANK", "default"))
	assert.Equal(t, 7, getEnvAsInt("DT_TEST_BLANK", 7))
	assert.True(t, getEnvAsBool("DT_TEST_BLANK", true))
}

func TestGetEnvAsIntAndBool(t *testing.T) {
	t.Setenv("DT_TEST_INT", "42")
	t.Setenv("DT_TEST_BAD_INT", "forty-two")
	t.Setenv("DT_TEST_BOOL", "false")

	assert.Equal(t, 42, getEnvAsInt("DT_TEST_INT", 0))
	assert.Equal(t, 3, getEnvAsInt("DT_TEST_BAD_INT", 3))
	assert.False(t, getEnvAsBool("DT_TEST_BOOL", true))
}
