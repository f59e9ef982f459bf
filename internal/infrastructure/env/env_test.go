package env

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnvService_Getters(t *testing.T) {
	t.Setenv("TEST_BOOL", "true")
	t.Setenv("TEST_BAD_BOOL", "maybe")
	t.Setenv("TEST_INT", "4")
	t.Setenv("TEST_DURATION", "1500ms")
	t.Setenv("TEST_SECONDS", "3")
	t.Setenv("TEST_STRING", "sqlite")

	e := &EnvService{}

	assert.True(t, e.GetBool("TEST_BOOL", false))
	assert.True(t, e.GetBool("TEST_BAD_BOOL", true))
	assert.Equal(t, 4, e.GetInt("TEST_INT", 1))
	assert.Equal(t, 7, e.GetInt("TEST_UNSET", 7))
	assert.Equal(t, 1500*time.Millisecond, e.GetDuration("TEST_DURATION", time.Second))
	assert.Equal(t, 3*time.Second, e.GetDuration("TEST_SECONDS", time.Second))
	assert.Equal(t, time.Second, e.GetDuration("TEST_UNSET", time.Second))
	assert.Equal(t, "sqlite", e.GetString("TEST_STRING", "memory"))
	assert.Equal(t, "memory", e.GetString("TEST_UNSET", "memory"))
}
