package stale

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nikolasavic/protectedfile/internal/lockrecord"
)

func TestCheckExpired(t *testing.T) {
	rec := lockrecord.Record{Machine: "whatever-unreachable-host", FreeAfter: 100}
	result := Check(rec, 200)
	assert.True(t, result.Stale)
	assert.Equal(t, ReasonExpired, result.Reason)
}

func TestCheckCrossHostUnknown(t *testing.T) {
	rec := lockrecord.Record{Machine: "definitely-not-this-host", FreeAfter: lockrecord.NoExpiry}
	result := Check(rec, 1000)
	assert.False(t, result.Stale)
	assert.Equal(t, ReasonUnknown, result.Reason)
}

func TestCheckSameHostAlivePID(t *testing.T) {
	host, err := os.Hostname()
	if err != nil {
		t.Skip("cannot determine hostname")
	}
	rec := lockrecord.Record{Machine: host, PID: os.Getpid(), FreeAfter: lockrecord.NoExpiry}
	result := Check(rec, 1000)
	assert.False(t, result.Stale)
}
