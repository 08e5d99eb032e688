package queue

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseBrokerURL(t *testing.T) {
	network, addr, err := parseBrokerURL("tcp://localhost:61613")
	require.NoError(t, err)
	require.Equal(t, "tcp", network)
	require.Equal(t, "localhost:61613", addr)
}

func TestParseBrokerURLRejectsMissingHost(t *testing.T) {
	_, _, err := parseBrokerURL("tcp://")
	require.Error(t, err)
}

func TestParseBrokerURLRejectsGarbage(t *testing.T) {
	_, _, err := parseBrokerURL("not a url")
	require.Error(t, err)
}
