package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-pos/internal/app"
	_ "github.com/odyssey-erp/odyssey-pos/internal/testing/guard"
)

func TestMainSkipsRuntimeInTestMode(t *testing.T) {
	require.True(t, app.InTestMode())

	args := os.Args
	t.Cleanup(func() { os.Args = args })
	os.Args = []string{"odyssey-pos"}

	require.NotPanics(t, main)
}
