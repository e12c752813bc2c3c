package cmd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecute_Help(t *testing.T) {
	for _, args := range [][]string{nil, {"help"}, {"-h"}, {"--help"}} {
		assert.NoError(t, Execute(context.Background(), args))
	}
}

func TestUsage_ListsServeFlags(t *testing.T) {
	for _, flag := range []string{"--config", "--host", "--port"} {
		assert.Contains(t, usage, flag)
		assert.Contains(t, serveUsage, flag)
	}
}

func TestExecute_UnknownCommand(t *testing.T) {
	err := Execute(context.Background(), []string{"launch"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown command "launch"`)
}

func TestServe_RejectsBadFlags(t *testing.T) {
	err := Execute(context.Background(), []string{"serve", "--port", "not-a-number"})
	require.Error(t, err)
}

func TestServe_RejectsPortOverride(t *testing.T) {
	err := Execute(context.Background(), []string{"serve", "--port", "70000"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port override")
}

func TestServe_InvalidConfiguration(t *testing.T) {
	t.Setenv("TOKEN_LIMIT", "-1")

	err := Execute(context.Background(), []string{"serve"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token_limit")
}
