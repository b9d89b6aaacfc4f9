// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateCommand_Flags(t *testing.T) {
	cmd := NewMigrateCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())

	output := buf.String()
	assert.Contains(t, output, "--down")
	assert.Contains(t, output, "--steps")
}

func TestMigrateCommand_DownAndStepsExclusive(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/gatehouse")

	cmd := NewRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"migrate", "--down", "--steps=1"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")
}

func TestMigrateCommand_NoDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	cmd := NewRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"migrate"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestMigrateCommand_Properties(t *testing.T) {
	cmd := NewMigrateCmd()
	assert.Equal(t, "migrate", cmd.Use)
	assert.True(t, strings.Contains(cmd.Short, "migration"))
}
