package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveCmd(t *testing.T) {
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"resolve", "-k", "Id", "-k", "user_name", "-k", "ID", "--force", "mask", "USER_NAME", "id", "missing"})
	require.NoError(t, root.Execute())

	assert.Equal(t, "kind=mask-table strategy=ascii count=2\n"+
		"\"USER_NAME\"\t1\t\"user_name\"\n"+
		"\"id\"\t0\t\"Id\"\n"+
		"\"missing\"\t-1\n", out.String())
}

func TestResolveCmd_BadRepresentation(t *testing.T) {
	root := newRootCmd()
	root.SetOut(new(bytes.Buffer))
	root.SetErr(new(bytes.Buffer))
	root.SetArgs([]string{"resolve", "--force", "tree", "x"})
	assert.Error(t, root.Execute())
}
