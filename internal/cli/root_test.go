package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd(t *testing.T) {
	t.Run("should require exactly one post URL", func(t *testing.T) {
		cmd := GetRootCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{})

		err := cmd.Execute()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "accepts 1 arg")
	})

	t.Run("should print the version", func(t *testing.T) {
		var out bytes.Buffer
		cmd := GetRootCmd()
		cmd.SetOut(&out)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{"--version"})

		require.NoError(t, cmd.Execute())
		assert.Contains(t, out.String(), "version 0.1.0")
	})

	t.Run("should surface missing configuration on eval", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "")

		cmd := GetRootCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{"eval"})

		err := cmd.Execute()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "OPENAI_API_KEY")
	})
}
