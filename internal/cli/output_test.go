package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputFormatter_SuccessJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	data := map[string]string{"key": "value"}
	require.NoError(t, formatter.Success(data, func(io.Writer) {
		t.Fatal("text renderer must not run for json")
	}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Nil(t, resp.Error)
	assert.Equal(t, map[string]any{"key": "value"}, resp.Data)
}

func TestOutputFormatter_SuccessText(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Success("ignored", func(w io.Writer) {
		fmt.Fprintln(w, "rendered")
	}))
	assert.Equal(t, "rendered\n", buf.String())

	buf.Reset()
	require.NoError(t, formatter.Success("plain", nil))
	assert.Equal(t, "plain\n", buf.String())
}

func TestOutputFormatter_ErrorJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Error(ErrCodeConfig, "bad config", map[string]int{"line": 3}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeConfig, resp.Error.Code)
	assert.Equal(t, "bad config", resp.Error.Message)
}

func TestOutputFormatter_ErrorText(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf, Verbose: true}

	require.NoError(t, formatter.Error(ErrCodeDatabase, "locked", "busy"))
	assert.Equal(t, "Error [E003]: locked\nDetails: busy\n", buf.String())
}

func TestOutputFormatter_Fail(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}
	cause := errors.New("disk full")

	err := formatter.Fail(ExitFailure, "OUTPUT_WRITE_FAILURE", "simulation failed", cause)

	assert.Equal(t, "Error [OUTPUT_WRITE_FAILURE]: simulation failed: disk full\n", buf.String())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "simulation failed: disk full", err.Error())
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	out := &bytes.Buffer{}
	diag := &bytes.Buffer{}

	quiet := &OutputFormatter{Writer: out, ErrWriter: diag}
	quiet.VerboseLog("tick %d", 10)
	assert.Empty(t, diag.String())

	loud := &OutputFormatter{Writer: out, ErrWriter: diag, Verbose: true}
	loud.VerboseLog("tick %d", 10)
	assert.Equal(t, "tick 10\n", diag.String())
	assert.Empty(t, out.String())

	noErr := &OutputFormatter{Writer: out, Verbose: true}
	assert.Same(t, out, noErr.GetErrWriter())
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "usage")))

	wrapped := fmt.Errorf("outer: %w", WrapExitError(ExitCommandError, "inner", errors.New("cause")))
	assert.Equal(t, ExitCommandError, GetExitCode(wrapped))
}

func TestExitError_Message(t *testing.T) {
	assert.Equal(t, "usage", NewExitError(ExitFailure, "usage").Error())
	assert.Equal(t, "open: missing", WrapExitError(ExitFailure, "open", errors.New("missing")).Error())
}
