package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/LerianStudio/payments-engine/payments"
	constant "github.com/LerianStudio/payments-engine/payments/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenarioCSV = `type, client, tx, amount
deposit, 1, 1, 1.0
deposit, 2, 2, 2.0
deposit, 1, 3, 2.0
withdrawal, 1, 4, 1.5
withdrawal, 2, 5, 3.0
`

type result struct {
	stdout string
	stderr string
	err    error
}

func execute(t *testing.T, stdin string, args ...string) result {
	t.Helper()

	var stdout, stderr bytes.Buffer

	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	err := cmd.ExecuteContext(context.Background())

	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestRoot_ReadsStdin(t *testing.T) {
	res := execute(t, scenarioCSV)
	require.NoError(t, res.err)

	assert.Equal(t, `client,available,held,total,locked
1,1.5000,0.0000,1.5000,false
2,2.0000,0.0000,2.0000,false
`, res.stdout)
}

func TestRoot_ReadsFileArgument(t *testing.T) {
	path := writeFile(t, "tx.csv", scenarioCSV)

	for _, workers := range []string{"1", "4"} {
		res := execute(t, "", "--workers", workers, "--chunk-size", "2", path)
		require.NoError(t, res.err, "workers=%s", workers)
		assert.Contains(t, res.stdout, "1,1.5000,0.0000,1.5000,false")
	}
}

func TestRoot_DashMeansStdin(t *testing.T) {
	res := execute(t, scenarioCSV, "-")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "2,2.0000,0.0000,2.0000,false")
}

func TestRoot_JSONFormat(t *testing.T) {
	res := execute(t, scenarioCSV, "--format", "json")
	require.NoError(t, res.err)

	var accounts []map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &accounts))
	require.Len(t, accounts, 2)
	assert.EqualValues(t, 1, accounts[0]["client"])
	assert.Equal(t, false, accounts[1]["locked"])
}

func TestRoot_InvalidFlags(t *testing.T) {
	res := execute(t, scenarioCSV, "--format", "yaml")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "output_format")
	assert.Empty(t, res.stdout)

	res = execute(t, scenarioCSV, "--workers", "-2")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "decode_workers")
}

func TestRoot_MissingInputFile(t *testing.T) {
	res := execute(t, "", filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "open input")
}

func TestRoot_MalformedInputAborts(t *testing.T) {
	res := execute(t, "type,client,tx,amount\ndeposit,1,1,1.0\ndeposit,x,2,1.0\n", "--log-level", "error")
	require.Error(t, res.err)

	var resp payments.Response
	require.ErrorAs(t, res.err, &resp)
	assert.Equal(t, constant.ErrMalformedRecord.Error(), resp.Code)
	assert.Equal(t, "Event", resp.EntityType)
	require.ErrorIs(t, res.err, constant.ErrMalformedRecord)

	assert.Empty(t, res.stdout, "aborted runs print no accounts")
	assert.Contains(t, res.stderr, "run aborted")
	assert.NotContains(t, res.stderr, "deposit,x", "production logs only carry the error type")
}

func TestRoot_RejectionsReport(t *testing.T) {
	report := filepath.Join(t.TempDir(), "rejections.csv")

	res := execute(t, scenarioCSV, "--rejections", report)
	require.NoError(t, res.err)

	body, err := os.ReadFile(report)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "type,client,tx,amount,code,reason", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "withdrawal,2,5,3.0000,0018,"), lines[1])
}

func TestRoot_ConfigFileAndFlagPrecedence(t *testing.T) {
	cfgPath := writeFile(t, "payments.toml", "output_format = \"json\"\ndecode_workers = 2\n")

	res := execute(t, scenarioCSV, "--config", cfgPath)
	require.NoError(t, res.err)
	assert.True(t, strings.HasPrefix(res.stdout, "["), res.stdout)

	res = execute(t, scenarioCSV, "--config", cfgPath, "--format", "csv")
	require.NoError(t, res.err)
	assert.True(t, strings.HasPrefix(res.stdout, "client,"), res.stdout)
}

func TestRoot_SnapshotExportAndList(t *testing.T) {
	db := filepath.Join(t.TempDir(), "snapshots.db")

	res := execute(t, scenarioCSV, "--snapshot-db", db, "--preallocate")
	require.NoError(t, res.err)

	res = execute(t, "", "snapshots", db)
	require.NoError(t, res.err)

	lines := strings.Split(strings.TrimSpace(res.stdout), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "RUN"))

	runID := strings.Fields(lines[1])[0]
	assert.Equal(t, "2", strings.Fields(lines[1])[1])

	res = execute(t, "", "snapshots", db, "--run", runID)
	require.NoError(t, res.err)
	assert.Equal(t, `client,available,held,total,locked
1,1.5000,0.0000,1.5000,false
2,2.0000,0.0000,2.0000,false
`, res.stdout)

	res = execute(t, "", "snapshots", db, "--run", "missing")
	require.Error(t, res.err)
}

func TestVersion(t *testing.T) {
	res := execute(t, "", "version")
	require.NoError(t, res.err)
	assert.True(t, strings.HasPrefix(res.stdout, "payments-engine dev"), res.stdout)
}
