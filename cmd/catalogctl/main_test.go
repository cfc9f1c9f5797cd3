package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type env struct {
	catalogPath string
	ledgerPath  string
}

func setupEnv(t *testing.T) env {
	t.Helper()
	dir := t.TempDir()
	testChdir(t, dir)
	e := env{
		catalogPath: filepath.Join(dir, "data", "catalog.db"),
		ledgerPath:  filepath.Join(dir, "data", "ledger.db"),
	}
	t.Setenv("CATALOG_DB_PATH", e.catalogPath)
	t.Setenv("LEDGER_DB_PATH", e.ledgerPath)
	t.Setenv("LEDGER_DRIVER", "sqlite")
	t.Setenv("LINE_CHANNEL_SECRET", "")
	t.Setenv("LINE_CHANNEL_ACCESS_TOKEN", "")
	t.Setenv("LOG_LEVEL", "ERROR")
	return e
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestBuildCmd(t *testing.T) {
	e := setupEnv(t)

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "富美家"))
	require.NoError(t, f.SetSheetRow("富美家", "A1", &[]any{"品牌", "型號", "色名"}))
	require.NoError(t, f.SetSheetRow("富美家", "A2", &[]any{"富美家", "F200", "黑"}))
	workbook := filepath.Join(t.TempDir(), "catalog.xlsx")
	require.NoError(t, f.SaveAs(workbook))

	out, err := run(t, "build", workbook, "--json")
	require.NoError(t, err)

	var report struct {
		Path        string
		SummaryRows int
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, e.catalogPath, report.Path)
	assert.Equal(t, 1, report.SummaryRows)
}

func TestBuildCmd_MissingWorkbook(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "build", filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.Error(t, err)
}

func TestLedgerCmds(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "ledger", "grant", "U1")
	require.NoError(t, err)
	assert.Equal(t, "U1: authorized=true\n", out)

	_, err = run(t, "ledger", "grant", "U2")
	require.NoError(t, err)
	_, err = run(t, "ledger", "revoke", "U2")
	require.NoError(t, err)

	out, err = run(t, "ledger", "show")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "U1")
	assert.Contains(t, lines[1], "true")
	assert.Contains(t, lines[2], "false")

	out, err = run(t, "ledger", "show", "U1", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"RequesterID": "U1"`)

	_, err = run(t, "ledger", "show", "nobody")
	assert.Error(t, err)
}

func TestLedgerCmds_RejectSheetsDriver(t *testing.T) {
	setupEnv(t)
	t.Setenv("LEDGER_DRIVER", "sheets")
	t.Setenv("SECURITY_SHEET_ID", "sheet-id")

	_, err := run(t, "ledger", "show")
	assert.Error(t, err)
}

func TestAskCmd_NewRequesterDenied(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "ask", "--user", "U9", "--json", "富美家", "F200")
	require.NoError(t, err)

	var reply struct {
		Reply   string `json:"reply"`
		Outcome string `json:"outcome"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &reply))
	assert.Equal(t, "denied", reply.Outcome)
}

// testChdir changes the working directory for the duration of the test
// (stand-in for testing.T.Chdir, which needs Go 1.24).
func testChdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
