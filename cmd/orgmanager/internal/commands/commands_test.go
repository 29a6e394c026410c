package commands

import (
	"bytes"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanCmd(t *testing.T) {
	var buf bytes.Buffer
	cmd := &PlanCmd{Saga: "acquire", out: &buf}

	require.NoError(t, cmd.Run(&Globals{}))
	assert.Contains(t, buf.String(), "digraph acquire")
	assert.Contains(t, buf.String(), "fetch_organizations -> update_turnover")

	buf.Reset()
	cmd.Saga = "fire_all"
	require.NoError(t, cmd.Run(&Globals{}))
	assert.Contains(t, buf.String(), `"Delete employees -> EmployeesDeleted"`)

	cmd.Saga = "merge"
	assert.Error(t, cmd.Run(&Globals{}))
}

func TestServeFlags(t *testing.T) {
	t.Setenv("ORGMANAGER_CRUD_BASE_URL", "http://crud.local/api")
	t.Setenv("ORGMANAGER_CORS_ORIGINS", "http://a.test,http://b.test")

	var cli struct {
		Serve ServeCmd `cmd:""`
	}
	parser, err := kong.New(&cli)
	require.NoError(t, err)
	_, err = parser.Parse([]string{"serve", "--crud-timeout=3s", "--listen=:9000"})
	require.NoError(t, err)

	cfg := cli.Serve.Crud.config()
	assert.Equal(t, "http://crud.local/api", cfg.BaseURL)
	assert.Equal(t, "3s", cfg.Timeout.String())
	assert.Equal(t, uint(2), cfg.ReadRetries)
	assert.Equal(t, ":9000", cli.Serve.Listen)
	assert.Equal(t, "/orgmanager/api/v1", cli.Serve.BasePath)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cli.Serve.CORSOrigins)
}
