package cli_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	authsvc "tamil_society/internal/api/auth/service"
	"tamil_society/internal/cli"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"gopkg.in/yaml.v3"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := cli.NewRootCmdForTest()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestPreview_YAMLTeamAlertInTamil(t *testing.T) {
	out, err := run(t, "preview",
		"--tags", "team,created",
		"--lang", "ta",
		"--title-en", "New committee member", "--title-ta", "புதிய குழு உறுப்பினர்",
		"--name", "Kavin", "--position", "Treasurer",
	)
	require.NoError(t, err)

	var result struct {
		Selection struct {
			Template string `yaml:"template"`
			Subject  string `yaml:"subject"`
			Payload  struct {
				Language string `yaml:"language"`
				Name     string `yaml:"name"`
				Position string `yaml:"position"`
			} `yaml:"payload"`
		} `yaml:"selection"`
		Text string `yaml:"text"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &result))
	assert.Equal(t, "team-alert", result.Selection.Template)
	assert.Equal(t, "புதிய குழு உறுப்பினர்", result.Selection.Subject)
	assert.Equal(t, "ta", result.Selection.Payload.Language)
	assert.Equal(t, "Kavin", result.Selection.Payload.Name)
	assert.Equal(t, "Treasurer", result.Selection.Payload.Position)
	assert.NotEmpty(t, result.Text)
}

func TestPreview_JSONGeneric(t *testing.T) {
	out, err := run(t, "preview", "--output", "json", "--title-en", "Hello")
	require.NoError(t, err)

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	selection := result["selection"].(map[string]interface{})
	assert.Equal(t, "notification", selection["template"])
}

func TestPreview_HTMLAndUnknownFormat(t *testing.T) {
	out, err := run(t, "preview", "-o", "html", "--title-en", "Hello")
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, "<html"), out)

	_, err = run(t, "preview", "-o", "xml")
	assert.Error(t, err)
}

func TestToken(t *testing.T) {
	id := primitive.NewObjectID()
	out, err := run(t, "token", "--user", id.Hex(), "--secret", "s3cret", "--role", "admin")
	require.NoError(t, err)

	parsed, err := authsvc.ParseToken("s3cret", strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = run(t, "token", "--user", "nope", "--secret", "s3cret")
	assert.Error(t, err)
}
