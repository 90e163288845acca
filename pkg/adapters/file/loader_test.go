package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/botflow/pkg/adapters/file"
	"github.com/aretw0/botflow/pkg/domain"
	"github.com/aretw0/botflow/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jsonFlow = `{
  "version": "1.0",
  "name": "Greeter",
  "nodes": [
    {"id": "1", "type": "command", "data": {"command": "/start"}},
    {"id": "2", "type": "message", "data": {"text": "Hello!"}}
  ],
  "edges": [{"id": "e1", "source": "1", "target": "2"}]
}`

const yamlFlow = `
name: Survey
nodes:
  - id: start
    type: command
    data:
      command: /survey
  - id: ask
    type: inputWait
    data:
      promptText: How old are you?
      variableName: age
      validation: number
edges:
  - source: start
    target: ask
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestDirLoader(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "greeter.json", jsonFlow)
	writeFile(t, dir, "survey.yaml", yamlFlow)
	writeFile(t, dir, "notes.txt", "ignored")

	loader, err := file.NewDirLoader(dir)
	require.NoError(t, err)

	greeter, _, err := file.ParseFlow([]byte(jsonFlow), "greeter", ".json")
	require.NoError(t, err)
	survey, _, err := file.ParseFlow([]byte(yamlFlow), "survey", ".yaml")
	require.NoError(t, err)

	tests.GraphLoaderContractTest(t, loader, greeter, survey)

	ids, err := loader.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"greeter", "survey"}, ids)
}

func TestParseFlow_YAML(t *testing.T) {
	flow, warnings, err := file.ParseFlow([]byte(yamlFlow), "survey", ".yml")
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, "Survey", flow.Name)

	ask, ok := flow.Graph.Node("ask")
	require.True(t, ok)
	assert.Equal(t, domain.InputWait{Prompt: "How old are you?", Variable: "age", Validation: domain.ValidateNumber}, ask.Payload)
}

func TestParseFlow_Invalid(t *testing.T) {
	_, _, err := file.ParseFlow([]byte("{not json"), "x", ".json")
	assert.Error(t, err)
}

func TestLoader_Reload(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "bot.json", jsonFlow)
	loader := file.NewLoader(map[string]string{"bot": path})
	ctx := context.Background()

	first, err := loader.Load(ctx, "bot")
	require.NoError(t, err)
	again, err := loader.Load(ctx, "bot")
	require.NoError(t, err)
	assert.Same(t, first, again, "unchanged file is served from cache")

	updated := `{"nodes": [{"id": "1", "type": "command", "data": {"command": "/go"}}], "edges": []}`
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))
	future := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, future, future))

	reloaded, err := loader.Load(ctx, "bot")
	require.NoError(t, err)
	assert.Equal(t, "/go", reloaded.Commands()[0].Trigger)
}
