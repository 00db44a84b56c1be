package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/training-crm-api/internal/domain/permission"
)

func runCatalog(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs(append([]string{"catalog"}, args...))
	require.NoError(t, root.Execute())
	return out.String()
}

func TestCatalog_TablaCompleta(t *testing.T) {
	out := runCatalog(t)
	assert.Contains(t, out, "GROUP")
	for _, c := range permission.All() {
		assert.Contains(t, out, string(c))
	}
}

func TestCatalog_JSONPorRol(t *testing.T) {
	out := runCatalog(t, "--role", "expert", "--json")
	var defs []permission.Definition
	require.NoError(t, json.Unmarshal([]byte(out), &defs))
	require.Len(t, defs, len(permission.DefaultsForRole("expert")))
	for _, d := range defs {
		assert.Contains(t, permission.DefaultsForRole("expert"), d.Capability)
	}
}

func TestCatalog_RechazaArgumentos(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"catalog", "extra"})
	assert.Error(t, root.Execute())
}
