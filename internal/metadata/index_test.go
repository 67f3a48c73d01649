package metadata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleIndex = `
definitions:
  - name: \Imi\Bean\Annotation\Bean
    metadata: true
    params:
      - {name: name, default: null}
      - {name: env, default: null}
      - {name: instanceType, default: singleton}
  - name: Imi\Lock\Annotation\Lockable
    metadata: true
    params:
      - {name: id}
      - {name: waitTimeout, default: 3000}
  - name: Doctrine\Common\Annotations\Annotation\Target
    metadata: false
declarations:
  - name: App\Service\Worker
    parent: Imi\Bean\Annotation\Base
    class:
      - type: Imi\Bean\Annotation\Bean
        args: {name: worker, env: cli}
      - type: Doctrine\Common\Annotations\Annotation\Target
      - type: App\Ignored\Thing
    methods:
      run:
        - type: Imi\Lock\Annotation\Lockable
          args:
            id: "lock:{id}"
            waitTimeout: 999999
            options: {retry: 3, 1: [a, b]}
            nested:
              "@type": Imi\Bean\Annotation\Bean
              args: {name: inner}
            port:
              "@config": "@app.port"
              default: 8080
    properties:
      $cache:
        - type: Imi\Bean\Annotation\Bean
types:
  - App\Parser\Json
`

func writeIndex(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadYAMLIndex(t *testing.T) {
	ix, err := Load(writeIndex(t, sampleIndex), Options{
		IgnoredNames:      []string{"Target"},
		IgnoredNamespaces: []string{`App\Ignored\`},
		GlobalImports:     map[string]string{"Bean": `\Imi\Bean\Annotation\Bean`},
	})
	require.NoError(t, err)

	decl, ok := ix.Lookup(`\App\Service\Worker`)
	require.True(t, ok)
	assert.Equal(t, `Imi\Bean\Annotation\Base`, decl.Parent)

	require.Len(t, decl.Class, 1)
	bean := decl.Class[0]
	assert.Equal(t, `Imi\Bean\Annotation\Bean`, bean.Type)
	require.Len(t, bean.Args, 2)
	assert.Equal(t, "name", bean.Args[0].Name)
	assert.Equal(t, StringValue("worker"), bean.Args[0].Value)
	assert.Equal(t, "env", bean.Args[1].Name)

	run := decl.Method("RUN")
	require.Len(t, run, 1)
	lock := run[0]
	require.Len(t, lock.Args, 5)
	assert.Equal(t, IntValue(999999), lock.Args[1].Value)

	options := lock.Args[2].Value
	assert.Equal(t, Map, options.Kind)
	require.Len(t, options.Entries, 2)
	assert.Equal(t, StringValue("retry"), *options.Entries[0].Key)
	assert.Equal(t, IntValue(1), *options.Entries[1].Key)
	assert.Equal(t, ListValue(StringValue("a"), StringValue("b")), options.Entries[1].Value)

	nested := lock.Args[3].Value
	require.Equal(t, Instance, nested.Kind)
	assert.Equal(t, `Imi\Bean\Annotation\Bean`, nested.Annotation.Type)

	port := lock.Args[4].Value
	require.Equal(t, Config, port.Kind)
	assert.Equal(t, "@app.port", port.Str)
	assert.Equal(t, IntValue(8080), *port.Default)

	assert.Len(t, decl.Property("cache"), 1)

	def, ok := ix.Definition(`Imi\Bean\Annotation\Bean`)
	require.True(t, ok)
	assert.True(t, def.Metadata)
	p, ok := def.Param("instanceType")
	require.True(t, ok)
	assert.True(t, p.HasDefault)
	assert.Equal(t, StringValue("singleton"), p.Default)

	lockDef, ok := ix.Definition(`Imi\Lock\Annotation\Lockable`)
	require.True(t, ok)
	id, _ := lockDef.Param("id")
	assert.False(t, id.HasDefault)

	assert.True(t, ix.TypeExists(`\App\Parser\Json`))
	assert.True(t, ix.TypeExists(`app\service\worker`))
	assert.False(t, ix.TypeExists(`App\Missing`))
	assert.Equal(t, `Imi\Bean\Annotation\Bean`, ix.Imports()["Bean"])
}

func TestLoadRejectsInvalidIndex(t *testing.T) {
	_, err := Load(writeIndex(t, "declarations:\n  - parent: x\n"), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid metadata index")
}

func TestLoadCachedHitsSecondTime(t *testing.T) {
	path := writeIndex(t, sampleIndex)
	cacheDir := filepath.Join(t.TempDir(), "cache")

	first, hit, err := LoadCached(path, cacheDir, Options{})
	require.NoError(t, err)
	assert.False(t, hit)

	second, hit, err := LoadCached(path, cacheDir, Options{})
	require.NoError(t, err)
	assert.True(t, hit)

	a, ok := first.Lookup(`App\Service\Worker`)
	require.True(t, ok)
	b, ok := second.Lookup(`App\Service\Worker`)
	require.True(t, ok)
	assert.Equal(t, a, b)
}

func TestCompileThenLoad(t *testing.T) {
	src := writeIndex(t, sampleIndex)
	out := filepath.Join(t.TempDir(), "index.msgpack")

	_, err := Compile(src, out)
	require.NoError(t, err)

	ix, err := Load(out, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, ix.Declarations())
	decl, ok := ix.Lookup(`App\Service\Worker`)
	require.True(t, ok)
	assert.Len(t, decl.Class, 3)
}

func TestValueEqualIsStrict(t *testing.T) {
	assert.True(t, IntValue(1).Equal(IntValue(1)))
	assert.False(t, IntValue(1).Equal(FloatValue(1)))
	assert.False(t, StringValue("").Equal(NullValue()))
	assert.True(t, NullValue().Equal(NullValue()))
	assert.True(t, ListValue(StringValue("a")).Equal(ListValue(StringValue("a"))))
	assert.False(t, ListValue(StringValue("a")).Equal(ListValue(StringValue("a"), StringValue("b"))))
	assert.True(t, ConfigValue("x", IntValue(1)).Equal(ConfigValue("x", IntValue(1))))
}
