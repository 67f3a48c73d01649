package rewrite

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Someblueman/phpattr/internal/metadata"
	"github.com/Someblueman/phpattr/internal/phpast"
	"github.com/Someblueman/phpattr/internal/printer"
)

func arg(name string, v metadata.Value) metadata.Arg {
	return metadata.Arg{Name: name, Value: v}
}

func TestMapperOmitsDefaults(t *testing.T) {
	m := NewMapper(newTestIndex(t), nil, "__data")
	attr, err := m.Attribute(metadata.Annotation{
		Type: `Imi\Bean\Annotation\Bean`,
		Args: []metadata.Arg{
			arg("name", metadata.StringValue("x")),
			arg("env", metadata.NullValue()),
			arg("instanceType", metadata.StringValue("singleton")),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, `\Imi\Bean\Annotation\Bean(name: 'x')`, printer.Attribute(attr))
}

func TestMapperUsesImportAlias(t *testing.T) {
	imports := &Imports{}
	imports.Add(&phpast.Use{Kind: phpast.UseClass, Clauses: []phpast.UseClause{
		{Name: `Imi\Bean\Annotation\Bean`},
		{Name: `Imi\Aop\Annotation\Inject`, Alias: "Autowired"},
	}})
	m := NewMapper(newTestIndex(t), imports, "__data")

	assert.Equal(t, "Bean", m.ClassName(`\Imi\Bean\Annotation\Bean`).String())
	assert.Equal(t, "Autowired", m.ClassName(`Imi\Aop\Annotation\Inject`).String())
	assert.Equal(t, `\Imi\Server\Annotation\Listener`, m.ClassName(`Imi\Server\Annotation\Listener`).String())
}

func TestMapperClassReferences(t *testing.T) {
	m := NewMapper(newTestIndex(t), nil, "__data")
	args, err := m.BuildArgs(metadata.Annotation{
		Type: `Imi\Server\Annotation\Listener`,
		Args: []metadata.Arg{
			arg("eventName", metadata.StringValue(`App\Handler\StartHandler`)),
			arg("handlerClass", metadata.StringValue(`App\Handler\StartHandler`)),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, `eventName: 'App\\Handler\\StartHandler', handlerClass: \App\Handler\StartHandler::class`, printer.Args(args))

	args, err = m.BuildArgs(metadata.Annotation{
		Type: `Imi\Server\Annotation\Listener`,
		Args: []metadata.Arg{arg("handlerClass", metadata.StringValue(`App\Handler\Missing`))},
	})
	require.NoError(t, err)
	assert.Equal(t, `handlerClass: 'App\\Handler\\Missing'`, printer.Args(args))
}

func TestMapperNestedValues(t *testing.T) {
	m := NewMapper(newTestIndex(t), nil, "__data")
	key := metadata.StringValue("mode")
	args, err := m.BuildArgs(metadata.Annotation{
		Type: `Imi\Aop\Annotation\Inject`,
		Args: []metadata.Arg{
			arg("name", metadata.InstanceValue(metadata.Annotation{
				Type: `Imi\Bean\Annotation\Bean`,
				Args: []metadata.Arg{arg("name", metadata.StringValue("inner"))},
			})),
			arg("args", metadata.Value{Kind: metadata.Map, Entries: []metadata.Entry{
				{Key: &key, Value: metadata.IntValue(2)},
				{Value: metadata.ListValue(metadata.BoolValue(true), metadata.FloatValue(1))},
			}}),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, `name: new \Imi\Bean\Annotation\Bean(name: 'inner'), args: ['mode' => 2, [true, 1.0]]`, printer.Args(args))
}

func TestMapperExtraArguments(t *testing.T) {
	m := NewMapper(newTestIndex(t), nil, "__data")
	_, err := m.BuildArgs(metadata.Annotation{
		Type: `\Imi\Bean\Annotation\Bean`,
		Args: []metadata.Arg{
			arg("__data", metadata.ListValue()),
			arg("name", metadata.StringValue("x")),
			arg("scope", metadata.StringValue("request")),
			arg("lazy", metadata.BoolValue(true)),
		},
	})
	require.Error(t, err)

	var extra *ExtraArgumentError
	require.True(t, errors.As(err, &extra))
	assert.Equal(t, `Imi\Bean\Annotation\Bean`, extra.Type)
	assert.Equal(t, []string{"scope", "lazy"}, extra.Keys)
}

func TestMapperConfigFallsBackToDefault(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	m := NewMapper(newTestIndex(t), nil, "__data")
	m.report = newReporter("test.php", zap.New(core).Sugar())

	args, err := m.BuildArgs(metadata.Annotation{
		Type: `Imi\Bean\Annotation\Bean`,
		Args: []metadata.Arg{arg("name", metadata.ConfigValue("@app.beans.name", metadata.StringValue("fallback")))},
	})
	require.NoError(t, err)
	assert.Equal(t, `name: 'fallback'`, printer.Args(args))
	assert.Equal(t, 1, logs.Len())
}

func TestImportsLastRegisteredWins(t *testing.T) {
	imports := &Imports{}
	imports.Add(&phpast.Use{Kind: phpast.UseClass, Clauses: []phpast.UseClause{{Name: `Foo\Bean`}}})
	imports.Add(&phpast.Use{Kind: phpast.UseClass, Clauses: []phpast.UseClause{{Name: `Bar\Bean`}}})
	imports.Add(&phpast.Use{Kind: phpast.UseFunction, Clauses: []phpast.UseClause{{Name: `Baz\Bean`}}})

	assert.Equal(t, 2, imports.Len())
	name, ok := imports.Resolve("bean")
	require.True(t, ok)
	assert.Equal(t, `Bar\Bean`, name)

	_, ok = imports.Local(`Baz\Bean`)
	assert.False(t, ok)
}

func TestImportsIgnoreParsedFunctionAndConstUses(t *testing.T) {
	f, err := phpast.Parse("uses.php", []byte("<?php\nuse function App\\Bean;\nuse const App\\Inject;\nuse Imi\\Aop\\Annotation\\Inject;\n"))
	require.NoError(t, err)

	imports := &Imports{}
	for _, stmt := range f.Stmts {
		if u, ok := stmt.(*phpast.Use); ok {
			imports.Add(u)
		}
	}
	assert.Equal(t, 1, imports.Len())
	_, ok := imports.Resolve("Bean")
	assert.False(t, ok)
	name, ok := imports.Resolve("Inject")
	require.True(t, ok)
	assert.Equal(t, `Imi\Aop\Annotation\Inject`, name)
}

func TestTagMatches(t *testing.T) {
	imports := &Imports{}
	imports.Add(&phpast.Use{Kind: phpast.UseClass, Clauses: []phpast.UseClause{{Name: `Imi\Bean\Annotation`, Alias: "A"}}})
	global := map[string]string{"Listener": `Imi\Server\Annotation\Listener`}

	assert.True(t, tagMatches(`A\Bean`, `Imi\Bean\Annotation\Bean`, "App", imports, nil))
	assert.True(t, tagMatches(`\Imi\Bean\Annotation\Bean`, `Imi\Bean\Annotation\Bean`, "App", imports, nil))
	assert.True(t, tagMatches("Listener", `Imi\Server\Annotation\Listener`, "App", imports, global))
	assert.True(t, tagMatches("Bean", `Imi\Bean\Annotation\Bean`, "App", imports, nil))
	assert.False(t, tagMatches(`Other\Bean`, `Imi\Bean\Annotation\Bean`, "App", imports, nil))
	assert.False(t, tagMatches("Inject", `Imi\Bean\Annotation\Bean`, "App", imports, nil))
}

func TestNativeType(t *testing.T) {
	tests := []struct {
		typ      string
		defaults []string
		want     string
		ok       bool
	}{
		{typ: "int", want: "int", ok: true},
		{typ: "string", defaults: []string{"null"}, want: "?string", ok: true},
		{typ: "int|string", defaults: []string{"NULL"}, want: "int|string|null", ok: true},
		{typ: "?int", defaults: []string{"null"}, want: "?int", ok: true},
		{typ: `Psr\Log\LoggerInterface`, want: `\Psr\Log\LoggerInterface`, ok: true},
		{typ: "string[]", want: "array", ok: true},
		{typ: "int[]|string[]", want: "array", ok: true},
		{typ: "callable"},
		{typ: "array<string, int>"},
		{typ: "resource"},
		{typ: "void"},
		{typ: "?int|string"},
		{typ: ""},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			got, ok := nativeType(tt.typ, tt.defaults)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
