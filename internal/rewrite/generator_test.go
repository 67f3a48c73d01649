package rewrite

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Someblueman/phpattr/internal/metadata"
)

const testIndex = `
definitions:
  - name: Imi\Bean\Annotation\Bean
    metadata: true
    params:
      - {name: name, default: null}
      - {name: env, default: null}
      - {name: instanceType, default: singleton}
  - name: Imi\Aop\Annotation\Inject
    metadata: true
    params:
      - {name: name, default: null}
      - {name: args, default: []}
  - name: Imi\Server\Annotation\Listener
    metadata: true
    params:
      - {name: eventName, default: ""}
      - {name: priority, default: 0}
      - {name: handlerClass, default: null}
  - name: Imi\Bean\Annotation\Annotation
    metadata: false
declarations:
  - name: App\Service\Worker
    class:
      - type: Imi\Bean\Annotation\Bean
        args: {name: x, env: cli}
      - type: Imi\Bean\Annotation\Annotation
    methods:
      run:
        - type: Imi\Server\Annotation\Listener
          args: {eventName: start, priority: 0, handlerClass: App\Handler\StartHandler}
    properties:
      logger:
        - type: Imi\Aop\Annotation\Inject
          args: {name: Logger}
  - name: App\Annotation\Consumer
    parent: Imi\Bean\Annotation\Base
  - name: App\First\One
    class:
      - type: Imi\Bean\Annotation\Bean
        args: {name: first}
  - name: App\Second\Two
    class:
      - type: Imi\Bean\Annotation\Bean
        args: {name: second}
  - name: App\Broken\Extra
    class:
      - type: Imi\Bean\Annotation\Bean
        args: {name: broken, unknown: 1}
types:
  - App\Handler\StartHandler
`

const workerSource = `<?php

namespace App\Service;

use Imi\Bean\Annotation\Bean;
use Imi\Aop\Annotation\Inject;
use Imi\Server\Annotation\Listener;

/**
 * Worker service.
 *
 * @Bean(name="x", env="cli")
 */
class Worker
{
    /**
     * @Inject("Logger")
     *
     * @var \Psr\Log\LoggerInterface
     */
    protected $logger;

    /**
     * @Listener(eventName="start", handlerClass=StartHandler::class)
     */
    public function run(): void
    {
    }
}
`

const workerExpected = `<?php

namespace App\Service;

use Imi\Bean\Annotation\Bean;
use Imi\Aop\Annotation\Inject;
use Imi\Server\Annotation\Listener;

/**
 * Worker service.
 */
#[Bean(name: 'x', env: 'cli')]
class Worker
{
    /**
     * @var \Psr\Log\LoggerInterface
     */
    #[Inject(name: 'Logger')]
    protected $logger;

    #[Listener(eventName: 'start', handlerClass: \App\Handler\StartHandler::class)]
    public function run(): void
    {
    }
}
`

const consumerSource = `<?php

namespace App\Annotation;

use Imi\Bean\Annotation\Base;

/**
 * Consumer annotation.
 *
 * @Annotation
 * @Target("CLASS")
 *
 * @property string $queue queue name
 */
class Consumer extends Base
{
    public function __construct(?array $__data = null, $queue = '', string $method = '')
    {
        parent::__construct(...\func_get_args());
    }
}
`

const consumerExpected = `<?php

namespace App\Annotation;

use Imi\Bean\Annotation\Base;

/**
 * Consumer annotation.
 *
 * @Annotation
 * @Target("CLASS")
 */
class Consumer extends Base
{
    public function __construct(
        /**
         * queue name
         * @var string
         */
        public $queue = '',
        public string $method = ''
    )
    {
    }
}
`

const twoNamespacesSource = `<?php

namespace App\First {
    /**
     * @Bean(name="first")
     */
    class One
    {
    }
}

namespace App\Second {
    /**
     * @Bean(name="second")
     */
    class Two
    {
    }
}
`

func newTestIndex(t *testing.T) *metadata.Index {
	t.Helper()
	doc, err := metadata.ParseDocument([]byte(testIndex))
	require.NoError(t, err)
	return metadata.NewIndex(doc, metadata.Options{})
}

func generate(t *testing.T, src string, opts Options) (*Result, error) {
	t.Helper()
	return NewSourceGenerator("test.php", []byte(src), newTestIndex(t), opts).Generate(context.Background())
}

func TestGenerateRewritesAnnotations(t *testing.T) {
	for _, strategy := range []string{StrategyPatch, StrategyReprint} {
		t.Run(strategy, func(t *testing.T) {
			res, err := generate(t, workerSource, Options{Strategy: strategy})
			require.NoError(t, err)
			assert.True(t, res.Modified)
			assert.False(t, res.Aborted)
			assert.Equal(t, workerExpected, string(res.Source))
		})
	}
}

func TestGenerateKeepsCRLFLineEndings(t *testing.T) {
	crlf := func(s string) string { return strings.ReplaceAll(s, "\n", "\r\n") }
	for _, strategy := range []string{StrategyPatch, StrategyReprint} {
		t.Run(strategy, func(t *testing.T) {
			res, err := generate(t, crlf(workerSource), Options{Strategy: strategy})
			require.NoError(t, err)
			assert.True(t, res.Modified)
			assert.Equal(t, crlf(workerExpected), string(res.Source))
		})
	}
}

func TestGeneratePromotesAnnotationConstructor(t *testing.T) {
	for _, strategy := range []string{StrategyPatch, StrategyReprint} {
		t.Run(strategy, func(t *testing.T) {
			res, err := generate(t, consumerSource, Options{Strategy: strategy})
			require.NoError(t, err)
			assert.True(t, res.Modified)
			assert.Equal(t, consumerExpected, string(res.Source))
		})
	}
}

func TestGeneratePromotionWithCustomDataParam(t *testing.T) {
	src := `<?php

namespace App\Annotation;

class Consumer extends \Imi\Bean\Annotation\Base
{
    public function __construct($data = null, $class = null, string $method = "")
    {
        parent::__construct(... func_get_args());
    }
}
`
	want := `<?php

namespace App\Annotation;

class Consumer extends \Imi\Bean\Annotation\Base
{
    public function __construct(
        public $class = null,
        public string $method = ""
    )
    {
    }
}
`
	res, err := generate(t, src, Options{DataParam: "data"})
	require.NoError(t, err)
	assert.Equal(t, want, string(res.Source))
}

func TestGenerateWarnsAboutConstructorBody(t *testing.T) {
	src := `<?php

namespace App\Annotation;

class Consumer extends \Imi\Bean\Annotation\Base
{
    public function __construct($__data = null, $name = null)
    {
        $this->name = $name;
    }
}
`
	res, err := generate(t, src, Options{})
	require.NoError(t, err)
	assert.True(t, res.Modified)
	assert.Contains(t, string(res.Source), "$this->name = $name;")
	assert.Contains(t, string(res.Source), "public $name = null")
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "constructor has a body")
}

func TestGenerateUnmodifiedFileIsByteIdentical(t *testing.T) {
	src := "<?php\n\nnamespace App\\Other;\n\n/**\n * @Bean(\"x\")\n */\nclass Unknown\n{\n}\n"
	for _, strategy := range []string{StrategyPatch, StrategyReprint} {
		res, err := generate(t, src, Options{Strategy: strategy})
		require.NoError(t, err)
		assert.False(t, res.Modified)
		assert.Equal(t, src, string(res.Source))
		require.Len(t, res.Warnings, 1)
		assert.Contains(t, res.Warnings[0], "class not found in metadata index")
	}
}

func TestGenerateLogsClassImports(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	_, err := generate(t, workerSource, Options{Logger: zap.New(core).Sugar()})
	require.NoError(t, err)

	entries := logs.FilterMessage("enter class").All()
	require.Len(t, entries, 1)
	assert.Equal(t, `App\Service\Worker`, entries[0].ContextMap()["class"])
	assert.Equal(t, int64(3), entries[0].ContextMap()["imports"])
}

func TestGenerateCachesResult(t *testing.T) {
	g := NewSourceGenerator("worker.php", []byte(workerSource), newTestIndex(t), Options{})
	first, err := g.Generate(context.Background())
	require.NoError(t, err)
	second, err := g.Generate(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestGenerateTwoNamespacesPatchKeepsProgress(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	res, err := generate(t, twoNamespacesSource, Options{Strategy: StrategyPatch, Logger: zap.New(core).Sugar()})
	require.NoError(t, err)

	assert.True(t, res.Aborted)
	assert.Equal(t, "multiple namespaces", res.AbortReason)
	assert.True(t, res.Modified)
	assert.Equal(t, 1, logs.FilterMessage("multiple namespaces are not supported").Len())

	want := `<?php

namespace App\First {
    #[\Imi\Bean\Annotation\Bean(name: 'first')]
    class One
    {
    }
}

namespace App\Second {
    /**
     * @Bean(name="second")
     */
    class Two
    {
    }
}
`
	assert.Equal(t, want, string(res.Source))
}

func TestGenerateTwoNamespacesReprintDiscards(t *testing.T) {
	res, err := generate(t, twoNamespacesSource, Options{Strategy: StrategyReprint})
	require.NoError(t, err)
	assert.True(t, res.Aborted)
	assert.False(t, res.Modified)
	assert.Equal(t, twoNamespacesSource, string(res.Source))
}

func TestGenerateSecondClassAborts(t *testing.T) {
	src := `<?php

namespace App\First;

/**
 * @Bean(name="first")
 */
class One
{
}

class Two
{
}
`
	res, err := generate(t, src, Options{})
	require.NoError(t, err)
	assert.True(t, res.Aborted)
	assert.Equal(t, "multiple classes", res.AbortReason)
	assert.Contains(t, string(res.Source), "#[\\Imi\\Bean\\Annotation\\Bean(name: 'first')]\nclass One")
}

func TestGenerateExtraArgumentAborts(t *testing.T) {
	src := "<?php\n\nnamespace App\\Broken;\n\n/**\n * @Bean(name=\"broken\", unknown=1)\n */\nclass Extra\n{\n}\n"
	for _, strategy := range []string{StrategyPatch, StrategyReprint} {
		res, err := generate(t, src, Options{Strategy: strategy})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrAbort))

		var extra *ExtraArgumentError
		require.True(t, errors.As(err, &extra))
		assert.Equal(t, []string{"unknown"}, extra.Keys)

		var abortErr *AbortError
		require.True(t, errors.As(err, &abortErr))
		assert.Equal(t, "test.php", abortErr.File)

		require.NotNil(t, res)
		assert.True(t, res.Aborted)
		assert.False(t, res.Modified)
		assert.Equal(t, src, string(res.Source))
	}
}

func TestGenerateSkipsAnonymousClasses(t *testing.T) {
	src := `<?php

namespace App\Service;

use Imi\Server\Annotation\Listener;

class Worker
{
    /**
     * @Listener(eventName="start", handlerClass=StartHandler::class)
     */
    public function run(): void
    {
        $handler = new class {
            public function run() {}
        };
    }
}
`
	res, err := generate(t, src, Options{})
	require.NoError(t, err)
	assert.Contains(t, string(res.Source), "    #[Listener(eventName: 'start', handlerClass: \\App\\Handler\\StartHandler::class)]\n    public function run(): void\n")
	assert.Contains(t, string(res.Source), "        $handler = new class {\n            public function run() {}\n        };")
}

func TestGenerateParseError(t *testing.T) {
	_, err := generate(t, "<?php\nclass {\n", Options{})
	require.Error(t, err)
}

func TestGenerateUnknownStrategy(t *testing.T) {
	_, err := generate(t, workerSource, Options{Strategy: "format"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown strategy "format" (known: patch, reprint)`)
}

func TestGenerateReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Worker.php")
	require.NoError(t, os.WriteFile(path, []byte(workerSource), 0o644))

	res, err := NewGenerator(path, newTestIndex(t), Options{}).Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, path, res.Path)
	assert.Equal(t, workerExpected, string(res.Source))

	_, err = NewGenerator(filepath.Join(t.TempDir(), "missing.php"), newTestIndex(t), Options{}).Generate(context.Background())
	require.Error(t, err)
}

func TestGeneratePromotesCommentTypes(t *testing.T) {
	src := `<?php

namespace App\Service;

use Imi\Aop\Annotation\Inject;

class Worker
{
    /**
     * @Inject("Logger")
     *
     * @var \Psr\Log\LoggerInterface
     */
    protected $logger = null;
}
`
	for _, strategy := range []string{StrategyPatch, StrategyReprint} {
		res, err := generate(t, src, Options{Strategy: strategy, PromoteCommentTypes: true})
		require.NoError(t, err)
		assert.Contains(t, string(res.Source), "    #[Inject(name: 'Logger')]\n    protected ?\\Psr\\Log\\LoggerInterface $logger = null;\n")
	}
}
