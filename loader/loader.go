// Package loader installs signatures declared in YAML or JSON manifests
// and keeps them current while the manifests change.
package loader

import (
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/effectus/sig/compiler"
	"github.com/effectus/sig/runtime"
)

// Definer installs a compiled signature. *sig.Installer and none.Declarer
// both satisfy it.
type Definer interface {
	Define(target *runtime.Class, expectedArgs, expectedResult any, method string) (string, error)
}

// Loader applies manifests to the classes of a registry.
type Loader struct {
	classes  *runtime.Registry
	compiler *compiler.Compiler
	definer  Definer
	logger   *zap.Logger
	onReload func(path string, applied int, err error)

	mu sync.Mutex
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger for applies and reloads.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithCompiler replaces the default compiler, which resolves type names
// through the class registry and the built-in classes.
func WithCompiler(c *compiler.Compiler) Option {
	return func(l *Loader) {
		if c != nil {
			l.compiler = c
		}
	}
}

// WithReloadHook registers fn to run after every reload triggered by Watch.
func WithReloadHook(fn func(path string, applied int, err error)) Option {
	return func(l *Loader) {
		l.onReload = fn
	}
}

// New creates a loader installing through definer.
func New(classes *runtime.Registry, definer Definer, opts ...Option) *Loader {
	l := &Loader{
		classes: classes,
		definer: definer,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.compiler == nil {
		l.compiler = compiler.NewCompiler(compiler.ClassResolver(classes))
	}
	return l
}

// Compiler returns the compiler used for declarations.
func (l *Loader) Compiler() *compiler.Compiler {
	return l.compiler
}

// Apply installs every declaration of m. A failing declaration does not
// stop the others; the returned error combines one error per failure and
// applied counts the declarations installed.
func (l *Loader) Apply(m *Manifest) (applied int, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, d := range m.Declarations {
		if derr := l.apply(d); derr != nil {
			err = multierr.Append(err, fmt.Errorf("%s: %s: %w", m.Location(d), d.Target(), derr))
			continue
		}
		applied++
	}

	l.logger.Debug("applied signature manifest",
		zap.String("path", m.Path),
		zap.Int("applied", applied),
		zap.Int("failed", len(multierr.Errors(err))),
	)
	return applied, err
}

func (l *Loader) apply(d Declaration) error {
	if d.Class == "" || d.Method == "" {
		return fmt.Errorf("class and method are required")
	}
	target, ok := l.classes.Lookup(d.Class)
	if !ok {
		return fmt.Errorf("unknown class %s", d.Class)
	}
	if d.Static {
		target = target.Singleton()
	}

	decl, err := l.compiler.Compile(d.Signature)
	if err != nil {
		return err
	}
	_, err = l.definer.Define(target, decl.Args, decl.Result, d.Method)
	return err
}

// LoadFiles loads and applies each manifest in order.
func (l *Loader) LoadFiles(paths ...string) (applied int, err error) {
	for _, path := range paths {
		n, ferr := l.loadFile(path)
		applied += n
		err = multierr.Append(err, ferr)
	}
	return applied, err
}

func (l *Loader) loadFile(path string) (int, error) {
	m, err := LoadFile(path)
	if err != nil {
		return 0, err
	}
	return l.Apply(m)
}
