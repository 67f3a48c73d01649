package metadata

// Provider resolves declarations to their decoded annotations. It must be
// deterministic and safe for concurrent reads.
type Provider interface {
	// Lookup returns the declaration named fqcn, if it is loadable.
	Lookup(fqcn string) (*Declaration, bool)
	// Definition returns the annotation type definition for typeName.
	Definition(typeName string) (*Definition, bool)
	// TypeExists reports whether name refers to a known type.
	TypeExists(name string) bool
	// Imports returns the global import aliases (alias -> fully-qualified name).
	Imports() map[string]string
}

// Options configures how an Index filters and resolves annotations.
type Options struct {
	IgnoredNames      []string
	IgnoredNamespaces []string
	GlobalImports     map[string]string
}
