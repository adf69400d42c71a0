// internal/config/validator.go
//
// Thin wrapper around go-playground/validator.
//
// Context
// -------
// `internal/config/loader.go` calls `validateStruct` immediately after it
// unmarshals the merged Koanf tree into a `Config` instance.  Any tag
// mismatch or validation error aborts startup, ensuring the binary never
// runs with partial, malformed, or missing configuration.
//
// The per-source resolver constraints (a header source needs a header
// name, a query source needs a query key) can't be expressed as simple
// field tags, so they live in a struct-level hook here.

package config

import "github.com/go-playground/validator/v10"

//
// validator instance (package-level singleton)
//

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New()
	val.RegisterStructValidation(resolverRules, Resolver{})
	return val
}

// resolverRules enforces that the selected extraction source has its
// parameter set.
func resolverRules(sl validator.StructLevel) {
	r := sl.Current().Interface().(Resolver)
	switch r.Source {
	case "header":
		if r.Header == "" {
			sl.ReportError(r.Header, "Header", "header", "required_for_source", "")
		}
	case "query":
		if r.QueryKey == "" {
			sl.ReportError(r.QueryKey, "QueryKey", "query_key", "required_for_source", "")
		}
	case "path":
		if r.PathIndex < 0 {
			sl.ReportError(r.PathIndex, "PathIndex", "path_index", "min", "")
		}
	}
}

//
// public API
//

// validateStruct returns the first validation error, or nil on success.
func validateStruct(c *Config) error {
	return v.Struct(c)
}
