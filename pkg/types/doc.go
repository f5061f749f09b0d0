// Package types defines the catalog entity types, docking-access and
// run-status enums, configuration, and standard error types shared by the
// store, the bulk importer, and the live ingestor.
package types
