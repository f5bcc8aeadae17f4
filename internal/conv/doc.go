// Package conv provides checked integer conversions for values decoded from
// matrix headers and row-block indexes.
package conv
