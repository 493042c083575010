// Package ir provides the canonical intermediate representation consumed
// by the cashflow engine.
//
// All other internal packages import ir; ir imports nothing internal. This
// keeps the IR the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - NO float types anywhere - amounts and rates are exact decimals
//   - Every engine variant is an IRTagged built through Tag
//   - Tag-only nodes omit the contents key
//   - One serialization (MarshalCanonical) for output and fingerprints
package ir
