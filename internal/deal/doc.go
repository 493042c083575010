// Package deal is the typed model of an ABS deal between the description
// translators and the IR.
//
// Every engine concept with a closed set of shapes (bond type, bond rate,
// fee type, reserve policy, formula, predicate, action, assumption) is a
// sealed interface with one struct per variant. Encode on each variant is
// total: once a description has been translated into this model it always
// produces valid IR, so malformed input can only fail in the translators.
package deal
