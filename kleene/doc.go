// Package kleene implements the three-valued (Kleene) logic used
// throughout the rules engine: every boolean-shaped result can also be
// Failed, meaning "unknown" — a referenced status is missing, a
// comparison mixed incompatible kinds, or a sub-expression itself failed.
//
// Ternary values are packed into 3-bit codes so that a (current, last)
// evaluation pair can be combined into a single byte and matched against a
// hook's transition predicate with one bitwise AND.
package kleene
