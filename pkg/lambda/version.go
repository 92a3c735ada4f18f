// Package lambda implements a pointer-graph reduction machine for a
// minimal lambda-calculus term language.
//
// Version: 0.3.0
package lambda

// Version is the current version of the golambda reduction machine.
const Version = "0.3.0"
