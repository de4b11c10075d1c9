// Package errors provides coded, actionable error messages for the vbind
// command line tools and the inspector.
//
// The binding packages return plain sentinel errors (binding.ErrNotAFunction
// and friends) so that library callers can use errors.Is. This package sits
// at the edge: Classify maps such an error to a registered code, and Format
// renders it for a terminal.
//
// # Error Categories
//
// Errors are organized into categories:
//   - expression: evaluation failures (calling a non-function, iterating a non-iterable)
//   - resource: converter, behavior and signaler lookups
//   - binding: bind and unbind protocol misuse
//   - lifecycle: start and stop tasks
//   - storage: snapshot stores
//   - config: configuration files and flags
//   - cli: command line usage
//
// # Error Codes
//
// Each error has a unique code (e.g., "VB001") that maps to a short message,
// a detailed explanation and a suggestion.
//
// # Usage
//
//	_, err := app.Eval(expr, nil)
//	if err != nil {
//	    fmt.Fprint(os.Stderr, errors.Classify(err).Format())
//	}
//	// Output:
//	// ERROR VB001: Unresolved value converter
//	//
//	//   An expression applies a value converter that is not registered.
//	//
//	//   cause: vbind: unresolved value converter: "currency"
//	//
//	//   Hint: Register the converter with App.RegisterConverter before binding.
package errors
