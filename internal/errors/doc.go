// Package errors provides structured, coded errors for stateart.
//
// Every failure the store engine can report maps to a registered code
// (for example "E001" for a duplicate store name). A code carries:
//   - a category (definition, runtime, persistence, config, cli)
//   - a short message and a longer explanation
//   - a documentation URL
//
// # Usage
//
//	err := errors.New("E004").
//	    WithDetail(`path "increase" is an action of store "counter"`).
//	    WithSuggestion("Call the action instead of assigning to it")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E004: Write to reserved accessor path
//	//
//	//   path "increase" is an action of store "counter"
//	//
//	//   Hint: Call the action instead of assigning to it
//	//
//	//   Learn more: https://stateart.dev/docs/errors/E004
//
// Errors compare by code, so callers can match them with the standard
// library:
//
//	if stderrors.Is(err, errors.New("E001")) { ... }
package errors
