// Package types defines the shared data model: the application supplied by a
// caller, and the workflow result returned to it.
//
// The result is the engine's sole external contract. A caller receives either
// the full success payload (confirmation identifiers, fees, payment
// instructions, issued documents) or one structured failure naming the failing
// stage and a best-available reason. Raw portal markup never crosses this
// boundary.
package types
