// Package workflow orchestrates one complete submission: session init, the
// eight wizard stages, the confirmation exchange, and document retrieval.
//
// State progression is Uninitialized → SessionEstablished → stages →
// Confirmed → DocumentsRetrieved, with failure reachable from any state.
// Every layer below raises typed errors; only this package decides
// fatal-versus-continue and produces the single WorkflowResult. There is no
// automatic stage retry: retry means restarting the whole workflow from
// session init, and that is the caller's decision.
package workflow
