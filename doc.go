// Package urdf is the core semantic runtime embedded next to a low-code
// flow engine: an in-memory RDF quad store bound to the live application
// model, extended with a deterministic rule-driven inference engine that
// rebuilds the inferred named graph on every change.
//
// # Architecture
//
// The runtime holds five named graphs with independent lifecycles:
//
//	┌──────────────────────────────────────┐
//	│            HTTP Facade               │  /urdf endpoints,
//	│   (gateway: store ops, rules CRUD)   │  websocket event mirror
//	└──────────────────────────────────────┘
//	            ↓ posts tasks
//	┌──────────────────────────────────────┐
//	│           Runtime Engine             │  single-writer task queue,
//	│  (loaders, debounce, reload cycles)  │  250 ms coalescing window
//	└──────────────────────────────────────┘
//	            ↓ serialized access
//	┌──────────────────────────────────────┐
//	│             Quad Store               │  ontology / rules /
//	│  (token-compressed named graphs)     │  application / environment /
//	└──────────────────────────────────────┘  inferred
//
// On a host flow event the engine rebuilds the application graph through
// the translator, recomputes the inferred graph through the inference
// orchestrator, and publishes a structured event on urdf/events.
//
// # Packages
//
//   - dictionary: the ZURL IRI dictionary and its z:<n> token scheme
//   - jsonld: flattening, array-valued normalization, compression
//   - store: the named-graph container and its invariants
//   - sparql: query rewriting, the PREFIX/BASE contract, the built-in
//     subset evaluator
//   - translator: deterministic flow-configuration mapping
//   - inference: the rule orchestration loop (SPARQL and N3 rules)
//   - reason: the N3 reasoner capability and built-in forward chainer
//   - engine: the runtime task queue, loaders, debouncing, file watcher
//   - gateway: the HTTP facade
//   - hostapi, events, natsclient, metric, config, errors, vocabulary:
//     host coupling and ambient infrastructure
//
// # Concurrency model
//
// The store assumes exclusive access between suspension points. Every
// read and mutation runs on the engine's single task goroutine; HTTP
// handlers and event subscribers post closures and wait. Parallel access
// to the store without that discipline is not supported.
package urdf
