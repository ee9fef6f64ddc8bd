// Package vm implements the heap object substrate of the loxheap virtual machine.
//
// This package contains:
//   - NaN-boxed value representation with arena handles for heap objects
//   - Object header, registry and the single allocation entry point
//   - String interning
//   - Closures and the open/closed upvalue lifecycle
//   - Classes, builtin classes, instances, bound methods and natives
//   - Textual projection of every value
//   - A stop-the-world mark-sweep collector over the registry
package vm
