// Package expand implements the declaration-expansion passes for the
// `@Preferences` type annotation and the `@Stored` property annotation.
//
// Every pass is a pure function of a parsed declaration and a Config. Passes
// never mutate their input: generated declarations are new trees, either
// re-spelled from the input's fields or parsed from rendered templates.
// The host (package driver) decides the order in which passes run and
// splices their results into the file.
package expand
