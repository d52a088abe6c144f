// Package ast holds the concrete syntax tree produced by internal/parser.
//
// The tree is made of plain values. Nodes are never modified after
// construction; rewrites build new nodes from the fields of the old ones
// (see MapDecl, WithLeading, ReplaceAttributes). Every token keeps its leading
// trivia, so Print(file) reproduces the parsed source byte for byte.
//
// Only declaration shapes are modelled: types, extensions, variables,
// functions and attributes. Everything else (expressions, type annotations,
// function bodies) is kept as an opaque, balanced run of tokens.
//
// Tokens synthesized by the expansion engine carry the zero Span; SpanOf
// skips them, so a replacement tree can always be located by its original
// counterpart.
package ast
