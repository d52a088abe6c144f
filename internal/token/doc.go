// Package token defines lexical token kinds and trivia for the declaration front end.
// Invariants:
//   - Token.Text is the exact source text of the token.
//   - Token.Span matches Text exactly for tokens read from a file; synthesized
//     tokens carry the zero Span.
//   - Every byte between two tokens is kept as Leading trivia of the second one,
//     so printing Leading+Text for every token reproduces the input.
//   - Attributes are lexed as '@' (Kind: At) + Ident; no per-attribute token kinds.
//   - Modifiers (private, static, final, ...) are identifiers; the parser
//     recognizes them by text.
package token
