// Package compiler is a single-pass compiler for gup source. It lexes,
// parses and generates NASM-style assembly in one interleaved pass: every
// construct is lowered to text as soon as the parser recognises it.
//
// Pipeline: source → Lexer.Scan → State.Parse → generate → mach.Emitter
package compiler
