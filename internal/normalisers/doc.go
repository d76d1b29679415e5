// Package normalisers converts marked-up text files into plain text
// before ingestion. Each normaliser handles a set of file extensions;
// the registry picks one by extension or by format name.
package normalisers
