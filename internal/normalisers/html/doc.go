// Package html provides a Normaliser for HTML pages. Scripts, styles and
// markup are removed and entities decoded before the text is chunked.
package html
