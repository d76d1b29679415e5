package domain

// NormalisedText is plain text extracted from a marked-up source file.
type NormalisedText struct {
	Title  string
	Text   string
	Format string
}
