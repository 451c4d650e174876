package excel

import "strings"

// Config holds the options of the tabular reader and writer
type Config struct {
	Sheet         string   `json:"sheet"`          // worksheet read from and written to
	MissingTokens []string `json:"missing_tokens"` // cell texts read as missing, case-sensitive
}

// DefaultConfig returns the defaults: Sheet1, and the usual spellings of an
// absent value
func DefaultConfig() Config {
	return Config{
		Sheet:         "Sheet1",
		MissingTokens: []string{"", "NA", "N/A", "NaN", "nan", "NULL", "null"},
	}
}

func (c Config) isMissing(cell string) bool {
	cell = strings.TrimSpace(cell)
	for _, tok := range c.MissingTokens {
		if cell == tok {
			return true
		}
	}
	return false
}
