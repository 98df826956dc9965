// internal/universities/hebrewuniversity/config.go
package hebrewuniversity

// Config holds the two HUJI sites the check runs against.
type Config struct {
	CalculatorURL string
	ProgramsURL   string
}

func LoadConfig() *Config {
	return &Config{
		CalculatorURL: "https://bagrut-calculator.huji.ac.il/calculator/#/grade-input",
		ProgramsURL:   "https://go.huji.ac.il/?locale=he",
	}
}
