// internal/universities/telaviv/config.go
package telaviv

type Config struct {
	BagrutURL     string
	CalculatorURL string
}

func LoadConfig() *Config {
	return &Config{
		BagrutURL:     "https://www.ims.tau.ac.il/md/calc/Bagrut.aspx",
		CalculatorURL: "https://go.tau.ac.il/he/calculator",
	}
}
