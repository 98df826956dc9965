// internal/universities/bengurion/config.go
package bengurion

type Config struct {
	BaseURL string
	// CalculatorFrame selects the iframe hosting the calculator app.
	CalculatorFrame string
}

func LoadConfig() *Config {
	return &Config{
		BaseURL:         "https://www.bgu.ac.il/welcome/ba/calculator/",
		CalculatorFrame: "iframe[src*='apps4cloud.bgu.ac.il/calcprod']",
	}
}
