// internal/universities/technion/config.go
package technion

type Config struct {
	CalculatorURL string
	CutoffURL     string
	// CutoffPanel is the accordion panel holding the cutoff table.
	CutoffPanel string
	CutoffLabel string
}

func LoadConfig() *Config {
	return &Config{
		CalculatorURL: "https://admissions.technion.ac.il/calculator/",
		CutoffURL:     "https://admissions.technion.ac.il/sechem-for-admission/sekem/",
		CutoffPanel:   "fl-accordion-j5qntrlu9hwf-panel-0",
		CutoffLabel:   "fl-accordion-j5qntrlu9hwf-label-0",
	}
}
