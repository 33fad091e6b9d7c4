package lookup

import (
	"fmt"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/sevlook/sevlook/internal/sevco"
)

// Config holds the lookup-specific configuration.
type Config struct {
	MaxConcurrency  int64
	Rate            rate.Limit // Requests per second; 0 disables limiting
	Burst           int
	SeedCredentials sevco.Credentials
}

// LoadConfig loads lookup-specific configuration from environment
// variables. SEVCO_API_KEY, SEVCO_ORG_ID and SEVCO_ORG_SLUG seed the
// credential store on first boot; the settings endpoint owns them after
// that.
func LoadConfig() (*Config, error) {
	maxConcurrencyStr := os.Getenv("LOOKUP_MAX_CONCURRENCY")
	maxConcurrency, err := strconv.ParseInt(maxConcurrencyStr, 10, 64)
	if err != nil || maxConcurrency <= 0 {
		maxConcurrency = 5
		logrus.Infof("Invalid or missing LOOKUP_MAX_CONCURRENCY. Defaulting to %d.", maxConcurrency)
	}

	var rateLimit float64
	if rateStr := os.Getenv("SEVCO_RATE"); rateStr != "" {
		rateLimit, err = strconv.ParseFloat(rateStr, 64)
		if err != nil || rateLimit < 0 {
			return nil, fmt.Errorf("invalid SEVCO_RATE value: %s", rateStr)
		}
	}

	burst := 1
	if burstStr := os.Getenv("SEVCO_BURST"); burstStr != "" {
		burst, err = strconv.Atoi(burstStr)
		if err != nil || burst <= 0 {
			return nil, fmt.Errorf("invalid SEVCO_BURST value: %s", burstStr)
		}
	}

	return &Config{
		MaxConcurrency: maxConcurrency,
		Rate:           rate.Limit(rateLimit),
		Burst:          burst,
		SeedCredentials: sevco.Credentials{
			APIKey:  os.Getenv("SEVCO_API_KEY"),
			OrgID:   os.Getenv("SEVCO_ORG_ID"),
			OrgSlug: os.Getenv("SEVCO_ORG_SLUG"),
		},
	}, nil
}
