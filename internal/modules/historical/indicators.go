package historical

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/markcheno/go-talib"
)

// ParseIndicators validates a comma-separated indicator list like
// "sma20,ema50,rsi14" and returns the cleaned specs. An empty input
// returns nil.
func ParseIndicators(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	var specs []string
	for _, part := range strings.Split(raw, ",") {
		spec := strings.ToLower(strings.TrimSpace(part))
		if spec == "" {
			continue
		}
		if _, _, err := parseSpec(spec); err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}

	return specs, nil
}

// ComputeIndicators computes each requested overlay for a chronological
// close series. Slices align with the input; entries before an indicator
// has enough bars are zero.
func ComputeIndicators(closes []float64, specs []string) (map[string][]float64, error) {
	if len(specs) == 0 {
		return nil, nil
	}

	overlays := make(map[string][]float64, len(specs))
	for _, spec := range specs {
		family, period, err := parseSpec(spec)
		if err != nil {
			return nil, err
		}

		if len(closes) < period {
			overlays[spec] = make([]float64, len(closes))
			continue
		}

		switch family {
		case "sma":
			overlays[spec] = talib.Sma(closes, period)
		case "ema":
			overlays[spec] = talib.Ema(closes, period)
		case "rsi":
			overlays[spec] = talib.Rsi(closes, period)
		}
	}

	return overlays, nil
}

func parseSpec(spec string) (string, int, error) {
	split := len(spec)
	for i, r := range spec {
		if r >= '0' && r <= '9' {
			split = i
			break
		}
	}

	family := spec[:split]
	period, err := strconv.Atoi(spec[split:])
	if err != nil || period < 2 {
		return "", 0, fmt.Errorf("invalid indicator %q: use name plus period, like sma20", spec)
	}

	switch family {
	case "sma", "ema", "rsi":
		return family, period, nil
	default:
		return "", 0, fmt.Errorf("unknown indicator %q (supported: sma, ema, rsi)", spec)
	}
}
