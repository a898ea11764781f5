package marketdata

import (
	"fmt"
	"strconv"
)

// FormatPriceChange renders a percent change with an explicit sign,
// e.g. "+2.35%".
func FormatPriceChange(priceChangePercent string) string {
	percent, err := strconv.ParseFloat(priceChangePercent, 64)
	if err != nil {
		return "0.00%"
	}
	return fmt.Sprintf("%+.2f%%", percent)
}

// FormatVolume renders a volume in compact notation (1.23B, 4.56M, 7.89K).
func FormatVolume(volume string) string {
	vol, err := strconv.ParseFloat(volume, 64)
	if err != nil {
		return "0"
	}
	switch {
	case vol >= 1_000_000_000:
		return fmt.Sprintf("%.2fB", vol/1_000_000_000)
	case vol >= 1_000_000:
		return fmt.Sprintf("%.2fM", vol/1_000_000)
	case vol >= 1_000:
		return fmt.Sprintf("%.2fK", vol/1_000)
	default:
		return fmt.Sprintf("%.2f", vol)
	}
}
