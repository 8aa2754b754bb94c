// Package gsmband converts between GSM ARFCNs (absolute radio-frequency
// channel numbers) and carrier frequencies. This is pure lookup-table
// arithmetic; spec.md explicitly scopes it out of the FCCH detector core, but
// a scan command needs it to turn a detected channel into a tunable
// frequency, so it is carried here as ambient domain support.
package gsmband

import "fmt"

// Band identifies one of the GSM frequency bands.
type Band int

const (
	GSM850 Band = iota
	GSMR900
	GSM900
	EGSM900
	DCS1800
	PCS1900
)

func (b Band) String() string {
	switch b {
	case GSM850:
		return "GSM-850"
	case GSMR900:
		return "GSM-R-900"
	case GSM900:
		return "GSM-900"
	case EGSM900:
		return "E-GSM-900"
	case DCS1800:
		return "DCS-1800"
	case PCS1900:
		return "PCS-1900"
	default:
		return "unknown band"
	}
}

// ParseBand maps common band names/aliases to a Band.
func ParseBand(s string) (Band, error) {
	switch s {
	case "GSM850", "GSM-850", "850":
		return GSM850, nil
	case "GSM-R", "R-GSM":
		return GSMR900, nil
	case "GSM900", "GSM-900", "900":
		return GSM900, nil
	case "EGSM", "E-GSM", "EGSM900", "E-GSM900", "E-GSM-900":
		return EGSM900, nil
	case "DCS", "DCS1800", "DCS-1800", "1800":
		return DCS1800, nil
	case "PCS", "PCS1900", "PCS-1900", "1900":
		return PCS1900, nil
	default:
		return 0, fmt.Errorf("gsmband: unknown band %q", s)
	}
}

// ARFCNToFreq returns the downlink carrier frequency in Hz for ARFCN n in
// band bi. ARFCNs 512-810 are shared between DCS-1800 and PCS-1900 and bi
// disambiguates them; 811-885 are DCS-1800 only.
func ARFCNToFreq(n int, bi Band) (float64, error) {
	switch {
	case 128 <= n && n <= 251:
		return 824.2e6 + 0.2e6*float64(n-128) + 45.0e6, nil
	case 1 <= n && n <= 124:
		return 890.0e6 + 0.2e6*float64(n) + 45.0e6, nil
	case n == 0:
		return 935e6, nil
	case 955 <= n && n <= 1023:
		return 890.0e6 + 0.2e6*float64(n-1024) + 45.0e6, nil
	case 512 <= n && n <= 810:
		switch bi {
		case DCS1800:
			return 1710.2e6 + 0.2e6*float64(n-512) + 95.0e6, nil
		case PCS1900:
			return 1850.2e6 + 0.2e6*float64(n-512) + 80.0e6, nil
		default:
			return 0, fmt.Errorf("gsmband: ambiguous arfcn %d needs DCS1800 or PCS1900", n)
		}
	case 811 <= n && n <= 885:
		return 1710.2e6 + 0.2e6*float64(n-512) + 95.0e6, nil
	default:
		return 0, fmt.Errorf("gsmband: bad arfcn %d", n)
	}
}

// FirstChan returns the lowest valid ARFCN in band bi.
func FirstChan(bi Band) (int, error) {
	switch bi {
	case GSM850:
		return 128, nil
	case GSMR900:
		return 955, nil
	case GSM900:
		return 1, nil
	case EGSM900:
		return 0, nil
	case DCS1800, PCS1900:
		return 512, nil
	default:
		return 0, fmt.Errorf("gsmband: unknown band %v", bi)
	}
}

// NextChan returns the next valid ARFCN after chan in band bi, or an error
// once the band is exhausted (E-GSM-900 wraps across its two sub-ranges).
func NextChan(chan_ int, bi Band) (int, error) {
	switch bi {
	case GSM850:
		if 128 <= chan_ && chan_ < 251 {
			return chan_ + 1, nil
		}
	case GSMR900:
		if 955 <= chan_ && chan_ < 974 {
			return chan_ + 1, nil
		}
	case GSM900:
		if 1 <= chan_ && chan_ < 124 {
			return chan_ + 1, nil
		}
	case EGSM900:
		switch {
		case 0 <= chan_ && chan_ < 124:
			return chan_ + 1, nil
		case chan_ == 124:
			return 975, nil
		case 975 <= chan_ && chan_ < 1023:
			return chan_ + 1, nil
		}
	case DCS1800:
		if 512 <= chan_ && chan_ < 885 {
			return chan_ + 1, nil
		}
	case PCS1900:
		if 512 <= chan_ && chan_ < 810 {
			return chan_ + 1, nil
		}
	}
	return 0, fmt.Errorf("gsmband: no channel after %d in %v", chan_, bi)
}

// Channels returns every ARFCN in band bi in ascending scan order.
func Channels(bi Band) ([]int, error) {
	first, err := FirstChan(bi)
	if err != nil {
		return nil, err
	}
	chans := []int{first}
	for {
		next, err := NextChan(chans[len(chans)-1], bi)
		if err != nil {
			return chans, nil
		}
		chans = append(chans, next)
	}
}
