package gsmband

import "testing"

func TestARFCNToFreqGSM900(t *testing.T) {
	f, err := ARFCNToFreq(1, GSM900)
	if err != nil {
		t.Fatal(err)
	}
	want := 935.2e6
	if f != want {
		t.Fatalf("freq = %v, want %v", f, want)
	}
}

func TestARFCNToFreqAmbiguousWithoutBand(t *testing.T) {
	if _, err := ARFCNToFreq(600, 0); err == nil {
		t.Fatal("expected an error for an ambiguous arfcn without DCS1800/PCS1900")
	}
}

func TestChannelsGSM900Count(t *testing.T) {
	chans, err := Channels(GSM900)
	if err != nil {
		t.Fatal(err)
	}
	if len(chans) != 124 {
		t.Fatalf("len(chans) = %d, want 124", len(chans))
	}
	if chans[0] != 1 || chans[len(chans)-1] != 124 {
		t.Fatalf("chans = %v..%v, want 1..124", chans[0], chans[len(chans)-1])
	}
}

func TestParseBandAliases(t *testing.T) {
	cases := map[string]Band{
		"GSM-850": GSM850, "GSM900": GSM900, "DCS1800": DCS1800, "1900": PCS1900,
	}
	for s, want := range cases {
		got, err := ParseBand(s)
		if err != nil {
			t.Fatalf("ParseBand(%q): %v", s, err)
		}
		if got != want {
			t.Fatalf("ParseBand(%q) = %v, want %v", s, got, want)
		}
	}
}
