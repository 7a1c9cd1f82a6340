package blocklist

import (
	"testing"
)

func TestListIsBlocked(t *testing.T) {
	t.Parallel()

	l := New("example.com", "Ads.Tracker.NET.", "пример.рф", "10.0.0.1")

	tests := []struct {
		host string
		want bool
	}{
		{host: "example.com", want: true},
		{host: "www.example.com", want: true},
		{host: "a.b.c.example.com", want: true},
		{host: "EXAMPLE.COM", want: true},
		{host: "example.com.", want: true},
		{host: "notexample.com", want: false},
		{host: "example.com.evil.org", want: false},
		{host: "notexample.com.evil.org", want: false},
		{host: "example.org", want: false},
		{host: "com", want: false},
		{host: "ads.tracker.net", want: true},
		{host: "cdn.ads.tracker.net", want: true},
		{host: "tracker.net", want: false},
		{host: "xn--e1afmkfd.xn--p1ai", want: true},
		{host: "www.пример.рф", want: true},
		{host: "10.0.0.1", want: true},
		{host: "10.0.0.2", want: false},
		{host: "", want: false},

		// Labels that fail IDNA still match their blocked parents.
		{host: "ü-.example.com", want: true},
		{host: "-ü.example.com", want: true},
		{host: "a_ü.example.com", want: true},
		{host: "Ü-.WWW.Example.Com.", want: true},
		{host: "ü-.пример.рф", want: true},
		{host: "ü-.example.org", want: false},
		{host: "a_ü.notexample.com", want: false},
	}

	for _, tt := range tests {
		if got := l.IsBlocked(tt.host); got != tt.want {
			t.Errorf("IsBlocked(%q) = %v, want %v", tt.host, got, tt.want)
		}
	}
}

func TestNormalizeLabels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "ü-.Example.COM.", want: "ü-.example.com"},
		{in: "a_ü.пример.рф", want: "a_ü.xn--e1afmkfd.xn--p1ai"},
		{in: " [::1] ", want: "::1"},
	}

	for _, tt := range tests {
		if got := normalizeLabels(tt.in); got != tt.want {
			t.Errorf("normalizeLabels(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestListSuffixProperty(t *testing.T) {
	t.Parallel()

	entries := []string{"example.com", "a.io", "x.y.z.org"}
	l := New(entries...)

	prefixes := []string{"", "www.", "a.b.", "deep.er.sub."}
	for _, d := range entries {
		for _, p := range prefixes {
			if h := p + d; !l.IsBlocked(h) {
				t.Errorf("IsBlocked(%q) = false for entry %q", h, d)
			}
		}
		if h := "x" + d; l.IsBlocked(h) {
			t.Errorf("IsBlocked(%q) = true without a label boundary", h)
		}
	}
}

func TestEmptyListBlocksNothing(t *testing.T) {
	t.Parallel()

	var nilList *List
	for _, l := range []*List{New(), nilList} {
		if l.IsBlocked("example.com") {
			t.Fatal("empty list blocked a host")
		}
		if l.Len() != 0 {
			t.Fatalf("Len() = %d", l.Len())
		}
	}
}

func TestNewDeduplicates(t *testing.T) {
	t.Parallel()

	l := New("example.com", "EXAMPLE.com", "example.com.", "", "  ")
	if l.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", l.Len())
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "Example.COM", want: "example.com"},
		{in: "example.com.", want: "example.com"},
		{in: " example.com ", want: "example.com"},
		{in: "[2001:DB8::1]", want: "2001:db8::1"},
		{in: "ПрИмер.Рф", want: "xn--e1afmkfd.xn--p1ai"},
		{in: "", wantErr: true},
		{in: ".", wantErr: true},
	}

	for _, tt := range tests {
		got, err := Normalize(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("Normalize(%q) err=%v wantErr=%v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func BenchmarkIsBlockedMiss(b *testing.B) {
	l := New("blocked.com", "ads.example.net")
	for i := 0; i < b.N; i++ {
		if l.IsBlocked("www.images.other.com") {
			b.Fatal("expected not blocked")
		}
	}
}
