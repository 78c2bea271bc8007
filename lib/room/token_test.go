package room

import "testing"

func TestHostToken(t *testing.T) {
	if got := HostToken("10.0.0.1"); got != "host_10.0.0.1" {
		t.Errorf("HostToken() = %q, want host_10.0.0.1", got)
	}
}

func TestGuestToken(t *testing.T) {
	tests := []struct {
		ip   string
		n    int
		want string
	}{
		{"10.0.0.2", 1, "guest_10.0.0.2_1"},
		{"10.0.0.2", 2, "guest_10.0.0.2_2"},
		{"192.168.0.7", 12, "guest_192.168.0.7_12"},
	}

	for _, tt := range tests {
		if got := GuestToken(tt.ip, tt.n); got != tt.want {
			t.Errorf("GuestToken(%q, %d) = %q, want %q", tt.ip, tt.n, got, tt.want)
		}
	}
}
