package room

import "strconv"

// Token minting. The scheme is carried over from the wire protocol's
// reference behavior: the room creator gets "host_<ip>", the n-th
// subsequent member gets "guest_<ip>_<n>" where n is the member count at
// join time. The suffix keeps tokens unique when several guests join from
// the same IP; minting happens under the registry lock so the count
// cannot race.

// HostToken mints the token for a room's first member.
func HostToken(ip string) string {
	return "host_" + ip
}

// GuestToken mints the token for the n-th subsequent member.
func GuestToken(ip string, n int) string {
	return "guest_" + ip + "_" + strconv.Itoa(n)
}
