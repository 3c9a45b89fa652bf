package udisc

import (
	"crypto/hmac"
	"crypto/sha256"
)

// sigSize is the length of the HMAC-SHA256 signature prefixed to each packet
// when a shared secret is configured.
const sigSize = 32

// computeSig returns the HMAC-SHA256 signature for the given data using the
// shared secret.
func computeSig(data []byte, secret string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(data)
	return mac.Sum(nil)
}

// sealPacket prefixes the payload with its signature.
func sealPacket(data []byte, secret string) []byte {
	packet := computeSig(data, secret)
	return append(packet, data...)
}

// openPacket splits a signed packet and verifies the signature in constant
// time, returning the payload and whether it verified.
func openPacket(packet []byte, secret string) ([]byte, bool) {
	if len(packet) <= sigSize {
		return nil, false
	}
	sig, data := packet[:sigSize], packet[sigSize:]
	if !hmac.Equal(sig, computeSig(data, secret)) {
		return nil, false
	}
	return data, true
}
