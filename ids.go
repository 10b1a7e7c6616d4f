package r2r

import "github.com/google/uuid"

// GenerateIDFromLabel derives a stable document ID from a label
// (UUIDv5 in the DNS namespace). The same label always yields the same ID.
func GenerateIDFromLabel(label string) string {
	return uuid.NewSHA1(uuid.NameSpaceDNS, []byte(label)).String()
}
