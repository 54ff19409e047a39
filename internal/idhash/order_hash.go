// Package idhash computes deterministic identifiers for domain entities.
package idhash

import (
	"crypto/sha256"
	"fmt"

	"github.com/mr-tron/base58"

	"fulfillment-mutation-lab/internal/domain"
)

// ComputeOrderHash computes the stable identifier used to query persisted
// order status. The hash covers every field that identifies the order's
// terms: offerer, salt, fraction, window, type, conduit, and both item
// lists. The signature is excluded so re-signing does not move the hash.
// Returns a base58-encoded SHA256 digest.
func ComputeOrderHash(o *domain.Order) string {
	h := sha256.New()

	fmt.Fprintf(h, "%s|%d|%d|%d|%d|%d|%d|%s|",
		o.Offerer,
		o.Salt,
		o.Numerator,
		o.Denominator,
		o.StartTime,
		o.EndTime,
		o.OrderType,
		o.ConduitKey,
	)
	writeItems(h, o.Offer)
	fmt.Fprint(h, "/")
	writeItems(h, o.Consideration)

	sum := h.Sum(nil)
	return base58.Encode(sum)
}

// ComputeRunID computes a deterministic iteration identifier from the
// entry point, targeted failure mode, seed, and the first order's hash.
func ComputeRunID(entryPoint, failureMode string, seed int64, orderHash string) string {
	data := fmt.Sprintf("%s|%s|%d|%s", entryPoint, failureMode, seed, orderHash)
	sum := sha256.Sum256([]byte(data))
	return base58.Encode(sum[:])
}

func writeItems(h interface{ Write([]byte) (int, error) }, items []domain.Item) {
	for _, it := range items {
		fmt.Fprintf(h, "%d:%s:%d:%d;", it.Type, it.Token, it.Identifier, it.Amount)
	}
}
