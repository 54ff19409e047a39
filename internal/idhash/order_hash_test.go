package idhash

import (
	"testing"

	"fulfillment-mutation-lab/internal/domain"
)

func sampleOrder() *domain.Order {
	return &domain.Order{
		Offerer:     "offerer",
		Salt:        42,
		Numerator:   1,
		Denominator: 1,
		StartTime:   1000,
		EndTime:     2000,
		OrderType:   domain.OrderTypeFull,
		Offer: []domain.Item{
			{Type: domain.ItemFungible, Token: "tokenA", Amount: 100},
		},
		Consideration: []domain.Item{
			{Type: domain.ItemNative, Amount: 50},
		},
	}
}

func TestComputeOrderHashDeterministic(t *testing.T) {
	a := ComputeOrderHash(sampleOrder())
	b := ComputeOrderHash(sampleOrder())
	if a != b {
		t.Errorf("same order produced different hashes: %s != %s", a, b)
	}
	if a == "" {
		t.Error("empty hash")
	}
}

func TestComputeOrderHashSensitiveToSalt(t *testing.T) {
	o := sampleOrder()
	a := ComputeOrderHash(o)
	o.Salt ^= 1
	b := ComputeOrderHash(o)
	if a == b {
		t.Error("salt change did not move the hash")
	}
}

func TestComputeOrderHashIgnoresSignature(t *testing.T) {
	o := sampleOrder()
	a := ComputeOrderHash(o)
	o.Signature = []byte{1, 2, 3}
	b := ComputeOrderHash(o)
	if a != b {
		t.Error("signature should not affect the order hash")
	}
}

func TestComputeOrderHashSensitiveToItems(t *testing.T) {
	o := sampleOrder()
	a := ComputeOrderHash(o)
	o.Offer[0].Amount++
	b := ComputeOrderHash(o)
	if a == b {
		t.Error("offer amount change did not move the hash")
	}
}

func TestComputeRunIDDeterministic(t *testing.T) {
	a := ComputeRunID("FULFILL", "ORDER_EXPIRED", 7, "hash")
	b := ComputeRunID("FULFILL", "ORDER_EXPIRED", 7, "hash")
	if a != b {
		t.Errorf("run IDs differ: %s != %s", a, b)
	}
	c := ComputeRunID("FULFILL", "ORDER_EXPIRED", 8, "hash")
	if a == c {
		t.Error("seed change did not move the run ID")
	}
}
