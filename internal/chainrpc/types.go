package chainrpc

import (
	"encoding/base64"

	"fulfillment-mutation-lab/internal/domain"
)

// Wire representations of the protocol types. Binary fields travel base64
// encoded; everything else maps one to one onto the domain structs.

type wireItem struct {
	ItemType   string `json:"itemType"`
	Token      string `json:"token,omitempty"`
	Identifier uint64 `json:"identifier,omitempty"`
	Amount     uint64 `json:"amount"`
}

type wireOrder struct {
	Offerer       string     `json:"offerer"`
	Signature     string     `json:"signature,omitempty"` // base64
	Salt          uint64     `json:"salt"`
	Numerator     uint64     `json:"numerator"`
	Denominator   uint64     `json:"denominator"`
	StartTime     int64      `json:"startTime"`
	EndTime       int64      `json:"endTime"`
	OrderType     string     `json:"orderType"`
	ConduitKey    string     `json:"conduitKey,omitempty"`
	Offer         []wireItem `json:"offer"`
	Consideration []wireItem `json:"consideration"`
}

type wireResolver struct {
	OrderIndex int      `json:"orderIndex"`
	Side       string   `json:"side"`
	ItemIndex  int      `json:"itemIndex"`
	Identifier uint64   `json:"identifier"`
	Proof      []string `json:"proof,omitempty"` // base64 elements
}

type wireCall struct {
	Caller      string `json:"caller"`
	NativeValue uint64 `json:"nativeValue"`
}

type wireOutcome struct {
	Status       string `json:"status"`
	RevertReason string `json:"revertReason,omitempty"`
}

type wireOrderStatus struct {
	Validated         bool   `json:"validated"`
	Cancelled         bool   `json:"cancelled"`
	FilledNumerator   uint64 `json:"filledNumerator"`
	FilledDenominator uint64 `json:"filledDenominator"`
}

func encodeItem(it domain.Item) wireItem {
	return wireItem{
		ItemType:   it.Type.String(),
		Token:      it.Token,
		Identifier: it.Identifier,
		Amount:     it.Amount,
	}
}

func encodeItems(items []domain.Item) []wireItem {
	out := make([]wireItem, len(items))
	for i, it := range items {
		out[i] = encodeItem(it)
	}
	return out
}

func encodeOrder(o domain.Order) wireOrder {
	return wireOrder{
		Offerer:       o.Offerer,
		Signature:     base64.StdEncoding.EncodeToString(o.Signature),
		Salt:          o.Salt,
		Numerator:     o.Numerator,
		Denominator:   o.Denominator,
		StartTime:     o.StartTime,
		EndTime:       o.EndTime,
		OrderType:     o.OrderType.String(),
		ConduitKey:    o.ConduitKey,
		Offer:         encodeItems(o.Offer),
		Consideration: encodeItems(o.Consideration),
	}
}

func encodeOrders(orders []domain.Order) []wireOrder {
	out := make([]wireOrder, len(orders))
	for i, o := range orders {
		out[i] = encodeOrder(o)
	}
	return out
}

func encodeResolvers(resolvers []domain.CriteriaResolver) []wireResolver {
	out := make([]wireResolver, len(resolvers))
	for i, r := range resolvers {
		wr := wireResolver{
			OrderIndex: r.OrderIndex,
			Side:       r.Side.String(),
			ItemIndex:  r.ItemIndex,
			Identifier: r.Identifier,
		}
		for _, el := range r.Proof {
			wr.Proof = append(wr.Proof, base64.StdEncoding.EncodeToString(el))
		}
		out[i] = wr
	}
	return out
}

func decodeOutcome(w wireOutcome) domain.ExecOutcome {
	return domain.ExecOutcome{
		Status:       w.Status,
		RevertReason: w.RevertReason,
	}
}

func decodeOrderStatus(w wireOrderStatus) domain.OrderStatus {
	return domain.OrderStatus{
		Validated:         w.Validated,
		Cancelled:         w.Cancelled,
		FilledNumerator:   w.FilledNumerator,
		FilledDenominator: w.FilledDenominator,
	}
}
