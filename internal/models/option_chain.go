// Package models defines the data shapes shared across the tracker: raw
// option-chain payloads, the flattened daily snapshot rows, trend samples and
// performance log entries.
package models

// ExpiryLayout is the day-month(abbrev)-year layout used by the exchange for
// expiry dates, e.g. "26-Jun-2025".
const ExpiryLayout = "02-Jan-2006"

// OptionChain is the decoded option-chain response for one underlying.
type OptionChain struct {
	Records OptionChainRecords `json:"records"`
}

// OptionChainRecords holds the spot price and the raw per-strike entries.
type OptionChainRecords struct {
	UnderlyingValue float64          `json:"underlyingValue"`
	Data            []OptionChainRow `json:"data"`
}

// OptionChainRow is one raw strike/expiry entry with its call and put sides.
// Either side may be missing in the upstream payload.
type OptionChainRow struct {
	CE          *OptionSide `json:"CE,omitempty"`
	PE          *OptionSide `json:"PE,omitempty"`
	ExpiryDate  string      `json:"expiryDate"`
	StrikePrice float64     `json:"strikePrice"`
}

// OptionSide carries the fields of one contract (call or put) that the
// tracker consumes.
type OptionSide struct {
	Identifier        string  `json:"identifier"`
	OpenInterest      int64   `json:"openInterest"`
	TotalTradedVolume int64   `json:"totalTradedVolume"`
	LastPrice         float64 `json:"lastPrice"`
}

// Call returns the call side, or an empty side when absent.
func (r OptionChainRow) Call() OptionSide {
	if r.CE == nil {
		return OptionSide{}
	}
	return *r.CE
}

// Put returns the put side, or an empty side when absent.
func (r OptionChainRow) Put() OptionSide {
	if r.PE == nil {
		return OptionSide{}
	}
	return *r.PE
}
