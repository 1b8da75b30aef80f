package normalize

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Raw is one loosely-typed upstream record.
type Raw = map[string]any

// Aliases lists the upstream keys tried, in order, for one logical field.
type Aliases []string

var governmentFields = struct {
	Ticker, Side, Amount, Actor, Chamber, TransactionDate, DisclosureDate, Link Aliases
}{
	Ticker:          Aliases{"Ticker", "Symbol"},
	Side:            Aliases{"Transaction", "TransactionType", "Type", "Side"},
	Amount:          Aliases{"Amount", "Range", "Trade_Size_USD", "Value"},
	Actor:           Aliases{"Representative", "Name", "Politician", "Senator"},
	Chamber:         Aliases{"House", "Chamber"},
	TransactionDate: Aliases{"TransactionDate", "Traded", "Date"},
	DisclosureDate:  Aliases{"ReportDate", "DisclosureDate", "Filed", "Disclosed"},
	Link:            Aliases{"Link", "URL"},
}

var insiderFields = struct {
	Ticker, Side, Value, Actor, Role, TransactionDate, FilingDate, Link Aliases
}{
	Ticker:          Aliases{"Ticker", "Symbol"},
	Side:            Aliases{"TransactionType", "TransactionCode", "Transaction", "Side"},
	Value:           Aliases{"Value", "TransactionValue", "Amount"},
	Actor:           Aliases{"InsiderName", "Name", "Insider", "ReportingOwner"},
	Role:            Aliases{"Title", "Role", "OfficerTitle", "Relationship"},
	TransactionDate: Aliases{"TransactionDate", "Date"},
	FilingDate:      Aliases{"FilingDate", "fileDate", "ReportDate", "DisclosureDate"},
	Link:            Aliases{"Link", "URL"},
}

var contractFields = struct {
	Ticker, AwardDate, Amount, Agency, Description Aliases
}{
	Ticker:      Aliases{"Ticker", "Symbol"},
	AwardDate:   Aliases{"Date", "AwardDate", "ActionDate"},
	Amount:      Aliases{"Amount", "Value", "ObligatedAmount"},
	Agency:      Aliases{"Agency", "AwardingAgency"},
	Description: Aliases{"Description"},
}

// Resolve returns the first present-and-non-empty value among aliases.
// nil and "" count as empty; 0 and false do not. An exact key match is tried
// before a case-insensitive one for each alias.
func Resolve(raw Raw, aliases Aliases) (any, bool) {
	for _, key := range aliases {
		if v, ok := raw[key]; ok && !isEmpty(v) {
			return v, true
		}
		if v, ok := foldLookup(raw, key); ok {
			return v, true
		}
	}
	return nil, false
}

// foldLookup matches key ignoring case. When several keys fold to the same
// name the lexically smallest non-empty one wins.
func foldLookup(raw Raw, key string) (any, bool) {
	var matches []string
	for k, v := range raw {
		if strings.EqualFold(k, key) && !isEmpty(v) {
			matches = append(matches, k)
		}
	}
	if len(matches) == 0 {
		return nil, false
	}
	sort.Strings(matches)
	return raw[matches[0]], true
}

// ResolveString is Resolve followed by a trimmed string conversion.
func ResolveString(raw Raw, aliases Aliases) string {
	v, ok := Resolve(raw, aliases)
	if !ok {
		return ""
	}
	return strings.TrimSpace(asString(v))
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return s == ""
	}
	return false
}

func asString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1e18 {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		return x.String()
	default:
		return fmt.Sprint(v)
	}
}
