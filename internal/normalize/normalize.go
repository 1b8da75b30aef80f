package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"smartmoney/internal/model"
)

const unknownActor = "Unknown"

// Government normalizes a congressional trade. ok is false when no ticker
// resolves; the record must then be skipped.
func Government(raw Raw, now time.Time) (model.GovernmentTrade, bool) {
	f := governmentFields
	ticker := normalizeTicker(ResolveString(raw, f.Ticker))
	if ticker == "" {
		return model.GovernmentTrade{}, false
	}
	sideRaw, _ := Resolve(raw, f.Side)
	amountRaw, _ := Resolve(raw, f.Amount)
	txRaw, _ := Resolve(raw, f.TransactionDate)
	discRaw, _ := Resolve(raw, f.DisclosureDate)
	tx, txOK := ParseDate(txRaw, now)
	disc, discOK := ParseDate(discRaw, now)

	t := model.GovernmentTrade{
		Ticker:          ticker,
		Side:            ParseSide(sideRaw),
		Amount:          ParseMoney(amountRaw),
		Representative:  orUnknown(ResolveString(raw, f.Actor)),
		Chamber:         ResolveString(raw, f.Chamber),
		TransactionDate: tx,
		DisclosureDate:  disc,
		Link:            ResolveString(raw, f.Link),
	}
	t.ID = IdentityHash(
		t.Ticker,
		hashDate(tx, txOK),
		hashDate(disc, discOK),
		strings.ToLower(t.Representative),
		string(t.Side),
		strconv.FormatInt(t.Amount, 10),
	)
	return t, true
}

// Insider normalizes a corporate insider filing. ok is false when no ticker resolves.
func Insider(raw Raw, now time.Time) (model.InsiderTrade, bool) {
	f := insiderFields
	ticker := normalizeTicker(ResolveString(raw, f.Ticker))
	if ticker == "" {
		return model.InsiderTrade{}, false
	}
	sideRaw, _ := Resolve(raw, f.Side)
	valueRaw, _ := Resolve(raw, f.Value)
	txRaw, _ := Resolve(raw, f.TransactionDate)
	filedRaw, _ := Resolve(raw, f.FilingDate)
	tx, txOK := ParseDate(txRaw, now)
	filed, filedOK := ParseDate(filedRaw, now)

	t := model.InsiderTrade{
		Ticker:          ticker,
		Side:            ParseSide(sideRaw),
		Value:           ParseMoney(valueRaw),
		Insider:         orUnknown(ResolveString(raw, f.Actor)),
		Role:            ResolveString(raw, f.Role),
		TransactionDate: tx,
		FilingDate:      filed,
		Link:            ResolveString(raw, f.Link),
	}
	t.ID = IdentityHash(
		t.Ticker,
		hashDate(tx, txOK),
		hashDate(filed, filedOK),
		strings.ToLower(t.Insider),
		string(t.Side),
		strconv.FormatInt(t.Value, 10),
		strings.ToLower(t.Role),
	)
	return t, true
}

// Contract normalizes a government contract award. ok is false when no ticker resolves.
func Contract(raw Raw, now time.Time) (model.Contract, bool) {
	f := contractFields
	ticker := normalizeTicker(ResolveString(raw, f.Ticker))
	if ticker == "" {
		return model.Contract{}, false
	}
	awardRaw, _ := Resolve(raw, f.AwardDate)
	amountRaw, _ := Resolve(raw, f.Amount)
	award, awardOK := ParseDate(awardRaw, now)

	c := model.Contract{
		Ticker:      ticker,
		AwardDate:   award,
		Amount:      ParseMoney(amountRaw),
		Agency:      ResolveString(raw, f.Agency),
		Description: ResolveString(raw, f.Description),
	}
	c.ID = IdentityHash(
		c.Ticker,
		hashDate(award, awardOK),
		strconv.FormatInt(c.Amount, 10),
		strings.ToLower(c.Agency),
		strings.ToLower(c.Description),
	)
	return c, true
}

// IdentityHash is the hex SHA-256 of the "|"-joined parts.
func IdentityHash(parts ...string) string {
	h := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(h[:])
}

// hashDate leaves defaulted dates out of the identity so the same undated
// payload collides with itself on every run.
func hashDate(t time.Time, parsed bool) string {
	if !parsed {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func normalizeTicker(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func orUnknown(s string) string {
	if s == "" {
		return unknownActor
	}
	return s
}
